package cart

import (
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultKey is the fixed namespace cart snapshots are persisted under.
const DefaultKey = "payflow_cart"

// Product is the purchasable entity handed to the store when adding to the cart.
type Product struct {
	ID    string
	Name  string
	Image string
	Price decimal.Decimal
}

// LineItem is one distinct product tracked in the cart with its aggregated quantity.
type LineItem struct {
	ID       string          `json:"id"`
	Price    decimal.Decimal `json:"price"`
	Name     string          `json:"name"`
	Image    string          `json:"image,omitempty"`
	Quantity int             `json:"quantity"`
}

// Subtotal returns price × quantity.
func (l LineItem) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

func (l LineItem) valid() bool {
	return strings.TrimSpace(l.ID) != "" && l.Quantity >= 1 && !l.Price.IsNegative()
}

func lineFromProduct(p Product, qty int) LineItem {
	return LineItem{
		ID:       p.ID,
		Price:    p.Price,
		Name:     p.Name,
		Image:    p.Image,
		Quantity: qty,
	}
}

// PriceSelector picks the unit price Total multiplies by each line's quantity.
type PriceSelector func(LineItem) decimal.Decimal

// UnitPrice is the default selector.
func UnitPrice(l LineItem) decimal.Decimal {
	return l.Price
}
