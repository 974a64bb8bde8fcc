package cartdto

import "github.com/shopspring/decimal"

// AddItemRequest adds quantity units of a product to the cart. A missing
// quantity counts as one unit.
type AddItemRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"gte=0"`
}

// SetItemRequest replaces the quantity of a line; zero removes it.
type SetItemRequest struct {
	Quantity int `json:"quantity" validate:"gte=0"`
}

// Cart is the buyer's cart as exposed through the API.
type Cart struct {
	Items []CartItem      `json:"items"`
	Count int             `json:"count"`
	Total decimal.Decimal `json:"total"`
}

// CartItem is one line of the cart.
type CartItem struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Image     string          `json:"image,omitempty"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}
