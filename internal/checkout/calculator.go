package checkout

import (
	"github.com/angelmondragon/payflow-checkout/internal/cart"
	"github.com/angelmondragon/payflow-checkout/internal/catalog"
	"github.com/angelmondragon/payflow-checkout/internal/payments"
	"github.com/angelmondragon/payflow-checkout/internal/selection"
	"github.com/angelmondragon/payflow-checkout/pkg/enums"
	"github.com/shopspring/decimal"
)

// Context is the purchase a checkout settles: a CartContext or a ServiceContext.
type Context interface {
	Kind() enums.CheckoutKind
	isContext()
}

// CartContext checks out every line of the buyer's cart.
type CartContext struct {
	Items []cart.LineItem
}

func (CartContext) Kind() enums.CheckoutKind { return enums.CheckoutKindCart }
func (CartContext) isContext() {}

// ServiceContext checks out a single service, with the seats picked for a
// cinema or the tier picked for an event.
type ServiceContext struct {
	Service catalog.Service
	Seats   []string
	Tier    *selection.Tier
}

func (ServiceContext) Kind() enums.CheckoutKind { return enums.CheckoutKindService }
func (ServiceContext) isContext() {}

// Calculator derives the payable amount of a checkout context.
type Calculator struct {
	// ChargeMinimumOneSeat bills a cinema purchase without seats as one seat.
	ChargeMinimumOneSeat bool
}

// Quantity is the number of charged units.
func (c Calculator) Quantity(cc Context) int {
	switch v := cc.(type) {
	case CartContext:
		n := 0
		for _, item := range v.Items {
			n += item.Quantity
		}
		return n
	case ServiceContext:
		if v.Service.Type.UsesSeats() {
			return c.seatUnits(len(v.Seats))
		}
		return 1
	}
	return 0
}

// Total is the amount due for cc.
func (c Calculator) Total(cc Context) decimal.Decimal {
	switch v := cc.(type) {
	case CartContext:
		total := decimal.Zero
		for _, item := range v.Items {
			total = total.Add(item.Subtotal())
		}
		return total
	case ServiceContext:
		switch {
		case v.Service.Type.UsesSeats():
			return v.Service.Price.Mul(decimal.NewFromInt(int64(c.seatUnits(len(v.Seats)))))
		case v.Service.Type.UsesTiers() && v.Tier != nil:
			return v.Tier.Price
		default:
			return v.Service.Price
		}
	}
	return decimal.Zero
}

// Items renders cc as order items.
func (c Calculator) Items(cc Context) []payments.Item {
	switch v := cc.(type) {
	case CartContext:
		items := make([]payments.Item, 0, len(v.Items))
		for _, line := range v.Items {
			items = append(items, payments.Item{ProductID: line.ID, Quantity: line.Quantity})
		}
		return items
	case ServiceContext:
		item := payments.Item{
			ServiceID: v.Service.ID,
			Quantity:  c.Quantity(v),
		}
		if len(v.Seats) > 0 {
			item.Seats = append([]string(nil), v.Seats...)
		}
		if v.Tier != nil {
			item.TierID = v.Tier.ID
		}
		return []payments.Item{item}
	}
	return nil
}

func (c Calculator) seatUnits(selected int) int {
	if c.ChargeMinimumOneSeat && selected < 1 {
		return 1
	}
	return selected
}
