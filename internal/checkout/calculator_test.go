package checkout

import (
	"testing"

	"github.com/angelmondragon/payflow-checkout/internal/cart"
	"github.com/angelmondragon/payflow-checkout/internal/catalog"
	"github.com/angelmondragon/payflow-checkout/internal/selection"
	"github.com/angelmondragon/payflow-checkout/pkg/enums"
	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func cinema(price string) catalog.Service {
	return catalog.Service{ID: "svc-cine", Name: "Dune", Type: enums.ServiceTypeCine, Price: dec(price), Columns: 12}
}

func TestCartTotal(t *testing.T) {
	cc := CartContext{Items: []cart.LineItem{
		{ID: "a", Price: dec("10.00"), Quantity: 2},
		{ID: "b", Price: dec("5.50"), Quantity: 1},
	}}
	calc := Calculator{ChargeMinimumOneSeat: true}

	if got := calc.Total(cc); !got.Equal(dec("25.50")) {
		t.Fatalf("expected 25.50, got %s", got)
	}
	if got := calc.Quantity(cc); got != 3 {
		t.Fatalf("expected quantity 3, got %d", got)
	}
	items := calc.Items(cc)
	if len(items) != 2 || items[0].ProductID != "a" || items[0].Quantity != 2 {
		t.Fatalf("unexpected items %+v", items)
	}
	if cc.Kind() != enums.CheckoutKindCart {
		t.Fatalf("unexpected kind")
	}
}

func TestCinemaTotal(t *testing.T) {
	calc := Calculator{ChargeMinimumOneSeat: true}

	two := ServiceContext{Service: cinema("20.00"), Seats: []string{"C7", "C8"}}
	if got := calc.Total(two); !got.Equal(dec("40.00")) {
		t.Fatalf("expected 40.00, got %s", got)
	}

	none := ServiceContext{Service: cinema("20.00")}
	if got := calc.Total(none); !got.Equal(dec("20.00")) {
		t.Fatalf("expected single implicit seat 20.00, got %s", got)
	}
	if got := calc.Quantity(none); got != 1 {
		t.Fatalf("expected quantity 1, got %d", got)
	}

	items := calc.Items(two)
	if len(items) != 1 || items[0].ServiceID != "svc-cine" || items[0].Quantity != 2 || len(items[0].Seats) != 2 {
		t.Fatalf("unexpected items %+v", items)
	}
}

func TestCinemaWithoutMinimumCharge(t *testing.T) {
	calc := Calculator{ChargeMinimumOneSeat: false}
	none := ServiceContext{Service: cinema("20.00")}
	if got := calc.Total(none); !got.IsZero() {
		t.Fatalf("expected zero, got %s", got)
	}
	if got := calc.Quantity(none); got != 0 {
		t.Fatalf("expected quantity 0, got %d", got)
	}
}

func TestEventUsesTierPrice(t *testing.T) {
	calc := Calculator{ChargeMinimumOneSeat: true}
	svc := catalog.Service{ID: "evt", Type: enums.ServiceTypeEvento, Price: dec("50.00")}
	tier := &selection.Tier{ID: "vip", Price: dec("150.00"), StockTotal: 10, StockSold: 2}

	if got := calc.Total(ServiceContext{Service: svc, Tier: tier}); !got.Equal(dec("150.00")) {
		t.Fatalf("expected tier price, got %s", got)
	}
	if got := calc.Total(ServiceContext{Service: svc}); !got.Equal(dec("50.00")) {
		t.Fatalf("expected base price without tier, got %s", got)
	}
	items := calc.Items(ServiceContext{Service: svc, Tier: tier})
	if items[0].TierID != "vip" || items[0].Quantity != 1 || items[0].Seats != nil {
		t.Fatalf("unexpected items %+v", items)
	}
}

func TestOtherServiceUsesBasePrice(t *testing.T) {
	calc := Calculator{}
	svc := catalog.Service{ID: "sub", Type: enums.ServiceTypeSuscripcion, Price: dec("29.90")}
	if got := calc.Total(ServiceContext{Service: svc, Seats: []string{"A1"}}); !got.Equal(dec("29.90")) {
		t.Fatalf("expected base price, got %s", got)
	}
}

func TestEmptyCartTotalIsZero(t *testing.T) {
	calc := Calculator{}
	if got := calc.Total(CartContext{}); !got.IsZero() {
		t.Fatalf("expected zero, got %s", got)
	}
	if !calc.Total(nil).IsZero() || calc.Quantity(nil) != 0 || calc.Items(nil) != nil {
		t.Fatalf("nil context must be inert")
	}
}
