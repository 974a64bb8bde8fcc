package selection

import (
	"testing"

	pkgerrors "github.com/angelmondragon/payflow-checkout/pkg/errors"
	"github.com/shopspring/decimal"
)

func sampleTiers() []Tier {
	return []Tier{
		{ID: "general", Name: "General", Price: decimal.NewFromInt(50), StockTotal: 100, StockSold: 40},
		{ID: "vip", Name: "VIP", Price: decimal.NewFromInt(150), StockTotal: 10, StockSold: 10},
		{ID: "palco", Name: "Palco", Price: decimal.NewFromInt(300), StockTotal: 2, StockSold: 5},
	}
}

func TestTierSelectIsSingleSelect(t *testing.T) {
	selector := NewTierSelector(append(sampleTiers(), Tier{ID: "early", Price: decimal.NewFromInt(30), StockTotal: 5}))

	if err := selector.Select("general"); err != nil {
		t.Fatalf("select general: %v", err)
	}
	if err := selector.Select("early"); err != nil {
		t.Fatalf("select early: %v", err)
	}
	tier, ok := selector.Selected()
	if !ok || tier.ID != "early" {
		t.Fatalf("expected early to replace general, got %+v", tier)
	}
	if !selector.Price().Equal(decimal.NewFromInt(30)) {
		t.Fatalf("unexpected price %s", selector.Price())
	}
}

func TestTierSelectRejectsSoldOut(t *testing.T) {
	selector := NewTierSelector(sampleTiers())
	if err := selector.Select("general"); err != nil {
		t.Fatalf("select: %v", err)
	}

	for _, id := range []string{"vip", "palco"} {
		if err := selector.Select(id); !pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
			t.Fatalf("expected conflict for %s, got %v", id, err)
		}
	}
	if tier, _ := selector.Selected(); tier.ID != "general" {
		t.Fatalf("rejected selection must keep the prior tier, got %s", tier.ID)
	}
	if err := selector.Select("missing"); !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestTierRefreshDropsSoldOutSelection(t *testing.T) {
	selector := NewTierSelector(sampleTiers())
	_ = selector.Select("general")

	updated := sampleTiers()
	updated[0].StockSold = 100
	if !selector.Refresh(updated) {
		t.Fatalf("expected selection drop when tier sells out")
	}
	if _, ok := selector.Selected(); ok {
		t.Fatalf("sold out tier must not stay selected")
	}
	if !selector.Price().IsZero() {
		t.Fatalf("expected zero price without selection")
	}

	if selector.Refresh(sampleTiers()) {
		t.Fatalf("nothing selected, nothing to drop")
	}
	_ = selector.Select("general")
	selector.Clear()
	if _, ok := selector.Selected(); ok {
		t.Fatalf("expected clear to drop the selection")
	}
}

func TestTierAvailability(t *testing.T) {
	tiers := sampleTiers()
	if tiers[0].Available() != 60 || !tiers[0].Selectable() {
		t.Fatalf("general should have 60 left")
	}
	if tiers[1].Selectable() || tiers[2].Selectable() {
		t.Fatalf("sold out tiers must not be selectable")
	}
}
