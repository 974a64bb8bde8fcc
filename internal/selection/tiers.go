package selection

import (
	"fmt"

	pkgerrors "github.com/angelmondragon/payflow-checkout/pkg/errors"
	"github.com/shopspring/decimal"
)

// Tier is a priced ticket category of an event with its own stock.
type Tier struct {
	ID         string
	Name       string
	Price      decimal.Decimal
	StockTotal int
	StockSold  int
}

// Available returns the remaining units (stock total - stock sold).
func (t Tier) Available() int {
	return t.StockTotal - t.StockSold
}

// Selectable reports whether any unit is left.
func (t Tier) Selectable() bool {
	return t.Available() > 0
}

// TierSelector is the single-select ticket-tier state machine.
type TierSelector struct {
	tiers    []Tier
	selected string
}

func NewTierSelector(tiers []Tier) *TierSelector {
	return &TierSelector{tiers: append([]Tier(nil), tiers...)}
}

// Tiers returns the known tiers in their original order.
func (s *TierSelector) Tiers() []Tier {
	return append([]Tier(nil), s.tiers...)
}

// Select replaces any prior selection with the tier id. A tier with no
// availability is rejected and the prior selection is kept.
func (s *TierSelector) Select(id string) error {
	tier, ok := s.find(id)
	if !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("ticket tier %s not found", id))
	}
	if !tier.Selectable() {
		return pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("ticket tier %s is sold out", id)).
			WithDetails(map[string]any{"tier_id": id, "available": tier.Available()})
	}
	s.selected = tier.ID
	return nil
}

// Selected returns the chosen tier.
func (s *TierSelector) Selected() (Tier, bool) {
	if s.selected == "" {
		return Tier{}, false
	}
	return s.find(s.selected)
}

// Price returns the chosen tier's price, zero when nothing is selected.
func (s *TierSelector) Price() decimal.Decimal {
	if tier, ok := s.Selected(); ok {
		return tier.Price
	}
	return decimal.Zero
}

// Refresh replaces the tier data and drops the selection when the chosen tier
// vanished or sold out. It reports whether the selection was dropped.
func (s *TierSelector) Refresh(tiers []Tier) bool {
	s.tiers = append([]Tier(nil), tiers...)
	if s.selected == "" {
		return false
	}
	if tier, ok := s.find(s.selected); ok && tier.Selectable() {
		return false
	}
	s.selected = ""
	return true
}

// Clear drops the selection.
func (s *TierSelector) Clear() {
	s.selected = ""
}

func (s *TierSelector) find(id string) (Tier, bool) {
	for _, tier := range s.tiers {
		if tier.ID == id {
			return tier, true
		}
	}
	return Tier{}, false
}
