package payments

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
)

// Item references a purchased product or service with its quantity. Service
// items may carry the chosen seats or ticket tier.
type Item struct {
	ProductID string
	ServiceID string
	Quantity  int
	Seats     []string
	TierID    string
}

// Payload is everything the order backend needs to settle a checkout.
type Payload struct {
	BuyerID    string
	Items      []Item
	Settlement Settlement
	Note       string
}

// Order is a synchronously completed order.
type Order struct {
	ID     string          `json:"id"`
	Status string          `json:"status,omitempty"`
	Total  decimal.Decimal `json:"total"`
}

// Outcome is what a submission returns: a redirect URL or a completed order.
type Outcome struct {
	RedirectURL string
	Order       *Order
}

// Redirect reports whether the buyer must be sent to RedirectURL.
func (o Outcome) Redirect() bool {
	return strings.TrimSpace(o.RedirectURL) != ""
}

// Submitter sends an assembled payload to the order backend.
type Submitter interface {
	Submit(ctx context.Context, payload Payload) (Outcome, error)
}

// PaymentError is a backend rejection of a submitted payload.
type PaymentError struct {
	Reason string
	Status int
}

func (e *PaymentError) Error() string {
	if e.Reason == "" {
		return "payment rejected"
	}
	return "payment rejected: " + e.Reason
}

// StatusCode implements pkg/errors.StatusCoder.
func (e *PaymentError) StatusCode() int { return e.Status }
