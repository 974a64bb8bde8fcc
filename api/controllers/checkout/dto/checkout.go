package checkoutdto

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/payflow-checkout/pkg/enums"
)

// QuoteRequest names the purchase to price. Seats apply to CINE services and
// tier_id to EVENTO services.
type QuoteRequest struct {
	Kind      string   `json:"kind" validate:"required,oneof=cart service"`
	ServiceID string   `json:"service_id" validate:"required_if=Kind service"`
	Seats     []string `json:"seats,omitempty" validate:"omitempty,max=100,dive,required,max=8"`
	TierID    string   `json:"tier_id,omitempty"`
}

// PayRequest is a quote request plus the payment method.
type PayRequest struct {
	QuoteRequest
	Origin    string `json:"origin" validate:"required,oneof=MERCADOPAGO PAYFLOW BCP"`
	AccountID string `json:"account_id,omitempty" validate:"required_unless=Origin MERCADOPAGO"`
	DNI       string `json:"dni,omitempty" validate:"omitempty,max=20"`
	Note      string `json:"note,omitempty" validate:"omitempty,max=280"`
}

type Quote struct {
	Kind     enums.CheckoutKind `json:"kind"`
	Quantity int                `json:"quantity"`
	Total    decimal.Decimal    `json:"total"`
	Items    []QuoteItem        `json:"items"`
}

type QuoteItem struct {
	ProductID string   `json:"product_id,omitempty"`
	ServiceID string   `json:"service_id,omitempty"`
	Quantity  int      `json:"quantity"`
	Seats     []string `json:"seats,omitempty"`
	TierID    string   `json:"tier_id,omitempty"`
}

// Payment is the outcome of a payment attempt. A REJECTED state still
// answers 200; code and message explain the rejection.
type Payment struct {
	CheckoutID  string                  `json:"checkout_id"`
	State       enums.ResolutionState   `json:"state"`
	Trail       []enums.ResolutionState `json:"trail"`
	Code        string                  `json:"code,omitempty"`
	Message     string                  `json:"message,omitempty"`
	RedirectURL string                  `json:"redirect_url,omitempty"`
	Order       *Order                  `json:"order,omitempty"`
	Quote       Quote                   `json:"quote"`
}

type Order struct {
	ID     string          `json:"id"`
	Status string          `json:"status,omitempty"`
	Total  decimal.Decimal `json:"total"`
}

// Account is a payable account with its number masked.
type Account struct {
	ID      string              `json:"id"`
	Origin  enums.PaymentOrigin `json:"origin"`
	Bank    string              `json:"bank,omitempty"`
	Number  string              `json:"number,omitempty"`
	Type    string              `json:"type,omitempty"`
	Holder  string              `json:"holder,omitempty"`
	Balance decimal.Decimal     `json:"balance"`
	Active  bool                `json:"active"`
}
