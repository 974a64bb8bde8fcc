package payments

import (
	"github.com/angelmondragon/payflow-checkout/pkg/enums"
	"github.com/shopspring/decimal"
)

// BankAccount is a balance-bearing account the buyer can pay from: the
// internal PAYFLOW wallet or a BCP-linked external account.
type BankAccount struct {
	ID      string
	OwnerID string
	Bank    string
	Number  string
	Type    string
	Holder  string
	Balance decimal.Decimal
	Active  bool
	Origin  enums.PaymentOrigin
}

// OwnedBy reports whether the account belongs to buyerID.
func (a BankAccount) OwnedBy(buyerID string) bool {
	return a.OwnerID != "" && a.OwnerID == buyerID
}

// Covers reports whether the balance pays for amount.
func (a BankAccount) Covers(amount decimal.Decimal) bool {
	return a.Balance.GreaterThanOrEqual(amount)
}

// Method is the payment method chosen by the buyer: Gateway or Account.
type Method interface {
	Origin() enums.PaymentOrigin
	isMethod()
}

// Gateway pays through the external redirect gateway, which owns the funds check.
type Gateway struct{}

func (Gateway) Origin() enums.PaymentOrigin { return enums.PaymentOriginMercadoPago }
func (Gateway) isMethod() {}

// Account pays from one of the buyer's balance-bearing accounts.
type Account struct {
	Account BankAccount
}

func (a Account) Origin() enums.PaymentOrigin { return a.Account.Origin }
func (Account) isMethod() {}
