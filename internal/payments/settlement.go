package payments

import (
	"github.com/angelmondragon/payflow-checkout/pkg/enums"
	"github.com/shopspring/decimal"
)

// Settlement is the provider-specific payment block of an order. Each variant
// carries exactly the fields its origin requires.
type Settlement interface {
	Origin() enums.PaymentOrigin
	Amount() decimal.Decimal
	isSettlement()
}

// GatewaySettlement hands the amount to the redirect gateway. No account is involved.
type GatewaySettlement struct {
	Total decimal.Decimal
}

func (GatewaySettlement) Origin() enums.PaymentOrigin { return enums.PaymentOriginMercadoPago }
func (s GatewaySettlement) Amount() decimal.Decimal { return s.Total }
func (GatewaySettlement) isSettlement() {}

// WalletTransfer debits the internal PAYFLOW wallet.
type WalletTransfer struct {
	Total     decimal.Decimal
	AccountID string
}

func (WalletTransfer) Origin() enums.PaymentOrigin { return enums.PaymentOriginPayFlow }
func (s WalletTransfer) Amount() decimal.Decimal { return s.Total }
func (WalletTransfer) isSettlement() {}

// LinkedBankTransfer moves funds from a BCP-linked account and needs the
// buyer's DNI and the source account number.
type LinkedBankTransfer struct {
	Total         decimal.Decimal
	AccountID     string
	AccountNumber string
	DNI           string
}

func (LinkedBankTransfer) Origin() enums.PaymentOrigin { return enums.PaymentOriginBCP }
func (s LinkedBankTransfer) Amount() decimal.Decimal { return s.Total }
func (LinkedBankTransfer) isSettlement() {}
