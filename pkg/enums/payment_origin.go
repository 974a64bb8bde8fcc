package enums

import "fmt"

// PaymentOrigin tags where the funds of a settlement come from.
type PaymentOrigin string

const (
	PaymentOriginMercadoPago PaymentOrigin = "MERCADOPAGO"
	PaymentOriginPayFlow     PaymentOrigin = "PAYFLOW"
	PaymentOriginBCP         PaymentOrigin = "BCP"
)

var validPaymentOrigins = []PaymentOrigin{
	PaymentOriginMercadoPago,
	PaymentOriginPayFlow,
	PaymentOriginBCP,
}

// String implements fmt.Stringer.
func (p PaymentOrigin) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentOrigin.
func (p PaymentOrigin) IsValid() bool {
	for _, candidate := range validPaymentOrigins {
		if candidate == p {
			return true
		}
	}
	return false
}

// IsAccount reports whether the origin is backed by a balance-bearing account.
func (p PaymentOrigin) IsAccount() bool {
	return p == PaymentOriginPayFlow || p == PaymentOriginBCP
}

// ParsePaymentOrigin converts raw input into a PaymentOrigin.
func ParsePaymentOrigin(value string) (PaymentOrigin, error) {
	for _, candidate := range validPaymentOrigins {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment origin %q", value)
}
