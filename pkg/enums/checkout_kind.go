package enums

import "fmt"

// CheckoutKind tells which purchase context a checkout runs in.
type CheckoutKind string

const (
	CheckoutKindCart    CheckoutKind = "cart"
	CheckoutKindService CheckoutKind = "service"
)

// ParseCheckoutKind converts raw input into a CheckoutKind.
func ParseCheckoutKind(value string) (CheckoutKind, error) {
	switch CheckoutKind(value) {
	case CheckoutKindCart, CheckoutKindService:
		return CheckoutKind(value), nil
	}
	return "", fmt.Errorf("invalid checkout kind %q", value)
}
