package auth

import (
	"github.com/golang-jwt/jwt/v5"
)

// BuyerTokenPayload captures the data available when minting a buyer JWT.
type BuyerTokenPayload struct {
	BuyerID string
	DNI     string
	// JTI identifies the session; generated when empty.
	JTI string
}

// BuyerClaims is the typed JWT presented by buyers. The jti doubles as the
// cart session id.
type BuyerClaims struct {
	BuyerID string `json:"buyer_id"`
	DNI     string `json:"dni,omitempty"`
	jwt.RegisteredClaims
}
