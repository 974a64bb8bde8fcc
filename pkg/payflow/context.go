package payflow

import (
	"context"
	"strings"
)

type ctxKey struct{}

// WithBuyerToken forwards the buyer's bearer token to every backend call
// made with the returned context.
func WithBuyerToken(ctx context.Context, token string) context.Context {
	token = strings.TrimSpace(token)
	if token == "" {
		return ctx
	}
	return context.WithValue(ctx, ctxKey{}, token)
}

// BuyerToken returns the token set by WithBuyerToken.
func BuyerToken(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	token, _ := ctx.Value(ctxKey{}).(string)
	return token
}
