package middleware

import (
	"context"
	"time"
)

type contextKey string

const (
	ctxBuyerID       contextKey = "buyer_id"
	ctxSessionID     contextKey = "session_id"
	ctxDNI           contextKey = "dni"
	ctxSessionExpiry contextKey = "session_expiry"
)

func BuyerIDFromContext(ctx context.Context) string {
	return stringValue(ctx, ctxBuyerID)
}

// SessionIDFromContext returns the token jti, which keys the buyer's cart.
func SessionIDFromContext(ctx context.Context) string {
	return stringValue(ctx, ctxSessionID)
}

func DNIFromContext(ctx context.Context) string {
	return stringValue(ctx, ctxDNI)
}

// SessionExpiryFromContext returns when the buyer token expires.
func SessionExpiryFromContext(ctx context.Context) (time.Time, bool) {
	if ctx == nil {
		return time.Time{}, false
	}
	v, ok := ctx.Value(ctxSessionExpiry).(time.Time)
	return v, ok
}

// WithBuyer injects the buyer identity into the context.
func WithBuyer(ctx context.Context, buyerID, sessionID, dni string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxBuyerID, buyerID)
	ctx = context.WithValue(ctx, ctxSessionID, sessionID)
	if dni != "" {
		ctx = context.WithValue(ctx, ctxDNI, dni)
	}
	return ctx
}

func stringValue(ctx context.Context, key contextKey) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(key).(string); ok {
		return v
	}
	return ""
}
