package cart

import (
	"context"
	"time"
)

type expiryKey struct{}

// WithSessionExpiry records when the buyer session ends so the registry can
// drop its store at that point.
func WithSessionExpiry(ctx context.Context, expiresAt time.Time) context.Context {
	if expiresAt.IsZero() {
		return ctx
	}
	return context.WithValue(ctx, expiryKey{}, expiresAt)
}

func SessionExpiry(ctx context.Context) (time.Time, bool) {
	if ctx == nil {
		return time.Time{}, false
	}
	t, ok := ctx.Value(expiryKey{}).(time.Time)
	return t, ok
}
