package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/angelmondragon/payflow-checkout/api/responses"
	"github.com/angelmondragon/payflow-checkout/internal/cart"
	pkgAuth "github.com/angelmondragon/payflow-checkout/pkg/auth"
	"github.com/angelmondragon/payflow-checkout/pkg/auth/session"
	"github.com/angelmondragon/payflow-checkout/pkg/config"
	pkgerrors "github.com/angelmondragon/payflow-checkout/pkg/errors"
	"github.com/angelmondragon/payflow-checkout/pkg/logger"
	"github.com/angelmondragon/payflow-checkout/pkg/payflow"
)

// Auth validates a buyer bearer token and seeds the request context with the
// buyer, session and DNI. Revoked sessions are rejected when checker is set.
func Auth(cfg config.JWTConfig, checker session.Checker, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgAuth.ParseBuyerToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}
			if claims.BuyerID == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing buyer id"))
				return
			}
			if claims.ID == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session id"))
				return
			}

			if checker != nil {
				revoked, err := checker.IsRevoked(r.Context(), claims.ID)
				if err != nil {
					responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "validate session"))
					return
				}
				if revoked {
					responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "session ended"))
					return
				}
			}

			ctx := context.WithValue(r.Context(), ctxBuyerID, claims.BuyerID)
			// backend reads and orders run as the buyer, not as this service
			ctx = payflow.WithBuyerToken(ctx, token)
			ctx = context.WithValue(ctx, ctxSessionID, claims.ID)
			if claims.DNI != "" {
				ctx = context.WithValue(ctx, ctxDNI, claims.DNI)
			}
			if claims.ExpiresAt != nil {
				ctx = context.WithValue(ctx, ctxSessionExpiry, claims.ExpiresAt.Time)
				ctx = cart.WithSessionExpiry(ctx, claims.ExpiresAt.Time)
			}

			if logg != nil {
				ctx = logg.WithBuyerID(ctx, claims.BuyerID)
				ctx = logg.WithField(ctx, "session_id", claims.ID)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(raw) > 7 && strings.EqualFold(raw[:7], "bearer ") {
		return strings.TrimSpace(raw[7:])
	}
	return raw
}
