package checkout

import (
	"context"
	"net/http"
	"time"

	checkoutdto "github.com/angelmondragon/payflow-checkout/api/controllers/checkout/dto"
	"github.com/angelmondragon/payflow-checkout/api/middleware"
	"github.com/angelmondragon/payflow-checkout/api/responses"
	"github.com/angelmondragon/payflow-checkout/api/validators"
	checkoutsvc "github.com/angelmondragon/payflow-checkout/internal/checkout"
	"github.com/angelmondragon/payflow-checkout/internal/payments"
	pkgerrors "github.com/angelmondragon/payflow-checkout/pkg/errors"
	"github.com/angelmondragon/payflow-checkout/pkg/logger"
)

// Service is the checkout surface the handlers drive.
type Service interface {
	Quote(ctx context.Context, buyer checkoutsvc.Buyer, input checkoutsvc.QuoteInput) (checkoutsvc.Quote, error)
	Pay(ctx context.Context, buyer checkoutsvc.Buyer, input checkoutsvc.PayInput) (checkoutsvc.PayResult, error)
	Accounts(ctx context.Context, buyer checkoutsvc.Buyer) ([]payments.BankAccount, error)
}

// Sessions tears down the in-memory state of a buyer session.
type Sessions interface {
	Close(sessionID string) bool
}

// Revoker blocks a session token until it expires.
type Revoker interface {
	Revoke(ctx context.Context, sessionID string, expiresAt time.Time) error
}

// AccountList returns the accounts the buyer can pay from.
func AccountList(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}
		buyer, err := buyerFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		accounts, err := svc.Accounts(r.Context(), buyer)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newAccounts(accounts))
	}
}

// CheckoutQuote prices a cart or service checkout without paying.
func CheckoutQuote(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}
		buyer, err := buyerFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload checkoutdto.QuoteRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := toQuoteInput(payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		quote, err := svc.Quote(r.Context(), buyer, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newQuote(quote))
	}
}

// CheckoutPay runs payment resolution. Rejections come back as a 200 with
// state REJECTED; only failures to build the checkout are errors.
func CheckoutPay(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}
		buyer, err := buyerFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload checkoutdto.PayRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := toPayInput(payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.Pay(r.Context(), buyer, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newPayment(result))
	}
}

// SessionLogout drops the session's cart store and, when a revoker is
// configured, rejects the token for the rest of its lifetime.
func SessionLogout(sessions Sessions, revoker Revoker, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := middleware.SessionIDFromContext(r.Context())
		if sessionID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "buyer session missing"))
			return
		}

		if revoker != nil {
			expiresAt, ok := middleware.SessionExpiryFromContext(r.Context())
			if !ok {
				expiresAt = time.Now().Add(24 * time.Hour)
			}
			if err := revoker.Revoke(r.Context(), sessionID, expiresAt); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke session"))
				return
			}
		}

		closed := false
		if sessions != nil {
			closed = sessions.Close(sessionID)
		}
		if logg != nil {
			logg.Info(logg.WithField(r.Context(), "cart_open", closed), "session.logout")
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func buyerFromContext(ctx context.Context) (checkoutsvc.Buyer, error) {
	buyer := checkoutsvc.Buyer{
		ID:        middleware.BuyerIDFromContext(ctx),
		SessionID: middleware.SessionIDFromContext(ctx),
		DNI:       middleware.DNIFromContext(ctx),
	}
	if buyer.ID == "" || buyer.SessionID == "" {
		return checkoutsvc.Buyer{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "buyer session missing")
	}
	return buyer, nil
}
