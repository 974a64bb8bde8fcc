package cart

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	cartdto "github.com/angelmondragon/payflow-checkout/api/controllers/cart/dto"
	"github.com/angelmondragon/payflow-checkout/api/middleware"
	"github.com/angelmondragon/payflow-checkout/api/responses"
	"github.com/angelmondragon/payflow-checkout/api/validators"
	cartsvc "github.com/angelmondragon/payflow-checkout/internal/cart"
	"github.com/angelmondragon/payflow-checkout/internal/catalog"
	pkgerrors "github.com/angelmondragon/payflow-checkout/pkg/errors"
	"github.com/angelmondragon/payflow-checkout/pkg/logger"
)

// Carts hands out the cart store of a buyer session.
type Carts interface {
	Get(ctx context.Context, sessionID string) (*cartsvc.Store, error)
}

// Products resolves the product a cart line is built from.
type Products interface {
	Product(ctx context.Context, id string) (catalog.Product, error)
}

// CartFetch returns the buyer's cart.
func CartFetch(carts Carts, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, err := sessionCart(r, carts)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCart(store))
	}
}

// CartAddItem adds units of a catalog product to the cart, merging with an
// existing line.
func CartAddItem(carts Carts, products Products, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if products == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product catalog unavailable"))
			return
		}
		store, err := sessionCart(r, carts)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload cartdto.AddItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := products.Product(r.Context(), strings.TrimSpace(payload.ProductID))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if _, err := store.AddItem(r.Context(), product.LineProduct(), payload.Quantity); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newCart(store))
	}
}

// CartSetItem replaces the quantity of a line. Zero removes it.
func CartSetItem(carts Carts, products Products, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if products == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product catalog unavailable"))
			return
		}
		store, err := sessionCart(r, carts)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload cartdto.SetItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		productID := strings.TrimSpace(chi.URLParam(r, "productId"))
		if payload.Quantity == 0 {
			store.RemoveItem(r.Context(), productID)
			responses.WriteSuccess(w, newCart(store))
			return
		}

		product, err := products.Product(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if _, _, err := store.SetItem(r.Context(), product.LineProduct(), payload.Quantity); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCart(store))
	}
}

func CartRemoveItem(carts Carts, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, err := sessionCart(r, carts)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		store.RemoveItem(r.Context(), strings.TrimSpace(chi.URLParam(r, "productId")))
		responses.WriteSuccess(w, newCart(store))
	}
}

func CartClear(carts Carts, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, err := sessionCart(r, carts)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		store.Clear(r.Context())
		responses.WriteSuccess(w, newCart(store))
	}
}

func sessionCart(r *http.Request, carts Carts) (*cartsvc.Store, error) {
	if carts == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "cart registry unavailable")
	}
	sessionID := middleware.SessionIDFromContext(r.Context())
	if sessionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "buyer session missing")
	}
	return carts.Get(r.Context(), sessionID)
}
