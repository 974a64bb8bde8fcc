package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/payflow-checkout/api/controllers"
	cartcontrollers "github.com/angelmondragon/payflow-checkout/api/controllers/cart"
	checkoutcontrollers "github.com/angelmondragon/payflow-checkout/api/controllers/checkout"
	"github.com/angelmondragon/payflow-checkout/api/middleware"
	"github.com/angelmondragon/payflow-checkout/pkg/auth/session"
	"github.com/angelmondragon/payflow-checkout/pkg/config"
	"github.com/angelmondragon/payflow-checkout/pkg/logger"
)

// Carts is the cart registry surface the routes need.
type Carts interface {
	cartcontrollers.Carts
	checkoutcontrollers.Sessions
}

// Revocations is the session revocation list. Leave it nil to run without
// logout revocation.
type Revocations interface {
	session.Checker
	checkoutcontrollers.Revoker
}

// RouterParams carries everything the HTTP surface is built from.
type RouterParams struct {
	Config      *config.Config
	Logger      *logger.Logger
	Carts       Carts
	Products    cartcontrollers.Products
	Checkout    checkoutcontrollers.Service
	Revocations Revocations
	Gatherer    prometheus.Gatherer
	Readiness   []controllers.Dependency
}

func NewRouter(params RouterParams) http.Handler {
	cfg := params.Config
	logg := params.Logger

	var (
		checker session.Checker
		revoker checkoutcontrollers.Revoker
	)
	if params.Revocations != nil {
		checker = params.Revocations
		revoker = params.Revocations
	}

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSAllowedOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, params.Readiness...))
	})

	if params.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(params.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, checker, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartcontrollers.CartFetch(params.Carts, logg))
			r.Delete("/", cartcontrollers.CartClear(params.Carts, logg))
			r.Post("/items", cartcontrollers.CartAddItem(params.Carts, params.Products, logg))
			r.Put("/items/{productId}", cartcontrollers.CartSetItem(params.Carts, params.Products, logg))
			r.Delete("/items/{productId}", cartcontrollers.CartRemoveItem(params.Carts, logg))
		})

		r.Get("/accounts", checkoutcontrollers.AccountList(params.Checkout, logg))

		r.Route("/checkout", func(r chi.Router) {
			r.Post("/quote", checkoutcontrollers.CheckoutQuote(params.Checkout, logg))
			r.Post("/pay", checkoutcontrollers.CheckoutPay(params.Checkout, logg))
		})

		r.Post("/session/logout", checkoutcontrollers.SessionLogout(params.Carts, revoker, logg))
	})

	return r
}
