package routes

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/payflow-checkout/api/controllers"
	"github.com/angelmondragon/payflow-checkout/internal/cart"
	"github.com/angelmondragon/payflow-checkout/internal/catalog"
	checkoutsvc "github.com/angelmondragon/payflow-checkout/internal/checkout"
	"github.com/angelmondragon/payflow-checkout/internal/payments"
	pkgAuth "github.com/angelmondragon/payflow-checkout/pkg/auth"
	"github.com/angelmondragon/payflow-checkout/pkg/auth/session"
	"github.com/angelmondragon/payflow-checkout/pkg/config"
	"github.com/angelmondragon/payflow-checkout/pkg/logger"
	"github.com/angelmondragon/payflow-checkout/pkg/metrics"
	redisclient "github.com/angelmondragon/payflow-checkout/pkg/redis"
)

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error {
	return s.err
}

type stubProducts struct{}

func (stubProducts) Product(ctx context.Context, id string) (catalog.Product, error) {
	return catalog.Product{ID: id, Name: "Popcorn", Price: decimal.RequireFromString("10.00"), Stock: 10}, nil
}

type stubCheckout struct{}

func (stubCheckout) Quote(ctx context.Context, buyer checkoutsvc.Buyer, input checkoutsvc.QuoteInput) (checkoutsvc.Quote, error) {
	return checkoutsvc.Quote{Context: checkoutsvc.CartContext{}}, nil
}

func (stubCheckout) Pay(ctx context.Context, buyer checkoutsvc.Buyer, input checkoutsvc.PayInput) (checkoutsvc.PayResult, error) {
	return checkoutsvc.PayResult{}, nil
}

func (stubCheckout) Accounts(ctx context.Context, buyer checkoutsvc.Buyer) ([]payments.BankAccount, error) {
	return nil, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", CORSAllowedOrigins: []string{"*"}},
		JWT: config.JWTConfig{Secret: "secret", Issuer: "issuer", ExpirationMinutes: 60},
	}
}

func testRouter(t *testing.T, cfg *config.Config, mutate func(*RouterParams)) http.Handler {
	t.Helper()
	carts, err := cart.NewRegistry(cart.RegistryParams{Snapshots: cart.NewMemorySnapshotStore()})
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	params := RouterParams{
		Config:   cfg,
		Logger:   logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard}),
		Carts:    carts,
		Products: stubProducts{},
		Checkout: stubCheckout{},
	}
	if mutate != nil {
		mutate(&params)
	}
	return NewRouter(params)
}

func buildToken(t *testing.T, cfg *config.Config, jti string) string {
	t.Helper()
	token, err := pkgAuth.MintBuyerToken(cfg.JWT, time.Now(), pkgAuth.BuyerTokenPayload{BuyerID: "buyer-1", JTI: jti})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func serve(router http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func TestAPIRejectsMissingJWT(t *testing.T) {
	router := testRouter(t, testConfig(), nil)
	for _, path := range []string{"/api/v1/cart", "/api/v1/accounts"} {
		if resp := serve(router, http.MethodGet, path, "", ""); resp.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401 without token got %d", path, resp.Code)
		}
	}
}

func TestCartRoutesWithJWT(t *testing.T) {
	cfg := testConfig()
	router := testRouter(t, cfg, nil)
	token := buildToken(t, cfg, "sess-1")

	if resp := serve(router, http.MethodPost, "/api/v1/cart/items", token, `{"product_id":"p1","quantity":2}`); resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if resp := serve(router, http.MethodPut, "/api/v1/cart/items/p1", token, `{"quantity":3}`); resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	resp := serve(router, http.MethodGet, "/api/v1/cart", token, "")
	if resp.Code != http.StatusOK || !strings.Contains(resp.Body.String(), `"count":3`) {
		t.Fatalf("unexpected cart response %d: %s", resp.Code, resp.Body.String())
	}
	if resp := serve(router, http.MethodDelete, "/api/v1/cart/items/p1", token, ""); resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if resp := serve(router, http.MethodDelete, "/api/v1/cart", token, ""); resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestCheckoutRoutesWithJWT(t *testing.T) {
	cfg := testConfig()
	router := testRouter(t, cfg, nil)
	token := buildToken(t, cfg, "sess-1")

	if resp := serve(router, http.MethodGet, "/api/v1/accounts", token, ""); resp.Code != http.StatusOK {
		t.Fatalf("accounts: expected 200 got %d", resp.Code)
	}
	if resp := serve(router, http.MethodPost, "/api/v1/checkout/quote", token, `{"kind":"cart"}`); resp.Code != http.StatusOK {
		t.Fatalf("quote: expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if resp := serve(router, http.MethodPost, "/api/v1/checkout/pay", token, `{"kind":"cart","origin":"MERCADOPAGO"}`); resp.Code != http.StatusOK {
		t.Fatalf("pay: expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redisclient.NewFromRaw(goredis.NewClient(&goredis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = client.Close() })
	revocations, err := session.NewRevocations(client)
	if err != nil {
		t.Fatalf("new revocations: %v", err)
	}

	cfg := testConfig()
	router := testRouter(t, cfg, func(p *RouterParams) { p.Revocations = revocations })
	token := buildToken(t, cfg, "sess-logout")

	if resp := serve(router, http.MethodGet, "/api/v1/cart", token, ""); resp.Code != http.StatusOK {
		t.Fatalf("expected 200 before logout got %d", resp.Code)
	}
	if resp := serve(router, http.MethodPost, "/api/v1/session/logout", token, ""); resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204 got %d: %s", resp.Code, resp.Body.String())
	}
	if resp := serve(router, http.MethodGet, "/api/v1/cart", token, ""); resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 after logout got %d", resp.Code)
	}
}

func TestHealthRoutes(t *testing.T) {
	router := testRouter(t, testConfig(), func(p *RouterParams) {
		p.Readiness = []controllers.Dependency{{Name: "db", Pinger: stubPinger{}}, {Name: "events"}}
	})
	if resp := serve(router, http.MethodGet, "/health/live", "", ""); resp.Code != http.StatusOK {
		t.Fatalf("live: expected 200 got %d", resp.Code)
	}
	resp := serve(router, http.MethodGet, "/health/ready", "", "")
	if resp.Code != http.StatusOK || !strings.Contains(resp.Body.String(), `"events":"skipped"`) {
		t.Fatalf("ready: unexpected %d: %s", resp.Code, resp.Body.String())
	}
	if resp.Header().Get("X-PayFlow-Env") != "test" {
		t.Fatalf("expected env header")
	}
}

func TestHealthReadyReportsFailingDependency(t *testing.T) {
	router := testRouter(t, testConfig(), func(p *RouterParams) {
		p.Readiness = []controllers.Dependency{{Name: "redis", Pinger: stubPinger{err: errors.New("refused")}}}
	})
	resp := serve(router, http.MethodGet, "/health/ready", "", "")
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), `"redis":"down"`) {
		t.Fatalf("expected failing check in details: %s", resp.Body.String())
	}
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewCheckoutMetrics(reg)
	m.IncPublishFailure()

	router := testRouter(t, testConfig(), func(p *RouterParams) { p.Gatherer = reg })
	resp := serve(router, http.MethodGet, "/metrics", "", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "payflow_checkout_event_publish_failures_total 1") {
		t.Fatalf("expected publish failure counter in output")
	}
}
