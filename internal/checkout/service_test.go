package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/angelmondragon/payflow-checkout/internal/cart"
	"github.com/angelmondragon/payflow-checkout/internal/catalog"
	"github.com/angelmondragon/payflow-checkout/internal/payments"
	"github.com/angelmondragon/payflow-checkout/internal/selection"
	"github.com/angelmondragon/payflow-checkout/pkg/enums"
	pkgerrors "github.com/angelmondragon/payflow-checkout/pkg/errors"
)

type stubCatalog struct {
	services map[string]catalog.Service
	tiers    []selection.Tier
	accounts map[string]payments.BankAccount
	err      error
}

func (s *stubCatalog) Service(_ context.Context, id string) (catalog.Service, error) {
	if s.err != nil {
		return catalog.Service{}, s.err
	}
	svc, ok := s.services[id]
	if !ok {
		return catalog.Service{}, pkgerrors.New(pkgerrors.CodeNotFound, "service not found")
	}
	return svc, nil
}

func (s *stubCatalog) TicketTiers(context.Context, string) ([]selection.Tier, error) {
	return s.tiers, s.err
}

func (s *stubCatalog) Account(_ context.Context, id string) (payments.BankAccount, error) {
	acct, ok := s.accounts[id]
	if !ok {
		return payments.BankAccount{}, pkgerrors.New(pkgerrors.CodeNotFound, "account not found")
	}
	return acct, nil
}

func (s *stubCatalog) Accounts(context.Context) ([]payments.BankAccount, error) {
	out := make([]payments.BankAccount, 0, len(s.accounts))
	for _, a := range s.accounts {
		out = append(out, a)
	}
	return out, s.err
}

type stubSubmitter struct {
	calls   int
	outcome payments.Outcome
	err     error
}

func (s *stubSubmitter) Submit(context.Context, payments.Payload) (payments.Outcome, error) {
	s.calls++
	return s.outcome, s.err
}

type stubPublisher struct {
	data  [][]byte
	attrs []map[string]string
	err   error
}

func (s *stubPublisher) Publish(_ context.Context, data []byte, attrs map[string]string) (string, error) {
	s.data = append(s.data, data)
	s.attrs = append(s.attrs, attrs)
	return "msg-1", s.err
}

type countingFailures struct{ n int }

func (c *countingFailures) IncPublishFailure() { c.n++ }

type fixture struct {
	svc       *Service
	registry  *cart.Registry
	submitter *stubSubmitter
	catalog   *stubCatalog
	publisher *stubPublisher
	failures  *countingFailures
}

var testBuyer = Buyer{ID: "buyer-1", SessionID: "sess-1", DNI: "45871236"}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	registry, err := cart.NewRegistry(cart.RegistryParams{Snapshots: cart.NewMemorySnapshotStore()})
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	submitter := &stubSubmitter{}
	resolver, err := payments.NewResolver(payments.ResolverParams{Submitter: submitter})
	if err != nil {
		t.Fatalf("resolver: %v", err)
	}
	cat := &stubCatalog{
		services: map[string]catalog.Service{
			"cine": {ID: "cine", Type: enums.ServiceTypeCine, Price: dec("20.00"), Columns: 10, Occupied: []string{"A1"}},
			"evt":  {ID: "evt", Type: enums.ServiceTypeEvento, Price: dec("50.00")},
		},
		tiers: []selection.Tier{
			{ID: "gen", Price: dec("50.00"), StockTotal: 5, StockSold: 5},
			{ID: "vip", Price: dec("150.00"), StockTotal: 5, StockSold: 1},
		},
		accounts: map[string]payments.BankAccount{
			"wallet": {ID: "wallet", OwnerID: "buyer-1", Balance: dec("30.00"), Active: true, Origin: enums.PaymentOriginPayFlow},
			"bcp":    {ID: "bcp", OwnerID: "buyer-1", Number: "191-1", Balance: dec("500.00"), Active: true, Origin: enums.PaymentOriginBCP},
			"other":  {ID: "other", OwnerID: "buyer-2", Balance: dec("900.00"), Active: true, Origin: enums.PaymentOriginPayFlow},
		},
	}
	publisher := &stubPublisher{}
	failures := &countingFailures{}
	svc, err := NewService(ServiceParams{
		Catalog:     cat,
		Carts:       registry,
		Resolver:    resolver,
		Calculator:  Calculator{ChargeMinimumOneSeat: true},
		Publisher:   publisher,
		Metrics:     failures,
		DefaultNote: "Compra realizada desde PayFlow",
	})
	if err != nil {
		t.Fatalf("service: %v", err)
	}
	return &fixture{svc: svc, registry: registry, submitter: submitter, catalog: cat, publisher: publisher, failures: failures}
}

func (f *fixture) fillCart(t *testing.T) *cart.Store {
	t.Helper()
	store, err := f.registry.Get(context.Background(), testBuyer.SessionID)
	if err != nil {
		t.Fatalf("get store: %v", err)
	}
	if _, err := store.AddItem(context.Background(), cart.Product{ID: "a", Name: "A", Price: dec("10.00")}, 2); err != nil {
		t.Fatalf("add a: %v", err)
	}
	if _, err := store.AddItem(context.Background(), cart.Product{ID: "b", Name: "B", Price: dec("5.50")}, 1); err != nil {
		t.Fatalf("add b: %v", err)
	}
	return store
}

func TestNewServiceRequiresCollaborators(t *testing.T) {
	if _, err := NewService(ServiceParams{}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestQuoteEmptyCartIsValidationError(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Quote(context.Background(), testBuyer, QuoteInput{Kind: enums.CheckoutKindCart})
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestQuoteCart(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t)

	q, err := f.svc.Quote(context.Background(), testBuyer, QuoteInput{Kind: enums.CheckoutKindCart})
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if !q.Total.Equal(dec("25.50")) || q.Quantity != 3 || len(q.Items) != 2 {
		t.Fatalf("unexpected quote %+v", q)
	}
}

func TestQuoteCinemaReplaysSeats(t *testing.T) {
	f := newFixture(t)

	q, err := f.svc.Quote(context.Background(), testBuyer, QuoteInput{Kind: enums.CheckoutKindService, ServiceID: "cine", Seats: []string{"C8", "C7"}})
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if !q.Total.Equal(dec("40.00")) {
		t.Fatalf("expected 40.00, got %s", q.Total)
	}
	cc := q.Context.(ServiceContext)
	if len(cc.Seats) != 2 || cc.Seats[0] != "C7" {
		t.Fatalf("expected sorted seats, got %v", cc.Seats)
	}

	_, err = f.svc.Quote(context.Background(), testBuyer, QuoteInput{Kind: enums.CheckoutKindService, ServiceID: "cine", Seats: []string{"A1"}})
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected occupied seat rejection, got %v", err)
	}
}

func TestQuoteEventTier(t *testing.T) {
	f := newFixture(t)

	q, err := f.svc.Quote(context.Background(), testBuyer, QuoteInput{Kind: enums.CheckoutKindService, ServiceID: "evt", TierID: "vip"})
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if !q.Total.Equal(dec("150.00")) || q.Items[0].TierID != "vip" {
		t.Fatalf("unexpected quote %+v", q)
	}

	_, err = f.svc.Quote(context.Background(), testBuyer, QuoteInput{Kind: enums.CheckoutKindService, ServiceID: "evt", TierID: "gen"})
	if !pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
		t.Fatalf("expected sold-out conflict, got %v", err)
	}
}

func TestQuoteRejectsMismatchedSelections(t *testing.T) {
	f := newFixture(t)
	cases := []QuoteInput{
		{Kind: enums.CheckoutKindService, ServiceID: "evt", Seats: []string{"B2"}},
		{Kind: enums.CheckoutKindService, ServiceID: "cine", TierID: "vip"},
		{Kind: "wishlist"},
	}
	for _, input := range cases {
		if _, err := f.svc.Quote(context.Background(), testBuyer, input); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
			t.Fatalf("expected validation error for %+v, got %v", input, err)
		}
	}
}

func TestQuoteUnknownService(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Quote(context.Background(), testBuyer, QuoteInput{Kind: enums.CheckoutKindService, ServiceID: "nope"})
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestPayInsufficientFundsKeepsCart(t *testing.T) {
	f := newFixture(t)
	store := f.fillCart(t)
	store.Clear(context.Background())
	if _, err := store.AddItem(context.Background(), cart.Product{ID: "a", Price: dec("20.00")}, 2); err != nil {
		t.Fatalf("add: %v", err)
	}

	res, err := f.svc.Pay(context.Background(), testBuyer, PayInput{
		QuoteInput: QuoteInput{Kind: enums.CheckoutKindCart},
		Origin:     enums.PaymentOriginPayFlow,
		AccountID:  "wallet",
	})
	if err != nil {
		t.Fatalf("pay: %v", err)
	}
	if res.Resolution.State != enums.ResolutionRejected || res.Resolution.Code != pkgerrors.CodeInsufficientFunds {
		t.Fatalf("unexpected resolution %+v", res.Resolution)
	}
	if f.submitter.calls != 0 {
		t.Fatalf("submission must not happen")
	}
	if store.ItemCount() != 2 {
		t.Fatalf("cart must be kept after rejection")
	}
}

func TestPayConfirmedClearsCart(t *testing.T) {
	f := newFixture(t)
	store := f.fillCart(t)
	f.submitter.outcome = payments.Outcome{Order: &payments.Order{ID: "ord-1"}}

	res, err := f.svc.Pay(context.Background(), testBuyer, PayInput{
		QuoteInput: QuoteInput{Kind: enums.CheckoutKindCart},
		Origin:     enums.PaymentOriginMercadoPago,
	})
	if err != nil {
		t.Fatalf("pay: %v", err)
	}
	if res.Resolution.State != enums.ResolutionConfirmed || res.CheckoutID == "" {
		t.Fatalf("unexpected result %+v", res)
	}
	if store.ItemCount() != 0 {
		t.Fatalf("cart should be cleared after confirmation")
	}

	if len(f.publisher.data) != 1 {
		t.Fatalf("expected one outcome event, got %d", len(f.publisher.data))
	}
	var event OutcomeEvent
	if err := json.Unmarshal(f.publisher.data[0], &event); err != nil {
		t.Fatalf("decode event: %v", err)
	}
	if event.OrderID != "ord-1" || event.State != enums.ResolutionConfirmed || event.CheckoutID != res.CheckoutID {
		t.Fatalf("unexpected event %+v", event)
	}
	if f.publisher.attrs[0]["origin"] != "MERCADOPAGO" {
		t.Fatalf("unexpected attrs %v", f.publisher.attrs[0])
	}
}

func TestPayRedirectKeepsCart(t *testing.T) {
	f := newFixture(t)
	store := f.fillCart(t)
	f.submitter.outcome = payments.Outcome{RedirectURL: "https://mp.test/1"}

	res, err := f.svc.Pay(context.Background(), testBuyer, PayInput{
		QuoteInput: QuoteInput{Kind: enums.CheckoutKindCart},
		Origin:     enums.PaymentOriginMercadoPago,
	})
	if err != nil {
		t.Fatalf("pay: %v", err)
	}
	if res.Resolution.State != enums.ResolutionRedirected || store.ItemCount() != 3 {
		t.Fatalf("unexpected result %+v, items %d", res.Resolution, store.ItemCount())
	}
}

func TestPayLinkedBankUsesBuyerDNI(t *testing.T) {
	f := newFixture(t)
	f.submitter.outcome = payments.Outcome{Order: &payments.Order{ID: "ord-2"}}

	res, err := f.svc.Pay(context.Background(), testBuyer, PayInput{
		QuoteInput: QuoteInput{Kind: enums.CheckoutKindService, ServiceID: "cine", Seats: []string{"B1"}},
		Origin:     enums.PaymentOriginBCP,
		AccountID:  "bcp",
	})
	if err != nil {
		t.Fatalf("pay: %v", err)
	}
	transfer, ok := res.Resolution.Settlement.(payments.LinkedBankTransfer)
	if !ok || transfer.DNI != testBuyer.DNI {
		t.Fatalf("unexpected settlement %+v", res.Resolution.Settlement)
	}

	noDNI := testBuyer
	noDNI.DNI = ""
	res, err = f.svc.Pay(context.Background(), noDNI, PayInput{
		QuoteInput: QuoteInput{Kind: enums.CheckoutKindService, ServiceID: "cine"},
		Origin:     enums.PaymentOriginBCP,
		AccountID:  "bcp",
	})
	if err != nil {
		t.Fatalf("pay: %v", err)
	}
	if res.Resolution.State != enums.ResolutionRejected || f.submitter.calls != 1 {
		t.Fatalf("missing DNI must reject before submission, got %+v calls=%d", res.Resolution, f.submitter.calls)
	}
}

func TestPayMethodValidation(t *testing.T) {
	f := newFixture(t)
	base := QuoteInput{Kind: enums.CheckoutKindService, ServiceID: "evt"}

	cases := []struct {
		name  string
		input PayInput
		code  pkgerrors.Code
	}{
		{"missing origin", PayInput{QuoteInput: base}, pkgerrors.CodeValidation},
		{"missing account", PayInput{QuoteInput: base, Origin: enums.PaymentOriginPayFlow}, pkgerrors.CodeValidation},
		{"unknown account", PayInput{QuoteInput: base, Origin: enums.PaymentOriginPayFlow, AccountID: "x"}, pkgerrors.CodeNotFound},
		{"origin mismatch", PayInput{QuoteInput: base, Origin: enums.PaymentOriginBCP, AccountID: "wallet"}, pkgerrors.CodeValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.Pay(context.Background(), testBuyer, tc.input)
			if !pkgerrors.IsCode(err, tc.code) {
				t.Fatalf("expected %s, got %v", tc.code, err)
			}
		})
	}
	if f.submitter.calls != 0 {
		t.Fatalf("no submission expected")
	}
}

func TestPayPublishFailureIsSwallowed(t *testing.T) {
	f := newFixture(t)
	f.publisher.err = errors.New("pubsub down")

	res, err := f.svc.Pay(context.Background(), testBuyer, PayInput{
		QuoteInput: QuoteInput{Kind: enums.CheckoutKindService, ServiceID: "evt"},
		Origin:     enums.PaymentOriginMercadoPago,
	})
	if err != nil {
		t.Fatalf("publish failure must not fail checkout: %v", err)
	}
	if res.Resolution.State != enums.ResolutionConfirmed {
		t.Fatalf("unexpected state %s", res.Resolution.State)
	}
	if f.failures.n != 1 {
		t.Fatalf("expected one recorded publish failure, got %d", f.failures.n)
	}
}

func TestAccountsOnlyListsBuyerOwned(t *testing.T) {
	f := newFixture(t)
	accounts, err := f.svc.Accounts(context.Background(), testBuyer)
	if err != nil || len(accounts) != 2 {
		t.Fatalf("unexpected accounts %+v %v", accounts, err)
	}
	for _, acct := range accounts {
		if acct.ID == "other" {
			t.Fatalf("account of another buyer listed")
		}
	}
}

func TestPayRejectsAccountOfAnotherBuyer(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Pay(context.Background(), testBuyer, PayInput{
		QuoteInput: QuoteInput{Kind: enums.CheckoutKindService, ServiceID: "evt"},
		Origin:     enums.PaymentOriginPayFlow,
		AccountID:  "other",
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if f.submitter.calls != 0 || len(f.publisher.data) != 0 {
		t.Fatalf("foreign account must not reach submission")
	}
}

func TestPayTokenDNIIsAuthoritative(t *testing.T) {
	f := newFixture(t)
	f.submitter.outcome = payments.Outcome{Order: &payments.Order{ID: "ord-3"}}
	input := PayInput{
		QuoteInput: QuoteInput{Kind: enums.CheckoutKindService, ServiceID: "evt"},
		Origin:     enums.PaymentOriginBCP,
		AccountID:  "bcp",
		DNI:        "99999999",
	}

	if _, err := f.svc.Pay(context.Background(), testBuyer, input); !pkgerrors.IsCode(err, pkgerrors.CodeForbidden) {
		t.Fatalf("expected forbidden for a foreign dni, got %v", err)
	}
	if f.submitter.calls != 0 {
		t.Fatalf("no submission expected")
	}

	input.DNI = testBuyer.DNI
	res, err := f.svc.Pay(context.Background(), testBuyer, input)
	if err != nil {
		t.Fatalf("pay: %v", err)
	}
	if transfer, ok := res.Resolution.Settlement.(payments.LinkedBankTransfer); !ok || transfer.DNI != testBuyer.DNI {
		t.Fatalf("unexpected settlement %+v", res.Resolution.Settlement)
	}

	noDNI := testBuyer
	noDNI.DNI = ""
	input.DNI = "12345678"
	res, err = f.svc.Pay(context.Background(), noDNI, input)
	if err != nil {
		t.Fatalf("pay: %v", err)
	}
	if transfer, ok := res.Resolution.Settlement.(payments.LinkedBankTransfer); !ok || transfer.DNI != "12345678" {
		t.Fatalf("request dni should fill a token without one, got %+v", res.Resolution.Settlement)
	}
}
