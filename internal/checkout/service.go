package checkout

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/payflow-checkout/internal/cart"
	"github.com/angelmondragon/payflow-checkout/internal/catalog"
	"github.com/angelmondragon/payflow-checkout/internal/payments"
	"github.com/angelmondragon/payflow-checkout/internal/selection"
	"github.com/angelmondragon/payflow-checkout/pkg/enums"
	pkgerrors "github.com/angelmondragon/payflow-checkout/pkg/errors"
	"github.com/angelmondragon/payflow-checkout/pkg/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Catalog loads the entities a checkout prices and pays with.
type Catalog interface {
	Service(ctx context.Context, id string) (catalog.Service, error)
	TicketTiers(ctx context.Context, serviceID string) ([]selection.Tier, error)
	Account(ctx context.Context, id string) (payments.BankAccount, error)
	Accounts(ctx context.Context) ([]payments.BankAccount, error)
}

// Carts hands out the cart store of a buyer session.
type Carts interface {
	Get(ctx context.Context, sessionID string) (*cart.Store, error)
}

// Resolver settles a priced checkout.
type Resolver interface {
	Resolve(ctx context.Context, req payments.Request) payments.Resolution
}

// Buyer is the authenticated caller.
type Buyer struct {
	ID        string
	SessionID string
	DNI       string
}

// QuoteInput names the purchase to price. Seats apply to cinema services
// and TierID to events.
type QuoteInput struct {
	Kind      enums.CheckoutKind
	ServiceID string
	Seats     []string
	TierID    string
}

// Quote is a priced checkout context.
type Quote struct {
	Context  Context
	Quantity int
	Total    decimal.Decimal
	Items    []payments.Item
}

// PayInput is a quote plus the chosen payment method. AccountID is required
// for account-backed origins.
type PayInput struct {
	QuoteInput
	Origin    enums.PaymentOrigin
	AccountID string
	DNI       string
	Note      string
}

// PayResult is the outcome of one payment attempt.
type PayResult struct {
	CheckoutID string
	Quote      Quote
	Resolution payments.Resolution
}

type ServiceParams struct {
	Catalog     Catalog
	Carts       Carts
	Resolver    Resolver
	Calculator  Calculator
	Publisher   EventPublisher
	Logger      *logger.Logger
	Metrics     publishObserver
	DefaultNote string
}

// Service prices checkouts and drives the payment resolver for the HTTP layer.
type Service struct {
	catalog     Catalog
	carts       Carts
	resolver    Resolver
	calc        Calculator
	events      *outcomeEvents
	logg        *logger.Logger
	defaultNote string
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Catalog == nil {
		return nil, fmt.Errorf("catalog required")
	}
	if params.Carts == nil {
		return nil, fmt.Errorf("cart registry required")
	}
	if params.Resolver == nil {
		return nil, fmt.Errorf("payment resolver required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &Service{
		catalog:     params.Catalog,
		carts:       params.Carts,
		resolver:    params.Resolver,
		calc:        params.Calculator,
		events:      newOutcomeEvents(params.Publisher, logg, params.Metrics),
		logg:        logg,
		defaultNote: params.DefaultNote,
	}, nil
}

// Quote builds and prices the checkout context described by input.
func (s *Service) Quote(ctx context.Context, buyer Buyer, input QuoteInput) (Quote, error) {
	cc, err := s.buildContext(ctx, buyer, input)
	if err != nil {
		return Quote{}, err
	}
	return Quote{
		Context:  cc,
		Quantity: s.calc.Quantity(cc),
		Total:    s.calc.Total(cc),
		Items:    s.calc.Items(cc),
	}, nil
}

// Pay prices the checkout and runs payment resolution. A rejected payment is
// returned as data; errors are reserved for failures to load the checkout.
// A confirmed cart checkout clears the buyer's cart.
func (s *Service) Pay(ctx context.Context, buyer Buyer, input PayInput) (PayResult, error) {
	checkoutID := uuid.NewString()
	ctx = s.logg.WithCheckoutID(ctx, checkoutID)
	ctx = s.logg.WithField(ctx, "checkout_kind", string(input.Kind))

	quote, err := s.Quote(ctx, buyer, input.QuoteInput)
	if err != nil {
		return PayResult{}, err
	}

	method, err := s.method(ctx, buyer, input)
	if err != nil {
		return PayResult{}, err
	}

	dni, err := buyerDNI(buyer, input.DNI)
	if err != nil {
		return PayResult{}, err
	}
	note := strings.TrimSpace(input.Note)
	if note == "" {
		note = s.defaultNote
	}

	resolution := s.resolver.Resolve(ctx, payments.Request{
		BuyerID:  buyer.ID,
		BuyerDNI: dni,
		Method:   method,
		Total:    quote.Total,
		Items:    quote.Items,
		Note:     note,
	})

	if resolution.State == enums.ResolutionConfirmed && quote.Context.Kind() == enums.CheckoutKindCart {
		store, err := s.carts.Get(ctx, buyer.SessionID)
		if err != nil {
			s.logg.WarnErr(ctx, "checkout.cart.clear_failed", err)
		} else {
			store.Clear(ctx)
		}
	}

	result := PayResult{CheckoutID: checkoutID, Quote: quote, Resolution: resolution}
	s.events.publish(ctx, buyer, method.Origin(), result)
	return result, nil
}

// Accounts lists the accounts the buyer can pay from. Accounts owned by
// anybody else are dropped even if the backend returns them.
func (s *Service) Accounts(ctx context.Context, buyer Buyer) ([]payments.BankAccount, error) {
	all, err := s.catalog.Accounts(ctx)
	if err != nil {
		return nil, err
	}
	owned := make([]payments.BankAccount, 0, len(all))
	for _, acct := range all {
		if acct.OwnedBy(buyer.ID) {
			owned = append(owned, acct)
		}
	}
	return owned, nil
}

func (s *Service) buildContext(ctx context.Context, buyer Buyer, input QuoteInput) (Context, error) {
	switch input.Kind {
	case enums.CheckoutKindCart:
		store, err := s.carts.Get(ctx, buyer.SessionID)
		if err != nil {
			return nil, err
		}
		if store.ItemCount() == 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
		}
		return CartContext{Items: store.Items()}, nil
	case enums.CheckoutKindService:
		return s.serviceContext(ctx, input)
	}
	return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unsupported checkout kind %q", input.Kind))
}

// serviceContext replays the requested seats or tier against the current
// occupancy and availability.
func (s *Service) serviceContext(ctx context.Context, input QuoteInput) (Context, error) {
	svc, err := s.catalog.Service(ctx, input.ServiceID)
	if err != nil {
		return nil, err
	}
	cc := ServiceContext{Service: svc}

	switch {
	case svc.Type.UsesSeats():
		grid := selection.NewSeatGrid(svc.Columns, svc.Occupied)
		if err := grid.Select(input.Seats...); err != nil {
			return nil, err
		}
		cc.Seats = grid.Labels()
	case len(input.Seats) > 0:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "seats apply only to CINE services")
	}

	switch {
	case svc.Type.UsesTiers() && strings.TrimSpace(input.TierID) != "":
		tiers, err := s.catalog.TicketTiers(ctx, svc.ID)
		if err != nil {
			return nil, err
		}
		selector := selection.NewTierSelector(tiers)
		if err := selector.Select(input.TierID); err != nil {
			return nil, err
		}
		tier, _ := selector.Selected()
		cc.Tier = &tier
	case !svc.Type.UsesTiers() && strings.TrimSpace(input.TierID) != "":
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "ticket tiers apply only to EVENTO services")
	}
	return cc, nil
}

func (s *Service) method(ctx context.Context, buyer Buyer, input PayInput) (payments.Method, error) {
	if input.Origin == enums.PaymentOriginMercadoPago {
		return payments.Gateway{}, nil
	}
	if !input.Origin.IsAccount() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment origin is required").
			WithDetails(map[string]any{"origin": string(input.Origin)})
	}
	if strings.TrimSpace(input.AccountID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "account_id is required for account payments")
	}
	account, err := s.catalog.Account(ctx, input.AccountID)
	if err != nil {
		return nil, err
	}
	if !account.OwnedBy(buyer.ID) {
		s.logg.Warn(s.logg.WithField(ctx, "account_id", account.ID), "checkout.account.not_owned")
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "account does not belong to buyer")
	}
	if account.Origin != input.Origin {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "account origin does not match payment origin").
			WithDetails(map[string]any{"account_origin": string(account.Origin), "origin": string(input.Origin)})
	}
	return payments.Account{Account: account}, nil
}

// buyerDNI returns the DNI sent with a bank transfer. The token DNI wins; a
// request DNI is only accepted when the token carries none or it matches.
func buyerDNI(buyer Buyer, requested string) (string, error) {
	requested = strings.TrimSpace(requested)
	switch {
	case buyer.DNI == "":
		return requested, nil
	case requested != "" && requested != buyer.DNI:
		return "", pkgerrors.New(pkgerrors.CodeForbidden, "dni does not match the buyer session")
	}
	return buyer.DNI, nil
}
