package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/payflow-checkout/pkg/enums"
	pkgerrors "github.com/angelmondragon/payflow-checkout/pkg/errors"
	"github.com/angelmondragon/payflow-checkout/pkg/logger"
	"github.com/shopspring/decimal"
)

// User-facing messages of rejected resolutions.
const (
	FallbackMessage          = "No se pudo procesar el pago. Intenta nuevamente."
	msgMethodRequired        = "Selecciona un método de pago."
	msgInvalidAmount         = "El monto a pagar debe ser mayor a cero."
	msgBuyerRequired         = "No se pudo identificar al comprador."
	msgItemsRequired         = "No hay productos para pagar."
	msgAccountInactive       = "La cuenta seleccionada no está activa."
	msgInsufficientFunds     = "Saldo insuficiente en la cuenta seleccionada."
	msgDNIRequired           = "Para pagar con una cuenta BCP se requiere el DNI del comprador."
	msgAccountNumberRequired = "La cuenta BCP seleccionada no tiene número de cuenta."
	msgUnsupportedOrigin     = "El origen de la cuenta seleccionada no es compatible."
)

type resolutionObserver interface {
	ObserveResolution(state enums.ResolutionState, origin enums.PaymentOrigin)
	ObserveSubmission(outcome enums.ResolutionState, duration time.Duration)
}

// Request is one settlement attempt.
type Request struct {
	BuyerID  string
	BuyerDNI string
	Method   Method
	Total    decimal.Decimal
	Items    []Item
	Note     string
}

// Resolution is the terminal result of a settlement attempt. Trail records
// every state visited, ending with State.
type Resolution struct {
	State       enums.ResolutionState
	Trail       []enums.ResolutionState
	Code        pkgerrors.Code
	Message     string
	RedirectURL string
	Order       *Order
	Settlement  Settlement
}

// Submitted reports whether a payload reached the order backend.
func (r Resolution) Submitted() bool {
	for _, state := range r.Trail {
		if state == enums.ResolutionSubmitted {
			return true
		}
	}
	return false
}

// ResolverParams wires the resolver.
type ResolverParams struct {
	Submitter Submitter
	Logger    *logger.Logger
	Metrics   resolutionObserver
	Clock     func() time.Time
}

// Resolver decides the settlement path of a checkout, validates funds for
// account payments, builds the provider-specific payload and classifies the
// backend outcome. A rejection never affects later attempts.
type Resolver struct {
	submitter Submitter
	logg      *logger.Logger
	metrics   resolutionObserver
	clock     func() time.Time
}

func NewResolver(params ResolverParams) (*Resolver, error) {
	if params.Submitter == nil {
		return nil, fmt.Errorf("order submitter required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	clock := params.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Resolver{
		submitter: params.Submitter,
		logg:      logg,
		metrics:   params.Metrics,
		clock:     clock,
	}, nil
}

type attempt struct {
	res    Resolution
	origin enums.PaymentOrigin
}

func (a *attempt) advance(state enums.ResolutionState) {
	a.res.State = state
	a.res.Trail = append(a.res.Trail, state)
}

func (a *attempt) reject(code pkgerrors.Code, message string) Resolution {
	a.res.Code = code
	a.res.Message = message
	a.advance(enums.ResolutionRejected)
	return a.res
}

// Resolve runs the state machine for req to a terminal state.
func (r *Resolver) Resolve(ctx context.Context, req Request) Resolution {
	run := &attempt{}
	run.advance(enums.ResolutionAwaitingMethod)

	res := r.resolve(ctx, run, req)

	if r.metrics != nil {
		r.metrics.ObserveResolution(res.State, run.origin)
	}
	ctx = r.logg.WithFields(ctx, map[string]any{
		"payment_origin":   string(run.origin),
		"resolution_state": string(res.State),
		"amount":           req.Total.StringFixed(2),
	})
	switch res.State {
	case enums.ResolutionRejected:
		r.logg.Warn(r.logg.WithField(ctx, "reason", res.Message), "payment.resolution.rejected")
	default:
		r.logg.Info(ctx, "payment.resolution.completed")
	}
	return res
}

func (r *Resolver) resolve(ctx context.Context, run *attempt, req Request) Resolution {
	if req.Method == nil {
		return run.reject(pkgerrors.CodeValidation, msgMethodRequired)
	}
	run.origin = req.Method.Origin()

	if strings.TrimSpace(req.BuyerID) == "" {
		return run.reject(pkgerrors.CodeValidation, msgBuyerRequired)
	}
	if len(req.Items) == 0 {
		return run.reject(pkgerrors.CodeValidation, msgItemsRequired)
	}
	if !req.Total.IsPositive() {
		return run.reject(pkgerrors.CodeValidation, msgInvalidAmount)
	}

	if acct, ok := req.Method.(Account); ok {
		run.advance(enums.ResolutionValidatingFunds)
		if !acct.Account.Active {
			return run.reject(pkgerrors.CodeValidation, msgAccountInactive)
		}
		if !acct.Account.Covers(req.Total) {
			return run.reject(pkgerrors.CodeInsufficientFunds, msgInsufficientFunds)
		}
	}

	run.advance(enums.ResolutionBuildingPayload)
	settlement, code, msg := buildSettlement(req)
	if settlement == nil {
		return run.reject(code, msg)
	}
	run.res.Settlement = settlement

	payload := Payload{
		BuyerID:    req.BuyerID,
		Items:      req.Items,
		Settlement: settlement,
		Note:       strings.TrimSpace(req.Note),
	}

	run.advance(enums.ResolutionSubmitted)
	started := r.clock()
	outcome, err := r.submitter.Submit(ctx, payload)
	elapsed := r.clock().Sub(started)

	var res Resolution
	switch {
	case err != nil:
		r.logg.WarnErr(ctx, "payment.submission.failed", err)
		res = run.reject(pkgerrors.CodePaymentRejected, rejectionMessage(err))
	case outcome.Redirect():
		run.res.RedirectURL = strings.TrimSpace(outcome.RedirectURL)
		run.advance(enums.ResolutionRedirected)
		res = run.res
	default:
		run.res.Order = outcome.Order
		run.advance(enums.ResolutionConfirmed)
		res = run.res
	}
	if r.metrics != nil {
		r.metrics.ObserveSubmission(res.State, elapsed)
	}
	return res
}

// buildSettlement returns the settlement variant for the request's method, or
// the rejection code and message when a mandatory field is missing.
func buildSettlement(req Request) (Settlement, pkgerrors.Code, string) {
	switch m := req.Method.(type) {
	case Gateway:
		return GatewaySettlement{Total: req.Total}, "", ""
	case Account:
		switch m.Account.Origin {
		case enums.PaymentOriginPayFlow:
			return WalletTransfer{Total: req.Total, AccountID: m.Account.ID}, "", ""
		case enums.PaymentOriginBCP:
			dni := strings.TrimSpace(req.BuyerDNI)
			if dni == "" {
				return nil, pkgerrors.CodeValidation, msgDNIRequired
			}
			number := strings.TrimSpace(m.Account.Number)
			if number == "" {
				return nil, pkgerrors.CodeValidation, msgAccountNumberRequired
			}
			return LinkedBankTransfer{
				Total:         req.Total,
				AccountID:     m.Account.ID,
				AccountNumber: number,
				DNI:           dni,
			}, "", ""
		}
	}
	return nil, pkgerrors.CodeValidation, msgUnsupportedOrigin
}

// rejectionMessage prefers the backend-provided reason.
func rejectionMessage(err error) string {
	var paymentErr *PaymentError
	if errors.As(err, &paymentErr) {
		if reason := strings.TrimSpace(paymentErr.Reason); reason != "" {
			return reason
		}
	}
	return FallbackMessage
}
