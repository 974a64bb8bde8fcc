package checkout

import (
	"context"
	"encoding/json"
	"time"

	"github.com/angelmondragon/payflow-checkout/pkg/enums"
	"github.com/angelmondragon/payflow-checkout/pkg/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EventPublisher delivers checkout outcome events.
type EventPublisher interface {
	Publish(ctx context.Context, data []byte, attrs map[string]string) (string, error)
}

type publishObserver interface {
	IncPublishFailure()
}

// OutcomeEvent is published once per payment attempt.
type OutcomeEvent struct {
	EventID     string                `json:"event_id"`
	CheckoutID  string                `json:"checkout_id"`
	BuyerID     string                `json:"buyer_id"`
	Kind        enums.CheckoutKind    `json:"kind"`
	State       enums.ResolutionState `json:"state"`
	Origin      enums.PaymentOrigin   `json:"origin"`
	Total       decimal.Decimal       `json:"total"`
	OrderID     string                `json:"order_id,omitempty"`
	RedirectURL string                `json:"redirect_url,omitempty"`
	Message     string                `json:"message,omitempty"`
	OccurredAt  time.Time             `json:"occurred_at"`
}

type outcomeEvents struct {
	publisher EventPublisher
	logg      *logger.Logger
	metrics   publishObserver
	clock     func() time.Time
}

func newOutcomeEvents(publisher EventPublisher, logg *logger.Logger, metrics publishObserver) *outcomeEvents {
	return &outcomeEvents{publisher: publisher, logg: logg, metrics: metrics, clock: time.Now}
}

// publish never fails the checkout; delivery errors are logged and counted.
func (e *outcomeEvents) publish(ctx context.Context, buyer Buyer, origin enums.PaymentOrigin, result PayResult) {
	if e == nil || e.publisher == nil {
		return
	}
	res := result.Resolution
	event := OutcomeEvent{
		EventID:     uuid.NewString(),
		CheckoutID:  result.CheckoutID,
		BuyerID:     buyer.ID,
		Kind:        result.Quote.Context.Kind(),
		State:       res.State,
		Origin:      origin,
		Total:       result.Quote.Total,
		RedirectURL: res.RedirectURL,
		Message:     res.Message,
		OccurredAt:  e.clock().UTC(),
	}
	if res.Order != nil {
		event.OrderID = res.Order.ID
	}

	data, err := json.Marshal(event)
	if err != nil {
		e.fail(ctx, err)
		return
	}
	attrs := map[string]string{
		"event_type": "checkout.outcome",
		"state":      string(event.State),
		"origin":     string(event.Origin),
	}
	// the request may already be cancelled; the outcome still happened
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if _, err := e.publisher.Publish(pubCtx, data, attrs); err != nil {
		e.fail(ctx, err)
	}
}

func (e *outcomeEvents) fail(ctx context.Context, err error) {
	e.logg.WarnErr(ctx, "checkout.event.publish_failed", err)
	if e.metrics != nil {
		e.metrics.IncPublishFailure()
	}
}
