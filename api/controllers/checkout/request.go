package checkout

import (
	"strings"

	checkoutdto "github.com/angelmondragon/payflow-checkout/api/controllers/checkout/dto"
	"github.com/angelmondragon/payflow-checkout/api/validators"
	checkoutsvc "github.com/angelmondragon/payflow-checkout/internal/checkout"
	"github.com/angelmondragon/payflow-checkout/pkg/enums"
	pkgerrors "github.com/angelmondragon/payflow-checkout/pkg/errors"
)

const maxNoteLen = 280

func toQuoteInput(payload checkoutdto.QuoteRequest) (checkoutsvc.QuoteInput, error) {
	kind, err := enums.ParseCheckoutKind(strings.TrimSpace(payload.Kind))
	if err != nil {
		return checkoutsvc.QuoteInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid checkout kind")
	}
	var seats []string
	for _, seat := range payload.Seats {
		seats = append(seats, strings.ToUpper(strings.TrimSpace(seat)))
	}
	return checkoutsvc.QuoteInput{
		Kind:      kind,
		ServiceID: strings.TrimSpace(payload.ServiceID),
		Seats:     seats,
		TierID:    strings.TrimSpace(payload.TierID),
	}, nil
}

func toPayInput(payload checkoutdto.PayRequest) (checkoutsvc.PayInput, error) {
	quote, err := toQuoteInput(payload.QuoteRequest)
	if err != nil {
		return checkoutsvc.PayInput{}, err
	}
	origin := enums.PaymentOrigin(strings.ToUpper(strings.TrimSpace(payload.Origin)))
	if !origin.IsValid() {
		return checkoutsvc.PayInput{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment origin").
			WithDetails(map[string]any{"origin": payload.Origin})
	}
	return checkoutsvc.PayInput{
		QuoteInput: quote,
		Origin:     origin,
		AccountID:  strings.TrimSpace(payload.AccountID),
		DNI:        strings.TrimSpace(payload.DNI),
		Note:       validators.SanitizeString(payload.Note, maxNoteLen),
	}, nil
}
