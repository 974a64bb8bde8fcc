package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/angelmondragon/payflow-checkout/internal/payments"
	pkgerrors "github.com/angelmondragon/payflow-checkout/pkg/errors"
	"github.com/angelmondragon/payflow-checkout/pkg/payflow"
)

// Backend is the order-creation endpoint of the PayFlow backend.
type Backend interface {
	CreateOrder(ctx context.Context, req payflow.OrderRequest) (*payflow.OrderResponse, error)
}

// Adapter submits resolved payloads to the order backend and maps its
// response to a redirect or a completed order.
type Adapter struct {
	backend Backend
}

func NewAdapter(backend Backend) (*Adapter, error) {
	if backend == nil {
		return nil, fmt.Errorf("order backend required")
	}
	return &Adapter{backend: backend}, nil
}

// Submit implements payments.Submitter.
func (a *Adapter) Submit(ctx context.Context, payload payments.Payload) (payments.Outcome, error) {
	req, err := BuildRequest(payload)
	if err != nil {
		return payments.Outcome{}, err
	}

	resp, err := a.backend.CreateOrder(ctx, req)
	if err != nil {
		var apiErr *payflow.APIError
		if errors.As(err, &apiErr) {
			return payments.Outcome{}, &payments.PaymentError{Reason: apiErr.Message, Status: apiErr.Status}
		}
		return payments.Outcome{}, err
	}
	if resp == nil {
		return payments.Outcome{}, pkgerrors.New(pkgerrors.CodeDependency, "empty order response")
	}

	if url := strings.TrimSpace(resp.URLPago); url != "" {
		return payments.Outcome{RedirectURL: url}, nil
	}
	return payments.Outcome{Order: &payments.Order{
		ID:     resp.ID.String(),
		Status: resp.Estado,
		Total:  resp.Total,
	}}, nil
}

// BuildRequest renders payload in the backend wire format. Only the fields
// of the settlement's own origin are set.
func BuildRequest(payload payments.Payload) (payflow.OrderRequest, error) {
	req := payflow.OrderRequest{
		CompradorID: payload.BuyerID,
		Items:       make([]payflow.OrderItem, 0, len(payload.Items)),
		Nota:        payload.Note,
	}
	for _, item := range payload.Items {
		req.Items = append(req.Items, payflow.OrderItem{
			ProductoID:    item.ProductID,
			ServicioID:    item.ServiceID,
			Cantidad:      item.Quantity,
			Asientos:      item.Seats,
			TipoEntradaID: item.TierID,
		})
	}

	switch s := payload.Settlement.(type) {
	case payments.GatewaySettlement:
		req.Pago = payflow.OrderPago{
			Origen: s.Origin().String(),
			Monto:  payflow.Amount(s.Total),
		}
	case payments.WalletTransfer:
		req.Pago = payflow.OrderPago{
			Origen:   s.Origin().String(),
			Monto:    payflow.Amount(s.Total),
			CuentaID: s.AccountID,
		}
	case payments.LinkedBankTransfer:
		req.Pago = payflow.OrderPago{
			Origen:       s.Origin().String(),
			Monto:        payflow.Amount(s.Total),
			CuentaID:     s.AccountID,
			DNI:          s.DNI,
			NumeroCuenta: s.AccountNumber,
		}
	default:
		return payflow.OrderRequest{}, pkgerrors.New(pkgerrors.CodeValidation, "unsupported settlement")
	}
	return req, nil
}
