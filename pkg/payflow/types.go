package payflow

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ID accepts both numeric and string identifiers from the backend.
type ID string

func (id ID) String() string { return string(id) }

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("payflow id: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// Service is a purchasable service (GET /servicios/:id).
type Service struct {
	ID               ID              `json:"id"`
	Nombre           string          `json:"nombre"`
	Tipo             string          `json:"tipo"`
	Precio           decimal.Decimal `json:"precio"`
	Imagen           string          `json:"imagen,omitempty"`
	AsientosOcupados []string        `json:"asientosOcupados,omitempty"`
	Columnas         int             `json:"columnas,omitempty"`
}

// Product is a physical product (GET /productos/:id).
type Product struct {
	ID     ID              `json:"id"`
	Nombre string          `json:"nombre"`
	Precio decimal.Decimal `json:"precio"`
	Stock  int             `json:"stock"`
	Imagen string          `json:"imagen,omitempty"`
}

// TicketTier is an entry of GET /servicios/:id/tipos-entrada.
type TicketTier struct {
	ID           ID              `json:"id"`
	Nombre       string          `json:"nombre"`
	Precio       decimal.Decimal `json:"precio"`
	StockTotal   int             `json:"stock_total"`
	StockVendido int             `json:"stock_vendido"`
}

// Account is a linked account (GET /pagos/cuentas[/:id]). UsuarioID is the
// buyer that owns it.
type Account struct {
	ID           ID              `json:"id"`
	UsuarioID    ID              `json:"usuarioId"`
	Banco        string          `json:"banco"`
	NumeroCuenta string          `json:"numeroCuenta"`
	TipoCuenta   string          `json:"tipoCuenta"`
	Titular      string          `json:"titular"`
	Saldo        decimal.Decimal `json:"saldo"`
	Activo       bool            `json:"activo"`
	Origen       string          `json:"origen"`
}

// OrderRequest is the body of POST /pagos/ordenes.
type OrderRequest struct {
	CompradorID string      `json:"compradorId"`
	Items       []OrderItem `json:"items"`
	Pago        OrderPago   `json:"pago"`
	Nota        string      `json:"nota,omitempty"`
}

// OrderItem references a product or a service with its quantity.
type OrderItem struct {
	ProductoID    string   `json:"productoId,omitempty"`
	ServicioID    string   `json:"servicioId,omitempty"`
	Cantidad      int      `json:"cantidad"`
	Asientos      []string `json:"asientos,omitempty"`
	TipoEntradaID string   `json:"tipoEntradaId,omitempty"`
}

// Amount renders a money value the way the backend expects it: a bare
// number with two decimals.
func Amount(d decimal.Decimal) json.Number {
	return json.Number(d.StringFixed(2))
}

// OrderPago is the payment block of an order request.
type OrderPago struct {
	Origen       string      `json:"origen"`
	Monto        json.Number `json:"monto"`
	CuentaID     string      `json:"cuentaId,omitempty"`
	DNI          string      `json:"dni,omitempty"`
	NumeroCuenta string      `json:"numeroCuenta,omitempty"`
}

// OrderResponse is returned by POST /pagos/ordenes. An empty URLPago means
// the order completed synchronously.
type OrderResponse struct {
	URLPago string          `json:"urlPago,omitempty"`
	ID      ID              `json:"id"`
	Estado  string          `json:"estado,omitempty"`
	Total   decimal.Decimal `json:"total"`
}
