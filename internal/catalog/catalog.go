package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/payflow-checkout/internal/cart"
	"github.com/angelmondragon/payflow-checkout/internal/payments"
	"github.com/angelmondragon/payflow-checkout/internal/selection"
	"github.com/angelmondragon/payflow-checkout/pkg/enums"
	pkgerrors "github.com/angelmondragon/payflow-checkout/pkg/errors"
	"github.com/angelmondragon/payflow-checkout/pkg/payflow"
	"github.com/shopspring/decimal"
)

// Backend is the read side of the PayFlow backend.
type Backend interface {
	GetService(ctx context.Context, id string) (*payflow.Service, error)
	GetProduct(ctx context.Context, id string) (*payflow.Product, error)
	ListTicketTiers(ctx context.Context, serviceID string) ([]payflow.TicketTier, error)
	GetAccount(ctx context.Context, id string) (*payflow.Account, error)
	ListAccounts(ctx context.Context) ([]payflow.Account, error)
}

// Service is a purchasable service with its seat layout.
type Service struct {
	ID       string
	Name     string
	Type     enums.ServiceType
	Price    decimal.Decimal
	Image    string
	Occupied []string
	Columns  int
}

// Product is a purchasable product with its current stock.
type Product struct {
	ID    string
	Name  string
	Price decimal.Decimal
	Stock int
	Image string
}

// LineProduct returns the product as the cart store consumes it.
func (p Product) LineProduct() cart.Product {
	return cart.Product{ID: p.ID, Name: p.Name, Image: p.Image, Price: p.Price}
}

// Catalog reads products, services, ticket tiers and accounts from the
// backend and converts them to domain types.
type Catalog struct {
	backend     Backend
	seatColumns int
}

func New(backend Backend, seatColumns int) (*Catalog, error) {
	if backend == nil {
		return nil, fmt.Errorf("catalog backend required")
	}
	if seatColumns <= 0 {
		return nil, fmt.Errorf("seat columns must be positive")
	}
	return &Catalog{backend: backend, seatColumns: seatColumns}, nil
}

func (c *Catalog) Product(ctx context.Context, id string) (Product, error) {
	if strings.TrimSpace(id) == "" {
		return Product{}, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	p, err := c.backend.GetProduct(ctx, id)
	if err != nil {
		return Product{}, err
	}
	return Product{
		ID:    p.ID.String(),
		Name:  p.Nombre,
		Price: p.Precio,
		Stock: p.Stock,
		Image: p.Imagen,
	}, nil
}

// AvailableStock implements cart.StockChecker.
func (c *Catalog) AvailableStock(ctx context.Context, productID string) (int, error) {
	p, err := c.Product(ctx, productID)
	if err != nil {
		return 0, err
	}
	return p.Stock, nil
}

// Service loads a service. A missing column count falls back to the
// configured default.
func (c *Catalog) Service(ctx context.Context, id string) (Service, error) {
	if strings.TrimSpace(id) == "" {
		return Service{}, pkgerrors.New(pkgerrors.CodeValidation, "service id is required")
	}
	s, err := c.backend.GetService(ctx, id)
	if err != nil {
		return Service{}, err
	}
	columns := s.Columnas
	if columns <= 0 {
		columns = c.seatColumns
	}
	return Service{
		ID:       s.ID.String(),
		Name:     s.Nombre,
		Type:     enums.ServiceType(strings.ToUpper(strings.TrimSpace(s.Tipo))),
		Price:    s.Precio,
		Image:    s.Imagen,
		Occupied: s.AsientosOcupados,
		Columns:  columns,
	}, nil
}

func (c *Catalog) TicketTiers(ctx context.Context, serviceID string) ([]selection.Tier, error) {
	raw, err := c.backend.ListTicketTiers(ctx, serviceID)
	if err != nil {
		return nil, err
	}
	tiers := make([]selection.Tier, 0, len(raw))
	for _, t := range raw {
		tiers = append(tiers, selection.Tier{
			ID:         t.ID.String(),
			Name:       t.Nombre,
			Price:      t.Precio,
			StockTotal: t.StockTotal,
			StockSold:  t.StockVendido,
		})
	}
	return tiers, nil
}

func (c *Catalog) Account(ctx context.Context, id string) (payments.BankAccount, error) {
	if strings.TrimSpace(id) == "" {
		return payments.BankAccount{}, pkgerrors.New(pkgerrors.CodeValidation, "account id is required")
	}
	a, err := c.backend.GetAccount(ctx, id)
	if err != nil {
		return payments.BankAccount{}, err
	}
	return toBankAccount(*a)
}

// Accounts lists the buyer's accounts. Entries with an unknown origin are skipped.
func (c *Catalog) Accounts(ctx context.Context) ([]payments.BankAccount, error) {
	raw, err := c.backend.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}
	accounts := make([]payments.BankAccount, 0, len(raw))
	for _, a := range raw {
		acct, err := toBankAccount(a)
		if err != nil {
			continue
		}
		accounts = append(accounts, acct)
	}
	return accounts, nil
}

func toBankAccount(a payflow.Account) (payments.BankAccount, error) {
	origin, err := accountOrigin(a.Origen)
	if err != nil {
		return payments.BankAccount{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unsupported account origin")
	}
	return payments.BankAccount{
		ID:      a.ID.String(),
		OwnerID: a.UsuarioID.String(),
		Bank:    a.Banco,
		Number:  a.NumeroCuenta,
		Type:    a.TipoCuenta,
		Holder:  a.Titular,
		Balance: a.Saldo,
		Active:  a.Activo,
		Origin:  origin,
	}, nil
}

// accountOrigin maps the backend's origin tag. Accounts without one are
// internal wallets.
func accountOrigin(raw string) (enums.PaymentOrigin, error) {
	raw = strings.ToUpper(strings.TrimSpace(raw))
	if raw == "" {
		return enums.PaymentOriginPayFlow, nil
	}
	origin, err := enums.ParsePaymentOrigin(raw)
	if err != nil {
		return "", err
	}
	if !origin.IsAccount() {
		return "", fmt.Errorf("origin %s is not account-backed", origin)
	}
	return origin, nil
}
