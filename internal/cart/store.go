package cart

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"

	pkgerrors "github.com/angelmondragon/payflow-checkout/pkg/errors"
	"github.com/angelmondragon/payflow-checkout/pkg/logger"
	"github.com/shopspring/decimal"
)

// StockChecker reports how many units of a product can still be bought.
type StockChecker interface {
	AvailableStock(ctx context.Context, productID string) (int, error)
}

type snapshotObserver interface {
	IncSnapshotFailure(op string)
}

// Options configures a Store.
type Options struct {
	// Key is the storage key the snapshot is persisted under. Defaults to DefaultKey.
	Key       string
	Snapshots SnapshotStore
	// Stock, when set, bounds every resulting line quantity by the product's remaining stock.
	Stock   StockChecker
	Logger  *logger.Logger
	Metrics snapshotObserver
}

// Store holds the buyer's cart line items in insertion order and writes the
// snapshot back after every mutation. Persistence failures are logged and
// never surfaced; the in-memory cart stays authoritative for the session.
type Store struct {
	mu        sync.Mutex
	key       string
	items     []LineItem
	snapshots SnapshotStore
	stock     StockChecker
	logg      *logger.Logger
	metrics   snapshotObserver
}

// Open builds a store and restores the previously persisted snapshot, falling
// back to an empty cart when it cannot be read or decoded.
func Open(ctx context.Context, opts Options) *Store {
	s := &Store{
		key:       strings.TrimSpace(opts.Key),
		snapshots: opts.Snapshots,
		stock:     opts.Stock,
		logg:      opts.Logger,
		metrics:   opts.Metrics,
	}
	if s.key == "" {
		s.key = DefaultKey
	}
	if s.snapshots == nil {
		s.snapshots = NewMemorySnapshotStore()
	}
	if s.logg == nil {
		s.logg = logger.Nop()
	}
	s.restore(ctx)
	return s
}

// Key returns the storage key of the snapshot.
func (s *Store) Key() string {
	return s.key
}

func (s *Store) restore(ctx context.Context) {
	ctx = s.logg.WithField(ctx, "cart_key", s.key)
	payload, err := s.snapshots.Load(ctx, s.key)
	if errors.Is(err, ErrNoSnapshot) {
		return
	}
	if err != nil {
		s.observeFailure("load")
		s.logg.WarnErr(ctx, "cart.snapshot.load_failed", err)
		return
	}

	var items []LineItem
	if err := json.Unmarshal(payload, &items); err != nil {
		s.observeFailure("decode")
		s.logg.WarnErr(ctx, "cart.snapshot.decode_failed", err)
		return
	}
	s.items = normalize(items)
}

// normalize drops malformed lines and folds duplicate ids into the first occurrence.
func normalize(items []LineItem) []LineItem {
	out := make([]LineItem, 0, len(items))
	index := make(map[string]int, len(items))
	for _, item := range items {
		if !item.valid() {
			continue
		}
		if idx, ok := index[item.ID]; ok {
			out[idx].Quantity += item.Quantity
			continue
		}
		index[item.ID] = len(out)
		out = append(out, item)
	}
	return out
}

// AddItem increments the quantity of an existing line or appends a new one.
// A non-positive qty counts as one unit.
func (s *Store) AddItem(ctx context.Context, product Product, qty int) (LineItem, error) {
	if err := validateProduct(product); err != nil {
		return LineItem{}, err
	}
	if qty <= 0 {
		qty = 1
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(product.ID)
	next := qty
	if idx >= 0 {
		next += s.items[idx].Quantity
	}
	if err := s.checkStock(ctx, product.ID, next); err != nil {
		return LineItem{}, err
	}

	var line LineItem
	if idx >= 0 {
		s.items[idx].Quantity = next
		line = s.items[idx]
	} else {
		line = lineFromProduct(product, next)
		s.items = append(s.items, line)
	}
	s.persist(ctx)
	return line, nil
}

// SetItem replaces the product's line wholesale with exactly qty units, keeping
// its position. qty <= 0 removes the line.
func (s *Store) SetItem(ctx context.Context, product Product, qty int) (LineItem, bool, error) {
	if err := validateProduct(product); err != nil {
		return LineItem{}, false, err
	}
	if qty <= 0 {
		s.RemoveItem(ctx, product.ID)
		return LineItem{}, false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkStock(ctx, product.ID, qty); err != nil {
		return LineItem{}, false, err
	}

	line := lineFromProduct(product, qty)
	if idx := s.indexOf(product.ID); idx >= 0 {
		s.items[idx] = line
	} else {
		s.items = append(s.items, line)
	}
	s.persist(ctx)
	return line, true, nil
}

// RemoveItem deletes the line for productID. Absent ids are a no-op.
func (s *Store) RemoveItem(ctx context.Context, productID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(productID)
	if idx < 0 {
		return
	}
	s.items = append(s.items[:idx], s.items[idx+1:]...)
	s.persist(ctx)
}

// Clear empties the cart and removes the persisted snapshot.
func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = nil
	s.persist(ctx)
}

// Items returns a copy of the line items in insertion order.
func (s *Store) Items() []LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]LineItem(nil), s.items...)
}

// Item returns the line for productID.
func (s *Store) Item(productID string) (LineItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if idx := s.indexOf(productID); idx >= 0 {
		return s.items[idx], true
	}
	return LineItem{}, false
}

// ItemCount is the sum of all quantities, not the number of distinct lines.
func (s *Store) ItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, item := range s.items {
		count += item.Quantity
	}
	return count
}

// Total sums selector(line) × quantity. A nil selector uses the line price.
func (s *Store) Total(selector PriceSelector) decimal.Decimal {
	if selector == nil {
		selector = UnitPrice
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	total := decimal.Zero
	for _, item := range s.items {
		total = total.Add(selector(item).Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}

func (s *Store) indexOf(productID string) int {
	for i, item := range s.items {
		if item.ID == productID {
			return i
		}
	}
	return -1
}

func (s *Store) checkStock(ctx context.Context, productID string, qty int) error {
	if s.stock == nil {
		return nil
	}
	available, err := s.stock.AvailableStock(ctx, productID)
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return err
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check product stock")
	}
	if qty > available {
		return pkgerrors.New(pkgerrors.CodeConflict, "requested quantity exceeds available stock").
			WithDetails(map[string]any{
				"product_id": productID,
				"requested":  qty,
				"available":  available,
			})
	}
	return nil
}

// persist must be called with mu held.
func (s *Store) persist(ctx context.Context) {
	ctx = s.logg.WithField(ctx, "cart_key", s.key)
	if len(s.items) == 0 {
		if err := s.snapshots.Delete(ctx, s.key); err != nil {
			s.observeFailure("delete")
			s.logg.WarnErr(ctx, "cart.snapshot.delete_failed", err)
		}
		return
	}

	payload, err := json.Marshal(s.items)
	if err != nil {
		s.observeFailure("encode")
		s.logg.WarnErr(ctx, "cart.snapshot.encode_failed", err)
		return
	}
	if err := s.snapshots.Save(ctx, s.key, payload); err != nil {
		s.observeFailure("save")
		s.logg.WarnErr(ctx, "cart.snapshot.save_failed", err)
	}
}

func (s *Store) observeFailure(op string) {
	if s.metrics != nil {
		s.metrics.IncSnapshotFailure(op)
	}
}

func validateProduct(p Product) error {
	if strings.TrimSpace(p.ID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if p.Price.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "product price must not be negative").
			WithDetails(map[string]any{"product_id": p.ID})
	}
	return nil
}
