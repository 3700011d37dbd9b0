// Package inventory owns the item collection and the transaction ledger and
// is the only writer of both.
package inventory

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/cases"

	"github.com/andresuchdata/stockwatch/internal/clock"
	"github.com/andresuchdata/stockwatch/internal/domain"
	"github.com/andresuchdata/stockwatch/internal/ledger"
	"github.com/andresuchdata/stockwatch/internal/stockhealth"
	"github.com/andresuchdata/stockwatch/internal/storage"
)

// Option customizes a Store.
type Option func(*Store)

// WithClock sets the time source used for expiry math and timestamps.
func WithClock(c clock.Clock) Option {
	return func(s *Store) { s.clock = c }
}

// WithIDGenerator sets the item identifier generator.
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) { s.newID = fn }
}

// Store holds the inventory in memory and writes the full state back to the
// backend after every mutation. Operations are serialized and run to
// completion, including listener dispatch; listeners must not call back into
// the store.
type Store struct {
	mu       sync.Mutex
	backend  storage.Store
	clock    clock.Clock
	newID    func() string
	items    []domain.Item
	ledger   *ledger.Log
	notifier notifier

	// generation changes on every committed mutation. It is seeded from the
	// wall clock so a restarted process never reuses a previous run's values.
	generation uint64
}

// Open loads the persisted collections. Blobs that fail to decode are logged
// and treated as empty.
func Open(ctx context.Context, backend storage.Store, opts ...Option) (*Store, error) {
	s := &Store{
		backend: backend,
		clock:   clock.Real{},
		newID:   uuid.NewString,

		generation: uint64(time.Now().UnixNano()),
	}
	for _, opt := range opts {
		opt(s)
	}

	items, err := loadCollection[domain.Item](ctx, backend, storage.KeyInventory)
	if err != nil {
		return nil, err
	}
	entries, err := loadCollection[domain.Transaction](ctx, backend, storage.KeyTransactions)
	if err != nil {
		return nil, err
	}

	s.items = items
	s.ledger = ledger.New(entries)

	log.Debug().Int("items", len(s.items)).Int("transactions", s.ledger.Len()).Msg("inventory loaded")
	return s, nil
}

func loadCollection[T any](ctx context.Context, backend storage.Store, key string) ([]T, error) {
	data, ok, err := backend.Load(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", key, err)
	}
	if !ok {
		return []T{}, nil
	}

	var out []T
	if err := json.Unmarshal(data, &out); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("discarding unreadable persisted data")
		return []T{}, nil
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}

// Create validates fields, adds a new item with all alert flags cleared, and
// records an Incoming transaction for the initial quantity.
func (s *Store) Create(ctx context.Context, fields domain.ItemFields) (domain.Item, error) {
	fields, err := validateFields(fields)
	if err != nil {
		return domain.Item{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	item := domain.Item{
		ID:          s.newID(),
		ProductName: fields.ProductName,
		Category:    fields.Category,
		Quantity:    fields.Quantity,
		MinStock:    fields.MinStock,
		ExpiryDate:  fields.ExpiryDate,
	}

	items := append(cloneItems(s.items), item)
	lg := s.ledger.Clone()
	lg.Record(item, domain.TransactionIncoming, item.Quantity, s.clock.Now())

	if err := s.commit(ctx, items, lg); err != nil {
		return domain.Item{}, err
	}
	return item, nil
}

// Update replaces the item's fields, resets all alert flags, and records an
// Adjustment transaction with the quantity delta.
func (s *Store) Update(ctx context.Context, id string, fields domain.ItemFields) (domain.Item, error) {
	fields, err := validateFields(fields)
	if err != nil {
		return domain.Item{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return domain.Item{}, &domain.NotFoundError{ID: id}
	}

	items := cloneItems(s.items)
	old := items[idx]

	updated := old
	updated.ProductName = fields.ProductName
	updated.Category = fields.Category
	updated.Quantity = fields.Quantity
	updated.MinStock = fields.MinStock
	updated.ExpiryDate = fields.ExpiryDate
	updated.ResetAlerts()
	items[idx] = updated

	lg := s.ledger.Clone()
	lg.Record(updated, domain.TransactionAdjustment, updated.Quantity-old.Quantity, s.clock.Now())

	if err := s.commit(ctx, items, lg); err != nil {
		return domain.Item{}, err
	}
	return updated, nil
}

// Delete records a Removed transaction for the full quantity and then drops
// the item.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return &domain.NotFoundError{ID: id}
	}

	removed := s.items[idx]
	lg := s.ledger.Clone()
	lg.Record(removed, domain.TransactionRemoved, -removed.Quantity, s.clock.Now())

	items := make([]domain.Item, 0, len(s.items)-1)
	items = append(items, s.items[:idx]...)
	items = append(items, s.items[idx+1:]...)

	return s.commit(ctx, items, lg)
}

// Get returns the item with the given identifier.
func (s *Store) Get(id string) (domain.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return domain.Item{}, &domain.NotFoundError{ID: id}
	}
	return s.items[idx], nil
}

// Status returns the item with its derived status. Alert flags are left
// untouched.
func (s *Store) Status(id string) (domain.ItemStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return domain.ItemStatus{}, &domain.NotFoundError{ID: id}
	}

	item := s.items[idx]
	probe := item
	return itemStatus(item, stockhealth.Classify(&probe, s.clock.Now())), nil
}

// Items returns a copy of the collection in insertion order.
func (s *Store) Items() []domain.Item {
	s.mu.Lock()
	defer s.mu.Unlock()

	return cloneItems(s.items)
}

// Transactions returns the ledger entries matching filter.
func (s *Store) Transactions(filter domain.TransactionFilter) []domain.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()

	return ledger.Filter(s.ledger.Entries(), filter)
}

// TransactionSummary counts every ledger entry by type.
func (s *Store) TransactionSummary() domain.TransactionSummary {
	s.mu.Lock()
	defer s.mu.Unlock()

	return ledger.Summarize(s.ledger.Entries())
}

// Evaluate classifies every item, fires pending alerts, and persists the
// collection when any alert flag changed.
func (s *Store) Evaluate(ctx context.Context) (domain.Evaluation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	today := s.clock.Now()
	items := cloneItems(s.items)

	eval := domain.Evaluation{
		Items:  make([]domain.ItemStatus, 0, len(items)),
		Alerts: []domain.Alert{},
	}
	flagsChanged := false
	for i := range items {
		c := stockhealth.Classify(&items[i], today)
		if len(c.Alerts) > 0 {
			flagsChanged = true
			eval.Alerts = append(eval.Alerts, c.Alerts...)
		}
		eval.Items = append(eval.Items, itemStatus(items[i], c))
	}
	eval.Counts = stockhealth.Aggregate(items, today)

	if flagsChanged {
		if err := s.persist(ctx, map[string]any{storage.KeyInventory: items}); err != nil {
			return domain.Evaluation{}, err
		}
		s.items = items
	}

	return eval, nil
}

// Search returns items whose product name, category or status label contains
// filter.Search (case-insensitive) and whose status equals filter.Status. An
// empty status or "all" matches any status.
func (s *Store) Search(filter domain.ItemFilter) []domain.ItemStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	today := s.clock.Now()
	fold := cases.Fold()
	query := fold.String(strings.TrimSpace(filter.Search))

	statusQuery := strings.TrimSpace(filter.Status)
	anyStatus := statusQuery == "" || strings.EqualFold(statusQuery, "all")
	wantStatus, known := domain.ParseStatus(statusQuery)

	result := make([]domain.ItemStatus, 0, len(s.items))
	for _, item := range s.items {
		it := item
		c := stockhealth.Classify(&it, today)

		if query != "" &&
			!strings.Contains(fold.String(item.ProductName), query) &&
			!(item.Category != "" && strings.Contains(fold.String(item.Category), query)) &&
			!strings.Contains(fold.String(string(c.Status)), query) {
			continue
		}
		if !anyStatus && (!known || c.Status != wantStatus) {
			continue
		}
		result = append(result, itemStatus(item, c))
	}
	return result
}

// Dashboard returns counts, the category table and the status chart.
func (s *Store) Dashboard() domain.Dashboard {
	s.mu.Lock()
	defer s.mu.Unlock()

	return stockhealth.BuildDashboard(s.items, s.clock.Now())
}

// Generation identifies the current committed state of the collection.
func (s *Store) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.generation
}

// DashboardGeneration returns the dashboard together with the generation it
// was computed from.
func (s *Store) DashboardGeneration() (domain.Dashboard, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return stockhealth.BuildDashboard(s.items, s.clock.Now()), s.generation
}

// Now returns the current time of the store's clock.
func (s *Store) Now() time.Time {
	return s.clock.Now()
}

// Subscribe registers fn to receive the full collection after every
// successful create, update or delete. The returned function unsubscribes.
func (s *Store) Subscribe(fn Listener) (cancel func()) {
	return s.notifier.subscribe(fn)
}

func (s *Store) indexOf(id string) int {
	for i, item := range s.items {
		if item.ID == id {
			return i
		}
	}
	return -1
}

// commit persists the new state and only then swaps it in, so a failed write
// leaves the store untouched. Must be called with s.mu held.
func (s *Store) commit(ctx context.Context, items []domain.Item, lg *ledger.Log) error {
	err := s.persist(ctx, map[string]any{
		storage.KeyInventory:    items,
		storage.KeyTransactions: lg.Entries(),
	})
	if err != nil {
		return err
	}

	s.items = items
	s.ledger = lg
	s.generation++
	s.notifier.publish(cloneItems(items))
	return nil
}

func (s *Store) persist(ctx context.Context, collections map[string]any) error {
	entries := make(map[string][]byte, len(collections))
	for key, value := range collections {
		data, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("encode %s: %w", key, err)
		}
		entries[key] = data
	}

	if err := s.backend.Save(ctx, entries); err != nil {
		return fmt.Errorf("persist inventory: %w", err)
	}
	return nil
}

func itemStatus(item domain.Item, c stockhealth.Classification) domain.ItemStatus {
	st := domain.ItemStatus{Item: item, Status: c.Status, LowStock: c.LowStock}
	if c.DateValid {
		days := c.DaysLeft
		st.DaysLeft = &days
	}
	return st
}

func cloneItems(items []domain.Item) []domain.Item {
	out := make([]domain.Item, len(items))
	copy(out, items)
	return out
}
