package service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/stockwatch/internal/cache"
	"github.com/andresuchdata/stockwatch/internal/domain"
	"github.com/andresuchdata/stockwatch/internal/inventory"
)

const invalidateTimeout = 5 * time.Second

// InventoryService is the entry point shared by the HTTP and CLI adapters.
type InventoryService struct {
	store       *inventory.Store
	cache       cache.DashboardCache
	unsubscribe func()
}

func NewInventoryService(store *inventory.Store, cacheImpl cache.DashboardCache) *InventoryService {
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopDashboardCache()
	}

	s := &InventoryService{store: store, cache: cacheImpl}
	s.unsubscribe = store.Subscribe(s.onItemsChanged)
	return s
}

// Close detaches the service from the store.
func (s *InventoryService) Close() {
	s.unsubscribe()
}

func (s *InventoryService) onItemsChanged(items []domain.Item) {
	ctx, cancel := context.WithTimeout(context.Background(), invalidateTimeout)
	defer cancel()

	if err := s.cache.InvalidateAll(ctx); err != nil {
		log.Warn().Err(err).Msg("inventory: cache invalidate failed")
	}
	log.Debug().Int("items", len(items)).Msg("inventory: collection changed")
}

func (s *InventoryService) CreateItem(ctx context.Context, fields domain.ItemFields) (domain.Item, error) {
	item, err := s.store.Create(ctx, fields)
	if err != nil {
		return domain.Item{}, err
	}

	log.Info().Str("id", item.ID).Str("product", item.ProductName).Int("quantity", item.Quantity).Msg("inventory: item created")
	return item, nil
}

func (s *InventoryService) UpdateItem(ctx context.Context, id string, fields domain.ItemFields) (domain.Item, error) {
	item, err := s.store.Update(ctx, id, fields)
	if err != nil {
		return domain.Item{}, err
	}

	log.Info().Str("id", item.ID).Str("product", item.ProductName).Int("quantity", item.Quantity).Msg("inventory: item updated")
	return item, nil
}

func (s *InventoryService) DeleteItem(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}

	log.Info().Str("id", id).Msg("inventory: item deleted")
	return nil
}

func (s *InventoryService) GetItem(ctx context.Context, id string) (domain.ItemStatus, error) {
	return s.store.Status(id)
}

func (s *InventoryService) ListItems(ctx context.Context, filter domain.ItemFilter) []domain.ItemStatus {
	return s.store.Search(filter)
}

// Evaluate runs the alert pass and logs every alert that fired.
func (s *InventoryService) Evaluate(ctx context.Context) (domain.Evaluation, error) {
	eval, err := s.store.Evaluate(ctx)
	if err != nil {
		return domain.Evaluation{}, err
	}

	for _, alert := range eval.Alerts {
		log.Warn().Str("id", alert.ItemID).Str("kind", string(alert.Kind)).Msg(alert.Message)
	}
	return eval, nil
}

func (s *InventoryService) Dashboard(ctx context.Context) (*domain.Dashboard, error) {
	day := s.store.Now()

	if dashboard, ok, err := s.cache.Get(ctx, day, s.store.Generation()); err == nil && ok {
		return dashboard, nil
	} else if err != nil {
		log.Warn().Err(err).Msg("inventory: cache get dashboard failed")
	}

	// Stored under the generation it was computed from; a mutation racing
	// this Set leaves the entry unreachable.
	dashboard, generation := s.store.DashboardGeneration()

	if err := s.cache.Set(ctx, day, generation, &dashboard); err != nil {
		log.Warn().Err(err).Msg("inventory: cache set dashboard failed")
	}

	return &dashboard, nil
}

func (s *InventoryService) Transactions(ctx context.Context, filter domain.TransactionFilter) []domain.Transaction {
	return s.store.Transactions(filter)
}

func (s *InventoryService) TransactionSummary(ctx context.Context) domain.TransactionSummary {
	return s.store.TransactionSummary()
}
