package inventory

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/stockwatch/internal/clock"
	"github.com/andresuchdata/stockwatch/internal/domain"
	"github.com/andresuchdata/stockwatch/internal/stockhealth"
	"github.com/andresuchdata/stockwatch/internal/storage"
)

var today = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

func inDays(n int) string {
	return today.AddDate(0, 0, n).Format(clock.DateLayout)
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("item-%d", n)
	}
}

func newTestStore(t *testing.T, backend storage.Store) *Store {
	t.Helper()
	if backend == nil {
		backend = storage.NewMemoryStore()
	}
	s, err := Open(context.Background(), backend, WithClock(clock.Fixed{T: today}), WithIDGenerator(sequentialIDs()))
	require.NoError(t, err)
	return s
}

// failingStore accepts loads and rejects every save.
type failingStore struct {
	*storage.MemoryStore
}

func (f *failingStore) Save(ctx context.Context, entries map[string][]byte) error {
	return errors.New("disk full")
}

func TestCreateValidates(t *testing.T) {
	s := newTestStore(t, nil)
	ctx := context.Background()

	tests := []struct {
		name   string
		fields domain.ItemFields
		field  string
		reason string
	}{
		{"empty name", domain.ItemFields{ProductName: "  ", Quantity: 1, ExpiryDate: inDays(10)}, "productName", "must not be empty"},
		{"negative quantity", domain.ItemFields{ProductName: "Milk", Quantity: -1, ExpiryDate: inDays(10)}, "quantity", "must be a non-negative integer"},
		{"negative min stock", domain.ItemFields{ProductName: "Milk", MinStock: -2, ExpiryDate: inDays(10)}, "minStock", "must be a non-negative integer"},
		{"bad date", domain.ItemFields{ProductName: "Milk", ExpiryDate: "tomorrow"}, "expiryDate", "must be a YYYY-MM-DD date"},
		{"impossible date", domain.ItemFields{ProductName: "Milk", ExpiryDate: "2025-02-30"}, "expiryDate", "must be a YYYY-MM-DD date"},
		{"missing date", domain.ItemFields{ProductName: "Milk"}, "expiryDate", "must not be empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Create(ctx, tt.fields)
			require.ErrorIs(t, err, domain.ErrValidation)

			var verr *domain.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
			assert.Equal(t, tt.reason, verr.Reason)
		})
	}

	assert.Empty(t, s.Items(), "failed creates leave no trace")
	assert.Empty(t, s.Transactions(domain.TransactionFilter{}))
}

func TestCreateRecordsIncoming(t *testing.T) {
	s := newTestStore(t, nil)

	item, err := s.Create(context.Background(), domain.ItemFields{
		ProductName: " Cheddar ", Category: "Dairy", Quantity: 8, MinStock: 2, ExpiryDate: inDays(20),
	})
	require.NoError(t, err)

	want := domain.Item{ID: "item-1", ProductName: "Cheddar", Category: "Dairy", Quantity: 8, MinStock: 2, ExpiryDate: inDays(20)}
	if diff := cmp.Diff(want, item); diff != "" {
		t.Errorf("created item mismatch (-want +got):\n%s", diff)
	}

	txs := s.Transactions(domain.TransactionFilter{})
	require.Len(t, txs, 1)
	assert.Equal(t, domain.TransactionIncoming, txs[0].Type)
	assert.Equal(t, 8, txs[0].QuantityChange)
	assert.Equal(t, 8, txs[0].NewQuantity)
	assert.Equal(t, today, txs[0].Timestamp)
}

func TestCreateThenDelete(t *testing.T) {
	s := newTestStore(t, nil)
	ctx := context.Background()

	item, err := s.Create(ctx, domain.ItemFields{ProductName: "Eggs", Quantity: 12, ExpiryDate: inDays(14)})
	require.NoError(t, err)
	require.NoError(t, s.Delete(ctx, item.ID))

	assert.Empty(t, s.Items())

	txs := s.Transactions(domain.TransactionFilter{})
	require.Len(t, txs, 2)
	assert.Equal(t, domain.TransactionIncoming, txs[0].Type)
	assert.Equal(t, 12, txs[0].QuantityChange)
	assert.Equal(t, domain.TransactionRemoved, txs[1].Type)
	assert.Equal(t, -12, txs[1].QuantityChange)
	assert.Equal(t, 12, txs[1].NewQuantity, "removed entry snapshots the quantity before removal")

	assert.Equal(t, domain.TransactionSummary{Total: 2, Incoming: 1, Outgoing: 1}, s.TransactionSummary())
}

func TestUpdateAndDeleteUnknownID(t *testing.T) {
	s := newTestStore(t, nil)
	ctx := context.Background()

	_, err := s.Update(ctx, "missing", domain.ItemFields{ProductName: "X", ExpiryDate: inDays(1)})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	err = s.Delete(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = s.Get("missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.Empty(t, s.Transactions(domain.TransactionFilter{}))
}

func TestUpdateResetsFlagsAndRecordsDelta(t *testing.T) {
	s := newTestStore(t, nil)
	ctx := context.Background()

	item, err := s.Create(ctx, domain.ItemFields{ProductName: "Flour", Quantity: 10, MinStock: 5, ExpiryDate: inDays(30)})
	require.NoError(t, err)

	assert.Equal(t, domain.StatusNormal, stockhealth.StatusOf(item, today))
	assert.Equal(t, 0, s.Dashboard().Counts.LowStock)

	updated, err := s.Update(ctx, item.ID, domain.ItemFields{ProductName: "Flour", Quantity: 3, MinStock: 5, ExpiryDate: inDays(30)})
	require.NoError(t, err)
	assert.Equal(t, 1, s.Dashboard().Counts.LowStock)

	eval, err := s.Evaluate(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.AlertKind{domain.AlertLowStock}, stockhealth.AlertKinds(eval.Alerts))

	eval, err = s.Evaluate(ctx)
	require.NoError(t, err)
	assert.Empty(t, eval.Alerts, "alert fires once per reset cycle")

	// same values again: the update still resets the flags
	_, err = s.Update(ctx, updated.ID, domain.ItemFields{ProductName: "Flour", Quantity: 3, MinStock: 5, ExpiryDate: inDays(30)})
	require.NoError(t, err)

	got, err := s.Get(item.ID)
	require.NoError(t, err)
	assert.False(t, got.AlertSentLowStock)
	assert.False(t, got.AlertSentExpiry)
	assert.False(t, got.AlertSentExpired)

	eval, err = s.Evaluate(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.AlertKind{domain.AlertLowStock}, stockhealth.AlertKinds(eval.Alerts))

	txs := s.Transactions(domain.TransactionFilter{Type: "Adjustment"})
	require.Len(t, txs, 2)
	assert.Equal(t, -7, txs[0].QuantityChange)
	assert.Equal(t, 3, txs[0].NewQuantity)
	assert.Equal(t, 0, txs[1].QuantityChange)
}

func TestEvaluateNearExpiryScenario(t *testing.T) {
	s := newTestStore(t, nil)
	ctx := context.Background()

	_, err := s.Create(ctx, domain.ItemFields{ProductName: "Milk", Quantity: 2, MinStock: 5, ExpiryDate: inDays(3)})
	require.NoError(t, err)

	eval, err := s.Evaluate(ctx)
	require.NoError(t, err)

	require.Len(t, eval.Items, 1)
	assert.Equal(t, domain.StatusNearExpiry, eval.Items[0].Status)
	require.NotNil(t, eval.Items[0].DaysLeft)
	assert.Equal(t, 3, *eval.Items[0].DaysLeft)
	assert.Contains(t, stockhealth.AlertKinds(eval.Alerts), domain.AlertNearExpiry)
	assert.Equal(t, "Milk is expiring in 3 day(s)!", eval.Alerts[0].Message)
	assert.Equal(t, domain.AggregateCounts{Total: 1, LowStock: 1, NearExpiry: 1}, eval.Counts)
}

func TestEvaluatePersistsFlags(t *testing.T) {
	backend := storage.NewMemoryStore()
	s := newTestStore(t, backend)
	ctx := context.Background()

	_, err := s.Create(ctx, domain.ItemFields{ProductName: "Ham", Quantity: 4, MinStock: 1, ExpiryDate: inDays(-1)})
	require.NoError(t, err)

	eval, err := s.Evaluate(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.AlertKind{domain.AlertExpired}, stockhealth.AlertKinds(eval.Alerts))

	reopened := newTestStore(t, backend)
	eval, err = reopened.Evaluate(ctx)
	require.NoError(t, err)
	assert.Empty(t, eval.Alerts, "acknowledged alerts survive a reload")
}

func TestPersistenceRoundTrip(t *testing.T) {
	backend, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	s := newTestStore(t, backend)
	a, err := s.Create(ctx, domain.ItemFields{ProductName: "Rice", Category: "Dry", Quantity: 20, MinStock: 5, ExpiryDate: inDays(200)})
	require.NoError(t, err)
	_, err = s.Create(ctx, domain.ItemFields{ProductName: "Beans", Quantity: 1, MinStock: 5, ExpiryDate: inDays(100)})
	require.NoError(t, err)
	require.NoError(t, s.Delete(ctx, a.ID))

	reopened := newTestStore(t, backend)
	if diff := cmp.Diff(s.Items(), reopened.Items()); diff != "" {
		t.Errorf("items mismatch after reload (-want +got):\n%s", diff)
	}
	assert.Len(t, reopened.Transactions(domain.TransactionFilter{}), 3)
}

func TestOpenTreatsCorruptDataAsEmpty(t *testing.T) {
	backend := storage.NewMemoryStore()
	require.NoError(t, backend.Save(context.Background(), map[string][]byte{
		storage.KeyInventory:    []byte(`{not json`),
		storage.KeyTransactions: []byte(`null`),
	}))

	s := newTestStore(t, backend)
	assert.Empty(t, s.Items())
	assert.Empty(t, s.Transactions(domain.TransactionFilter{}))

	_, err := s.Create(context.Background(), domain.ItemFields{ProductName: "Salt", Quantity: 1, ExpiryDate: inDays(900)})
	require.NoError(t, err)
	assert.Len(t, s.Items(), 1)
}

func TestFailedSaveLeavesStateUntouched(t *testing.T) {
	s := newTestStore(t, &failingStore{MemoryStore: storage.NewMemoryStore()})

	calls := 0
	s.Subscribe(func([]domain.Item) { calls++ })
	gen := s.Generation()

	_, err := s.Create(context.Background(), domain.ItemFields{ProductName: "Oil", Quantity: 3, ExpiryDate: inDays(60)})
	require.ErrorContains(t, err, "disk full")

	assert.Empty(t, s.Items())
	assert.Empty(t, s.Transactions(domain.TransactionFilter{}))
	assert.Zero(t, calls)
	assert.Equal(t, gen, s.Generation())
}

func TestGenerationAdvancesOnCommit(t *testing.T) {
	s := newTestStore(t, nil)
	ctx := context.Background()

	start := s.Generation()
	item, err := s.Create(ctx, domain.ItemFields{ProductName: "Oats", Quantity: 1, MinStock: 4, ExpiryDate: inDays(30)})
	require.NoError(t, err)
	afterCreate := s.Generation()
	assert.NotEqual(t, start, afterCreate)

	_, err = s.Evaluate(ctx)
	require.NoError(t, err)
	dash, gen := s.DashboardGeneration()
	assert.Equal(t, afterCreate, gen, "alert flags do not change the dashboard")
	assert.Equal(t, 1, dash.Counts.Total)

	require.NoError(t, s.Delete(ctx, item.ID))
	dash, gen = s.DashboardGeneration()
	assert.NotEqual(t, afterCreate, gen)
	assert.Zero(t, dash.Counts.Total)
}

func TestSubscribersReceiveCollection(t *testing.T) {
	s := newTestStore(t, nil)
	ctx := context.Background()

	var dashboard, table [][]domain.Item
	cancel := s.Subscribe(func(items []domain.Item) { dashboard = append(dashboard, items) })
	s.Subscribe(func(items []domain.Item) { table = append(table, items) })

	item, err := s.Create(ctx, domain.ItemFields{ProductName: "Tea", Quantity: 5, ExpiryDate: inDays(300)})
	require.NoError(t, err)
	cancel()
	_, err = s.Update(ctx, item.ID, domain.ItemFields{ProductName: "Tea", Quantity: 4, ExpiryDate: inDays(300)})
	require.NoError(t, err)
	require.NoError(t, s.Delete(ctx, item.ID))

	require.Len(t, dashboard, 1)
	assert.Len(t, dashboard[0], 1)

	require.Len(t, table, 3)
	assert.Equal(t, 4, table[1][0].Quantity)
	assert.Empty(t, table[2])

	_, err = s.Evaluate(ctx)
	require.NoError(t, err)
	assert.Len(t, table, 3, "evaluation is not a mutation")
}

func TestSearch(t *testing.T) {
	s := newTestStore(t, nil)
	ctx := context.Background()

	for _, f := range []domain.ItemFields{
		{ProductName: "Whole Milk", Category: "Dairy", Quantity: 10, MinStock: 2, ExpiryDate: inDays(2)},
		{ProductName: "Greek Yogurt", Category: "Dairy", Quantity: 10, MinStock: 2, ExpiryDate: inDays(-4)},
		{ProductName: "Rye Bread", Category: "Bakery", Quantity: 1, MinStock: 2, ExpiryDate: inDays(40)},
		{ProductName: "Rice", Quantity: 50, MinStock: 2, ExpiryDate: inDays(400)},
	} {
		_, err := s.Create(ctx, f)
		require.NoError(t, err)
	}

	names := func(rows []domain.ItemStatus) []string {
		out := []string{}
		for _, r := range rows {
			out = append(out, r.ProductName)
		}
		return out
	}

	tests := []struct {
		name   string
		filter domain.ItemFilter
		want   []string
	}{
		{"everything", domain.ItemFilter{Status: "all"}, []string{"Whole Milk", "Greek Yogurt", "Rye Bread", "Rice"}},
		{"name", domain.ItemFilter{Search: "milk"}, []string{"Whole Milk"}},
		{"category", domain.ItemFilter{Search: "DAIRY"}, []string{"Whole Milk", "Greek Yogurt"}},
		{"status label text", domain.ItemFilter{Search: "expired"}, []string{"Greek Yogurt"}},
		{"status filter", domain.ItemFilter{Status: "Low Stock"}, []string{"Rye Bread"}},
		{"status filter with search", domain.ItemFilter{Search: "r", Status: "Normal"}, []string{"Rice"}},
		{"unknown status", domain.ItemFilter{Status: "Frozen"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, names(s.Search(tt.filter)))
		})
	}
}

func TestDashboardByCategory(t *testing.T) {
	s := newTestStore(t, nil)
	ctx := context.Background()

	for _, f := range []domain.ItemFields{
		{ProductName: "Old Cream", Category: "Dairy", Quantity: 10, MinStock: 1, ExpiryDate: inDays(-2)},
		{ProductName: "Butter", Category: "Dairy", Quantity: 10, MinStock: 1, ExpiryDate: inDays(60)},
		{ProductName: "Matches", Quantity: 10, MinStock: 1, ExpiryDate: inDays(999)},
	} {
		_, err := s.Create(ctx, f)
		require.NoError(t, err)
	}

	dash := s.Dashboard()
	want := []domain.CategoryCounts{
		{Category: "-", AggregateCounts: domain.AggregateCounts{Total: 1}},
		{Category: "Dairy", AggregateCounts: domain.AggregateCounts{Total: 2, Expired: 1}},
	}
	if diff := cmp.Diff(want, dash.Categories); diff != "" {
		t.Errorf("categories mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 3, dash.Counts.Total)
}

func TestParseCount(t *testing.T) {
	n, err := ParseCount("quantity", " 12 ")
	require.NoError(t, err)
	assert.Equal(t, 12, n)

	_, err = ParseCount("quantity", "twelve")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = ParseCount("minStock", "-1")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = ParseCount("minStock", "  ")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestValidateStructRequiredPointer(t *testing.T) {
	type request struct {
		Quantity *int `json:"quantity" validate:"required"`
	}

	err := ValidateStruct(request{})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "quantity", verr.Field)
	assert.Equal(t, "is required", verr.Reason)

	zero := 0
	assert.NoError(t, ValidateStruct(request{Quantity: &zero}))
}

func TestStatusDoesNotFireAlerts(t *testing.T) {
	s := newTestStore(t, nil)
	ctx := context.Background()

	item, err := s.Create(ctx, domain.ItemFields{ProductName: "Yeast", Quantity: 1, MinStock: 3, ExpiryDate: inDays(0)})
	require.NoError(t, err)

	st, err := s.Status(item.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusNearExpiry, st.Status)
	assert.True(t, st.LowStock)
	require.NotNil(t, st.DaysLeft)
	assert.Equal(t, 0, *st.DaysLeft)
	assert.False(t, st.AlertSentExpiry)

	eval, err := s.Evaluate(ctx)
	require.NoError(t, err)
	assert.Len(t, eval.Alerts, 2)
}
