package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/stockwatch/internal/domain"
)

var now = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

func TestRecordSnapshotsItem(t *testing.T) {
	log := New(nil)
	it := domain.Item{ID: "1", ProductName: "Cheese", Category: "Dairy", Quantity: 12}

	tx := log.Record(it, domain.TransactionIncoming, 12, now)

	assert.NotEmpty(t, tx.ID)
	assert.Equal(t, "Cheese", tx.ProductName)
	assert.Equal(t, "Dairy", tx.Category)
	assert.Equal(t, 12, tx.QuantityChange)
	assert.Equal(t, 12, tx.NewQuantity)
	assert.Equal(t, now, tx.Timestamp)

	it.Quantity = 0
	entries := log.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, 12, entries[0].NewQuantity, "entry is a snapshot, not a reference")
}

func TestEntriesReturnsCopy(t *testing.T) {
	log := New(nil)
	log.Record(domain.Item{ProductName: "Eggs", Quantity: 6}, domain.TransactionIncoming, 6, now)

	entries := log.Entries()
	entries[0].ProductName = "changed"

	assert.Equal(t, "Eggs", log.Entries()[0].ProductName)
}

func TestCloneIsIndependent(t *testing.T) {
	log := New(nil)
	log.Record(domain.Item{ProductName: "Eggs", Quantity: 6}, domain.TransactionIncoming, 6, now)

	clone := log.Clone()
	clone.Record(domain.Item{ProductName: "Eggs", Quantity: 0}, domain.TransactionRemoved, -6, now)

	assert.Equal(t, 1, log.Len())
	assert.Equal(t, 2, clone.Len())
}

func TestSummarize(t *testing.T) {
	entries := []domain.Transaction{
		{Type: domain.TransactionIncoming},
		{Type: domain.TransactionIncoming},
		{Type: domain.TransactionAdjustment},
		{Type: domain.TransactionRemoved},
		{Type: domain.TransactionOutgoing},
	}

	assert.Equal(t, domain.TransactionSummary{Total: 5, Incoming: 2, Outgoing: 2, Adjustment: 1}, Summarize(entries))
	assert.Equal(t, domain.TransactionSummary{}, Summarize(nil))
}

func TestFilter(t *testing.T) {
	entries := []domain.Transaction{
		{ProductName: "Whole Milk", Category: "Dairy", Type: domain.TransactionIncoming},
		{ProductName: "Sourdough", Category: "Bakery", Type: domain.TransactionAdjustment},
		{ProductName: "Butter", Category: "Dairy", Type: domain.TransactionRemoved},
		{ProductName: "Apples", Type: domain.TransactionIncoming},
	}

	tests := []struct {
		name   string
		filter domain.TransactionFilter
		want   []string
	}{
		{"no filter", domain.TransactionFilter{}, []string{"Whole Milk", "Sourdough", "Butter", "Apples"}},
		{"search by name", domain.TransactionFilter{Search: "MILK"}, []string{"Whole Milk"}},
		{"search by category", domain.TransactionFilter{Search: "dairy"}, []string{"Whole Milk", "Butter"}},
		{"type all", domain.TransactionFilter{Type: "all"}, []string{"Whole Milk", "Sourdough", "Butter", "Apples"}},
		{"type only", domain.TransactionFilter{Type: "Incoming"}, []string{"Whole Milk", "Apples"}},
		{"search and type", domain.TransactionFilter{Search: "dairy", Type: "Removed"}, []string{"Butter"}},
		{"no match", domain.TransactionFilter{Search: "fish"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := make([]string, 0)
			for _, tx := range Filter(entries, tt.filter) {
				got = append(got, tx.ProductName)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}
