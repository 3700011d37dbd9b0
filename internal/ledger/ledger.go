// Package ledger keeps the append-only audit trail of quantity changes.
package ledger

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/cases"

	"github.com/andresuchdata/stockwatch/internal/domain"
)

// Log is an append-only list of transactions. It has no update or delete
// operations.
type Log struct {
	entries []domain.Transaction
	newID   func() string
}

// New returns a log seeded with previously persisted entries.
func New(entries []domain.Transaction) *Log {
	return &Log{
		entries: append([]domain.Transaction(nil), entries...),
		newID:   uuid.NewString,
	}
}

// Record appends an entry snapshotting the item's name, category and
// post-change quantity.
func (l *Log) Record(item domain.Item, txType domain.TransactionType, quantityChange int, timestamp time.Time) domain.Transaction {
	tx := domain.Transaction{
		ID:             l.newID(),
		ProductName:    item.ProductName,
		Category:       item.Category,
		Type:           txType,
		QuantityChange: quantityChange,
		NewQuantity:    item.Quantity,
		Timestamp:      timestamp,
	}
	l.entries = append(l.entries, tx)
	return tx
}

// Entries returns a copy of the log in insertion order.
func (l *Log) Entries() []domain.Transaction {
	return append([]domain.Transaction(nil), l.entries...)
}

// Len returns the number of entries.
func (l *Log) Len() int {
	return len(l.entries)
}

// Clone returns an independent copy of the log.
func (l *Log) Clone() *Log {
	return &Log{entries: l.Entries(), newID: l.newID}
}

// Summarize counts entries by type. Removed and Outgoing share the outgoing
// bucket.
func Summarize(entries []domain.Transaction) domain.TransactionSummary {
	summary := domain.TransactionSummary{Total: len(entries)}
	for _, tx := range entries {
		switch tx.Type {
		case domain.TransactionIncoming:
			summary.Incoming++
		case domain.TransactionOutgoing, domain.TransactionRemoved:
			summary.Outgoing++
		case domain.TransactionAdjustment:
			summary.Adjustment++
		}
	}
	return summary
}

// Filter returns the entries whose product name or category contains the
// search text (case-insensitive) and whose type matches filter.Type. An
// empty type or "all" matches any type.
func Filter(entries []domain.Transaction, filter domain.TransactionFilter) []domain.Transaction {
	fold := cases.Fold()
	query := fold.String(strings.TrimSpace(filter.Search))
	typeQuery := strings.TrimSpace(filter.Type)

	result := make([]domain.Transaction, 0, len(entries))
	for _, tx := range entries {
		if query != "" &&
			!strings.Contains(fold.String(tx.ProductName), query) &&
			!(tx.Category != "" && strings.Contains(fold.String(tx.Category), query)) {
			continue
		}
		if typeQuery != "" && !strings.EqualFold(typeQuery, "all") && !strings.EqualFold(string(tx.Type), typeQuery) {
			continue
		}
		result = append(result, tx)
	}
	return result
}
