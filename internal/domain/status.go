package domain

import "strings"

// Status is the single label an item is shown and filtered under.
type Status string

const (
	StatusNormal     Status = "Normal"
	StatusLowStock   Status = "Low Stock"
	StatusNearExpiry Status = "Near Expiry"
	StatusExpired    Status = "Expired"
)

// Statuses lists every label in chart order.
var Statuses = []Status{StatusNormal, StatusLowStock, StatusNearExpiry, StatusExpired}

var statusCodes = map[string]Status{
	"normal":      StatusNormal,
	"low stock":   StatusLowStock,
	"low_stock":   StatusLowStock,
	"near expiry": StatusNearExpiry,
	"near_expiry": StatusNearExpiry,
	"expired":     StatusExpired,
}

// ParseStatus returns the status for a given label (case-insensitive).
func ParseStatus(label string) (Status, bool) {
	status, ok := statusCodes[strings.ToLower(strings.TrimSpace(label))]

	return status, ok
}

// AlertKind identifies one of the three edge-triggered alert conditions.
type AlertKind string

const (
	AlertExpired    AlertKind = "expired"
	AlertNearExpiry AlertKind = "near_expiry"
	AlertLowStock   AlertKind = "low_stock"
)

// Alert is a notification fired the first time a condition becomes true
// for an item.
type Alert struct {
	ItemID  string    `json:"itemId"`
	Kind    AlertKind `json:"kind"`
	Message string    `json:"message"`
}

// TransactionType classifies a ledger entry.
type TransactionType string

const (
	TransactionIncoming   TransactionType = "Incoming"
	TransactionOutgoing   TransactionType = "Outgoing"
	TransactionAdjustment TransactionType = "Adjustment"
	TransactionRemoved    TransactionType = "Removed"
)

var transactionTypes = map[string]TransactionType{
	"incoming":   TransactionIncoming,
	"outgoing":   TransactionOutgoing,
	"adjustment": TransactionAdjustment,
	"removed":    TransactionRemoved,
}

// ParseTransactionType returns the type for a given label (case-insensitive).
func ParseTransactionType(label string) (TransactionType, bool) {
	t, ok := transactionTypes[strings.ToLower(strings.TrimSpace(label))]

	return t, ok
}
