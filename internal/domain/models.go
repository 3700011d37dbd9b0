package domain

import "time"

// CategoryPlaceholder is the category key used for items without a category.
const CategoryPlaceholder = "-"

// Item is a stock item. The three AlertSent flags remember which alerts have
// already fired since the item was created or last updated.
type Item struct {
	ID                string `json:"id"`
	ProductName       string `json:"productName"`
	Category          string `json:"category"`
	Quantity          int    `json:"quantity"`
	MinStock          int    `json:"minStock"`
	ExpiryDate        string `json:"expiryDate"`
	AlertSentExpired  bool   `json:"alertSentExpired"`
	AlertSentExpiry   bool   `json:"alertSentExpiry"`
	AlertSentLowStock bool   `json:"alertSentLowStock"`
}

// CategoryKey returns the category used for grouping.
func (i Item) CategoryKey() string {
	if i.Category == "" {
		return CategoryPlaceholder
	}
	return i.Category
}

// ResetAlerts puts the item back into the unacknowledged state for every
// alert kind.
func (i *Item) ResetAlerts() {
	i.AlertSentExpired = false
	i.AlertSentExpiry = false
	i.AlertSentLowStock = false
}

// ItemFields carries the user-editable fields of an item for create and
// update.
type ItemFields struct {
	ProductName string `json:"productName" validate:"required"`
	Category    string `json:"category"`
	Quantity    int    `json:"quantity" validate:"min=0"`
	MinStock    int    `json:"minStock" validate:"min=0"`
	ExpiryDate  string `json:"expiryDate" validate:"required,datetime=2006-01-02"`
}

// Transaction is an immutable ledger entry for a quantity-changing event.
type Transaction struct {
	ID             string          `json:"id"`
	ProductName    string          `json:"productName"`
	Category       string          `json:"category"`
	Type           TransactionType `json:"type"`
	QuantityChange int             `json:"quantityChange"`
	NewQuantity    int             `json:"newQuantity"`
	Timestamp      time.Time       `json:"date"`
}

// ItemStatus pairs an item with its derived status for rendering.
type ItemStatus struct {
	Item
	Status   Status `json:"status"`
	DaysLeft *int   `json:"daysLeft"`
	LowStock bool   `json:"lowStock"`
}

// ItemFilter narrows the inventory table.
type ItemFilter struct {
	Search string `json:"search"`
	Status string `json:"status"`
}

// TransactionFilter narrows the transaction table.
type TransactionFilter struct {
	Search string `json:"search"`
	Type   string `json:"type"`
}

// Evaluation is the outcome of classifying the whole collection.
type Evaluation struct {
	Items  []ItemStatus    `json:"items"`
	Alerts []Alert         `json:"alerts"`
	Counts AggregateCounts `json:"counts"`
}
