package domain

// AggregateCounts holds the dashboard card numbers. LowStock counts every
// item with quantity <= minStock regardless of its status label.
type AggregateCounts struct {
	Total      int `json:"total"`
	LowStock   int `json:"lowStock"`
	NearExpiry int `json:"nearExpiry"`
	Expired    int `json:"expired"`
}

// CategoryCounts is one row of the category analytics table.
type CategoryCounts struct {
	Category string `json:"category"`
	AggregateCounts
}

// ChartSlice is one slice of the status pie chart.
type ChartSlice struct {
	Label Status `json:"label"`
	Value int    `json:"value"`
	Color string `json:"color"`
}

// Dashboard aggregates all dashboard data.
type Dashboard struct {
	Counts     AggregateCounts  `json:"counts"`
	Categories []CategoryCounts `json:"categories"`
	Chart      []ChartSlice     `json:"chart"`
}

// TransactionSummary holds the transaction page summary cards.
type TransactionSummary struct {
	Total      int `json:"total"`
	Incoming   int `json:"incoming"`
	Outgoing   int `json:"outgoing"`
	Adjustment int `json:"adjustment"`
}
