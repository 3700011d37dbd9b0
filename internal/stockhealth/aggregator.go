package stockhealth

import (
	"sort"
	"time"

	"github.com/andresuchdata/stockwatch/internal/domain"
)

var statusColors = map[domain.Status]string{
	domain.StatusNormal:     "#2e7d32",
	domain.StatusLowStock:   "#f9a825",
	domain.StatusNearExpiry: "#ffb300",
	domain.StatusExpired:    "#c62828",
}

// Aggregate counts the collection. LowStock uses the quantity predicate;
// NearExpiry and Expired use the status label.
func Aggregate(items []domain.Item, today time.Time) domain.AggregateCounts {
	var counts domain.AggregateCounts
	for _, item := range items {
		add(&counts, item, today)
	}
	return counts
}

// AggregateByCategory counts the collection per category. Items without a
// category are grouped under domain.CategoryPlaceholder.
func AggregateByCategory(items []domain.Item, today time.Time) map[string]domain.AggregateCounts {
	result := make(map[string]domain.AggregateCounts)
	for _, item := range items {
		key := item.CategoryKey()
		counts := result[key]
		add(&counts, item, today)
		result[key] = counts
	}
	return result
}

// CategoryRows returns the per-category breakdown sorted by category.
func CategoryRows(items []domain.Item, today time.Time) []domain.CategoryCounts {
	byCategory := AggregateByCategory(items, today)

	rows := make([]domain.CategoryCounts, 0, len(byCategory))
	for category, counts := range byCategory {
		rows = append(rows, domain.CategoryCounts{Category: category, AggregateCounts: counts})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Category < rows[j].Category })

	return rows
}

// StatusBreakdown partitions the collection by status label. Every label is
// present in the result.
func StatusBreakdown(items []domain.Item, today time.Time) map[domain.Status]int {
	result := make(map[domain.Status]int, len(domain.Statuses))
	for _, s := range domain.Statuses {
		result[s] = 0
	}
	for _, item := range items {
		result[StatusOf(item, today)]++
	}
	return result
}

// PieChart returns one slice per status label; the values sum to the
// collection size.
func PieChart(items []domain.Item, today time.Time) []domain.ChartSlice {
	breakdown := StatusBreakdown(items, today)

	slices := make([]domain.ChartSlice, 0, len(domain.Statuses))
	for _, s := range domain.Statuses {
		slices = append(slices, domain.ChartSlice{
			Label: s,
			Value: breakdown[s],
			Color: statusColors[s],
		})
	}
	return slices
}

// BuildDashboard assembles counts, the category table and the chart.
func BuildDashboard(items []domain.Item, today time.Time) domain.Dashboard {
	return domain.Dashboard{
		Counts:     Aggregate(items, today),
		Categories: CategoryRows(items, today),
		Chart:      PieChart(items, today),
	}
}

func add(counts *domain.AggregateCounts, item domain.Item, today time.Time) {
	counts.Total++
	switch StatusOf(item, today) {
	case domain.StatusExpired:
		counts.Expired++
	case domain.StatusNearExpiry:
		counts.NearExpiry++
	}
	if IsLowStock(item) {
		counts.LowStock++
	}
}
