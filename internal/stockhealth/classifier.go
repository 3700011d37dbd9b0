// Package stockhealth derives item status, fires edge-triggered alerts, and
// folds a collection into dashboard counts.
package stockhealth

import (
	"fmt"
	"time"

	"github.com/andresuchdata/stockwatch/internal/clock"
	"github.com/andresuchdata/stockwatch/internal/domain"
)

// NearExpiryDays is the inclusive window, in days, for Near Expiry.
const NearExpiryDays = 7

// Classification is the derived state of one item at a point in time.
type Classification struct {
	Status    domain.Status
	DaysLeft  int
	DateValid bool
	LowStock  bool
	Alerts    []domain.Alert
}

// IsLowStock reports whether the item is at or below its reorder threshold.
func IsLowStock(item domain.Item) bool {
	return item.Quantity <= item.MinStock
}

// StatusOf returns the status label for the item without touching its alert
// flags. An unparseable expiry date never counts as expired or near expiry.
func StatusOf(item domain.Item, today time.Time) domain.Status {
	days, ok := clock.DaysLeft(today, item.ExpiryDate)
	return statusFor(item, days, ok)
}

func statusFor(item domain.Item, days int, dateValid bool) domain.Status {
	switch {
	case dateValid && days < 0:
		return domain.StatusExpired
	case dateValid && days <= NearExpiryDays:
		return domain.StatusNearExpiry
	case IsLowStock(item):
		return domain.StatusLowStock
	default:
		return domain.StatusNormal
	}
}

// Classify derives the item's status and returns the alerts that fire for
// the first time. Each fired alert sets its flag on item; flags are never
// cleared here.
func Classify(item *domain.Item, today time.Time) Classification {
	days, ok := clock.DaysLeft(today, item.ExpiryDate)
	c := Classification{
		Status:    statusFor(*item, days, ok),
		DaysLeft:  days,
		DateValid: ok,
		LowStock:  IsLowStock(*item),
	}

	switch c.Status {
	case domain.StatusExpired:
		if !item.AlertSentExpired {
			c.Alerts = append(c.Alerts, newAlert(item, domain.AlertExpired,
				fmt.Sprintf("%s has expired!", item.ProductName)))
			item.AlertSentExpired = true
		}
	case domain.StatusNearExpiry:
		if !item.AlertSentExpiry {
			c.Alerts = append(c.Alerts, newAlert(item, domain.AlertNearExpiry,
				fmt.Sprintf("%s is expiring in %d day(s)!", item.ProductName, days)))
			item.AlertSentExpiry = true
		}
	}

	if c.LowStock && !item.AlertSentLowStock {
		c.Alerts = append(c.Alerts, newAlert(item, domain.AlertLowStock,
			fmt.Sprintf("%s is low in stock!", item.ProductName)))
		item.AlertSentLowStock = true
	}

	return c
}

// AlertKinds returns the kinds of the given alerts, in order.
func AlertKinds(alerts []domain.Alert) []domain.AlertKind {
	kinds := make([]domain.AlertKind, 0, len(alerts))
	for _, a := range alerts {
		kinds = append(kinds, a.Kind)
	}
	return kinds
}

func newAlert(item *domain.Item, kind domain.AlertKind, msg string) domain.Alert {
	return domain.Alert{ItemID: item.ID, Kind: kind, Message: msg}
}
