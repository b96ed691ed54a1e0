// Package model defines domain types for sitemeter visits and billing.
package model

import "time"

// BillingConfig is the single active billing rate record.
type BillingConfig struct {
	BaseCostPerSecond float64
	UpdatedAt         time.Time
}

// Visit represents one tracked page view. A zero EndTime means the
// visit is still open (or was orphaned by a crash before close).
type Visit struct {
	ID        int64
	UserID    string
	SessionID string
	PageURL   string
	StartTime time.Time
	EndTime   time.Time

	DurationSecs float64
	Cost         float64

	CreatedAt time.Time
}

// Closed reports whether the visit has been closed.
func (v Visit) Closed() bool {
	return !v.EndTime.IsZero()
}
