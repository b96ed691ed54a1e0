package model

import "time"

// UsageSummary holds the top-level aggregate across a usage window.
type UsageSummary struct {
	TotalVisits       int
	TotalDurationSecs float64
	TotalCost         float64
}

// DailyUsage holds the same aggregates for a single calendar day.
type DailyUsage struct {
	Date         time.Time
	Visits       int
	DurationSecs float64
	Cost         float64
}

// UsageReport pairs the window summary with its per-day breakdown.
type UsageReport struct {
	UserID  string
	Days    int
	Summary UsageSummary
	Daily   []DailyUsage
}
