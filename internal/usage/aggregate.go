// Package usage aggregates visit records into summary and per-day
// statistics.
package usage

import (
	"sort"
	"time"

	"sitemeter/internal/model"
)

// Summarize computes totals across a slice of visits. Visits that were
// never closed carry zero duration and cost, so they contribute a visit
// count only.
func Summarize(visits []model.Visit) model.UsageSummary {
	var s model.UsageSummary
	for _, v := range visits {
		s.TotalVisits++
		s.TotalDurationSecs += v.DurationSecs
		s.TotalCost += v.Cost
	}
	return s
}

// ByDay groups visits by the local calendar date of their creation and
// returns one row per active day, most recent first. The same grouping
// key feeds both this and Summarize callers, so summary totals always
// equal the column sums over the daily rows.
func ByDay(visits []model.Visit) []model.DailyUsage {
	dayMap := make(map[string]*model.DailyUsage)

	for _, v := range visits {
		dayKey := v.CreatedAt.Local().Format("2006-01-02")
		du, ok := dayMap[dayKey]
		if !ok {
			t, _ := time.ParseInLocation("2006-01-02", dayKey, time.Local)
			du = &model.DailyUsage{Date: t}
			dayMap[dayKey] = du
		}
		du.Visits++
		du.DurationSecs += v.DurationSecs
		du.Cost += v.Cost
	}

	days := make([]model.DailyUsage, 0, len(dayMap))
	for _, du := range dayMap {
		days = append(days, *du)
	}
	sort.Slice(days, func(i, j int) bool {
		return days[i].Date.After(days[j].Date)
	})
	return days
}
