// Package analytics computes the dashboard rollups over stored predictions.
package analytics

import (
	"fmt"
	"time"

	"github.com/AhmedHarera/HeartFailure/internal/apperr"
	"github.com/AhmedHarera/HeartFailure/internal/models"
)

const dateLayout = "2006-01-02"

// Range selects the trend window.
type Range string

const (
	Weekly  Range = "weekly"
	Monthly Range = "monthly"
)

// Days returns the window length of r.
func (r Range) Days() int {
	if r == Monthly {
		return 30
	}
	return 7
}

// ParseRange accepts "weekly", "monthly" or an empty string (weekly).
func ParseRange(s string) (Range, error) {
	switch Range(s) {
	case "", Weekly:
		return Weekly, nil
	case Monthly:
		return Monthly, nil
	}
	return "", apperr.New(apperr.ErrInvalidInput, fmt.Sprintf("unknown range %q, expected weekly or monthly", s))
}

// TrendPoint is one calendar day of the trend series.
type TrendPoint struct {
	Date            string  `json:"date"`
	Count           int     `json:"prediction_count"`
	RunningAccuracy float64 `json:"running_accuracy_pct"`
}

// Outcome reports whether a label counts as the positive outcome.
type Outcome func(label string) bool

// HighRisk is the default Outcome: the label classifies as a high risk tier.
func HighRisk(label string) bool {
	return models.ParseRiskTier(label) == models.RiskTierHigh
}

// BuildTrend folds records into one point per day from today-days+1 through today,
// in ascending date order. Days are calendar days in today's location. Each day
// keeps its own incremental mean of 100 for a positive outcome and 0 otherwise.
// Records outside the window are ignored; input order does not matter.
func BuildTrend(records []models.Prediction, days int, today time.Time, outcome Outcome) []TrendPoint {
	if days < 1 {
		return []TrendPoint{}
	}
	if outcome == nil {
		outcome = HighRisk
	}

	loc := today.Location()
	first := windowStart(days, today)

	points := make([]TrendPoint, days)
	index := make(map[string]int, days)
	for i := range points {
		key := first.AddDate(0, 0, i).Format(dateLayout)
		points[i] = TrendPoint{Date: key}
		index[key] = i
	}

	for _, r := range records {
		i, ok := index[r.CreatedAt.In(loc).Format(dateLayout)]
		if !ok {
			continue
		}
		p := &points[i]
		p.Count++
		contribution := 0.0
		if outcome(r.PredictionResult) {
			contribution = 100
		}
		p.RunningAccuracy = (p.RunningAccuracy*float64(p.Count-1) + contribution) / float64(p.Count)
	}
	return points
}

// windowStart is the first instant BuildTrend counts for the same arguments.
func windowStart(days int, today time.Time) time.Time {
	y, m, d := today.Date()
	return time.Date(y, m, d-days+1, 0, 0, 0, 0, today.Location())
}
