package models

import "strings"

// Severity grades a locally derived risk factor.
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// RiskFactor explains one contribution to the overall risk. It is never persisted.
type RiskFactor struct {
	Factor   string   `json:"factor"`
	Status   string   `json:"status"`
	Severity Severity `json:"severity"`
}

// RiskTier is the categorical outcome of the tabular model.
type RiskTier string

const (
	RiskTierHigh    RiskTier = "high"
	RiskTierLow     RiskTier = "low"
	RiskTierUnknown RiskTier = "unknown"
)

// ParseRiskTier maps the free-text label returned by /predict onto a RiskTier.
//
// The service only returns sentences such as "High Prediction of heart failure",
// so this matches on substrings. Nothing else in the module should inspect labels.
// TODO: drop the substring match once /predict returns a structured tier field.
func ParseRiskTier(label string) RiskTier {
	switch {
	case strings.Contains(label, "High"):
		return RiskTierHigh
	case strings.Contains(label, "Low"):
		return RiskTierLow
	default:
		return RiskTierUnknown
	}
}
