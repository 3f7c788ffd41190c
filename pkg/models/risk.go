package models

import (
	"fmt"
	"strings"
)

// RiskCategory is the display bucket for a churn risk level. The zero value
// is RiskUnknown so an unset category always renders fail-closed.
type RiskCategory int

const (
	RiskUnknown RiskCategory = iota
	RiskLow
	RiskMedium
	RiskHigh
)

// Probability thresholds used by the upstream scorer.
const (
	LowRiskCeiling    = 0.3
	MediumRiskCeiling = 0.6
)

// UnknownCategoryError reports a risk level outside the known vocabulary.
type UnknownCategoryError struct {
	Value string
}

func (e *UnknownCategoryError) Error() string {
	return fmt.Sprintf("unknown risk level %q", e.Value)
}

// ParseRiskLevel matches low/medium/high case-insensitively.
func ParseRiskLevel(s string) (RiskCategory, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return RiskLow, nil
	case "medium":
		return RiskMedium, nil
	case "high":
		return RiskHigh, nil
	default:
		return RiskUnknown, &UnknownCategoryError{Value: s}
	}
}

// NormalizeRiskLevel is ParseRiskLevel without the error.
func NormalizeRiskLevel(s string) RiskCategory {
	category, _ := ParseRiskLevel(s)
	return category
}

// ClassifyProbability buckets a churn probability the same way the model
// service does.
func ClassifyProbability(p float64) RiskCategory {
	switch {
	case p < LowRiskCeiling:
		return RiskLow
	case p < MediumRiskCeiling:
		return RiskMedium
	default:
		return RiskHigh
	}
}

func (c RiskCategory) String() string {
	switch c {
	case RiskLow:
		return "low"
	case RiskMedium:
		return "medium"
	case RiskHigh:
		return "high"
	default:
		return "unknown"
	}
}

// Tone is the badge colour the dashboard uses for the category.
func (c RiskCategory) Tone() string {
	switch c {
	case RiskLow:
		return "success"
	case RiskMedium:
		return "warning"
	case RiskHigh:
		return "danger"
	default:
		return "secondary"
	}
}

func (c RiskCategory) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *RiskCategory) UnmarshalText(text []byte) error {
	*c = NormalizeRiskLevel(string(text))
	return nil
}

// AllRiskCategories lists the known categories in display order.
func AllRiskCategories() []RiskCategory {
	return []RiskCategory{RiskLow, RiskMedium, RiskHigh}
}
