package interpreter

import "github.com/OldStager01/churn-dashboard/pkg/models"

type advice struct {
	summary string
	actions []string
}

// adviceFor is an exhaustive switch so a new category cannot silently fall
// through to another category's advice.
func adviceFor(category models.RiskCategory) advice {
	switch category {
	case models.RiskLow:
		return advice{
			summary: "Low churn risk: keep the relationship healthy.",
			actions: []string{
				"Continue monitoring customer engagement",
				"Maintain current service quality",
				"Consider loyalty rewards program",
			},
		}
	case models.RiskMedium:
		return advice{
			summary: "Moderate churn risk: engage the customer proactively.",
			actions: []string{
				"Reach out for feedback survey",
				"Offer service upgrade or bundle deals",
				"Review customer support interactions",
				"Consider targeted retention campaign",
			},
		}
	case models.RiskHigh:
		return advice{
			summary: "High churn risk: contact the customer immediately.",
			actions: []string{
				"URGENT: Contact customer immediately",
				"Offer personalized retention incentives",
				"Schedule account review meeting",
				"Consider contract upgrade options",
				"Escalate to retention specialist team",
			},
		}
	case models.RiskUnknown:
		return advice{
			summary: "Risk level unavailable: keep monitoring this customer.",
			actions: []string{
				"Monitor customer activity until a risk level is available",
			},
		}
	default:
		return adviceFor(models.RiskUnknown)
	}
}

// Recommendation returns the one-line recommendation for a category.
func Recommendation(category models.RiskCategory) string {
	return adviceFor(category).summary
}
