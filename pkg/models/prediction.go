package models

import (
	"encoding/json"
	"time"
)

// Upstream field names for the numeric customer attributes.
const (
	FieldTenure         = "tenure"
	FieldMonthlyCharges = "MonthlyCharges"
	FieldTotalCharges   = "TotalCharges"
	FieldSeniorCitizen  = "SeniorCitizen"
)

// PredictionRequest is a validated customer record ready to be posted to
// the model service.
type PredictionRequest struct {
	Tenure         int
	MonthlyCharges float64
	SeniorCitizen  bool
	TotalCharges   *float64

	// Categories holds the categorical service attributes keyed by their
	// upstream field name (Contract, InternetService, ...).
	Categories map[string]string
}

// Category returns a categorical attribute, or "" when absent.
func (r *PredictionRequest) Category(field string) string {
	if r.Categories == nil {
		return ""
	}
	return r.Categories[field]
}

// Fields returns the flat wire representation.
func (r *PredictionRequest) Fields() map[string]interface{} {
	fields := make(map[string]interface{}, len(r.Categories)+4)
	for k, v := range r.Categories {
		fields[k] = v
	}

	senior := 0
	if r.SeniorCitizen {
		senior = 1
	}

	fields[FieldTenure] = r.Tenure
	fields[FieldMonthlyCharges] = r.MonthlyCharges
	fields[FieldSeniorCitizen] = senior
	if r.TotalCharges != nil {
		fields[FieldTotalCharges] = *r.TotalCharges
	}
	return fields
}

// MarshalJSON emits the flat object the model service expects. Map keys are
// sorted by encoding/json, which makes the output canonical.
func (r PredictionRequest) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Fields())
}

// PredictionResponse is the raw body returned by POST /predict.
type PredictionResponse struct {
	CustomerID       string  `json:"customer_id"`
	ChurnPrediction  int     `json:"churn_prediction"`
	ChurnProbability float64 `json:"churn_probability"`
	RiskLevel        string  `json:"risk_level"`
	Timestamp        string  `json:"timestamp"`
}

// DisplayResult is a prediction response ready for rendering.
type DisplayResult struct {
	CustomerID     string       `json:"customer_id"`
	Category       RiskCategory `json:"category"`
	RawRiskLevel   string       `json:"raw_risk_level"`
	WillChurn      bool         `json:"will_churn"`
	Headline       string       `json:"headline"`
	Tone           string       `json:"tone"`
	ProbabilityPct float64      `json:"probability_pct"`
	ConfidencePct  float64      `json:"confidence_pct"`
	Recommendation string       `json:"recommendation"`
	Actions        []string     `json:"actions"`
	PredictedAt    time.Time    `json:"predicted_at"`
	Cached         bool         `json:"cached,omitempty"`
}
