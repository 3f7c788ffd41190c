package models

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/OldStager01/churn-dashboard/pkg/validation"
)

// RiskCounts is predictions_by_risk with keys normalized to the known
// categories. Keys outside the vocabulary are counted as Unknown.
type RiskCounts struct {
	Low     int `json:"low"`
	Medium  int `json:"medium"`
	High    int `json:"high"`
	Unknown int `json:"unknown,omitempty"`
}

func (rc *RiskCounts) UnmarshalJSON(data []byte) error {
	var raw map[string]int
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*rc = RiskCounts{}
	for key, count := range raw {
		rc.Add(NormalizeRiskLevel(key), count)
	}
	return nil
}

func (rc *RiskCounts) Add(category RiskCategory, n int) {
	switch category {
	case RiskLow:
		rc.Low += n
	case RiskMedium:
		rc.Medium += n
	case RiskHigh:
		rc.High += n
	default:
		rc.Unknown += n
	}
}

func (rc RiskCounts) Get(category RiskCategory) int {
	switch category {
	case RiskLow:
		return rc.Low
	case RiskMedium:
		return rc.Medium
	case RiskHigh:
		return rc.High
	default:
		return rc.Unknown
	}
}

func (rc RiskCounts) Total() int {
	return rc.Low + rc.Medium + rc.High + rc.Unknown
}

// ModelSummary is the model_info block embedded in /metrics. The model
// service reports scores as strings ("0.6123" or "N/A"), so decoding is
// lenient: anything that is not a number in [0,1] is treated as absent.
type ModelSummary struct {
	ModelName    string   `json:"model_name,omitempty"`
	TrainingDate string   `json:"training_date,omitempty"`
	TestF1Score  *float64 `json:"test_f1_score,omitempty"`
	TestROCAUC   *float64 `json:"test_roc_auc,omitempty"`
}

func (m *ModelSummary) UnmarshalJSON(data []byte) error {
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*m = ModelSummary{
		ModelName:    stringValue(raw["model_name"]),
		TrainingDate: stringValue(raw["training_date"]),
		TestF1Score:  ParseScore(raw["test_f1_score"]),
		TestROCAUC:   ParseScore(raw["test_roc_auc"]),
	}
	return nil
}

// MetricsSnapshot is the aggregate served by GET /metrics.
type MetricsSnapshot struct {
	TotalPredictions        int           `json:"total_predictions"`
	PredictionsByRisk       RiskCounts    `json:"predictions_by_risk"`
	AverageChurnProbability float64       `json:"average_churn_probability"`
	ModelInfo               *ModelSummary `json:"model_info,omitempty"`
	FetchedAt               time.Time     `json:"fetched_at"`
}

// Validate checks counter and probability bounds.
func (s *MetricsSnapshot) Validate() error {
	var errs validation.ValidationErrors

	if err := validation.ValidateCount("total_predictions", s.TotalPredictions); err != nil {
		errs = append(errs, err.(*validation.ValidationError))
	}
	for _, category := range append(AllRiskCategories(), RiskUnknown) {
		field := "predictions_by_risk." + category.String()
		if err := validation.ValidateCount(field, s.PredictionsByRisk.Get(category)); err != nil {
			errs = append(errs, err.(*validation.ValidationError))
		}
	}
	if err := validation.ValidateProbability("average_churn_probability", s.AverageChurnProbability); err != nil {
		errs = append(errs, err.(*validation.ValidationError))
	}

	return errs.Err()
}

// ModelInfo is the body of GET /model-info.
type ModelInfo struct {
	ModelName     string                 `json:"model_name,omitempty"`
	Timestamp     string                 `json:"timestamp,omitempty"`
	BestParams    map[string]interface{} `json:"best_params"`
	BestScore     *float64               `json:"best_score,omitempty"`
	TestF1Score   *float64               `json:"test_f1_score,omitempty"`
	TestPrecision *float64               `json:"test_precision,omitempty"`
	TestRecall    *float64               `json:"test_recall,omitempty"`
	TestAccuracy  *float64               `json:"test_accuracy,omitempty"`
	TestROCAUC    *float64               `json:"test_roc_auc,omitempty"`
}

// ParseScore accepts a JSON number or numeric string in [0,1].
func ParseScore(v interface{}) *float64 {
	var f float64
	switch val := v.(type) {
	case float64:
		f = val
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return nil
		}
		f = parsed
	default:
		return nil
	}

	if validation.ValidateProbability("score", f) != nil {
		return nil
	}
	return &f
}

func stringValue(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}
