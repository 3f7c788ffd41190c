package interpreter

import (
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/OldStager01/churn-dashboard/pkg/models"
	"github.com/OldStager01/churn-dashboard/pkg/validation"
)

// Layouts accepted for the response timestamp. The model service emits
// naive isoformat() values, which are read in local time.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

// Interpreter maps prediction responses to display results.
type Interpreter struct {
	onUnknown func(err *models.UnknownCategoryError)
	location  *time.Location
}

type Option func(*Interpreter)

// WithUnknownCategoryHook is called whenever a risk level falls back to
// the unknown category.
func WithUnknownCategoryHook(fn func(err *models.UnknownCategoryError)) Option {
	return func(i *Interpreter) {
		i.onUnknown = fn
	}
}

// WithLocation sets the zone used for timestamps without an offset. The
// default is UTC.
func WithLocation(loc *time.Location) Option {
	return func(i *Interpreter) {
		i.location = loc
	}
}

func New(opts ...Option) *Interpreter {
	i := &Interpreter{location: time.UTC}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Interpret validates resp and derives its display form. Out-of-range
// predictions and probabilities are rejected, never clamped. An unknown
// risk level is not an error.
func (i *Interpreter) Interpret(resp *models.PredictionResponse) (*models.DisplayResult, error) {
	var errs validation.ValidationErrors

	if resp.ChurnPrediction != 0 && resp.ChurnPrediction != 1 {
		errs = append(errs, validation.NewError("churn_prediction", validation.ReasonOutOfRange))
	}
	if err := validation.ValidateProbability("churn_probability", resp.ChurnProbability); err != nil {
		errs = append(errs, err.(*validation.ValidationError))
	}
	predictedAt, ok := i.parseTimestamp(resp.Timestamp)
	if !ok {
		errs = append(errs, validation.NewError("timestamp", validation.ReasonInvalidTimestamp))
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	category, err := models.ParseRiskLevel(resp.RiskLevel)
	if err != nil && i.onUnknown != nil {
		if unknown, ok := err.(*models.UnknownCategoryError); ok {
			i.onUnknown(unknown)
		}
	}

	willChurn := resp.ChurnPrediction == 1
	headline := "Low Churn Risk"
	if willChurn {
		headline = "High Churn Risk"
	}

	a := adviceFor(category)
	actions := make([]string, len(a.actions))
	copy(actions, a.actions)

	return &models.DisplayResult{
		CustomerID:     resp.CustomerID,
		Category:       category,
		RawRiskLevel:   resp.RiskLevel,
		WillChurn:      willChurn,
		Headline:       headline,
		Tone:           category.Tone(),
		ProbabilityPct: Percent(resp.ChurnProbability),
		ConfidencePct:  Percent(Confidence(resp.ChurnProbability)),
		Recommendation: a.summary,
		Actions:        actions,
		PredictedAt:    predictedAt,
	}, nil
}

// Confidence is the probability of whichever class was predicted.
func Confidence(p float64) float64 {
	return math.Max(p, 1-p)
}

// Percent converts a probability to a percentage rounded to 2 dp.
func Percent(p float64) float64 {
	return decimal.NewFromFloat(p).Shift(2).Round(2).InexactFloat64()
}

func (i *Interpreter) parseTimestamp(s string) (time.Time, bool) {
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, i.location); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
