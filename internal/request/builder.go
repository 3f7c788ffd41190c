package request

import (
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/OldStager01/churn-dashboard/pkg/models"
	"github.com/OldStager01/churn-dashboard/pkg/validation"
)

// Builder turns raw form values into a PredictionRequest. It has no side
// effects and is safe for concurrent use.
type Builder struct {
	vocabulary map[string]map[string]string // field -> lower(value) -> canonical
}

func NewBuilder() *Builder {
	return NewBuilderWithVocabulary(Vocabulary)
}

func NewBuilderWithVocabulary(vocab map[string][]string) *Builder {
	index := make(map[string]map[string]string, len(vocab))
	for field, values := range vocab {
		index[field] = make(map[string]string, len(values))
		for _, v := range values {
			index[field][strings.ToLower(v)] = v
		}
	}
	return &Builder{vocabulary: index}
}

// Build validates and coerces every field. All field errors are returned
// together as validation.ValidationErrors.
func (b *Builder) Build(raw map[string]string) (*models.PredictionRequest, error) {
	var errs validation.ValidationErrors
	fail := func(field, reason string) {
		errs = append(errs, validation.NewError(field, reason))
	}

	req := &models.PredictionRequest{
		Categories: make(map[string]string),
	}

	if v, ok := lookup(raw, models.FieldTenure); !ok {
		fail(models.FieldTenure, validation.ReasonMissing)
	} else if tenure, reason := parseCount(v); reason != "" {
		fail(models.FieldTenure, reason)
	} else {
		req.Tenure = tenure
	}

	if v, ok := lookup(raw, models.FieldMonthlyCharges); !ok {
		fail(models.FieldMonthlyCharges, validation.ReasonMissing)
	} else if charges, reason := parseAmount(v); reason != "" {
		fail(models.FieldMonthlyCharges, reason)
	} else {
		req.MonthlyCharges = charges
	}

	if v, ok := lookup(raw, models.FieldSeniorCitizen); !ok {
		fail(models.FieldSeniorCitizen, validation.ReasonMissing)
	} else if senior, reason := parseFlag(v); reason != "" {
		fail(models.FieldSeniorCitizen, reason)
	} else {
		req.SeniorCitizen = senior
	}

	// TotalCharges is optional, but validated when present.
	if v, ok := lookup(raw, models.FieldTotalCharges); ok {
		if total, reason := parseAmount(v); reason != "" {
			fail(models.FieldTotalCharges, reason)
		} else {
			req.TotalCharges = &total
		}
	}

	for field, value := range raw {
		if isNumericField(field) {
			continue
		}
		value = validation.SanitizeString(value)

		known, hasVocab := b.vocabulary[field]
		if !hasVocab {
			req.Categories[field] = value
			continue
		}
		if value == "" {
			fail(field, validation.ReasonMissing)
			continue
		}
		canonical, ok := known[strings.ToLower(value)]
		if !ok {
			fail(field, validation.ReasonUnrecognizedCategory)
			continue
		}
		req.Categories[field] = canonical
	}

	if err := errs.Err(); err != nil {
		return nil, err
	}
	return req, nil
}

func isNumericField(field string) bool {
	switch field {
	case models.FieldTenure, models.FieldMonthlyCharges, models.FieldSeniorCitizen, models.FieldTotalCharges:
		return true
	}
	return false
}

// lookup treats a blank value the same as an absent key.
func lookup(raw map[string]string, field string) (string, bool) {
	v, ok := raw[field]
	if !ok {
		return "", false
	}
	v = validation.SanitizeString(v)
	return v, v != ""
}

func parseCount(s string) (int, string) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, validation.ReasonNotNumeric
	}
	if n < 0 {
		return 0, validation.ReasonOutOfRange
	}
	return n, ""
}

func parseAmount(s string) (float64, string) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, validation.ReasonNotNumeric
	}
	if d.IsNegative() {
		return 0, validation.ReasonOutOfRange
	}
	f := d.InexactFloat64()
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, validation.ReasonOutOfRange
	}
	return f, ""
}

func parseFlag(s string) (bool, string) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return false, validation.ReasonNotNumeric
	}
	switch n {
	case 0:
		return false, ""
	case 1:
		return true, ""
	default:
		return false, validation.ReasonOutOfRange
	}
}
