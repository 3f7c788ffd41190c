package validation

import (
	"errors"
	"math"
	"sort"
	"strings"
	"unicode"
)

// ErrInvalidInput indicates the input failed validation
var ErrInvalidInput = errors.New("invalid input")

// Reasons reported in a ValidationError
const (
	ReasonMissing              = "missing"
	ReasonNotNumeric           = "not numeric"
	ReasonOutOfRange           = "out of range"
	ReasonUnrecognizedCategory = "unrecognized category"
	ReasonInvalidTimestamp     = "invalid timestamp"
)

// ValidationError describes a single rejected field.
type ValidationError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func NewError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Reason
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// ValidationErrors collects every field error found in one pass.
type ValidationErrors []*ValidationError

func (errs ValidationErrors) Error() string {
	parts := make([]string, len(errs))
	for i, e := range errs {
		parts[i] = e.Error()
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (errs ValidationErrors) Unwrap() []error {
	out := make([]error, len(errs))
	for i, e := range errs {
		out[i] = e
	}
	return out
}

// Sorted returns the errors ordered by field name.
func (errs ValidationErrors) Sorted() ValidationErrors {
	out := make(ValidationErrors, len(errs))
	copy(out, errs)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Field < out[j].Field })
	return out
}

// Err returns nil for an empty collection so callers can return it directly.
func (errs ValidationErrors) Err() error {
	if len(errs) == 0 {
		return nil
	}
	return errs.Sorted()
}

// Fields flattens any validation error into its field errors.
func Fields(err error) []*ValidationError {
	var many ValidationErrors
	if errors.As(err, &many) {
		return many
	}
	var one *ValidationError
	if errors.As(err, &one) {
		return []*ValidationError{one}
	}
	return nil
}

// SanitizeString removes potentially dangerous characters and trims whitespace
func SanitizeString(input string) string {
	input = strings.TrimSpace(input)
	input = strings.ReplaceAll(input, "\x00", "")

	var builder strings.Builder
	for _, r := range input {
		if !unicode.IsControl(r) || r == '\n' || r == '\t' {
			builder.WriteRune(r)
		}
	}

	return builder.String()
}

// ValidateProbability rejects values outside [0,1]. NaN is out of range.
func ValidateProbability(field string, p float64) error {
	if math.IsNaN(p) || p < 0 || p > 1 {
		return NewError(field, ReasonOutOfRange)
	}
	return nil
}

// ValidateCount rejects negative counters.
func ValidateCount(field string, n int) error {
	if n < 0 {
		return NewError(field, ReasonOutOfRange)
	}
	return nil
}
