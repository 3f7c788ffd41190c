package request_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OldStager01/churn-dashboard/internal/request"
	"github.com/OldStager01/churn-dashboard/pkg/validation"
)

func validRaw() map[string]string {
	return map[string]string{
		"tenure":         "24",
		"MonthlyCharges": "55.5",
		"SeniorCitizen":  "0",
		"Contract":       "Month-to-month",
	}
}

func TestBuilder_Build_EndToEnd(t *testing.T) {
	req, err := request.NewBuilder().Build(validRaw())
	require.NoError(t, err)

	assert.Equal(t, 24, req.Tenure)
	assert.InDelta(t, 55.5, req.MonthlyCharges, 1e-9)
	assert.False(t, req.SeniorCitizen)
	assert.Equal(t, "Month-to-month", req.Category("Contract"))
	assert.Nil(t, req.TotalCharges)
}

func TestBuilder_Build_FieldErrors(t *testing.T) {
	tests := []struct {
		name   string
		modify func(map[string]string)
		field  string
		reason string
	}{
		{
			name:   "non-numeric tenure",
			modify: func(m map[string]string) { m["tenure"] = "abc" },
			field:  "tenure",
			reason: validation.ReasonNotNumeric,
		},
		{
			name:   "fractional tenure",
			modify: func(m map[string]string) { m["tenure"] = "24.5" },
			field:  "tenure",
			reason: validation.ReasonNotNumeric,
		},
		{
			name:   "negative tenure",
			modify: func(m map[string]string) { m["tenure"] = "-3" },
			field:  "tenure",
			reason: validation.ReasonOutOfRange,
		},
		{
			name:   "missing tenure",
			modify: func(m map[string]string) { delete(m, "tenure") },
			field:  "tenure",
			reason: validation.ReasonMissing,
		},
		{
			name:   "monthly charges overflowing float64",
			modify: func(m map[string]string) { m["MonthlyCharges"] = "1e400" },
			field:  "MonthlyCharges",
			reason: validation.ReasonOutOfRange,
		},
		{
			name:   "total charges overflowing float64",
			modify: func(m map[string]string) { m["TotalCharges"] = "9e999" },
			field:  "TotalCharges",
			reason: validation.ReasonOutOfRange,
		},
		{
			name:   "blank monthly charges",
			modify: func(m map[string]string) { m["MonthlyCharges"] = "   " },
			field:  "MonthlyCharges",
			reason: validation.ReasonMissing,
		},
		{
			name:   "non-numeric monthly charges",
			modify: func(m map[string]string) { m["MonthlyCharges"] = "NaN" },
			field:  "MonthlyCharges",
			reason: validation.ReasonNotNumeric,
		},
		{
			name:   "negative monthly charges",
			modify: func(m map[string]string) { m["MonthlyCharges"] = "-1.25" },
			field:  "MonthlyCharges",
			reason: validation.ReasonOutOfRange,
		},
		{
			name:   "senior citizen out of range",
			modify: func(m map[string]string) { m["SeniorCitizen"] = "2" },
			field:  "SeniorCitizen",
			reason: validation.ReasonOutOfRange,
		},
		{
			name:   "senior citizen as word",
			modify: func(m map[string]string) { m["SeniorCitizen"] = "yes" },
			field:  "SeniorCitizen",
			reason: validation.ReasonNotNumeric,
		},
		{
			name:   "invalid total charges",
			modify: func(m map[string]string) { m["TotalCharges"] = "12,00" },
			field:  "TotalCharges",
			reason: validation.ReasonNotNumeric,
		},
		{
			name:   "unrecognized contract",
			modify: func(m map[string]string) { m["Contract"] = "Weekly" },
			field:  "Contract",
			reason: validation.ReasonUnrecognizedCategory,
		},
		{
			name:   "blank known category",
			modify: func(m map[string]string) { m["InternetService"] = "" },
			field:  "InternetService",
			reason: validation.ReasonMissing,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := validRaw()
			tt.modify(raw)

			req, err := request.NewBuilder().Build(raw)
			require.Error(t, err)
			assert.Nil(t, req)
			assert.ErrorIs(t, err, validation.ErrInvalidInput)

			fields := validation.Fields(err)
			require.Len(t, fields, 1)
			assert.Equal(t, tt.field, fields[0].Field)
			assert.Equal(t, tt.reason, fields[0].Reason)
		})
	}
}

func TestBuilder_Build_CollectsAllErrors(t *testing.T) {
	_, err := request.NewBuilder().Build(map[string]string{
		"tenure":   "abc",
		"Contract": "Forever",
	})
	require.Error(t, err)

	fields := validation.Fields(err)
	require.Len(t, fields, 4)

	got := make(map[string]string, len(fields))
	for _, f := range fields {
		got[f.Field] = f.Reason
	}
	assert.Equal(t, map[string]string{
		"tenure":         validation.ReasonNotNumeric,
		"MonthlyCharges": validation.ReasonMissing,
		"SeniorCitizen":  validation.ReasonMissing,
		"Contract":       validation.ReasonUnrecognizedCategory,
	}, got)
}

func TestBuilder_Build_CanonicalizesCategories(t *testing.T) {
	raw := validRaw()
	raw["Contract"] = "month-to-MONTH"
	raw["PaymentMethod"] = " electronic check "
	raw["InternetService"] = "fiber optic"

	req, err := request.NewBuilder().Build(raw)
	require.NoError(t, err)

	assert.Equal(t, "Month-to-month", req.Category("Contract"))
	assert.Equal(t, "Electronic check", req.Category("PaymentMethod"))
	assert.Equal(t, "Fiber optic", req.Category("InternetService"))
}

func TestBuilder_Build_PassesThroughUnknownFields(t *testing.T) {
	raw := validRaw()
	raw["customerSegment"] = "enterprise"
	raw["TotalCharges"] = "1332.00"
	raw["SeniorCitizen"] = "1"

	req, err := request.NewBuilder().Build(raw)
	require.NoError(t, err)

	assert.Equal(t, "enterprise", req.Category("customerSegment"))
	require.NotNil(t, req.TotalCharges)
	assert.InDelta(t, 1332.0, *req.TotalCharges, 1e-9)
	assert.True(t, req.SeniorCitizen)
}

func TestBuilder_Build_NonNegativeForValidInput(t *testing.T) {
	inputs := []struct{ tenure, charges string }{
		{"0", "0"},
		{"1", "0.01"},
		{"72", "118.75"},
		{" 12 ", "20"},
	}

	builder := request.NewBuilder()
	for _, in := range inputs {
		raw := validRaw()
		raw["tenure"] = in.tenure
		raw["MonthlyCharges"] = in.charges

		req, err := builder.Build(raw)
		require.NoError(t, err, "tenure=%q charges=%q", in.tenure, in.charges)
		assert.GreaterOrEqual(t, req.Tenure, 0)
		assert.GreaterOrEqual(t, req.MonthlyCharges, 0.0)
	}
}

func TestBuilder_Build_ExponentAmountsStayEncodable(t *testing.T) {
	raw := validRaw()
	raw["MonthlyCharges"] = "1e2"
	raw["TotalCharges"] = "2.4E3"

	req, err := request.NewBuilder().Build(raw)
	require.NoError(t, err)
	assert.InDelta(t, 100.0, req.MonthlyCharges, 1e-9)
	require.NotNil(t, req.TotalCharges)
	assert.InDelta(t, 2400.0, *req.TotalCharges, 1e-9)

	_, err = json.Marshal(req)
	assert.NoError(t, err)
}
