package simulator

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/OldStager01/churn-dashboard/pkg/models"
)

var ErrInvalidTotalCharges = errors.New("invalid TotalCharges value")

// Customer is the body accepted by POST /predict. Only the numeric fields
// are required; missing categorical fields simply do not contribute.
type Customer struct {
	Gender           string      `json:"gender"`
	SeniorCitizen    *int        `json:"SeniorCitizen" binding:"required,oneof=0 1"`
	Partner          string      `json:"Partner"`
	Dependents       string      `json:"Dependents"`
	Tenure           *int        `json:"tenure" binding:"required,min=0"`
	PhoneService     string      `json:"PhoneService"`
	MultipleLines    string      `json:"MultipleLines"`
	InternetService  string      `json:"InternetService"`
	OnlineSecurity   string      `json:"OnlineSecurity"`
	OnlineBackup     string      `json:"OnlineBackup"`
	DeviceProtection string      `json:"DeviceProtection"`
	TechSupport      string      `json:"TechSupport"`
	StreamingTV      string      `json:"StreamingTV"`
	StreamingMovies  string      `json:"StreamingMovies"`
	Contract         string      `json:"Contract"`
	PaperlessBilling string      `json:"PaperlessBilling"`
	PaymentMethod    string      `json:"PaymentMethod"`
	MonthlyCharges   *float64    `json:"MonthlyCharges" binding:"required,min=0"`
	TotalCharges     interface{} `json:"TotalCharges"`
}

// Charges returns TotalCharges as a number. A missing or blank value is
// estimated from tenure and monthly charges.
func (c *Customer) Charges() (float64, error) {
	switch v := c.TotalCharges.(type) {
	case nil:
		return c.estimatedCharges(), nil
	case float64:
		if v < 0 {
			return 0, ErrInvalidTotalCharges
		}
		return v, nil
	case string:
		if strings.TrimSpace(v) == "" {
			return c.estimatedCharges(), nil
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil || f < 0 {
			return 0, ErrInvalidTotalCharges
		}
		return f, nil
	default:
		return 0, ErrInvalidTotalCharges
	}
}

func (c *Customer) estimatedCharges() float64 {
	return float64(*c.Tenure) * *c.MonthlyCharges
}

// categoryWeights are log-odds contributions per categorical answer.
var categoryWeights = map[string]map[string]float64{
	"Contract": {
		"Month-to-month": 0.9,
		"One year":       -0.6,
		"Two year":       -1.5,
	},
	"InternetService": {
		"Fiber optic": 0.5,
		"No":          -0.7,
	},
	"PaymentMethod": {
		"Electronic check": 0.4,
	},
	"TechSupport": {
		"No": 0.3,
	},
	"OnlineSecurity": {
		"No": 0.3,
	},
	"PaperlessBilling": {
		"Yes": 0.2,
	},
	"Dependents": {
		"Yes": -0.2,
	},
}

const (
	intercept          = 0.4
	tenureWeight       = -0.045
	monthlyWeight      = 0.02
	monthlyBaseline    = 65.0
	seniorWeight       = 0.45
	totalChargesWeight = -0.00005
)

// Scorer is a fixed logistic model over the customer attributes.
type Scorer struct{}

// Logit returns the log-odds of churn before any drift is applied.
func (Scorer) Logit(c *Customer, totalCharges float64) float64 {
	z := intercept +
		tenureWeight*float64(*c.Tenure) +
		monthlyWeight*(*c.MonthlyCharges-monthlyBaseline) +
		totalChargesWeight*totalCharges
	if *c.SeniorCitizen == 1 {
		z += seniorWeight
	}

	answers := map[string]string{
		"Contract":         c.Contract,
		"InternetService":  c.InternetService,
		"PaymentMethod":    c.PaymentMethod,
		"TechSupport":      c.TechSupport,
		"OnlineSecurity":   c.OnlineSecurity,
		"PaperlessBilling": c.PaperlessBilling,
		"Dependents":       c.Dependents,
	}
	for field, answer := range answers {
		z += categoryWeights[field][answer]
	}
	return z
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}

// riskLevel renders a category the way the model service does: capitalized.
func riskLevel(p float64) string {
	switch models.ClassifyProbability(p) {
	case models.RiskLow:
		return "Low"
	case models.RiskMedium:
		return "Medium"
	default:
		return "High"
	}
}

func round4(f float64) float64 {
	return math.Round(f*10000) / 10000
}
