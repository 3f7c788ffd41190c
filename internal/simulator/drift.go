package simulator

import (
	"math"
	"math/rand"
	"time"
)

// Drift shifts the scorer's log-odds to imitate a customer base whose churn
// risk changes over time.
type Drift interface {
	Apply(logit float64) float64
	Name() string
}

var (
	DriftSteady Drift = &SteadyDrift{}
	DriftRandom Drift = &RandomDrift{}
)

// ParseDrift returns the named drift. Unknown names fall back to steady.
func ParseDrift(name string) Drift {
	switch name {
	case "random":
		return DriftRandom
	case "gradual_rise":
		return &GradualRiseDrift{startTime: time.Now()}
	case "seasonal":
		return &SeasonalDrift{}
	default:
		return DriftSteady
	}
}

// SteadyDrift leaves scores untouched.
type SteadyDrift struct{}

func (d *SteadyDrift) Apply(logit float64) float64 {
	return logit
}

func (d *SteadyDrift) Name() string {
	return "steady"
}

// RandomDrift adds noise in [-0.5, 0.5).
type RandomDrift struct{}

func (d *RandomDrift) Apply(logit float64) float64 {
	return logit + rand.Float64() - 0.5
}

func (d *RandomDrift) Name() string {
	return "random"
}

// GradualRiseDrift raises the log-odds by 0.05 per minute, capped at 2.
type GradualRiseDrift struct {
	startTime time.Time
}

func (d *GradualRiseDrift) Apply(logit float64) float64 {
	minutes := time.Since(d.startTime).Minutes()
	return logit + math.Min(minutes*0.05, 2)
}

func (d *GradualRiseDrift) Name() string {
	return "gradual_rise"
}

// SeasonalDrift oscillates with the given period and amplitude.
type SeasonalDrift struct {
	Period    time.Duration
	Amplitude float64
}

func (d *SeasonalDrift) Apply(logit float64) float64 {
	period := d.Period
	if period == 0 {
		period = 10 * time.Minute
	}
	amplitude := d.Amplitude
	if amplitude == 0 {
		amplitude = 0.75
	}

	phase := float64(time.Now().UnixNano()) / float64(period.Nanoseconds()) * 2 * math.Pi
	return logit + math.Sin(phase)*amplitude
}

func (d *SeasonalDrift) Name() string {
	return "seasonal"
}
