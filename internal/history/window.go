package history

import (
	"encoding/json"
	"time"
)

// DefaultCapacity is the number of samples kept for the trend chart.
const DefaultCapacity = 10

// LabelLayout formats sample times for local display.
const LabelLayout = "15:04:05"

// Sample is one average-churn-probability observation.
type Sample struct {
	Seq   uint64    `json:"seq"`
	Value float64   `json:"value"`
	At    time.Time `json:"at"`
	Label string    `json:"label"`
}

// TrendWindow is an immutable FIFO of at most Capacity samples, ordered by
// insertion sequence.
type TrendWindow struct {
	capacity int
	nextSeq  uint64
	samples  []Sample
}

func NewTrendWindow(capacity int) TrendWindow {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return TrendWindow{capacity: capacity, nextSeq: 1}
}

// Record returns a new window with the sample appended, evicting the oldest
// sample once at capacity. The receiver is not modified.
func (w TrendWindow) Record(value float64, at time.Time) TrendWindow {
	if w.capacity <= 0 {
		w = NewTrendWindow(DefaultCapacity)
	}

	start := 0
	if len(w.samples) >= w.capacity {
		start = len(w.samples) - w.capacity + 1
	}

	samples := make([]Sample, 0, w.capacity)
	samples = append(samples, w.samples[start:]...)
	samples = append(samples, Sample{
		Seq:   w.nextSeq,
		Value: value,
		At:    at,
		Label: at.Local().Format(LabelLayout),
	})

	return TrendWindow{
		capacity: w.capacity,
		nextSeq:  w.nextSeq + 1,
		samples:  samples,
	}
}

// Samples returns a copy, oldest first.
func (w TrendWindow) Samples() []Sample {
	out := make([]Sample, len(w.samples))
	copy(out, w.samples)
	return out
}

func (w TrendWindow) Len() int {
	return len(w.samples)
}

func (w TrendWindow) Capacity() int {
	return w.capacity
}

// Latest returns the most recent sample.
func (w TrendWindow) Latest() (Sample, bool) {
	if len(w.samples) == 0 {
		return Sample{}, false
	}
	return w.samples[len(w.samples)-1], true
}

// Labels and Values are the chart axes.
func (w TrendWindow) Labels() []string {
	out := make([]string, len(w.samples))
	for i, s := range w.samples {
		out[i] = s.Label
	}
	return out
}

func (w TrendWindow) Values() []float64 {
	out := make([]float64, len(w.samples))
	for i, s := range w.samples {
		out[i] = s.Value
	}
	return out
}

func (w TrendWindow) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Capacity int      `json:"capacity"`
		Samples  []Sample `json:"samples"`
	}{
		Capacity: w.capacity,
		Samples:  w.Samples(),
	})
}
