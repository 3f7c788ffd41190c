package history

import (
	"sync"
	"time"

	"github.com/OldStager01/churn-dashboard/pkg/validation"
)

// History owns the current trend window for the dashboard.
type History struct {
	mu     sync.RWMutex
	window TrendWindow
}

func New(capacity int) *History {
	return &History{window: NewTrendWindow(capacity)}
}

// Record appends an average churn probability sample and returns the new
// window. Values outside [0,1] are rejected.
func (h *History) Record(value float64, at time.Time) (TrendWindow, error) {
	if err := validation.ValidateProbability("average_churn_probability", value); err != nil {
		return h.Current(), err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.window = h.window.Record(value, at)
	return h.window, nil
}

// Current returns the window as of now. TrendWindow is immutable, so the
// caller may keep it.
func (h *History) Current() TrendWindow {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.window
}
