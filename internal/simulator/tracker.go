package simulator

import "sync"

// Tracker accumulates the aggregate served by GET /metrics.
type Tracker struct {
	mu       sync.Mutex
	total    int
	byRisk   map[string]int
	sumProba float64
}

func NewTracker() *Tracker {
	return &Tracker{byRisk: newRiskCounts()}
}

func newRiskCounts() map[string]int {
	return map[string]int{"Low": 0, "Medium": 0, "High": 0}
}

func (t *Tracker) Record(riskLevel string, probability float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.total++
	t.byRisk[riskLevel]++
	t.sumProba += probability
}

func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.total = 0
	t.byRisk = newRiskCounts()
	t.sumProba = 0
}

// Totals returns the prediction count, the per-risk counts and the average
// probability (0 when nothing has been scored).
func (t *Tracker) Totals() (int, map[string]int, float64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	byRisk := make(map[string]int, len(t.byRisk))
	for k, v := range t.byRisk {
		byRisk[k] = v
	}

	var avg float64
	if t.total > 0 {
		avg = round4(t.sumProba / float64(t.total))
	}
	return t.total, byRisk, avg
}
