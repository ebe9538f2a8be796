package domain

// HistoryDepth is the default number of recent values kept per numeric
// metric for trend display.
const HistoryDepth = 20

// History is a bounded window of a numeric metric's most recent values.
// When full, appending evicts the oldest value first. It is not a
// statistical aggregate: thresholds are evaluated against the current
// value only, never against the window.
type History struct {
	capacity int
	values   []float64
}

// NewHistory returns an empty history holding at most capacity values.
func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = HistoryDepth
	}
	return &History{capacity: capacity}
}

// Push appends a value, evicting the oldest when the window is full.
func (h *History) Push(v float64) {
	if len(h.values) == h.capacity {
		copy(h.values, h.values[1:])
		h.values[len(h.values)-1] = v
		return
	}
	h.values = append(h.values, v)
}

// Values returns a copy of the window, oldest first.
func (h *History) Values() []float64 {
	out := make([]float64, len(h.values))
	copy(out, h.values)
	return out
}

// Len returns the number of values currently held.
func (h *History) Len() int { return len(h.values) }
