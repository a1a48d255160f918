package tui

import (
	"slices"
	"strings"
)

// sparkBlocks are the eight bar heights, lowest first.
var sparkBlocks = []rune("▁▂▃▄▅▆▇█")

// History keeps the most recent samples of a series, oldest first.
type History struct {
	samples []float64
	limit   int
}

// NewHistory creates a history holding at most limit samples.
func NewHistory(limit int) *History {
	return &History{limit: max(limit, 1)}
}

// Add appends a sample, dropping the oldest ones beyond the limit.
func (h *History) Add(v float64) {
	h.samples = append(h.samples, v)
	h.trim()
}

// Len returns the number of samples held.
func (h *History) Len() int { return len(h.samples) }

// Limit returns the maximum number of samples.
func (h *History) Limit() int { return h.limit }

// Values returns a copy of the samples, oldest first.
func (h *History) Values() []float64 { return slices.Clone(h.samples) }

// SetLimit changes the limit, keeping the newest samples that fit. The
// metrics panel calls it on resize so one sample maps to one column.
func (h *History) SetLimit(limit int) {
	h.limit = max(limit, 1)
	h.trim()
}

func (h *History) trim() {
	if over := len(h.samples) - h.limit; over > 0 {
		h.samples = slices.Delete(h.samples, 0, over)
	}
}

// RenderSparkline draws one bar per value. Values are percentages; anything
// outside 0..100 is clamped.
func RenderSparkline(values []float64) string {
	var b strings.Builder
	top := len(sparkBlocks) - 1
	for _, v := range values {
		v = min(max(v, 0), 100)
		b.WriteRune(sparkBlocks[int(v/100*float64(top))])
	}
	return b.String()
}
