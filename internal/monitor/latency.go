package monitor

import "sync"

// LatencyHistory keeps the durations (ms) of the most recent successful
// probes in insertion order. A capacity of 0 keeps every value.
type LatencyHistory struct {
	mu       sync.RWMutex
	capacity int
	values   []int64
}

func NewLatencyHistory(capacity int) *LatencyHistory {
	if capacity < 0 {
		capacity = 0
	}
	h := &LatencyHistory{capacity: capacity}
	if capacity > 0 {
		h.values = make([]int64, 0, capacity+1)
	}
	return h
}

// Record appends ms and evicts the oldest value once capacity is exceeded.
func (h *LatencyHistory) Record(ms int64) {
	if ms < 0 {
		ms = 0
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.values = append(h.values, ms)
	if h.capacity > 0 && len(h.values) > h.capacity {
		n := copy(h.values, h.values[1:])
		h.values = h.values[:n]
	}
}

func (h *LatencyHistory) Capacity() int { return h.capacity }

func (h *LatencyHistory) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.values)
}

// Values returns a copy of the history, oldest first.
func (h *LatencyHistory) Values() []int64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]int64, len(h.values))
	copy(out, h.values)
	return out
}

func (h *LatencyHistory) Min() (int64, bool) { return deref(h.Stats().Min) }
func (h *LatencyHistory) Max() (int64, bool) { return deref(h.Stats().Max) }
func (h *LatencyHistory) Avg() (int64, bool) { return deref(h.Stats().Avg) }
func (h *LatencyHistory) Last() (int64, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if len(h.values) == 0 {
		return 0, false
	}
	return h.values[len(h.values)-1], true
}

// LatencyStats holds the aggregate view of a history. Every field is nil
// when the history is empty.
type LatencyStats struct {
	Min, Max, Avg, Last *int64
}

// Stats computes all aggregates under one read lock. Avg uses integer division.
func (h *LatencyHistory) Stats() LatencyStats {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if len(h.values) == 0 {
		return LatencyStats{}
	}
	lo, hi, sum := h.values[0], h.values[0], int64(0)
	for _, v := range h.values {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
		sum += v
	}
	avg := sum / int64(len(h.values))
	last := h.values[len(h.values)-1]
	return LatencyStats{Min: &lo, Max: &hi, Avg: &avg, Last: &last}
}

func deref(p *int64) (int64, bool) {
	if p == nil {
		return 0, false
	}
	return *p, true
}
