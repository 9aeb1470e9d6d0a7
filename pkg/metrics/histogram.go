package metrics

import (
	"math"
	"sort"
	"sync"
)

// Histogram tracks the distribution of values across predefined buckets.
// Thread-safe for concurrent use.
type Histogram struct {
	mu      sync.RWMutex
	buckets []float64 // Upper bounds
	counts  []uint64  // Count per bucket, plus overflow
	sum     float64
	count   uint64
	min     float64
	max     float64
}

// NewHistogram creates a histogram with the given bucket upper bounds.
func NewHistogram(buckets []float64) *Histogram {
	b := make([]float64, len(buckets))
	copy(b, buckets)
	sort.Float64s(b)

	return &Histogram{
		buckets: b,
		counts:  make([]uint64, len(b)+1),
		min:     math.MaxFloat64,
		max:     -math.MaxFloat64,
	}
}

// Observe records a value in the histogram.
func (h *Histogram) Observe(v float64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	idx := sort.SearchFloat64s(h.buckets, v)
	h.counts[idx]++

	h.sum += v
	h.count++
	if v < h.min {
		h.min = v
	}
	if v > h.max {
		h.max = v
	}
}

// BucketCount represents a histogram bucket with its upper bound and
// cumulative count.
type BucketCount struct {
	UpperBound float64 `json:"le"`
	Count      uint64  `json:"count"`
}

// HistogramSummary contains summarized histogram data.
type HistogramSummary struct {
	Count   uint64        `json:"count"`
	Sum     float64       `json:"sum"`
	Min     float64       `json:"min"`
	Max     float64       `json:"max"`
	Mean    float64       `json:"mean"`
	Buckets []BucketCount `json:"buckets"`
}

// Summary returns a snapshot of the histogram.
func (h *Histogram) Summary() HistogramSummary {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.count == 0 {
		return HistogramSummary{Buckets: make([]BucketCount, 0)}
	}

	buckets := make([]BucketCount, len(h.buckets)+1)
	var cumulative uint64
	for i, bound := range h.buckets {
		cumulative += h.counts[i]
		buckets[i] = BucketCount{UpperBound: bound, Count: cumulative}
	}
	cumulative += h.counts[len(h.buckets)]
	buckets[len(h.buckets)] = BucketCount{UpperBound: math.Inf(1), Count: cumulative}

	return HistogramSummary{
		Count:   h.count,
		Sum:     h.sum,
		Min:     h.min,
		Max:     h.max,
		Mean:    h.sum / float64(h.count),
		Buckets: buckets,
	}
}
