package protocol

import "math/bits"

// A Histogram counts samples in power-of-two buckets. Bucket i holds the
// samples in [2^(i-1), 2^i), bucket 0 holds zeros.
type Histogram struct {
	Buckets []uint64
	Count   uint64
	Sum     uint64
	Max     uint64
}

// Add records a sample.
func (h *Histogram) Add(v uint64) {
	b := bits.Len64(v)
	for len(h.Buckets) <= b {
		h.Buckets = append(h.Buckets, 0)
	}

	h.Buckets[b]++
	h.Count++
	h.Sum += v

	if v > h.Max {
		h.Max = v
	}
}

// Mean returns the average of the samples, or 0 if there is none.
func (h *Histogram) Mean() float64 {
	if h.Count == 0 {
		return 0
	}

	return float64(h.Sum) / float64(h.Count)
}
