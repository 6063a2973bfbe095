package algo

import "math"

// WeightedMean accumulates a weighted average. Contributions with a weight that
// is not a positive finite number are dropped and do not count.
type WeightedMean struct {
	sum     float64
	weights float64
	count   int
}

// Add adds value with the given weight.
func (w *WeightedMean) Add(value, weight float64) {
	if !(weight > 0) || math.IsInf(weight, 1) || math.IsNaN(value) {
		return
	}
	w.sum += value * weight
	w.weights += weight
	w.count++
}

// Count returns the number of accepted contributions.
func (w *WeightedMean) Count() int {
	return w.count
}

// Valid reports whether at least one contribution was accepted.
func (w *WeightedMean) Valid() bool {
	return w.count > 0
}

// Mean returns the weighted mean; it is only meaningful when Valid.
func (w *WeightedMean) Mean() float64 {
	if w.weights == 0 {
		return 0
	}
	return w.sum / w.weights
}

// Sample returns the mean as a present sample, or a missing sample if nothing was added.
func (w *WeightedMean) Sample() Sample {
	if !w.Valid() {
		return Missing()
	}
	return Present(w.Mean())
}

// blendNeighbors combines the transformed neighbor observations at every hour,
// taking at most limit contributions per hour in neighbor order.
func blendNeighbors(neighbors []Neighbor, duration, limit int) []Sample {
	support := make([]Sample, duration)
	for t := range duration {
		var wm WeightedMean
		for n := 0; n < len(neighbors) && wm.Count() < limit; n++ {
			obs := neighbors[n].Observed[t]
			if !obs.Present {
				continue
			}
			c := neighbors[n].Correlation
			wm.Add(c.Transform(obs.Value), c.Weight())
		}
		support[t] = wm.Sample()
	}
	return support
}
