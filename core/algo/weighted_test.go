package algo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWeightedMean(t *testing.T) {
	var wm WeightedMean
	assert.False(t, wm.Valid())
	assert.False(t, wm.Sample().Present)

	wm.Add(10, 1)
	wm.Add(20, 3)
	assert.True(t, wm.Valid())
	assert.Equal(t, 2, wm.Count())
	assert.InDelta(t, 17.5, wm.Mean(), 1e-12)
	assert.Equal(t, Present(wm.Mean()), wm.Sample())
}

func TestWeightedMeanIgnoresBadWeights(t *testing.T) {
	tests := []struct {
		name   string
		weight float64
	}{
		{"zero", 0},
		{"negative", -1},
		{"nan", math.NaN()},
		{"infinite", math.Inf(1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var wm WeightedMean
			wm.Add(5, tt.weight)
			assert.Equal(t, 0, wm.Count())
			assert.False(t, wm.Valid())
		})
	}
}

func TestCorrelation(t *testing.T) {
	c := Correlation{Slope: 2, Offset: -1, Sigma: 2}
	assert.InDelta(t, 5.0, c.Transform(3), 1e-12)
	assert.InDelta(t, 0.125, c.Weight(), 1e-12)
}

func TestBlendNeighbors(t *testing.T) {
	sc := NewSeriesContext(2, 10)
	a := sc.AddNeighbor(Correlation{Slope: 1, Offset: 0, Sigma: 1})
	b := sc.AddNeighbor(Correlation{Slope: 1, Offset: 1, Sigma: 2})
	sc.Neighbors[a].Observed[0] = Present(10)
	sc.Neighbors[b].Observed[0] = Present(19) // transformed to 20, weight 1/8

	support := blendNeighbors(sc.Neighbors, sc.Duration, DefaultNeighborCap)
	assert.True(t, support[0].Present)
	assert.InDelta(t, (10*1+20*0.125)/1.125, support[0].Value, 1e-12)
	assert.False(t, support[1].Present, "no neighbor observed hour 1")
}

func TestBlendNeighborsCapKeepsOrder(t *testing.T) {
	sc := NewSeriesContext(1, 10)
	for range 5 {
		n := sc.AddNeighbor(Correlation{Slope: 1, Sigma: 1})
		sc.Neighbors[n].Observed[0] = Present(1)
	}
	last := sc.AddNeighbor(Correlation{Slope: 1, Sigma: 0.1})
	sc.Neighbors[last].Observed[0] = Present(100)

	support := blendNeighbors(sc.Neighbors, sc.Duration, 5)
	assert.InDelta(t, 1.0, support[0].Value, 1e-12, "the sixth neighbor must not contribute")

	support = blendNeighbors(sc.Neighbors, sc.Duration, 6)
	assert.Greater(t, support[0].Value, 50.0)
}

func TestBlendNeighborsSkipsMissingBeforeCap(t *testing.T) {
	sc := NewSeriesContext(1, 10)
	sc.AddNeighbor(Correlation{Slope: 1, Sigma: 1}) // missing, does not use up the cap
	n := sc.AddNeighbor(Correlation{Slope: 1, Sigma: 1})
	sc.Neighbors[n].Observed[0] = Present(7)

	support := blendNeighbors(sc.Neighbors, sc.Duration, 1)
	assert.Equal(t, Present(7), support[0])
}
