// Package algo holds the numerical core of the gap filler: the Akima spline,
// the neighbor blend, the offset corrections and the engine that ties them together.
package algo

import (
	"errors"
	"fmt"
	"math"
)

// ErrPreconditionViolation is returned when a SeriesContext is structurally broken,
// e.g. an input array does not have exactly Duration elements.
var ErrPreconditionViolation = errors.New("series context precondition violated")

// Sample is a single per-hour value slot which is either present or missing.
type Sample struct {
	Value   float64
	Present bool
}

// Present returns a sample holding v.
func Present(v float64) Sample {
	return Sample{Value: v, Present: true}
}

// Missing returns an empty sample.
func Missing() Sample {
	return Sample{}
}

// CenterSample is an observation of the station being filled.
type CenterSample struct {
	Observed           Sample
	NeedsInterpolation bool

	// Filled is an accepted earlier fill. It is kept as is but never used as support.
	Filled Sample
}

// Usable reports whether the sample is an anchor: observed and trusted as is.
func (c CenterSample) Usable() bool {
	return c.Observed.Present && !c.NeedsInterpolation
}

// kept returns the verdict for an hour that is not interpolated: the observation
// or earlier fill it already holds, or FAILED if it holds neither.
func (c CenterSample) kept() Interpolation {
	switch {
	case c.Observed.Present:
		return Interpolation{Value: c.Observed.Value, Quality: Observation, Source: SourceObservation}
	case c.Filled.Present:
		return Interpolation{Value: c.Filled.Value, Quality: Good, Source: SourceObservation}
	default:
		return Interpolation{Quality: Failed, Source: SourceNone}
	}
}

// Correlation maps a neighbor value into the center station's domain.
type Correlation struct {
	Slope  float64 `json:"slope"`
	Offset float64 `json:"offset"`
	Sigma  float64 `json:"sigma"`
}

// Transform applies the affine mapping offset + slope*v.
func (c Correlation) Transform(v float64) float64 {
	return c.Offset + c.Slope*v
}

// Weight is the blend weight 1/sigma³.
func (c Correlation) Weight() float64 {
	return 1 / (c.Sigma * c.Sigma * c.Sigma)
}

// Neighbor is a correlated station with its observations over the same range.
type Neighbor struct {
	Correlation Correlation
	Observed    []Sample
}

// SeriesContext is everything the engine reads for one station/parameter/time-range job.
// Index t corresponds to the t-th hour of the job range.
type SeriesContext struct {
	Duration  int
	Center    []CenterSample
	Model     []Sample
	Neighbors []Neighbor
	MaxOffset float64

	// MinMax is set when the parameter records its hourly extremes.
	MinMax *MinMax
}

// Validate checks that every series has exactly Duration elements.
func (sc *SeriesContext) Validate() error {
	if sc == nil {
		return fmt.Errorf("%w: nil series context", ErrPreconditionViolation)
	}
	if sc.Duration < 0 {
		return fmt.Errorf("%w: negative duration %d", ErrPreconditionViolation, sc.Duration)
	}
	if len(sc.Center) != sc.Duration {
		return fmt.Errorf("%w: center has %d samples, want %d", ErrPreconditionViolation, len(sc.Center), sc.Duration)
	}
	if len(sc.Model) != sc.Duration {
		return fmt.Errorf("%w: model has %d samples, want %d", ErrPreconditionViolation, len(sc.Model), sc.Duration)
	}
	for n, nb := range sc.Neighbors {
		if len(nb.Observed) != sc.Duration {
			return fmt.Errorf("%w: neighbor %d has %d samples, want %d", ErrPreconditionViolation, n, len(nb.Observed), sc.Duration)
		}
	}
	if sc.MinMax != nil {
		if err := sc.MinMax.validate(sc.Duration); err != nil {
			return err
		}
	}
	if math.IsNaN(sc.MaxOffset) {
		return fmt.Errorf("%w: max offset is NaN", ErrPreconditionViolation)
	}
	return nil
}

// NewSeriesContext allocates a context of the given duration with every slot missing.
func NewSeriesContext(duration int, maxOffset float64) *SeriesContext {
	return &SeriesContext{
		Duration:  duration,
		Center:    make([]CenterSample, duration),
		Model:     make([]Sample, duration),
		MaxOffset: maxOffset,
	}
}

// AddNeighbor appends a neighbor with an all-missing series and returns its index.
func (sc *SeriesContext) AddNeighbor(c Correlation) int {
	sc.Neighbors = append(sc.Neighbors, Neighbor{
		Correlation: c,
		Observed:    make([]Sample, sc.Duration),
	})
	return len(sc.Neighbors) - 1
}
