package algo

import (
	"errors"
	"fmt"
	"math"
)

// Engine defaults.
const (
	DefaultExtraData      = 3
	DefaultNeighborCap    = 5
	DefaultSplineDistance = 1.5
)

// ErrInvalidOptions is returned for engine options that cannot drive a scan.
var ErrInvalidOptions = errors.New("invalid engine options")

// Quality is the trust tier of an output slot. Higher is more trusted.
type Quality int

// Quality tiers, ordered FAILED < BAD < GOOD < OBSERVATION.
const (
	Failed Quality = iota
	Bad
	Good
	Observation
)

// String returns the upper-case tier name.
func (q Quality) String() string {
	switch q {
	case Observation:
		return "OBSERVATION"
	case Good:
		return "GOOD"
	case Bad:
		return "BAD"
	default:
		return "FAILED"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (q Quality) MarshalText() ([]byte, error) {
	return []byte(q.String()), nil
}

// Source names the series that produced an output value.
type Source int

// Output sources.
const (
	SourceNone Source = iota
	SourceObservation
	SourceNeighbors
	SourceSpline
	SourceModel
	SourceExtremes
)

// String returns the lower-case source name.
func (s Source) String() string {
	switch s {
	case SourceObservation:
		return "observation"
	case SourceNeighbors:
		return "neighbors"
	case SourceSpline:
		return "spline"
	case SourceModel:
		return "model"
	case SourceExtremes:
		return "extremes"
	default:
		return "none"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Source) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Interpolation is the engine's verdict for one hour. Value is zero and
// meaningless when Quality is Failed. An hour that is neither an anchor nor
// flagged keeps what it holds: its observation, or a GOOD earlier fill.
type Interpolation struct {
	Value   float64 `json:"value"`
	Quality Quality `json:"quality"`
	Source  Source  `json:"source"`
}

// Options tune a single engine run.
type Options struct {
	// AkimaFirst tries the spline before the neighbor blend.
	AkimaFirst bool

	// ExtraData is the margin in hours at both ends of the range that is never filled.
	ExtraData int

	// NeighborCap bounds how many neighbors contribute to one hour.
	NeighborCap int

	// SplineDistance is the largest distance to a support point at which the spline is trusted.
	SplineDistance float64
}

// DefaultOptions returns the standard engine tuning.
func DefaultOptions() Options {
	return Options{
		ExtraData:      DefaultExtraData,
		NeighborCap:    DefaultNeighborCap,
		SplineDistance: DefaultSplineDistance,
	}
}

// Validate checks that the options describe a usable scan.
func (o Options) Validate() error {
	if o.ExtraData < 1 {
		return fmt.Errorf("%w: extra data must be at least 1 (received %d)", ErrInvalidOptions, o.ExtraData)
	}
	if o.NeighborCap < 1 {
		return fmt.Errorf("%w: neighbor cap must be at least 1 (received %d)", ErrInvalidOptions, o.NeighborCap)
	}
	if !(o.SplineDistance > 0) {
		return fmt.Errorf("%w: spline distance must be positive (received %v)", ErrInvalidOptions, o.SplineDistance)
	}
	return nil
}

// Engine fills gaps in a SeriesContext. It keeps no state between runs, so one
// Engine may serve concurrent jobs.
type Engine struct {
	opts Options
}

// NewEngine creates an engine with validated options.
func NewEngine(opts Options) (*Engine, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Engine{opts: opts}, nil
}

// Options returns the engine's tuning.
func (e *Engine) Options() Options {
	return e.opts
}

// Run computes one Interpolation per hour of sc.
//
// Anchors are passed through as OBSERVATION. Hours inside a gap bounded by two
// anchors are filled by the first accepted candidate out of extremes, neighbors,
// spline and model, then clamped into the hour's trusted extremes. Everything
// else is FAILED.
func (e *Engine) Run(sc *SeriesContext) ([]Interpolation, error) {
	if err := sc.Validate(); err != nil {
		return nil, err
	}

	out := make([]Interpolation, sc.Duration)
	var spline Spline
	for t, c := range sc.Center {
		if c.Usable() {
			out[t] = Interpolation{Value: c.Observed.Value, Quality: Observation, Source: SourceObservation}
			spline.Add(float64(t), c.Observed.Value)
		}
	}

	r := run{
		sc:      sc,
		opts:    e.opts,
		spline:  &spline,
		support: blendNeighbors(sc.Neighbors, sc.Duration, e.opts.NeighborCap),
	}

	stop := sc.Duration - e.opts.ExtraData
	before := e.opts.ExtraData - 1
	for before < stop {
		if !sc.Center[before].Usable() {
			before++
			continue
		}
		after := before + 1
		for after < stop && !sc.Center[after].Usable() {
			after++
		}
		if after > before+1 {
			if !sc.Center[after].Usable() {
				break
			}
			r.fillGap(out, before, after)
		}
		before = after
	}
	return out, nil
}

// run holds the per-call derived series.
type run struct {
	sc      *SeriesContext
	opts    Options
	spline  *Spline
	support []Sample
}

// fillGap fills every hour strictly between the anchors before and after.
func (r *run) fillGap(out []Interpolation, before, after int) {
	ocModel := gapCorrection(r.sc.Model, r.sc.Center, before, after)
	ocNeighbor := gapCorrection(r.support, r.sc.Center, before, after)

	for t := before + 1; t < after; t++ {
		c := r.sc.Center[t]
		if !c.NeedsInterpolation {
			out[t] = c.kept()
			continue
		}

		value, source := r.candidate(t, ocNeighbor, ocModel)
		if source == SourceNone {
			out[t] = Interpolation{Quality: Failed, Source: SourceNone}
			continue
		}
		q := Bad
		if source != SourceExtremes && (t == before+1 || t == after-1) {
			q = Good
		}
		if r.sc.MinMax != nil {
			value = r.sc.MinMax.clamp(t, value)
		}
		out[t] = Interpolation{Value: value, Quality: q, Source: source}
	}
}

// candidate returns the first accepted estimate for hour t.
func (r *run) candidate(t int, ocNeighbor, ocModel OffsetCorrection) (float64, Source) {
	if r.sc.MinMax != nil {
		if v, ok := r.sc.MinMax.midpoint(t); ok {
			return v, SourceExtremes
		}
	}
	if r.opts.AkimaFirst {
		if v, ok := r.splineAt(t); ok {
			return v, SourceSpline
		}
	}
	if v, ok := corrected(r.support[t], ocNeighbor.At(t), r.sc.MaxOffset); ok {
		return v, SourceNeighbors
	}
	if !r.opts.AkimaFirst {
		if v, ok := r.splineAt(t); ok {
			return v, SourceSpline
		}
	}
	if v, ok := corrected(r.sc.Model[t], ocModel.At(t), r.sc.MaxOffset); ok {
		return v, SourceModel
	}
	return 0, SourceNone
}

// splineAt evaluates the spline if t is close enough to its support points.
func (r *run) splineAt(t int) (float64, bool) {
	x := float64(t)
	if r.spline.Distance(x) >= r.opts.SplineDistance {
		return 0, false
	}
	return r.spline.Interpolate(x)
}

// corrected removes the bias delta from s, rejecting corrections of maxOffset or more.
func corrected(s Sample, delta, maxOffset float64) (float64, bool) {
	if !s.Present || !(math.Abs(delta) < maxOffset) {
		return 0, false
	}
	return s.Value - delta, true
}

// Summary counts output slots per quality tier.
type Summary struct {
	Observations int `json:"observations"`
	Good         int `json:"good"`
	Bad          int `json:"bad"`
	Failed       int `json:"failed"`
}

// Summarize tallies the qualities of out.
func Summarize(out []Interpolation) Summary {
	var s Summary
	for _, ip := range out {
		switch ip.Quality {
		case Observation:
			s.Observations++
		case Good:
			s.Good++
		case Bad:
			s.Bad++
		default:
			s.Failed++
		}
	}
	return s
}
