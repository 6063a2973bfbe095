package algo

import "fmt"

// minMaxSteps is the number of sub-intervals an hour is sampled at when its
// extremes are reconstructed from the parameter spline.
const minMaxSteps = 20

// MinMax holds the hourly minimum and maximum recorded alongside the center
// series. Index t covers the hour ending at t. Either side may be nil.
type MinMax struct {
	Min []CenterSample
	Max []CenterSample
}

func (m *MinMax) validate(duration int) error {
	if m.Min != nil && len(m.Min) != duration {
		return fmt.Errorf("%w: minimum has %d samples, want %d", ErrPreconditionViolation, len(m.Min), duration)
	}
	if m.Max != nil && len(m.Max) != duration {
		return fmt.Errorf("%w: maximum has %d samples, want %d", ErrPreconditionViolation, len(m.Max), duration)
	}
	return nil
}

// sides returns the configured extreme series.
func (m *MinMax) sides() [][]CenterSample {
	var out [][]CenterSample
	for _, s := range [][]CenterSample{m.Min, m.Max} {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

// DiscardUnreliable flags the observed extremes of every hour that follows an
// hour without a minimum or maximum value, since they may span more than one
// hour. It returns the flagged hours in increasing order.
func (m *MinMax) DiscardUnreliable() []int {
	sides := m.sides()
	if len(sides) == 0 {
		return nil
	}
	reliable := make([]bool, len(sides[0]))
	for t := range reliable {
		reliable[t] = true
		for _, s := range sides {
			if !s[t].Observed.Present && !s[t].Filled.Present {
				reliable[t] = false
			}
		}
	}

	var discarded []int
	for t := 1; t < len(reliable); t++ {
		if reliable[t-1] {
			continue
		}
		flagged := false
		for _, s := range sides {
			if s[t].Usable() {
				s[t].NeedsInterpolation = true
				flagged = true
			}
		}
		if flagged {
			discarded = append(discarded, t)
		}
	}
	return discarded
}

// bounds returns the trusted minimum and maximum of hour t.
func (m *MinMax) bounds(t int) (lo, hi Sample) {
	if m.Min != nil && m.Min[t].Usable() {
		lo = m.Min[t].Observed
	}
	if m.Max != nil && m.Max[t].Usable() {
		hi = m.Max[t].Observed
	}
	return lo, hi
}

// midpoint estimates the value at hour t from the extremes of the hours on
// both sides of it. Both hours need a trusted minimum and maximum.
func (m *MinMax) midpoint(t int) (float64, bool) {
	if t+1 >= len(m.Min) || t+1 >= len(m.Max) {
		return 0, false
	}
	lo0, hi0 := m.bounds(t)
	lo1, hi1 := m.bounds(t + 1)
	if !lo0.Present || !hi0.Present || !lo1.Present || !hi1.Present {
		return 0, false
	}
	return (min(hi0.Value, hi1.Value) + max(lo0.Value, lo1.Value)) / 2, true
}

// clamp limits v to the trusted extremes of hour t.
func (m *MinMax) clamp(t int, v float64) float64 {
	lo, hi := m.bounds(t)
	if lo.Present && v < lo.Value {
		v = lo.Value
	}
	if hi.Present && v > hi.Value {
		v = hi.Value
	}
	return v
}

// ReconstructMinMax estimates the flagged extremes of sc from out, the result
// of Run on the same context. It returns one verdict per hour for each side,
// or nil for a side that is not recorded. Flagged hours are BAD when the
// parameter has a value at both ends of the hour and the spline is close
// enough to sample it, and FAILED otherwise. Other hours keep what they hold.
func (e *Engine) ReconstructMinMax(sc *SeriesContext, out []Interpolation) (mins, maxs []Interpolation, err error) {
	if err := sc.Validate(); err != nil {
		return nil, nil, err
	}
	if len(out) != sc.Duration {
		return nil, nil, fmt.Errorf("%w: %d interpolations, want %d", ErrPreconditionViolation, len(out), sc.Duration)
	}
	m := sc.MinMax
	if m == nil {
		return nil, nil, nil
	}

	var par Spline
	for t, ip := range out {
		if ip.Quality != Failed {
			par.Add(float64(t), ip.Value)
		}
	}
	rc := reconstruction{
		opts:     e.opts,
		out:      out,
		par:      &par,
		minTrend: supportSpline(m.Min),
		maxTrend: supportSpline(m.Max),
	}
	rc.spreadMin, rc.spreadMax = extremeSpread(sc.Center, m)

	mins, maxs = keptAll(m.Min), keptAll(m.Max)
	for t := range sc.Duration {
		needMin := m.Min != nil && m.Min[t].NeedsInterpolation
		needMax := m.Max != nil && m.Max[t].NeedsInterpolation
		if !needMin && !needMax {
			continue
		}
		lo, hi, ok := rc.hour(t)
		if needMin {
			mins[t] = reconstructed(lo, ok)
		}
		if needMax {
			maxs[t] = reconstructed(hi, ok)
		}
	}
	return mins, maxs, nil
}

// reconstruction holds the derived series of one ReconstructMinMax call.
type reconstruction struct {
	opts                 Options
	out                  []Interpolation
	par                  *Spline
	minTrend, maxTrend   *Spline
	spreadMin, spreadMax float64
}

// hour returns the extremes of the hour ending at t.
func (rc *reconstruction) hour(t int) (lo, hi float64, ok bool) {
	if t == 0 || rc.out[t-1].Quality == Failed || rc.out[t].Quality == Failed {
		return 0, 0, false
	}
	if rc.par.Distance(float64(t)-0.5) >= rc.opts.SplineDistance {
		return 0, 0, false
	}

	lo = min(rc.out[t-1].Value, rc.out[t].Value)
	hi = max(rc.out[t-1].Value, rc.out[t].Value)
	for j := 1; j < minMaxSteps; j++ {
		x := float64(t-1) + float64(j)/minMaxSteps
		if v, ok := rc.par.Interpolate(x); ok {
			lo = min(lo, v-rc.spreadMin)
			hi = max(hi, v+rc.spreadMax)
		}
	}
	if v, ok := near(rc.minTrend, t, rc.opts.SplineDistance); ok {
		lo = min(lo, v)
	}
	if v, ok := near(rc.maxTrend, t, rc.opts.SplineDistance); ok {
		hi = max(hi, v)
	}
	return lo, hi, true
}

// extremeSpread returns the smallest observed distance between the parameter
// and its minimum, and between its maximum and the parameter. Both are zero
// when no hour has the parameter and that extreme observed.
func extremeSpread(center []CenterSample, m *MinMax) (spreadMin, spreadMax float64) {
	smallest := func(side []CenterSample, diff func(par, extreme float64) float64) float64 {
		found := false
		var best float64
		for t, c := range side {
			if !c.Usable() || !center[t].Usable() {
				continue
			}
			d := diff(center[t].Observed.Value, c.Observed.Value)
			if !found || d < best {
				best, found = d, true
			}
		}
		return max(best, 0)
	}
	spreadMin = smallest(m.Min, func(par, lo float64) float64 { return par - lo })
	spreadMax = smallest(m.Max, func(par, hi float64) float64 { return hi - par })
	return spreadMin, spreadMax
}

// supportSpline builds a spline over the usable samples of side.
func supportSpline(side []CenterSample) *Spline {
	var s Spline
	for t, c := range side {
		if c.Usable() {
			s.Add(float64(t), c.Observed.Value)
		}
	}
	return &s
}

func near(s *Spline, t int, distance float64) (float64, bool) {
	x := float64(t)
	if s.Distance(x) >= distance {
		return 0, false
	}
	return s.Interpolate(x)
}

func keptAll(side []CenterSample) []Interpolation {
	if side == nil {
		return nil
	}
	out := make([]Interpolation, len(side))
	for t, c := range side {
		out[t] = c.kept()
	}
	return out
}

func reconstructed(v float64, ok bool) Interpolation {
	if !ok {
		return Interpolation{Quality: Failed, Source: SourceNone}
	}
	return Interpolation{Value: v, Quality: Bad, Source: SourceSpline}
}
