package algo

// OffsetCorrection is a linear estimate of the bias between a support series
// and the center series, fitted through the deltas at two anchor hours.
type OffsetCorrection struct {
	Offset float64
	Slope  float64
}

// NewOffsetCorrection builds the correction from the support and center samples
// at anchors t0 and t1. With one usable anchor the correction is constant; with
// none it is zero.
func NewOffsetCorrection(t0 int, support0 Sample, center0 Sample, t1 int, support1 Sample, center1 Sample) OffsetCorrection {
	have0 := support0.Present && center0.Present
	have1 := support1.Present && center1.Present

	switch {
	case have0 && have1 && t1 != t0:
		d0 := support0.Value - center0.Value
		d1 := support1.Value - center1.Value
		slope := (d1 - d0) / float64(t1-t0)
		return OffsetCorrection{Offset: d0 - slope*float64(t0), Slope: slope}
	case have0:
		return OffsetCorrection{Offset: support0.Value - center0.Value}
	case have1:
		return OffsetCorrection{Offset: support1.Value - center1.Value}
	default:
		return OffsetCorrection{}
	}
}

// At returns the estimated bias at hour t.
func (oc OffsetCorrection) At(t int) float64 {
	return oc.Offset + oc.Slope*float64(t)
}

// gapCorrection fits a correction for support over the gap bounded by the anchors before and after.
func gapCorrection(support []Sample, center []CenterSample, before, after int) OffsetCorrection {
	return NewOffsetCorrection(
		before, support[before], anchorSample(center[before]),
		after, support[after], anchorSample(center[after]),
	)
}

// anchorSample returns the observed value only when the center sample is an anchor.
func anchorSample(c CenterSample) Sample {
	if c.Usable() {
		return c.Observed
	}
	return Missing()
}
