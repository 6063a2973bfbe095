package schema

// Well-known parameter ids.
const (
	ParamTA = 211 // air temperature
	ParamUU = 262 // relative humidity
	ParamPR = 178 // sea level pressure
	ParamRA = 104 // accumulated precipitation

	ParamTAN = 213 // hourly minimum air temperature
	ParamTAX = 215 // hourly maximum air temperature
)

// ParameterInfo holds per-parameter limits for interpolation.
type ParameterInfo struct {
	ID   int    `json:"id"`
	Name string `json:"name"`

	// MinValue and MaxValue clamp interpolated values when set.
	MinValue *float64 `json:"min_value,omitempty"`
	MaxValue *float64 `json:"max_value,omitempty"`

	// MaxOffset rejects offset corrections with a magnitude at or above it.
	MaxOffset float64 `json:"max_offset"`

	// MaxSigma drops neighbors with a larger fit uncertainty; zero keeps all.
	MaxSigma float64 `json:"max_sigma"`

	// Accumulated marks a series that should never decrease, such as precipitation totals.
	Accumulated bool `json:"accumulated"`

	// DewPointOf is the temperature parameter used to interpolate humidity as dew point.
	DewPointOf int `json:"dew_point_of,omitempty"`

	// MinParam and MaxParam are the parameters recording the hourly extremes
	// of this one. They are reconstructed together with it.
	MinParam int `json:"min_param,omitempty"`
	MaxParam int `json:"max_param,omitempty"`
}

// Constrain clamps v into the configured value range.
func (p ParameterInfo) Constrain(v float64) float64 {
	if p.MinValue != nil && v < *p.MinValue {
		v = *p.MinValue
	}
	if p.MaxValue != nil && v > *p.MaxValue {
		v = *p.MaxValue
	}
	return v
}

// DependsOn reports whether the parameter needs another parameter's series.
func (p ParameterInfo) DependsOn() (int, bool) {
	return p.DewPointOf, p.DewPointOf > 0
}

// HasMinMax reports whether the parameter has an extreme series attached.
func (p ParameterInfo) HasMinMax() bool {
	return p.MinParam > 0 || p.MaxParam > 0
}

// DefaultParameters returns the parameters interpolated when none are configured.
func DefaultParameters() []ParameterInfo {
	zero, hundred := 0.0, 100.0
	return []ParameterInfo{
		{ID: ParamTA, Name: "TA", MaxOffset: 15, MaxSigma: 5, MinParam: ParamTAN, MaxParam: ParamTAX},
		{ID: ParamUU, Name: "UU", MinValue: &zero, MaxValue: &hundred, MaxOffset: 15, MaxSigma: 5, DewPointOf: ParamTA},
		{ID: ParamPR, Name: "PR", MaxOffset: 10, MaxSigma: 5},
		{ID: ParamRA, Name: "RA", MinValue: &zero, MaxOffset: 10, MaxSigma: 5, Accumulated: true},
	}
}
