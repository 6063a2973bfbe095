package contract

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/huangsam/stationqc/schema"
)

// ErrInvalidParameter is returned when a parameter description cannot be used.
var ErrInvalidParameter = errors.New("invalid parameter info")

// Keys found in older parameter descriptions that carry no meaning for interpolation.
var ignoredParameterKeys = []string{"fluctuationLevel"}

// ParseParameterInfo parses a textual parameter description such as
// "par=262,minVal=0,maxVal=100,maxOffset=15,maxSigma=5,dewPointOf=211".
// The key offsetCorrectionLimit is accepted as an alias of maxOffset, and
// minParameter and maxParameter as aliases of minPar and maxPar.
func ParseParameterInfo(s string) (schema.ParameterInfo, error) {
	var pi schema.ParameterInfo
	seenPar := false

	for item := range strings.SplitSeq(s, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		key, value, ok := strings.Cut(item, "=")
		if !ok {
			return schema.ParameterInfo{}, fmt.Errorf("%w: %q is not key=value", ErrInvalidParameter, item)
		}
		key, value = strings.TrimSpace(key), strings.TrimSpace(value)

		var err error
		switch key {
		case "par":
			pi.ID, err = strconv.Atoi(value)
			seenPar = true
		case "name":
			pi.Name = value
		case "minVal":
			pi.MinValue, err = parseFloatPtr(value)
		case "maxVal":
			pi.MaxValue, err = parseFloatPtr(value)
		case "maxOffset", "offsetCorrectionLimit":
			pi.MaxOffset, err = strconv.ParseFloat(value, 64)
		case "maxSigma":
			pi.MaxSigma, err = strconv.ParseFloat(value, 64)
		case "dewPointOf":
			pi.DewPointOf, err = strconv.Atoi(value)
		case "accumulated":
			pi.Accumulated, err = ParseBoolString(value)
		case "minPar", "minParameter":
			pi.MinParam, err = strconv.Atoi(value)
		case "maxPar", "maxParameter":
			pi.MaxParam, err = strconv.Atoi(value)
		default:
			if !slices.Contains(ignoredParameterKeys, key) {
				return schema.ParameterInfo{}, fmt.Errorf("%w: unknown key %q", ErrInvalidParameter, key)
			}
		}
		if err != nil {
			return schema.ParameterInfo{}, fmt.Errorf("%w: bad value for %s: %v", ErrInvalidParameter, key, err)
		}
	}

	if !seenPar {
		return schema.ParameterInfo{}, fmt.Errorf("%w: missing par", ErrInvalidParameter)
	}
	if pi.Name == "" {
		pi.Name = defaultParameterName(pi.ID)
	}
	if err := ValidateParameterInfo(pi); err != nil {
		return schema.ParameterInfo{}, err
	}
	return pi, nil
}

// ParseParameterOverrides parses a ';'-separated list of parameter descriptions.
func ParseParameterOverrides(s string) ([]schema.ParameterInfo, error) {
	var out []schema.ParameterInfo
	for part := range strings.SplitSeq(s, ";") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		pi, err := ParseParameterInfo(part)
		if err != nil {
			return nil, err
		}
		out = append(out, pi)
	}
	return out, nil
}

// ValidateParameterInfo checks the limits of a single parameter.
func ValidateParameterInfo(pi schema.ParameterInfo) error {
	switch {
	case pi.ID <= 0:
		return fmt.Errorf("%w: par must be positive (received %d)", ErrInvalidParameter, pi.ID)
	case !finite(pi.MaxOffset) || pi.MaxOffset <= 0:
		return fmt.Errorf("%w: maxOffset for par %d must be greater than 0", ErrInvalidParameter, pi.ID)
	case !finite(pi.MaxSigma) || pi.MaxSigma < 0:
		return fmt.Errorf("%w: maxSigma for par %d cannot be negative", ErrInvalidParameter, pi.ID)
	case (pi.MinValue != nil && !finite(*pi.MinValue)) || (pi.MaxValue != nil && !finite(*pi.MaxValue)):
		return fmt.Errorf("%w: value range for par %d must be finite", ErrInvalidParameter, pi.ID)
	case pi.MinValue != nil && pi.MaxValue != nil && *pi.MinValue > *pi.MaxValue:
		return fmt.Errorf("%w: minVal %g is above maxVal %g for par %d", ErrInvalidParameter, *pi.MinValue, *pi.MaxValue, pi.ID)
	case pi.DewPointOf == pi.ID:
		return fmt.Errorf("%w: par %d cannot be its own dew point temperature", ErrInvalidParameter, pi.ID)
	case pi.DewPointOf < 0:
		return fmt.Errorf("%w: dewPointOf for par %d cannot be negative", ErrInvalidParameter, pi.ID)
	case pi.MinParam < 0 || pi.MaxParam < 0:
		return fmt.Errorf("%w: minPar and maxPar for par %d cannot be negative", ErrInvalidParameter, pi.ID)
	case pi.MinParam == pi.ID || pi.MaxParam == pi.ID:
		return fmt.Errorf("%w: par %d cannot be its own extreme", ErrInvalidParameter, pi.ID)
	case pi.MinParam > 0 && pi.MinParam == pi.MaxParam:
		return fmt.Errorf("%w: minPar and maxPar of par %d are both %d", ErrInvalidParameter, pi.ID, pi.MinParam)
	}
	return nil
}

// FormatParameterInfo renders pi in the textual form accepted by ParseParameterInfo.
func FormatParameterInfo(pi schema.ParameterInfo) string {
	parts := []string{"par=" + strconv.Itoa(pi.ID), "name=" + pi.Name}
	if pi.MinValue != nil {
		parts = append(parts, "minVal="+strconv.FormatFloat(*pi.MinValue, 'g', -1, 64))
	}
	if pi.MaxValue != nil {
		parts = append(parts, "maxVal="+strconv.FormatFloat(*pi.MaxValue, 'g', -1, 64))
	}
	parts = append(parts, "maxOffset="+strconv.FormatFloat(pi.MaxOffset, 'g', -1, 64))
	if pi.MaxSigma > 0 {
		parts = append(parts, "maxSigma="+strconv.FormatFloat(pi.MaxSigma, 'g', -1, 64))
	}
	if pi.DewPointOf > 0 {
		parts = append(parts, "dewPointOf="+strconv.Itoa(pi.DewPointOf))
	}
	if pi.Accumulated {
		parts = append(parts, "accumulated=1")
	}
	if pi.MinParam > 0 {
		parts = append(parts, "minPar="+strconv.Itoa(pi.MinParam))
	}
	if pi.MaxParam > 0 {
		parts = append(parts, "maxPar="+strconv.Itoa(pi.MaxParam))
	}
	return strings.Join(parts, ",")
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func parseFloatPtr(s string) (*float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func defaultParameterName(id int) string {
	for _, pi := range schema.DefaultParameters() {
		if pi.ID == id {
			return pi.Name
		}
	}
	return "P" + strconv.Itoa(id)
}
