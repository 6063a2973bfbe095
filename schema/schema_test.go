package schema_test

import (
	"testing"
	"time"

	"github.com/huangsam/stationqc/schema"
	"github.com/stretchr/testify/assert"
)

var day = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

func hour(i int) time.Time {
	return day.Add(time.Duration(i) * time.Hour)
}

func TestTimeRange(t *testing.T) {
	r := schema.NewTimeRange(hour(2).Add(30*time.Minute), hour(5))
	assert.Equal(t, hour(2), r.Start)
	assert.Equal(t, 4, r.Hours())
	assert.Equal(t, hour(4), r.At(2))

	i, ok := r.Index(hour(3))
	assert.True(t, ok)
	assert.Equal(t, 1, i)
	_, ok = r.Index(hour(6))
	assert.False(t, ok)
	_, ok = r.Index(hour(3).Add(time.Minute))
	assert.False(t, ok)

	assert.Equal(t, 0, schema.TimeRange{Start: hour(5), End: hour(2)}.Hours())
}

func TestTimeRangeExtendClamp(t *testing.T) {
	window := schema.NewTimeRange(hour(0), hour(23))
	got := schema.NewTimeRange(hour(1), hour(22)).Extend(3).Clamp(window)
	assert.Equal(t, window, got)

	got = schema.NewTimeRange(hour(10), hour(12)).Extend(3).Clamp(window)
	assert.Equal(t, schema.NewTimeRange(hour(7), hour(15)), got)
}

func TestObservationStatus(t *testing.T) {
	tests := []struct {
		status      schema.ObservationStatus
		trusted     bool
		needs       bool
		pending     bool
		hasValue    bool
		description string
	}{
		{schema.StatusOK, true, false, false, true, "observed"},
		{schema.StatusMissing, false, true, true, false, "never received"},
		{schema.StatusRejected, false, true, true, false, "failed an earlier check"},
		{schema.StatusFilledGood, false, false, false, true, "kept fill"},
		{schema.StatusFilledBad, false, true, false, true, "retried fill"},
		{schema.StatusFillFailed, false, true, false, false, "retried failure"},
	}
	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			assert.Equal(t, tt.trusted, tt.status.Trusted())
			assert.Equal(t, tt.needs, tt.status.NeedsInterpolation())
			assert.Equal(t, tt.pending, tt.status.Pending())
			assert.Equal(t, tt.hasValue, tt.status.HasValue())
			assert.Contains(t, schema.ValidObservationStatuses, tt.status)
		})
	}
}

func TestParameterInfoConstrain(t *testing.T) {
	params := schema.DefaultParameters()
	uu := params[1]
	assert.Equal(t, 0.0, uu.Constrain(-3))
	assert.Equal(t, 100.0, uu.Constrain(104))
	assert.Equal(t, 55.5, uu.Constrain(55.5))

	ta := params[0]
	assert.Equal(t, -40.0, ta.Constrain(-40))

	id, ok := uu.DependsOn()
	assert.True(t, ok)
	assert.Equal(t, schema.ParamTA, id)
	_, ok = ta.DependsOn()
	assert.False(t, ok)

	assert.True(t, ta.HasMinMax())
	assert.Equal(t, schema.ParamTAN, ta.MinParam)
	assert.False(t, uu.HasMinMax())
}
