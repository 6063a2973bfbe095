package contract

import (
	"testing"
	"time"

	"github.com/huangsam/stationqc/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validRawInput mirrors the viper defaults registered by the root command.
func validRawInput() *ConfigRawInput {
	return &ConfigRawInput{
		Start:        "2024-03-01T00:00:00Z",
		End:          "2024-03-08T00:00:00Z",
		Workers:      4,
		Precision:    DefaultPrecision,
		Output:       "text",
		StoreBackend: "sqlite",
		Emoji:        "no",
		Color:        "yes",
		ExtraData:    DefaultExtraData,
		NeighborCap:  DefaultNeighborCap,
		GapLink:      DefaultGapLink,
		EdgeHours:    DefaultEdgeHours,
		RAThreshold:  DefaultRAThreshold,
	}
}

func TestProcessAndValidate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*ConfigRawInput)
		expectError bool
	}{
		{name: "valid defaults", mutate: func(*ConfigRawInput) {}},
		{name: "zero workers", mutate: func(in *ConfigRawInput) { in.Workers = 0 }, expectError: true},
		{name: "precision too high", mutate: func(in *ConfigRawInput) { in.Precision = 5 }, expectError: true},
		{name: "unknown output", mutate: func(in *ConfigRawInput) { in.Output = "xml" }, expectError: true},
		{name: "parquet without file", mutate: func(in *ConfigRawInput) { in.Output = "parquet" }, expectError: true},
		{
			name: "parquet with file",
			mutate: func(in *ConfigRawInput) {
				in.Output = "parquet"
				in.OutputFile = "fills.parquet"
			},
		},
		{name: "bad emoji", mutate: func(in *ConfigRawInput) { in.Emoji = "maybe" }, expectError: true},
		{name: "unknown backend", mutate: func(in *ConfigRawInput) { in.StoreBackend = "redis" }, expectError: true},
		{name: "mysql without dsn", mutate: func(in *ConfigRawInput) { in.StoreBackend = "mysql" }, expectError: true},
		{
			name: "postgres runs store",
			mutate: func(in *ConfigRawInput) {
				in.RunsBackend = "postgresql"
				in.RunsDBConnect = "host=localhost dbname=qc user=qc"
			},
		},
		{
			name: "same sqlite file for both stores",
			mutate: func(in *ConfigRawInput) {
				in.StoreConnect = "/tmp/qc.db"
				in.RunsBackend = "sqlite"
				in.RunsDBConnect = "/tmp/qc.db"
			},
			expectError: true,
		},
		{name: "zero extra data", mutate: func(in *ConfigRawInput) { in.ExtraData = 0 }, expectError: true},
		{name: "zero neighbor cap", mutate: func(in *ConfigRawInput) { in.NeighborCap = 0 }, expectError: true},
		{name: "negative edge hours", mutate: func(in *ConfigRawInput) { in.EdgeHours = -1 }, expectError: true},
		{name: "zero ra threshold", mutate: func(in *ConfigRawInput) { in.RAThreshold = 0 }, expectError: true},
		{name: "start after end", mutate: func(in *ConfigRawInput) { in.Start = "2024-03-09T00:00:00Z" }, expectError: true},
		{name: "garbage start", mutate: func(in *ConfigRawInput) { in.Start = "yesterday-ish" }, expectError: true},
		{name: "relative start", mutate: func(in *ConfigRawInput) { in.Start, in.End = "3 days ago", "" }},
		{name: "bad station list", mutate: func(in *ConfigRawInput) { in.Station = "18700,abc" }, expectError: true},
		{name: "unconfigured param", mutate: func(in *ConfigRawInput) { in.Param = "999" }, expectError: true},
		{name: "bad override", mutate: func(in *ConfigRawInput) { in.ParameterOverride = "par=211" }, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validRawInput()
			tt.mutate(input)
			cfg := &Config{}
			err := ProcessAndValidate(cfg, input)
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestProcessAndValidateFields(t *testing.T) {
	input := validRawInput()
	input.Start = "2024-03-01T00:30:00Z"
	input.End = "2024-03-02T12"
	input.Station = "18700, 180, 18700"
	input.Param = "262"
	input.AkimaFirst = true

	cfg := &Config{}
	require.NoError(t, ProcessAndValidate(cfg, input))

	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), cfg.Window.Start)
	assert.Equal(t, time.Date(2024, 3, 2, 12, 0, 0, 0, time.UTC), cfg.Window.End)
	assert.Equal(t, []int{180, 18700}, cfg.Stations)
	assert.Equal(t, []int{262}, cfg.SelectedParamIDs())
	assert.True(t, cfg.AkimaFirst)
	assert.True(t, cfg.UseColors)
	assert.False(t, cfg.UseEmojis)
	assert.Equal(t, schema.TextOut, cfg.Output)
	assert.Equal(t, schema.SQLiteBackend, cfg.StoreBackend)
	assert.Empty(t, string(cfg.RunsBackend))
	assert.Len(t, cfg.Parameters, len(schema.DefaultParameters()))
}

func TestProcessParameters(t *testing.T) {
	offset, sigma := 8.0, 2.5
	accumulated := false

	input := validRawInput()
	input.Parameters = []ParameterRawInput{
		{ID: schema.ParamTA, MaxOffset: &offset},
		{ID: schema.ParamRA, Accumulated: &accumulated},
		{ID: 81, Name: "FF", MaxOffset: &offset, MaxSigma: &sigma},
	}
	input.ParameterOverride = "par=178,maxOffset=4;par=300,maxOffset=1"

	cfg := &Config{}
	require.NoError(t, ProcessAndValidate(cfg, input))

	ta, ok := cfg.Parameter(schema.ParamTA)
	require.True(t, ok)
	assert.Equal(t, 8.0, ta.MaxOffset)
	assert.Equal(t, 5.0, ta.MaxSigma, "unset fields keep their defaults")

	ra, ok := cfg.Parameter(schema.ParamRA)
	require.True(t, ok)
	assert.False(t, ra.Accumulated)

	ff, ok := cfg.Parameter(81)
	require.True(t, ok)
	assert.Equal(t, "FF", ff.Name)
	assert.Equal(t, 2.5, ff.MaxSigma)

	pr, ok := cfg.Parameter(schema.ParamPR)
	require.True(t, ok)
	assert.Equal(t, 4.0, pr.MaxOffset)
	assert.Zero(t, pr.MaxSigma, "overrides replace the whole entry")

	_, ok = cfg.Parameter(300)
	assert.True(t, ok)

	ids := cfg.SelectedParamIDs()
	assert.IsIncreasing(t, ids)
	assert.Len(t, ids, 6)
}

func TestProcessParametersExtremes(t *testing.T) {
	tan, tax := 313, 315
	input := validRawInput()
	input.Param = ""
	input.Parameters = []ParameterRawInput{{ID: schema.ParamTA, MinParam: &tan, MaxParam: &tax}}

	cfg := &Config{}
	require.NoError(t, ProcessAndValidate(cfg, input))

	ta, ok := cfg.Parameter(schema.ParamTA)
	require.True(t, ok)
	assert.Equal(t, 313, ta.MinParam)
	assert.Equal(t, 315, ta.MaxParam)

	owner, ok := cfg.ExtremeOwner(315)
	require.True(t, ok)
	assert.Equal(t, schema.ParamTA, owner.ID)
	_, ok = cfg.ExtremeOwner(schema.ParamTAN)
	assert.False(t, ok, "the default extremes were replaced")

	ids := cfg.PendingParamIDs()
	assert.IsIncreasing(t, ids)
	assert.Contains(t, ids, 313)
	assert.Contains(t, ids, 315)
	assert.NotContains(t, cfg.SelectedParamIDs(), 313)
}

func TestPendingParamIDsFollowsSelection(t *testing.T) {
	cfg := &Config{Parameters: schema.DefaultParameters(), ParamIDs: []int{schema.ParamTA}}
	assert.Equal(t, []int{schema.ParamTA, schema.ParamTAN, schema.ParamTAX}, cfg.PendingParamIDs())

	cfg.ParamIDs = []int{schema.ParamUU}
	assert.Equal(t, []int{schema.ParamUU}, cfg.PendingParamIDs())
}

func TestProcessParametersMissingDependency(t *testing.T) {
	input := validRawInput()
	input.ParameterOverride = "par=263,maxOffset=5,dewPointOf=999"
	err := ProcessAndValidate(&Config{}, input)
	assert.ErrorIs(t, err, ErrInvalidParameter)
}

func TestConfigClone(t *testing.T) {
	cfg := &Config{Stations: []int{1, 2}, Parameters: schema.DefaultParameters()}
	clone := cfg.CloneWithWindow(time.Date(2024, 1, 1, 5, 10, 0, 0, time.UTC), time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC))

	clone.Stations[0] = 99
	clone.Parameters[0].MaxOffset = 1

	assert.Equal(t, 1, cfg.Stations[0])
	assert.NotEqual(t, 1.0, cfg.Parameters[0].MaxOffset)
	assert.Equal(t, 5, clone.Window.Start.Hour())
	assert.Zero(t, clone.Window.Start.Minute())
}

func TestRunParams(t *testing.T) {
	cfg := &Config{
		Window:      schema.NewTimeRange(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)),
		ParamIDs:    []int{211},
		ExtraData:   3,
		NeighborCap: 5,
	}
	params := cfg.RunParams()
	assert.Equal(t, "2024-01-01T00:00:00Z", params["window_start"])
	assert.Equal(t, []int{211}, params["params"])
	assert.Equal(t, 3, params["extra_data"])
}

func TestValidateDatabaseConnectionString(t *testing.T) {
	tests := []struct {
		name        string
		backend     schema.DatabaseBackend
		conn        string
		expectError bool
	}{
		{"sqlite empty", schema.SQLiteBackend, "", false},
		{"none empty", schema.NoneBackend, "", false},
		{"mysql valid", schema.MySQLBackend, "qc:pw@tcp(localhost:3306)/qc", false},
		{"mysql missing tcp", schema.MySQLBackend, "qc:pw@localhost/qc", true},
		{"mysql missing db", schema.MySQLBackend, "qc:pw@tcp(localhost:3306)", true},
		{"postgres valid", schema.PostgreSQLBackend, "host=localhost dbname=qc", false},
		{"postgres missing host", schema.PostgreSQLBackend, "dbname=qc", true},
		{"postgres missing dbname", schema.PostgreSQLBackend, "host=localhost", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDatabaseConnectionString(tt.backend, tt.conn)
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestParseIDList(t *testing.T) {
	ids, err := ParseIDList(" 3,1,,2,3 ")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, ids)

	ids, err = ParseIDList("")
	require.NoError(t, err)
	assert.Empty(t, ids)

	_, err = ParseIDList("1,-2")
	assert.Error(t, err)
}

func TestRevalidateFill(t *testing.T) {
	base := &Config{}
	require.NoError(t, ProcessAndValidate(base, validRawInput()))

	t.Run("keeps values when empty", func(t *testing.T) {
		cfg := base.Clone()
		require.NoError(t, RevalidateFill(cfg, "", "", "", ""))
		assert.Equal(t, base.Window, cfg.Window)
		assert.Empty(t, cfg.Stations)
	})

	t.Run("narrows the window", func(t *testing.T) {
		cfg := base.Clone()
		require.NoError(t, RevalidateFill(cfg, "2024-03-02T06", "", "180, 18700", "262"))
		assert.Equal(t, time.Date(2024, 3, 2, 6, 0, 0, 0, time.UTC), cfg.Window.Start)
		assert.Equal(t, base.Window.End, cfg.Window.End)
		assert.Equal(t, []int{180, 18700}, cfg.Stations)
		assert.Equal(t, []int{262}, cfg.ParamIDs)
	})

	t.Run("rejects a reversed window", func(t *testing.T) {
		cfg := base.Clone()
		err := RevalidateFill(cfg, "2024-03-09T00", "", "", "")
		assert.ErrorContains(t, err, "must be before end time")
	})

	t.Run("rejects unknown params", func(t *testing.T) {
		cfg := base.Clone()
		assert.ErrorIs(t, RevalidateFill(cfg, "", "", "", "999"), ErrInvalidParameter)
		assert.Error(t, RevalidateFill(cfg, "", "", "abc", ""))
	})
}
