package contract

import (
	"cmp"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/huangsam/stationqc/schema"
)

// Default values for configuration.
const (
	DefaultLookbackDays = 7
	DefaultExtraData    = 3
	DefaultNeighborCap  = 5
	DefaultGapLink      = 3
	DefaultEdgeHours    = 2
	DefaultRAThreshold  = 50.0
	DefaultPrecision    = 2
	MaxPrecision        = 4
)

// DefaultWorkers is the default number of concurrent workers to use.
var DefaultWorkers = runtime.GOMAXPROCS(0)

// DateTimeFormat is the default date time representation.
var DateTimeFormat = time.RFC3339

// HourFormat is the short form accepted for whole hours.
const HourFormat = "2006-01-02T15"

// ProfileConfig holds profiling settings.
type ProfileConfig struct {
	Enabled bool
	Prefix  string
}

// Config holds the runtime configuration for a fill run.
// This struct remains the "final, validated" config.
type Config struct {
	Window     schema.TimeRange
	Stations   []int
	ParamIDs   []int
	Parameters []schema.ParameterInfo

	AkimaFirst  bool
	ExtraData   int
	NeighborCap int
	GapLink     int
	EdgeHours   int
	RAThreshold float64

	Workers    int
	DryRun     bool
	Precision  int
	Output     schema.OutputMode
	OutputFile string
	Width      int // Terminal width override (0 = auto-detect)

	StoreBackend   schema.DatabaseBackend
	StoreDBConnect string // Please use env var as this is plaintext

	RunsBackend   schema.DatabaseBackend
	RunsDBConnect string // Please use env var as this is plaintext

	UseEmojis bool // Enable emojis in output headers
	UseColors bool // Enable colored labels in table output
}

// ParameterRawInput holds one parameter definition from the YAML config file.
type ParameterRawInput struct {
	ID          int      `mapstructure:"par"`
	Name        string   `mapstructure:"name"`
	MinVal      *float64 `mapstructure:"min_val"`
	MaxVal      *float64 `mapstructure:"max_val"`
	MaxOffset   *float64 `mapstructure:"max_offset"`
	MaxSigma    *float64 `mapstructure:"max_sigma"`
	Accumulated *bool    `mapstructure:"accumulated"`
	DewPointOf  *int     `mapstructure:"dew_point_of"`
	MinParam    *int     `mapstructure:"min_par"`
	MaxParam    *int     `mapstructure:"max_par"`
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// --- Fields from rootCmd.PersistentFlags() ---
	Start         string `mapstructure:"start"`
	End           string `mapstructure:"end"`
	Station       string `mapstructure:"station"`
	Param         string `mapstructure:"param"`
	Workers       int    `mapstructure:"workers"`
	Precision     int    `mapstructure:"precision"`
	Output        string `mapstructure:"output"`
	OutputFile    string `mapstructure:"output-file"`
	Width         int    `mapstructure:"width"`
	StoreBackend  string `mapstructure:"store-backend"`
	StoreConnect  string `mapstructure:"store-db-connect"`
	RunsBackend   string `mapstructure:"runs-backend"`
	RunsDBConnect string `mapstructure:"runs-db-connect"`
	Emoji         string `mapstructure:"emoji"`
	Color         string `mapstructure:"color"`

	ParameterOverride string `mapstructure:"parameter-override"`

	// --- Fields from fillCmd.Flags() ---
	AkimaFirst  bool    `mapstructure:"akima-first"`
	ExtraData   int     `mapstructure:"extra-data"`
	NeighborCap int     `mapstructure:"neighbor-cap"`
	GapLink     int     `mapstructure:"gap-link"`
	EdgeHours   int     `mapstructure:"edge-hours"`
	RAThreshold float64 `mapstructure:"ra-threshold"`
	DryRun      bool    `mapstructure:"dry-run"`

	// --- Parameter table from config file ---
	Parameters []ParameterRawInput `mapstructure:"parameters"`
}

// Clone returns a deep copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	clone.Stations = slices.Clone(c.Stations)
	clone.ParamIDs = slices.Clone(c.ParamIDs)
	clone.Parameters = slices.Clone(c.Parameters)
	return &clone
}

// CloneWithWindow creates a copy of the Config with a new run window.
func (c *Config) CloneWithWindow(start, end time.Time) *Config {
	clone := c.Clone()
	clone.Window = schema.NewTimeRange(start, end)
	return clone
}

// Parameter returns the configured info for a parameter id.
func (c *Config) Parameter(id int) (schema.ParameterInfo, bool) {
	for _, pi := range c.Parameters {
		if pi.ID == id {
			return pi, true
		}
	}
	return schema.ParameterInfo{}, false
}

// SelectedParamIDs returns the parameters a run works on: the --param filter
// when set, otherwise every configured parameter.
func (c *Config) SelectedParamIDs() []int {
	if len(c.ParamIDs) > 0 {
		return slices.Clone(c.ParamIDs)
	}
	ids := make([]int, 0, len(c.Parameters))
	for _, pi := range c.Parameters {
		ids = append(ids, pi.ID)
	}
	return ids
}

// ExtremeOwner returns the parameter whose hourly minimum or maximum is recorded as id.
func (c *Config) ExtremeOwner(id int) (schema.ParameterInfo, bool) {
	for _, pi := range c.Parameters {
		if pi.MinParam == id || pi.MaxParam == id {
			return pi, true
		}
	}
	return schema.ParameterInfo{}, false
}

// PendingParamIDs returns the selected parameters together with their extreme
// parameters, sorted and without duplicates.
func (c *Config) PendingParamIDs() []int {
	ids := c.SelectedParamIDs()
	for _, id := range slices.Clone(ids) {
		pi, ok := c.Parameter(id)
		if !ok {
			continue
		}
		for _, extreme := range []int{pi.MinParam, pi.MaxParam} {
			if extreme > 0 {
				ids = append(ids, extreme)
			}
		}
	}
	slices.Sort(ids)
	return slices.Compact(ids)
}

// RunParams returns the settings recorded alongside a run.
func (c *Config) RunParams() map[string]any {
	return map[string]any{
		"window_start": c.Window.Start.Format(DateTimeFormat),
		"window_end":   c.Window.End.Format(DateTimeFormat),
		"stations":     c.Stations,
		"params":       c.SelectedParamIDs(),
		"akima_first":  c.AkimaFirst,
		"extra_data":   c.ExtraData,
		"neighbor_cap": c.NeighborCap,
		"gap_link":     c.GapLink,
		"edge_hours":   c.EdgeHours,
		"ra_threshold": c.RAThreshold,
		"dry_run":      c.DryRun,
		"workers":      c.Workers,
	}
}

// ProcessAndValidate performs all complex parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := validateEngineInputs(cfg, input); err != nil {
		return err
	}
	if err := processTimeRange(cfg, input); err != nil {
		return err
	}
	if err := processSelection(cfg, input); err != nil {
		return err
	}
	if err := processParameters(cfg, input); err != nil {
		return err
	}
	return nil
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// validateBackendConfigs validates series and run store backend configurations.
func validateBackendConfigs(cfg *Config, input *ConfigRawInput) error {
	// --- Series Store Validation ---
	cfg.StoreBackend = schema.DatabaseBackend(strings.ToLower(input.StoreBackend))
	if _, ok := schema.ValidDatabaseBackends[cfg.StoreBackend]; !ok {
		return fmt.Errorf("invalid store backend '%s'. must be sqlite, mysql, postgresql, none", input.StoreBackend)
	}
	cfg.StoreDBConnect = input.StoreConnect
	if err := ValidateDatabaseConnectionString(cfg.StoreBackend, cfg.StoreDBConnect); err != nil {
		return err
	}

	// --- Run Store Validation ---
	cfg.RunsBackend = schema.DatabaseBackend(strings.ToLower(input.RunsBackend))
	if cfg.RunsBackend == "" {
		return nil
	}
	if _, ok := schema.ValidDatabaseBackends[cfg.RunsBackend]; !ok {
		return fmt.Errorf("invalid runs backend '%s'. must be sqlite, mysql, postgresql, none", input.RunsBackend)
	}
	cfg.RunsDBConnect = input.RunsDBConnect
	if err := ValidateDatabaseConnectionString(cfg.RunsBackend, cfg.RunsDBConnect); err != nil {
		return err
	}

	// Both stores may share a server database, but two SQLite stores need separate files
	if cfg.StoreBackend == schema.SQLiteBackend && cfg.RunsBackend == schema.SQLiteBackend {
		storePath := cmp.Or(cfg.StoreDBConnect, GetStoreDBFilePath())
		runsPath := cmp.Or(cfg.RunsDBConnect, GetRunsDBFilePath())
		if storePath == runsPath && storePath != ":memory:" {
			return fmt.Errorf("series and run storage must use different SQLite database files. Both resolve to %q", storePath)
		}
	}
	return nil
}

// validateSimpleInputs processes and validates output and runtime fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	cfg.OutputFile = input.OutputFile
	cfg.Width = input.Width
	cfg.DryRun = input.DryRun

	emojis, err := ParseBoolString(input.Emoji)
	if err != nil {
		return fmt.Errorf("invalid --emoji value: %w", err)
	}
	cfg.UseEmojis = emojis

	colors, err := ParseBoolString(input.Color)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	if input.Workers <= 0 {
		return fmt.Errorf("workers must be greater than 0 (received %d)", input.Workers)
	}
	cfg.Workers = input.Workers

	if input.Precision < 1 || input.Precision > MaxPrecision {
		return fmt.Errorf("precision must be between 1 and %d (received %d)", MaxPrecision, input.Precision)
	}
	cfg.Precision = input.Precision

	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, csv, json, parquet", input.Output)
	}
	if cfg.Output == schema.ParquetOut && cfg.OutputFile == "" {
		return fmt.Errorf("parquet output requires --output-file")
	}

	return validateBackendConfigs(cfg, input)
}

// validateEngineInputs transfers the interpolation and planning knobs.
func validateEngineInputs(cfg *Config, input *ConfigRawInput) error {
	cfg.AkimaFirst = input.AkimaFirst

	if input.ExtraData < 1 {
		return fmt.Errorf("extra-data must be at least 1 (received %d)", input.ExtraData)
	}
	cfg.ExtraData = input.ExtraData

	if input.NeighborCap < 1 {
		return fmt.Errorf("neighbor-cap must be at least 1 (received %d)", input.NeighborCap)
	}
	cfg.NeighborCap = input.NeighborCap

	if input.GapLink < 1 {
		return fmt.Errorf("gap-link must be at least 1 (received %d)", input.GapLink)
	}
	cfg.GapLink = input.GapLink

	if input.EdgeHours < 0 {
		return fmt.Errorf("edge-hours cannot be negative (received %d)", input.EdgeHours)
	}
	cfg.EdgeHours = input.EdgeHours

	if input.RAThreshold <= 0 {
		return fmt.Errorf("ra-threshold must be greater than 0 (received %g)", input.RAThreshold)
	}
	cfg.RAThreshold = input.RAThreshold
	return nil
}

// processTimeRange parses the run window and aligns it to whole hours.
func processTimeRange(cfg *Config, input *ConfigRawInput) error {
	now := time.Now().UTC()
	end := now
	if input.End != "" {
		t, err := ParseTime(input.End, now)
		if err != nil {
			return fmt.Errorf("invalid end date '%s': %w", input.End, err)
		}
		end = t
	}

	start := end.Add(-DefaultLookbackDays * 24 * time.Hour)
	if input.Start != "" {
		t, err := ParseTime(input.Start, now)
		if err != nil {
			return fmt.Errorf("invalid start date '%s': %w", input.Start, err)
		}
		start = t
	}

	cfg.Window = schema.NewTimeRange(start, end)
	if !cfg.Window.Start.Before(cfg.Window.End) {
		return fmt.Errorf("start time (%s) must be before end time (%s)",
			cfg.Window.Start.Format(DateTimeFormat), cfg.Window.End.Format(DateTimeFormat))
	}
	return nil
}

// processSelection parses the station and parameter filters.
func processSelection(cfg *Config, input *ConfigRawInput) error {
	stations, err := ParseIDList(input.Station)
	if err != nil {
		return fmt.Errorf("invalid --station value: %w", err)
	}
	cfg.Stations = stations

	params, err := ParseIDList(input.Param)
	if err != nil {
		return fmt.Errorf("invalid --param value: %w", err)
	}
	cfg.ParamIDs = params
	return nil
}

// processParameters layers the config file table and the override string on the defaults.
func processParameters(cfg *Config, input *ConfigRawInput) error {
	params := schema.DefaultParameters()

	for _, raw := range input.Parameters {
		idx := slices.IndexFunc(params, func(pi schema.ParameterInfo) bool { return pi.ID == raw.ID })
		if idx < 0 {
			params = append(params, schema.ParameterInfo{ID: raw.ID, Name: defaultParameterName(raw.ID)})
			idx = len(params) - 1
		}
		mergeParameterRawInput(&params[idx], raw)
	}

	overrides, err := ParseParameterOverrides(input.ParameterOverride)
	if err != nil {
		return fmt.Errorf("invalid --parameter-override value: %w", err)
	}
	for _, pi := range overrides {
		idx := slices.IndexFunc(params, func(p schema.ParameterInfo) bool { return p.ID == pi.ID })
		if idx < 0 {
			params = append(params, pi)
		} else {
			params[idx] = pi
		}
	}

	for _, pi := range params {
		if err := ValidateParameterInfo(pi); err != nil {
			return err
		}
		if ta, ok := pi.DependsOn(); ok && !slices.ContainsFunc(params, func(p schema.ParameterInfo) bool { return p.ID == ta }) {
			return fmt.Errorf("%w: par %d depends on unconfigured par %d", ErrInvalidParameter, pi.ID, ta)
		}
	}
	for _, id := range cfg.ParamIDs {
		if !slices.ContainsFunc(params, func(p schema.ParameterInfo) bool { return p.ID == id }) {
			return fmt.Errorf("%w: par %d is not configured", ErrInvalidParameter, id)
		}
	}

	slices.SortFunc(params, func(a, b schema.ParameterInfo) int { return cmp.Compare(a.ID, b.ID) })
	cfg.Parameters = params
	return nil
}

func mergeParameterRawInput(pi *schema.ParameterInfo, raw ParameterRawInput) {
	if raw.Name != "" {
		pi.Name = raw.Name
	}
	if raw.MinVal != nil {
		pi.MinValue = raw.MinVal
	}
	if raw.MaxVal != nil {
		pi.MaxValue = raw.MaxVal
	}
	if raw.MaxOffset != nil {
		pi.MaxOffset = *raw.MaxOffset
	}
	if raw.MaxSigma != nil {
		pi.MaxSigma = *raw.MaxSigma
	}
	if raw.Accumulated != nil {
		pi.Accumulated = *raw.Accumulated
	}
	if raw.DewPointOf != nil {
		pi.DewPointOf = *raw.DewPointOf
	}
	if raw.MinParam != nil {
		pi.MinParam = *raw.MinParam
	}
	if raw.MaxParam != nil {
		pi.MaxParam = *raw.MaxParam
	}
}

// RevalidateFill applies the window and selection of a single request onto cfg.
// Empty arguments keep the values already in cfg.
func RevalidateFill(cfg *Config, start, end, station, param string) error {
	if start != "" || end != "" {
		input := &ConfigRawInput{Start: start, End: end}
		if input.Start == "" {
			input.Start = cfg.Window.Start.Format(DateTimeFormat)
		}
		if input.End == "" {
			input.End = cfg.Window.End.Format(DateTimeFormat)
		}
		if err := processTimeRange(cfg, input); err != nil {
			return err
		}
	}

	if station != "" {
		stations, err := ParseIDList(station)
		if err != nil {
			return fmt.Errorf("invalid station value: %w", err)
		}
		cfg.Stations = stations
	}
	if param != "" {
		params, err := ParseIDList(param)
		if err != nil {
			return fmt.Errorf("invalid param value: %w", err)
		}
		for _, id := range params {
			if _, ok := cfg.Parameter(id); !ok {
				return fmt.Errorf("%w: par %d is not configured", ErrInvalidParameter, id)
			}
		}
		cfg.ParamIDs = params
	}
	return nil
}

// ProcessProfilingConfig enables profiling when a file prefix is given.
func ProcessProfilingConfig(profile *ProfileConfig, profilePrefix string) error {
	if profilePrefix != "" {
		profile.Enabled = true
		profile.Prefix = profilePrefix
	}
	return nil
}

// ParseIDList parses a comma-separated list of positive ids, sorted and without duplicates.
func ParseIDList(s string) ([]int, error) {
	var ids []int
	for part := range strings.SplitSeq(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.Atoi(part)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("%q is not a positive id", part)
		}
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return slices.Compact(ids), nil
}

// GetStoreDBFilePath returns the path to the SQLite DB file for the series store.
func GetStoreDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".stationqc_series.db"
	}
	return filepath.Join(homeDir, ".stationqc_series.db")
}

// GetRunsDBFilePath returns the path to the SQLite DB file for run tracking.
func GetRunsDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".stationqc_runs.db"
	}
	return filepath.Join(homeDir, ".stationqc_runs.db")
}
