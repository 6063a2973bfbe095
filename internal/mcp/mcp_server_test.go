package mcp_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/huangsam/stationqc/internal/contract"
	"github.com/huangsam/stationqc/internal/iostore"
	mcp_internal "github.com/huangsam/stationqc/internal/mcp"
	"github.com/huangsam/stationqc/schema"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseConfig() *contract.Config {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	return &contract.Config{
		Window:      schema.NewTimeRange(start, start.Add(11*time.Hour)),
		Parameters:  schema.DefaultParameters(),
		ExtraData:   3,
		NeighborCap: 5,
		GapLink:     3,
		EdgeHours:   2,
		RAThreshold: 50,
		Workers:     2,
		Precision:   2,
		Output:      schema.JSONOut,
	}
}

func callTool(t *testing.T, s *server.MCPServer, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	tool := s.GetTool(name)
	require.NotNil(t, tool, "Tool %s should exist", name)

	res, err := tool.Handler(context.Background(), mcp.CallToolRequest{
		Params: mcp.CallToolParams{Name: name, Arguments: args},
	})
	require.NoError(t, err, "The MCP handler should not return a raw error for tool logic failures")
	require.NotEmpty(t, res.Content)
	return res
}

func resultText(res *mcp.CallToolResult) string {
	return res.Content[0].(mcp.TextContent).Text
}

func TestMCPServerHandlers_ValidationErrors(t *testing.T) {
	// The store manager is never reached because every request is invalid
	s := mcp_internal.NewMCPServer(baseConfig(), iostore.NewStoreManager(nil, nil))

	tests := []struct {
		name string
		tool string
		args map[string]any
		want string
	}{
		{"interpolate_series bad json", "interpolate_series", map[string]any{"series": "{"}, "invalid series payload"},
		{"interpolate_series empty center", "interpolate_series", map[string]any{"series": `{"center": [], "max_offset": 5}`}, "center must have at least one hour"},
		{"interpolate_series missing max_offset", "interpolate_series", map[string]any{"series": `{"center": [1, null, 3]}`}, "max_offset must be greater than 0"},
		{"interpolate_series short model", "interpolate_series", map[string]any{"series": `{"center": [1, null, 3], "model": [1], "max_offset": 5}`}, "model has 1 hours"},
		{"interpolate_series bad sigma", "interpolate_series", map[string]any{"series": `{"center": [1, null, 3], "max_offset": 5, "neighbors": [{"slope": 1, "sigma": 0, "observed": [1, 2, 3]}]}`}, "sigma must be greater than 0"},
		{"interpolate_series bad extra_data", "interpolate_series", map[string]any{"series": `{"center": [1, null, 3], "max_offset": 5}`, "extra_data": 0.0}, "extra data must be at least 1"},
		{"fill_gaps reversed window", "fill_gaps", map[string]any{"start": "2025-06-02T00"}, "must be before end time"},
		{"fill_gaps unknown param", "fill_gaps", map[string]any{"param": "999"}, "par 999 is not configured"},
		{"fill_gaps bad station", "fill_gaps", map[string]any{"station": "north"}, "invalid station value"},
		{"fill_gaps no store", "fill_gaps", map[string]any{}, "series store is not configured"},
		{"get_run_status disabled", "get_run_status", map[string]any{}, "run tracking is disabled"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := callTool(t, s, tt.tool, tt.args)
			assert.True(t, res.IsError, "The response should indicate an error state")
			assert.Contains(t, resultText(res), tt.want)
		})
	}
}

func TestMCPServerHandlers_InterpolateSeries(t *testing.T) {
	s := mcp_internal.NewMCPServer(baseConfig(), iostore.NewStoreManager(nil, nil))

	res := callTool(t, s, "interpolate_series", map[string]any{
		"series": `{"center": [1, 2, 3, 4, null, 6, 7, 8, 9], "max_offset": 5}`,
	})
	require.False(t, res.IsError, resultText(res))

	var body struct {
		Interpolations []struct {
			Value   float64 `json:"value"`
			Quality string  `json:"quality"`
			Source  string  `json:"source"`
		} `json:"interpolations"`
		Summary struct {
			Good int `json:"good"`
		} `json:"summary"`
	}
	require.NoError(t, json.Unmarshal([]byte(resultText(res)), &body))
	require.Len(t, body.Interpolations, 9)
	assert.Equal(t, "GOOD", body.Interpolations[4].Quality)
	assert.Equal(t, "spline", body.Interpolations[4].Source)
	assert.InDelta(t, 5, body.Interpolations[4].Value, 1e-9)
	assert.Equal(t, "OBSERVATION", body.Interpolations[3].Quality)
	assert.Equal(t, 1, body.Summary.Good)
}

func TestMCPServerHandlers_FillGapsAndRunStatus(t *testing.T) {
	series, err := iostore.NewSeriesStore(schema.SQLiteBackend, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = series.Close() })
	runs, err := iostore.NewRunStore(schema.SQLiteBackend, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = runs.Close() })

	cfg := baseConfig()
	var rows []schema.Observation
	for h := range 12 {
		o := schema.Observation{StationID: 180, ParamID: schema.ParamTA, ObsTime: cfg.Window.At(h), Original: float64(h), Corrected: float64(h), Status: schema.StatusOK}
		if h == 6 {
			o.Status = schema.StatusMissing
		}
		rows = append(rows, o)
	}
	require.NoError(t, series.PutObservations(context.Background(), rows))

	s := mcp_internal.NewMCPServer(cfg, iostore.NewStoreManager(series, runs))

	res := callTool(t, s, "fill_gaps", map[string]any{"station": "180", "param": "211"})
	require.False(t, res.IsError, resultText(res))
	var result schema.FillResult
	require.NoError(t, json.Unmarshal([]byte(resultText(res)), &result))
	assert.True(t, result.DryRun)
	require.Len(t, result.Fills, 1)
	assert.Equal(t, "GOOD", result.Fills[0].Quality)

	res = callTool(t, s, "fill_gaps", map[string]any{"dry_run": false})
	require.False(t, res.IsError, resultText(res))

	res = callTool(t, s, "get_run_status", map[string]any{})
	require.False(t, res.IsError, resultText(res))
	var status schema.RunStatus
	require.NoError(t, json.Unmarshal([]byte(resultText(res)), &status))
	assert.Equal(t, 1, status.TotalRuns)
	assert.Equal(t, int64(1), status.TotalFills)
}
