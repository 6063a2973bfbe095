package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/huangsam/stationqc/core"
	"github.com/huangsam/stationqc/core/algo"
	"github.com/huangsam/stationqc/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	mgr     contract.StoreManager
}

// seriesPayload is the JSON form of one interpolation job.
type seriesPayload struct {
	Center    []*float64        `json:"center"`
	Model     []*float64        `json:"model"`
	Neighbors []neighborPayload `json:"neighbors"`
	MaxOffset float64           `json:"max_offset"`
}

type neighborPayload struct {
	Slope    float64    `json:"slope"`
	Offset   float64    `json:"offset"`
	Sigma    float64    `json:"sigma"`
	Observed []*float64 `json:"observed"`
}

// interpolateResponse is returned by interpolate_series.
type interpolateResponse struct {
	Interpolations []algo.Interpolation `json:"interpolations"`
	Summary        algo.Summary         `json:"summary"`
}

// seriesContext converts the payload. A null center hour needs interpolation;
// an absent model is all missing.
func (p seriesPayload) seriesContext() (*algo.SeriesContext, error) {
	if len(p.Center) == 0 {
		return nil, errors.New("center must have at least one hour")
	}
	if !(p.MaxOffset > 0) {
		return nil, fmt.Errorf("max_offset must be greater than 0 (received %v)", p.MaxOffset)
	}

	sc := algo.NewSeriesContext(len(p.Center), p.MaxOffset)
	for t, v := range p.Center {
		if v == nil {
			sc.Center[t] = algo.CenterSample{Observed: algo.Missing(), NeedsInterpolation: true}
		} else {
			sc.Center[t] = algo.CenterSample{Observed: algo.Present(*v)}
		}
	}
	if p.Model != nil {
		if len(p.Model) != sc.Duration {
			return nil, fmt.Errorf("model has %d hours, want %d", len(p.Model), sc.Duration)
		}
		sc.Model = samples(p.Model)
	}
	for n, nb := range p.Neighbors {
		if !(nb.Sigma > 0) {
			return nil, fmt.Errorf("neighbor %d: sigma must be greater than 0", n)
		}
		if len(nb.Observed) != sc.Duration {
			return nil, fmt.Errorf("neighbor %d has %d hours, want %d", n, len(nb.Observed), sc.Duration)
		}
		idx := sc.AddNeighbor(algo.Correlation{Slope: nb.Slope, Offset: nb.Offset, Sigma: nb.Sigma})
		sc.Neighbors[idx].Observed = samples(nb.Observed)
	}
	return sc, nil
}

func samples(values []*float64) []algo.Sample {
	out := make([]algo.Sample, len(values))
	for i, v := range values {
		if v != nil {
			out[i] = algo.Present(*v)
		}
	}
	return out
}

func (h *toolHandler) handleInterpolateSeries(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var payload seriesPayload
	if err := json.Unmarshal([]byte(request.GetString("series", "")), &payload); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid series payload: %v", err)), nil
	}
	sc, err := payload.seriesContext()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid series payload: %v", err)), nil
	}

	opts := algo.DefaultOptions()
	opts.AkimaFirst = request.GetBool("akima_first", h.baseCfg.AkimaFirst)
	opts.ExtraData = request.GetInt("extra_data", opts.ExtraData)
	opts.NeighborCap = request.GetInt("neighbor_cap", opts.NeighborCap)
	engine, err := algo.NewEngine(opts)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	out, err := engine.Run(sc)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("interpolation failed: %v", err)), nil
	}

	jsonData, _ := json.MarshalIndent(interpolateResponse{Interpolations: out, Summary: algo.Summarize(out)}, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleFillGaps(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	err := contract.RevalidateFill(cfg,
		request.GetString("start", ""),
		request.GetString("end", ""),
		request.GetString("station", ""),
		request.GetString("param", ""),
	)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid fill parameters: %v", err)), nil
	}
	cfg.DryRun = request.GetBool("dry_run", true)

	result, err := core.GetFillResults(core.WithSuppressHeader(ctx), cfg, h.mgr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("fill failed: %v", err)), nil
	}

	jsonData, _ := json.MarshalIndent(result, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleGetRunStatus(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	runs := h.mgr.GetRunStore()
	if runs == nil {
		return mcp.NewToolResultError("run tracking is disabled. Configure --runs-backend to enable it"), nil
	}
	status, err := runs.GetStatus()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to get run status: %v", err)), nil
	}

	jsonData, _ := json.MarshalIndent(status, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}
