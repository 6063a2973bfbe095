// Package core has the fill job layer: planning, series loading, interpolation and write back.
package core

import (
	"context"
	"time"

	"github.com/huangsam/stationqc/internal"
	"github.com/huangsam/stationqc/internal/contract"
	"github.com/huangsam/stationqc/internal/outwriter"
	"github.com/huangsam/stationqc/schema"
)

// ExecuteFill runs a fill over the configured window and prints the results.
// The header is only printed for table output.
// It serves as the main entry point for the 'fill' command.
func ExecuteFill(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	start := time.Now()
	if !shouldSuppressHeader(ctx) && cfg.Output == schema.TextOut {
		internal.LogFillHeader(cfg)
	}
	result, err := GetFillResults(ctx, cfg, mgr)
	if err != nil {
		return err
	}
	duration := time.Since(start)
	return outwriter.NewOutWriter().WriteFills(result, cfg, duration)
}

// ExecuteParams prints the effective parameter table.
func ExecuteParams(cfg *contract.Config) error {
	return outwriter.NewOutWriter().WriteParameters(cfg.Parameters, cfg)
}
