// Package internal holds console helpers shared by the commands and the job layer.
package internal

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/huangsam/stationqc/internal/contract"
)

// LogFillHeader prints a concise, 2-line header for a fill run.
func LogFillHeader(cfg *contract.Config) {
	stations := "all"
	if len(cfg.Stations) > 0 {
		stations = joinIDs(cfg.Stations)
	}
	params := joinIDs(cfg.SelectedParamIDs())

	mode := "apply"
	if cfg.DryRun {
		mode = "dry run"
	}

	// Line 1: what is being filled
	if cfg.UseEmojis {
		fmt.Printf("🔎 Stations: %s (Params: %s, %s)\n", stations, params, mode)
	} else {
		fmt.Printf("Stations: %s (Params: %s, %s)\n", stations, params, mode)
	}

	// Line 2: the run window
	if cfg.UseEmojis {
		fmt.Printf("📅 Window: %s → %s\n", cfg.Window.Start.Format(contract.DateTimeFormat), cfg.Window.End.Format(contract.DateTimeFormat))
	} else {
		fmt.Printf("Window: %s -> %s\n", cfg.Window.Start.Format(contract.DateTimeFormat), cfg.Window.End.Format(contract.DateTimeFormat))
	}
}

func joinIDs(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, ",")
}
