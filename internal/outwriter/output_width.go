package outwriter

import (
	"os"

	"github.com/huangsam/stationqc/internal/contract"
	"golang.org/x/term"
)

// getMaxTableRangeWidth calculates the maximum width of the range column in the
// skipped jobs table, based on terminal width.
func getMaxTableRangeWidth(cfg *contract.Config) int {
	var termWidth int

	// Check for absolute width override from flag/env
	if cfg.Width > 0 {
		termWidth = cfg.Width
	}

	if termWidth == 0 { // Not set by override
		detectedWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
		if err != nil || detectedWidth <= 0 {
			termWidth = 80 // Conservative default for narrow terminals and CI
		} else {
			termWidth = detectedWidth
		}
	}

	// Station + Param + Reason with borders/padding
	baseWidth := 45

	available := termWidth - baseWidth
	if available < 20 {
		return 20
	}
	if available > 50 {
		// A full range is two RFC3339 stamps and a separator
		return 50
	}
	return available
}
