// Package outwriter has output and writer logic.
package outwriter

import (
	"time"

	"github.com/huangsam/stationqc/internal/contract"
	"github.com/huangsam/stationqc/schema"
)

// OutWriter provides a unified interface for all output operations.
// It encapsulates the various output formats and provides a clean API for the core logic.
type OutWriter struct{}

// NewOutWriter creates a new instance of the output writer.
func NewOutWriter() *OutWriter {
	return &OutWriter{}
}

// WriteFills prints fill results using the configured output format.
func (ow *OutWriter) WriteFills(result *schema.FillResult, cfg *contract.Config, duration time.Duration) error {
	return PrintFillResults(result, cfg, duration)
}

// WriteParameters prints the effective parameter table using the configured output format.
func (ow *OutWriter) WriteParameters(params []schema.ParameterInfo, cfg *contract.Config) error {
	return PrintParameters(params, cfg)
}
