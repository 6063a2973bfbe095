package contract

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
)

// Quality label constants, matching the text form of algo.Quality.
const (
	ObservationValue = "OBSERVATION"
	GoodValue        = "GOOD"
	BadValue         = "BAD"
	FailedValue      = "FAILED"
)

// Color variables for console output.
var (
	ObservationColor = color.New(color.FgCyan)            // trusted input passed through
	GoodColor        = color.New(color.FgGreen)           // fill next to an anchor
	BadColor         = color.New(color.FgYellow)          // fill deeper inside a gap
	FailedColor      = color.New(color.FgRed, color.Bold) // no candidate survived
)

// GetColorLabel returns a colored quality label for console output (table).
// Unknown labels are returned unchanged.
func GetColorLabel(quality string) string {
	switch quality {
	case ObservationValue:
		return ObservationColor.Sprint(quality)
	case GoodValue:
		return GoodColor.Sprint(quality)
	case BadValue:
		return BadColor.Sprint(quality)
	case FailedValue:
		return FailedColor.Sprint(quality)
	default:
		return quality
	}
}

// SelectOutputFile returns the appropriate file handle for output, based on the provided
// file path. An empty path selects os.Stdout.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}

// LogFatal logs an error and exits the program.
func LogFatal(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Fatal %s: %v\n", msg, err)
	os.Exit(1)
}

// LogWarn logs a warning message to stderr.
func LogWarn(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Warn %s: %v\n", msg, err)
}

// TruncateText shortens s to maxWidth runes with an ellipsis suffix.
func TruncateText(s string, maxWidth int) string {
	runes := []rune(s)
	if len(runes) > maxWidth && maxWidth > 3 {
		return string(runes[:maxWidth-3]) + "..."
	}
	return s
}

// ParseBoolString parses a string value into a boolean.
// Accepts "yes", "no", "true", "false", "1", "0" (case-insensitive).
// Returns an error for invalid values.
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s (expected yes/no/true/false/1/0)", s)
	}
}
