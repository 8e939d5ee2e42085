package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/huangsam/ecgscope/schema"
)

// Result label constants.
const (
	CompleteValue = "Complete" // Complete value
	PartialValue  = "Partial"  // Partial value
	NoDataValue   = "No data"  // No data value
	FailedValue   = "Failed"   // Failed value
)

// Color variables for console output.
var (
	CompleteColor = color.New(color.FgGreen)              // completeColor represents a full recording.
	PartialColor  = color.New(color.FgYellow, color.Bold) // partialColor represents a stream that failed midway.
	NoDataColor   = color.New(color.FgRed, color.Bold)    // noDataColor represents a run that produced nothing.
)

// GetColorLabel returns a colored text label for console output (table).
// It uses schema.GetPlainLabel to determine the string, and then applies the appropriate color.
func GetColorLabel(r schema.PipelineResult) string {
	text := schema.GetPlainLabel(r)

	switch text {
	case CompleteValue:
		return CompleteColor.Sprint(text)
	case PartialValue:
		return PartialColor.Sprint(text)
	default:
		return NoDataColor.Sprint(text)
	}
}

// GetOutcomeLabel returns the label for a preview outcome, optionally colored.
// Failed runs are labeled as failed regardless of their result.
func GetOutcomeLabel(o schema.RunOutcome, colored bool) string {
	if o.Failed() {
		if colored {
			return NoDataColor.Sprint(FailedValue)
		}
		return FailedValue
	}
	if colored {
		return GetColorLabel(o.Result)
	}
	return schema.GetPlainLabel(o.Result)
}

// SelectOutputFile returns the appropriate file handle for output, based on the provided
// file path. It falls back to os.Stdout when no path is given.
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

// GetPreviewDBFilePath returns the path to the SQLite DB file for preview storage.
func GetPreviewDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".ecgscope_previews.db"
	}
	return filepath.Join(homeDir, ".ecgscope_previews.db")
}

// GetRunDBFilePath returns the path to the SQLite DB file for run storage.
func GetRunDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".ecgscope_runs.db"
	}
	return filepath.Join(homeDir, ".ecgscope_runs.db")
}

// TruncateID truncates a recording ID to a maximum width with ellipsis suffix.
// Requires maxWidth > 3 so there is room for the ellipsis and at least one character.
func TruncateID(id string, maxWidth int) string {
	runes := []rune(id)
	if len(runes) > maxWidth && maxWidth > 3 {
		return string(runes[:maxWidth-3]) + "..."
	}
	return id
}

// ParseBoolString parses a string value into a boolean.
// Accepts "yes", "no", "true", "false", "1", "0" (case-insensitive).
// Returns an error for invalid values.
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s (expected yes/no/true/false/1/0)", s)
	}
}
