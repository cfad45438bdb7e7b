// Package report formats resolution results and tag indexes for output.
package report

import (
	"fmt"

	"github.com/grokify/versionrewind/pkg/model"
)

// Formatter defines the interface for formatting results.
type Formatter interface {
	// FormatResolutionReport formats the releases resolved for one or more
	// repositories.
	FormatResolutionReport(report *model.ResolutionReport) (string, error)

	// FormatIndexReport formats the chronological tag index of a repository.
	FormatIndexReport(report *model.IndexReport) (string, error)
}

// Output formats.
const (
	FormatTable    = "table"
	FormatJSON     = "json"
	FormatMarkdown = "markdown"
	FormatCSV      = "csv"
)

// New returns the formatter for a format name. The empty name selects the
// table formatter.
func New(format string) (Formatter, error) {
	switch format {
	case FormatTable, "":
		return NewTableFormatter(), nil
	case FormatJSON:
		return NewJSONFormatter(), nil
	case FormatMarkdown, "md":
		return NewMarkdownFormatter(), nil
	case FormatCSV:
		return NewCSVFormatter(), nil
	default:
		return nil, fmt.Errorf("unknown output format: %s", format)
	}
}

// truncate shortens a string to maxLen, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
