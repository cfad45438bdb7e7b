package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/grokify/versionrewind/pkg/model"
)

// TableFormatter formats results as text tables.
type TableFormatter struct{}

// NewTableFormatter creates a new table formatter.
func NewTableFormatter() *TableFormatter {
	return &TableFormatter{}
}

// FormatResolutionReport formats a resolution report as a text table.
func (f *TableFormatter) FormatResolutionReport(report *model.ResolutionReport) (string, error) {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Release Resolution (%s)\n", report.Timestamp.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Resolved: %d | Failed: %d\n", report.Resolved, report.Failed))
	sb.WriteString(strings.Repeat("-", 100) + "\n")

	if len(report.Results) > 0 {
		sb.WriteString(fmt.Sprintf("%-35s %-20s %-25s %-8s %-20s\n",
			"REPOSITORY", "AT", "TAG", "COMMIT", "TAGGED"))
		sb.WriteString(strings.Repeat("-", 100) + "\n")

		for _, r := range report.Results {
			sb.WriteString(fmt.Sprintf("%-35s %-20s %-25s %-8s %-20s\n",
				truncate(r.Repo.FullName(), 35),
				r.At.Format(time.RFC3339),
				truncate(r.Tag, 25),
				r.Commit.ShortSHA(),
				r.Commit.Timestamp.Format(time.RFC3339),
			))
		}
	}

	if len(report.Failures) > 0 {
		sb.WriteString("\nFailed:\n")
		for _, fail := range report.Failures {
			sb.WriteString(fmt.Sprintf("  ❌ %s [%s]: %s\n", fail.Repo.FullName(), fail.Kind, fail.Error))
		}
	}

	return sb.String(), nil
}

// FormatIndexReport formats an index report as a text table, oldest first.
func (f *TableFormatter) FormatIndexReport(report *model.IndexReport) (string, error) {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Tags of %s (%s)\n", report.Repo.FullName(), report.Timestamp.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Tags: %d | Skipped: %d\n", len(report.Tags), len(report.Skipped)))
	sb.WriteString(strings.Repeat("-", 80) + "\n")

	if len(report.Tags) == 0 {
		sb.WriteString("No tags found.\n")
	} else {
		sb.WriteString(fmt.Sprintf("%-40s %-8s %-20s\n", "TAG", "COMMIT", "TIMESTAMP"))
		sb.WriteString(strings.Repeat("-", 80) + "\n")
		for _, t := range report.Tags {
			sb.WriteString(fmt.Sprintf("%-40s %-8s %-20s\n",
				truncate(t.Name, 40),
				t.Commit.ShortSHA(),
				t.Commit.Timestamp.Format(time.RFC3339),
			))
		}
	}

	if len(report.Skipped) > 0 {
		sb.WriteString("\nSkipped:\n")
		for _, s := range report.Skipped {
			sb.WriteString(fmt.Sprintf("  ⏭️  %s [%s]: %s\n", s.Name, s.Kind, s.Error))
		}
	}

	return sb.String(), nil
}
