package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/grokify/versionrewind/pkg/model"
)

// MarkdownFormatter formats results as Markdown.
type MarkdownFormatter struct{}

// NewMarkdownFormatter creates a new Markdown formatter.
func NewMarkdownFormatter() *MarkdownFormatter {
	return &MarkdownFormatter{}
}

// FormatResolutionReport formats a resolution report as Markdown.
func (f *MarkdownFormatter) FormatResolutionReport(report *model.ResolutionReport) (string, error) {
	var sb strings.Builder

	sb.WriteString("# Release Resolution\n\n")
	sb.WriteString(fmt.Sprintf("**Time:** %s\n\n", report.Timestamp.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("**Resolved:** %d | **Failed:** %d\n\n", report.Resolved, report.Failed))

	if len(report.Results) > 0 {
		sb.WriteString("## Releases\n\n")
		sb.WriteString("| Repository | At | Tag | Commit | Tagged |\n")
		sb.WriteString("|------------|----|-----|--------|--------|\n")

		for _, r := range report.Results {
			sb.WriteString(fmt.Sprintf("| [%s](%s) | %s | %s | [`%s`](%s/commit/%s) | %s |\n",
				r.Repo.FullName(),
				r.Repo.HTMLURL(),
				r.At.Format(time.RFC3339),
				r.Tag,
				r.Commit.ShortSHA(),
				r.Repo.HTMLURL(),
				r.Commit.SHA,
				r.Commit.Timestamp.Format(time.RFC3339),
			))
		}
		sb.WriteString("\n")
	}

	if len(report.Failures) > 0 {
		sb.WriteString("## Failures\n\n")
		for _, fail := range report.Failures {
			sb.WriteString(fmt.Sprintf("- **%s** (`%s`): %s\n", fail.Repo.FullName(), fail.Kind, fail.Error))
		}
	}

	return sb.String(), nil
}

// FormatIndexReport formats an index report as Markdown.
func (f *MarkdownFormatter) FormatIndexReport(report *model.IndexReport) (string, error) {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# Tags of %s\n\n", report.Repo.FullName()))
	sb.WriteString(fmt.Sprintf("**Time:** %s\n\n", report.Timestamp.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("**Tags:** %d | **Skipped:** %d\n\n", len(report.Tags), len(report.Skipped)))

	if len(report.Tags) > 0 {
		sb.WriteString("| Tag | Commit | Timestamp |\n")
		sb.WriteString("|-----|--------|-----------|\n")
		for _, t := range report.Tags {
			sb.WriteString(fmt.Sprintf("| [%s](%s/releases/tag/%s) | `%s` | %s |\n",
				t.Name,
				report.Repo.HTMLURL(),
				t.Name,
				t.Commit.ShortSHA(),
				t.Commit.Timestamp.Format(time.RFC3339),
			))
		}
		sb.WriteString("\n")
	}

	if len(report.Skipped) > 0 {
		sb.WriteString("## Skipped Tags\n\n")
		for _, s := range report.Skipped {
			sb.WriteString(fmt.Sprintf("- **%s** (`%s`): %s\n", s.Name, s.Kind, s.Error))
		}
	}

	return sb.String(), nil
}
