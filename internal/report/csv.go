package report

import (
	"bytes"
	"encoding/csv"
	"time"

	"github.com/grokify/versionrewind/pkg/model"
)

// CSVFormatter formats results as CSV.
type CSVFormatter struct{}

// NewCSVFormatter creates a new CSV formatter.
func NewCSVFormatter() *CSVFormatter {
	return &CSVFormatter{}
}

// FormatResolutionReport formats a resolution report as CSV, one row per
// repository. Failed rows carry the error kind and message.
func (f *CSVFormatter) FormatResolutionReport(report *model.ResolutionReport) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{"Repository", "At", "Status", "Tag", "Commit", "Tagged", "Error"}
	if err := w.Write(header); err != nil {
		return "", err
	}

	for _, r := range report.Results {
		row := []string{
			r.Repo.FullName(),
			r.At.Format(time.RFC3339),
			"resolved",
			r.Tag,
			r.Commit.SHA,
			r.Commit.Timestamp.Format(time.RFC3339),
			"",
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}

	for _, fail := range report.Failures {
		at := ""
		if !fail.At.IsZero() {
			at = fail.At.Format(time.RFC3339)
		}
		row := []string{
			fail.Repo.FullName(),
			at,
			string(fail.Kind),
			"",
			"",
			"",
			fail.Error,
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}

	w.Flush()
	return buf.String(), w.Error()
}

// FormatIndexReport formats an index report as CSV.
func (f *CSVFormatter) FormatIndexReport(report *model.IndexReport) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{"Tag", "Commit", "Timestamp", "Status"}
	if err := w.Write(header); err != nil {
		return "", err
	}

	for _, t := range report.Tags {
		row := []string{t.Name, t.Commit.SHA, t.Commit.Timestamp.Format(time.RFC3339), "indexed"}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}

	for _, s := range report.Skipped {
		row := []string{s.Name, s.SHA, "", string(s.Kind)}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}

	w.Flush()
	return buf.String(), w.Error()
}
