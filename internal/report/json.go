package report

import (
	"encoding/json"

	"github.com/grokify/versionrewind/pkg/model"
)

// JSONFormatter formats results as JSON.
type JSONFormatter struct {
	Indent bool
}

// NewJSONFormatter creates a new JSON formatter.
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{Indent: true}
}

// FormatResolutionReport formats a resolution report as JSON.
func (f *JSONFormatter) FormatResolutionReport(report *model.ResolutionReport) (string, error) {
	return f.marshal(report)
}

// FormatIndexReport formats an index report as JSON.
func (f *JSONFormatter) FormatIndexReport(report *model.IndexReport) (string, error) {
	return f.marshal(report)
}

func (f *JSONFormatter) marshal(v any) (string, error) {
	var data []byte
	var err error

	if f.Indent {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = json.Marshal(v)
	}

	if err != nil {
		return "", err
	}

	return string(data), nil
}
