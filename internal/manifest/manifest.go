// Package manifest assembles dependency manifests that pin a project and its
// dependencies to the revisions that were current at one moment.
package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/grokify/versionrewind/pkg/model"
)

// Assembler renders manifest entries into a manifest document.
type Assembler interface {
	// Assemble renders entries in the given order.
	Assemble(entries []model.ManifestEntry) ([]byte, error)

	// Format returns the assembler's format name.
	Format() string
}

// Format names.
const (
	FormatRosinstall = "rosinstall"
	FormatJSON       = "json"
)

// New returns the assembler for a format name.
func New(format string) (Assembler, error) {
	switch format {
	case FormatRosinstall, "yaml", "":
		return RosinstallAssembler{}, nil
	case FormatJSON:
		return JSONAssembler{}, nil
	default:
		return nil, fmt.Errorf("unknown manifest format: %s", format)
	}
}

// RosinstallAssembler writes a rosinstall YAML document: a list of
// "git" entries with local-name, uri and version.
type RosinstallAssembler struct{}

type rosinstallItem struct {
	Git model.ManifestEntry `yaml:"git"`
}

// Format returns "rosinstall".
func (RosinstallAssembler) Format() string { return FormatRosinstall }

// Assemble renders entries as rosinstall YAML.
func (RosinstallAssembler) Assemble(entries []model.ManifestEntry) ([]byte, error) {
	items := make([]rosinstallItem, 0, len(entries))
	for _, e := range entries {
		items = append(items, rosinstallItem{Git: e})
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(items); err != nil {
		return nil, fmt.Errorf("failed to encode rosinstall: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// JSONAssembler writes the entries as an indented JSON array.
type JSONAssembler struct{}

// Format returns "json".
func (JSONAssembler) Format() string { return FormatJSON }

// Assemble renders entries as JSON.
func (JSONAssembler) Assemble(entries []model.ManifestEntry) ([]byte, error) {
	if entries == nil {
		entries = []model.ManifestEntry{}
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
