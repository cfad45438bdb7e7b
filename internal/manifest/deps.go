package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/grokify/versionrewind/pkg/model"
)

// Dependency names a repository to pin in the manifest.
type Dependency struct {
	// Name is the manifest local-name. Defaults to the repository name.
	Name string `yaml:"name,omitempty" toml:"name"`

	// Repo is "owner/name" or a GitHub URL.
	Repo string `yaml:"repo" toml:"repo"`
}

// RepoRef parses the dependency's repository.
func (d Dependency) RepoRef() (model.RepoRef, error) {
	return model.ParseRepoRef(d.Repo)
}

// LocalName returns the manifest local-name of the dependency.
func (d Dependency) LocalName(repo model.RepoRef) string {
	if d.Name != "" {
		return d.Name
	}
	return repo.Name
}

// DependencyFile is the on-disk list of dependencies.
//
// YAML:
//
//	dependencies:
//	  - repo: ros/catkin
//	  - name: genmsg
//	    repo: https://github.com/ros/genmsg.git
//
// TOML:
//
//	[[dependencies]]
//	repo = "ros/catkin"
type DependencyFile struct {
	Dependencies []Dependency `yaml:"dependencies" toml:"dependencies"`
}

// LoadDependencies reads a dependency file. Files ending in .toml are
// parsed as TOML, anything else as YAML.
func LoadDependencies(path string) ([]Dependency, error) {
	cleanPath := filepath.Clean(path)
	data, err := os.ReadFile(cleanPath) // #nosec G304
	if err != nil {
		return nil, fmt.Errorf("failed to read dependency file: %w", err)
	}

	format := "yaml"
	if strings.EqualFold(filepath.Ext(cleanPath), ".toml") {
		format = "toml"
	}
	return LoadDependenciesFromBytes(data, format)
}

// LoadDependenciesFromBytes parses a dependency list in the given format
// ("yaml" or "toml") and validates every repository reference.
func LoadDependenciesFromBytes(data []byte, format string) ([]Dependency, error) {
	var file DependencyFile
	switch format {
	case "toml":
		if err := toml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("failed to parse dependency file: %w", err)
		}
	case "yaml", "yml":
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("failed to parse dependency file: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported dependency file format: %s", format)
	}

	seen := make(map[string]bool, len(file.Dependencies))
	for i, d := range file.Dependencies {
		repo, err := d.RepoRef()
		if err != nil {
			return nil, fmt.Errorf("dependency %d: %w", i+1, err)
		}
		name := d.LocalName(repo)
		if seen[name] {
			return nil, fmt.Errorf("dependency %d: duplicate local name %q", i+1, name)
		}
		seen[name] = true
	}

	return file.Dependencies, nil
}
