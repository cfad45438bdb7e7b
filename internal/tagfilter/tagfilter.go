// Package tagfilter decides which tag names count as releases.
package tagfilter

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Options configures a Filter.
type Options struct {
	// SemverOnly keeps only tags that parse as semantic versions,
	// with or without a "v" prefix.
	SemverOnly bool

	// IncludePrereleases keeps semver prereleases such as "1.2.0-rc1".
	// Only consulted when SemverOnly is set.
	IncludePrereleases bool

	// Pattern, if non-empty, is a regular expression tag names must match.
	Pattern string
}

// Filter selects release tags by name. A nil *Filter matches everything.
type Filter struct {
	opts    Options
	pattern *regexp.Regexp
}

// New compiles a Filter. It returns nil when opts select every tag.
func New(opts Options) (*Filter, error) {
	if !opts.SemverOnly && opts.Pattern == "" {
		return nil, nil
	}

	f := &Filter{opts: opts}
	if opts.Pattern != "" {
		re, err := regexp.Compile(opts.Pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid tag pattern %q: %w", opts.Pattern, err)
		}
		f.pattern = re
	}
	return f, nil
}

// Match reports whether name is a release tag under this filter.
func (f *Filter) Match(name string) bool {
	if f == nil {
		return true
	}
	if f.pattern != nil && !f.pattern.MatchString(name) {
		return false
	}
	if f.opts.SemverOnly {
		v, ok := ParseVersion(name)
		if !ok {
			return false
		}
		if v.Prerelease() != "" && !f.opts.IncludePrereleases {
			return false
		}
	}
	return true
}

// String describes the filter for logs.
func (f *Filter) String() string {
	if f == nil {
		return "all tags"
	}
	var parts []string
	if f.opts.SemverOnly {
		if f.opts.IncludePrereleases {
			parts = append(parts, "semver (with prereleases)")
		} else {
			parts = append(parts, "semver")
		}
	}
	if f.pattern != nil {
		parts = append(parts, "matching "+f.pattern.String())
	}
	return strings.Join(parts, ", ")
}

// ParseVersion parses a tag name as a semantic version. Partial versions
// such as "v1.2" are accepted and completed with zeros.
func ParseVersion(name string) (*semver.Version, bool) {
	v, err := semver.NewVersion(name)
	if err != nil {
		return nil, false
	}
	return v, true
}
