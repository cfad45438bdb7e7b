package model

import (
	"errors"
	"time"
)

// Target describes the historical moment to resolve. Exactly one of At,
// Commit or Tag must be set.
type Target struct {
	// At is an explicit instant.
	At time.Time `json:"at,omitempty"`

	// Commit is a full or abbreviated commit SHA whose commit timestamp
	// becomes the target instant.
	Commit string `json:"commit,omitempty"`

	// Tag is a tag name whose commit timestamp becomes the target instant.
	Tag string `json:"tag,omitempty"`
}

// AtTime returns a Target for an explicit instant.
func AtTime(t time.Time) Target { return Target{At: t} }

// AtCommit returns a Target derived from a commit's timestamp.
func AtCommit(sha string) Target { return Target{Commit: sha} }

// AtTag returns a Target derived from a tag's commit timestamp.
func AtTag(name string) Target { return Target{Tag: name} }

// Validate checks that exactly one field is set.
func (t Target) Validate() error {
	n := 0
	if !t.At.IsZero() {
		n++
	}
	if t.Commit != "" {
		n++
	}
	if t.Tag != "" {
		n++
	}
	switch n {
	case 0:
		return NewError(KindInvalidInput, "target", RepoRef{}, errors.New("one of instant, commit or tag is required"))
	case 1:
		return nil
	default:
		return NewError(KindInvalidInput, "target", RepoRef{}, errors.New("instant, commit and tag are mutually exclusive"))
	}
}

// ResolutionQuery asks for the latest release of Repo at instant At.
type ResolutionQuery struct {
	Repo RepoRef   `json:"repo"`
	At   time.Time `json:"at"`
}

// ResolutionResult is the release that was current at the queried instant.
type ResolutionResult struct {
	Repo   RepoRef   `json:"repo"`
	At     time.Time `json:"at"`
	Tag    string    `json:"tag"`
	Commit CommitRef `json:"commit"`
}

// ResolutionReport collects the outcome of resolving one or more
// repositories.
type ResolutionReport struct {
	Timestamp time.Time           `json:"timestamp"`
	Results   []ResolutionResult  `json:"results,omitempty"`
	Failures  []ResolutionFailure `json:"failures,omitempty"`
	Resolved  int                 `json:"resolved"`
	Failed    int                 `json:"failed"`
}

// ResolutionFailure records a repository that could not be resolved.
type ResolutionFailure struct {
	Repo  RepoRef   `json:"repo"`
	At    time.Time `json:"at,omitempty"`
	Kind  Kind      `json:"kind"`
	Error string    `json:"error"`
}

// IndexReport lists the chronological tag index of one repository.
type IndexReport struct {
	Timestamp time.Time    `json:"timestamp"`
	Repo      RepoRef      `json:"repo"`
	Tags      []TagRecord  `json:"tags"`
	Skipped   []SkippedTag `json:"skipped,omitempty"`
}

// SkippedTag is a tag left out of an index because its commit lookup failed.
type SkippedTag struct {
	Name  string `json:"name"`
	SHA   string `json:"sha"`
	Kind  Kind   `json:"kind"`
	Error string `json:"error"`
}

// ManifestEntry pins one repository to a revision in a dependency manifest.
type ManifestEntry struct {
	LocalName string `json:"localName" yaml:"local-name"`
	URI       string `json:"uri" yaml:"uri"`
	Version   string `json:"version" yaml:"version"`
}

// ManifestEntryFor converts a resolution into a manifest entry named
// localName, or the repository name when localName is empty.
func ManifestEntryFor(localName string, res ResolutionResult) ManifestEntry {
	if localName == "" {
		localName = res.Repo.Name
	}
	return ManifestEntry{
		LocalName: localName,
		URI:       res.Repo.CloneURL(),
		Version:   res.Tag,
	}
}
