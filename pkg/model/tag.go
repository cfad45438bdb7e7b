package model

import (
	"strings"
	"time"
)

// CommitRef identifies a single commit and the instant it was committed.
// Timestamps are UTC with second precision.
type CommitRef struct {
	SHA       string    `json:"sha" yaml:"sha"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
}

// NewCommitRef normalizes ts to UTC second precision.
func NewCommitRef(sha string, ts time.Time) CommitRef {
	return CommitRef{SHA: sha, Timestamp: ts.UTC().Truncate(time.Second)}
}

// ShortSHA returns the first seven characters of the SHA.
func (c CommitRef) ShortSHA() string {
	if len(c.SHA) <= 7 {
		return c.SHA
	}
	return c.SHA[:7]
}

// RawTag is a tag as listed by the provider, before its commit is resolved.
type RawTag struct {
	Name string `json:"name"`
	SHA  string `json:"sha"`
}

// TagRecord is a tag whose commit has been resolved.
type TagRecord struct {
	Name   string    `json:"name" yaml:"name"`
	Commit CommitRef `json:"commit" yaml:"commit"`
}

// Compare returns -1, 0 or 1 ordering by commit timestamp, then by name.
func (t TagRecord) Compare(other TagRecord) int {
	if c := t.Commit.Timestamp.Compare(other.Commit.Timestamp); c != 0 {
		return c
	}
	return strings.Compare(t.Name, other.Name)
}
