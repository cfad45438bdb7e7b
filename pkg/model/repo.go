package model

import (
	"fmt"
	"strings"
)

// RepoRef identifies a repository on the hosting provider. Owner and Name
// together form an opaque key; neither is interpreted beyond building URLs.
type RepoRef struct {
	Owner string `json:"owner" yaml:"owner"`
	Name  string `json:"name" yaml:"name"`
}

// FullName returns the full repository name in owner/repo format.
func (r RepoRef) FullName() string {
	return r.Owner + "/" + r.Name
}

// String implements fmt.Stringer.
func (r RepoRef) String() string {
	return r.FullName()
}

// IsZero reports whether the reference is empty.
func (r RepoRef) IsZero() bool {
	return r.Owner == "" && r.Name == ""
}

// HTMLURL returns the browser URL of the repository on github.com.
func (r RepoRef) HTMLURL() string {
	return "https://github.com/" + r.FullName()
}

// CloneURL returns the HTTPS clone URL of the repository on github.com.
func (r RepoRef) CloneURL() string {
	return r.HTMLURL() + ".git"
}

// repoURLPrefixes are the host prefixes stripped from repository URLs.
var repoURLPrefixes = []string{
	"git@github.com:",
	"ssh://git@github.com/",
	"git://github.com/",
	"https://github.com/",
	"http://github.com/",
	"https://www.github.com/",
	"github.com/",
}

// ParseRepoRef parses "owner/repo" or a GitHub URL such as
// "https://github.com/owner/repo.git" or "git@github.com:owner/repo.git".
func ParseRepoRef(s string) (RepoRef, error) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return RepoRef{}, fmt.Errorf("empty repository reference")
	}
	path := strings.TrimPrefix(raw, "git+")
	for _, prefix := range repoURLPrefixes {
		if rest, ok := strings.CutPrefix(path, prefix); ok {
			path = rest
			break
		}
	}
	if strings.Contains(path, "://") {
		return RepoRef{}, fmt.Errorf("unsupported repository host in %q", raw)
	}
	path = strings.TrimSuffix(strings.TrimSuffix(path, "/"), ".git")

	parts := strings.Split(path, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return RepoRef{}, fmt.Errorf("invalid repository reference %q, want owner/repo", raw)
	}
	return RepoRef{Owner: parts[0], Name: parts[1]}, nil
}
