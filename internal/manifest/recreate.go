package manifest

import (
	"context"
	"time"

	"github.com/grokify/versionrewind/internal/resolver"
	"github.com/grokify/versionrewind/pkg/model"
)

// Manifest is a project pinned at a commit together with the dependency
// releases that were current at that commit's timestamp.
type Manifest struct {
	Project  model.RepoRef             `json:"project"`
	Commit   model.CommitRef           `json:"commit"`
	Entries  []model.ManifestEntry     `json:"entries"`
	Failures []model.ResolutionFailure `json:"failures,omitempty"`
}

// At returns the instant the manifest reconstructs.
func (m *Manifest) At() time.Time { return m.Commit.Timestamp }

// Complete reports whether every dependency was resolved.
func (m *Manifest) Complete() bool { return len(m.Failures) == 0 }

// Recreate pins project at commitSHA and resolves each dependency to its
// most recent release at that commit's timestamp. Dependency failures are
// collected in Manifest.Failures; only a failure to resolve the project
// commit, or cancellation, returns an error.
func Recreate(ctx context.Context, r *resolver.Resolver, project model.RepoRef, commitSHA string, deps []Dependency) (*Manifest, error) {
	commit, err := r.Commit(ctx, project, commitSHA)
	if err != nil {
		return nil, err
	}
	at := commit.Timestamp

	queries := make([]model.ResolutionQuery, 0, len(deps))
	names := make([]string, 0, len(deps))
	for _, d := range deps {
		repo, err := d.RepoRef()
		if err != nil {
			return nil, model.NewError(model.KindInvalidInput, "manifest", model.RepoRef{}, err)
		}
		queries = append(queries, model.ResolutionQuery{Repo: repo, At: at})
		names = append(names, d.LocalName(repo))
	}

	report, err := r.ResolveAll(ctx, queries)
	if err != nil {
		return nil, err
	}

	m := &Manifest{
		Project:  project,
		Commit:   commit,
		Failures: report.Failures,
	}
	m.Entries = append(m.Entries, model.ManifestEntry{
		LocalName: project.Name,
		URI:       project.CloneURL(),
		Version:   commit.SHA,
	})

	byRepo := make(map[model.RepoRef]model.ResolutionResult, len(report.Results))
	for _, res := range report.Results {
		byRepo[res.Repo] = res
	}
	for i, q := range queries {
		res, ok := byRepo[q.Repo]
		if !ok {
			continue
		}
		m.Entries = append(m.Entries, model.ManifestEntryFor(names[i], res))
	}

	return m, nil
}
