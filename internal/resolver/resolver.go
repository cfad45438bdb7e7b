// Package resolver answers "which release was current at this moment" for
// a repository, using its chronological tag index.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/grokify/versionrewind/internal/hosting"
	"github.com/grokify/versionrewind/internal/tagfilter"
	"github.com/grokify/versionrewind/internal/tagindex"
	"github.com/grokify/versionrewind/pkg/model"
)

// Resolve returns the latest tag whose commit timestamp is at or before at.
// When several tags share that timestamp the lexically greatest name wins.
// It returns a KindNoReleaseAvailable error if every tag is newer than at.
func Resolve(idx *tagindex.Index, at time.Time) (model.ResolutionResult, error) {
	at = at.UTC()

	// First record strictly after at; the answer is the one before it.
	i := sort.Search(idx.Len(), func(i int) bool {
		return idx.At(i).Commit.Timestamp.After(at)
	})
	if i == 0 {
		err := errors.New("no tags")
		if earliest, ok := idx.Earliest(); ok {
			err = fmt.Errorf("earliest tag %s is dated %s, after %s",
				earliest.Name, earliest.Commit.Timestamp.Format(time.RFC3339), at.Format(time.RFC3339))
		}
		return model.ResolutionResult{}, model.NewError(model.KindNoReleaseAvailable, "resolve", idx.Repo(), err)
	}

	rec := idx.At(i - 1)
	return model.ResolutionResult{
		Repo:   idx.Repo(),
		At:     at,
		Tag:    rec.Name,
		Commit: rec.Commit,
	}, nil
}

// Config configures a Resolver.
type Config struct {
	// Concurrency bounds commit lookups within one index build.
	Concurrency int

	// Repositories bounds how many repositories ResolveAll works on at once.
	// Default is 4.
	Repositories int

	// Lenient skips tags whose commit is missing instead of failing.
	Lenient bool

	// Filter restricts which tags count as releases. Nil keeps every tag.
	Filter *tagfilter.Filter

	// NewProgress, if set, returns the progress reporter for each index
	// build. Builds for different repositories may run concurrently.
	NewProgress func(repo model.RepoRef) tagindex.Progress
}

// DefaultRepositories is the default ResolveAll parallelism.
const DefaultRepositories = 4

// Resolver combines a hosting client with the index and search steps.
type Resolver struct {
	client hosting.Client
	cfg    Config
}

// New creates a Resolver.
func New(client hosting.Client, cfg Config) *Resolver {
	if cfg.Repositories <= 0 {
		cfg.Repositories = DefaultRepositories
	}
	return &Resolver{client: client, cfg: cfg}
}

func (r *Resolver) indexOptions(repo model.RepoRef) []tagindex.Option {
	opts := []tagindex.Option{
		tagindex.WithConcurrency(r.cfg.Concurrency),
		tagindex.WithLenient(r.cfg.Lenient),
		tagindex.WithFilter(r.cfg.Filter),
	}
	if r.cfg.NewProgress != nil {
		opts = append(opts, tagindex.WithProgress(r.cfg.NewProgress(repo)))
	}
	return opts
}

// Index fetches every tag of repo and builds its chronological index.
// Options in extra are applied after the configured ones.
func (r *Resolver) Index(ctx context.Context, repo model.RepoRef, extra ...tagindex.Option) (*tagindex.Index, error) {
	raw, err := r.client.FetchAllTags(ctx, repo)
	if err != nil {
		return nil, err
	}
	opts := append(r.indexOptions(repo), extra...)
	return tagindex.Build(ctx, r.client, repo, raw, opts...)
}

// TargetInstant turns a target into the instant to resolve at. Commit and
// tag targets are resolved to their commit timestamp in repo.
func (r *Resolver) TargetInstant(ctx context.Context, repo model.RepoRef, target model.Target) (time.Time, error) {
	if err := target.Validate(); err != nil {
		return time.Time{}, err
	}

	switch {
	case !target.At.IsZero():
		return target.At.UTC(), nil

	case target.Commit != "":
		ref, err := r.Commit(ctx, repo, target.Commit)
		if err != nil {
			return time.Time{}, err
		}
		return ref.Timestamp, nil

	default:
		tr, ok := r.client.(hosting.TagResolver)
		if !ok {
			return time.Time{}, model.NewError(model.KindConfiguration, "fetch tag", repo,
				errors.New("client does not support tag lookups"))
		}
		sha, err := tr.FetchTagSHA(ctx, repo, target.Tag)
		if err != nil {
			return time.Time{}, err
		}
		ref, err := r.Commit(ctx, repo, sha)
		if err != nil {
			return time.Time{}, err
		}
		return ref.Timestamp, nil
	}
}

// Commit looks up a commit of repo by full or abbreviated SHA.
func (r *Resolver) Commit(ctx context.Context, repo model.RepoRef, sha string) (model.CommitRef, error) {
	ref, err := r.client.FetchCommit(ctx, repo, sha)
	if err != nil {
		return model.CommitRef{}, err
	}
	if ref.Timestamp.IsZero() {
		return model.CommitRef{}, model.NewError(model.KindUnexpectedResponse, "fetch commit", repo,
			fmt.Errorf("commit %s has no timestamp", sha))
	}
	return ref, nil
}

// MostRecentReleaseBefore returns the release of repo that was current at
// target.
func (r *Resolver) MostRecentReleaseBefore(ctx context.Context, repo model.RepoRef, target model.Target) (model.ResolutionResult, error) {
	at, err := r.TargetInstant(ctx, repo, target)
	if err != nil {
		return model.ResolutionResult{}, err
	}
	return r.ResolveQuery(ctx, model.ResolutionQuery{Repo: repo, At: at})
}

// ResolveQuery resolves a single query.
func (r *Resolver) ResolveQuery(ctx context.Context, q model.ResolutionQuery) (model.ResolutionResult, error) {
	if q.Repo.IsZero() {
		return model.ResolutionResult{}, model.NewError(model.KindInvalidInput, "resolve", q.Repo,
			errors.New("repository is required"))
	}
	if q.At.IsZero() {
		return model.ResolutionResult{}, model.NewError(model.KindInvalidInput, "resolve", q.Repo,
			errors.New("instant is required"))
	}

	idx, err := r.Index(ctx, q.Repo)
	if err != nil {
		return model.ResolutionResult{}, err
	}
	return Resolve(idx, q.At)
}

// ResolveAll resolves every query, with at most Config.Repositories in
// flight. Failures are reported per query; the report keeps query order.
// Cancellation of ctx aborts the batch and returns ctx.Err().
func (r *Resolver) ResolveAll(ctx context.Context, queries []model.ResolutionQuery) (*model.ResolutionReport, error) {
	type outcome struct {
		res model.ResolutionResult
		err error
	}
	slots := make([]outcome, len(queries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Repositories)

	for i, q := range queries {
		g.Go(func() error {
			res, err := r.ResolveQuery(gctx, q)
			slots[i] = outcome{res: res, err: err}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	report := &model.ResolutionReport{Timestamp: time.Now().UTC()}
	for i, s := range slots {
		if s.err != nil {
			report.Failures = append(report.Failures, model.ResolutionFailure{
				Repo:  queries[i].Repo,
				At:    queries[i].At,
				Kind:  model.KindOf(s.err),
				Error: model.Describe(s.err),
			})
			report.Failed++
			continue
		}
		report.Results = append(report.Results, s.res)
		report.Resolved++
	}
	return report, nil
}
