// Package tagindex builds a chronological index of a repository's tags by
// resolving each tag's commit timestamp.
package tagindex

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/grokify/versionrewind/internal/hosting"
	"github.com/grokify/versionrewind/internal/tagfilter"
	"github.com/grokify/versionrewind/pkg/model"
)

// DefaultConcurrency bounds in-flight commit lookups.
const DefaultConcurrency = 8

// Index is an immutable list of tags sorted by commit timestamp ascending,
// then by name ascending.
type Index struct {
	repo    model.RepoRef
	records []model.TagRecord
	skipped []model.SkippedTag
}

type options struct {
	concurrency int
	lenient     bool
	filter      *tagfilter.Filter
	progress    Progress
}

// Option configures Build.
type Option func(*options)

// WithConcurrency sets the maximum number of concurrent commit lookups.
func WithConcurrency(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// WithLenient makes Build record tags whose commit is missing or malformed
// in Skipped instead of failing. Rate-limit, network and cancellation
// failures still fail the build.
func WithLenient(lenient bool) Option {
	return func(o *options) { o.lenient = lenient }
}

// WithFilter restricts the index to tags matched by f.
func WithFilter(f *tagfilter.Filter) Option {
	return func(o *options) { o.filter = f }
}

// WithProgress reports build progress to p.
func WithProgress(p Progress) Option {
	return func(o *options) {
		if p != nil {
			o.progress = p
		}
	}
}

// lookup is the outcome for one unique SHA.
type lookup struct {
	ref model.CommitRef
	err error
}

// Build resolves the commit of every tag in raw and returns the sorted
// index. Tags are deduplicated by name, first occurrence wins, and each
// distinct SHA is looked up once. Build never returns a partial index: on
// failure or cancellation the result is nil.
func Build(ctx context.Context, client hosting.Client, repo model.RepoRef, raw []model.RawTag, opts ...Option) (*Index, error) {
	o := options{concurrency: DefaultConcurrency, progress: noProgress{}}
	for _, opt := range opts {
		opt(&o)
	}

	tags := dedup(raw, o.filter)

	shaSlot := make(map[string]int)
	var shas []string
	for _, t := range tags {
		if _, ok := shaSlot[t.SHA]; !ok {
			shaSlot[t.SHA] = len(shas)
			shas = append(shas, t.SHA)
		}
	}

	o.progress.Start(repo.FullName(), len(tags), len(shas))

	slots := make([]lookup, len(shas))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.concurrency)

	for i, sha := range shas {
		g.Go(func() error {
			ref, err := client.FetchCommit(gctx, repo, sha)
			if err == nil && ref.Timestamp.IsZero() {
				err = model.NewError(model.KindUnexpectedResponse, "fetch commit", repo,
					fmt.Errorf("commit %s has no timestamp", sha))
			}
			if err != nil {
				if o.lenient && skippable(err) {
					slots[i].err = err
					return nil
				}
				return err
			}
			slots[i].ref = ref
			o.progress.Resolved(sha)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	idx := &Index{repo: repo}
	for _, t := range tags {
		res := slots[shaSlot[t.SHA]]
		if res.err != nil {
			skip := model.SkippedTag{
				Name:  t.Name,
				SHA:   t.SHA,
				Kind:  model.KindOf(res.err),
				Error: res.err.Error(),
			}
			idx.skipped = append(idx.skipped, skip)
			o.progress.Skipped(t.Name, res.err)
			continue
		}
		idx.records = append(idx.records, model.TagRecord{Name: t.Name, Commit: res.ref})
	}

	slices.SortFunc(idx.records, model.TagRecord.Compare)

	o.progress.Complete(len(idx.records))
	return idx, nil
}

// NewIndex builds an index from already resolved records. Names must be
// unique and every record must carry a commit timestamp.
func NewIndex(repo model.RepoRef, records []model.TagRecord) (*Index, error) {
	seen := make(map[string]bool, len(records))
	sorted := make([]model.TagRecord, 0, len(records))
	for _, r := range records {
		if r.Name == "" {
			return nil, model.NewError(model.KindInvalidInput, "index", repo, errors.New("tag without a name"))
		}
		if r.Commit.Timestamp.IsZero() {
			return nil, model.NewError(model.KindInvalidInput, "index", repo,
				fmt.Errorf("tag %s has no commit timestamp", r.Name))
		}
		if seen[r.Name] {
			return nil, model.NewError(model.KindInvalidInput, "index", repo,
				fmt.Errorf("duplicate tag %s", r.Name))
		}
		seen[r.Name] = true
		r.Commit = model.NewCommitRef(r.Commit.SHA, r.Commit.Timestamp)
		sorted = append(sorted, r)
	}
	slices.SortFunc(sorted, model.TagRecord.Compare)
	return &Index{repo: repo, records: sorted}, nil
}

func dedup(raw []model.RawTag, f *tagfilter.Filter) []model.RawTag {
	seen := make(map[string]bool, len(raw))
	out := make([]model.RawTag, 0, len(raw))
	for _, t := range raw {
		if seen[t.Name] || !f.Match(t.Name) {
			continue
		}
		seen[t.Name] = true
		out = append(out, t)
	}
	return out
}

func skippable(err error) bool {
	switch model.KindOf(err) {
	case model.KindNotFound, model.KindUnexpectedResponse:
		return true
	default:
		return false
	}
}

// Repo returns the indexed repository.
func (idx *Index) Repo() model.RepoRef { return idx.repo }

// Len returns the number of indexed tags.
func (idx *Index) Len() int { return len(idx.records) }

// At returns the i-th record in chronological order.
func (idx *Index) At(i int) model.TagRecord { return idx.records[i] }

// Records returns a copy of the sorted records.
func (idx *Index) Records() []model.TagRecord {
	return slices.Clone(idx.records)
}

// Skipped returns the tags left out in lenient mode.
func (idx *Index) Skipped() []model.SkippedTag {
	return slices.Clone(idx.skipped)
}

// Earliest returns the oldest record, if any.
func (idx *Index) Earliest() (model.TagRecord, bool) {
	if len(idx.records) == 0 {
		return model.TagRecord{}, false
	}
	return idx.records[0], true
}

// Report returns the index as a report for formatting.
func (idx *Index) Report() model.IndexReport {
	tags := idx.Records()
	if tags == nil {
		tags = []model.TagRecord{}
	}
	return model.IndexReport{
		Timestamp: time.Now().UTC(),
		Repo:      idx.repo,
		Tags:      tags,
		Skipped:   idx.Skipped(),
	}
}
