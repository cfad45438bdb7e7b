package tagindex

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/grokify/versionrewind/internal/tagfilter"
	"github.com/grokify/versionrewind/pkg/model"
)

var repo = model.RepoRef{Owner: "ros", Name: "catkin"}

func day(n int) time.Time {
	return time.Date(2020, 1, n, 12, 0, 0, 0, time.UTC)
}

// fakeClient resolves commits from a map and records call statistics.
type fakeClient struct {
	mu       sync.Mutex
	commits  map[string]time.Time
	errs     map[string]error
	calls    map[string]int
	inFlight int32
	maxSeen  int32
	delay    time.Duration
}

func newFakeClient(commits map[string]time.Time) *fakeClient {
	return &fakeClient{commits: commits, errs: map[string]error{}, calls: map[string]int{}}
}

func (f *fakeClient) FetchCommit(ctx context.Context, r model.RepoRef, sha string) (model.CommitRef, error) {
	n := atomic.AddInt32(&f.inFlight, 1)
	defer atomic.AddInt32(&f.inFlight, -1)
	for {
		m := atomic.LoadInt32(&f.maxSeen)
		if n <= m || atomic.CompareAndSwapInt32(&f.maxSeen, m, n) {
			break
		}
	}

	f.mu.Lock()
	f.calls[sha]++
	err := f.errs[sha]
	ts, ok := f.commits[sha]
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-ctx.Done():
			return model.CommitRef{}, ctx.Err()
		case <-time.After(f.delay):
		}
	}
	if err != nil {
		return model.CommitRef{}, err
	}
	if !ok {
		return model.CommitRef{}, model.NewError(model.KindNotFound, "fetch commit", r, fmt.Errorf("no commit %s", sha))
	}
	return model.NewCommitRef(sha, ts), nil
}

func (f *fakeClient) FetchAllTags(ctx context.Context, r model.RepoRef) ([]model.RawTag, error) {
	return nil, errors.New("not used")
}

func names(idx *Index) []string {
	var out []string
	for _, r := range idx.Records() {
		out = append(out, r.Name)
	}
	return out
}

func TestBuild_SortsByTimestampThenName(t *testing.T) {
	client := newFakeClient(map[string]time.Time{
		"a": day(3),
		"b": day(1),
		"c": day(2),
	})
	raw := []model.RawTag{
		{Name: "v2.0", SHA: "a"},
		{Name: "v1.0", SHA: "b"},
		{Name: "v1.1", SHA: "c"},
		{Name: "v1.0-rc1", SHA: "b"},
	}

	idx, err := Build(context.Background(), client, repo, raw)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	got := fmt.Sprint(names(idx))
	if got != "[v1.0 v1.0-rc1 v1.1 v2.0]" {
		t.Errorf("unexpected order %s", got)
	}
	if idx.Repo() != repo {
		t.Errorf("unexpected repo %v", idx.Repo())
	}
	if idx.Len() != 4 {
		t.Errorf("expected 4 records, got %d", idx.Len())
	}
}

func TestBuild_OneLookupPerSHA(t *testing.T) {
	client := newFakeClient(map[string]time.Time{"a": day(1), "b": day(2)})
	raw := []model.RawTag{
		{Name: "t1", SHA: "a"},
		{Name: "t2", SHA: "a"},
		{Name: "t3", SHA: "a"},
		{Name: "t4", SHA: "b"},
	}

	if _, err := Build(context.Background(), client, repo, raw); err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if client.calls["a"] != 1 || client.calls["b"] != 1 {
		t.Errorf("expected one lookup per SHA, got %v", client.calls)
	}
}

func TestBuild_DedupFirstOccurrenceWins(t *testing.T) {
	client := newFakeClient(map[string]time.Time{"a": day(1), "b": day(5)})
	raw := []model.RawTag{
		{Name: "v1", SHA: "a"},
		{Name: "v1", SHA: "b"},
	}

	idx, err := Build(context.Background(), client, repo, raw)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if idx.Len() != 1 || idx.At(0).Commit.SHA != "a" {
		t.Errorf("expected first occurrence, got %v", idx.Records())
	}
	if client.calls["b"] != 0 {
		t.Error("duplicate tag's SHA should not be looked up")
	}
}

func TestBuild_Empty(t *testing.T) {
	idx, err := Build(context.Background(), newFakeClient(nil), repo, nil)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if idx.Len() != 0 {
		t.Errorf("expected empty index, got %d", idx.Len())
	}
	if _, ok := idx.Earliest(); ok {
		t.Error("expected no earliest record")
	}
}

func TestBuild_StrictFailsWholeBuild(t *testing.T) {
	client := newFakeClient(map[string]time.Time{"a": day(1)})
	raw := []model.RawTag{
		{Name: "good", SHA: "a"},
		{Name: "dangling", SHA: "missing"},
	}

	idx, err := Build(context.Background(), client, repo, raw)
	if err == nil {
		t.Fatal("expected error")
	}
	if idx != nil {
		t.Error("expected no partial index")
	}
	if !model.IsKind(err, model.KindNotFound) {
		t.Errorf("expected NOT_FOUND, got %v", err)
	}
}

func TestBuild_LenientRecordsSkipped(t *testing.T) {
	client := newFakeClient(map[string]time.Time{"a": day(1)})
	client.errs["bad"] = model.NewError(model.KindUnexpectedResponse, "fetch commit", repo, errors.New("no date"))
	raw := []model.RawTag{
		{Name: "good", SHA: "a"},
		{Name: "dangling", SHA: "missing"},
		{Name: "broken", SHA: "bad"},
	}

	idx, err := Build(context.Background(), client, repo, raw, WithLenient(true))
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if fmt.Sprint(names(idx)) != "[good]" {
		t.Errorf("unexpected records %v", names(idx))
	}

	skipped := idx.Skipped()
	if len(skipped) != 2 {
		t.Fatalf("expected 2 skipped tags, got %v", skipped)
	}
	if skipped[0].Name != "dangling" || skipped[0].Kind != model.KindNotFound {
		t.Errorf("unexpected skipped entry %+v", skipped[0])
	}
	if skipped[1].Name != "broken" || skipped[1].Kind != model.KindUnexpectedResponse {
		t.Errorf("unexpected skipped entry %+v", skipped[1])
	}
}

func TestBuild_LenientStillFailsOnRateLimit(t *testing.T) {
	client := newFakeClient(map[string]time.Time{"a": day(1)})
	client.errs["b"] = model.NewError(model.KindRateLimited, "fetch commit", repo, errors.New("quota"))
	raw := []model.RawTag{{Name: "t1", SHA: "a"}, {Name: "t2", SHA: "b"}}

	idx, err := Build(context.Background(), client, repo, raw, WithLenient(true))
	if !model.IsKind(err, model.KindRateLimited) {
		t.Errorf("expected RATE_LIMITED, got %v", err)
	}
	if idx != nil {
		t.Error("expected no partial index")
	}
}

func TestBuild_ZeroTimestampIsUnexpected(t *testing.T) {
	client := newFakeClient(map[string]time.Time{"a": {}})
	_, err := Build(context.Background(), client, repo, []model.RawTag{{Name: "t", SHA: "a"}})
	if !model.IsKind(err, model.KindUnexpectedResponse) {
		t.Errorf("expected UNEXPECTED_RESPONSE, got %v", err)
	}
}

func TestBuild_BoundedConcurrency(t *testing.T) {
	commits := map[string]time.Time{}
	var raw []model.RawTag
	for i := 0; i < 20; i++ {
		sha := fmt.Sprintf("sha%02d", i)
		commits[sha] = day(1).Add(time.Duration(i) * time.Hour)
		raw = append(raw, model.RawTag{Name: fmt.Sprintf("t%02d", i), SHA: sha})
	}
	client := newFakeClient(commits)
	client.delay = 5 * time.Millisecond

	idx, err := Build(context.Background(), client, repo, raw, WithConcurrency(3))
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if idx.Len() != 20 {
		t.Errorf("expected 20 records, got %d", idx.Len())
	}
	if got := atomic.LoadInt32(&client.maxSeen); got > 3 {
		t.Errorf("expected at most 3 concurrent lookups, saw %d", got)
	}
}

func TestBuild_Cancelled(t *testing.T) {
	client := newFakeClient(map[string]time.Time{"a": day(1), "b": day(2)})
	client.delay = time.Second

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	idx, err := Build(ctx, client, repo, []model.RawTag{{Name: "t1", SHA: "a"}, {Name: "t2", SHA: "b"}})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if idx != nil {
		t.Error("expected no partial index")
	}
}

func TestBuild_Filter(t *testing.T) {
	client := newFakeClient(map[string]time.Time{"a": day(1), "b": day(2), "c": day(3)})
	raw := []model.RawTag{
		{Name: "1.0.0", SHA: "a"},
		{Name: "indigo-devel", SHA: "b"},
		{Name: "1.1.0-rc1", SHA: "c"},
	}
	f, err := tagfilter.New(tagfilter.Options{SemverOnly: true})
	if err != nil {
		t.Fatalf("tagfilter.New failed: %v", err)
	}

	idx, err := Build(context.Background(), client, repo, raw, WithFilter(f))
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if fmt.Sprint(names(idx)) != "[1.0.0]" {
		t.Errorf("unexpected records %v", names(idx))
	}
	if client.calls["b"] != 0 || client.calls["c"] != 0 {
		t.Error("filtered tags should not be looked up")
	}
}

func TestBuild_Progress(t *testing.T) {
	client := newFakeClient(map[string]time.Time{"a": day(1)})
	raw := []model.RawTag{{Name: "ok", SHA: "a"}, {Name: "gone", SHA: "x"}}

	var mu sync.Mutex
	var events []ProgressEventType
	progress := NewCallbackProgress(func(e ProgressEvent) {
		mu.Lock()
		events = append(events, e.Type)
		mu.Unlock()
	})

	if _, err := Build(context.Background(), client, repo, raw, WithLenient(true), WithProgress(progress)); err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	want := fmt.Sprint([]ProgressEventType{
		ProgressEventStart, ProgressEventResolved, ProgressEventSkipped, ProgressEventComplete,
	})
	if got := fmt.Sprint(events); got != want {
		t.Errorf("expected events %s, got %s", want, got)
	}
}

func TestIndex_IsImmutable(t *testing.T) {
	idx, err := NewIndex(repo, []model.TagRecord{
		{Name: "v1", Commit: model.CommitRef{SHA: "a", Timestamp: day(1)}},
	})
	if err != nil {
		t.Fatalf("NewIndex failed: %v", err)
	}

	records := idx.Records()
	records[0].Name = "mutated"
	if idx.At(0).Name != "v1" {
		t.Error("Records must return a copy")
	}
}

func TestNewIndex(t *testing.T) {
	idx, err := NewIndex(repo, []model.TagRecord{
		{Name: "b", Commit: model.CommitRef{SHA: "2", Timestamp: day(2)}},
		{Name: "a", Commit: model.CommitRef{SHA: "1", Timestamp: day(2)}},
		{Name: "c", Commit: model.CommitRef{SHA: "3", Timestamp: day(1)}},
	})
	if err != nil {
		t.Fatalf("NewIndex failed: %v", err)
	}
	if fmt.Sprint(names(idx)) != "[c a b]" {
		t.Errorf("unexpected order %v", names(idx))
	}

	earliest, ok := idx.Earliest()
	if !ok || earliest.Name != "c" {
		t.Errorf("unexpected earliest %v", earliest)
	}
}

func TestNewIndex_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		records []model.TagRecord
	}{
		{"zero timestamp", []model.TagRecord{{Name: "v1", Commit: model.CommitRef{SHA: "a"}}}},
		{"empty name", []model.TagRecord{{Commit: model.CommitRef{SHA: "a", Timestamp: day(1)}}}},
		{"duplicate", []model.TagRecord{
			{Name: "v1", Commit: model.CommitRef{SHA: "a", Timestamp: day(1)}},
			{Name: "v1", Commit: model.CommitRef{SHA: "b", Timestamp: day(2)}},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewIndex(repo, tt.records)
			if !model.IsKind(err, model.KindInvalidInput) {
				t.Errorf("expected INVALID_INPUT, got %v", err)
			}
		})
	}
}

func TestIndex_Report(t *testing.T) {
	idx, _ := NewIndex(repo, nil)
	report := idx.Report()
	if report.Tags == nil {
		t.Error("expected non-nil tags slice")
	}
	if report.Repo != repo {
		t.Errorf("unexpected repo %v", report.Repo)
	}
}
