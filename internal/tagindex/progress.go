package tagindex

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Progress receives index build updates. Implementations must be safe for
// concurrent use; commit lookups report from multiple goroutines.
type Progress interface {
	// Start is called once the unique commits to resolve are known.
	Start(repo string, tags, commits int)

	// Resolved is called after each successful commit lookup.
	Resolved(sha string)

	// Skipped is called when a tag is left out in lenient mode.
	Skipped(tag string, err error)

	// Complete is called after a successful build.
	Complete(records int)
}

// WriterProgress prints build progress to a writer.
type WriterProgress struct {
	mu          sync.Mutex
	writer      io.Writer
	startTime   time.Time
	repo        string
	total       int
	current     int
	skipped     int
	lastUpdate  time.Time
	minInterval time.Duration
}

// ProgressConfig configures progress reporting.
type ProgressConfig struct {
	// Writer is where progress is written. Default is os.Stderr.
	Writer io.Writer

	// MinInterval is the minimum time between progress updates.
	// Default is 100ms.
	MinInterval time.Duration
}

// NewWriterProgress creates a progress reporter that prints to a writer.
func NewWriterProgress(cfg ProgressConfig) *WriterProgress {
	if cfg.Writer == nil {
		cfg.Writer = os.Stderr
	}
	if cfg.MinInterval == 0 {
		cfg.MinInterval = 100 * time.Millisecond
	}
	return &WriterProgress{
		writer:      cfg.Writer,
		minInterval: cfg.MinInterval,
	}
}

// Start begins tracking a build.
func (p *WriterProgress) Start(repo string, tags, commits int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.startTime = time.Now()
	p.repo = repo
	p.total = commits
	p.current = 0
	p.skipped = 0
	p.lastUpdate = time.Time{}

	fmt.Fprintf(p.writer, "Indexing %s: %d tag(s), %d commit(s)...\n", repo, tags, commits)
}

// Resolved reports a resolved commit.
func (p *WriterProgress) Resolved(sha string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.current++

	// Rate limit updates
	if time.Since(p.lastUpdate) < p.minInterval && p.current < p.total {
		return
	}
	p.lastUpdate = time.Now()

	fmt.Fprintf(p.writer, "  [%d/%d] %s\r", p.current, p.total, shortSHA(sha))
}

// Skipped reports a tag left out of the index.
func (p *WriterProgress) Skipped(tag string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.skipped++
	fmt.Fprintf(p.writer, "\r  Skipped: %s: %v\n", tag, err)
}

// Complete prints a summary.
func (p *WriterProgress) Complete(records int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	elapsed := time.Since(p.startTime).Round(time.Millisecond)

	fmt.Fprintf(p.writer, "\r%40s\r", "")
	fmt.Fprintf(p.writer, "Indexed %s: %d tag(s)", p.repo, records)
	if p.skipped > 0 {
		fmt.Fprintf(p.writer, ", %d skipped", p.skipped)
	}
	fmt.Fprintf(p.writer, " in %s\n", elapsed)
}

func shortSHA(sha string) string {
	if len(sha) <= 7 {
		return sha
	}
	return sha[:7]
}

// ProgressCallback is called for each progress event.
type ProgressCallback func(event ProgressEvent)

// ProgressEvent represents a progress update during an index build.
type ProgressEvent struct {
	Type    ProgressEventType `json:"type"`
	Repo    string            `json:"repo,omitempty"`
	Tag     string            `json:"tag,omitempty"`
	SHA     string            `json:"sha,omitempty"`
	Current int               `json:"current,omitempty"`
	Total   int               `json:"total,omitempty"`
	Error   error             `json:"error,omitempty"`
}

// ProgressEventType indicates the type of progress event.
type ProgressEventType string

const (
	ProgressEventStart    ProgressEventType = "start"
	ProgressEventResolved ProgressEventType = "resolved"
	ProgressEventSkipped  ProgressEventType = "skipped"
	ProgressEventComplete ProgressEventType = "complete"
)

// CallbackProgress adapts a callback function to the Progress interface.
// Events are delivered one at a time.
type CallbackProgress struct {
	mu       sync.Mutex
	callback ProgressCallback
	repo     string
	total    int
	current  int
}

// NewCallbackProgress creates a progress reporter that calls a callback.
func NewCallbackProgress(callback ProgressCallback) *CallbackProgress {
	return &CallbackProgress{callback: callback}
}

// Start begins tracking progress.
func (cp *CallbackProgress) Start(repo string, tags, commits int) {
	cp.mu.Lock()
	defer cp.mu.Unlock()

	cp.repo = repo
	cp.total = commits
	cp.current = 0
	cp.callback(ProgressEvent{
		Type:    ProgressEventStart,
		Repo:    repo,
		Current: tags,
		Total:   commits,
	})
}

// Resolved reports a resolved commit.
func (cp *CallbackProgress) Resolved(sha string) {
	cp.mu.Lock()
	defer cp.mu.Unlock()

	cp.current++
	cp.callback(ProgressEvent{
		Type:    ProgressEventResolved,
		Repo:    cp.repo,
		SHA:     sha,
		Current: cp.current,
		Total:   cp.total,
	})
}

// Skipped reports a skipped tag.
func (cp *CallbackProgress) Skipped(tag string, err error) {
	cp.mu.Lock()
	defer cp.mu.Unlock()

	cp.callback(ProgressEvent{
		Type:  ProgressEventSkipped,
		Repo:  cp.repo,
		Tag:   tag,
		Error: err,
	})
}

// Complete finishes progress tracking.
func (cp *CallbackProgress) Complete(records int) {
	cp.mu.Lock()
	defer cp.mu.Unlock()

	cp.callback(ProgressEvent{
		Type:    ProgressEventComplete,
		Repo:    cp.repo,
		Current: records,
		Total:   cp.total,
	})
}

type noProgress struct{}

func (noProgress) Start(string, int, int) {}
func (noProgress) Resolved(string)        {}
func (noProgress) Skipped(string, error)  {}
func (noProgress) Complete(int)           {}
