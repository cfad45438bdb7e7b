package cmd

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/grokify/versionrewind/internal/tagindex"
)

// newLogger creates a logger with short timestamps writing to w.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

type ctxKey int

const loggerKey ctxKey = 0

func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext returns the command logger, or log.Default().
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}

// logProgress reports index build events at debug level.
func logProgress(l *log.Logger) tagindex.Progress {
	start := time.Now()
	return tagindex.NewCallbackProgress(func(e tagindex.ProgressEvent) {
		switch e.Type {
		case tagindex.ProgressEventStart:
			l.Debug("indexing tags", "repo", e.Repo, "tags", e.Current, "commits", e.Total)
		case tagindex.ProgressEventResolved:
			l.Debug("resolved commit", "repo", e.Repo, "sha", e.SHA, "progress", e.Current, "total", e.Total)
		case tagindex.ProgressEventSkipped:
			l.Warn("skipped tag", "repo", e.Repo, "tag", e.Tag, "err", e.Error)
		case tagindex.ProgressEventComplete:
			l.Debug("index built", "repo", e.Repo, "tags", e.Current,
				"elapsed", time.Since(start).Round(time.Millisecond))
		}
	})
}
