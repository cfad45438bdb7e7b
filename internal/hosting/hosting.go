// Package hosting fetches tag and commit metadata from the hosting
// provider's REST API.
package hosting

import (
	"context"
	"net/http"
	"time"

	"github.com/grokify/versionrewind/pkg/model"
)

// Client defines the remote operations the resolver depends on.
type Client interface {
	// FetchCommit resolves a full or abbreviated SHA to its commit
	// timestamp. The returned CommitRef carries the full SHA.
	FetchCommit(ctx context.Context, repo model.RepoRef, sha string) (model.CommitRef, error)

	// FetchAllTags returns every tag of the repository in the order the
	// provider lists them. A failure on any page fails the whole call and
	// reports the number of pages already consumed.
	FetchAllTags(ctx context.Context, repo model.RepoRef) ([]model.RawTag, error)
}

// TagResolver resolves a tag name to the SHA of the commit it points to.
type TagResolver interface {
	FetchTagSHA(ctx context.Context, repo model.RepoRef, tag string) (string, error)
}

// Config configures a GitHubClient.
type Config struct {
	// Token is the API token sent as "Authorization: token <value>".
	// Empty means unauthenticated requests (lower rate limits).
	Token string

	// BaseURL overrides the API endpoint, e.g. for GitHub Enterprise.
	// Default is https://api.github.com/.
	BaseURL string

	// HTTPClient overrides the HTTP client. When nil, a client with a
	// retrying transport is created.
	HTTPClient *http.Client

	// PerPage is the tag page size. Default is 100.
	PerPage int

	// MaxRetries is the maximum number of retries for rate-limited or
	// transient failures. Zero means the default of 3; NoRetries disables
	// retrying.
	MaxRetries int

	// InitialBackoff is the delay before the first retry; it doubles on
	// each subsequent retry. Default is 1 second.
	InitialBackoff time.Duration

	// MaxBackoff caps the delay between retries. Default is 30 seconds.
	MaxBackoff time.Duration

	// RequestTimeout bounds every individual request. Default is 30 seconds.
	RequestTimeout time.Duration

	// RequestsPerSecond throttles requests across all goroutines.
	// Zero means no client-side throttling.
	RequestsPerSecond float64

	// Burst is the limiter burst size. Default is 1.
	Burst int
}

// NoRetries, as Config.MaxRetries, makes every request a single attempt.
const NoRetries = -1

const (
	DefaultPerPage        = 100
	DefaultMaxRetries     = 3
	DefaultInitialBackoff = time.Second
	DefaultMaxBackoff     = 30 * time.Second
	DefaultRequestTimeout = 30 * time.Second
)

// withDefaults returns a copy of cfg with zero values replaced by defaults.
func (cfg Config) withDefaults() Config {
	if cfg.PerPage <= 0 {
		cfg.PerPage = DefaultPerPage
	}
	switch {
	case cfg.MaxRetries == 0:
		cfg.MaxRetries = DefaultMaxRetries
	case cfg.MaxRetries < 0:
		cfg.MaxRetries = 0
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = DefaultInitialBackoff
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = DefaultMaxBackoff
	}
	if cfg.MaxBackoff < cfg.InitialBackoff {
		cfg.MaxBackoff = cfg.InitialBackoff
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	return cfg
}
