package hosting

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/grokify/versionrewind/internal/cache"
	"github.com/grokify/versionrewind/pkg/model"
)

// CachedClient serves commit lookups from a cache. Only lookups by full
// SHA are cached, since a commit never changes once written. Tag lists are
// always fetched, because tags can be moved or deleted upstream.
type CachedClient struct {
	Client
	store cache.Store
}

// NewCachedClient wraps c with a commit cache backed by store.
func NewCachedClient(c Client, store cache.Store) *CachedClient {
	return &CachedClient{Client: c, store: store}
}

// FetchCommit returns the cached commit for full SHAs, fetching on a miss.
func (c *CachedClient) FetchCommit(ctx context.Context, repo model.RepoRef, sha string) (model.CommitRef, error) {
	if IsFullSHA(sha) {
		if data, ok := c.store.Get(ctx, CommitCacheKey(repo, sha)); ok {
			var ref model.CommitRef
			if err := json.Unmarshal(data, &ref); err == nil && !ref.Timestamp.IsZero() {
				return ref, nil
			}
		}
	}

	ref, err := c.Client.FetchCommit(ctx, repo, sha)
	if err != nil {
		return model.CommitRef{}, err
	}

	if IsFullSHA(ref.SHA) {
		if data, err := json.Marshal(ref); err == nil {
			_ = c.store.Set(ctx, CommitCacheKey(repo, ref.SHA), data)
		}
	}
	return ref, nil
}

// FetchTagSHA delegates to the wrapped client when it supports tag lookups.
func (c *CachedClient) FetchTagSHA(ctx context.Context, repo model.RepoRef, tagName string) (string, error) {
	tr, ok := c.Client.(TagResolver)
	if !ok {
		return "", model.NewError(model.KindConfiguration, "fetch tag", repo,
			errors.New("client does not support tag lookups"))
	}
	return tr.FetchTagSHA(ctx, repo, tagName)
}

// CommitCacheKey returns the cache key of a commit looked up by full SHA.
func CommitCacheKey(repo model.RepoRef, sha string) string {
	return fmt.Sprintf("commit:%s:%s", repo.FullName(), strings.ToLower(sha))
}

// IsFullSHA reports whether s is a full SHA-1 or SHA-256 hex object name.
func IsFullSHA(s string) bool {
	if len(s) != 40 && len(s) != 64 {
		return false
	}
	for _, ch := range s {
		switch {
		case ch >= '0' && ch <= '9', ch >= 'a' && ch <= 'f', ch >= 'A' && ch <= 'F':
		default:
			return false
		}
	}
	return true
}
