package hosting

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/go-github/v84/github"
	"github.com/grokify/gogithub/tag"
	"golang.org/x/time/rate"

	"github.com/grokify/versionrewind/pkg/model"
)

// GitHubClient implements Client and TagResolver against the GitHub REST API.
type GitHubClient struct {
	client  *github.Client
	cfg     Config
	limiter *rate.Limiter
}

// NewGitHubClient creates a GitHub client. The token is taken from cfg and
// never read from the environment.
func NewGitHubClient(cfg Config) (*GitHubClient, error) {
	cfg = cfg.withDefaults()

	client := github.NewClient(newHTTPClient(cfg))
	if cfg.BaseURL != "" {
		base := cfg.BaseURL
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		u, err := url.Parse(base)
		if err != nil {
			return nil, model.NewError(model.KindConfiguration, "parse base URL", model.RepoRef{}, err)
		}
		client.BaseURL = u
	}

	return &GitHubClient{
		client:  client,
		cfg:     cfg,
		limiter: newLimiter(cfg),
	}, nil
}

// FetchCommit resolves sha to its committer timestamp.
func (c *GitHubClient) FetchCommit(ctx context.Context, repo model.RepoRef, sha string) (model.CommitRef, error) {
	const op = "fetch commit"

	sha = strings.TrimSpace(sha)
	if sha == "" {
		return model.CommitRef{}, model.NewError(model.KindInvalidInput, op, repo, errors.New("commit SHA is required"))
	}

	var rc *github.RepositoryCommit
	err := c.do(ctx, op, repo, func(ctx context.Context) error {
		commit, _, err := c.client.Repositories.GetCommit(ctx, repo.Owner, repo.Name, sha, nil)
		if err != nil {
			return err
		}
		rc = commit
		return nil
	})
	if err != nil {
		return model.CommitRef{}, err
	}

	return commitRefFrom(op, repo, sha, rc)
}

// commitRefFrom extracts the commit timestamp, preferring the committer
// date and falling back to the author date.
func commitRefFrom(op string, repo model.RepoRef, sha string, rc *github.RepositoryCommit) (model.CommitRef, error) {
	if rc == nil || rc.Commit == nil {
		return model.CommitRef{}, model.NewError(model.KindUnexpectedResponse, op, repo,
			fmt.Errorf("commit %s: response has no commit object", sha))
	}

	ts := rc.GetCommit().GetCommitter().GetDate().Time
	if ts.IsZero() {
		ts = rc.GetCommit().GetAuthor().GetDate().Time
	}
	if ts.IsZero() {
		return model.CommitRef{}, model.NewError(model.KindUnexpectedResponse, op, repo,
			fmt.Errorf("commit %s: response has no commit date", sha))
	}

	full := rc.GetSHA()
	if full == "" {
		full = sha
	}
	return model.NewCommitRef(full, ts), nil
}

// FetchAllTags pages through /repos/{owner}/{repo}/tags until an empty page.
func (c *GitHubClient) FetchAllTags(ctx context.Context, repo model.RepoRef) ([]model.RawTag, error) {
	const op = "list tags"

	tags := []model.RawTag{}
	opts := &github.ListOptions{PerPage: c.cfg.PerPage}

	for page := 1; ; page++ {
		opts.Page = page

		var batch []*github.RepositoryTag
		err := c.do(ctx, op, repo, func(ctx context.Context) error {
			ghTags, _, err := c.client.Repositories.ListTags(ctx, repo.Owner, repo.Name, opts)
			if err != nil {
				return err
			}
			batch = ghTags
			return nil
		})
		if err != nil {
			return nil, withPages(err, page-1)
		}

		if len(batch) == 0 {
			return tags, nil
		}

		for _, t := range batch {
			name, sha := t.GetName(), t.GetCommit().GetSHA()
			if name == "" || sha == "" {
				e := model.NewError(model.KindUnexpectedResponse, op, repo,
					fmt.Errorf("page %d: tag entry without name or commit SHA", page))
				e.Pages = page - 1
				return nil, e
			}
			tags = append(tags, model.RawTag{Name: name, SHA: sha})
		}
	}
}

// FetchTagSHA returns the commit SHA a tag points to.
func (c *GitHubClient) FetchTagSHA(ctx context.Context, repo model.RepoRef, tagName string) (string, error) {
	const op = "fetch tag"

	if strings.TrimSpace(tagName) == "" {
		return "", model.NewError(model.KindInvalidInput, op, repo, errors.New("tag name is required"))
	}

	var sha string
	err := c.do(ctx, op, repo, func(ctx context.Context) error {
		s, err := tag.GetTagSHA(ctx, c.client, repo.Owner, repo.Name, tagName)
		if err != nil {
			return err
		}
		sha = s
		return nil
	})
	if err != nil {
		return "", err
	}
	if sha == "" {
		return "", model.NewError(model.KindUnexpectedResponse, op, repo,
			fmt.Errorf("tag %s: response has no commit SHA", tagName))
	}
	return sha, nil
}
