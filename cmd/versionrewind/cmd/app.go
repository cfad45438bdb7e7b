package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/viper"

	"github.com/grokify/versionrewind/internal/config"
	"github.com/grokify/versionrewind/internal/hosting"
	"github.com/grokify/versionrewind/internal/report"
	"github.com/grokify/versionrewind/internal/resolver"
	"github.com/grokify/versionrewind/internal/tagindex"
	"github.com/grokify/versionrewind/pkg/model"
)

// app holds the components shared by the API-backed commands.
type app struct {
	settings   config.Settings
	logger     *log.Logger
	resolver   *resolver.Resolver
	formatter  report.Formatter
	closeCache func() error
}

// newApp loads settings and builds the client stack. The token is checked
// before any network access.
func newApp(ctx context.Context) (*app, error) {
	logger := loggerFromContext(ctx)
	settings := config.Load(viper.GetViper())

	formatter, err := report.New(settings.Format)
	if err != nil {
		return nil, model.NewError(model.KindConfiguration, "format", model.RepoRef{}, err)
	}

	token, err := settings.ResolveToken()
	if err != nil {
		return nil, err
	}

	filter, err := settings.TagFilter()
	if err != nil {
		return nil, err
	}

	gh, err := hosting.NewGitHubClient(settings.HostingConfig(token))
	if err != nil {
		return nil, err
	}

	store, closeCache, err := settings.OpenCache()
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}

	var client hosting.Client = gh
	if store != nil {
		client = hosting.NewCachedClient(gh, store)
	}

	logger.Debug("configured",
		"concurrency", settings.Concurrency,
		"max_retries", settings.MaxRetries,
		"cache", settings.Cache.Backend,
		"lenient", settings.Lenient,
		"filter", filter.String(),
	)

	res := resolver.New(client, resolver.Config{
		Concurrency: settings.Concurrency,
		Lenient:     settings.Lenient,
		Filter:      filter,
		NewProgress: func(model.RepoRef) tagindex.Progress {
			return logProgress(logger)
		},
	})

	return &app{
		settings:   settings,
		logger:     logger,
		resolver:   res,
		formatter:  formatter,
		closeCache: closeCache,
	}, nil
}

func (a *app) Close() {
	if err := a.closeCache(); err != nil {
		a.logger.Warn("failed to close cache", "err", err)
	}
}

// parseRepos parses repository arguments.
func parseRepos(args []string) ([]model.RepoRef, error) {
	repos := make([]model.RepoRef, 0, len(args))
	for _, arg := range args {
		repo, err := model.ParseRepoRef(arg)
		if err != nil {
			return nil, model.NewError(model.KindInvalidInput, "parse repository", model.RepoRef{}, err)
		}
		repos = append(repos, repo)
	}
	return repos, nil
}

// writeOutput writes output to path, or stdout when path is empty.
func writeOutput(path, output string) error {
	if path == "" {
		fmt.Println(output)
		return nil
	}
	if err := os.WriteFile(filepath.Clean(path), []byte(output), 0600); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
