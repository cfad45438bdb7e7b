package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/grokify/versionrewind/internal/cache"
	"github.com/grokify/versionrewind/internal/config"
	"github.com/grokify/versionrewind/internal/hosting"
	"github.com/grokify/versionrewind/pkg/model"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the commit cache",
	Long: `Manage the on-disk cache of commit timestamps. Commits never change, so
cached lookups stay valid until their TTL expires. The redis backend manages
expiry itself and is not handled here.`,
}

func init() {
	rootCmd.AddCommand(cacheCmd)

	cacheCmd.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Show cache statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openFileCache()
			if err != nil {
				return err
			}
			stats := c.Stats(cmd.Context())
			fmt.Printf("Directory: %s\n", stats.Dir)
			fmt.Printf("Entries:   %d\n", stats.FileEntries)
			fmt.Printf("Size:      %d KB\n", stats.TotalSizeKB)
			return nil
		},
	})

	cacheCmd.AddCommand(&cobra.Command{
		Use:   "prune",
		Short: "Remove expired cache entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openFileCache()
			if err != nil {
				return err
			}
			n, err := c.Prune(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to prune cache: %w", err)
			}
			loggerFromContext(cmd.Context()).Info("pruned cache", "entries", n, "dir", c.Dir())
			return nil
		},
	})

	cacheCmd.AddCommand(newCacheDeleteCmd())

	cacheCmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove all cache entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openFileCache()
			if err != nil {
				return err
			}
			if err := c.Clear(cmd.Context()); err != nil {
				return fmt.Errorf("failed to clear cache: %w", err)
			}
			loggerFromContext(cmd.Context()).Info("cleared cache", "dir", c.Dir())
			return nil
		},
	})
}

func newCacheDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <repo> <sha>",
		Short: "Remove one cached commit",
		Long: `Remove the cached lookup of one commit, so the next resolution fetches it
again. The SHA must be the full commit SHA.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			repos, err := parseRepos(args[:1])
			if err != nil {
				return err
			}
			sha := args[1]
			if !hosting.IsFullSHA(sha) {
				return model.NewError(model.KindInvalidInput, "cache delete", repos[0],
					fmt.Errorf("%q is not a full commit SHA", sha))
			}

			c, err := openFileCache()
			if err != nil {
				return err
			}
			if err := c.Delete(cmd.Context(), hosting.CommitCacheKey(repos[0], sha)); err != nil {
				return fmt.Errorf("failed to delete cache entry: %w", err)
			}
			loggerFromContext(cmd.Context()).Info("deleted cache entry", "repo", repos[0].FullName(), "sha", sha)
			return nil
		},
	}
}

// openFileCache opens the file cache selected by the settings.
func openFileCache() (*cache.Cache, error) {
	settings := config.Load(viper.GetViper())
	switch settings.Cache.Backend {
	case config.CacheFile, "":
	default:
		return nil, fmt.Errorf("cache commands need the file backend, not %q", settings.Cache.Backend)
	}
	return cache.New(cache.Config{Dir: settings.Cache.Dir, TTL: settings.Cache.TTL})
}
