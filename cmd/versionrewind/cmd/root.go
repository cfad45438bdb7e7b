package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/grokify/versionrewind/internal/config"
	"github.com/grokify/versionrewind/pkg/model"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "versionrewind",
	Short: "Find the releases that were current at a point in time",
	Long: `VersionRewind reconstructs which tagged release of a GitHub repository was
the most recent one at a given moment, using only the hosting provider's tag
and commit metadata. No repository is cloned.

Features:
  - Resolve the latest release at a date, instant, commit or tag
  - List a repository's tags in commit order
  - Recreate a rosinstall manifest pinning a project and its dependencies
    as they were at a given commit`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := charmlog.InfoLevel
		if viper.GetBool(config.KeyVerbose) {
			level = charmlog.DebugLevel
		}
		logger := newLogger(os.Stderr, level)
		if used := viper.ConfigFileUsed(); used != "" {
			logger.Debug("using config file", "path", used)
		}
		cmd.SetContext(withLogger(cmd.Context(), logger))
	},
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", model.Describe(err))
	}
	return exitCode(err)
}

// exitCode maps a command error to the process exit status: 0 on success,
// 2 when no release existed at the requested time, 130 on interrupt and 1
// otherwise.
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, context.Canceled):
		return 130
	case model.IsKind(err, model.KindNoReleaseAvailable):
		return 2
	default:
		return 1
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.versionrewind.yaml)")
	flags.String("token", "", "GitHub token (or set VERSIONREWIND_TOKEN / GITHUB_TOKEN)")
	flags.String("token-file", "", "file holding the GitHub token (default $XDG_CONFIG_HOME/versionrewind/token)")
	flags.String("base-url", "", "GitHub API base URL, for GitHub Enterprise")
	flags.String("format", "table", "Output format: table, json, markdown, csv")
	flags.BoolP("verbose", "v", false, "Enable verbose output")

	flags.Int("concurrency", 0, "Maximum concurrent commit lookups (default 8)")
	flags.Int("max-retries", 0, "Retries for rate-limited or transient failures (default 3, 0 disables)")
	flags.Duration("initial-backoff", 0, "Delay before the first retry (default 1s)")
	flags.Duration("max-backoff", 0, "Maximum delay between retries (default 30s)")
	flags.Duration("request-timeout", 0, "Timeout for each API request (default 30s)")
	flags.Int("per-page", 0, "Tags requested per page (default 100)")
	flags.Float64("requests-per-second", 0, "Client-side request rate limit (0 = unlimited)")
	flags.Int("burst", 0, "Rate limiter burst size (default 1)")

	flags.Bool("lenient", false, "Skip tags whose commit cannot be found instead of failing")
	flags.Bool("semver-only", false, "Only count semantic-version tags as releases")
	flags.Bool("include-prereleases", false, "With --semver-only, also count prereleases")
	flags.String("tag-pattern", "", "Only count tags matching this regular expression")

	flags.String("cache", "", "Commit cache backend: none, memory, file, redis (default file)")
	flags.String("cache-dir", "", "Directory for the file cache")
	flags.Duration("cache-ttl", 0, "Cache entry lifetime (default 720h)")
	flags.String("redis-addr", "", "Redis address for the redis cache (default localhost:6379)")

	// Bind flags to viper
	bind := map[string]string{
		config.KeyToken:              "token",
		config.KeyTokenFile:          "token-file",
		config.KeyBaseURL:            "base-url",
		config.KeyFormat:             "format",
		config.KeyVerbose:            "verbose",
		config.KeyConcurrency:        "concurrency",
		config.KeyMaxRetries:         "max-retries",
		config.KeyInitialBackoff:     "initial-backoff",
		config.KeyMaxBackoff:         "max-backoff",
		config.KeyRequestTimeout:     "request-timeout",
		config.KeyPerPage:            "per-page",
		config.KeyRequestsPerSecond:  "requests-per-second",
		config.KeyBurst:              "burst",
		config.KeyLenient:            "lenient",
		config.KeySemverOnly:         "semver-only",
		config.KeyIncludePrereleases: "include-prereleases",
		config.KeyTagPattern:         "tag-pattern",
		config.KeyCacheBackend:       "cache",
		config.KeyCacheDir:           "cache-dir",
		config.KeyCacheTTL:           "cache-ttl",
		config.KeyRedisAddr:          "redis-addr",
	}
	for key, flag := range bind {
		_ = viper.BindPFlag(key, flags.Lookup(flag))
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if err := config.LoadDotEnv(""); err != nil {
		fmt.Fprintln(os.Stderr, "Warning:", err)
	}

	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".versionrewind" (without extension).
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".versionrewind")
	}

	v := viper.GetViper()
	config.SetDefaults(v)
	config.BindEnv(v)

	// If a config file is found, read it in.
	_ = viper.ReadInConfig()
}
