// Package config loads runtime settings from flags, environment, config
// files and the token file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/grokify/versionrewind/internal/cache"
	"github.com/grokify/versionrewind/internal/hosting"
	"github.com/grokify/versionrewind/internal/tagfilter"
	"github.com/grokify/versionrewind/internal/tagindex"
	"github.com/grokify/versionrewind/pkg/model"
)

// EnvPrefix prefixes environment variables, e.g. VERSIONREWIND_TOKEN.
const EnvPrefix = "VERSIONREWIND"

// Setting keys, shared by flags, config file and environment.
const (
	KeyToken              = "token"
	KeyTokenFile          = "token-file"
	KeyBaseURL            = "base-url"
	KeyConcurrency        = "concurrency"
	KeyMaxRetries         = "max-retries"
	KeyInitialBackoff     = "initial-backoff"
	KeyMaxBackoff         = "max-backoff"
	KeyRequestTimeout     = "request-timeout"
	KeyPerPage            = "per-page"
	KeyRequestsPerSecond  = "requests-per-second"
	KeyBurst              = "burst"
	KeyLenient            = "lenient"
	KeySemverOnly         = "semver-only"
	KeyIncludePrereleases = "include-prereleases"
	KeyTagPattern         = "tag-pattern"
	KeyCacheBackend       = "cache.backend"
	KeyCacheDir           = "cache.dir"
	KeyCacheTTL           = "cache.ttl"
	KeyRedisAddr          = "cache.redis-addr"
	KeyRedisPassword      = "cache.redis-password"
	KeyRedisDB            = "cache.redis-db"
	KeyFormat             = "format"
	KeyVerbose            = "verbose"
)

// Cache backends.
const (
	CacheNone   = "none"
	CacheMemory = "memory"
	CacheFile   = "file"
	CacheRedis  = "redis"
)

// Settings holds the resolved runtime configuration.
type Settings struct {
	Token     string
	TokenFile string
	BaseURL   string

	Concurrency       int
	MaxRetries        int
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	RequestTimeout    time.Duration
	PerPage           int
	RequestsPerSecond float64
	Burst             int

	Lenient            bool
	SemverOnly         bool
	IncludePrereleases bool
	TagPattern         string

	Cache CacheSettings

	Format  string
	Verbose bool
}

// CacheSettings selects and configures the commit cache.
type CacheSettings struct {
	Backend       string
	Dir           string
	TTL           time.Duration
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyConcurrency, tagindex.DefaultConcurrency)
	v.SetDefault(KeyMaxRetries, hosting.DefaultMaxRetries)
	v.SetDefault(KeyInitialBackoff, hosting.DefaultInitialBackoff)
	v.SetDefault(KeyMaxBackoff, hosting.DefaultMaxBackoff)
	v.SetDefault(KeyRequestTimeout, hosting.DefaultRequestTimeout)
	v.SetDefault(KeyPerPage, hosting.DefaultPerPage)
	v.SetDefault(KeyBurst, 1)
	v.SetDefault(KeyCacheBackend, CacheFile)
	v.SetDefault(KeyCacheTTL, cache.DefaultTTL)
	v.SetDefault(KeyRedisAddr, "localhost:6379")
	v.SetDefault(KeyFormat, "table")
}

// BindEnv enables environment lookup with the VERSIONREWIND_ prefix.
// Dashes and dots in keys become underscores.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
}

// Load reads Settings from v.
func Load(v *viper.Viper) Settings {
	return Settings{
		Token:              strings.TrimSpace(v.GetString(KeyToken)),
		TokenFile:          v.GetString(KeyTokenFile),
		BaseURL:            v.GetString(KeyBaseURL),
		Concurrency:        v.GetInt(KeyConcurrency),
		MaxRetries:         v.GetInt(KeyMaxRetries),
		InitialBackoff:     v.GetDuration(KeyInitialBackoff),
		MaxBackoff:         v.GetDuration(KeyMaxBackoff),
		RequestTimeout:     v.GetDuration(KeyRequestTimeout),
		PerPage:            v.GetInt(KeyPerPage),
		RequestsPerSecond:  v.GetFloat64(KeyRequestsPerSecond),
		Burst:              v.GetInt(KeyBurst),
		Lenient:            v.GetBool(KeyLenient),
		SemverOnly:         v.GetBool(KeySemverOnly),
		IncludePrereleases: v.GetBool(KeyIncludePrereleases),
		TagPattern:         v.GetString(KeyTagPattern),
		Cache: CacheSettings{
			Backend:       strings.ToLower(v.GetString(KeyCacheBackend)),
			Dir:           v.GetString(KeyCacheDir),
			TTL:           v.GetDuration(KeyCacheTTL),
			RedisAddr:     v.GetString(KeyRedisAddr),
			RedisPassword: v.GetString(KeyRedisPassword),
			RedisDB:       v.GetInt(KeyRedisDB),
		},
		Format:  v.GetString(KeyFormat),
		Verbose: v.GetBool(KeyVerbose),
	}
}

// LoadDotEnv loads variables from a .env file into the process
// environment. Variables already set are not overridden; a missing file
// is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// DefaultTokenFile returns $XDG_CONFIG_HOME/versionrewind/token, falling
// back to the user config directory.
func DefaultTokenFile() string {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return ""
		}
		base = dir
	}
	return filepath.Join(base, "versionrewind", "token")
}

// ResolveToken returns the API token. Sources, in order: the token setting
// (flag, config file or VERSIONREWIND_TOKEN), GITHUB_TOKEN, then the token
// file. No token is a KindConfiguration error.
func (s Settings) ResolveToken() (string, error) {
	if s.Token != "" {
		return s.Token, nil
	}
	if token := strings.TrimSpace(os.Getenv("GITHUB_TOKEN")); token != "" {
		return token, nil
	}

	path := s.TokenFile
	if path == "" {
		path = DefaultTokenFile()
	}
	if path != "" {
		data, err := os.ReadFile(filepath.Clean(path)) // #nosec G304
		switch {
		case err == nil:
			if token := strings.TrimSpace(string(data)); token != "" {
				return token, nil
			}
		case !errors.Is(err, fs.ErrNotExist):
			return "", model.NewError(model.KindConfiguration, "read token", model.RepoRef{},
				fmt.Errorf("token file %s: %w", path, err))
		}
	}

	return "", model.NewError(model.KindConfiguration, "read token", model.RepoRef{},
		fmt.Errorf("no GitHub token: use --token, set %s_TOKEN or GITHUB_TOKEN, or write it to %s", EnvPrefix, path))
}

// HostingConfig returns the client configuration for token. A MaxRetries
// setting of zero or less disables retries.
func (s Settings) HostingConfig(token string) hosting.Config {
	retries := s.MaxRetries
	if retries <= 0 {
		retries = hosting.NoRetries
	}
	return hosting.Config{
		Token:             token,
		BaseURL:           s.BaseURL,
		PerPage:           s.PerPage,
		MaxRetries:        retries,
		InitialBackoff:    s.InitialBackoff,
		MaxBackoff:        s.MaxBackoff,
		RequestTimeout:    s.RequestTimeout,
		RequestsPerSecond: s.RequestsPerSecond,
		Burst:             s.Burst,
	}
}

// TagFilter compiles the tag filter settings.
func (s Settings) TagFilter() (*tagfilter.Filter, error) {
	f, err := tagfilter.New(tagfilter.Options{
		SemverOnly:         s.SemverOnly,
		IncludePrereleases: s.IncludePrereleases,
		Pattern:            s.TagPattern,
	})
	if err != nil {
		return nil, model.NewError(model.KindConfiguration, "tag filter", model.RepoRef{}, err)
	}
	return f, nil
}

// OpenCache opens the configured commit cache. It returns a nil Store for
// the "none" backend. The returned close function is never nil.
func (s Settings) OpenCache() (cache.Store, func() error, error) {
	noop := func() error { return nil }

	switch s.Cache.Backend {
	case CacheNone:
		return nil, noop, nil
	case CacheMemory:
		c, err := cache.New(cache.Config{MemoryOnly: true, TTL: s.Cache.TTL})
		if err != nil {
			return nil, noop, err
		}
		return c, noop, nil
	case CacheFile, "":
		c, err := cache.New(cache.Config{Dir: s.Cache.Dir, TTL: s.Cache.TTL})
		if err != nil {
			return nil, noop, err
		}
		return c, noop, nil
	case CacheRedis:
		r, err := cache.NewRedisStore(cache.RedisConfig{
			Addr:     s.Cache.RedisAddr,
			Password: s.Cache.RedisPassword,
			Database: s.Cache.RedisDB,
			TTL:      s.Cache.TTL,
		})
		if err != nil {
			return nil, noop, err
		}
		return r, r.Close, nil
	default:
		return nil, noop, model.NewError(model.KindConfiguration, "open cache", model.RepoRef{},
			fmt.Errorf("unknown cache backend %q", s.Cache.Backend))
	}
}
