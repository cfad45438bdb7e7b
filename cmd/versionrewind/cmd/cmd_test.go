package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"

	"github.com/grokify/versionrewind/internal/cache"
	"github.com/grokify/versionrewind/internal/config"
	"github.com/grokify/versionrewind/internal/hosting"
	"github.com/grokify/versionrewind/pkg/model"
)

func TestParseTarget(t *testing.T) {
	tests := []struct {
		name                  string
		date, at, commit, tag string
		want                  model.Target
		wantErr               bool
	}{
		{name: "date is end of day", date: "2020-04-15",
			want: model.Target{At: time.Date(2020, 4, 15, 23, 59, 59, 0, time.UTC)}},
		{name: "instant normalized to UTC", at: "2020-04-15T12:00:00+02:00",
			want: model.Target{At: time.Date(2020, 4, 15, 10, 0, 0, 0, time.UTC)}},
		{name: "commit", commit: "abc1234", want: model.Target{Commit: "abc1234"}},
		{name: "tag", tag: "v1.1", want: model.Target{Tag: "v1.1"}},
		{name: "bad date", date: "15/04/2020", wantErr: true},
		{name: "bad instant", at: "2020-04-15", wantErr: true},
		{name: "nothing", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseTarget(tt.date, tt.at, tt.commit, tt.tag)
			if tt.wantErr {
				if !model.IsKind(err, model.KindInvalidInput) {
					t.Errorf("expected INVALID_INPUT, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseTarget failed: %v", err)
			}
			if !got.At.Equal(tt.want.At) || got.Commit != tt.want.Commit || got.Tag != tt.want.Tag {
				t.Errorf("parseTarget = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestEndOfDay(t *testing.T) {
	day := time.Date(2020, 2, 29, 8, 30, 0, 0, time.UTC)
	if got := endOfDay(day); !got.Equal(time.Date(2020, 2, 29, 23, 59, 59, 0, time.UTC)) {
		t.Errorf("endOfDay = %s", got)
	}
}

func TestParseRepos(t *testing.T) {
	repos, err := parseRepos([]string{"ros/catkin", "https://github.com/ros/genmsg.git"})
	if err != nil {
		t.Fatalf("parseRepos failed: %v", err)
	}
	if len(repos) != 2 || repos[1].FullName() != "ros/genmsg" {
		t.Errorf("unexpected repos %v", repos)
	}

	if _, err := parseRepos([]string{"ros/catkin", ""}); !model.IsKind(err, model.KindInvalidInput) {
		t.Errorf("expected INVALID_INPUT, got %v", err)
	}
}

func TestExitCode(t *testing.T) {
	repo := model.RepoRef{Owner: "ros", Name: "catkin"}
	tests := []struct {
		err  error
		want int
	}{
		{nil, 0},
		{model.NewError(model.KindNoReleaseAvailable, "resolve", repo, nil), 2},
		{fmt.Errorf("run: %w", context.Canceled), 130},
		{model.NewError(model.KindRateLimited, "list tags", repo, nil), 1},
		{errors.New("boom"), 1},
	}
	for _, tt := range tests {
		if got := exitCode(tt.err); got != tt.want {
			t.Errorf("exitCode(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestWriteOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")
	if err := writeOutput(path, "hello"); err != nil {
		t.Fatalf("writeOutput failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "hello" {
		t.Errorf("unexpected content %q", data)
	}
}

func TestCacheDelete(t *testing.T) {
	dir := t.TempDir()
	viper.Set(config.KeyCacheBackend, config.CacheFile)
	viper.Set(config.KeyCacheDir, dir)
	t.Cleanup(func() {
		viper.Set(config.KeyCacheBackend, nil)
		viper.Set(config.KeyCacheDir, nil)
	})

	ctx := context.Background()
	repo := model.RepoRef{Owner: "ros", Name: "catkin"}
	sha := "0123456789abcdef0123456789abcdef01234567"
	key := hosting.CommitCacheKey(repo, sha)

	c, err := cache.New(cache.Config{Dir: dir})
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Set(ctx, key, []byte(`{}`)); err != nil {
		t.Fatal(err)
	}

	cmd := newCacheDeleteCmd()
	cmd.SetContext(ctx)
	if err := cmd.RunE(cmd, []string{"ros/catkin", sha}); err != nil {
		t.Fatalf("cache delete failed: %v", err)
	}

	reopened, err := cache.New(cache.Config{Dir: dir})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := reopened.Get(ctx, key); ok {
		t.Error("expected entry to be removed")
	}

	if err := cmd.RunE(cmd, []string{"ros/catkin", "0123456"}); !model.IsKind(err, model.KindInvalidInput) {
		t.Errorf("expected INVALID_INPUT for abbreviated SHA, got %v", err)
	}
}
