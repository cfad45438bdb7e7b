package model

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestParseRepoRef(t *testing.T) {
	tests := []struct {
		in      string
		want    RepoRef
		wantErr bool
	}{
		{"ros/catkin", RepoRef{Owner: "ros", Name: "catkin"}, false},
		{"https://github.com/ros/catkin", RepoRef{Owner: "ros", Name: "catkin"}, false},
		{"https://github.com/ros/catkin.git", RepoRef{Owner: "ros", Name: "catkin"}, false},
		{"https://github.com/ros/catkin/", RepoRef{Owner: "ros", Name: "catkin"}, false},
		{"git@github.com:ros/catkin.git", RepoRef{Owner: "ros", Name: "catkin"}, false},
		{"git+https://github.com/ros/catkin.git", RepoRef{Owner: "ros", Name: "catkin"}, false},
		{"github.com/ros/catkin", RepoRef{Owner: "ros", Name: "catkin"}, false},
		{"", RepoRef{}, true},
		{"catkin", RepoRef{}, true},
		{"https://gitlab.com/ros/catkin", RepoRef{}, true},
		{"ros/catkin/extra", RepoRef{}, true},
		{"mirror/github.com/catkin", RepoRef{}, true},
		{"https://gitlab.com/github.com/catkin", RepoRef{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRepoRef(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q, got %v", tt.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestRepoRef_URLs(t *testing.T) {
	r := RepoRef{Owner: "ros", Name: "catkin"}
	if r.FullName() != "ros/catkin" {
		t.Errorf("unexpected full name %s", r.FullName())
	}
	if r.CloneURL() != "https://github.com/ros/catkin.git" {
		t.Errorf("unexpected clone URL %s", r.CloneURL())
	}
}

func TestNewCommitRef_Normalizes(t *testing.T) {
	loc := time.FixedZone("X", 3600)
	c := NewCommitRef("abc", time.Date(2020, 1, 1, 10, 0, 0, 999, loc))
	if c.Timestamp.Location() != time.UTC {
		t.Errorf("expected UTC, got %v", c.Timestamp.Location())
	}
	if c.Timestamp.Nanosecond() != 0 {
		t.Errorf("expected second precision, got %d ns", c.Timestamp.Nanosecond())
	}
	if c.Timestamp.Hour() != 9 {
		t.Errorf("expected hour 9 UTC, got %d", c.Timestamp.Hour())
	}
}

func TestTagRecord_Compare(t *testing.T) {
	ts := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	a := TagRecord{Name: "v1.0", Commit: CommitRef{Timestamp: ts}}
	b := TagRecord{Name: "v1.0-rc1", Commit: CommitRef{Timestamp: ts}}
	c := TagRecord{Name: "v0.9", Commit: CommitRef{Timestamp: ts.Add(time.Second)}}

	if a.Compare(b) >= 0 {
		t.Error("expected v1.0 < v1.0-rc1 on equal timestamps")
	}
	if b.Compare(c) >= 0 {
		t.Error("expected earlier timestamp to sort first")
	}
	if a.Compare(a) != 0 {
		t.Error("expected record to equal itself")
	}
}

func TestTarget_Validate(t *testing.T) {
	if err := AtCommit("abc").Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := (Target{}).Validate(); !IsKind(err, KindInvalidInput) {
		t.Errorf("expected invalid input for empty target, got %v", err)
	}
	both := Target{At: time.Now(), Tag: "v1"}
	if err := both.Validate(); !IsKind(err, KindInvalidInput) {
		t.Errorf("expected invalid input for two fields, got %v", err)
	}
}

func TestError_KindAndUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := fmt.Errorf("wrapped: %w", &Error{
		Kind:  KindRateLimited,
		Op:    "list tags",
		Repo:  RepoRef{Owner: "o", Name: "r"},
		Pages: 1,
		Err:   cause,
	})

	if KindOf(err) != KindRateLimited {
		t.Errorf("expected RATE_LIMITED, got %s", KindOf(err))
	}
	if !errors.Is(err, cause) {
		t.Error("expected errors.Is to find the cause")
	}
	if PagesFetched(err) != 1 {
		t.Errorf("expected 1 page, got %d", PagesFetched(err))
	}
	if !strings.Contains(err.Error(), "after 1 page(s)") {
		t.Errorf("expected page count in message, got %q", err.Error())
	}
	if KindOf(cause) != "" {
		t.Error("plain errors should have no kind")
	}
	if IsKind(nil, KindNotFound) {
		t.Error("nil should not match any kind")
	}
}

func TestKind_Retryable(t *testing.T) {
	retryable := map[Kind]bool{
		KindNotFound:           false,
		KindRateLimited:        true,
		KindTransientNetwork:   true,
		KindUnexpectedResponse: false,
		KindNoReleaseAvailable: false,
		KindConfiguration:      false,
		KindInvalidInput:       false,
	}
	for k, want := range retryable {
		if k.Retryable() != want {
			t.Errorf("%s: expected retryable=%v", k, want)
		}
	}
}

func TestDescribe(t *testing.T) {
	repo := RepoRef{Owner: "o", Name: "r"}
	if got := Describe(NewError(KindNoReleaseAvailable, "resolve", repo, nil)); !strings.Contains(got, "no release existed") {
		t.Errorf("unexpected message %q", got)
	}
	if got := Describe(context.Canceled); got != "resolution cancelled" {
		t.Errorf("unexpected message %q", got)
	}
	if got := Describe(errors.New("plain")); got != "plain" {
		t.Errorf("unexpected message %q", got)
	}
}

func TestManifestEntryFor(t *testing.T) {
	res := ResolutionResult{
		Repo: RepoRef{Owner: "ros", Name: "catkin"},
		Tag:  "0.7.1",
	}
	e := ManifestEntryFor("", res)
	if e.LocalName != "catkin" || e.Version != "0.7.1" || e.URI != "https://github.com/ros/catkin.git" {
		t.Errorf("unexpected entry %+v", e)
	}
	if ManifestEntryFor("my_catkin", res).LocalName != "my_catkin" {
		t.Error("expected explicit local name to be kept")
	}
}
