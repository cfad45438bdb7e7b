package tagindex

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestWriterProgress(t *testing.T) {
	var buf bytes.Buffer
	p := NewWriterProgress(ProgressConfig{Writer: &buf})

	p.Start("ros/catkin", 3, 2)
	p.Resolved("0123456789abcdef")
	p.Resolved("fedcba9876543210")
	p.Skipped("v0.1", errors.New("not found"))
	p.Complete(2)

	out := buf.String()
	for _, want := range []string{
		"Indexing ros/catkin: 3 tag(s), 2 commit(s)",
		"[2/2] fedcba9",
		"Skipped: v0.1: not found",
		"Indexed ros/catkin: 2 tag(s), 1 skipped",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestCallbackProgress(t *testing.T) {
	var events []ProgressEvent
	cp := NewCallbackProgress(func(e ProgressEvent) {
		events = append(events, e)
	})

	cp.Start("ros/catkin", 4, 2)
	cp.Resolved("a")
	cp.Resolved("b")
	cp.Complete(4)

	if len(events) != 4 {
		t.Fatalf("expected 4 events, got %d", len(events))
	}
	if events[2].Current != 2 || events[2].Total != 2 {
		t.Errorf("unexpected counters %+v", events[2])
	}
	if events[3].Type != ProgressEventComplete || events[3].Repo != "ros/catkin" {
		t.Errorf("unexpected complete event %+v", events[3])
	}
}

func TestShortSHA(t *testing.T) {
	if got := shortSHA("abc"); got != "abc" {
		t.Errorf("shortSHA(abc) = %q", got)
	}
	if got := shortSHA("0123456789"); got != "0123456" {
		t.Errorf("shortSHA = %q", got)
	}
}
