package activity

import (
	"context"
	"testing"
	"time"
)

type recordingHook struct {
	events []Event
}

func (h *recordingHook) Notify(_ context.Context, evt Event) {
	h.events = append(h.events, evt)
}

func TestHooksNotifyFanOut(t *testing.T) {
	a := &recordingHook{}
	b := &recordingHook{}
	hooks := Hooks{a, nil, b}

	hooks.Notify(context.Background(), Event{Verb: "decision.allow", UserID: "u1"})

	if len(a.events) != 1 || len(b.events) != 1 {
		t.Fatalf("expected both hooks notified, got a=%d b=%d", len(a.events), len(b.events))
	}
	if a.events[0].OccurredAt.IsZero() {
		t.Fatalf("expected OccurredAt to be stamped when absent")
	}
}

func TestHooksNotifyPreservesExplicitOccurredAt(t *testing.T) {
	a := &recordingHook{}
	stamp := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	Hooks{a}.Notify(context.Background(), Event{OccurredAt: stamp})

	if !a.events[0].OccurredAt.Equal(stamp) {
		t.Fatalf("expected explicit OccurredAt preserved, got %v", a.events[0].OccurredAt)
	}
}

func TestHooksNotifyEmptyIsNoop(t *testing.T) {
	var hooks Hooks
	hooks.Notify(context.Background(), Event{})
}

func TestCloneMetadata(t *testing.T) {
	src := map[string]any{"a": 1}
	dst := CloneMetadata(src)
	dst["a"] = 2
	if src["a"] != 1 {
		t.Fatalf("expected CloneMetadata to copy, source mutated to %v", src["a"])
	}
	if CloneMetadata(nil) != nil {
		t.Fatalf("expected nil for empty input")
	}
}
