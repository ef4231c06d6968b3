package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestSpinnerStop(t *testing.T) {
	var buf bytes.Buffer
	s := newSpinner(context.Background(), &buf, "Testing...")
	s.Start()
	time.Sleep(100 * time.Millisecond)
	s.Stop()

	if s.Cancelled() {
		t.Error("Cancelled() = true after Stop, want false")
	}
	if !strings.Contains(buf.String(), "Testing...") {
		t.Errorf("spinner output = %q, want the message", buf.String())
	}
}

func TestSpinnerWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	s := newSpinner(ctx, &bytes.Buffer{}, "Testing with context...")
	s.Start()
	cancel()
	time.Sleep(50 * time.Millisecond)

	if !s.Cancelled() {
		t.Error("spinner should be cancelled after context cancellation")
	}
	s.Stop()
}

func TestSpinnerStopIsIdempotent(t *testing.T) {
	s := newSpinner(context.Background(), &bytes.Buffer{}, "Testing idempotent stop...")
	s.Start()

	s.Stop()
	s.Stop()
	s.Stop()
}

func TestWithSpinner(t *testing.T) {
	var status bytes.Buffer
	out = &status
	t.Cleanup(restoreOut)

	if err := withSpinner(context.Background(), &bytes.Buffer{}, "Working", func(context.Context) error { return nil }); err != nil {
		t.Fatalf("withSpinner() error = %v", err)
	}
	if status.Len() != 0 {
		t.Errorf("status output = %q, want none on success", status.String())
	}

	boom := errors.New("boom")
	err := withSpinner(context.Background(), &bytes.Buffer{}, "Working", func(context.Context) error { return boom })
	if !errors.Is(err, boom) {
		t.Errorf("withSpinner() error = %v, want %v", err, boom)
	}
	if !strings.Contains(status.String(), "Working: boom") {
		t.Errorf("status output = %q, want the failure", status.String())
	}
}
