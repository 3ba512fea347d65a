package registry

import (
	"context"
	"testing"
	"time"
)

// waitFor polls cond until it holds or the deadline passes. Filesystem
// notification latency varies by platform, hence the generous window.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestWatcher_ReloadsOnChange(t *testing.T) {
	root := t.TempDir()
	writeSkill(t, root, "payments/invoice-processing", "approved", "invoice-bot")

	reg := New()
	if _, err := reg.Reload(root); err != nil {
		t.Fatal(err)
	}

	w, err := NewWatcher(reg, root, 50*time.Millisecond, nil)
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer w.Close()

	writeSkill(t, root, "payments/refund-handling", "approved", "refund-bot")

	waitFor(t, func() bool {
		return reg.Contains("payments/refund-handling")
	})
	if reg.Len() != 2 {
		t.Errorf("Len() = %d, want 2", reg.Len())
	}
}

func TestWatcher_PicksUpNewDirectories(t *testing.T) {
	root := t.TempDir()
	writeSkill(t, root, "payments/invoice-processing", "approved", "invoice-bot")

	reg := New()
	if _, err := reg.Reload(root); err != nil {
		t.Fatal(err)
	}

	w, err := NewWatcher(reg, root, 50*time.Millisecond, nil)
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	// A whole new business area directory appears after the watch began.
	writeSkill(t, root, "hr/onboarding", "approved", "hr-bot")

	waitFor(t, func() bool {
		return reg.Contains("hr/onboarding")
	})
}

func TestWatcher_CloseStopsLoop(t *testing.T) {
	root := t.TempDir()
	reg := New()

	w, err := NewWatcher(reg, root, 50*time.Millisecond, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}

	// Close must not hang waiting on the loop.
	done := make(chan error, 1)
	go func() { done <- w.Close() }()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Close() did not return")
	}
}
