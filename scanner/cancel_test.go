package scanner_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"gitlab.com/docscanner/docscan"
	"gitlab.com/docscanner/scanner"
)

func tmpSentinel(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "stop")
}

func TestSignalIdempotentUnderConcurrency(t *testing.T) {
	for n := 1; n <= 5; n++ {
		sess := docscan.NewSession()
		agg := scanner.NewCancelAggregator(context.Background(), sess, time.Hour, tmpSentinel(t))

		var wg sync.WaitGroup
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				agg.Signal()
			}()
		}
		wg.Wait()

		select {
		case <-agg.Context().Done():
		default:
			t.Fatalf("n=%d: combined context should be cancelled", n)
		}

		// however many triggers fired, requested->acknowledged happens once
		if !sess.AcknowledgeCancel() {
			t.Fatalf("n=%d: expected one requested->acknowledged transition", n)
		}
		if sess.AcknowledgeCancel() {
			t.Fatalf("n=%d: acknowledge happened twice", n)
		}
		agg.Teardown()
	}
}

func TestSentinelFileTriggersCancellation(t *testing.T) {
	sentinel := tmpSentinel(t)
	sess := docscan.NewSession()
	agg := scanner.NewCancelAggregator(context.Background(), sess, time.Hour, sentinel)
	agg.Register()
	defer agg.Teardown()

	if err := os.WriteFile(sentinel, []byte("stop"), 0644); err != nil {
		t.Fatalf("failed to write sentinel: %s", err)
	}

	select {
	case <-agg.Context().Done():
	case <-time.After(3 * time.Second):
		t.Fatalf("sentinel creation did not cancel the combined context")
	}
	if !sess.CancelRequested() {
		t.Fatalf("sentinel trigger should have requested cancellation")
	}
}

func TestDeadlineTriggersCancellation(t *testing.T) {
	sess := docscan.NewSession()
	agg := scanner.NewCancelAggregator(context.Background(), sess, 50*time.Millisecond, tmpSentinel(t))
	agg.Register()
	defer agg.Teardown()

	select {
	case <-agg.Context().Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("deadline did not cancel the combined context")
	}
	if !sess.CancelRequested() {
		t.Fatalf("deadline must flow through the same cancellation path")
	}
}

func TestTeardownIsIdempotent(t *testing.T) {
	sess := docscan.NewSession()
	agg := scanner.NewCancelAggregator(context.Background(), sess, time.Hour, tmpSentinel(t))
	agg.Register()

	agg.Teardown()
	agg.Teardown()

	// signalling after teardown must stay safe
	agg.Signal()
}
