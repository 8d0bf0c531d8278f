package scanner_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"gitlab.com/docscanner/docscan"
	"gitlab.com/docscanner/mock"
	"gitlab.com/docscanner/scanner"
)

func TestTryForceStopNoActiveScan(t *testing.T) {
	sess := docscan.NewSession()
	agg := scanner.NewCancelAggregator(context.Background(), sess, time.Hour, tmpSentinel(t))
	defer agg.Teardown()
	guard := scanner.NewForceStopGuard(sess, agg)

	dev := mock.MakeMockDevice()
	if guard.TryForceStop(dev) {
		t.Fatalf("force-stop with no active scan should return false")
	}
	if dev.ResetCalled || dev.ConfigureCalled {
		t.Fatalf("force-stop with no active scan must not touch the device")
	}
}

func TestTryForceStopRunsOnce(t *testing.T) {
	sess := docscan.NewSession()
	agg := scanner.NewCancelAggregator(context.Background(), sess, time.Hour, tmpSentinel(t))
	defer agg.Teardown()
	guard := scanner.NewForceStopGuard(sess, agg)
	sess.SetScanning(true)

	var resets int32
	dev := mock.MakeMockDevice()
	dev.ResetFn = func(f docscan.Facet) error {
		atomic.AddInt32(&resets, 1)
		return nil
	}

	var performed int32
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if guard.TryForceStop(dev) {
				atomic.AddInt32(&performed, 1)
			}
		}()
	}
	wg.Wait()

	if got := atomic.LoadInt32(&performed); got != 1 {
		t.Fatalf("expected exactly one caller to perform the stop, got %d", got)
	}
	// one pass over the reset facets: color mode, resolution, page limit
	if got := atomic.LoadInt32(&resets); got != 3 {
		t.Fatalf("expected the reset body to run once (3 facet calls), got %d", got)
	}
	if sess.Scanning() {
		t.Fatalf("scanning flag should be cleared after force-stop")
	}
	if !sess.CancelRequested() {
		t.Fatalf("force-stop must request cancellation on the aggregator")
	}
}

func TestTryForceStopSwallowsFacetFailures(t *testing.T) {
	sess := docscan.NewSession()
	agg := scanner.NewCancelAggregator(context.Background(), sess, time.Hour, tmpSentinel(t))
	defer agg.Teardown()
	guard := scanner.NewForceStopGuard(sess, agg)
	sess.SetScanning(true)

	dev := mock.MakeMockDevice()
	dev.ResetFn = func(f docscan.Facet) error {
		return context.DeadlineExceeded // any error will do
	}

	if !guard.TryForceStop(dev) {
		t.Fatalf("force-stop should report it performed the stop despite facet failures")
	}
	if dev.ResetCount != 3 {
		t.Fatalf("one failing facet must not prevent attempting the rest, got %d calls", dev.ResetCount)
	}
	if sess.Scanning() {
		t.Fatalf("scanning flag should be cleared even when every facet reset fails")
	}
}
