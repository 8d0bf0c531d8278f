package docscan_test

import (
	"sync"
	"testing"

	"gitlab.com/docscanner/docscan"
)

func TestSessionTransitions(t *testing.T) {
	s := docscan.NewSession()
	if s.State() != docscan.StateIdle {
		t.Fatalf("new session should be idle, got %s", s.State())
	}

	if !s.Transition(docscan.StateIdle, docscan.StateConfiguring) {
		t.Fatalf("idle -> configuring should succeed")
	}
	if s.Transition(docscan.StateIdle, docscan.StateScanning) {
		t.Fatalf("stale transition from idle should fail")
	}
	if !s.Transition(docscan.StateConfiguring, docscan.StateScanning) {
		t.Fatalf("configuring -> scanning should succeed")
	}
	if !s.Transition(docscan.StateScanning, docscan.StateStopped) {
		t.Fatalf("scanning -> stopped should succeed")
	}
	if s.Transition(docscan.StateStopped, docscan.StateScanning) {
		t.Fatalf("stopped is terminal")
	}
}

func TestSessionCancelFlagSingleTransition(t *testing.T) {
	for n := 1; n <= 5; n++ {
		s := docscan.NewSession()

		var wg sync.WaitGroup
		var mu sync.Mutex
		firsts := 0
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if s.RequestCancel() {
					mu.Lock()
					firsts++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		if firsts != 1 {
			t.Fatalf("n=%d: expected exactly one requested transition, got %d", n, firsts)
		}
		if !s.CancelRequested() {
			t.Fatalf("n=%d: cancel should be requested", n)
		}
		if !s.AcknowledgeCancel() {
			t.Fatalf("n=%d: first acknowledge should succeed", n)
		}
		if s.AcknowledgeCancel() {
			t.Fatalf("n=%d: second acknowledge should be a no-op", n)
		}
	}
}

func TestSessionScanningFlag(t *testing.T) {
	s := docscan.NewSession()
	if s.Scanning() {
		t.Fatalf("fresh session should not be scanning")
	}
	s.SetScanning(true)
	if !s.Scanning() {
		t.Fatalf("scanning flag should be set")
	}
	s.SetScanning(false)
	if s.Scanning() {
		t.Fatalf("scanning flag should be cleared")
	}
}
