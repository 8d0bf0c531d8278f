package scanner

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"

	"gitlab.com/docscanner/docscan"
)

// sentinelPoll is the fallback stat interval when no file watcher could be
// established for the sentinel path.
const sentinelPoll = 500 * time.Millisecond

// CancelAggregator collapses every cancellation trigger (interrupt and
// shutdown signals, the sentinel file, the deadline timer) onto one
// combined context and one tri-state flag on the session. Triggers run on
// their own goroutines and only ever call Signal(), which is cheap,
// idempotent and safe under arbitrary concurrent invocation.
type CancelAggregator struct {
	sess     *docscan.Session
	sentinel string
	deadline time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	sigCh   chan os.Signal
	watcher *fsnotify.Watcher
	timer   *time.Timer

	done     chan struct{}
	wg       sync.WaitGroup
	tearOnce sync.Once
}

// NewCancelAggregator derives the combined context from parent. Triggers
// are not live until Register is called.
func NewCancelAggregator(parent context.Context, sess *docscan.Session, deadline time.Duration, sentinel string) *CancelAggregator {
	ctx, cancel := context.WithCancel(parent)
	return &CancelAggregator{
		sess:     sess,
		sentinel: sentinel,
		deadline: deadline,
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
}

// Register wires up all trigger sources. Registration is best-effort: a
// sentinel watcher that cannot be established degrades to polling rather
// than failing the session.
func (a *CancelAggregator) Register() {
	a.registerSignals()
	a.registerSentinel()
	a.registerDeadline()
}

// Signal requests cancellation. May be called from any trigger goroutine,
// any number of times; only the first call flips the session flag.
func (a *CancelAggregator) Signal() {
	if a.sess.RequestCancel() {
		log.Info().Str("session", a.sess.ID.String()).Msg("cancellation requested")
	}
	a.cancel()
}

// Context is cancelled iff any trigger has fired or the deadline elapsed
func (a *CancelAggregator) Context() context.Context {
	return a.ctx
}

// Teardown unregisters every trigger. Safe to call more than once; runs on
// every session exit path so OS-level registrations never leak.
func (a *CancelAggregator) Teardown() {
	a.tearOnce.Do(func() {
		if a.sigCh != nil {
			signal.Stop(a.sigCh)
		}
		if a.timer != nil {
			a.timer.Stop()
		}
		if a.watcher != nil {
			if err := a.watcher.Close(); err != nil {
				log.Warn().Err(err).Msg("failed to close sentinel watcher")
			}
		}
		close(a.done)
		a.cancel()
		a.wg.Wait()
	})
}

func (a *CancelAggregator) registerSignals() {
	a.sigCh = make(chan os.Signal, 1)
	// interrupt, break, terminal close, logoff and shutdown all funnel
	// through the same four signals on unix
	signal.Notify(a.sigCh, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP, syscall.SIGQUIT)

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		for {
			select {
			case sig := <-a.sigCh:
				log.Info().Str("signal", sig.String()).Msg("received stop signal")
				a.Signal()
			case <-a.done:
				return
			}
		}
	}()
}

func (a *CancelAggregator) registerDeadline() {
	a.timer = time.AfterFunc(a.deadline, func() {
		log.Warn().Dur("deadline", a.deadline).Msg("scan deadline elapsed")
		a.Signal()
	})
}

func (a *CancelAggregator) registerSentinel() {
	watcher, err := fsnotify.NewWatcher()
	if err == nil {
		err = watcher.Add(filepath.Dir(a.sentinel))
	}
	if err != nil {
		log.Warn().Err(err).Str("sentinel", a.sentinel).Msg("sentinel watcher unavailable, falling back to polling")
		if watcher != nil {
			watcher.Close()
		}
		a.pollSentinel()
		return
	}
	a.watcher = watcher

	// the file may have appeared between the session pre-check and the
	// watch being installed
	if _, err := os.Stat(a.sentinel); err == nil {
		a.Signal()
	}

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		for {
			select {
			case evt, ok := <-watcher.Events:
				if !ok {
					return
				}
				if evt.Name != a.sentinel {
					continue
				}
				if evt.Has(fsnotify.Create) || evt.Has(fsnotify.Write) {
					log.Info().Str("sentinel", a.sentinel).Msg("sentinel file observed")
					a.Signal()
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Warn().Err(err).Msg("sentinel watcher error")
			case <-a.done:
				return
			}
		}
	}()
}

func (a *CancelAggregator) pollSentinel() {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		ticker := time.NewTicker(sentinelPoll)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if _, err := os.Stat(a.sentinel); err == nil {
					log.Info().Str("sentinel", a.sentinel).Msg("sentinel file observed")
					a.Signal()
					return
				}
			case <-a.done:
				return
			}
		}
	}()
}
