package scanner

import (
	"sync/atomic"

	"github.com/rs/zerolog/log"

	"gitlab.com/docscanner/docscan"
)

// resetFacets are returned to safe defaults during a force-stop, each one
// independently best-effort.
var resetFacets = []docscan.Facet{
	docscan.FacetColorMode,
	docscan.FacetResolution,
	docscan.FacetPageLimit,
}

// ForceStopGuard serializes and deduplicates the "stop the hardware now"
// action. However many triggers race, at most one stop sequence runs; the
// losers return immediately without blocking on the winner.
type ForceStopGuard struct {
	sess     *docscan.Session
	agg      *CancelAggregator
	stopping int32
}

// NewForceStopGuard for one session
func NewForceStopGuard(sess *docscan.Session, agg *CancelAggregator) *ForceStopGuard {
	return &ForceStopGuard{sess: sess, agg: agg}
}

// TryForceStop makes the device likely idle. Returns true only when this
// call performed the stop; false when no operation is active or a stop is
// already in flight. Every sub-step failure is swallowed and logged: the
// guard never fails, it only tries.
func (g *ForceStopGuard) TryForceStop(dev docscan.Device) bool {
	if !g.sess.Scanning() {
		return false
	}
	if !atomic.CompareAndSwapInt32(&g.stopping, 0, 1) {
		log.Info().Str("session", g.sess.ID.String()).Msg("force-stop already in flight, skipping")
		return false
	}
	defer atomic.StoreInt32(&g.stopping, 0)

	g.agg.Signal()

	if dev != nil {
		for _, f := range resetFacets {
			if err := dev.Reset(f); err != nil {
				log.Warn().Err(err).Str("facet", f.String()).Msg("facet reset failed during force-stop")
			}
		}
	}

	g.sess.SetScanning(false)
	log.Info().Str("session", g.sess.ID.String()).Msg("force-stop completed")
	return true
}
