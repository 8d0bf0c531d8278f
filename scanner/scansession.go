package scanner

import (
	"context"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"gitlab.com/docscanner/docscan"
	"gitlab.com/docscanner/store"
)

// ScanSession drives one scan from validation through configuration,
// execution and teardown. Only the session task mutates device or session
// state; triggers reach in exclusively through the aggregator's Signal and
// the guard's TryForceStop.
type ScanSession struct {
	cfg     *docscan.Config
	driver  docscan.Driver
	journal store.Recorder

	sess  *docscan.Session
	agg   *CancelAggregator
	guard *ForceStopGuard

	onProgress docscan.ProgressFn
	logger     zerolog.Logger
}

// New session controller. journal may be nil when no history is kept.
func New(cfg *docscan.Config, driver docscan.Driver, journal store.Recorder) *ScanSession {
	sess := docscan.NewSession()
	return &ScanSession{
		cfg:     cfg,
		driver:  driver,
		journal: journal,
		sess:    sess,
		logger:  log.With().Str("session", sess.ID.String()).Logger(),
	}
}

// SetProgress overrides the default progress sink
func (s *ScanSession) SetProgress(fn docscan.ProgressFn) *ScanSession {
	s.onProgress = fn
	return s
}

// Session exposes the shared session context object
func (s *ScanSession) Session() *docscan.Session {
	return s.sess
}

// Run the full lifecycle: Idle -> Configuring -> Scanning ->
// {Completing|Cancelling|Failing} -> Stopped. Triggers are registered once
// scanning is about to start and unregistered on every exit path.
func (s *ScanSession) Run(ctx context.Context, req *docscan.ScanRequest) (*docscan.ScanResult, error) {
	started := time.Now()

	// a sentinel already present means someone asked us not to start;
	// bail before touching the device at all
	if _, err := os.Stat(s.cfg.Sentinel()); err == nil {
		s.logger.Warn().Str("sentinel", s.cfg.Sentinel()).Msg("sentinel present at session start")
		s.sess.RequestCancel()
		s.sess.AcknowledgeCancel()
		s.sess.Transition(docscan.StateIdle, docscan.StateStopped)
		return nil, errors.Wrap(docscan.ErrCancelled, "sentinel present at session start")
	}

	info, err := s.locateDevice(ctx, req)
	if err != nil {
		s.sess.Transition(docscan.StateIdle, docscan.StateStopped)
		return nil, err
	}
	s.logger.Info().Str("device", info.ID).Str("model", info.Model).Msg("device selected")

	dev, err := s.driver.Open(ctx, info.ID)
	if err != nil {
		s.sess.Transition(docscan.StateIdle, docscan.StateStopped)
		return nil, errors.Wrap(err, "failed to open device")
	}

	s.agg = NewCancelAggregator(ctx, s.sess, s.cfg.Deadline(), s.cfg.Sentinel())
	s.agg.Register()
	s.guard = NewForceStopGuard(s.sess, s.agg)

	result, err := s.execute(dev, req)
	s.record(started, info, result, err)
	return result, err
}

// execute owns the state machine from Idle onwards. Trigger teardown, the
// hardware grace delay and the device release run unconditionally on the
// way into Stopped, whichever branch was taken.
func (s *ScanSession) execute(dev docscan.Device, req *docscan.ScanRequest) (*docscan.ScanResult, error) {
	defer func() {
		s.agg.Teardown()
		time.Sleep(s.cfg.Grace())
		if err := dev.Close(); err != nil {
			s.logger.Warn().Err(err).Msg("failed to close device")
		}
		s.logger.Info().Str("state", s.sess.State().String()).Msg("session finished")
	}()

	// a trigger that fired this early short-circuits configuration
	if s.sess.CancelRequested() {
		s.sess.AcknowledgeCancel()
		s.sess.Transition(docscan.StateIdle, docscan.StateStopped)
		return nil, docscan.ErrCancelled
	}

	s.sess.Transition(docscan.StateIdle, docscan.StateConfiguring)
	s.configure(dev, req)

	if s.sess.CancelRequested() {
		s.sess.AcknowledgeCancel()
		s.sess.Transition(docscan.StateConfiguring, docscan.StateStopped)
		return nil, docscan.ErrCancelled
	}

	s.sess.Transition(docscan.StateConfiguring, docscan.StateScanning)
	s.sess.SetScanning(true)
	s.logger.Info().Str("source", string(req.Source)).Int("resolution", req.Resolution).Msg("scan started")

	target := docscan.OutputTarget{Dir: req.OutputDir, Format: req.Format}
	result, err := dev.Scan(s.agg.Context(), req.Source, target, s.progress)

	switch {
	case err == nil:
		s.sess.Transition(docscan.StateScanning, docscan.StateCompleting)
		s.sess.SetScanning(false)
		s.sess.Transition(docscan.StateCompleting, docscan.StateStopped)
		s.logger.Info().Int("pages", result.Pages()).Msg("scan completed")
		return result, nil

	case docscan.IsCancelled(err) || s.sess.CancelRequested():
		s.sess.AcknowledgeCancel()
		s.sess.Transition(docscan.StateScanning, docscan.StateCancelling)
		s.guard.TryForceStop(dev)
		s.sess.Transition(docscan.StateCancelling, docscan.StateStopped)
		return nil, docscan.ErrCancelled

	default:
		s.sess.Transition(docscan.StateScanning, docscan.StateFailing)
		s.guard.TryForceStop(dev)
		s.sess.Transition(docscan.StateFailing, docscan.StateStopped)
		return nil, &docscan.HardwareFault{Err: err}
	}
}

// locateDevice validates the request against the attached hardware. No
// device mutation happens here; every failure aborts the session before
// configuration starts.
func (s *ScanSession) locateDevice(ctx context.Context, req *docscan.ScanRequest) (docscan.DeviceInfo, error) {
	devices, err := s.driver.List(ctx)
	if err != nil {
		return docscan.DeviceInfo{}, errors.Wrap(err, "device discovery failed")
	}

	var info docscan.DeviceInfo
	found := false
	for _, d := range devices {
		if matchDevice(d, s.cfg.Device) {
			info = d
			found = true
			break
		}
	}
	if !found {
		return docscan.DeviceInfo{}, errors.Wrapf(docscan.ErrDeviceNotFound, "selector %q", s.cfg.Device)
	}
	if !info.SupportsSource(req.Source) {
		return docscan.DeviceInfo{}, errors.Wrapf(docscan.ErrUnsupportedSource, "%s has no %s", info.Model, req.Source)
	}
	return info, nil
}

func matchDevice(d docscan.DeviceInfo, selector string) bool {
	if selector == "" {
		return true
	}
	if d.ID == selector {
		return true
	}
	sel := strings.ToLower(selector)
	return strings.Contains(strings.ToLower(d.Model), sel) ||
		strings.Contains(strings.ToLower(d.Vendor), sel)
}

// configure applies each facet as a fault-tolerant batch: one facet failing
// to apply is logged and the scan proceeds with that facet at its default.
// This is a deliberate deviation from the fail-fast handling elsewhere.
func (s *ScanSession) configure(dev docscan.Device, req *docscan.ScanRequest) {
	type facetValue struct {
		f docscan.Facet
		v string
	}
	facets := []facetValue{
		{docscan.FacetFormat, string(req.Format)},
		{docscan.FacetColorMode, string(req.Color)},
		{docscan.FacetResolution, strconv.Itoa(req.Resolution)},
	}
	if req.Area != nil {
		facets = append(facets, facetValue{docscan.FacetArea, req.Area.String()})
	}
	if req.Brightness != nil {
		facets = append(facets, facetValue{docscan.FacetBrightness, strconv.Itoa(*req.Brightness)})
	}
	if req.Contrast != nil {
		facets = append(facets, facetValue{docscan.FacetContrast, strconv.Itoa(*req.Contrast)})
	}
	if req.Duplex {
		facets = append(facets, facetValue{docscan.FacetDuplex, "true"})
	}

	for _, fc := range facets {
		if err := dev.Configure(fc.f, fc.v); err != nil {
			s.logger.Warn().Err(err).Str("facet", fc.f.String()).Str("value", fc.v).Msg("facet failed to apply, continuing with device default")
		}
	}
}

// progress forwards per-page callbacks unless cancellation has already been
// observed, in which case reporting stops and the cancellation propagates.
func (s *ScanSession) progress(page int, file docscan.FileInfo) {
	if s.agg.Context().Err() != nil {
		return
	}
	s.logger.Info().Int("page", page).Str("file", file.Name).Int64("bytes", file.Size).Msg("page scanned")
	if s.onProgress != nil {
		s.onProgress(page, file)
	}
}

// record writes the session outcome to the journal, best-effort
func (s *ScanSession) record(started time.Time, info docscan.DeviceInfo, result *docscan.ScanResult, err error) {
	if s.journal == nil {
		return
	}
	rec := &store.SessionRecord{
		ID:         s.sess.ID.String(),
		StartedAt:  started,
		FinishedAt: time.Now(),
		Device:     info.ID,
		Outcome:    store.OutcomeCompleted,
	}
	switch {
	case err == nil:
		if result != nil {
			rec.Files = result.Files
		}
	case docscan.IsCancelled(err):
		rec.Outcome = store.OutcomeCancelled
	default:
		rec.Outcome = store.OutcomeFailed
		rec.Failure = err.Error()
	}
	if jerr := s.journal.Record(rec); jerr != nil {
		s.logger.Warn().Err(jerr).Msg("failed to record session in journal")
	}
}
