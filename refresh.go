package main

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// Fetch modes. "dashboard" reads one combined snapshot; "split" reads the
// three resources concurrently and assembles the snapshot locally.
const (
	FetchDashboard = "dashboard"
	FetchSplit     = "split"
)

const (
	pathDashboard = "/api/dashboard"
	pathStats     = "/api/stats"
	pathUsers     = "/api/users"
	pathCalls     = "/api/calls"

	refreshFailedLabel = "Failed to refresh"
)

type RefreshConfig struct {
	Mode string
	// Sequence drops a response when a newer refresh was dispatched after it.
	// Off means the last response to resolve wins.
	Sequence bool
	Time     TimeFormatter
	Now      func() time.Time
}

// RefreshController performs one-shot snapshot loads. Calls are independent
// and may overlap.
type RefreshController struct {
	cfg     RefreshConfig
	doc     *Document
	fetcher *Fetcher
	log     *Logger
	metrics *Metrics

	dispatched atomic.Uint64

	loadMu   sync.Mutex
	inflight int
}

func NewRefreshController(cfg RefreshConfig, doc *Document, f *Fetcher, m *Metrics, log *Logger) *RefreshController {
	if cfg.Mode == "" {
		cfg.Mode = FetchDashboard
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &RefreshController{cfg: cfg, doc: doc, fetcher: f, log: log, metrics: m}
}

// RefreshAll loads a snapshot and renders it, or renders the failure state.
// The returned error is informational; the document is updated either way.
func (rc *RefreshController) RefreshAll(ctx context.Context) error {
	seq := rc.dispatched.Add(1)
	rc.setLoading(true)
	defer rc.setLoading(false)

	snap, err := rc.fetchSnapshot(ctx)

	if rc.cfg.Sequence && seq < rc.dispatched.Load() {
		rc.metrics.RefreshDropped()
		rc.log.Debugf("refresh #%d superseded, dropping result", seq)
		return nil
	}

	if err != nil {
		rc.log.Errorf("refresh failed: %v", err)
		rc.metrics.RefreshFailed()
		renderFailure(rc.doc, refreshFailedLabel)
		return err
	}

	RenderSnapshot(rc.doc, snap, rc.cfg.Time)
	rc.doc.SetText(IDLastUpdated, "Updated "+rc.updatedAt(snap))
	rc.metrics.RefreshSucceeded()
	return nil
}

func (rc *RefreshController) updatedAt(snap Snapshot) string {
	if !snap.GeneratedAt.IsZero() {
		if s := rc.cfg.Time.FormatTime(string(snap.GeneratedAt)); s != NotAvailable {
			return s
		}
	}
	return rc.cfg.Time.FormatClock(rc.cfg.Now())
}

func (rc *RefreshController) fetchSnapshot(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	if rc.cfg.Mode == FetchDashboard {
		if err := rc.fetcher.FetchJSON(ctx, pathDashboard, &snap); err != nil {
			return Snapshot{}, err
		}
		return snap, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return rc.fetcher.FetchJSON(gctx, pathStats, &snap.Stats) })
	g.Go(func() error { return rc.fetcher.FetchJSON(gctx, pathUsers, &snap.Users) })
	g.Go(func() error { return rc.fetcher.FetchJSON(gctx, pathCalls, &snap.Calls) })
	if err := g.Wait(); err != nil {
		return Snapshot{}, fmt.Errorf("split fetch: %w", err)
	}
	return snap, nil
}

// setLoading keeps the refresh control disabled while any refresh is in
// flight.
func (rc *RefreshController) setLoading(loading bool) {
	rc.loadMu.Lock()
	defer rc.loadMu.Unlock()
	if loading {
		rc.inflight++
		if rc.inflight == 1 {
			rc.doc.SetDisabled(IDRefreshBtn, true)
			rc.doc.SetText(IDRefreshBtn, refreshingLabel)
		}
		return
	}
	rc.inflight--
	if rc.inflight == 0 {
		rc.doc.SetDisabled(IDRefreshBtn, false)
		rc.doc.SetText(IDRefreshBtn, refreshLabel)
	}
}
