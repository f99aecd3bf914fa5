package main

import (
	"context"
	"sync"
	"time"
)

const (
	ModeStream = "stream"
	ModePoll   = "poll"

	DefaultPollInterval = 10 * time.Second
)

type DashboardConfig struct {
	// Stream enables push mode. When false the dashboard polls.
	Stream       bool
	StreamPath   string
	PollInterval time.Duration
	Reconnect    time.Duration
	FetchMode    string
	Sequence     bool
	Time         TimeFormatter
	Clock        Clock
	OnState      func(StreamState)
}

// Dashboard owns the document and the controllers that feed it. The mode is
// chosen once, at construction.
type Dashboard struct {
	cfg     DashboardConfig
	log     *Logger
	metrics *Metrics

	doc     *Document
	refresh *RefreshController
	stream  *StreamController

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
}

func NewDashboard(cfg DashboardConfig, f *Fetcher, m *Metrics, log *Logger) *Dashboard {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.FetchMode == "" {
		cfg.FetchMode = FetchSplit
		if cfg.Stream {
			cfg.FetchMode = FetchDashboard
		}
	}
	doc := NewDocument()
	d := &Dashboard{
		cfg:     cfg,
		log:     log,
		metrics: m,
		doc:     doc,
		refresh: NewRefreshController(RefreshConfig{
			Mode:     cfg.FetchMode,
			Sequence: cfg.Sequence,
			Time:     cfg.Time,
		}, doc, f, m, log),
	}
	if cfg.Stream {
		d.stream = NewStreamController(StreamConfig{
			Path:    cfg.StreamPath,
			Delay:   cfg.Reconnect,
			Time:    cfg.Time,
			Clock:   cfg.Clock,
			OnState: cfg.OnState,
		}, doc, f, m, log)
	}
	return d
}

func (d *Dashboard) Mode() string {
	if d.stream != nil {
		return ModeStream
	}
	return ModePoll
}

func (d *Dashboard) Document() *Document { return d.doc }

// StreamState reports the push channel state; always disconnected in poll mode.
func (d *Dashboard) StreamState() StreamState {
	if d.stream == nil {
		return StateDisconnected
	}
	return d.stream.State()
}

// Start begins streaming or polling. Calling it twice is a no-op.
func (d *Dashboard) Start(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started {
		return
	}
	d.started = true
	d.ctx, d.cancel = context.WithCancel(ctx)

	d.log.Infof("dashboard starting (mode=%s fetch=%s)", d.Mode(), d.cfg.FetchMode)

	d.wg.Add(1)
	if d.stream != nil {
		go func() {
			defer d.wg.Done()
			// Fill the page before the first push arrives.
			_ = d.refresh.RefreshAll(d.ctx)
			d.stream.Run(d.ctx)
		}()
		return
	}
	go func() {
		defer d.wg.Done()
		d.poll(d.ctx)
	}()
}

func (d *Dashboard) poll(ctx context.Context) {
	_ = d.refresh.RefreshAll(ctx)

	t := time.NewTicker(d.cfg.PollInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			_ = d.refresh.RefreshAll(ctx)
		}
	}
}

// Refresh runs a one-shot fetch regardless of mode. It does not touch the
// stream connection.
func (d *Dashboard) Refresh(ctx context.Context) error {
	return d.refresh.RefreshAll(ctx)
}

// Stop cancels the poll timer or stream and waits for them to exit.
func (d *Dashboard) Stop() {
	d.mu.Lock()
	cancel := d.cancel
	d.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	d.wg.Wait()
}
