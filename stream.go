package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
)

type StreamState int32

const (
	StateDisconnected StreamState = iota
	StateConnecting
	StateConnected
	StateReconnecting
)

func (s StreamState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

const (
	pathStream = "/api/stream"

	dashboardEvent = "dashboard"

	DefaultReconnectDelay = 3 * time.Second

	reconnectingLabel = "Connection lost. Reconnecting..."
)

var errStreamClosed = errors.New("stream closed by server")

// Clock is the time source the stream schedules reconnects with.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

func (realClock) Now() time.Time                         { return time.Now() }
func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

type StreamConfig struct {
	Path  string
	Delay time.Duration
	// Policy schedules reconnects. Nil means a constant Delay. It is reset
	// after every successful connect; returning backoff.Stop ends Run.
	Policy backoff.BackOff
	Time   TimeFormatter
	Clock  Clock
	// OnState observes every transition; optional.
	OnState func(StreamState)
}

// StreamController keeps at most one server-sent event connection open and
// applies each pushed snapshot to the document. Reconnects follow the policy,
// by default unbounded at a constant delay.
type StreamController struct {
	cfg     StreamConfig
	doc     *Document
	fetcher *Fetcher
	client  *http.Client
	log     *Logger
	metrics *Metrics
	policy  backoff.BackOff

	mu    sync.Mutex
	state StreamState
	conn  io.Closer
}

func NewStreamController(cfg StreamConfig, doc *Document, f *Fetcher, m *Metrics, log *Logger) *StreamController {
	if cfg.Path == "" {
		cfg.Path = pathStream
	}
	if cfg.Delay <= 0 {
		cfg.Delay = DefaultReconnectDelay
	}
	if cfg.Clock == nil {
		cfg.Clock = realClock{}
	}
	if cfg.Policy == nil {
		cfg.Policy = backoff.NewConstantBackOff(cfg.Delay)
	}
	// The stream must outlive the fetcher's per-request timeout, so it gets
	// its own client over the same transport.
	client := &http.Client{Transport: f.HTTPClient().Transport}
	return &StreamController{
		cfg:     cfg,
		doc:     doc,
		fetcher: f,
		client:  client,
		log:     log,
		metrics: m,
		policy:  cfg.Policy,
	}
}

func (s *StreamController) State() StreamState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *StreamController) setState(st StreamState) {
	s.mu.Lock()
	changed := s.state != st
	s.state = st
	s.mu.Unlock()
	if !changed {
		return
	}
	s.metrics.SetStreamState(st)
	s.log.Debugf("stream state -> %s", st)
	if s.cfg.OnState != nil {
		s.cfg.OnState(st)
	}
}

// Run connects and reconnects until ctx is done.
func (s *StreamController) Run(ctx context.Context) {
	defer func() {
		s.closeConn()
		s.setState(StateDisconnected)
	}()

	for {
		if ctx.Err() != nil {
			return
		}
		err := s.connect(ctx)
		if ctx.Err() != nil {
			return
		}
		delay := s.policy.NextBackOff()
		if delay == backoff.Stop {
			s.log.Errorf("stream: reconnect policy gave up: %v", err)
			return
		}
		s.lost(err, delay)

		select {
		case <-ctx.Done():
			return
		case <-s.cfg.Clock.After(delay):
		}
	}
}

// connect opens one connection and reads it until it fails. Any previous
// connection is closed first.
func (s *StreamController) connect(ctx context.Context) error {
	s.closeConn()
	s.setState(StateConnecting)

	url := s.fetcher.Resolve(s.cfg.Path)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build stream request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("open stream: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return &StatusError{Code: resp.StatusCode, Status: resp.Status, URL: url}
	}

	s.mu.Lock()
	s.conn = resp.Body
	s.mu.Unlock()

	s.policy.Reset()
	s.setState(StateConnected)
	s.metrics.StreamConnected()
	s.log.Infof("stream connected (%s)", url)

	return s.consume(resp.Body)
}

func (s *StreamController) consume(body io.Reader) error {
	rd := newSSEReader(body)
	for {
		ev, err := rd.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return errStreamClosed
			}
			return fmt.Errorf("read stream: %w", err)
		}
		if ev.Name != dashboardEvent {
			continue
		}
		s.apply(ev)
	}
}

func (s *StreamController) apply(ev sseEvent) {
	var snap Snapshot
	if err := json.Unmarshal([]byte(ev.Data), &snap); err != nil {
		s.metrics.StreamDecodeError()
		s.log.Warnf("stream: bad %s payload (id=%q): %v", ev.Name, ev.ID, err)
		return
	}
	RenderSnapshot(s.doc, snap, s.cfg.Time)
	s.doc.SetText(IDLastUpdated, "Live at "+s.cfg.Time.FormatTime(string(snap.GeneratedAt)))
	s.metrics.StreamEvent()
}

// lost handles a channel error: close, tell the user, count the reconnect.
func (s *StreamController) lost(err error, delay time.Duration) {
	s.closeConn()
	s.setState(StateReconnecting)
	s.doc.SetText(IDLastUpdated, reconnectingLabel)
	s.metrics.StreamReconnect()
	s.log.Warnf("stream error, reconnecting in %s: %v", delay, err)
}

func (s *StreamController) closeConn() {
	s.mu.Lock()
	c := s.conn
	s.conn = nil
	s.mu.Unlock()
	if c != nil {
		_ = c.Close()
	}
}
