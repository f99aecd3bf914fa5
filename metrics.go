package main

import (
	"sync/atomic"
	"time"
)

type Metrics struct {
	start time.Time

	version   string
	commit    string
	buildDate string
	session   string

	refreshOK      atomic.Int64
	refreshFailed  atomic.Int64
	refreshDropped atomic.Int64

	streamConnects     atomic.Int64
	streamReconnects   atomic.Int64
	streamEvents       atomic.Int64
	streamDecodeErrors atomic.Int64
	streamState        atomic.Int32

	lastAppliedAtMs atomic.Int64
}

func NewMetrics(start time.Time, session, version, commit, buildDate string) *Metrics {
	return &Metrics{
		start:     start,
		session:   session,
		version:   version,
		commit:    commit,
		buildDate: buildDate,
	}
}

func (m *Metrics) RefreshSucceeded() {
	m.refreshOK.Add(1)
	m.applied()
}
func (m *Metrics) RefreshFailed()  { m.refreshFailed.Add(1) }
func (m *Metrics) RefreshDropped() { m.refreshDropped.Add(1) }

func (m *Metrics) StreamConnected()   { m.streamConnects.Add(1) }
func (m *Metrics) StreamReconnect()   { m.streamReconnects.Add(1) }
func (m *Metrics) StreamDecodeError() { m.streamDecodeErrors.Add(1) }
func (m *Metrics) StreamEvent() {
	m.streamEvents.Add(1)
	m.applied()
}
func (m *Metrics) SetStreamState(s StreamState) { m.streamState.Store(int32(s)) }

func (m *Metrics) applied() { m.lastAppliedAtMs.Store(time.Now().UnixMilli()) }

// LastApplied is when a snapshot last reached the document, zero if never.
func (m *Metrics) LastApplied() time.Time {
	ms := m.lastAppliedAtMs.Load()
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}

func (m *Metrics) Snapshot() map[string]any {
	uptime := time.Since(m.start)

	return map[string]any{
		"ok": true,

		"session":   m.session,
		"uptime_ms": uptime.Milliseconds(),
		"uptime":    uptime.String(),

		"build": map[string]any{
			"version":    m.version,
			"commit":     m.commit,
			"build_date": m.buildDate,
		},

		"refresh": map[string]any{
			"success": m.refreshOK.Load(),
			"failed":  m.refreshFailed.Load(),
			"dropped": m.refreshDropped.Load(),
		},

		"stream": map[string]any{
			"state":         StreamState(m.streamState.Load()).String(),
			"connects":      m.streamConnects.Load(),
			"reconnects":    m.streamReconnects.Load(),
			"events":        m.streamEvents.Load(),
			"decode_errors": m.streamDecodeErrors.Load(),
		},

		"last_applied_at_unix_ms": m.lastAppliedAtMs.Load(),
	}
}
