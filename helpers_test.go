package main

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

const scenarioDashboardJSON = `{
	"stats": {"totalUsers":5,"onlineUsers":2,"activeCalls":1,"messagesToday":40},
	"users": [{"username":"a","displayName":"Alice","online":true}],
	"calls": []
}`

func testLogger() *Logger { return NewLoggerTo(io.Discard, "error") }

func testMetrics() *Metrics {
	return NewMetrics(time.Now(), "test-session", "test", "none", "unknown")
}

func newTestFetcher(t *testing.T, baseURL string) *Fetcher {
	t.Helper()
	f, err := NewFetcher(FetcherConfig{BaseURL: baseURL, Timeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("NewFetcher: %v", err)
	}
	return f
}

// backend is a scripted stand-in for the admin server.
type backend struct {
	mu    sync.Mutex
	hits  map[string]int
	route map[string]http.HandlerFunc
}

func newBackend(t *testing.T) (*backend, *httptest.Server) {
	t.Helper()
	b := &backend{hits: make(map[string]int), route: make(map[string]http.HandlerFunc)}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.hits[r.URL.Path]++
		h := b.route[r.URL.Path]
		b.mu.Unlock()
		if h == nil {
			http.NotFound(w, r)
			return
		}
		h(w, r)
	}))
	t.Cleanup(srv.Close)
	return b, srv
}

func (b *backend) handle(path string, h http.HandlerFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.route[path] = h
}

func (b *backend) json(path, body string) {
	b.handle(path, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, body)
	})
}

func (b *backend) status(path string, code int) {
	b.handle(path, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(code), code)
	})
}

func (b *backend) count(path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hits[path]
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}
