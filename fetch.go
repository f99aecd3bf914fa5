package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// StatusError reports a non-2xx response.
type StatusError struct {
	Code   int
	Status string
	URL    string
}

func (e *StatusError) Error() string {
	text := strings.TrimSpace(strings.TrimPrefix(e.Status, fmt.Sprintf("%d", e.Code)))
	if text == "" {
		text = http.StatusText(e.Code)
	}
	return fmt.Sprintf("request failed: %d %s", e.Code, text)
}

type FetcherConfig struct {
	BaseURL string
	Timeout time.Duration
	Client  *http.Client // optional
}

// Fetcher issues GETs against the backend and decodes JSON bodies. It never
// retries; callers own the retry policy.
type Fetcher struct {
	base    *url.URL
	client  *http.Client
	timeout time.Duration
}

func NewFetcher(cfg FetcherConfig) (*Fetcher, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("base url %q: scheme must be http or https", cfg.BaseURL)
	}
	client := cfg.Client
	if client == nil {
		client = &http.Client{}
	}
	return &Fetcher{base: base, client: client, timeout: cfg.Timeout}, nil
}

// Resolve turns an endpoint path into an absolute URL.
func (f *Fetcher) Resolve(path string) string {
	ref, err := url.Parse(path)
	if err != nil {
		return f.base.String() + path
	}
	return f.base.ResolveReference(ref).String()
}

// HTTPClient is the underlying client, shared with the stream so both use
// one transport.
func (f *Fetcher) HTTPClient() *http.Client { return f.client }

// FetchJSON GETs path and decodes the body into out.
func (f *Fetcher) FetchJSON(ctx context.Context, path string, out any) error {
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}
	target := f.Resolve(path)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("build request %s: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("get %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return &StatusError{Code: resp.StatusCode, Status: resp.Status, URL: target}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
