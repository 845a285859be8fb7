// Package checker fetches a stored URL and extracts page metadata from the
// response, producing the data recorded as one check in the URL's history.
package checker

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/avkazmin/page-analyzer/internal/store"
)

// FetchError wraps a transport-level failure (DNS, connection, timeout)
// where no HTTP response was received. Such attempts carry no data worth
// recording.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Config controls checker behavior.
type Config struct {
	UserAgent string
	Timeout   time.Duration
}

// Checker performs single-attempt page checks. No retries, no backoff:
// failures surface immediately to the caller.
type Checker struct {
	cfg           Config
	baseCollector *colly.Collector
}

// New builds a Checker around a shared Colly collector.
func New(cfg Config) *Checker {
	c := colly.NewCollector(colly.Async(false))
	c.IgnoreRobotsTxt = true
	c.WithTransport(newHTTPTransport())
	return &Checker{
		cfg:           cfg,
		baseCollector: c,
	}
}

// Check issues one GET against rawURL. When any HTTP response arrives the
// result carries the observed status code, even for non-2xx answers, so the
// history keeps maximum diagnostic value; page metadata is extracted only
// from successful responses. A transport failure yields a *FetchError and an
// empty result.
func (c *Checker) Check(ctx context.Context, rawURL string) (store.CheckResult, error) {
	collector := c.baseCollector.Clone()
	if c.cfg.UserAgent != "" {
		collector.UserAgent = c.cfg.UserAgent
	}
	collector.IgnoreRobotsTxt = true
	// Every check is an independent attempt, so revisits are expected.
	collector.AllowURLRevisit = true
	timeout := c.cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	collector.SetRequestTimeout(timeout)

	var (
		result    store.CheckResult
		responded bool
	)
	collector.OnResponse(func(r *colly.Response) {
		responded = true
		status := r.StatusCode
		result.StatusCode = &status
		meta := Extract(r.Body)
		result.H1 = meta.H1
		result.Title = meta.Title
		result.Description = meta.Description
	})
	collector.OnError(func(r *colly.Response, _ error) {
		// Colly reports non-2xx statuses through OnError with the
		// response attached; a zero status means the transport failed
		// before any answer arrived.
		if r != nil && r.StatusCode != 0 {
			responded = true
			status := r.StatusCode
			result.StatusCode = &status
		}
	})

	if err := c.visit(ctx, collector, rawURL); err != nil && !responded {
		return store.CheckResult{}, &FetchError{URL: rawURL, Err: err}
	}
	if !responded {
		return store.CheckResult{}, &FetchError{URL: rawURL, Err: errors.New("no response received")}
	}
	return result, nil
}

func (c *Checker) visit(ctx context.Context, collector *colly.Collector, url string) error {
	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(url)
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("check canceled: %w", ctx.Err())
	case err := <-done:
		if err != nil {
			return fmt.Errorf("visit failed: %w", err)
		}
		return nil
	}
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	}
}
