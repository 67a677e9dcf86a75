// Package fetcher retrieves source pages over HTTP with per-domain
// politeness, bounded retries, and jittered exponential backoff.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/joblens/jobcorpus/internal/corpus"
	"github.com/joblens/jobcorpus/internal/metrics"
)

// Config controls collector and retry behavior.
type Config struct {
	UserAgent      string
	RespectRobots  bool
	Timeout        time.Duration
	MaxRetries     int
	BackoffInitial time.Duration
	BackoffMax     time.Duration
}

// Fetcher implements corpus.Fetcher using a Colly collector.
type Fetcher struct {
	cfg     Config
	limiter *DomainLimiter
	log     *zap.Logger
	base    *colly.Collector
}

// New builds a Fetcher. limiter may be shared with other fetchers so all
// traffic to a host counts against one budget.
func New(cfg Config, limiter *DomainLimiter, log *zap.Logger) *Fetcher {
	c := colly.NewCollector(colly.Async(false))
	c.AllowURLRevisit = true
	c.IgnoreRobotsTxt = !cfg.RespectRobots
	if cfg.UserAgent != "" {
		c.UserAgent = cfg.UserAgent
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	c.SetRequestTimeout(timeout)
	c.WithTransport(newHTTPTransport())

	return &Fetcher{cfg: cfg, limiter: limiter, log: log, base: c}
}

// Fetch retrieves src.URL. It retries network errors and 408/429/5xx
// responses up to MaxRetries; other 4xx responses repeat
// deterministically and fail immediately.
func (f *Fetcher) Fetch(ctx context.Context, src corpus.SourceConfig) (corpus.RawContent, error) {
	var lastErr error
	for attempt := 0; attempt <= f.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			metrics.FetchRetries.Inc()
			if err := f.pause(ctx, attempt); err != nil {
				return corpus.RawContent{}, err
			}
		}
		if err := f.limiter.Wait(ctx, src.URL); err != nil {
			return corpus.RawContent{}, fmt.Errorf("rate limit wait: %w", err)
		}

		content, err := f.fetchOnce(ctx, src.URL)
		if err == nil {
			return content, nil
		}
		lastErr = err

		var ferr *corpus.FetchError
		if errors.As(err, &ferr) && !ferr.Retryable {
			return corpus.RawContent{}, err
		}
		if ctx.Err() != nil {
			return corpus.RawContent{}, err
		}
		f.log.Warn("fetch attempt failed",
			zap.String("url", src.URL),
			zap.Int("attempt", attempt+1),
			zap.Error(err))
	}
	return corpus.RawContent{}, lastErr
}

func (f *Fetcher) fetchOnce(ctx context.Context, url string) (corpus.RawContent, error) {
	var (
		content corpus.RawContent
		status  int
		hookErr error
	)
	collector := f.base.Clone()

	collector.OnResponse(func(r *colly.Response) {
		content = corpus.RawContent{
			Body:       append([]byte(nil), r.Body...),
			FinalURL:   r.Request.URL.String(),
			StatusCode: r.StatusCode,
			FetchedAt:  time.Now().UTC(),
		}
	})
	collector.OnError(func(r *colly.Response, err error) {
		if r != nil {
			status = r.StatusCode
		}
		hookErr = err
	})

	if err := f.runCollector(ctx, collector, url); err != nil {
		return corpus.RawContent{}, &corpus.FetchError{
			URL:       url,
			Status:    status,
			Retryable: retryableStatus(status),
			Err:       errors.Join(err, hookErr),
		}
	}
	if hookErr != nil {
		return corpus.RawContent{}, &corpus.FetchError{
			URL:       url,
			Status:    status,
			Retryable: retryableStatus(status),
			Err:       hookErr,
		}
	}
	return content, nil
}

func (f *Fetcher) runCollector(ctx context.Context, collector *colly.Collector, url string) error {
	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(url)
	}()
	select {
	case <-ctx.Done():
		return fmt.Errorf("fetch canceled: %w", ctx.Err())
	case err := <-done:
		return err
	}
}

// retryableStatus reports whether the response class repeats
// nondeterministically. Status 0 means the request never completed.
func retryableStatus(status int) bool {
	switch {
	case status == 0:
		return true
	case status == http.StatusRequestTimeout, status == http.StatusTooManyRequests:
		return true
	case status >= 500:
		return true
	default:
		return false
	}
}

// pause sleeps for the attempt's jittered backoff, doubling from
// BackoffInitial up to BackoffMax.
func (f *Fetcher) pause(ctx context.Context, attempt int) error {
	d := f.cfg.BackoffInitial
	if d <= 0 {
		d = 250 * time.Millisecond
	}
	for i := 1; i < attempt; i++ {
		d *= 2
	}
	if f.cfg.BackoffMax > 0 && d > f.cfg.BackoffMax {
		d = f.cfg.BackoffMax
	}
	d = d/2 + time.Duration(rand.Int63n(int64(d/2)+1))

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
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
