package fetcher

import (
	"context"
	"net/url"
	"strings"
	"sync"

	"golang.org/x/time/rate"
)

// DomainLimiter rate-limits outbound requests per hostname so that
// companies sharing a careers host queue behind one budget. Waiting
// callers are serialized by the shared limiter, never dropped.
type DomainLimiter struct {
	mu    sync.Mutex
	perms map[string]*rate.Limiter
	r     rate.Limit
	b     int
}

// NewDomainLimiter allows reqPerSec sustained requests with the given
// burst per hostname. reqPerSec <= 0 disables limiting.
func NewDomainLimiter(reqPerSec float64, burst int) *DomainLimiter {
	if burst < 1 {
		burst = 1
	}
	return &DomainLimiter{
		perms: make(map[string]*rate.Limiter),
		r:     rate.Limit(reqPerSec),
		b:     burst,
	}
}

func (dl *DomainLimiter) limiterFor(host string) *rate.Limiter {
	dl.mu.Lock()
	defer dl.mu.Unlock()
	if lim, ok := dl.perms[host]; ok {
		return lim
	}
	lim := rate.NewLimiter(dl.r, dl.b)
	dl.perms[host] = lim
	return lim
}

// Wait blocks until the URL's host has budget or ctx is done.
func (dl *DomainLimiter) Wait(ctx context.Context, rawURL string) error {
	if dl.r <= 0 {
		return nil
	}
	host := "_"
	if u, err := url.Parse(rawURL); err == nil && u.Hostname() != "" {
		host = strings.ToLower(u.Hostname())
	}
	return dl.limiterFor(host).Wait(ctx)
}
