package http

import (
	"context"
	"net/url"
	"strings"
	"sync"

	"github.com/fwojciec/pagestem"
	"golang.org/x/time/rate"
)

// hostLimiter spaces the requests sent to each host evenly. Hosts are
// limited independently and never burst.
type hostLimiter struct {
	limit rate.Limit

	mu    sync.Mutex
	hosts map[string]*rate.Limiter
}

func newHostLimiter(perSecond float64) *hostLimiter {
	return &hostLimiter{limit: rate.Limit(perSecond), hosts: make(map[string]*rate.Limiter)}
}

// wait blocks until a request to the host of page may go out. A limiter
// with a non-positive rate only checks ctx.
func (l *hostLimiter) wait(ctx context.Context, page string) error {
	if l.limit <= 0 {
		return ctx.Err()
	}
	u, err := url.Parse(page)
	if err != nil || u.Host == "" {
		return pagestem.Errorf(pagestem.EINVALID, "invalid page URL %q", page)
	}
	host := strings.ToLower(u.Host)

	l.mu.Lock()
	lim, ok := l.hosts[host]
	if !ok {
		lim = rate.NewLimiter(l.limit, 1)
		l.hosts[host] = lim
	}
	l.mu.Unlock()

	return lim.Wait(ctx)
}
