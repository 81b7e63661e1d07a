package fetch

import (
	"sync"
	"time"

	"github.com/golang/groupcache/lru"
)

// dialBackoff is a small bounded cache of peers that recently failed a
// fetch, so a peer that just refused a connection (or hung up
// mid-handshake) isn't immediately retried the next time its address
// turns up in a fresh Bloom filter window.
//
// lru.Cache is not safe for concurrent use, so access is serialized
// with a mutex; the inquirer pool calls into it from many worker
// goroutines at once.
type dialBackoff struct {
	mu     sync.Mutex
	cache  *lru.Cache
	window time.Duration
}

func newDialBackoff(size int, window time.Duration) *dialBackoff {
	return &dialBackoff{
		cache:  lru.New(size),
		window: window,
	}
}

func (d *dialBackoff) recentlyFailed(addr string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	v, ok := d.cache.Get(addr)
	if !ok {
		return false
	}
	failedAt, ok := v.(time.Time)
	return ok && time.Since(failedAt) < d.window
}

func (d *dialBackoff) markFailed(addr string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cache.Add(addr, time.Now())
}
