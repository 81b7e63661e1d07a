package fetch

import (
	"context"
	"net"
	"strconv"
	"sync"
	"time"

	"dhtcrawl/internal/bloom"
	"dhtcrawl/internal/logger"
	"dhtcrawl/internal/node"
	"dhtcrawl/internal/storage"
)

// Announce is a captured announce_peer: a claim that infoHash is being
// served at ip:port.
type Announce struct {
	InfoHash node.ID
	IP       net.IP
	Port     uint16
}

// Config tunes the inquirer pool.
type Config struct {
	// Workers caps how many fetches run concurrently.
	Workers int
	// Timeout bounds the dial and each drain-until-idle read.
	Timeout time.Duration
	// BatchSize is how many announces are drained into one Bloom
	// filter window before a fresh filter is started.
	BatchSize int
	// BloomBits and BloomHashes size the per-batch dedup filter.
	BloomBits   uint
	BloomHashes uint
	// BackoffSize and BackoffWindow tune the dial-backoff cache.
	BackoffSize   int
	BackoffWindow time.Duration
}

// DefaultConfig matches a 1000-announce batch size, a (5000, 5) Bloom
// filter, and a 100-worker fetch concurrency cap.
func DefaultConfig() Config {
	return Config{
		Workers:       100,
		Timeout:       7 * time.Second,
		BatchSize:     1000,
		BloomBits:     5000,
		BloomHashes:   5,
		BackoffSize:   2000,
		BackoffWindow: 10 * time.Minute,
	}
}

// Pool pulls announces off a channel, deduplicates them against a
// fresh Bloom filter each batch, and spawns bounded-concurrency
// workers that perform the BEP-9 fetch and hand the result to out.
type Pool struct {
	cfg     Config
	sem     chan struct{}
	out     chan<- storage.Record
	log     logger.DebugLogger
	backoff *dialBackoff
	wg      sync.WaitGroup
}

func NewPool(cfg Config, out chan<- storage.Record, log logger.DebugLogger) *Pool {
	return &Pool{
		cfg:     cfg,
		sem:     make(chan struct{}, cfg.Workers),
		out:     out,
		log:     log,
		backoff: newDialBackoff(cfg.BackoffSize, cfg.BackoffWindow),
	}
}

// Run drains in until ctx is cancelled. It never returns early just
// because in is momentarily empty — an empty channel is the pool's
// normal idle state between bursts of DHT announce traffic.
func (p *Pool) Run(ctx context.Context, in <-chan Announce) {
	for {
		if ctx.Err() != nil {
			p.wg.Wait()
			return
		}

		bf := bloom.New(p.cfg.BloomBits, p.cfg.BloomHashes)
		drained := p.drainBatch(ctx, in, bf)

		if drained == 0 {
			select {
			case <-ctx.Done():
				p.wg.Wait()
				return
			case <-time.After(200 * time.Millisecond):
			}
		}
	}
}

func (p *Pool) drainBatch(ctx context.Context, in <-chan Announce, bf *bloom.Filter) int {
	drained := 0
	for drained < p.cfg.BatchSize {
		select {
		case a, ok := <-in:
			if !ok {
				return drained
			}
			drained++
			if !bf.Add(dedupKey(a)) {
				continue
			}
			p.spawn(ctx, a)
		case <-ctx.Done():
			return drained
		default:
			return drained
		}
	}
	return drained
}

func dedupKey(a Announce) []byte {
	key := make([]byte, 0, node.IDLen+len(a.IP))
	key = append(key, a.InfoHash[:]...)
	key = append(key, a.IP...)
	return key
}

func (p *Pool) spawn(ctx context.Context, a Announce) {
	addr := net.JoinHostPort(a.IP.String(), portStr(a.Port))
	if p.backoff.recentlyFailed(addr) {
		return
	}

	select {
	case p.sem <- struct{}{}:
	case <-ctx.Done():
		return
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer func() { <-p.sem }()

		rec, err := Fetch(ctx, a, p.cfg.Timeout)
		if err != nil {
			p.log.Debugf("fetch: %s failed: %v", addr, err)
			p.backoff.markFailed(addr)
			return
		}
		if rec == nil {
			return
		}
		select {
		case p.out <- *rec:
		case <-ctx.Done():
		}
	}()
}

func portStr(p uint16) string {
	return strconv.Itoa(int(p))
}
