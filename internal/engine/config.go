package engine

import (
	"flag"
	"time"

	"dhtcrawl/internal/fetch"
)

// Config holds every tunable the crawler needs to start. Zero-value
// fields are filled in by NewConfig with sane defaults.
type Config struct {
	// BindAddr is the local "ip:port" the UDP socket listens on.
	BindAddr string

	// MaxNodeSize caps how many nodes the ingestion pool holds at
	// once.
	MaxNodeSize int

	// SniffBurst is how many nodes the sniffer pulls off the pool and
	// queries per cycle; SniffInterval is how long it sleeps between
	// cycles, and SniffIdleRetry is the shorter sleep used when the
	// pool was empty.
	SniffBurst     int
	SniffInterval  time.Duration
	SniffIdleRetry time.Duration

	// JoinRouters are the bootstrap routers pinged with find_node
	// against our own id when the crawler starts.
	JoinRouters  []string
	JoinAttempts int
	JoinInterval time.Duration

	// Fetch configures the BEP-9 inquirer pool.
	Fetch fetch.Config

	// AnnounceQueueSize and MetadataQueueSize bound the channels
	// connecting the receiver to the inquirer pool and the inquirer
	// pool to the recorder. The receiver's send is non-blocking: a full
	// announce queue drops the newest announce rather than stalling the
	// UDP receive loop. A fetch worker's send to the metadata queue
	// blocks until there is room or the engine stops.
	AnnounceQueueSize int
	MetadataQueueSize int

	// HTTPAddr, if non-empty, serves expvar's /debug/vars (and
	// nothing else) for external observability.
	HTTPAddr string
}

// NewConfig returns a Config pre-populated with the crawler's
// historical defaults.
func NewConfig() *Config {
	return &Config{
		BindAddr:          ":6881",
		MaxNodeSize:       50000,
		SniffBurst:        200,
		SniffInterval:     10 * time.Second,
		SniffIdleRetry:    time.Second,
		JoinRouters:       []string{"router.utorrent.com:6881", "router.bittorrent.com:6881", "dht.transmissionbt.com:6881"},
		JoinAttempts:      20,
		JoinInterval:      10 * time.Second,
		Fetch:             fetch.DefaultConfig(),
		AnnounceQueueSize: 4096,
		MetadataQueueSize: 1024,
		HTTPAddr:          "",
	}
}

// RegisterFlags wires Config's fields onto a flag.FlagSet so a cmd
// package can expose them on the command line.
func (c *Config) RegisterFlags(f *flag.FlagSet) {
	f.StringVar(&c.BindAddr, "bind", c.BindAddr, "local UDP address to listen on")
	f.IntVar(&c.MaxNodeSize, "max-nodes", c.MaxNodeSize, "maximum size of the node ingestion pool")
	f.IntVar(&c.SniffBurst, "sniff-burst", c.SniffBurst, "nodes queried per sniffer cycle")
	f.DurationVar(&c.SniffInterval, "sniff-interval", c.SniffInterval, "sleep between sniffer cycles")
	f.IntVar(&c.Fetch.Workers, "fetch-workers", c.Fetch.Workers, "concurrent BEP-9 metadata fetches")
	f.DurationVar(&c.Fetch.Timeout, "fetch-timeout", c.Fetch.Timeout, "per-fetch dial and read timeout")
	f.StringVar(&c.HTTPAddr, "http", c.HTTPAddr, "address to serve /debug/vars on, empty to disable")
}
