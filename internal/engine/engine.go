// Package engine wires together the node pool, the UDP receive loop,
// the bootstrap joiner, the sniffer, the BEP-9 inquirer pool and the
// recorder into one running crawler.
package engine

import (
	"context"
	"fmt"
	"net"
	"sync"

	"dhtcrawl/internal/fetch"
	"dhtcrawl/internal/identity"
	"dhtcrawl/internal/krpc"
	"dhtcrawl/internal/logger"
	"dhtcrawl/internal/node"
	"dhtcrawl/internal/storage"
)

const (
	// repliedNodeCount is how many pool entries we hand back in a
	// find_node/get_peers reply.
	repliedNodeCount = 8

	// defaultNeighborPrefix is how many bytes of a target id a
	// neighbor id shares by default (find_node replies, sniffer
	// queries).
	defaultNeighborPrefix = 10

	// getPeersNeighborPrefix is the shorter prefix used when
	// impersonating toward an infohash in a get_peers reply, putting
	// our claimed id deep in that infohash's own neighborhood.
	getPeersNeighborPrefix = 3
)

// Engine runs one crawler instance. It holds one stable identity,
// baseID, used for bootstrap queries and for plain acks (pong). Every
// find_node/get_peers reply, by contrast, is signed with a freshly
// generated "neighbor" id sharing a prefix with whatever the query
// concerned, so the asking node records a different close contact for
// us on every exchange.
type Engine struct {
	cfg    Config
	conn   *net.UDPConn
	baseID node.ID
	bindIP net.IP

	pool *node.Pool
	log  logger.DebugLogger

	announceCh chan fetch.Announce
	metadataCh chan storage.Record
	fetchPool  *fetch.Pool
	sink       storage.Sink

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New constructs an Engine bound to cfg.BindAddr. The socket isn't
// opened until Start is called.
func New(cfg Config, sink storage.Sink, log logger.DebugLogger) (*Engine, error) {
	if log == nil {
		log = &logger.NullLogger{}
	}
	baseID, err := identity.New()
	if err != nil {
		return nil, fmt.Errorf("engine: generate base id: %w", err)
	}

	host, _, err := net.SplitHostPort(cfg.BindAddr)
	if err != nil {
		return nil, fmt.Errorf("engine: parse bind address %q: %w", cfg.BindAddr, err)
	}
	bindIP := net.ParseIP(host)

	announceCh := make(chan fetch.Announce, cfg.AnnounceQueueSize)
	metadataCh := make(chan storage.Record, cfg.MetadataQueueSize)

	return &Engine{
		cfg:        cfg,
		baseID:     baseID,
		bindIP:     bindIP,
		pool:       node.NewPool(baseID, bindIP, cfg.MaxNodeSize),
		log:        log,
		announceCh: announceCh,
		metadataCh: metadataCh,
		fetchPool:  fetch.NewPool(cfg.Fetch, metadataCh, log),
		sink:       sink,
	}, nil
}

// Start opens the UDP socket and launches the receiver, joiner,
// sniffer, inquirer pool and recorder goroutines. It returns once the
// socket is bound; the goroutines keep running until Stop is called.
func (e *Engine) Start(ctx context.Context) error {
	addr, err := net.ResolveUDPAddr("udp4", e.cfg.BindAddr)
	if err != nil {
		return fmt.Errorf("engine: resolve %q: %w", e.cfg.BindAddr, err)
	}
	conn, err := net.ListenUDP("udp4", addr)
	if err != nil {
		return fmt.Errorf("engine: listen %q: %w", e.cfg.BindAddr, err)
	}
	e.conn = conn

	if e.sink != nil {
		if err := e.sink.Init(ctx); err != nil {
			conn.Close()
			return fmt.Errorf("engine: init storage: %w", err)
		}
	}

	runCtx, cancel := context.WithCancel(ctx)
	e.cancel = cancel

	e.wg.Add(4)
	go func() { defer e.wg.Done(); e.receive(runCtx) }()
	go func() { defer e.wg.Done(); e.join(runCtx) }()
	go func() { defer e.wg.Done(); e.sniff(runCtx) }()
	go func() { defer e.wg.Done(); e.record(runCtx) }()

	e.wg.Add(1)
	go func() { defer e.wg.Done(); e.fetchPool.Run(runCtx, e.announceCh) }()

	return nil
}

// Stop cancels every goroutine launched by Start and blocks until they
// have all exited.
func (e *Engine) Stop() {
	if e.cancel != nil {
		e.cancel()
	}
	if e.conn != nil {
		e.conn.Close()
	}
	e.wg.Wait()
}

func (e *Engine) processPacket(data []byte, raddr *net.UDPAddr) {
	totalRecv.Add(1)
	msg, err := krpc.Decode(data, e.log)
	if err != nil {
		totalDroppedPackets.Add(1)
		return
	}
	switch msg.Y {
	case "r":
		e.handleReply(msg)
	case "q":
		e.handleQuery(msg, raddr)
	default:
		totalDroppedPackets.Add(1)
	}
}

func (e *Engine) handleReply(msg krpc.Incoming) {
	totalRecvFindNodeReply.Add(1)
	for _, n := range krpc.DecodeNodes(msg.R.Nodes) {
		e.ingest(n)
	}
}

func (e *Engine) handleQuery(msg krpc.Incoming, raddr *net.UDPAddr) {
	e.ingestSender(msg, raddr)
	switch msg.Q {
	case "ping":
		e.sendPong(msg, raddr)
	case "find_node":
		totalRecvFindNode.Add(1)
		e.replyFindNode(msg, raddr)
	case "get_peers":
		totalRecvGetPeers.Add(1)
		e.replyGetPeers(msg, raddr)
	case "announce_peer":
		totalRecvAnnouncePeer.Add(1)
		e.handleAnnouncePeer(msg, raddr)
	default:
		totalDroppedPackets.Add(1)
	}
}

func (e *Engine) ingest(n node.Node) {
	if e.pool.Push(n) {
		totalNodesAccepted.Add(1)
	} else {
		totalNodesRejected.Add(1)
	}
}

func (e *Engine) ingestSender(msg krpc.Incoming, raddr *net.UDPAddr) {
	id, err := node.IDFromBytes([]byte(msg.A.Id))
	if err != nil {
		return
	}
	ip4 := raddr.IP.To4()
	if ip4 == nil {
		return
	}
	e.ingest(node.Node{ID: id, IP: ip4, Port: uint16(raddr.Port)})
}

// sendPong answers a ping, or acks an announce_peer, with our plain
// self id — no impersonation. A ping reply is purely a liveness check;
// there is no target to attract future traffic toward.
func (e *Engine) sendPong(msg krpc.Incoming, raddr *net.UDPAddr) {
	reply := krpc.ReplyMessage{
		T: msg.T,
		Y: "r",
		R: map[string]interface{}{"id": string(e.baseID[:])},
	}
	krpc.Send(e.conn, raddr, reply, e.log)
}

// replyFindNode answers with neighbor(baseID), not baseID itself: the
// caller records a different identity for us on every query, widening
// the set of targets for which we appear nearby.
func (e *Engine) replyFindNode(msg krpc.Incoming, raddr *net.UDPAddr) {
	id, err := identity.Neighbor(e.baseID, defaultNeighborPrefix)
	if err != nil {
		return
	}
	reply := krpc.ReplyMessage{
		T: msg.T,
		Y: "r",
		R: map[string]interface{}{
			"id":    string(id[:]),
			"nodes": krpc.EncodeNodes(e.pool.Front(repliedNodeCount)),
		},
	}
	krpc.Send(e.conn, raddr, reply, e.log)
}

// replyGetPeers answers with neighbor(info_hash, 3): a short shared
// prefix puts our claimed id deep inside that exact infohash's
// neighborhood, without ever returning real peers for it.
func (e *Engine) replyGetPeers(msg krpc.Incoming, raddr *net.UDPAddr) {
	infoHash, err := node.IDFromBytes([]byte(msg.A.InfoHash))
	if err != nil {
		return
	}
	id, err := identity.Neighbor(infoHash, getPeersNeighborPrefix)
	if err != nil {
		return
	}
	reply := krpc.ReplyMessage{
		T: msg.T,
		Y: "r",
		R: map[string]interface{}{
			"id":    string(id[:]),
			"nodes": krpc.EncodeNodes(e.pool.Front(repliedNodeCount)),
			"token": infoHashToken(msg.A.InfoHash),
		},
	}
	krpc.Send(e.conn, raddr, reply, e.log)
}

// infoHashToken derives a get_peers/announce_peer token from an
// infohash. It carries no secret: the crawler only needs a peer's
// announce_peer to look legitimate enough to accept, never to verify
// that the announcer actually ran get_peers first.
func infoHashToken(infoHash string) string {
	if len(infoHash) < 4 {
		return infoHash
	}
	return infoHash[:4]
}

func validToken(infoHash, token string) bool {
	return token == infoHashToken(infoHash)
}

// selectAnnouncePort resolves the port an announce_peer claims to be
// listening on: the query's source port when implied_port is set,
// otherwise the explicit port argument. It reports false for anything
// outside the valid TCP port range.
func selectAnnouncePort(a krpc.QueryArgs, srcPort int) (port int, ok bool) {
	if a.ImpliedPort != 0 {
		port = srcPort
	} else {
		port = a.Port
	}
	return port, port >= 1 && port <= 65535
}

// handleAnnouncePeer enqueues a metadata fetch and always acks with a
// pong, regardless of whether the token matches. Gating the enqueue on
// an unkeyed, unsalted token that's public knowledge (anyone who ran
// get_peers has it) wouldn't stop an adversary, so the only thing
// worth validating before queuing work is the port — a malformed one
// can't be dialed at all.
func (e *Engine) handleAnnouncePeer(msg krpc.Incoming, raddr *net.UDPAddr) {
	if !validToken(msg.A.InfoHash, msg.A.Token) {
		e.log.Debugf("announce_peer: token mismatch from %v", raddr)
	}

	if port, ok := selectAnnouncePort(msg.A, raddr.Port); ok {
		if infoHash, err := node.IDFromBytes([]byte(msg.A.InfoHash)); err == nil {
			a := fetch.Announce{InfoHash: infoHash, IP: raddr.IP, Port: uint16(port)}
			select {
			case e.announceCh <- a:
				totalAnnouncesEnqueued.Add(1)
			default:
				totalAnnouncesDropped.Add(1)
			}
		}
	}

	e.sendPong(msg, raddr)
}
