package node

import (
	"net"
	"sync"
)

// Pool is a FIFO ingestion buffer, not a routing table: appended by
// the receiver's find_node response handler, drained from the front by
// the sniffer, with its length read by the joiner. A single mutex is
// enough — the operations are all O(1) and none of them blocks.
type Pool struct {
	mu      sync.Mutex
	nodes   []Node
	maxSize int
	selfID  ID
	bindIP  net.IP
}

// NewPool creates a pool that rejects entries equal to selfID or
// bindIP, and caps itself at maxSize entries.
func NewPool(selfID ID, bindIP net.IP, maxSize int) *Pool {
	return &Pool{
		maxSize: maxSize,
		selfID:  selfID,
		bindIP:  bindIP,
	}
}

// Valid reports whether n satisfies the pool's insertion invariants,
// independent of whether the pool currently has room.
func (p *Pool) Valid(n Node) bool {
	if n.ID == p.selfID {
		return false
	}
	if p.bindIP != nil && n.IP.Equal(p.bindIP) {
		return false
	}
	if n.Port < 1 {
		return false
	}
	return true
}

// Push appends n to the back of the pool, subject to the size cap and
// the invariants in Valid. It reports whether the node was accepted.
func (p *Pool) Push(n Node) bool {
	if !p.Valid(n) {
		return false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.nodes) >= p.maxSize {
		return false
	}
	p.nodes = append(p.nodes, n)
	return true
}

// PopFront removes and returns the node at the front of the pool. The
// second return value is false if the pool was empty.
func (p *Pool) PopFront() (Node, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.nodes) == 0 {
		return Node{}, false
	}
	n := p.nodes[0]
	p.nodes = p.nodes[1:]
	return n, true
}

// Front returns up to n nodes from the head of the pool, without
// removing them. Used to answer find_node/get_peers queries with a
// sample of known contacts.
func (p *Pool) Front(n int) []Node {
	p.mu.Lock()
	defer p.mu.Unlock()
	if n > len(p.nodes) {
		n = len(p.nodes)
	}
	out := make([]Node, n)
	copy(out, p.nodes[:n])
	return out
}

// Len returns the number of nodes currently buffered.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.nodes)
}

// AtCapacity reports whether the pool is at or above its size cap.
func (p *Pool) AtCapacity() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.nodes) >= p.maxSize
}
