package engine

import (
	"context"
	"time"

	"dhtcrawl/internal/identity"
	"dhtcrawl/internal/krpc"
	"dhtcrawl/internal/node"
)

// sniff repeatedly pops a burst of nodes off the pool and queries each
// for more nodes close to a neighbor of that node's own id. It's the
// pool's only source of outbound traffic: the more of the keyspace we
// ask about, the more of the DHT's live nodes and, eventually, its
// announce_peer traffic, we see.
func (e *Engine) sniff(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		queried := 0
		for queried < e.cfg.SniffBurst {
			n, ok := e.pool.PopFront()
			if !ok {
				break
			}
			e.sniffOne(n)
			queried++
		}

		wait := e.cfg.SniffInterval
		if queried == 0 {
			wait = e.cfg.SniffIdleRetry
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
	}
}

// sniffOne queries n for nodes close to a neighbor of n's own id — a
// near neighbor of the queried node's own id maximizes the density of
// useful responses, since peers return their closest known contacts.
func (e *Engine) sniffOne(n node.Node) {
	target, err := identity.Neighbor(n.ID, defaultNeighborPrefix)
	if err != nil {
		return
	}
	tid, err := krpc.NewTransactionID()
	if err != nil {
		return
	}
	query := krpc.QueryMessage{
		T: tid,
		Y: "q",
		Q: "find_node",
		A: map[string]interface{}{
			"id":     string(e.baseID[:]),
			"target": string(target[:]),
		},
	}
	krpc.Send(e.conn, n.Addr(), query, e.log)
	totalSentFindNode.Add(1)
}
