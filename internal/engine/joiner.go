package engine

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"net"
	"time"

	"dhtcrawl/internal/krpc"
	"dhtcrawl/internal/node"
)

// join bootstraps the node pool: for up to JoinAttempts iterations,
// JoinInterval apart, it sends find_node(target=baseID) to one
// randomly chosen bootstrap router whenever the pool is still empty.
// Once the pool has anything in it, the sniffer's own amplification
// takes over and the joiner has nothing left to do.
func (e *Engine) join(ctx context.Context) {
	for attempt := 0; attempt < e.cfg.JoinAttempts; attempt++ {
		if e.pool.Len() == 0 && len(e.cfg.JoinRouters) > 0 {
			router := e.cfg.JoinRouters[randIndex(len(e.cfg.JoinRouters))]
			e.sendFindNode(router, e.baseID)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(e.cfg.JoinInterval):
		}
	}
}

func randIndex(n int) int {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return 0
	}
	return int(binary.BigEndian.Uint64(b[:]) % uint64(n))
}

func (e *Engine) sendFindNode(addrStr string, target node.ID) {
	addr, err := net.ResolveUDPAddr("udp4", addrStr)
	if err != nil {
		e.log.Debugf("join: resolve %s: %v", addrStr, err)
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
	krpc.Send(e.conn, addr, query, e.log)
	totalSentFindNode.Add(1)
}
