// Package node holds the crawler's view of other DHT participants: a
// 20-byte node ID and the ingestion buffer ("node pool") that the
// sniffer drains to keep pressure on the network.
//
// The pool is deliberately not a routing table: there are no buckets,
// no liveness tracking, and no eviction beyond the size cap. Filling it
// faster than the sniffer can drain it just means new inserts are
// dropped, which is an acceptable loss for a crawler that only cares
// about volume of traffic, not any particular neighbor.
package node

import (
	"encoding/hex"
	"fmt"
	"net"
)

// IDLen is the length, in bytes, of a DHT node ID.
const IDLen = 20

// ID is a 20-byte Kademlia node identifier.
type ID [IDLen]byte

func (id ID) String() string {
	return hex.EncodeToString(id[:])
}

// IDFromBytes copies b into an ID. b must be exactly IDLen bytes.
func IDFromBytes(b []byte) (ID, error) {
	var id ID
	if len(b) != IDLen {
		return id, fmt.Errorf("node: id must be %d bytes, got %d", IDLen, len(b))
	}
	copy(id[:], b)
	return id, nil
}

// Node is a single DHT contact: its ID and UDP address.
type Node struct {
	ID   ID
	IP   net.IP
	Port uint16
}

func (n Node) Addr() *net.UDPAddr {
	return &net.UDPAddr{IP: n.IP, Port: int(n.Port)}
}
