// Package identity generates the node IDs the crawler presents to the
// network. A crawler that always showed the same identity would only
// ever look close to one point in the keyspace; by minting a fresh
// "neighbor" id for every find_node and get_peers reply, it looks close to whatever the asking
// node happens to care about.
package identity

import (
	"crypto/rand"
	"io"

	"dhtcrawl/internal/node"
)

// New generates a random 20-byte node ID, used once at process startup
// as the crawler's own identity.
func New() (node.ID, error) {
	var id node.ID
	if _, err := io.ReadFull(rand.Reader, id[:]); err != nil {
		return node.ID{}, err
	}
	return id, nil
}

// Neighbor returns an id sharing target's first prefixLen bytes, with
// the remainder randomized. Used to present an id that is close, in
// Kademlia XOR distance, to whatever target (a node id or an infohash)
// we want to attract traffic about.
func Neighbor(target node.ID, prefixLen int) (node.ID, error) {
	if prefixLen < 0 {
		prefixLen = 0
	}
	if prefixLen > node.IDLen {
		prefixLen = node.IDLen
	}
	var out node.ID
	copy(out[:prefixLen], target[:prefixLen])
	if _, err := io.ReadFull(rand.Reader, out[prefixLen:]); err != nil {
		return node.ID{}, err
	}
	return out, nil
}
