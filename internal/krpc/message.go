// Package krpc implements the bencoded query/response/error envelope
// used by the Mainline DHT wire protocol (BEP-5), plus the 26-byte
// compact node encoding used inside find_node/get_peers replies.
package krpc

import (
	"bytes"
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"net"
	"strings"

	bencode "github.com/jackpal/bencode-go"

	"dhtcrawl/internal/logger"
	"dhtcrawl/internal/node"
)

// QueryArgs is the "a" dictionary of an incoming query. Only the
// fields used by the four supported query types are modeled; anything
// else bencode-go leaves at its zero value.
type QueryArgs struct {
	Id          string "id"
	Target      string "target"
	InfoHash    string "info_hash"
	Port        int    "port"
	Token       string "token"
	ImpliedPort int    "implied_port"
}

// ReplyFields is the "r" dictionary of an incoming response.
type ReplyFields struct {
	Id    string "id"
	Nodes string "nodes"
	Token string "token"
}

// Incoming is the generic shape every datagram is decoded into. A
// message is either a query (Y=="q", Q and A populated) or a response
// (Y=="r", R populated); anything else is dropped by the caller.
type Incoming struct {
	T string      "t"
	Y string      "y"
	Q string      "q"
	A QueryArgs   "a"
	R ReplyFields "r"
}

// QueryMessage is the shape sent out for a "q" message. A is a plain
// map rather than a struct so that only the arguments relevant to a
// given query type are emitted on the wire.
type QueryMessage struct {
	T string                 "t"
	Y string                 "y"
	Q string                 "q"
	A map[string]interface{} "a"
}

// ReplyMessage is the shape sent out for an "r" message.
type ReplyMessage struct {
	T string                 "t"
	Y string                 "y"
	R map[string]interface{} "r"
}

// NewTransactionID returns a fresh 2-byte transaction id, as required
// for outgoing queries by BEP-5.
func NewTransactionID() (string, error) {
	b := make([]byte, 2)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return string(b), nil
}

// Send bencodes msg and writes it to addr. Any marshal or write error
// is logged and swallowed — a dropped outgoing packet is never fatal
// to the crawler.
func Send(conn *net.UDPConn, addr *net.UDPAddr, msg interface{}, log logger.DebugLogger) {
	var buf bytes.Buffer
	if err := bencode.Marshal(&buf, msg); err != nil {
		log.Debugf("krpc: marshal error: %v", err)
		return
	}
	if _, err := conn.WriteToUDP(buf.Bytes(), addr); err != nil {
		log.Debugf("krpc: write to %v failed: %v", addr, err)
	}
}

// Decode bdecodes a raw datagram into an Incoming message. bencode-go's
// Unmarshal can panic on odd or partial wire data; Decode recovers from
// that and reports it as an ordinary error so callers can treat every
// failure to parse a datagram the same way: drop it and move on.
func Decode(b []byte, log logger.DebugLogger) (msg Incoming, err error) {
	defer func() {
		if x := recover(); x != nil {
			log.Debugf("krpc: recovered from panic decoding %q: %v", string(b), x)
			err = fmt.Errorf("krpc: panic decoding message: %v", x)
		}
	}()
	err = bencode.Unmarshal(bytes.NewReader(b), &msg)
	return
}

// NodeContactLen is the length, in bytes, of one compact node record:
// a 20-byte id, a 4-byte IPv4 address and a 2-byte big-endian port.
const NodeContactLen = 26

// EncodeNodes serializes nodes into the compact "nodes" wire format.
// Entries without a usable IPv4 address are silently skipped, since
// that should never happen for anything accepted into the node pool.
func EncodeNodes(nodes []node.Node) string {
	var b strings.Builder
	for _, n := range nodes {
		ip4 := n.IP.To4()
		if ip4 == nil {
			continue
		}
		b.Write(n.ID[:])
		b.Write(ip4)
		var portBytes [2]byte
		binary.BigEndian.PutUint16(portBytes[:], n.Port)
		b.Write(portBytes[:])
	}
	return b.String()
}

// DecodeNodes parses a compact "nodes" string. A blob whose length
// isn't a multiple of NodeContactLen yields zero nodes; otherwise it
// yields exactly len(blob)/NodeContactLen of them.
func DecodeNodes(blob string) []node.Node {
	if len(blob) == 0 || len(blob)%NodeContactLen != 0 {
		return nil
	}
	out := make([]node.Node, 0, len(blob)/NodeContactLen)
	for i := 0; i < len(blob); i += NodeContactLen {
		var id node.ID
		copy(id[:], blob[i:i+node.IDLen])
		ip := net.IP(append([]byte(nil), blob[i+20:i+24]...))
		port := binary.BigEndian.Uint16([]byte(blob[i+24 : i+26]))
		out = append(out, node.Node{ID: id, IP: ip, Port: port})
	}
	return out
}
