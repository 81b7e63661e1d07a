package krpc

import (
	"net"
	"testing"

	"dhtcrawl/internal/node"
)

func sampleNode(b byte, ip string, port uint16) node.Node {
	var id node.ID
	for i := range id {
		id[i] = b
	}
	return node.Node{ID: id, IP: net.ParseIP(ip).To4(), Port: port}
}

func TestEncodeDecodeNodesRoundTrip(t *testing.T) {
	in := []node.Node{
		sampleNode(0x01, "1.2.3.4", 6881),
		sampleNode(0x02, "5.6.7.8", 6882),
		sampleNode(0x03, "9.10.11.12", 1),
	}
	blob := EncodeNodes(in)
	out := DecodeNodes(blob)
	if len(out) != len(in) {
		t.Fatalf("DecodeNodes returned %d nodes, want %d", len(out), len(in))
	}
	for i := range in {
		if out[i].ID != in[i].ID || !out[i].IP.Equal(in[i].IP) || out[i].Port != in[i].Port {
			t.Errorf("node %d: got %+v, want %+v", i, out[i], in[i])
		}
	}
}

func TestDecodeNodesRejectsWrongLength(t *testing.T) {
	if nodes := DecodeNodes("short"); nodes != nil {
		t.Fatalf("expected nil for a non-multiple-of-26 blob, got %v", nodes)
	}
	blob := EncodeNodes([]node.Node{sampleNode(0x01, "1.2.3.4", 1)})
	if nodes := DecodeNodes(blob[:len(blob)-1]); nodes != nil {
		t.Fatalf("expected nil for a truncated blob, got %v", nodes)
	}
}

func TestDecodeNodesCount(t *testing.T) {
	nodes := make([]node.Node, 5)
	for i := range nodes {
		nodes[i] = sampleNode(byte(i), "1.2.3.4", uint16(1000+i))
	}
	blob := EncodeNodes(nodes)
	if got := len(DecodeNodes(blob)); got != len(blob)/NodeContactLen {
		t.Fatalf("DecodeNodes returned %d, want %d", got, len(blob)/NodeContactLen)
	}
}
