package node

import (
	"net"
	"testing"
)

func mustID(b byte) ID {
	var id ID
	for i := range id {
		id[i] = b
	}
	return id
}

func TestPoolRejectsInvariantViolations(t *testing.T) {
	self := mustID(0x01)
	bindIP := net.ParseIP("10.0.0.1")
	p := NewPool(self, bindIP, 10)

	cases := []struct {
		name string
		n    Node
		want bool
	}{
		{"valid", Node{ID: mustID(0x02), IP: net.ParseIP("1.2.3.4"), Port: 6881}, true},
		{"self id", Node{ID: self, IP: net.ParseIP("1.2.3.4"), Port: 6881}, false},
		{"bind ip", Node{ID: mustID(0x03), IP: bindIP, Port: 6881}, false},
		{"zero port", Node{ID: mustID(0x04), IP: net.ParseIP("1.2.3.4"), Port: 0}, false},
	}
	for _, c := range cases {
		if got := p.Push(c.n); got != c.want {
			t.Errorf("%s: Push() = %v, want %v", c.name, got, c.want)
		}
	}
}

func TestPoolSizeCap(t *testing.T) {
	p := NewPool(mustID(0x01), nil, 2)
	if !p.Push(Node{ID: mustID(0x10), IP: net.ParseIP("1.1.1.1"), Port: 1}) {
		t.Fatal("expected first push to succeed")
	}
	if !p.Push(Node{ID: mustID(0x11), IP: net.ParseIP("1.1.1.2"), Port: 1}) {
		t.Fatal("expected second push to succeed")
	}
	if p.Push(Node{ID: mustID(0x12), IP: net.ParseIP("1.1.1.3"), Port: 1}) {
		t.Fatal("expected third push to be dropped at capacity")
	}
	if !p.AtCapacity() {
		t.Fatal("expected pool to report at capacity")
	}
}

func TestPoolFIFOOrder(t *testing.T) {
	p := NewPool(mustID(0x01), nil, 10)
	first := Node{ID: mustID(0x10), IP: net.ParseIP("1.1.1.1"), Port: 1}
	second := Node{ID: mustID(0x11), IP: net.ParseIP("1.1.1.2"), Port: 2}
	p.Push(first)
	p.Push(second)

	got, ok := p.PopFront()
	if !ok || got.ID != first.ID {
		t.Fatalf("PopFront() = %v, %v, want %v, true", got, ok, first)
	}
	got, ok = p.PopFront()
	if !ok || got.ID != second.ID {
		t.Fatalf("PopFront() = %v, %v, want %v, true", got, ok, second)
	}
	if _, ok := p.PopFront(); ok {
		t.Fatal("expected pool to be empty")
	}
}

func TestPoolFrontDoesNotRemove(t *testing.T) {
	p := NewPool(mustID(0x01), nil, 10)
	p.Push(Node{ID: mustID(0x10), IP: net.ParseIP("1.1.1.1"), Port: 1})
	p.Push(Node{ID: mustID(0x11), IP: net.ParseIP("1.1.1.2"), Port: 2})

	front := p.Front(8)
	if len(front) != 2 {
		t.Fatalf("Front(8) returned %d nodes, want 2", len(front))
	}
	if p.Len() != 2 {
		t.Fatalf("Front() should not drain the pool, len = %d", p.Len())
	}
}
