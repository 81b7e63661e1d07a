package identity

import (
	"testing"

	"dhtcrawl/internal/node"
)

func TestNewIsRandomAnd20Bytes(t *testing.T) {
	a, err := New()
	if err != nil {
		t.Fatal(err)
	}
	b, err := New()
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Fatal("two calls to New() produced the same id")
	}
}

func TestNeighborSharesPrefix(t *testing.T) {
	var target node.ID
	for i := range target {
		target[i] = byte(i)
	}
	for _, k := range []int{0, 3, 10, 20} {
		got, err := Neighbor(target, k)
		if err != nil {
			t.Fatal(err)
		}
		for i := 0; i < k; i++ {
			if got[i] != target[i] {
				t.Fatalf("Neighbor(_, %d)[%d] = %x, want %x", k, i, got[i], target[i])
			}
		}
	}
}

func TestNeighborVariesSuffix(t *testing.T) {
	var target node.ID
	a, _ := Neighbor(target, 10)
	b, _ := Neighbor(target, 10)
	if a == b {
		t.Fatal("expected two calls to Neighbor to differ in the random suffix")
	}
}
