package bloom

import "testing"

func TestAddTwiceReturnsFalseSecondTime(t *testing.T) {
	f := New(5000, 5)
	item := []byte("1111111111111111111127.0.0.1")
	if !f.Add(item) {
		t.Fatal("first Add() should report the item as new")
	}
	if f.Add(item) {
		t.Fatal("second Add() of the same item should report false")
	}
}

func TestAllInsertedItemsSubsequentlyFalse(t *testing.T) {
	f := New(5000, 5)
	items := make([][]byte, 0, 100)
	for i := 0; i < 100; i++ {
		items = append(items, []byte{byte(i), byte(i >> 8), byte(i >> 16)})
	}
	for _, it := range items {
		f.Add(it)
	}
	for _, it := range items {
		if f.Add(it) {
			t.Fatalf("item %v reported new after being inserted in the same batch", it)
		}
	}
}

func TestFreshFilterForgetsPriorItems(t *testing.T) {
	item := []byte("some-infohash+ip")
	f1 := New(5000, 5)
	f1.Add(item)

	f2 := New(5000, 5)
	if !f2.Add(item) {
		t.Fatal("a fresh filter should not remember items from a previous one")
	}
}
