package fetch

import (
	"testing"
	"time"
)

func TestDialBackoffRemembersRecentFailures(t *testing.T) {
	b := newDialBackoff(10, time.Minute)
	addr := "1.2.3.4:6881"

	if b.recentlyFailed(addr) {
		t.Fatal("a peer that has never failed should not be backed off")
	}
	b.markFailed(addr)
	if !b.recentlyFailed(addr) {
		t.Fatal("a peer marked as failed should be backed off within the window")
	}
}

func TestDialBackoffExpiresAfterWindow(t *testing.T) {
	b := newDialBackoff(10, 10*time.Millisecond)
	addr := "1.2.3.4:6881"

	b.markFailed(addr)
	time.Sleep(30 * time.Millisecond)
	if b.recentlyFailed(addr) {
		t.Fatal("backoff should expire once the window has elapsed")
	}
}

func TestDedupKeyDistinguishesByHashAndIP(t *testing.T) {
	a1 := Announce{InfoHash: sampleInfoHash(0x01), IP: []byte{1, 2, 3, 4}, Port: 1}
	a2 := Announce{InfoHash: sampleInfoHash(0x01), IP: []byte{1, 2, 3, 5}, Port: 1}
	a3 := Announce{InfoHash: sampleInfoHash(0x02), IP: []byte{1, 2, 3, 4}, Port: 1}

	k1, k2, k3 := dedupKey(a1), dedupKey(a2), dedupKey(a3)
	if string(k1) == string(k2) {
		t.Error("dedup key should differ when the IP differs")
	}
	if string(k1) == string(k3) {
		t.Error("dedup key should differ when the infohash differs")
	}
}
