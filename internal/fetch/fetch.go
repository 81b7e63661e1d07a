package fetch

import (
	"context"
	"encoding/hex"
	"net"
	"time"

	"dhtcrawl/internal/storage"
)

// Fetch dials a, performs the BEP-9 metadata exchange, and returns the
// resulting record. A nil record with a nil error means the peer
// answered but the metadata it sent didn't resolve to a usable
// (name, size) pair — not a failure worth backing off the peer for,
// just nothing to record.
func Fetch(ctx context.Context, a Announce, timeout time.Duration) (*storage.Record, error) {
	addr := net.JoinHostPort(a.IP.String(), portStr(a.Port))

	d := net.Dialer{Timeout: timeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	peerID, err := randomPeerID()
	if err != nil {
		return nil, err
	}
	if err := sendHandshake(conn, a.InfoHash, peerID); err != nil {
		return nil, err
	}
	if err := recvHandshake(conn, a.InfoHash); err != nil {
		return nil, err
	}
	if err := sendExtHandshake(conn); err != nil {
		return nil, err
	}
	utMetadata, metadataSize, err := recvExtHandshake(conn)
	if err != nil {
		return nil, err
	}

	var metadata []byte
	for piece := 0; piece < numPieces(metadataSize); piece++ {
		if err := requestPiece(conn, utMetadata, piece); err != nil {
			return nil, err
		}
		chunk := recvAll(conn, timeout)
		if idx := indexOfDictEnd(chunk); idx >= 0 {
			metadata = append(metadata, chunk[idx:]...)
		}
	}

	name, size := parseMetadata(metadata)
	if size == 0 || len(name) == 0 {
		return nil, nil
	}
	return &storage.Record{
		Hash: hex.EncodeToString(a.InfoHash[:]),
		Name: name,
		Size: size,
	}, nil
}

// indexOfDictEnd finds where the extension message's bencode header
// ("d1:...e") ends and the piece payload begins: the payload starts
// right after the first occurrence of "ee", which is the terminator of
// the header's last integer followed by the dictionary's own terminator.
func indexOfDictEnd(chunk []byte) int {
	for i := 0; i+1 < len(chunk); i++ {
		if chunk[i] == 'e' && chunk[i+1] == 'e' {
			return i + 2
		}
	}
	return -1
}
