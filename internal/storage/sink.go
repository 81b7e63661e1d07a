// Package storage persists discovered torrent metadata.
package storage

import "context"

// Record is a completed metadata fetch, ready to persist.
type Record struct {
	Hash string // 40 lowercase hex characters
	Name []byte
	Size uint64
}

// Sink is the external collaborator the recorder hands finished
// records to: a (hash, name, size) store keyed uniquely on hash.
// Inserting a hash that's already present must be a no-op, not an
// error — it's the system's only global dedup mechanism. The Bloom
// filter in the inquirer pool only suppresses redundant fetches within
// one batch window; it is never consulted to decide whether a record
// is worth writing.
type Sink interface {
	Init(ctx context.Context) error
	Insert(ctx context.Context, hashHex, name string, size uint64) error
}
