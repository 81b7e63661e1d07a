package storage

import (
	"context"
	"path/filepath"
	"testing"
)

func newTestSink(t *testing.T) *SQLiteSink {
	t.Helper()
	// A file, not ":memory:": every pooled connection to ":memory:" would
	// open its own empty database.
	sink, err := NewSQLiteSink(filepath.Join(t.TempDir(), "test.db"), 4)
	if err != nil {
		t.Fatalf("NewSQLiteSink: %v", err)
	}
	if err := sink.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	t.Cleanup(func() { sink.Close() })
	return sink
}

func TestInsertThenDuplicateIsNoOp(t *testing.T) {
	sink := newTestSink(t)
	ctx := context.Background()

	if err := sink.Insert(ctx, "abc123", "example.iso", 1024); err != nil {
		t.Fatalf("first Insert: %v", err)
	}
	if err := sink.Insert(ctx, "abc123", "renamed.iso", 2048); err != nil {
		t.Fatalf("duplicate Insert should be a no-op, got error: %v", err)
	}

	var name string
	var size string
	row := sink.db.QueryRowContext(ctx, `select name, size from metadata where hash = ?`, "abc123")
	if err := row.Scan(&name, &size); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if name != "example.iso" || size != "1024" {
		t.Fatalf("duplicate insert overwrote the row: name=%q size=%q", name, size)
	}
}

func TestInitIsIdempotent(t *testing.T) {
	sink := newTestSink(t)
	if err := sink.Init(context.Background()); err != nil {
		t.Fatalf("second Init: %v", err)
	}
}
