package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite"
	"vitess.io/vitess/go/pools"
)

const createTableSQL = `create table if not exists metadata (
	hash text primary key not null,
	name text,
	size text
)`

// pooledConn adapts a checked-out *sql.Conn to vitess's Resource
// interface so it can live inside a ResourcePool.
type pooledConn struct {
	conn *sql.Conn
}

func (p *pooledConn) Close() {
	p.conn.Close()
}

// SQLiteSink is a Sink backed by SQLite. Connections are checked out
// of a capacity-bounded pool rather than opened fresh per insert, so
// concurrent Insert calls from multiple inquirer workers never share
// or race over a single connection.
type SQLiteSink struct {
	db   *sql.DB
	pool *pools.ResourcePool
}

// NewSQLiteSink opens the database at path and wraps it in a resource
// pool that hands out at most maxConns connections at a time.
func NewSQLiteSink(path string, maxConns int) (*SQLiteSink, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage: open %s: %w", path, err)
	}

	factory := func(ctx context.Context) (pools.Resource, error) {
		conn, err := db.Conn(ctx)
		if err != nil {
			return nil, err
		}
		return &pooledConn{conn: conn}, nil
	}

	return &SQLiteSink{
		db:   db,
		pool: pools.NewResourcePool(factory, maxConns, maxConns, 5*time.Minute, nil),
	}, nil
}

func (s *SQLiteSink) Init(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, createTableSQL)
	if err != nil {
		return fmt.Errorf("storage: create schema: %w", err)
	}
	return nil
}

func (s *SQLiteSink) Insert(ctx context.Context, hashHex, name string, size uint64) error {
	res, err := s.pool.Get(ctx)
	if err != nil {
		return fmt.Errorf("storage: acquire connection: %w", err)
	}
	defer s.pool.Put(res)
	conn := res.(*pooledConn).conn

	_, err = conn.ExecContext(ctx,
		`insert into metadata (hash, name, size) values (?, ?, ?)`,
		hashHex, name, strconv.FormatUint(size, 10))
	if err != nil {
		if isDuplicateKey(err) {
			return nil
		}
		return fmt.Errorf("storage: insert %s: %w", hashHex, err)
	}
	return nil
}

// Close releases the pool and the underlying database handle.
func (s *SQLiteSink) Close() error {
	s.pool.Close()
	return s.db.Close()
}

func isDuplicateKey(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "unique")
}
