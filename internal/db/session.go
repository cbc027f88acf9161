package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dormstats/dormstats/pkg/dormstats"
)

// PooledSession implements dormstats.Session on top of a single-connection
// pgx pool: the pool handle plus the one physical connection acquired from it.
//
// Lifecycle:
//  1. Created by SessionManager on acquisition or detected failure
//  2. Lent to the provisioner, loader and exporter sequentially
//  3. Closed once by the orchestrator via Close() (idempotent)
type PooledSession struct {
	pool *pgxpool.Pool
	conn *pgxpool.Conn
}

// NewPooledSession creates a session from a pool and its acquired connection.
//
// Panics if pool or conn is nil (programmer error; SessionManager never
// constructs a session with missing resources).
func NewPooledSession(pool *pgxpool.Pool, conn *pgxpool.Conn) *PooledSession {
	if pool == nil {
		panic("pool cannot be nil")
	}
	if conn == nil {
		panic("conn cannot be nil")
	}
	return &PooledSession{pool: pool, conn: conn}
}

// Querier returns the statement surface bound to the session's connection.
func (s *PooledSession) Querier() dormstats.Querier {
	return s.conn
}

// Ping probes liveness on the session's own connection.
// A closed session always reports failure.
func (s *PooledSession) Ping(ctx context.Context) error {
	if s.conn == nil {
		return dormstats.ErrConnectionFailed
	}
	return s.conn.Ping(ctx)
}

// Close releases the connection back to the pool, then closes the pool.
// Idempotent and safe to call multiple times.
func (s *PooledSession) Close() error {
	if s.conn != nil {
		s.conn.Release()
		s.conn = nil
	}
	if s.pool != nil {
		s.pool.Close()
		s.pool = nil
	}
	return nil
}

// Verify PooledSession implements Session at compile time
var _ dormstats.Session = (*PooledSession)(nil)
