package db

import (
	"context"

	"github.com/dormstats/dormstats/pkg/dormstats"
)

// OpenFunc opens a fresh session using configured credentials.
type OpenFunc func(ctx context.Context) (dormstats.Session, error)

// PoolOpener builds an OpenFunc that dials through the given connector and
// acquires the session's single physical connection from the pool.
func PoolOpener(connector dormstats.Connector) OpenFunc {
	return func(ctx context.Context) (dormstats.Session, error) {
		pool, err := connector.Connect(ctx)
		if err != nil {
			return nil, err
		}
		conn, err := pool.Acquire(ctx)
		if err != nil {
			pool.Close()
			return nil, err
		}
		return NewPooledSession(pool, conn), nil
	}
}

// SessionManager owns the process-wide current session: it establishes it on
// first acquisition, health-checks it on every subsequent acquisition, and
// transparently replaces it when the liveness probe fails.
//
// Failure policy: if the probe fails, exactly one reconnect is attempted. If
// that also fails, the failure is logged and nil is returned instead of an
// error. Downstream steps check for a missing session and degrade gracefully
// rather than crashing the run on a transient connectivity blip.
type SessionManager struct {
	open    OpenFunc
	logger  dormstats.Logger
	current dormstats.Session
}

// NewSessionManager creates a manager with no current session.
func NewSessionManager(open OpenFunc, logger dormstats.Logger) *SessionManager {
	return &SessionManager{open: open, logger: logger}
}

// Acquire returns the current session if it is open and responds to a
// liveness probe; otherwise it opens a fresh one. Callers MUST check for a
// nil result before issuing statements.
func (m *SessionManager) Acquire(ctx context.Context) dormstats.Session {
	if m.current != nil {
		if err := m.current.Ping(ctx); err == nil {
			return m.current
		}
		m.logger.Verbose("session liveness probe failed, reconnecting")
		m.current.Close()
		m.current = nil
	}

	session, err := m.open(ctx)
	if err != nil {
		m.logger.Error("failed to establish database session: %v", err)
		return nil
	}

	m.current = session
	m.logger.Info("database session established")
	return m.current
}

// Current returns the current session without probing. Nil when no session
// has been established or the last reconnect failed.
func (m *SessionManager) Current() dormstats.Session {
	return m.current
}
