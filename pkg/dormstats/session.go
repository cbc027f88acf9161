package dormstats

import "context"

// Session is the live handle through which all statements are issued to the
// relational store.
//
// Exactly one Session is considered current at a time; it is owned by the
// top-level orchestrator and lent to each component sequentially. Components
// never close it. A closed or errored Session must be replaced by the
// session manager, never reused.
//
// Thread-Safety: NOT safe for concurrent use. The pipeline is strictly
// sequential by design.
type Session interface {
	// Querier returns the statement-issuing surface bound to the session's
	// single physical connection. Never nil for a live session.
	Querier() Querier

	// Ping performs a trivial liveness probe against the backend.
	Ping(ctx context.Context) error

	// Close releases all resources associated with the session.
	// Idempotent and safe to call multiple times.
	Close() error
}
