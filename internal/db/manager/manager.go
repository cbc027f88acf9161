package manager

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dormstats/dormstats/pkg/dormstats"
)

const queryDatabaseExists = "SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = $1)"

// pgCodeUndefinedTable is SQLSTATE 42P01, raised when a schema statement
// references a table that does not exist.
const pgCodeUndefinedTable = "42P01"

// Provisioner implements database and table provisioning.
// Stateless apart from the logger; operates on injected connections.
type Provisioner struct {
	logger dormstats.Logger
}

// New creates a new Provisioner.
func New(logger dormstats.Logger) *Provisioner {
	return &Provisioner{logger: logger}
}

// Exists checks the pg_database catalog for the named database.
func (p *Provisioner) Exists(ctx context.Context, conn dormstats.DBConnection, dbName string) (bool, error) {
	var exists bool
	err := conn.QueryRow(ctx, queryDatabaseExists, dbName).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check database existence: %w", err)
	}
	return exists, nil
}

// Create creates a new database on a dedicated connection.
// CREATE DATABASE cannot run in a transaction, so connection affinity matters.
func (p *Provisioner) Create(ctx context.Context, conn dormstats.DBConnection, dbName string) error {
	pooledConn, err := conn.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer pooledConn.Release()

	query := fmt.Sprintf("CREATE DATABASE %s", pgx.Identifier{dbName}.Sanitize())
	_, err = pooledConn.Exec(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to create database %q: %w", dbName, err)
	}
	return nil
}

// EnsureDatabase guarantees the named database exists on the server the
// administrative connection is bound to. An already-existing database is an
// expected condition, logged as informational. Must run before any session
// binds to the target database.
func (p *Provisioner) EnsureDatabase(ctx context.Context, conn dormstats.DBConnection, dbName string) error {
	exists, err := p.Exists(ctx, conn, dbName)
	if err != nil {
		return fmt.Errorf("%w: %w", dormstats.ErrSchemaFailed, err)
	}
	if exists {
		p.logger.Info("database %q already exists", dbName)
		return nil
	}

	if err := p.Create(ctx, conn, dbName); err != nil {
		return fmt.Errorf("%w: %w", dormstats.ErrSchemaFailed, err)
	}
	p.logger.Info("database %q created successfully", dbName)
	return nil
}

// EnsureTables reads the schema artifact as one opaque blob and executes it
// in a single transaction against the target database.
//
// Returns (true, nil) on commit. An undefined-table failure rolls back and
// returns (false, nil) so the caller can decide to continue or abort; any
// other execution failure rolls back and propagates.
func (p *Provisioner) EnsureTables(ctx context.Context, conn dormstats.Querier, schemaPath string) (bool, error) {
	schema, err := os.ReadFile(schemaPath)
	if err != nil {
		return false, fmt.Errorf("failed to read schema artifact %s: %w", schemaPath, err)
	}

	tx, err := conn.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to begin schema transaction: %w", err)
	}

	if _, err := tx.Exec(ctx, string(schema)); err != nil {
		tx.Rollback(ctx)

		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgCodeUndefinedTable {
			p.logger.Error("error creating tables: %v", err)
			return false, nil
		}
		return false, fmt.Errorf("%w: %w", dormstats.ErrSchemaFailed, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("failed to commit schema transaction: %w", err)
	}

	p.logger.Info("tables created successfully")
	return true, nil
}
