package loader

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5"

	"github.com/dormstats/dormstats/pkg/dormstats"
)

const (
	insertRoomSQL = `INSERT INTO room (id, name) VALUES ($1, $2) ON CONFLICT (id) DO NOTHING`

	insertStudentSQL = `INSERT INTO student (birthday, id, name, room, sex) ` +
		`VALUES ($1, $2, $3, $4, $5) ON CONFLICT (id) DO NOTHING`
)

// Loader loads entity records from JSON artifacts into their tables.
type Loader struct {
	logger dormstats.Logger
}

// New creates a new Loader.
func New(logger dormstats.Logger) *Loader {
	return &Loader{logger: logger}
}

// Load reads a JSON array of objects from path and inserts every record into
// the destination table in one batched, conflict-skipping transaction.
//
// A nil conn (no live session) and an unreadable or malformed artifact are
// recovered locally: the condition is logged and Load returns nil so the
// rest of the pipeline can continue. The read happens before any statement
// is issued, so an input failure leaves no partial writes behind.
func (l *Loader) Load(ctx context.Context, conn dormstats.Querier, path string, table dormstats.Table) error {
	if conn == nil {
		l.logger.Error("failed to load data into %s: no live database session", table)
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		l.logger.Error("%v occurred while reading %s", err, path)
		return nil
	}

	batch := &pgx.Batch{}
	var queued int

	switch table {
	case dormstats.TableRoom:
		var records []dormstats.RoomRecord
		if err := json.Unmarshal(data, &records); err != nil {
			l.logger.Error("%v occurred while decoding %s", err, path)
			return nil
		}
		for _, r := range records {
			batch.Queue(insertRoomSQL, r.ID, r.Name)
		}
		queued = len(records)

	case dormstats.TableStudent:
		var records []dormstats.StudentRecord
		if err := json.Unmarshal(data, &records); err != nil {
			l.logger.Error("%v occurred while decoding %s", err, path)
			return nil
		}
		for _, r := range records {
			batch.Queue(insertStudentSQL, r.Birthday, r.ID, r.Name, r.Room, r.Sex)
		}
		queued = len(records)

	default:
		return fmt.Errorf("unsupported load destination %v: %w", table, dormstats.ErrInvalidConfig)
	}

	if queued == 0 {
		l.logger.Info("no records to load into %s from %s", table, path)
		return nil
	}

	if err := l.submit(ctx, conn, batch, queued, table); err != nil {
		return fmt.Errorf("%w: %w", dormstats.ErrExecutionFailed, err)
	}

	l.logger.Info("loaded %d records into %s (existing ids skipped)", queued, table)
	return nil
}

// submit runs the queued batch inside one transaction with a single commit.
func (l *Loader) submit(ctx context.Context, conn dormstats.Querier, batch *pgx.Batch, queued int, table dormstats.Table) error {
	tx, err := conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin load transaction: %w", err)
	}

	results := tx.SendBatch(ctx, batch)
	for i := 0; i < queued; i++ {
		if _, err := results.Exec(); err != nil {
			results.Close()
			tx.Rollback(ctx)
			return fmt.Errorf("failed to insert record %d into %s: %w", i+1, table, err)
		}
	}
	if err := results.Close(); err != nil {
		tx.Rollback(ctx)
		return fmt.Errorf("failed to complete batch insert into %s: %w", table, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit load transaction: %w", err)
	}
	return nil
}
