package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dormstats/dormstats/pkg/dormstats"
)

// Exporter executes statement batches and writes their results.
type Exporter struct {
	logger dormstats.Logger
}

// New creates a new Exporter.
func New(logger dormstats.Logger) *Exporter {
	return &Exporter{logger: logger}
}

// ExecuteBatch reads the statement artifact at path, executes each statement
// in order, and captures the backend-reported column names plus every fetched
// row. The first failing statement is logged with its text and aborts the
// remainder of the batch; there is no retry and no partial continuation.
// No statement executes before the prior statement's fetch completes.
func (e *Exporter) ExecuteBatch(ctx context.Context, conn dormstats.Querier, path string) ([]dormstats.ResultSet, error) {
	if conn == nil {
		e.logger.Error("failed to execute statement batch %s: no live database session", path)
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read statement artifact %s: %w", path, err)
	}

	statements := SplitStatements(string(data))
	results := make([]dormstats.ResultSet, 0, len(statements))

	for _, statement := range statements {
		rs, err := e.executeOne(ctx, conn, statement)
		if err != nil {
			e.logger.Error("error executing statement: %s", preview(statement, dormstats.MaxErrorPreviewLength))
			e.logger.Error("database error: %v", err)
			return nil, fmt.Errorf("%w: %w", dormstats.ErrExecutionFailed, err)
		}
		results = append(results, rs)
		e.logger.Verbose("statement executed successfully (%d rows)", len(rs.Rows))
	}

	return results, nil
}

// executeOne runs a single statement and drains its rows before returning,
// guaranteeing strict sequencing on the shared connection.
func (e *Exporter) executeOne(ctx context.Context, conn dormstats.Querier, statement string) (dormstats.ResultSet, error) {
	rows, err := conn.Query(ctx, statement)
	if err != nil {
		return dormstats.ResultSet{}, err
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	columns := make([]string, len(fields))
	for i, fd := range fields {
		columns[i] = string(fd.Name)
	}

	rs := dormstats.ResultSet{Columns: columns}
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return dormstats.ResultSet{}, err
		}
		rs.Rows = append(rs.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return dormstats.ResultSet{}, err
	}

	return rs, nil
}

// BuildIndexes executes each statement of the index artifact individually,
// committing one at a time (autocommit), and logs every success. The first
// failure is logged with the offending statement and aborts the rest.
func (e *Exporter) BuildIndexes(ctx context.Context, conn dormstats.Querier, path string) error {
	if conn == nil {
		e.logger.Error("failed to build indexes from %s: no live database session", path)
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read index artifact %s: %w", path, err)
	}

	for _, statement := range SplitStatements(string(data)) {
		if _, err := conn.Exec(ctx, statement); err != nil {
			e.logger.Error("error creating index: %s", preview(statement, dormstats.MaxErrorPreviewLength))
			e.logger.Error("database error: %v", err)
			return fmt.Errorf("%w: %w", dormstats.ErrExecutionFailed, err)
		}
		e.logger.Info("index statement executed: %s", preview(statement, dormstats.MaxErrorPreviewLength))
	}

	return nil
}

// Export executes the statement batch at queriesPath and writes one numbered
// output file per result set into outDir, in statement order. The format
// selects the serialization path; format dispatch is exhaustive over the
// Format enum.
func (e *Exporter) Export(ctx context.Context, conn dormstats.Querier, format dormstats.Format, queriesPath, outDir string) error {
	if conn == nil {
		e.logger.Error("failed to export results: no live database session")
		return nil
	}

	results, err := e.ExecuteBatch(ctx, conn, queriesPath)
	if err != nil {
		return err
	}

	for i, rs := range results {
		name := fmt.Sprintf(dormstats.OutputFilePattern, i+1, format.Extension())
		path := filepath.Join(outDir, name)

		switch format {
		case dormstats.FormatRecords:
			err = writeRecords(rs, path)
		case dormstats.FormatMarkup:
			err = writeMarkup(rs, path)
		default:
			err = fmt.Errorf("unknown format %v: %w", format, dormstats.ErrUnsupportedFormat)
		}
		if err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		e.logger.Verbose("wrote %s (%d rows)", path, len(rs.Rows))
	}

	e.logger.Info("data exported to %s format successfully", format)
	return nil
}
