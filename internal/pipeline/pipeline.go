package pipeline

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/dormstats/dormstats/internal/config"
	"github.com/dormstats/dormstats/internal/db"
	"github.com/dormstats/dormstats/pkg/dormstats"
)

// SessionSource yields the run's database session. A nil result means no
// session could be established; downstream steps are expected to cope.
type SessionSource interface {
	Acquire(ctx context.Context) dormstats.Session
}

// SchemaProvisioner creates the target database and applies the schema.
type SchemaProvisioner interface {
	EnsureDatabase(ctx context.Context, conn dormstats.DBConnection, dbName string) error
	EnsureTables(ctx context.Context, conn dormstats.Querier, schemaPath string) (bool, error)
}

// RecordLoader bulk-loads one JSON artifact into its destination table.
type RecordLoader interface {
	Load(ctx context.Context, conn dormstats.Querier, path string, table dormstats.Table) error
}

// ResultExporter runs the query batch and materializes its output files.
type ResultExporter interface {
	BuildIndexes(ctx context.Context, conn dormstats.Querier, path string) error
	Export(ctx context.Context, conn dormstats.Querier, format dormstats.Format, queriesPath, outDir string) error
}

// managementConnFunc opens an administrative connection to the management
// database. The returned cleanup releases the underlying pool.
type managementConnFunc func(ctx context.Context, connConfig *dormstats.ConnectionConfig) (dormstats.DBConnection, func(), error)

// RunInput carries the per-invocation arguments on top of the resolved
// configuration.
type RunInput struct {
	StudentsPath string
	RoomsPath    string
	Format       dormstats.Format
}

// Pipeline wires the provisioning, loading, and export stages together.
// Thread-Safety: NOT safe for concurrent Run() calls on the same instance.
type Pipeline struct {
	logger      dormstats.Logger
	provisioner SchemaProvisioner
	sessions    SessionSource
	loader      RecordLoader
	exporter    ResultExporter
	mgmtConn    managementConnFunc
}

// New creates a Pipeline with all dependencies injected. Nil dependencies
// are programmer errors and panic at construction time rather than surfacing
// as nil dereferences mid-run.
func New(
	logger dormstats.Logger,
	provisioner SchemaProvisioner,
	sessions SessionSource,
	loader RecordLoader,
	exporter ResultExporter,
) *Pipeline {
	if logger == nil {
		panic("logger cannot be nil")
	}
	if provisioner == nil {
		panic("provisioner cannot be nil")
	}
	if sessions == nil {
		panic("sessions cannot be nil")
	}
	if loader == nil {
		panic("loader cannot be nil")
	}
	if exporter == nil {
		panic("exporter cannot be nil")
	}

	p := &Pipeline{
		logger:      logger,
		provisioner: provisioner,
		sessions:    sessions,
		loader:      loader,
		exporter:    exporter,
	}
	p.mgmtConn = defaultManagementConn
	return p
}

func defaultManagementConn(ctx context.Context, connConfig *dormstats.ConnectionConfig) (dormstats.DBConnection, func(), error) {
	connector := db.NewStandardConnector(connConfig)
	pool, err := connector.Connect(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to management database: %w", err)
	}
	return db.NewPoolAdapter(pool), func() { pool.Close() }, nil
}

// Run executes the full export pipeline. Database provisioning runs against
// the management database before the target session is established. A run
// without a live target session still proceeds: every downstream stage logs
// the missing session and skips its work, matching the behavior of the
// loaders and exporter. Statement and serialization failures abort the run.
func (p *Pipeline) Run(ctx context.Context, cfg *config.Config, input RunInput) error {
	runID := uuid.NewString()
	p.logger.Verbose("starting export run %s for database '%s'", runID, cfg.Connection.Database)

	if err := p.provisionDatabase(ctx, cfg); err != nil {
		return err
	}

	session := p.sessions.Acquire(ctx)
	var conn dormstats.Querier
	if session != nil {
		defer session.Close()
		conn = session.Querier()
	}

	if conn == nil {
		p.logger.Error("skipping schema application: no live database session")
	} else {
		ready, err := p.provisioner.EnsureTables(ctx, conn, cfg.Artifacts.SchemaFile)
		if err != nil {
			return err
		}
		if !ready {
			p.logger.Error("schema application did not complete; continuing with remaining stages")
		}
	}

	if err := p.loader.Load(ctx, conn, input.RoomsPath, dormstats.TableRoom); err != nil {
		return err
	}
	if err := p.loader.Load(ctx, conn, input.StudentsPath, dormstats.TableStudent); err != nil {
		return err
	}

	if err := p.exporter.BuildIndexes(ctx, conn, cfg.Artifacts.IndexesFile); err != nil {
		return err
	}
	if err := p.exporter.Export(ctx, conn, input.Format, cfg.Artifacts.QueriesFile, cfg.Artifacts.OutputDir); err != nil {
		return err
	}

	p.logger.Info("✓ Export run %s completed", runID)
	return nil
}

// provisionDatabase ensures the target database exists, using a short-lived
// administrative connection to the management database. The connection is
// released before the target session is opened so the run never holds more
// than one connection at a time.
func (p *Pipeline) provisionDatabase(ctx context.Context, cfg *config.Config) error {
	adminConn, cleanup, err := p.mgmtConn(ctx, cfg.AdminConnConfig())
	if err != nil {
		return fmt.Errorf("%w: %w", dormstats.ErrConnectionFailed, err)
	}
	defer cleanup()

	return p.provisioner.EnsureDatabase(ctx, adminConn, cfg.Connection.Database)
}
