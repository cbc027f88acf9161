package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/dormstats/dormstats/internal/config"
	"github.com/dormstats/dormstats/internal/db"
	"github.com/dormstats/dormstats/internal/db/manager"
	"github.com/dormstats/dormstats/internal/export"
	"github.com/dormstats/dormstats/internal/loader"
	"github.com/dormstats/dormstats/internal/logging"
	"github.com/dormstats/dormstats/internal/pipeline"
	"github.com/dormstats/dormstats/pkg/dormstats"
)

var runCmd = &cobra.Command{
	Use:   "run <students_file> <rooms_file> <format>",
	Short: "Load JSON data and export the analytical query results",
	Long: `Run executes the full pipeline: ensure the target database and tables
exist, bulk-load the room and student JSON files, build the supporting
indexes, and write one output file per query in the requested format.

Arguments:
  students_file   Path to the students JSON array
  rooms_file      Path to the rooms JSON array
  format          Output format: json or xml

Connection settings resolve in precedence order: flags, then environment
variables (DB_HOST, DB_PORT, DB_NAME, DB_USER, DB_PASSWORD, typically from a
.env file), then dormstats.yaml, then built-in defaults.

Password Authentication:
  For security, the password is NOT accepted as a CLI flag. Set DB_PASSWORD
  in the environment or in a .env file next to the working directory.

Examples:
  # Load and export as JSON
  dormstats run students.json rooms.json json

  # Export as XML against a remote server
  dormstats run students.json rooms.json xml -H db.internal -p 5433 -d dorm

  # Custom artifact locations
  dormstats run students.json rooms.json json \
    --schema-file sql/db_schema.sql \
    --queries-file sql/select_queries.sql \
    --output-dir out`,
	Args: cobra.ExactArgs(3),
	RunE: runPipeline,
}

type runFlagValues struct {
	host, username, database, sslMode             string
	port                                          int
	schemaFile, queriesFile, indexesFile, outDir  string
	timeout                                       time.Duration
}

var runFlags runFlagValues

func init() {
	rootCmd.AddCommand(runCmd)

	// Connection flags. Precedence: flag > environment variable > dormstats.yaml > default
	runCmd.Flags().StringVarP(&runFlags.host, "host", "H", "",
		"PostgreSQL server host (default: $DB_HOST or 127.0.0.1)")
	runCmd.Flags().IntVarP(&runFlags.port, "port", "p", 0,
		"PostgreSQL server port (default: $DB_PORT or 5432)")
	runCmd.Flags().StringVarP(&runFlags.username, "username", "U", "",
		"PostgreSQL user (default: $DB_USER)")
	runCmd.Flags().StringVarP(&runFlags.database, "database", "d", "",
		"Target database name (default: $DB_NAME)")
	runCmd.Flags().StringVar(&runFlags.sslMode, "sslmode", "",
		"SSL mode: disable|allow|prefer|require|verify-ca|verify-full (default: prefer)")

	// Artifact flags
	runCmd.Flags().StringVar(&runFlags.schemaFile, "schema-file", "",
		"Path to the schema DDL script (default: $SCHEMA_FILE or db_schema.sql)")
	runCmd.Flags().StringVar(&runFlags.queriesFile, "queries-file", "",
		"Path to the query batch script (default: $SQL_FILE or select_queries.sql)")
	runCmd.Flags().StringVar(&runFlags.indexesFile, "indexes-file", "",
		"Path to the index creation script (default: $INDEX_FILE or create_indexes.sql)")
	runCmd.Flags().StringVar(&runFlags.outDir, "output-dir", "",
		"Directory for the numbered output files (default: $OUTPUT_DIR or the working directory)")

	// Catastrophic failure protection, not normal timeout control
	runCmd.Flags().DurationVar(&runFlags.timeout, "timeout", 3*time.Minute,
		"Abort the run if it exceeds this duration (default 3m)\n"+
			"Prevents indefinite hangs from network issues or deadlocks")
}

// buildRunConfig resolves the layered configuration: built-in defaults, an
// optional dormstats.yaml in the working directory, environment variables
// (after loading .env), and finally explicit flags.
func buildRunConfig(verbose bool) (*config.Config, error) {
	_ = godotenv.Load()

	cfg, err := config.Load(".")
	if err != nil {
		if !errors.Is(err, config.ErrConfigNotFound) {
			return nil, fmt.Errorf("failed to load %s: %w", config.ConfigFileName, err)
		}
		cfg = config.Default()
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}

	if runFlags.host != "" {
		cfg.Connection.Host = runFlags.host
	}
	if runFlags.port != 0 {
		cfg.Connection.Port = runFlags.port
	}
	if runFlags.username != "" {
		cfg.Connection.User = runFlags.username
	}
	if runFlags.database != "" {
		cfg.Connection.Database = runFlags.database
	}
	if runFlags.sslMode != "" {
		cfg.Connection.SSLMode = runFlags.sslMode
	}
	if runFlags.schemaFile != "" {
		cfg.Artifacts.SchemaFile = runFlags.schemaFile
	}
	if runFlags.queriesFile != "" {
		cfg.Artifacts.QueriesFile = runFlags.queriesFile
	}
	if runFlags.indexesFile != "" {
		cfg.Artifacts.IndexesFile = runFlags.indexesFile
	}
	if runFlags.outDir != "" {
		cfg.Artifacts.OutputDir = runFlags.outDir
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "[VERBOSE] Connection resolved:\n")
		fmt.Fprintf(os.Stderr, "  Host: %s\n", cfg.Connection.Host)
		fmt.Fprintf(os.Stderr, "  Port: %d\n", cfg.Connection.Port)
		fmt.Fprintf(os.Stderr, "  User: %s\n", cfg.Connection.User)
		fmt.Fprintf(os.Stderr, "  Target Database: %s\n", cfg.Connection.Database)
		fmt.Fprintf(os.Stderr, "  Management Database: %s\n", cfg.Connection.ManagementDatabase)
		fmt.Fprintf(os.Stderr, "  SSL Mode: %s\n", cfg.Connection.SSLMode)
	}

	return cfg, nil
}

func runPipeline(cmd *cobra.Command, args []string) error {
	studentsPath, roomsPath := args[0], args[1]
	verbose := getVerboseFlag(cmd)

	format, err := dormstats.ParseFormat(args[2])
	if err != nil {
		return err
	}

	cfg, err := buildRunConfig(verbose)
	if err != nil {
		return err
	}

	logger := logging.NewConsoleLogger(verbose)
	connector := db.NewStandardConnector(cfg.ConnConfig())
	sessions := db.NewSessionManager(db.PoolOpener(connector), logger)

	pipe := pipeline.New(
		logger,
		manager.New(logger),
		sessions,
		loader.New(logger),
		export.New(logger),
	)

	ctx, cancel := context.WithTimeout(context.Background(), runFlags.timeout)
	defer cancel()

	// Handle interrupt signals (Ctrl+C, SIGTERM) for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\n[INTERRUPT] Received interrupt signal, cancelling run...")
		cancel()
	}()

	input := pipeline.RunInput{
		StudentsPath: studentsPath,
		RoomsPath:    roomsPath,
		Format:       format,
	}
	if err := pipe.Run(ctx, cfg, input); err != nil {
		return fmt.Errorf("export run failed: %w", err)
	}

	return nil
}
