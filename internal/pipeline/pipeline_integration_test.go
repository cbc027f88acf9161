package pipeline_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dormstats/dormstats/internal/config"
	"github.com/dormstats/dormstats/internal/db"
	"github.com/dormstats/dormstats/internal/db/manager"
	"github.com/dormstats/dormstats/internal/export"
	"github.com/dormstats/dormstats/internal/loader"
	"github.com/dormstats/dormstats/internal/logging"
	"github.com/dormstats/dormstats/internal/pipeline"
	testhelpers "github.com/dormstats/dormstats/internal/testing"
	"github.com/dormstats/dormstats/pkg/dormstats"
)

const testSchema = `
CREATE TABLE IF NOT EXISTS room (
    id   BIGINT PRIMARY KEY,
    name TEXT
);

CREATE TABLE IF NOT EXISTS student (
    id       BIGINT PRIMARY KEY,
    name     TEXT,
    birthday TIMESTAMP,
    room     BIGINT REFERENCES room (id),
    sex      TEXT
);
`

const testQueries = `
SELECT r.id, r.name, COUNT(s.id) AS count
FROM room AS r
LEFT JOIN student AS s ON s.room = r.id
GROUP BY r.id, r.name
ORDER BY r.id;
`

const testIndexes = `
CREATE INDEX IF NOT EXISTS idx_student_room ON student (room);
`

const testRooms = `[{"id": 1, "name": "Room #1"}]`

const testStudents = `[{"id": 1, "name": "Alice", "room": 1, "sex": "F", "birthday": "1996-05-13T00:00:00.000000"}]`

// integrationConfig resolves the test container's endpoint into a pipeline
// configuration pointed at a dedicated database with artifacts in dir.
func integrationConfig(t *testing.T, connString, dbName, dir string) *config.Config {
	t.Helper()

	parsed, err := pgxpool.ParseConfig(connString)
	require.NoError(t, err)

	cfg := config.Default()
	cfg.Connection.Host = parsed.ConnConfig.Host
	cfg.Connection.Port = int(parsed.ConnConfig.Port)
	cfg.Connection.User = parsed.ConnConfig.User
	cfg.Connection.Password = parsed.ConnConfig.Password
	cfg.Connection.Database = dbName
	cfg.Connection.SSLMode = "disable"
	cfg.Artifacts.SchemaFile = filepath.Join(dir, "db_schema.sql")
	cfg.Artifacts.QueriesFile = filepath.Join(dir, "select_queries.sql")
	cfg.Artifacts.IndexesFile = filepath.Join(dir, "create_indexes.sql")
	cfg.Artifacts.OutputDir = filepath.Join(dir, "out")

	require.NoError(t, cfg.Validate())
	return cfg
}

func writeTestArtifacts(t *testing.T, dir string) (studentsPath, roomsPath string) {
	t.Helper()

	files := map[string]string{
		"db_schema.sql":      testSchema,
		"select_queries.sql": testQueries,
		"create_indexes.sql": testIndexes,
		"rooms.json":         testRooms,
		"students.json":      testStudents,
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "out"), 0o755))

	return filepath.Join(dir, "students.json"), filepath.Join(dir, "rooms.json")
}

func newIntegrationPipeline(cfg *config.Config) *pipeline.Pipeline {
	logger := logging.NewNullLogger()
	connector := db.NewStandardConnector(cfg.ConnConfig())
	sessions := db.NewSessionManager(db.PoolOpener(connector), logger)

	return pipeline.New(
		logger,
		manager.New(logger),
		sessions,
		loader.New(logger),
		export.New(logger),
	)
}

func TestPipeline_EndToEndRecords(t *testing.T) {
	connString := testhelpers.RequireDatabase(t)

	dir := t.TempDir()
	studentsPath, roomsPath := writeTestArtifacts(t, dir)
	cfg := integrationConfig(t, connString, "db_dormstats_it_records", dir)
	t.Cleanup(func() { testhelpers.CleanupTestDB(t, connString, "db_dormstats_it_records") })

	pipe := newIntegrationPipeline(cfg)
	input := pipeline.RunInput{
		StudentsPath: studentsPath,
		RoomsPath:    roomsPath,
		Format:       dormstats.FormatRecords,
	}
	require.NoError(t, pipe.Run(context.Background(), cfg, input))

	data, err := os.ReadFile(filepath.Join(cfg.Artifacts.OutputDir, "output_1.json"))
	require.NoError(t, err)

	var records []map[string]any
	require.NoError(t, json.Unmarshal(data, &records))
	require.Len(t, records, 1)
	assert.Equal(t, float64(1), records[0]["id"])
	assert.Equal(t, "Room #1", records[0]["name"])
	assert.Equal(t, float64(1), records[0]["count"])
}

func TestPipeline_EndToEndMarkup(t *testing.T) {
	connString := testhelpers.RequireDatabase(t)

	dir := t.TempDir()
	studentsPath, roomsPath := writeTestArtifacts(t, dir)
	cfg := integrationConfig(t, connString, "db_dormstats_it_markup", dir)
	t.Cleanup(func() { testhelpers.CleanupTestDB(t, connString, "db_dormstats_it_markup") })

	pipe := newIntegrationPipeline(cfg)
	input := pipeline.RunInput{
		StudentsPath: studentsPath,
		RoomsPath:    roomsPath,
		Format:       dormstats.FormatMarkup,
	}
	require.NoError(t, pipe.Run(context.Background(), cfg, input))

	data, err := os.ReadFile(filepath.Join(cfg.Artifacts.OutputDir, "output_1.xml"))
	require.NoError(t, err)

	got := string(data)
	assert.Contains(t, got, "<data>")
	assert.Contains(t, got, "<row>")
	assert.Contains(t, got, "<name>Room #1</name>")
	assert.Contains(t, got, "<count>1</count>")
}

func TestPipeline_EndToEndIdempotentReload(t *testing.T) {
	connString := testhelpers.RequireDatabase(t)

	dir := t.TempDir()
	studentsPath, roomsPath := writeTestArtifacts(t, dir)
	cfg := integrationConfig(t, connString, "db_dormstats_it_reload", dir)
	t.Cleanup(func() { testhelpers.CleanupTestDB(t, connString, "db_dormstats_it_reload") })

	input := pipeline.RunInput{
		StudentsPath: studentsPath,
		RoomsPath:    roomsPath,
		Format:       dormstats.FormatRecords,
	}

	// Two full runs: conflicting ids are skipped, so counts must not double.
	require.NoError(t, newIntegrationPipeline(cfg).Run(context.Background(), cfg, input))
	require.NoError(t, newIntegrationPipeline(cfg).Run(context.Background(), cfg, input))

	data, err := os.ReadFile(filepath.Join(cfg.Artifacts.OutputDir, "output_1.json"))
	require.NoError(t, err)

	var records []map[string]any
	require.NoError(t, json.Unmarshal(data, &records))
	require.Len(t, records, 1)
	assert.Equal(t, float64(1), records[0]["count"])
}

func TestPipeline_UnreachableServerDegrades(t *testing.T) {
	testhelpers.SkipIfShort(t)

	dir := t.TempDir()
	studentsPath, roomsPath := writeTestArtifacts(t, dir)

	cfg := config.Default()
	cfg.Connection.Host = "127.0.0.1"
	cfg.Connection.Port = 1 // nothing listens here
	cfg.Connection.User = "postgres"
	cfg.Connection.Database = "db_unreachable"
	cfg.Connection.SSLMode = "disable"
	cfg.Artifacts.SchemaFile = filepath.Join(dir, "db_schema.sql")
	cfg.Artifacts.QueriesFile = filepath.Join(dir, "select_queries.sql")
	cfg.Artifacts.IndexesFile = filepath.Join(dir, "create_indexes.sql")
	cfg.Artifacts.OutputDir = filepath.Join(dir, "out")

	pipe := newIntegrationPipeline(cfg)
	input := pipeline.RunInput{
		StudentsPath: studentsPath,
		RoomsPath:    roomsPath,
		Format:       dormstats.FormatRecords,
	}
	err := pipe.Run(context.Background(), cfg, input)

	// Database provisioning needs the server; the run fails there with a
	// connection error rather than a panic or partial output.
	require.Error(t, err)
	if !strings.Contains(err.Error(), "connection") {
		t.Logf("unexpected error text: %v", err)
	}
	entries, readErr := os.ReadDir(cfg.Artifacts.OutputDir)
	require.NoError(t, readErr)
	assert.Empty(t, entries)
}
