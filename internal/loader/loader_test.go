package loader_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dormstats/dormstats/internal/loader"
	"github.com/dormstats/dormstats/internal/logging"
	"github.com/dormstats/dormstats/pkg/dormstats"
)

// mockQuerier is a test double for dormstats.Querier
type mockQuerier struct {
	begins    int
	beginFunc func(ctx context.Context) (pgx.Tx, error)
}

func (m *mockQuerier) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (m *mockQuerier) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}

func (m *mockQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}

func (m *mockQuerier) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	return nil
}

func (m *mockQuerier) Begin(ctx context.Context) (pgx.Tx, error) {
	m.begins++
	if m.beginFunc != nil {
		return m.beginFunc(ctx)
	}
	return &mockTx{}, nil
}

// mockTx is a test double for pgx.Tx that captures the submitted batch.
type mockTx struct {
	batch     *pgx.Batch
	results   *mockBatchResults
	commits   int
	rollbacks int
}

func (m *mockTx) Begin(ctx context.Context) (pgx.Tx, error) { return m, nil }
func (m *mockTx) Commit(ctx context.Context) error          { m.commits++; return nil }
func (m *mockTx) Rollback(ctx context.Context) error        { m.rollbacks++; return nil }

func (m *mockTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}

func (m *mockTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	m.batch = b
	if m.results == nil {
		m.results = &mockBatchResults{}
	}
	return m.results
}

func (m *mockTx) LargeObjects() pgx.LargeObjects { return pgx.LargeObjects{} }

func (m *mockTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}

func (m *mockTx) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (m *mockTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}

func (m *mockTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row { return nil }
func (m *mockTx) Conn() *pgx.Conn                                               { return nil }

// mockBatchResults is a test double for pgx.BatchResults
type mockBatchResults struct {
	execErrs []error
	execs    int
	closed   bool
}

func (m *mockBatchResults) Exec() (pgconn.CommandTag, error) {
	var err error
	if m.execs < len(m.execErrs) {
		err = m.execErrs[m.execs]
	}
	m.execs++
	return pgconn.CommandTag{}, err
}

func (m *mockBatchResults) Query() (pgx.Rows, error) { return nil, nil }
func (m *mockBatchResults) QueryRow() pgx.Row        { return nil }
func (m *mockBatchResults) Close() error             { m.closed = true; return nil }

func writeArtifact(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newLoader() *loader.Loader {
	return loader.New(logging.NewNullLogger())
}

func TestLoad_NilSessionDegradesGracefully(t *testing.T) {
	path := writeArtifact(t, "rooms.json", `[{"id":1,"name":"Room #1"}]`)

	err := newLoader().Load(context.Background(), nil, path, dormstats.TableRoom)

	assert.NoError(t, err, "missing session is logged, not raised")
}

func TestLoad_MissingArtifactDegradesGracefully(t *testing.T) {
	conn := &mockQuerier{}

	err := newLoader().Load(context.Background(), conn, filepath.Join(t.TempDir(), "absent.json"), dormstats.TableRoom)

	assert.NoError(t, err)
	assert.Zero(t, conn.begins, "no statement may be issued when the read fails")
}

func TestLoad_MalformedArtifactDegradesGracefully(t *testing.T) {
	conn := &mockQuerier{}
	path := writeArtifact(t, "rooms.json", `{"not":"an array"`)

	err := newLoader().Load(context.Background(), conn, path, dormstats.TableRoom)

	assert.NoError(t, err)
	assert.Zero(t, conn.begins)
}

func TestLoad_Rooms_BatchedConflictSkippingInsert(t *testing.T) {
	tx := &mockTx{}
	conn := &mockQuerier{beginFunc: func(ctx context.Context) (pgx.Tx, error) { return tx, nil }}
	path := writeArtifact(t, "rooms.json", `[{"id":1,"name":"Room #1"},{"id":2,"name":"Room #2"}]`)

	err := newLoader().Load(context.Background(), conn, path, dormstats.TableRoom)

	require.NoError(t, err)
	require.NotNil(t, tx.batch)
	require.Len(t, tx.batch.QueuedQueries, 2)

	first := tx.batch.QueuedQueries[0]
	assert.Contains(t, first.SQL, "INSERT INTO room")
	assert.Contains(t, first.SQL, "ON CONFLICT (id) DO NOTHING")
	require.Len(t, first.Arguments, 2)
	assert.Equal(t, int64(1), *first.Arguments[0].(*int64))
	assert.Equal(t, "Room #1", *first.Arguments[1].(*string))

	assert.Equal(t, 1, tx.commits, "the whole batch commits exactly once")
	assert.Zero(t, tx.rollbacks)
	assert.True(t, tx.results.closed)
}

func TestLoad_Students_MissingFieldsBecomeNull(t *testing.T) {
	tx := &mockTx{}
	conn := &mockQuerier{beginFunc: func(ctx context.Context) (pgx.Tx, error) { return tx, nil }}
	// Second record carries only an id; every other field must surface as NULL.
	path := writeArtifact(t, "students.json",
		`[{"id":1,"name":"Alice","room":1,"sex":"F","birthday":"1996-05-13"},{"id":2}]`)

	err := newLoader().Load(context.Background(), conn, path, dormstats.TableStudent)

	require.NoError(t, err)
	require.NotNil(t, tx.batch)
	require.Len(t, tx.batch.QueuedQueries, 2)

	full := tx.batch.QueuedQueries[0]
	assert.Contains(t, full.SQL, "INSERT INTO student")
	require.Len(t, full.Arguments, 5)
	assert.Equal(t, "1996-05-13", *full.Arguments[0].(*string))
	assert.Equal(t, int64(1), *full.Arguments[1].(*int64))
	assert.Equal(t, "Alice", *full.Arguments[2].(*string))
	assert.Equal(t, int64(1), *full.Arguments[3].(*int64))
	assert.Equal(t, "F", *full.Arguments[4].(*string))

	sparse := tx.batch.QueuedQueries[1]
	require.Len(t, sparse.Arguments, 5)
	assert.Nil(t, sparse.Arguments[0].(*string))
	assert.Equal(t, int64(2), *sparse.Arguments[1].(*int64))
	assert.Nil(t, sparse.Arguments[2].(*string))
	assert.Nil(t, sparse.Arguments[3].(*int64))
	assert.Nil(t, sparse.Arguments[4].(*string))
}

func TestLoad_EmptyArrayIssuesNothing(t *testing.T) {
	tx := &mockTx{}
	conn := &mockQuerier{beginFunc: func(ctx context.Context) (pgx.Tx, error) { return tx, nil }}
	path := writeArtifact(t, "rooms.json", `[]`)

	err := newLoader().Load(context.Background(), conn, path, dormstats.TableRoom)

	require.NoError(t, err)
	assert.Zero(t, conn.begins)
}

func TestLoad_InsertFailureRollsBack(t *testing.T) {
	tx := &mockTx{results: &mockBatchResults{
		execErrs: []error{nil, errors.New("value too long")},
	}}
	conn := &mockQuerier{beginFunc: func(ctx context.Context) (pgx.Tx, error) { return tx, nil }}
	path := writeArtifact(t, "rooms.json", `[{"id":1,"name":"a"},{"id":2,"name":"b"}]`)

	err := newLoader().Load(context.Background(), conn, path, dormstats.TableRoom)

	assert.ErrorIs(t, err, dormstats.ErrExecutionFailed)
	assert.Equal(t, 1, tx.rollbacks)
	assert.Zero(t, tx.commits)
}
