package db

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dormstats/dormstats/internal/retry"
	"github.com/dormstats/dormstats/pkg/dormstats"
)

// Pool sizing: the pipeline is single-threaded and owns exactly one physical
// connection per run, so the pool is pinned to a single connection.
const (
	maxConns = 1
	minConns = 1
)

func configurePool(poolConfig *pgxpool.Config) {
	poolConfig.MaxConns = maxConns
	poolConfig.MinConns = minConns
	poolConfig.ConnConfig.OnNotice = func(_ *pgconn.PgConn, notice *pgconn.Notice) {
		fmt.Println(notice.Message)
	}
}

// BuildConnectionString renders the config as a PostgreSQL URI.
func BuildConnectionString(config *dormstats.ConnectionConfig) string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(config.User, config.Password),
		Host:   fmt.Sprintf("%s:%d", config.Host, config.Port),
		Path:   "/" + config.Database,
	}
	if config.SSLMode != "" {
		q := url.Values{}
		q.Set("sslmode", config.SSLMode)
		u.RawQuery = q.Encode()
	}
	return u.String()
}

// StandardConnector implements dormstats.Connector for username/password
// authentication with automatic retry on transient dial failures.
type StandardConnector struct {
	config        *dormstats.ConnectionConfig
	retryExecutor *retry.Executor
}

// NewStandardConnector creates a connector with the default bounded retry
// policy: DefaultRetryMaxAttempts attempts, exponential backoff starting at
// DefaultRetryInitialDelay, capped at DefaultRetryMaxDelay.
func NewStandardConnector(config *dormstats.ConnectionConfig) *StandardConnector {
	strategy := retry.NewExponentialBackoff(dormstats.DefaultRetryMaxAttempts,
		retry.WithInitialDelay(dormstats.DefaultRetryInitialDelay),
		retry.WithMaxDelay(dormstats.DefaultRetryMaxDelay),
	)
	return &StandardConnector{
		config:        config,
		retryExecutor: retry.NewExecutor(retry.NewClassifier(), strategy),
	}
}

// Connect establishes a connection pool and verifies it with a ping.
func (c *StandardConnector) Connect(ctx context.Context) (*pgxpool.Pool, error) {
	var pool *pgxpool.Pool
	connStr := BuildConnectionString(c.config)

	err := c.retryExecutor.Execute(ctx, func(ctx context.Context) error {
		poolConfig, err := pgxpool.ParseConfig(connStr)
		if err != nil {
			return fmt.Errorf("failed to parse connection config: %w", err)
		}

		configurePool(poolConfig)

		pool, err = pgxpool.NewWithConfig(ctx, poolConfig)
		if err != nil {
			return wrapConnectionError(err, c.config)
		}

		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return wrapConnectionError(err, c.config)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return pool, nil
}

// wrapConnectionError classifies raw pgx dial errors into the sentinel
// connection error with an actionable message.
func wrapConnectionError(err error, config *dormstats.ConnectionConfig) error {
	errStr := strings.ToLower(err.Error())
	addr := fmt.Sprintf("%s:%d", config.Host, config.Port)

	switch {
	case strings.Contains(errStr, "connection refused") || strings.Contains(errStr, "actively refused"):
		return fmt.Errorf("connection refused to %s (is PostgreSQL running?): %w: %w",
			addr, dormstats.ErrConnectionFailed, err)
	case strings.Contains(errStr, "no such host") || strings.Contains(errStr, "no host"):
		return fmt.Errorf("cannot resolve host %q: %w: %w",
			config.Host, dormstats.ErrConnectionFailed, err)
	case strings.Contains(errStr, "password authentication failed"):
		return fmt.Errorf("password authentication failed for user %q on database %q: %w: %w",
			config.User, config.Database, dormstats.ErrConnectionFailed, err)
	case strings.Contains(errStr, "does not exist"):
		return fmt.Errorf("database %q does not exist: %w: %w",
			config.Database, dormstats.ErrConnectionFailed, err)
	default:
		return fmt.Errorf("failed to connect to %s: %w: %w",
			addr, dormstats.ErrConnectionFailed, err)
	}
}

// Verify StandardConnector implements Connector at compile time
var _ dormstats.Connector = (*StandardConnector)(nil)
