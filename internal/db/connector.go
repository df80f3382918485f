package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vvka-141/transitload/internal/retry"
	"github.com/vvka-141/transitload/pkg/transitload"
)

// Connection pool configuration constants
const (
	// DefaultMaxConns covers the provisioning transaction plus one writer.
	// Files are loaded sequentially, so more connections stay idle.
	DefaultMaxConns = 4

	// DefaultMinConns maintains at least one connection in the pool.
	DefaultMinConns = 1

	// DefaultMaxConnIdleTime keeps the connection warm between files of a long run.
	DefaultMaxConnIdleTime = 30 * time.Minute

	// DefaultApplicationName tags warehouse sessions in pg_stat_activity.
	DefaultApplicationName = "transitload"
)

// configurePool applies the loader's pool limits and routes server notices
// (e.g. "table does not exist, skipping" from DROP IF EXISTS) to the logger.
func configurePool(poolConfig *pgxpool.Config, logger transitload.Logger) {
	poolConfig.MaxConns = DefaultMaxConns
	poolConfig.MinConns = DefaultMinConns
	poolConfig.MaxConnIdleTime = DefaultMaxConnIdleTime
	if _, ok := poolConfig.ConnConfig.RuntimeParams["application_name"]; !ok {
		poolConfig.ConnConfig.RuntimeParams["application_name"] = DefaultApplicationName
	}
	poolConfig.ConnConfig.OnNotice = func(_ *pgconn.PgConn, notice *pgconn.Notice) {
		logger.Verbose("postgres %s: %s", strings.ToLower(notice.Severity), notice.Message)
	}
}

// openPool creates the pool and proves it with a ping.
func openPool(ctx context.Context, poolConfig *pgxpool.Config, cfg *transitload.ConnectionConfig) (*pgxpool.Pool, error) {
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, wrapConnectionError(err, cfg.Host, cfg.Port, cfg.Database)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, wrapConnectionError(err, cfg.Host, cfg.Port, cfg.Database)
	}
	return pool, nil
}

// StandardConnector implements the Connector interface for
// username/password authentication with retry on transient failures.
type StandardConnector struct {
	config        *transitload.ConnectionConfig
	logger        transitload.Logger
	retryExecutor *retry.Executor
}

var _ transitload.Connector = (*StandardConnector)(nil)

// NewStandardConnector creates a StandardConnector. Retries follow the
// retry.ConnectBackoff schedule.
//
// Panics if config or logger is nil.
func NewStandardConnector(config *transitload.ConnectionConfig, logger transitload.Logger) *StandardConnector {
	if config == nil {
		panic("config cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &StandardConnector{
		config:        config,
		logger:        logger,
		retryExecutor: retry.NewConnectExecutor(logger),
	}
}

// Connect establishes a connection pool, retrying transient failures.
func (c *StandardConnector) Connect(ctx context.Context) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(BuildConnectionString(c.config))
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection config: %w: %w", transitload.ErrInvalidConfig, err)
	}
	configurePool(poolConfig, c.logger)

	var pool *pgxpool.Pool
	err = c.retryExecutor.Execute(ctx, func(ctx context.Context) error {
		pool, err = openPool(ctx, poolConfig, c.config)
		return err
	})
	if err != nil {
		return nil, err
	}

	c.logger.Verbose("Connected to %s:%d/%s as %s", c.config.Host, c.config.Port, c.config.Database, c.config.Username)
	return pool, nil
}

// NewConnector creates the Connector matching the config's AuthMethod.
func NewConnector(config *transitload.ConnectionConfig, logger transitload.Logger) (transitload.Connector, error) {
	switch config.AuthMethod {
	case transitload.AuthMethodStandard:
		return NewStandardConnector(config, logger), nil
	case transitload.AuthMethodAWSIAM:
		return newAWSConnector(config, logger)
	case transitload.AuthMethodGoogleIAM:
		return newGoogleConnector(config, logger)
	case transitload.AuthMethodAzureEntraID:
		return newAzureConnector(config, logger)
	default:
		return nil, fmt.Errorf("auth method %v: %w", config.AuthMethod, transitload.ErrUnsupportedAuthMethod)
	}
}

// wrapConnectionError adds actionable guidance to raw pgx connection errors.
// The result wraps both ErrConnectionFailed and the original error, so retry
// classification still sees the underlying cause.
func wrapConnectionError(err error, host string, port int, database string) error {
	errStr := strings.ToLower(err.Error())
	addr := fmt.Sprintf("%s:%d", host, port)

	switch {
	case strings.Contains(errStr, "connection refused") || strings.Contains(errStr, "actively refused"):
		return fmt.Errorf(`connection refused to %s

Possible causes:
  - PostgreSQL is not running (check: pg_isready -h %s -p %d)
  - Wrong host or port (check $PGHOST, $PGPORT or transitload.yaml)
  - Firewall blocking the connection

Original error: %w: %w`, addr, host, port, transitload.ErrConnectionFailed, err)

	case strings.Contains(errStr, "no such host") || strings.Contains(errStr, "no host"):
		return fmt.Errorf(`cannot resolve host "%s"

Possible causes:
  - Hostname is misspelled
  - DNS is not configured or reachable

Original error: %w: %w`, host, transitload.ErrConnectionFailed, err)

	case strings.Contains(errStr, "password authentication failed"):
		return fmt.Errorf(`password authentication failed for database "%s"

Possible causes:
  - Wrong password (check $PGPASSWORD, .env or ~/.pgpass)
  - Wrong username
  - User does not have access to the database

Original error: %w: %w`, database, transitload.ErrConnectionFailed, err)

	case strings.Contains(errStr, "does not exist"):
		return fmt.Errorf(`database "%s" does not exist

The loader provisions tables, not databases. Create it first:
  createdb %s

Original error: %w: %w`, database, database, transitload.ErrConnectionFailed, err)

	case strings.Contains(errStr, "timeout") || strings.Contains(errStr, "timed out"):
		return fmt.Errorf(`connection timed out to %s

Possible causes:
  - Server is overloaded or unresponsive
  - Firewall silently dropping packets
  - Wrong host/port (server not listening)

Original error: %w: %w`, addr, transitload.ErrConnectionFailed, err)

	case strings.Contains(errStr, "ssl") || strings.Contains(errStr, "tls"):
		return fmt.Errorf(`SSL/TLS connection error

Possible causes:
  - Server requires SSL but --sslmode is wrong
  - Certificate verification failed (try --sslmode=require)

Original error: %w: %w`, transitload.ErrConnectionFailed, err)

	case strings.Contains(errStr, "too many connections"):
		return fmt.Errorf(`too many connections to database "%s"

Possible causes:
  - max_connections limit reached in postgresql.conf
  - Stale sessions from a previous load (application_name = '%s')

Original error: %w: %w`, database, DefaultApplicationName, transitload.ErrConnectionFailed, err)

	default:
		return fmt.Errorf("failed to connect to database: %w: %w", transitload.ErrConnectionFailed, err)
	}
}

func newAWSConnector(config *transitload.ConnectionConfig, logger transitload.Logger) (transitload.Connector, error) {
	endpoint := fmt.Sprintf("%s:%d", config.Host, config.Port)

	tokenProvider, err := NewAWSIAMTokenProvider(endpoint, config.AWSRegion, config.Username)
	if err != nil {
		return nil, err
	}

	return NewTokenBasedConnector(config, tokenProvider, "AWS IAM", logger), nil
}

func newGoogleConnector(config *transitload.ConnectionConfig, logger transitload.Logger) (transitload.Connector, error) {
	if config.GoogleInstance == "" {
		return nil, fmt.Errorf("Google Cloud SQL IAM auth requires --google-instance (project:region:instance): %w", transitload.ErrInvalidConfig)
	}
	if config.Username == "" {
		return nil, fmt.Errorf("Google Cloud SQL IAM auth requires username (-U): %w", transitload.ErrInvalidConfig)
	}

	return NewGoogleCloudSQLConnector(config, logger), nil
}

// newAzureConnector uses Service Principal credentials when all three are
// present and the DefaultAzureCredential chain otherwise.
func newAzureConnector(config *transitload.ConnectionConfig, logger transitload.Logger) (transitload.Connector, error) {
	var (
		tokenProvider TokenProvider
		err           error
	)

	if config.AzureTenantID != "" && config.AzureClientID != "" && config.AzureClientSecret != "" {
		tokenProvider, err = NewAzureServicePrincipalProvider(config.AzureTenantID, config.AzureClientID, config.AzureClientSecret)
	} else {
		tokenProvider, err = NewAzureDefaultCredentialProvider()
	}
	if err != nil {
		return nil, err
	}

	return NewTokenBasedConnector(config, tokenProvider, "Azure", logger), nil
}
