package db

import (
	"context"
	"fmt"
	"net"

	"cloud.google.com/go/cloudsqlconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vvka-141/transitload/pkg/transitload"
)

// GoogleCloudSQLConnector implements the Connector interface for Google Cloud SQL
// using IAM database authentication via the Cloud SQL Go Connector.
//
// Implements io.Closer; the session closes it after the pool to release
// the Cloud SQL dialer.
type GoogleCloudSQLConnector struct {
	config *transitload.ConnectionConfig
	logger transitload.Logger
	dialer *cloudsqlconn.Dialer
}

var _ transitload.Connector = (*GoogleCloudSQLConnector)(nil)

// NewGoogleCloudSQLConnector creates a connector for config.GoogleInstance
// (project:region:instance).
func NewGoogleCloudSQLConnector(config *transitload.ConnectionConfig, logger transitload.Logger) *GoogleCloudSQLConnector {
	if config == nil {
		panic("config cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &GoogleCloudSQLConnector{
		config: config,
		logger: logger,
	}
}

// Connect establishes a connection pool through the Cloud SQL dialer, which
// handles authentication and TLS itself.
func (c *GoogleCloudSQLConnector) Connect(ctx context.Context) (*pgxpool.Pool, error) {
	dialer, err := cloudsqlconn.NewDialer(ctx, cloudsqlconn.WithIAMAuthN())
	if err != nil {
		return nil, fmt.Errorf("failed to create Cloud SQL dialer: %w: %w", transitload.ErrConnectionFailed, err)
	}

	dsn := fmt.Sprintf(
		"host=%s user=%s dbname=%s sslmode=disable",
		c.config.GoogleInstance,
		c.config.Username,
		c.config.Database,
	)

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		dialer.Close()
		return nil, fmt.Errorf("failed to parse connection config: %w: %w", transitload.ErrInvalidConfig, err)
	}

	instance := c.config.GoogleInstance
	poolConfig.ConnConfig.DialFunc = func(ctx context.Context, _, _ string) (net.Conn, error) {
		return dialer.Dial(ctx, instance)
	}
	configurePool(poolConfig, c.logger)

	pool, err := openPool(ctx, poolConfig, c.config)
	if err != nil {
		dialer.Close()
		return nil, err
	}

	c.dialer = dialer
	c.logger.Verbose("Connected to Cloud SQL instance %s/%s", instance, c.config.Database)
	return pool, nil
}

// Close releases the Cloud SQL dialer. Call it after the pool is closed.
func (c *GoogleCloudSQLConnector) Close() error {
	if c.dialer != nil {
		err := c.dialer.Close()
		c.dialer = nil
		return err
	}
	return nil
}
