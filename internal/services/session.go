package services

import (
	"context"
	"fmt"
	"io"

	"github.com/jackc/pgx/v5"

	"github.com/vvka-141/transitload/pkg/transitload"
)

// ConnectorFactory builds the Connector for a resolved connection.
type ConnectorFactory func(*transitload.ConnectionConfig) (transitload.Connector, error)

// Warehouse is the part of a connection pool a run uses: transactions for
// provisioning, catalog queries for verification, batches and COPY for writes.
// Satisfied by *pgxpool.Pool.
type Warehouse interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
}

// SessionOpener opens the warehouse for one run. The returned closer
// releases every resource of the session and must be called on all paths.
type SessionOpener interface {
	Open(ctx context.Context, connConfig *transitload.ConnectionConfig) (Warehouse, io.Closer, error)
}

// SessionManager opens warehouse sessions through a ConnectorFactory.
//
// SessionManager is safe for concurrent use as long as the injected
// connectorFactory and logger are.
type SessionManager struct {
	connectorFactory ConnectorFactory
	logger           transitload.Logger
}

var _ SessionOpener = (*SessionManager)(nil)

// NewSessionManager creates a SessionManager.
//
// Panics if any dependency is nil.
func NewSessionManager(connectorFactory ConnectorFactory, logger transitload.Logger) *SessionManager {
	if connectorFactory == nil {
		panic("connectorFactory cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &SessionManager{connectorFactory: connectorFactory, logger: logger}
}

// OpenSession connects to connConfig.Database and wraps the pool in a Session.
// Connectors holding auxiliary resources (io.Closer) are closed with the session.
//
// The caller is responsible for: defer session.Close()
func (sm *SessionManager) OpenSession(ctx context.Context, connConfig *transitload.ConnectionConfig) (*transitload.Session, error) {
	sm.logger.Verbose("Connecting to database '%s' on %s:%d (%s auth)",
		connConfig.Database, connConfig.Host, connConfig.Port, connConfig.AuthMethod)

	connector, err := sm.connectorFactory(connConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connector: %w", err)
	}

	pool, err := connector.Connect(ctx)
	if err != nil {
		if closer, ok := connector.(io.Closer); ok {
			_ = closer.Close()
		}
		return nil, fmt.Errorf("failed to connect to database %q: %w", connConfig.Database, err)
	}

	var closers []io.Closer
	if closer, ok := connector.(io.Closer); ok {
		closers = append(closers, closer)
	}
	return transitload.NewSession(pool, closers...), nil
}

// Open implements SessionOpener.
func (sm *SessionManager) Open(ctx context.Context, connConfig *transitload.ConnectionConfig) (Warehouse, io.Closer, error) {
	session, err := sm.OpenSession(ctx, connConfig)
	if err != nil {
		return nil, nil, err
	}
	return session.Pool(), session, nil
}
