package provision

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/vvka-141/transitload/internal/schema"
	"github.com/vvka-141/transitload/pkg/transitload"
)

// Confirmation gates ResetSchema.
type Confirmation string

// ConfirmDestructiveReset is the only Confirmation ResetSchema accepts.
const ConfirmDestructiveReset Confirmation = "drop-and-recreate-destination-tables"

// TxBeginner starts transactions. Satisfied by *pgxpool.Pool, *pgxpool.Conn and *pgx.Conn.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Querier runs read-only catalog queries.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Provisioner resets and verifies destination tables in one schema.
type Provisioner struct {
	schema string
	logger transitload.Logger
}

// New creates a Provisioner for schemaName.
// Panics if logger is nil.
func New(schemaName string, logger transitload.Logger) *Provisioner {
	if logger == nil {
		panic("logger cannot be nil")
	}
	if schemaName == "" {
		schemaName = transitload.DefaultSchema
	}
	return &Provisioner{schema: schemaName, logger: logger}
}

// ResetSchema drops and recreates tables with their indexes in a single
// transaction. Existing rows are lost. confirm must be ConfirmDestructiveReset;
// any other value returns ErrResetNotConfirmed before conn is used.
func (p *Provisioner) ResetSchema(ctx context.Context, conn TxBeginner, tables []schema.Table, confirm Confirmation) (err error) {
	if confirm != ConfirmDestructiveReset {
		return transitload.ErrResetNotConfirmed
	}
	if len(tables) == 0 {
		return nil
	}

	stmts, err := ResetStatements(p.schema, tables)
	if err != nil {
		return fmt.Errorf("failed to render DDL: %w: %w", transitload.ErrProvisioningFailed, err)
	}

	tx, err := conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin provisioning transaction: %w: %w", transitload.ErrProvisioningFailed, err)
	}
	defer func() {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			err = errors.Join(err, fmt.Errorf("rollback failed: %w", rbErr))
		}
	}()

	for _, stmt := range stmts {
		p.logger.Verbose("%s", firstLine(stmt))
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute %q: %w: %w", firstLine(stmt), transitload.ErrProvisioningFailed, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit provisioning: %w: %w", transitload.ErrProvisioningFailed, err)
	}

	names := make([]string, len(tables))
	for i, t := range tables {
		names[i] = t.Name
	}
	p.logger.Info("Provisioned %s in schema %s", strings.Join(names, ", "), p.schema)
	return nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}
