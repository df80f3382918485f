package provision

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// mockTx records executed statements. Methods the provisioner never calls
// fall through to the nil embedded interface and panic.
type mockTx struct {
	pgx.Tx
	execs      []string
	failOn     int // 1-based statement index; 0 never fails
	committed  bool
	rolledBack bool
}

func (m *mockTx) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	m.execs = append(m.execs, sql)
	if m.failOn == len(m.execs) {
		return pgconn.CommandTag{}, errors.New("relation is locked")
	}
	return pgconn.NewCommandTag("OK"), nil
}

func (m *mockTx) Commit(ctx context.Context) error {
	m.committed = true
	return nil
}

func (m *mockTx) Rollback(ctx context.Context) error {
	if m.committed {
		return pgx.ErrTxClosed
	}
	m.rolledBack = true
	return nil
}

type mockBeginner struct {
	tx       *mockTx
	beginErr error
	begins   int
}

func (m *mockBeginner) Begin(ctx context.Context) (pgx.Tx, error) {
	m.begins++
	if m.beginErr != nil {
		return nil, m.beginErr
	}
	return m.tx, nil
}
