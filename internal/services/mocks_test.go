package services

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vvka-141/transitload/pkg/transitload"
)

// fakeWarehouse records provisioning statements and COPY rows per table.
// Methods a run never calls fall through to nil embedded interfaces and panic.
type fakeWarehouse struct {
	mu       sync.Mutex
	execs    []string
	commits  int
	copies   map[string][][]any
	copyCall map[string]int
	// failCopy maps a table to the 1-based COPY call that fails.
	failCopy map[string]int
	beginErr error
}

func newFakeWarehouse() *fakeWarehouse {
	return &fakeWarehouse{
		copies:   make(map[string][][]any),
		copyCall: make(map[string]int),
		failCopy: make(map[string]int),
	}
}

func (w *fakeWarehouse) Begin(ctx context.Context) (pgx.Tx, error) {
	if w.beginErr != nil {
		return nil, w.beginErr
	}
	return &fakeTx{wh: w}, nil
}

func (w *fakeWarehouse) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, errors.New("catalog queries are not supported by fakeWarehouse")
}

func (w *fakeWarehouse) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	return &fakeBatchResults{err: errors.New("insert mode is not supported by fakeWarehouse")}
}

func (w *fakeWarehouse) CopyFrom(ctx context.Context, table pgx.Identifier, columns []string, src pgx.CopyFromSource) (int64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	name := table[len(table)-1]
	w.copyCall[name]++
	if w.failCopy[name] == w.copyCall[name] {
		return 0, errors.New("connection reset by peer")
	}

	var n int64
	for src.Next() {
		vals, err := src.Values()
		if err != nil {
			return n, err
		}
		w.copies[name] = append(w.copies[name], vals)
		n++
	}
	return n, nil
}

func (w *fakeWarehouse) rows(table string) [][]any {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.copies[table]
}

type fakeTx struct {
	pgx.Tx
	wh *fakeWarehouse
}

func (t *fakeTx) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	t.wh.mu.Lock()
	defer t.wh.mu.Unlock()
	t.wh.execs = append(t.wh.execs, sql)
	return pgconn.NewCommandTag("OK"), nil
}

func (t *fakeTx) Commit(ctx context.Context) error {
	t.wh.mu.Lock()
	defer t.wh.mu.Unlock()
	t.wh.commits++
	return nil
}

func (t *fakeTx) Rollback(ctx context.Context) error {
	return pgx.ErrTxClosed
}

type fakeBatchResults struct {
	pgx.BatchResults
	err error
}

func (r *fakeBatchResults) Exec() (pgconn.CommandTag, error) { return pgconn.CommandTag{}, r.err }
func (r *fakeBatchResults) Close() error                     { return nil }

// fakeSessions hands out one warehouse and counts opens and closes.
type fakeSessions struct {
	wh      *fakeWarehouse
	openErr error
	opened  int
	closed  int
}

func (s *fakeSessions) Open(ctx context.Context, connConfig *transitload.ConnectionConfig) (Warehouse, io.Closer, error) {
	if s.openErr != nil {
		return nil, nil, s.openErr
	}
	s.opened++
	return s.wh, closerFunc(func() error {
		s.closed++
		return nil
	}), nil
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

type fakeApprover struct {
	approve bool
	err     error
	calls   int
	tables  []string
}

func (a *fakeApprover) RequestApproval(ctx context.Context, dbName string, tables []string) (bool, error) {
	a.calls++
	a.tables = tables
	return a.approve, a.err
}

type fakeNotifier struct {
	summaries []*transitload.RunSummary
	err       error
}

func (n *fakeNotifier) Notify(ctx context.Context, summary *transitload.RunSummary) error {
	n.summaries = append(n.summaries, summary)
	return n.err
}

// fakeConnector fails Connect and reports whether Close was called.
type fakeConnector struct {
	err    error
	closed bool
}

func (c *fakeConnector) Connect(ctx context.Context) (*pgxpool.Pool, error) {
	return nil, c.err
}

func (c *fakeConnector) Close() error {
	c.closed = true
	return nil
}
