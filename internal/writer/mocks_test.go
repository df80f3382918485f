package writer

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// mockConn records every batch and COPY it receives.
type mockConn struct {
	mu        sync.Mutex
	batches   []*pgx.Batch
	copies    [][][]any
	failBatch int // 1-based batch number whose first statement fails; 0 never
}

func (m *mockConn) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batches = append(m.batches, b)
	var err error
	if m.failBatch == len(m.batches) {
		err = errors.New("duplicate key value violates unique constraint")
	}
	return &mockBatchResults{err: err}
}

func (m *mockConn) CopyFrom(ctx context.Context, table pgx.Identifier, columns []string, src pgx.CopyFromSource) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var rows [][]any
	for src.Next() {
		vals, err := src.Values()
		if err != nil {
			return 0, err
		}
		rows = append(rows, vals)
	}
	m.copies = append(m.copies, rows)
	return int64(len(rows)), nil
}

func (m *mockConn) queued() []*pgx.QueuedQuery {
	var all []*pgx.QueuedQuery
	for _, b := range m.batches {
		all = append(all, b.QueuedQueries...)
	}
	return all
}

// mockBatchResults fails the first Exec when err is set.
type mockBatchResults struct {
	pgx.BatchResults
	err    error
	closed bool
}

func (r *mockBatchResults) Exec() (pgconn.CommandTag, error) {
	if r.err != nil {
		return pgconn.CommandTag{}, r.err
	}
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func (r *mockBatchResults) Close() error {
	r.closed = true
	return nil
}

type chunkObservation struct {
	table string
	rows  int
}

type mockObserver struct {
	chunks []chunkObservation
}

func (o *mockObserver) ObserveChunk(table string, rows int, elapsed time.Duration) {
	o.chunks = append(o.chunks, chunkObservation{table: table, rows: rows})
}
