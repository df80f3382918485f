package transitload

import (
	"errors"
	"io"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Session encapsulates the warehouse resources held for one load run:
// the connection pool shared by provisioning and bulk writes, and any
// auxiliary resources (cloud dialers) that must outlive the pool.
//
// Thread-Safety: NOT safe for concurrent Close calls.
//
// Lifecycle:
//  1. Created by SessionManager.OpenSession()
//  2. Used by the orchestrator for the whole run
//  3. Cleaned up via Close() (idempotent), on success and on failure
type Session struct {
	pool    *pgxpool.Pool
	closers []io.Closer
}

// NewSession creates a new Session instance.
// This is intended to be called by SessionManager, not by external code.
//
// Panics if pool is nil (programmer error).
func NewSession(pool *pgxpool.Pool, closers ...io.Closer) *Session {
	if pool == nil {
		panic("pool cannot be nil")
	}
	return &Session{
		pool:    pool,
		closers: closers,
	}
}

// Pool returns the connection pool for the session.
// The pool is valid until Close() is called.
func (s *Session) Pool() *pgxpool.Pool {
	return s.pool
}

// Close releases all resources associated with the session.
// This method is idempotent and safe to call multiple times.
//
// The pool is closed first, then auxiliary closers in reverse order.
func (s *Session) Close() error {
	if s.pool != nil {
		s.pool.Close()
		s.pool = nil
	}

	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil

	return errors.Join(errs...)
}
