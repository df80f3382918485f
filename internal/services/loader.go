package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/vvka-141/transitload/internal/files/columnar"
	"github.com/vvka-141/transitload/internal/files/filesystem"
	"github.com/vvka-141/transitload/internal/files/scanner"
	"github.com/vvka-141/transitload/internal/logging"
	"github.com/vvka-141/transitload/internal/metrics"
	"github.com/vvka-141/transitload/internal/provision"
	"github.com/vvka-141/transitload/internal/reconcile"
	"github.com/vvka-141/transitload/internal/schema"
	"github.com/vvka-141/transitload/internal/writer"
	"github.com/vvka-141/transitload/pkg/transitload"
)

// LoadService implements transitload.Loader.
// Thread-Safety: NOT safe for concurrent Run() calls on the same instance.
type LoadService struct {
	sessions SessionOpener
	approver transitload.Approver
	logger   transitload.Logger
	fs       filesystem.FileSystemProvider
	mem      memory.Allocator
	metrics  *metrics.Collector
	notifier transitload.Notifier
	now      func() time.Time
}

var _ transitload.Loader = (*LoadService)(nil)

// Option configures a LoadService.
type Option func(*LoadService)

// WithFileSystem reads snapshots through fsProvider instead of the OS filesystem.
func WithFileSystem(fsProvider filesystem.FileSystemProvider) Option {
	return func(s *LoadService) {
		s.fs = fsProvider
	}
}

// WithAllocator sets the arrow allocator shared by the reader and the reconciler.
func WithAllocator(mem memory.Allocator) Option {
	return func(s *LoadService) {
		s.mem = mem
	}
}

// WithMetrics records file, record and chunk metrics in c.
func WithMetrics(c *metrics.Collector) Option {
	return func(s *LoadService) {
		s.metrics = c
	}
}

// WithNotifier announces every finished non-dry run through n.
func WithNotifier(n transitload.Notifier) Option {
	return func(s *LoadService) {
		s.notifier = n
	}
}

// WithClock sets the source of run timestamps and of load-time ingestion stamps.
func WithClock(now func() time.Time) Option {
	return func(s *LoadService) {
		s.now = now
	}
}

// NewLoadService creates a LoadService. Panics if any dependency is nil.
func NewLoadService(sessions SessionOpener, approver transitload.Approver, logger transitload.Logger, opts ...Option) *LoadService {
	if sessions == nil {
		panic("sessions cannot be nil")
	}
	if approver == nil {
		panic("approver cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}

	s := &LoadService{
		sessions: sessions,
		approver: approver,
		logger:   logger,
		fs:       filesystem.NewOSFileSystem(),
		mem:      memory.DefaultAllocator,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// run carries the collaborators of one Run.
type run struct {
	cfg        transitload.LoadConfig
	logger     transitload.Logger
	scanner    *scanner.Scanner
	reader     *columnar.Reader
	reconciler *reconcile.Reconciler
	writer     *writer.Writer
	summary    *transitload.RunSummary
}

// Run resets the destination tables and loads every discovered snapshot of
// both feeds. The returned summary is non-nil whenever cfg is valid, also
// when err is not.
func (s *LoadService) Run(ctx context.Context, cfg transitload.LoadConfig) (summary *transitload.RunSummary, err error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	summary = transitload.NewRunSummary(cfg.Connection.Database, s.now(), cfg.DryRun)
	logger := s.runLogger(summary)
	defer func() {
		summary.FinishedAt = s.now()
		if s.metrics != nil {
			s.metrics.RunFinished(summary, err)
		}
		if !cfg.DryRun && s.notifier != nil {
			if notifyErr := s.notifier.Notify(context.WithoutCancel(ctx), summary); notifyErr != nil {
				logger.Error("Failed to publish load notification: %v", notifyErr)
			}
		}
	}()

	r := &run{
		cfg:     cfg,
		logger:  logger,
		scanner: scanner.NewScannerWithFS(s.fs),
		reader:  columnar.NewReader(s.fs, s.mem),
		reconciler: reconcile.New(
			reconcile.WithAllocator(s.mem),
			reconcile.WithClock(s.now),
			reconcile.WithLogger(logger),
		),
		summary: summary,
	}

	if cfg.DryRun {
		logger.Info("Dry run: reading %s without touching database '%s'", cfg.RawDir, cfg.Connection.Database)
		return summary, s.loadCategories(ctx, r)
	}

	wh, closer, err := s.sessions.Open(ctx, cfg.Connection)
	if err != nil {
		return summary, err
	}
	defer closeQuietly(closer, logger)

	if err := s.reset(ctx, wh, cfg); err != nil {
		return summary, err
	}

	opts := []writer.Option{writer.WithMode(cfg.WriteMode)}
	if s.metrics != nil {
		opts = append(opts, writer.WithObserver(s.metrics))
	}
	r.writer = writer.New(wh, cfg.Schema, logger, opts...)

	if err := s.loadCategories(ctx, r); err != nil {
		return summary, err
	}

	logger.Info("Loaded %d record(s) into database '%s'", summary.TotalRecords(), cfg.Connection.Database)
	return summary, nil
}

// Provision resets the destination tables without loading, or with verify
// compares the live tables to their canonical definitions without changing them.
func (s *LoadService) Provision(ctx context.Context, cfg transitload.LoadConfig, verify bool) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	wh, closer, err := s.sessions.Open(ctx, cfg.Connection)
	if err != nil {
		return err
	}
	defer closeQuietly(closer, s.logger)

	if !verify {
		return s.reset(ctx, wh, cfg)
	}

	p := provision.New(cfg.Schema, s.logger)
	var errs []error
	for _, t := range schema.Tables() {
		if err := p.Verify(ctx, wh, t); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	s.logger.Info("All destination tables in schema %s match their canonical definitions", cfg.Schema)
	return nil
}

// reset asks for approval, then drops and recreates every destination table.
func (s *LoadService) reset(ctx context.Context, wh Warehouse, cfg transitload.LoadConfig) error {
	tables := schema.Tables()
	names := make([]string, len(tables))
	for i, t := range tables {
		names[i] = t.Name
	}

	approved, err := s.approver.RequestApproval(ctx, cfg.Connection.Database, names)
	if err != nil {
		return fmt.Errorf("approval failed: %w", err)
	}
	if !approved {
		return fmt.Errorf("reset of database '%s': %w", cfg.Connection.Database, transitload.ErrApprovalDenied)
	}

	return provision.New(cfg.Schema, s.logger).ResetSchema(ctx, wh, tables, provision.ConfirmDestructiveReset)
}

func (s *LoadService) loadCategories(ctx context.Context, r *run) error {
	var errs []error
	for _, category := range transitload.Categories() {
		err := s.loadCategory(ctx, r, category)
		if err == nil {
			continue
		}
		if !r.cfg.ContinueOnError || ctx.Err() != nil {
			return err
		}
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (s *LoadService) loadCategory(ctx context.Context, r *run, category transitload.Category) error {
	table, err := schema.ForCategory(category)
	if err != nil {
		return err
	}
	cs := r.summary.Category(category)

	snapshots, err := r.scanner.Discover(r.cfg.RawDir, r.cfg.FilePrefix, category)
	if err != nil {
		return fmt.Errorf("failed to discover %s files: %w", category, err)
	}
	if len(snapshots) == 0 {
		r.logger.Info("No %s files matching %s", category, scanner.Pattern(r.cfg.RawDir, r.cfg.FilePrefix, category))
		return nil
	}
	r.logger.Verbose("Found %d %s file(s)", len(snapshots), category)

	var errs []error
	for _, snap := range snapshots {
		if err := ctx.Err(); err != nil {
			return err
		}

		result, err := s.loadFile(ctx, r, table, snap)
		cs.Files = append(cs.Files, result)
		cs.Records += result.Written
		if err == nil {
			continue
		}

		fileErr := &transitload.FileLoadError{
			Category: category,
			File:     snap.Path,
			Loaded:   cs.Records,
			Err:      err,
		}
		r.logger.Error("%v", fileErr)
		if !r.cfg.ContinueOnError || ctx.Err() != nil {
			return fileErr
		}
		errs = append(errs, fileErr)
	}

	if r.cfg.DryRun {
		r.logger.Info("%s: %d record(s) read from %d file(s)", category, readTotal(cs), len(cs.Files))
	} else {
		r.logger.Info("%s: %d record(s) loaded from %d file(s)", category, cs.Records, len(cs.Files))
	}
	return errors.Join(errs...)
}

// loadFile reads, reconciles, counts and writes one snapshot. The result
// is filled in on every path; Written holds the committed rows even when
// a later chunk failed.
func (s *LoadService) loadFile(ctx context.Context, r *run, table schema.Table, snap scanner.Snapshot) (result transitload.FileResult, err error) {
	start := s.now()
	result.Path = snap.Path
	defer func() {
		result.Duration = s.now().Sub(start)
		if err != nil {
			result.Error = err.Error()
			if s.metrics != nil {
				s.metrics.FileFailed(table.Name, result.Written)
			}
		} else if s.metrics != nil {
			s.metrics.FileLoaded(table.Name, result.Written)
		}
	}()

	raw, err := r.reader.ReadFile(ctx, snap.Path)
	if err != nil {
		return result, err
	}
	defer raw.Release()

	rec, err := s.reconcile(ctx, r, raw, table, snap)
	if err != nil {
		var ce *transitload.SchemaCoercionError
		if errors.As(err, &ce) {
			ce.File = snap.Path
		}
		return result, err
	}
	defer rec.Release()

	result.Read = rec.NumRows()
	if s.metrics != nil {
		s.metrics.RecordsRead(table.Name, result.Read)
	}
	name := filepath.Base(snap.Path)
	r.logger.Info("%s: %d record(s) read", name, result.Read)

	if r.writer == nil {
		return result, nil
	}

	written, err := r.writer.Append(ctx, table, rec, r.cfg.BatchSize(snap.Category))
	result.Written = written
	if err != nil {
		var bwe *transitload.BatchWriteError
		if errors.As(err, &bwe) {
			bwe.File = snap.Path
		}
		return result, err
	}
	r.logger.Info("%s: %d record(s) written to %s", name, written, table.Name)
	return result, nil
}

func (s *LoadService) reconcile(ctx context.Context, r *run, raw arrow.Record, table schema.Table, snap scanner.Snapshot) (arrow.Record, error) {
	if r.cfg.IngestionFallback == transitload.IngestionFallbackSnapshot && snap.HasTime {
		return r.reconciler.ReconcileAt(ctx, raw, table, snap.Taken)
	}
	return r.reconciler.Reconcile(ctx, raw, table)
}

// runLogger tags structured loggers with the run id.
func (s *LoadService) runLogger(summary *transitload.RunSummary) transitload.Logger {
	if zl, ok := s.logger.(*logging.ZapLogger); ok {
		return zl.With("run_id", summary.RunID.String(), "database", summary.Database)
	}
	s.logger.Verbose("Run %s", summary.RunID)
	return s.logger
}

func readTotal(cs *transitload.CategorySummary) int64 {
	var n int64
	for _, f := range cs.Files {
		n += f.Read
	}
	return n
}

func closeQuietly(c io.Closer, logger transitload.Logger) {
	if err := c.Close(); err != nil {
		logger.Error("Failed to release session: %v", err)
	}
}
