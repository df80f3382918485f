package transitload

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Category identifies a snapshot feed. The value doubles as the destination
// table name and as the infix of snapshot file names.
type Category string

const (
	CategoryTripUpdates   Category = "trip_updates"
	CategoryServiceAlerts Category = "service_alerts"
)

// Categories returns the feeds in processing order.
func Categories() []Category {
	return []Category{CategoryTripUpdates, CategoryServiceAlerts}
}

// IsValid returns true if the Category is a known feed.
func (c Category) IsValid() bool {
	return c == CategoryTripUpdates || c == CategoryServiceAlerts
}

// WriteMode selects the wire strategy used by the bulk writer.
type WriteMode string

const (
	// WriteModeInsert sends multi-row INSERT statements grouped in one batch round-trip per chunk.
	WriteModeInsert WriteMode = "insert"
	// WriteModeCopy streams each chunk with the COPY protocol.
	WriteModeCopy WriteMode = "copy"
)

// IsValid returns true if the WriteMode is supported.
func (m WriteMode) IsValid() bool {
	return m == WriteModeInsert || m == WriteModeCopy
}

// IngestionFallback selects the value stamped into ingestion_ts when a
// snapshot carries neither ingestion_ts nor the generic timestamp column.
type IngestionFallback string

const (
	// IngestionFallbackLoadTime stamps the load's wall-clock instant.
	IngestionFallbackLoadTime IngestionFallback = "load-time"
	// IngestionFallbackSnapshot stamps the instant embedded in the file name,
	// falling back to load time when the name carries none.
	IngestionFallbackSnapshot IngestionFallback = "snapshot"
)

// IsValid returns true if the IngestionFallback is supported.
func (f IngestionFallback) IsValid() bool {
	return f == IngestionFallbackLoadTime || f == IngestionFallbackSnapshot
}

// LoadConfig contains all parameters needed for a load run.
// It is resolved once by the CLI layer and passed explicitly to every component.
type LoadConfig struct {
	// Connection holds the resolved warehouse connection parameters
	Connection *ConnectionConfig

	// Schema is the PostgreSQL schema holding the destination tables
	Schema string

	// RawDir is the directory scanned for snapshot files
	RawDir string

	// FilePrefix is the feed prefix of snapshot file names ("bart")
	FilePrefix string

	// TripUpdatesBatchSize and ServiceAlertsBatchSize are rows per write round-trip
	TripUpdatesBatchSize   int
	ServiceAlertsBatchSize int

	// WriteMode selects multi-row INSERT batches or COPY
	WriteMode WriteMode

	// IngestionFallback selects how a missing ingestion timestamp is stamped
	IngestionFallback IngestionFallback

	// Force bypasses interactive approval of the destructive reset
	Force bool

	// DryRun reads and reconciles every file without provisioning or writing
	DryRun bool

	// ContinueOnError records a failing file and moves on instead of aborting the run
	ContinueOnError bool

	// Timeout is the global timeout for the entire run
	Timeout time.Duration

	// Verbose enables detailed logging
	Verbose bool
}

// BatchSize returns the configured rows per round-trip for a category.
func (c *LoadConfig) BatchSize(category Category) int {
	switch category {
	case CategoryTripUpdates:
		return c.TripUpdatesBatchSize
	case CategoryServiceAlerts:
		return c.ServiceAlertsBatchSize
	default:
		return 0
	}
}

// Validate checks if the LoadConfig has all required fields and valid values.
// It returns a multi-error if multiple validation failures occur.
func (c *LoadConfig) Validate() error {
	var errs []error

	if c.Connection == nil {
		errs = append(errs, fmt.Errorf("Connection is required: %w", ErrInvalidConfig))
	} else if c.Connection.Database == "" {
		errs = append(errs, fmt.Errorf("database name is required: %w", ErrInvalidConfig))
	}

	if c.Schema == "" {
		errs = append(errs, fmt.Errorf("Schema is required: %w", ErrInvalidConfig))
	}

	if c.RawDir == "" {
		errs = append(errs, fmt.Errorf("RawDir is required: %w", ErrInvalidConfig))
	}

	if c.FilePrefix == "" {
		errs = append(errs, fmt.Errorf("FilePrefix is required: %w", ErrInvalidConfig))
	}

	if c.TripUpdatesBatchSize <= 0 {
		errs = append(errs, fmt.Errorf("trip updates batch size must be positive, got %d: %w", c.TripUpdatesBatchSize, ErrInvalidConfig))
	}

	if c.ServiceAlertsBatchSize <= 0 {
		errs = append(errs, fmt.Errorf("service alerts batch size must be positive, got %d: %w", c.ServiceAlertsBatchSize, ErrInvalidConfig))
	}

	if !c.WriteMode.IsValid() {
		errs = append(errs, fmt.Errorf("unknown write mode %q (expected insert or copy): %w", c.WriteMode, ErrInvalidConfig))
	}

	if !c.IngestionFallback.IsValid() {
		errs = append(errs, fmt.Errorf("unknown ingestion fallback %q (expected load-time or snapshot): %w", c.IngestionFallback, ErrInvalidConfig))
	}

	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout cannot be negative: %w", ErrInvalidConfig))
	}

	return errors.Join(errs...)
}

// ConnectionConfig represents parsed connection parameters.
type ConnectionConfig struct {
	Host     string
	Port     int
	Database string
	Username string
	Password string
	SSLMode  string

	// AuthMethod indicates the authentication mechanism to use
	AuthMethod AuthMethod

	// Additional connection parameters
	AppName          string
	ConnectTimeout   time.Duration
	AdditionalParams map[string]string

	// Cloud IAM parameters, used by the matching AuthMethod only.
	AWSRegion         string
	GoogleInstance    string
	AzureTenantID     string
	AzureClientID     string
	AzureClientSecret string
}

// AuthMethod represents the type of authentication to use.
type AuthMethod int

const (
	AuthMethodStandard     AuthMethod = iota // Username/Password
	AuthMethodAWSIAM                         // AWS IAM Database Authentication
	AuthMethodGoogleIAM                      // Google Cloud SQL IAM
	AuthMethodAzureEntraID                   // Azure Active Directory (Entra ID)
)

// String returns a human-readable string representation of the AuthMethod.
func (a AuthMethod) String() string {
	switch a {
	case AuthMethodStandard:
		return "Standard"
	case AuthMethodAWSIAM:
		return "AWS IAM"
	case AuthMethodGoogleIAM:
		return "Google IAM"
	case AuthMethodAzureEntraID:
		return "Azure Entra ID"
	default:
		return fmt.Sprintf("Unknown(%d)", a)
	}
}

// IsValid returns true if the AuthMethod is a valid, defined value.
func (a AuthMethod) IsValid() bool {
	return a >= AuthMethodStandard && a <= AuthMethodAzureEntraID
}

// ParseAuthMethod maps the configuration spelling of an auth method.
func ParseAuthMethod(s string) (AuthMethod, error) {
	switch s {
	case "", "standard", "password":
		return AuthMethodStandard, nil
	case "aws", "aws-iam":
		return AuthMethodAWSIAM, nil
	case "google", "google-iam", "gcp":
		return AuthMethodGoogleIAM, nil
	case "azure", "entra", "azure-entra-id":
		return AuthMethodAzureEntraID, nil
	default:
		return AuthMethodStandard, fmt.Errorf("auth method %q: %w", s, ErrUnsupportedAuthMethod)
	}
}

// FileResult records the outcome of loading one snapshot file.
type FileResult struct {
	Path     string        `json:"path"`
	Read     int64         `json:"read"`
	Written  int64         `json:"written"`
	Duration time.Duration `json:"duration_ns"`
	Error    string        `json:"error,omitempty"`
}

// Failed returns true if the file did not load completely.
func (r FileResult) Failed() bool {
	return r.Error != ""
}

// CategorySummary accumulates the files and records of one feed.
type CategorySummary struct {
	Category Category     `json:"category"`
	Table    string       `json:"table"`
	Files    []FileResult `json:"files"`
	Records  int64        `json:"records"`
}

// FailedFiles counts files that did not load completely.
func (s *CategorySummary) FailedFiles() int {
	n := 0
	for _, f := range s.Files {
		if f.Failed() {
			n++
		}
	}
	return n
}

// RunSummary is the result of one orchestration run.
type RunSummary struct {
	RunID      uuid.UUID          `json:"run_id"`
	Database   string             `json:"database"`
	StartedAt  time.Time          `json:"started_at"`
	FinishedAt time.Time          `json:"finished_at"`
	DryRun     bool               `json:"dry_run"`
	Categories []*CategorySummary `json:"categories"`
}

// NewRunSummary creates an empty summary with a fresh run id.
func NewRunSummary(database string, startedAt time.Time, dryRun bool) *RunSummary {
	return &RunSummary{
		RunID:     uuid.New(),
		Database:  database,
		StartedAt: startedAt,
		DryRun:    dryRun,
	}
}

// Category returns the summary of a feed, creating it on first use.
func (s *RunSummary) Category(category Category) *CategorySummary {
	for _, c := range s.Categories {
		if c.Category == category {
			return c
		}
	}
	c := &CategorySummary{Category: category, Table: string(category)}
	s.Categories = append(s.Categories, c)
	return c
}

// TotalRecords sums records loaded across all feeds.
func (s *RunSummary) TotalRecords() int64 {
	var total int64
	for _, c := range s.Categories {
		total += c.Records
	}
	return total
}

// Duration returns the wall-clock length of the run.
func (s *RunSummary) Duration() time.Duration {
	if s.FinishedAt.IsZero() {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}
