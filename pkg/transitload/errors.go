package transitload

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for common failure scenarios.
// These enable callers to distinguish error types using errors.Is().
//
// Example usage:
//
//	summary, err := loader.Run(ctx, cfg)
//	if errors.Is(err, transitload.ErrSchemaCoercion) {
//	    // A present input column could not be cast to its canonical type
//	}
var (
	// ErrInvalidConfig indicates the provided configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrApprovalDenied indicates the user denied approval for the destructive reset.
	ErrApprovalDenied = errors.New("approval denied")

	// ErrResetNotConfirmed indicates ResetSchema was called without the explicit confirmation token.
	ErrResetNotConfirmed = errors.New("schema reset not confirmed")

	// ErrConnectionFailed indicates database connection failed.
	ErrConnectionFailed = errors.New("connection failed")

	// ErrUnsupportedAuthMethod indicates the requested authentication method is not supported.
	ErrUnsupportedAuthMethod = errors.New("unsupported authentication method")

	// ErrSchemaCoercion indicates a present input column could not be coerced to its canonical type.
	ErrSchemaCoercion = errors.New("schema coercion failed")

	// ErrWriteFailed indicates a batch write to a destination table failed.
	ErrWriteFailed = errors.New("batch write failed")

	// ErrInputUnreadable indicates an input snapshot file could not be opened or decoded.
	ErrInputUnreadable = errors.New("input file unreadable")

	// ErrProvisioningFailed indicates dropping or creating destination tables failed.
	ErrProvisioningFailed = errors.New("provisioning failed")

	// ErrSchemaDrift indicates a destination table no longer matches its canonical definition.
	ErrSchemaDrift = errors.New("schema drift detected")
)

// SchemaCoercionError reports a present input column that could not be cast
// to the canonical type of its destination column.
type SchemaCoercionError struct {
	File   string
	Table  string
	Column string
	From   string
	To     string
	Err    error
}

func (e *SchemaCoercionError) Error() string {
	msg := fmt.Sprintf("cannot coerce column %q of table %q from %s to %s", e.Column, e.Table, e.From, e.To)
	if e.File != "" {
		msg = fmt.Sprintf("file %q: %s", e.File, msg)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both ErrSchemaCoercion and the underlying cause.
func (e *SchemaCoercionError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrSchemaCoercion}
	}
	return []error{ErrSchemaCoercion, e.Err}
}

// BatchWriteError reports a failed chunk within a file's append.
// Committed counts the rows of earlier chunks that reached the table;
// rows of the failing chunk may or may not have been committed server-side.
type BatchWriteError struct {
	Table     string
	File      string
	Offset    int64
	Rows      int64
	Committed int64
	Err       error
}

func (e *BatchWriteError) Error() string {
	var b strings.Builder
	if e.File != "" {
		fmt.Fprintf(&b, "file %q: ", e.File)
	}
	fmt.Fprintf(&b, "write to %q failed at row %d (chunk of %d rows, %d rows committed before failure)",
		e.Table, e.Offset, e.Rows, e.Committed)
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap exposes both ErrWriteFailed and the underlying cause.
func (e *BatchWriteError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrWriteFailed}
	}
	return []error{ErrWriteFailed, e.Err}
}

// FileLoadError wraps any failure while loading one snapshot file with the
// context needed for manual reconciliation.
type FileLoadError struct {
	Category Category
	File     string
	// Loaded is the number of records committed for the category before this file failed.
	Loaded int64
	Err    error
}

func (e *FileLoadError) Error() string {
	return fmt.Sprintf("%s: loading %q failed after %d record(s) loaded: %v", e.Category, e.File, e.Loaded, e.Err)
}

func (e *FileLoadError) Unwrap() error {
	return e.Err
}

// usagePatterns identifies cobra usage errors, which carry no sentinel.
var usagePatterns = []string{
	"unknown flag",
	"unknown shorthand flag",
	"unknown command",
	"accepts ",
	"required flag",
	"invalid argument",
	"flag needs an argument",
}

// ExitCodeForError returns the appropriate exit code for an error.
// Returns ExitSuccess (0) for nil errors, semantic codes for known errors,
// and ExitGeneralError (1) for unclassified errors.
func ExitCodeForError(err error) int {
	if err == nil {
		return ExitSuccess
	}

	switch {
	case errors.Is(err, ErrInvalidConfig), errors.Is(err, ErrUnsupportedAuthMethod):
		return ExitConfigError
	case errors.Is(err, ErrConnectionFailed):
		return ExitConnectionError
	case errors.Is(err, ErrApprovalDenied), errors.Is(err, ErrResetNotConfirmed):
		return ExitApprovalDenied
	case errors.Is(err, ErrSchemaCoercion):
		return ExitSchemaCoercion
	case errors.Is(err, ErrWriteFailed), errors.Is(err, ErrProvisioningFailed):
		return ExitWriteFailed
	case errors.Is(err, ErrInputUnreadable):
		return ExitInputUnreadable
	case errors.Is(err, ErrSchemaDrift):
		return ExitSchemaDrift
	}

	errStr := err.Error()
	for _, pattern := range usagePatterns {
		if strings.Contains(errStr, pattern) {
			return ExitUsageError
		}
	}

	if strings.Contains(errStr, "failed to connect") ||
		strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "no such host") {
		return ExitConnectionError
	}

	return ExitGeneralError
}
