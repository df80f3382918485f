package transitload_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/vvka-141/transitload/pkg/transitload"
)

func TestExitCodeForError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil error", nil, transitload.ExitSuccess},
		{"general error", errors.New("something went wrong"), transitload.ExitGeneralError},
		{"unknown flag", errors.New("unknown flag --foo"), transitload.ExitUsageError},
		{"unknown shorthand flag", errors.New("unknown shorthand flag: 'x'"), transitload.ExitUsageError},
		{"accepts args", errors.New("accepts 1 arg(s), received 0"), transitload.ExitUsageError},
		{"invalid argument", errors.New("invalid argument \"abc\" for \"--port\""), transitload.ExitUsageError},
		{"invalid config", fmt.Errorf("RawDir is required: %w", transitload.ErrInvalidConfig), transitload.ExitConfigError},
		{"unsupported auth", transitload.ErrUnsupportedAuthMethod, transitload.ExitConfigError},
		{"connection failed", transitload.ErrConnectionFailed, transitload.ExitConnectionError},
		{"connection refused text", errors.New("dial tcp: connection refused"), transitload.ExitConnectionError},
		{"approval denied", transitload.ErrApprovalDenied, transitload.ExitApprovalDenied},
		{"reset not confirmed", transitload.ErrResetNotConfirmed, transitload.ExitApprovalDenied},
		{"provisioning failed", transitload.ErrProvisioningFailed, transitload.ExitWriteFailed},
		{"unreadable input", transitload.ErrInputUnreadable, transitload.ExitInputUnreadable},
		{"schema drift", transitload.ErrSchemaDrift, transitload.ExitSchemaDrift},
		{
			"coercion inside file error",
			&transitload.FileLoadError{
				Category: transitload.CategoryTripUpdates,
				File:     "bart_trip_updates_20250101_120000.parquet",
				Err:      &transitload.SchemaCoercionError{Table: "trip_updates", Column: "stop_sequence", From: "utf8", To: "int32"},
			},
			transitload.ExitSchemaCoercion,
		},
		{
			"batch write inside file error",
			&transitload.FileLoadError{
				Category: transitload.CategoryServiceAlerts,
				Err:      &transitload.BatchWriteError{Table: "service_alerts", Err: errors.New("broken pipe")},
			},
			transitload.ExitWriteFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := transitload.ExitCodeForError(tt.err); got != tt.want {
				t.Errorf("ExitCodeForError(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestSchemaCoercionError_Message(t *testing.T) {
	cause := errors.New(`strconv.ParseInt: parsing "abc": invalid syntax`)
	err := &transitload.SchemaCoercionError{
		File:   "bart_trip_updates_20250101_120000.parquet",
		Table:  "trip_updates",
		Column: "stop_sequence",
		From:   "utf8",
		To:     "int32",
		Err:    cause,
	}

	want := `file "bart_trip_updates_20250101_120000.parquet": cannot coerce column "stop_sequence" of table "trip_updates" from utf8 to int32: strconv.ParseInt: parsing "abc": invalid syntax`
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if !errors.Is(err, transitload.ErrSchemaCoercion) {
		t.Error("expected errors.Is(err, ErrSchemaCoercion)")
	}
	if !errors.Is(err, cause) {
		t.Error("expected the cause to remain reachable")
	}
}

func TestBatchWriteError_CarriesCounts(t *testing.T) {
	err := fmt.Errorf("append failed: %w", &transitload.BatchWriteError{
		Table:     "trip_updates",
		File:      "a.parquet",
		Offset:    10000,
		Rows:      5000,
		Committed: 10000,
		Err:       errors.New("unexpected EOF"),
	})

	var bwe *transitload.BatchWriteError
	if !errors.As(err, &bwe) {
		t.Fatal("expected errors.As to find BatchWriteError")
	}
	if bwe.Committed != 10000 {
		t.Errorf("Committed = %d, want 10000", bwe.Committed)
	}
	if !errors.Is(err, transitload.ErrWriteFailed) {
		t.Error("expected errors.Is(err, ErrWriteFailed)")
	}
}
