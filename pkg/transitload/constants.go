package transitload

import "time"

// Exit codes for semantic error classification.
// These follow Unix/GNU conventions:
//   - 0: Success
//   - 1: General error
//   - 2: CLI usage error (misuse of command line)
//   - 3+: Application-specific errors
const (
	ExitSuccess         = 0  // Load completed successfully
	ExitGeneralError    = 1  // Unknown or unclassified error
	ExitUsageError      = 2  // CLI usage error (missing args, invalid flags)
	ExitPanic           = 3  // Internal panic (unexpected crash)
	ExitConfigError     = 10 // Invalid configuration
	ExitConnectionError = 11 // Failed to connect to database
	ExitApprovalDenied  = 12 // User denied the destructive reset
	ExitWriteFailed     = 13 // Provisioning or batch write failed
	ExitSchemaCoercion  = 14 // Input column could not be coerced
	ExitInputUnreadable = 15 // Snapshot file could not be read
	ExitSchemaDrift     = 16 // provision --verify found differences
)

const (
	// DefaultTripUpdatesBatchSize is the rows-per-round-trip for the high-volume trip update stream.
	DefaultTripUpdatesBatchSize = 5000

	// DefaultServiceAlertsBatchSize is the rows-per-round-trip for the low-volume alert stream.
	DefaultServiceAlertsBatchSize = 1000

	// MaxBindParameters is the PostgreSQL wire protocol limit on parameters per statement.
	MaxBindParameters = 65535

	// DefaultFilePrefix is the feed prefix of snapshot file names.
	DefaultFilePrefix = "bart"

	// DefaultRawDir is where the feed client drops snapshot files.
	DefaultRawDir = "./data/raw"

	// DefaultDatabase is the warehouse database name.
	DefaultDatabase = "bart_dw"

	// DefaultUsername is the warehouse user.
	DefaultUsername = "bart"

	// DefaultSchema is the PostgreSQL schema holding the destination tables.
	DefaultSchema = "public"

	// DefaultTimeout bounds an entire run.
	DefaultTimeout = 30 * time.Minute

	// DefaultForceApprovalCountdown is the countdown duration before force approval proceeds.
	DefaultForceApprovalCountdown = 5 * time.Second

	// NotificationChannel is the redis pub/sub channel for load-completed events.
	NotificationChannel = "transitload:loads"
)
