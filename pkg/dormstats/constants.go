package dormstats

import "time"

// Exit codes for semantic error classification.
// These follow Unix/GNU conventions:
//   - 0: Success
//   - 1: General error
//   - 2: CLI usage error (misuse of command line)
//   - 3+: Application-specific errors
const (
	ExitSuccess         = 0  // Pipeline completed successfully
	ExitGeneralError    = 1  // Unknown or unclassified error
	ExitUsageError      = 2  // CLI usage error (missing args, invalid flags)
	ExitPanic           = 3  // Internal panic (unexpected crash)
	ExitConfigError     = 10 // Invalid configuration or parameters
	ExitConnectionError = 11 // Failed to connect to database
	ExitSchemaFailed    = 12 // Database or table provisioning failed
	ExitExecutionFailed = 13 // SQL statement execution failed
	ExitExportFailed    = 14 // Result serialization or output write failed
)

const (
	// DefaultRetryInitialDelay is the default initial delay before the first retry attempt.
	DefaultRetryInitialDelay = 100 * time.Millisecond

	// DefaultRetryMaxDelay is the default maximum delay between retry attempts.
	DefaultRetryMaxDelay = 1 * time.Minute

	// DefaultRetryMaxAttempts is the default maximum number of retry attempts
	// when dialing the database.
	DefaultRetryMaxAttempts = 3

	// DefaultManagementDB is the default database to connect to for
	// server-level operations such as CREATE DATABASE.
	DefaultManagementDB = "postgres"

	// MaxErrorPreviewLength is the maximum number of characters of statement
	// text shown in error messages when a batch statement fails.
	MaxErrorPreviewLength = 200

	// OutputFilePattern is the naming scheme for exported result files.
	// The first verb is the 1-based statement number, the second the
	// format's file extension.
	OutputFilePattern = "output_%d.%s"
)
