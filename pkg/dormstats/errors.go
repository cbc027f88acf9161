package dormstats

import (
	"errors"
	"strings"
)

// Sentinel errors for common failure scenarios.
// These enable callers to distinguish error types using errors.Is().
//
// Example usage:
//
//	err := pipeline.Run(ctx, args)
//	if errors.Is(err, dormstats.ErrExecutionFailed) {
//	    // A statement in the batch failed; remaining statements were skipped.
//	}
var (
	// ErrInvalidConfig indicates the provided configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrConnectionFailed indicates database connection failed.
	ErrConnectionFailed = errors.New("connection failed")

	// ErrExecutionFailed indicates SQL statement execution failed.
	ErrExecutionFailed = errors.New("execution failed")

	// ErrSchemaFailed indicates schema provisioning failed.
	ErrSchemaFailed = errors.New("schema provisioning failed")

	// ErrUnsupportedFormat indicates the requested export format is not supported.
	ErrUnsupportedFormat = errors.New("unsupported export format")

	// ErrSerialization indicates a result value could not be represented
	// in the requested output encoding.
	ErrSerialization = errors.New("serialization failed")
)

// ExitCodeForError returns the appropriate exit code for an error.
// Returns ExitSuccess (0) for nil errors, semantic codes for known errors,
// and ExitGeneralError (1) for unclassified errors.
func ExitCodeForError(err error) int {
	if err == nil {
		return ExitSuccess
	}

	// Check for sentinel errors
	switch {
	case errors.Is(err, ErrInvalidConfig):
		return ExitConfigError
	case errors.Is(err, ErrUnsupportedFormat):
		return ExitConfigError
	case errors.Is(err, ErrConnectionFailed):
		return ExitConnectionError
	case errors.Is(err, ErrExecutionFailed):
		return ExitExecutionFailed
	case errors.Is(err, ErrSchemaFailed):
		return ExitSchemaFailed
	case errors.Is(err, ErrSerialization):
		return ExitExportFailed
	}

	errStr := err.Error()

	// cobra reports flag and argument misuse as plain errors
	if strings.Contains(errStr, "unknown flag") ||
		strings.Contains(errStr, "unknown shorthand flag") ||
		strings.Contains(errStr, "unknown command") ||
		strings.Contains(errStr, "invalid argument") ||
		strings.Contains(errStr, "required flag") ||
		strings.Contains(errStr, "accepts ") {
		return ExitUsageError
	}

	// Check for common connection error patterns
	if strings.Contains(errStr, "failed to connect") ||
		strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "no such host") {
		return ExitConnectionError
	}

	return ExitGeneralError
}
