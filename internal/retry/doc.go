// Package retry implements bounded retry with exponential backoff for
// transient database failures.
//
// The package separates three concerns:
//   - classifying an error as transient or fatal (Classifier)
//   - computing the delay before the next attempt (ExponentialBackoff)
//   - driving the attempt loop with context cancellation (Executor)
//
// Only the initial dial of a connection is retried; statement execution
// failures are never retried (the first failure terminates the batch).
package retry
