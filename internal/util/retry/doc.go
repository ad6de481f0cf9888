// Package retry provides exponential backoff retry logic for transient failures.
//
// [WithExponentialBackoff] retries an operation with configurable max attempts,
// initial delay, and maximum delay. Callers classify errors either by wrapping
// them with [Fatal] or by supplying a [WithRetryIf] predicate. It is used for
// SSH connection establishment and for waiting on the container runtime.
package retry
