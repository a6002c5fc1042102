// Package retry centralizes retry and backoff behavior for inference
// calls. It is the only place in the codebase that implements backoff:
// every call site shares identical semantics by going through a Policy
// with an injected error classifier.
//
// Retryable errors (rate limits, timeouts, connection resets) are retried
// with exponential backoff and jitter up to a bounded attempt count.
// Fatal errors (authentication, quota, malformed requests) propagate
// immediately without any delay.
package retry
