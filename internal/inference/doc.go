// Package inference defines the inference capability consumed by the
// analysis engine: a Client that maps one task specification plus its
// evidence projection to findings text, and a machine-readable error
// taxonomy so callers can tell transient failures from fatal ones.
//
// The concrete backend is an external collaborator. This package ships a
// REST client for a Gemini-style generateContent endpoint, but the
// engine depends only on the Client interface, so tests and alternative
// backends plug in without touching orchestration code.
package inference
