// Package evidence assembles the prioritized evidence bundle for one
// company from up to three sources: user-uploaded material (documents
// and reference links), the structured market-data backend, and the
// model-knowledge fallback.
//
// Source attempts are independent and non-fatal: a failing source yields
// fewer items at its priority level and is recorded in the bundle's
// availability map, but resolution always proceeds to the next source.
// The resolver guarantees a non-empty bundle; when every real source
// fails, a synthetic knowledge placeholder is inserted so downstream
// code never branches on an empty bundle.
package evidence
