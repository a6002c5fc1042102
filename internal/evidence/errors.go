package evidence

import "errors"

// Evidence source errors.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances at each failure site. This allows the
// resolver and tests to use errors.Is() while the wrapped message still
// carries source-specific detail.
var (
	// ErrSourceUnavailable is returned when an evidence source cannot be
	// reached at all (missing credential, network failure). Non-fatal:
	// the resolver records the gap and continues with other sources.
	ErrSourceUnavailable = errors.New("evidence source unavailable")

	// ErrNoDocuments is returned by the file source when none of the
	// configured document paths could be read.
	ErrNoDocuments = errors.New("no readable documents")

	// ErrNoCode is returned by the structured source when the company
	// has no market code to query by.
	ErrNoCode = errors.New("no market code for structured lookup")
)
