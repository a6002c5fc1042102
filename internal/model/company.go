package model

import (
	"errors"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/width"
)

// ErrEmptyCompanyID is returned when the company identifier is empty or
// whitespace only. This fails the run before any I/O is attempted.
var ErrEmptyCompanyID = errors.New("empty company identifier")

// Company identifies one analysis target.
type Company struct {
	// Name is the company display name, e.g. "Ping An Bank" or "平安银行".
	Name string `json:"name"`

	// Code is the market code used for structured data lookups, e.g.
	// "000001.SZ". Empty when the user supplied only a name; the
	// structured source is then skipped and the run degrades.
	Code string `json:"code,omitempty"`
}

// ParseCompanyID parses a raw company identifier into name and code.
//
// Accepted forms, matching how analysts write targets:
//
//	"Ping An Bank, 000001.SZ"  (comma-separated name and market code)
//	"ACME/001"                 (slash-separated name and market code)
//	"Ping An Bank"             (name only, no structured lookup)
//
// Full-width characters in the code are folded to their narrow form so
// that codes pasted from CJK documents (e.g. "６０００１９") validate the
// same as ASCII input.
func ParseCompanyID(id string) (Company, error) {
	trimmed := strings.TrimSpace(id)
	if trimmed == "" {
		return Company{}, ErrEmptyCompanyID
	}

	var name, code string
	switch {
	case strings.Contains(trimmed, ","):
		parts := strings.SplitN(trimmed, ",", 2)
		name, code = parts[0], parts[1]
	case strings.Contains(trimmed, "/"):
		parts := strings.SplitN(trimmed, "/", 2)
		name, code = parts[0], parts[1]
	default:
		name = trimmed
	}

	name = strings.TrimSpace(name)
	code = NormalizeCode(code)
	if name == "" {
		return Company{}, ErrEmptyCompanyID
	}

	return Company{Name: name, Code: code}, nil
}

// NormalizeCode folds full-width characters to narrow form, trims
// whitespace, and upper-cases the market suffix ("000001.sz" →
// "000001.SZ").
func NormalizeCode(code string) string {
	folded := width.Fold.String(strings.TrimSpace(code))
	return strings.ToUpper(folded)
}

// DisplayName returns the company name formatted for report headers.
// ASCII names are title-cased; names containing CJK or other non-ASCII
// characters are returned unchanged because casing does not apply.
func (c Company) DisplayName() string {
	for _, r := range c.Name {
		if r > 127 {
			return c.Name
		}
	}
	return cases.Title(language.English).String(c.Name)
}

// ID returns the canonical identifier: "Name, Code" when a code is
// present, otherwise just the name.
func (c Company) ID() string {
	if c.Code == "" {
		return c.Name
	}
	return c.Name + ", " + c.Code
}
