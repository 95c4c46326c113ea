// Package pager implements the page-level rewrite engine that underlies
// sqlitescrub: parsing a B-tree page, walking its cells (including payload
// overflow chains), zeroing deleted content, renumbering pages densely in
// the destination, and reconstituting the schema catalog's root-page
// references.
//
// The on-disk format handled here is the well-known single-file B-tree
// database format; byte layouts match sqlite3's file format exactly.
package pager

import "fmt"

// Kind identifies the category of a sticky error. Each maps onto the
// corresponding SQLite result code the original C utility returned.
type Kind int

const (
	// KindNone means no error has been recorded yet.
	KindNone Kind = iota
	// KindOutOfMemory mirrors SQLITE_NOMEM.
	KindOutOfMemory
	// KindIO mirrors SQLITE_IOERR: a read or write failed at a given page.
	KindIO
	// KindCorrupt mirrors SQLITE_CORRUPT: a structural invariant was
	// violated at a given page, tagged with a location to aid debugging.
	KindCorrupt
	// KindInternal mirrors a generic SQLITE_ERROR: destination page number
	// out of range, a file handle unavailable, or similar host-bug.
	KindInternal
	// KindSQL mirrors a failure surfaced by the embedded SQL engine.
	KindSQL
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "ok"
	case KindOutOfMemory:
		return "out of memory"
	case KindIO:
		return "I/O error"
	case KindCorrupt:
		return "corrupt"
	case KindInternal:
		return "internal error"
	case KindSQL:
		return "SQL error"
	default:
		return "unknown error"
	}
}

// Failure is one recorded error: a kind, the page it happened on (0 if not
// page-specific), a short location tag for corruption diagnostics, and the
// underlying message.
type Failure struct {
	Kind Kind
	Page uint32
	Loc  string
	Msg  string
}

func (f *Failure) Error() string {
	if f == nil {
		return ""
	}
	switch {
	case f.Page != 0 && f.Loc != "":
		return fmt.Sprintf("%s: page %d (%s): %s", f.Kind, f.Page, f.Loc, f.Msg)
	case f.Page != 0:
		return fmt.Sprintf("%s: page %d: %s", f.Kind, f.Page, f.Msg)
	default:
		return fmt.Sprintf("%s: %s", f.Kind, f.Msg)
	}
}

// ErrorChannel is a sticky, first-error-wins error slot. Once set, every
// later Fail/Failf call is ignored and Err keeps returning the first
// failure, so callers can short-circuit a deep recursive walk without
// threading an error return through every call site.
type ErrorChannel struct {
	failure *Failure
}

// Ok reports whether no error has been recorded yet.
func (c *ErrorChannel) Ok() bool { return c.failure == nil }

// Err returns the sticky failure, or nil if none has been recorded.
func (c *ErrorChannel) Err() error {
	if c.failure == nil {
		return nil
	}
	return c.failure
}

// Failure returns the recorded *Failure, or nil.
func (c *ErrorChannel) Failure() *Failure { return c.failure }

// Fail records f as the sticky failure if none is set yet.
func (c *ErrorChannel) Fail(kind Kind, page uint32, loc, msg string) {
	if c.failure != nil {
		return
	}
	c.failure = &Failure{Kind: kind, Page: page, Loc: loc, Msg: msg}
}

// Failf is Fail with a formatted message.
func (c *ErrorChannel) Failf(kind Kind, page uint32, loc, format string, args ...any) {
	c.Fail(kind, page, loc, fmt.Sprintf(format, args...))
}

// Corrupt is shorthand for recording a structural-invariant violation.
func (c *ErrorChannel) Corrupt(page uint32, loc string) {
	c.Fail(KindCorrupt, page, loc, "malformed page content")
}
