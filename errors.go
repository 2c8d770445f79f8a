package watermark

import (
	"errors"
	"fmt"
)

// Sentinel errors for the failure taxonomy. "No watermark found" is
// deliberately not among them: detection coming up empty is a normal
// outcome and is reported as a false RemovalOutcome, never as an error.
var (
	// ErrInvalidDocument marks unreadable or corrupt input. Fatal, no retry.
	ErrInvalidDocument = errors.New("invalid document")

	// ErrEmptyDocument marks a document with zero pages. Fatal.
	ErrEmptyDocument = errors.New("document has no pages")

	// ErrWrite marks a persistence failure. Fatal, propagated to the caller.
	ErrWrite = errors.New("write failed")
)

// RewriteError records a single page's content-stream rewrite failure.
// Rewrite failures are collected across pages and surfaced together;
// one page failing never aborts its siblings.
type RewriteError struct {
	Page int
	Err  error
}

func (e *RewriteError) Error() string {
	return fmt.Sprintf("page %d: stream rewrite failed: %v", e.Page, e.Err)
}

func (e *RewriteError) Unwrap() error { return e.Err }
