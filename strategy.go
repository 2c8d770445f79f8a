package watermark

import (
	"context"
	"encoding/hex"
	"strings"
)

// Strategy is one watermark removal technique. Exactly two exist: the
// image-signature strategy and the text-pattern strategy. Both run
// detection to completion before mutating any page, and both treat
// "nothing found" as a false outcome rather than an error.
type Strategy interface {
	// Name identifies the strategy in logs and wrapped errors.
	Name() string

	// CanHandle reports whether the strategy applies to the document.
	CanHandle(doc Document) bool

	// Remove runs detection and removal, persisting the rewritten
	// document to outPath on success. The boolean is true iff at least
	// one watermark instance was found and stripped.
	Remove(ctx context.Context, doc Document, outPath string, progress *Progress) (bool, error)
}

// producerMatches reports whether any trigger is a literal substring of
// the producer metadata string.
func producerMatches(producer string, triggers []string) bool {
	for _, t := range triggers {
		if t != "" && strings.Contains(producer, t) {
			return true
		}
	}
	return false
}

// displayRun renders a detected byte run for logging: plain text when
// printable, hex otherwise. Matching always operates on the raw bytes;
// this form is cosmetic only.
func displayRun(run []byte) string {
	for _, b := range run {
		if b >= 0x20 && b < 0x7f {
			continue
		}
		switch b {
		case '\t', '\r', '\n':
			continue
		}
		return hex.EncodeToString(run)
	}
	return string(run)
}
