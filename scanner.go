package watermark

import (
	"bytes"
)

// The pattern scanner walks a decoded content stream and collects
// candidate watermark runs into a FrequencyTable. Two historically
// distinct scan modes exist and both are preserved: they advance the
// cursor differently, and on ambiguous inputs that changes which run
// wins the frequency vote.

// ScanMode names one of the two scan behaviors.
type ScanMode string

const (
	// BracketMode matches self-terminating bracketed text runs and
	// advances past the whole matched run.
	BracketMode ScanMode = "bracket"
	// AnchorMode takes a fixed-length tail after every anchor
	// occurrence and advances past the anchor only.
	AnchorMode ScanMode = "anchor"
)

// bracketPair couples an opening marker with the terminator sequence
// that closes a text-drawing run of that form.
type bracketPair struct {
	open byte
	term []byte
}

// Text-show forms recognized in bracket mode: (...) Tj, <...> Tj, [...] TJ.
var bracketPairs = []bracketPair{
	{'(', []byte(") Tj")},
	{'<', []byte("> Tj")},
	{'[', []byte("] TJ")},
}

// ScanBrackets scans content for self-terminating bracketed text runs and
// records every run of at least minLen bytes (terminator included) into
// table. A terminator must begin within window bytes of its opening
// marker; otherwise the opener is skipped and the scan resumes one byte
// later. Once a run is matched the cursor jumps past its terminator, so
// matched bytes are never re-scanned and the worst case stays O(n*window).
//
// Empty input or zero matches leave the table untouched; that is a
// normal outcome, not an error.
func ScanBrackets(content []byte, window, minLen int, table *FrequencyTable) {
	i := 0
scan:
	for i < len(content) {
		for _, p := range bracketPairs {
			if content[i] != p.open {
				continue
			}
			limit := i + window + len(p.term)
			if limit > len(content) {
				limit = len(content)
			}
			rel := bytes.Index(content[i:limit], p.term)
			if rel < 0 || rel >= window {
				break
			}
			end := i + rel + len(p.term)
			run := content[i:end]
			if len(run) >= minLen {
				table.Add(run)
			}
			// Advance past the whole matched run, terminator included.
			i = end
			continue scan
		}
		i++
	}
}

// ScanAnchor scans content for exact occurrences of anchor and records
// the anchor plus the following tailLen bytes as a candidate run. The
// cursor advances past the anchor only, not past the tail, so adjacent
// matches may share tail bytes while differing by anchor position.
// That overlap is a deliberate carry-over from the historical heuristic
// and must stay: it affects which run wins the frequency vote.
// Anchors too close to the end of the buffer to carry a full tail are
// ignored.
func ScanAnchor(content, anchor []byte, tailLen int, table *FrequencyTable) {
	if len(anchor) == 0 {
		return
	}
	i := 0
	for {
		rel := bytes.Index(content[i:], anchor)
		if rel < 0 {
			return
		}
		j := i + rel
		if end := j + len(anchor) + tailLen; end <= len(content) {
			table.Add(content[j:end])
		}
		i = j + len(anchor)
	}
}
