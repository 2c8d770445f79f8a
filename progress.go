package watermark

// Event is one progress update pushed by a strategy. Fraction is in
// [0,1] and non-decreasing over one document's processing lifetime.
// The documented fractions per phase are contract, not cosmetic:
// hosts may render a progress bar against them.
type Event struct {
	Status   string  `json:"status"`
	Fraction float64 `json:"fraction"`
}

// Progress is a one-way sink for Events. Sends are fire-and-forget:
// a host that stops draining its channel loses events but never blocks
// the engine. A nil *Progress discards everything, so strategies report
// unconditionally.
type Progress struct {
	ch       chan<- Event
	lo, span float64
}

// NewProgress wraps a host-supplied channel. ch may be nil.
func NewProgress(ch chan<- Event) *Progress {
	return &Progress{ch: ch, lo: 0, span: 1}
}

// Report pushes one event, mapping fraction through this sink's
// sub-range of [0,1].
func (p *Progress) Report(status string, fraction float64) {
	if p == nil || p.ch == nil {
		return
	}
	select {
	case p.ch <- Event{Status: status, Fraction: p.lo + fraction*p.span}:
	default:
	}
}

// Slice returns a view of the sink that owns the contiguous sub-range
// [lo,hi] of this sink's range. Phases report in [0,1] against their
// own slice and compose into a document-wide monotonic fraction.
func (p *Progress) Slice(lo, hi float64) *Progress {
	if p == nil {
		return nil
	}
	return &Progress{ch: p.ch, lo: p.lo + lo*p.span, span: (hi - lo) * p.span}
}
