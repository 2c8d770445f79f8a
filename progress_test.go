package watermark

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgress_ReportAndSlice(t *testing.T) {
	ch := make(chan Event, 8)
	p := NewProgress(ch)

	p.Report("start", 0)
	p.Slice(0.1, 0.4).Report("analyzing", 0.5)
	p.Slice(0.4, 0.9).Slice(0.0, 0.5).Report("nested", 1.0)
	p.Report("done", 1)
	close(ch)

	var events []Event
	for ev := range ch {
		events = append(events, ev)
	}
	require.Len(t, events, 4)
	assert.Equal(t, Event{Status: "start", Fraction: 0}, events[0])
	assert.InDelta(t, 0.25, events[1].Fraction, 1e-9)
	assert.InDelta(t, 0.65, events[2].Fraction, 1e-9)
	assert.Equal(t, Event{Status: "done", Fraction: 1}, events[3])
}

func TestProgress_NilSinkIsSafe(t *testing.T) {
	var p *Progress
	assert.NotPanics(t, func() {
		p.Report("status", 0.5)
		p.Slice(0.1, 0.9).Report("sliced", 1.0)
	})
	assert.NotPanics(t, func() {
		NewProgress(nil).Report("status", 0.5)
	})
}

func TestProgress_FullChannelNeverBlocks(t *testing.T) {
	ch := make(chan Event, 1)
	p := NewProgress(ch)

	// Second and third sends overflow the buffer; a host that stops
	// draining must not stall the engine.
	p.Report("one", 0.1)
	p.Report("two", 0.2)
	p.Report("three", 0.3)

	ev := <-ch
	assert.Equal(t, "one", ev.Status)
	assert.Empty(t, ch)
}
