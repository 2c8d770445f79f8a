package watermark

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanBrackets_Forms(t *testing.T) {
	long := strings.Repeat("A", 40)

	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{
			name:    "paren Tj run",
			content: "BT (" + long + ") Tj ET",
			want:    []string{"(" + long + ") Tj"},
		},
		{
			name:    "hex Tj run",
			content: "<" + long + "> Tj",
			want:    []string{"<" + long + "> Tj"},
		},
		{
			name:    "array TJ run",
			content: "[" + long + "] TJ",
			want:    []string{"[" + long + "] TJ"},
		},
		{
			name:    "empty input",
			content: "",
			want:    nil,
		},
		{
			name:    "no qualifying runs",
			content: "0 0 m 100 100 l S",
			want:    nil,
		},
		{
			name:    "run below minimum length skipped",
			content: "(short) Tj (" + long + ") Tj",
			want:    []string{"(" + long + ") Tj"},
		},
		{
			name:    "mixed forms in one stream",
			content: "(" + long + ") Tj junk [" + long + "] TJ",
			want:    []string{"(" + long + ") Tj", "[" + long + "] TJ"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table := NewFrequencyTable()
			ScanBrackets([]byte(tt.content), 300, 30, table)

			var got []string
			for _, e := range table.Top(len(tt.want) + 5) {
				got = append(got, string(e.Run))
			}
			assert.ElementsMatch(t, tt.want, got)
		})
	}
}

func TestScanBrackets_WindowBound(t *testing.T) {
	// Terminator exists but starts beyond the lookahead window.
	content := "(" + strings.Repeat("B", 50) + ") Tj"
	table := NewFrequencyTable()
	ScanBrackets([]byte(content), 20, 5, table)
	assert.Equal(t, 0, table.Len())

	// Same run with a window wide enough to reach the terminator.
	table = NewFrequencyTable()
	ScanBrackets([]byte(content), 300, 5, table)
	assert.Equal(t, 1, table.Len())
}

func TestScanBrackets_AdvancesPastTerminator(t *testing.T) {
	// The terminator bytes of the first run must not be re-scanned as
	// part of a second candidate.
	long := strings.Repeat("C", 40)
	content := "(" + long + ") Tj(" + long + ") Tj"
	table := NewFrequencyTable()
	ScanBrackets([]byte(content), 300, 30, table)

	run, count, ok := table.MostFrequent()
	require.True(t, ok)
	assert.Equal(t, "("+long+") Tj", string(run))
	assert.Equal(t, 2, count)
}

func TestScanBrackets_CountsRepeats(t *testing.T) {
	long := strings.Repeat("D", 40)
	run := "(" + long + ") Tj"
	content := strings.Repeat(run+" other ", 3)
	table := NewFrequencyTable()
	ScanBrackets([]byte(content), 300, 30, table)

	got, count, ok := table.MostFrequent()
	require.True(t, ok)
	assert.Equal(t, run, string(got))
	assert.Equal(t, 3, count)
}

func TestScanAnchor_OverlappingWindows(t *testing.T) {
	// Two anchors six bytes apart with a shared tail region: the cursor
	// advances past the anchor only, so both candidates are recorded
	// even though their windows overlap.
	content := []byte("((ABCDEFGHIJ")
	table := NewFrequencyTable()
	ScanAnchor(content, []byte("("), 8, table)

	entries := table.Top(10)
	require.Len(t, entries, 2)
	assert.Equal(t, "((ABCDEFG", string(entries[0].Run))
	assert.Equal(t, "(ABCDEFGH", string(entries[1].Run))
}

func TestScanAnchor_TailPastEnd(t *testing.T) {
	// An anchor too close to the end to carry a full tail yields nothing.
	table := NewFrequencyTable()
	ScanAnchor([]byte("xx(yy"), []byte("("), 10, table)
	assert.Equal(t, 0, table.Len())
}

func TestScanAnchor_EmptyAnchor(t *testing.T) {
	table := NewFrequencyTable()
	ScanAnchor(bytes.Repeat([]byte("z"), 50), nil, 10, table)
	assert.Equal(t, 0, table.Len())
}
