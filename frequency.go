package watermark

// FrequencyTable counts candidate byte runs by exact byte equality.
// It remembers first-seen order so that ties in MostFrequent resolve
// deterministically to the run encountered earliest during the scan.
// A table is built fresh per detection pass and never persisted.
type FrequencyTable struct {
	counts map[string]int
	order  []string
}

// NewFrequencyTable returns an empty table.
func NewFrequencyTable() *FrequencyTable {
	return &FrequencyTable{counts: make(map[string]int)}
}

// Add records one occurrence of run.
func (t *FrequencyTable) Add(run []byte) {
	key := string(run)
	if _, seen := t.counts[key]; !seen {
		t.order = append(t.order, key)
	}
	t.counts[key]++
}

// Merge folds other into t, summing counts. Runs new to t keep the
// first-seen position they get during the merge. Used to combine
// per-page partial tables after a parallel scan phase.
func (t *FrequencyTable) Merge(other *FrequencyTable) {
	for _, key := range other.order {
		if _, seen := t.counts[key]; !seen {
			t.order = append(t.order, key)
		}
		t.counts[key] += other.counts[key]
	}
}

// Len returns the number of distinct runs recorded.
func (t *FrequencyTable) Len() int {
	return len(t.counts)
}

// MostFrequent returns the run with the highest count. Ties go to the
// run seen first. ok is false when the table is empty, which callers
// treat as "no watermark detected", not as a failure.
func (t *FrequencyTable) MostFrequent() (run []byte, count int, ok bool) {
	best := ""
	for _, key := range t.order {
		if t.counts[key] > count {
			best, count = key, t.counts[key]
		}
	}
	if count == 0 {
		return nil, 0, false
	}
	return []byte(best), count, true
}

// Top returns up to n entries ordered by descending count, first-seen
// order breaking ties. Used for candidate logging during detection.
func (t *FrequencyTable) Top(n int) []FrequencyEntry {
	entries := make([]FrequencyEntry, 0, len(t.order))
	for _, key := range t.order {
		entries = append(entries, FrequencyEntry{Run: []byte(key), Count: t.counts[key]})
	}
	// insertion sort keeps the first-seen tie-break stable
	for i := 1; i < len(entries); i++ {
		for j := i; j > 0 && entries[j].Count > entries[j-1].Count; j-- {
			entries[j], entries[j-1] = entries[j-1], entries[j]
		}
	}
	if n < len(entries) {
		entries = entries[:n]
	}
	return entries
}

// FrequencyEntry is one run with its occurrence count.
type FrequencyEntry struct {
	Run   []byte
	Count int
}
