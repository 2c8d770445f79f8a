package watermark

import "bytes"

// Graphics-state block handling for the text-pattern strategy. Removal
// is block-granular: a watermark run is usually wrapped in its own
// isolated q...Q save/restore region, and deleting the whole region
// also drops the positioning and clipping operators that belong only
// to the watermark.

// graphicsBlock is one balanced q...Q region, start inclusive, end exclusive.
type graphicsBlock struct {
	start, end int
}

func isStreamSpace(b byte) bool {
	switch b {
	case ' ', '\t', '\r', '\n', '\f', 0:
		return true
	}
	return false
}

// operatorAt reports whether content[i] is the single-letter operator op
// delimited by whitespace (or the buffer edge) on both sides.
func operatorAt(content []byte, i int, op byte) bool {
	if content[i] != op {
		return false
	}
	if i > 0 && !isStreamSpace(content[i-1]) {
		return false
	}
	if i+1 < len(content) && !isStreamSpace(content[i+1]) {
		return false
	}
	return true
}

// findGraphicsBlocks segments content into non-nested q...Q blocks:
// each q token pairs with the nearest following Q token. An unclosed q
// opens no block.
func findGraphicsBlocks(content []byte) []graphicsBlock {
	var blocks []graphicsBlock
	i := 0
	for i < len(content) {
		if !operatorAt(content, i, 'q') {
			i++
			continue
		}
		j := i + 1
		closed := false
		for ; j < len(content); j++ {
			if operatorAt(content, j, 'Q') {
				blocks = append(blocks, graphicsBlock{start: i, end: j + 1})
				i = j + 1
				closed = true
				break
			}
		}
		if !closed {
			i++
		}
	}
	return blocks
}

// stripBlocks deletes every q...Q block containing run as a literal
// substring and returns the rewritten stream plus the number of blocks
// removed. Bytes outside removed blocks are preserved exactly; when no
// block matches, content is returned unchanged with removed == 0 so the
// caller can skip the stream write.
func stripBlocks(content, run []byte) (out []byte, removed int) {
	blocks := findGraphicsBlocks(content)

	match := make([]graphicsBlock, 0, len(blocks))
	for _, b := range blocks {
		if bytes.Contains(content[b.start:b.end], run) {
			match = append(match, b)
		}
	}
	if len(match) == 0 {
		return content, 0
	}

	out = make([]byte, 0, len(content))
	prev := 0
	for _, b := range match {
		out = append(out, content[prev:b.start]...)
		prev = b.end
	}
	out = append(out, content[prev:]...)
	return out, len(match)
}
