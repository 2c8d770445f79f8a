package watermark

import (
	"context"
	"fmt"

	"github.com/jonatw/pdf-watermark-remove/logger"
)

// imageStrategy removes image-based watermarks by their configured
// geometric signatures. It handles documents whose producer metadata
// carries one of the configured trigger substrings.
type imageStrategy struct {
	cfg *Config
}

func (s *imageStrategy) Name() string { return "image-signature" }

func (s *imageStrategy) CanHandle(doc Document) bool {
	producer := doc.Metadata().Producer
	ok := producerMatches(producer, s.cfg.ProducerTriggers)
	logger.Debug("image-signature strategy can handle", "ok", ok, "producer", producer)
	return ok
}

func (s *imageStrategy) Remove(ctx context.Context, doc Document, outPath string, progress *Progress) (bool, error) {
	progress.Report("opening", 0.1)

	total := doc.PageCount()
	if total == 0 {
		return false, fmt.Errorf("%s strategy: %w", s.Name(), ErrEmptyDocument)
	}
	logger.Debug("image-signature strategy started", "pages", total, true)

	progress.Report("finding watermark", 0.3)

	id, pages, err := s.findWatermark(doc, total)
	if err != nil {
		return false, fmt.Errorf("%s strategy: %w", s.Name(), err)
	}
	if id == "" {
		logger.Info("no watermark image matched", "scan_depth", s.scanDepth(total))
		return false, nil
	}

	progress.Report("removing", 0.5)

	for _, p := range pages {
		if err := doc.DeleteImage(p, id); err != nil {
			return false, fmt.Errorf("%s strategy: delete image %s on page %d: %w", s.Name(), id, p, err)
		}
		logger.Info("deleted watermark image", "id", id, "page", p)
	}

	progress.Report("saving", 0.8)

	if err := doc.Save(outPath, SaveOptions{Compact: true}); err != nil {
		return false, fmt.Errorf("%s strategy: save: %w", s.Name(), err)
	}
	logger.Info("saved processed document", "path", outPath)

	progress.Report("complete", 1.0)
	return true, nil
}

func (s *imageStrategy) scanDepth(total int) int {
	depth := s.cfg.ImageScanDepth
	if depth > total {
		depth = total
	}
	return depth
}

// findWatermark scans the first scanDepth pages for signature matches.
// With depth 1 this is a plain first-page lookup. With a deeper scan the
// identifier matched on the most pages wins (majority vote), which
// tolerates watermark images absent from page one; ties go to the
// identifier matched earliest. Returns the winning identifier and the
// pages it matched on, or "" when nothing matched.
func (s *imageStrategy) findWatermark(doc Document, total int) (string, []int, error) {
	votes := make(map[string][]int)
	var order []string

	for p := 0; p < s.scanDepth(total); p++ {
		images, err := doc.Images(p)
		if err != nil {
			return "", nil, fmt.Errorf("list images on page %d: %w", p, err)
		}
		logger.Debug("scanned page images", "page", p, "count", len(images))

		id, ok := MatchImage(images, s.cfg.Signatures)
		if !ok {
			continue
		}
		if _, seen := votes[id]; !seen {
			order = append(order, id)
		}
		votes[id] = append(votes[id], p)
	}

	winner := ""
	best := 0
	for _, id := range order {
		if len(votes[id]) > best {
			winner, best = id, len(votes[id])
		}
	}
	if winner == "" {
		return "", nil, nil
	}
	return winner, votes[winner], nil
}
