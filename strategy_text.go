package watermark

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jonatw/pdf-watermark-remove/logger"
)

// textStrategy removes text-based watermarks: a frequency scan over all
// content streams finds the most repeated bracketed text run, then every
// q...Q graphics block containing that run is deleted. It is the
// universal fallback and accepts any document.
type textStrategy struct {
	cfg *Config
}

func (s *textStrategy) Name() string { return "text-pattern" }

func (s *textStrategy) CanHandle(doc Document) bool { return true }

func (s *textStrategy) Remove(ctx context.Context, doc Document, outPath string, progress *Progress) (bool, error) {
	progress.Report("opening", 0.05)

	total := doc.PageCount()
	if total == 0 {
		return false, fmt.Errorf("%s strategy: %w", s.Name(), ErrEmptyDocument)
	}
	logger.Debug("text-pattern strategy started", "pages", total, true)

	progress.Report("analyzing document", 0.1)

	// Detection runs to completion over every page before any removal
	// mutates a stream; it must never observe partially rewritten content.
	table, err := s.scanDocument(doc, total, progress.Slice(0.1, 0.4))
	if err != nil {
		return false, fmt.Errorf("%s strategy: %w", s.Name(), err)
	}

	run, freq, ok := table.MostFrequent()
	if !ok {
		logger.Info("no watermark pattern detected")
		return false, nil
	}
	for _, e := range table.Top(5) {
		logger.Debug("pattern candidate", "run", displayRun(e.Run), "count", e.Count)
	}
	logger.Info("detected watermark pattern", "run", displayRun(run), "frequency", freq)

	progress.Report("removing watermark", 0.4)

	removed, err := s.rewritePages(ctx, doc, total, run, progress.Slice(0.4, 0.9))
	if err != nil {
		return false, fmt.Errorf("%s strategy: %w", s.Name(), err)
	}
	if removed == 0 {
		logger.Info("pattern found outside any graphics block, nothing removed",
			"run", displayRun(run))
		return false, nil
	}
	logger.Info("removed watermark blocks", "blocks", removed)

	progress.Report("saving document", 0.9)

	if err := doc.Save(outPath, SaveOptions{Compact: true, Recompress: true}); err != nil {
		return false, fmt.Errorf("%s strategy: save: %w", s.Name(), err)
	}
	logger.Info("saved processed document", "path", outPath)

	progress.Report("complete", 1.0)
	return true, nil
}

// scanDocument builds one document-wide frequency table from every
// content stream of every page. Pages are scanned sequentially; each
// page's scan is read-only and independent, so the merge-by-sum shape
// keeps the pass safe to parallelize later.
func (s *textStrategy) scanDocument(doc Document, total int, progress *Progress) (*FrequencyTable, error) {
	table := NewFrequencyTable()
	for p := 0; p < total; p++ {
		progress.Report(fmt.Sprintf("analyzing page %d/%d", p+1, total), float64(p)/float64(total))

		page := NewFrequencyTable()
		if err := s.scanPage(doc, p, page); err != nil {
			return nil, err
		}
		table.Merge(page)
	}
	return table, nil
}

func (s *textStrategy) scanPage(doc Document, page int, table *FrequencyTable) error {
	ids, err := doc.StreamIDs(page)
	if err != nil {
		return fmt.Errorf("list streams on page %d: %w", page, err)
	}
	for _, id := range ids {
		content, err := doc.ReadStream(page, id)
		if err != nil {
			return fmt.Errorf("read stream %d on page %d: %w", id, page, err)
		}
		switch s.cfg.ScanMode {
		case AnchorMode:
			ScanAnchor(content, []byte(s.cfg.AnchorPattern), s.cfg.AnchorTailLength, table)
		default:
			ScanBrackets(content, s.cfg.SearchWindow, s.cfg.MinPatternLength, table)
		}
	}
	return nil
}

type pageRewrite struct {
	page    int
	removed int
	err     error
}

// rewritePages strips the winning run's blocks from every page through a
// bounded worker pool. Each page touches only its own streams, so pages
// carry no data dependency on each other. The pool joins on every page
// task; a failing page is recorded and surfaced together with any other
// failures after the join, never cancelling its siblings.
func (s *textStrategy) rewritePages(ctx context.Context, doc Document, total int, run []byte, progress *Progress) (int, error) {
	numWorkers := s.cfg.MaxPageWorkers
	if numWorkers > total {
		numWorkers = total
	}
	logger.Debug("starting page rewrite workers", "count", numWorkers, true)

	jobs, results := make(chan int, total), make(chan pageRewrite, total)

	var wg sync.WaitGroup
	for w := 1; w <= numWorkers; w++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for p := range jobs {
				removed, err := s.rewritePage(doc, p, run)
				results <- pageRewrite{page: p, removed: removed, err: err}
				if err != nil {
					logger.Debug("worker: page rewrite error", "worker_id", id, "page", p, "err", err, true)
				}
			}
		}(w)
	}

	for p := 0; p < total; p++ {
		select {
		case <-ctx.Done():
			// Stop feeding; workers drain what was queued and the join
			// below still waits for them.
			close(jobs)
			wg.Wait()
			close(results)
			return 0, ctx.Err()
		case jobs <- p:
		}
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	totalRemoved := 0
	done := 0
	var pageErrs []error
	for res := range results {
		done++
		progress.Report(fmt.Sprintf("processing page %d/%d", done, total), float64(done)/float64(total))
		if res.err != nil {
			pageErrs = append(pageErrs, &RewriteError{Page: res.page, Err: res.err})
			continue
		}
		totalRemoved += res.removed
	}
	if len(pageErrs) > 0 {
		return 0, errors.Join(pageErrs...)
	}
	return totalRemoved, nil
}

// rewritePage deletes matching blocks from every content stream of one
// page, writing a stream back only when at least one block was removed.
func (s *textStrategy) rewritePage(doc Document, page int, run []byte) (int, error) {
	ids, err := doc.StreamIDs(page)
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, id := range ids {
		content, err := doc.ReadStream(page, id)
		if err != nil {
			return removed, err
		}
		out, n := stripBlocks(content, run)
		if n == 0 {
			continue
		}
		if err := doc.WriteStream(page, id, out); err != nil {
			return removed, err
		}
		removed += n
	}
	return removed, nil
}
