package watermark

import (
	"context"
	"fmt"

	"golang.org/x/sync/semaphore"

	"github.com/jonatw/pdf-watermark-remove/logger"
)

// Remover is the engine entry point. It selects exactly one removal
// strategy per document and runs it to completion. A Remover holds no
// mutable state beyond its concurrency limiter, so one instance may
// process independent documents in parallel.
type Remover struct {
	cfg   *Config
	sem   *semaphore.Weighted
	image Strategy
	text  Strategy
}

// NewRemover validates the config and creates a new Remover.
func NewRemover(cfg *Config) *Remover {
	if err := cfg.Validate(); err != nil {
		panic(err)
	}

	if cfg.Logger != nil {
		logger.SetLogger(cfg.Logger)
	}

	logger.Debug(fmt.Sprintf("remover initialized: signatures=%d triggers=%v max_page_workers=%d image_scan_depth=%d",
		len(cfg.Signatures), cfg.ProducerTriggers, cfg.MaxPageWorkers, cfg.ImageScanDepth), true)

	return &Remover{
		cfg:   cfg,
		sem:   semaphore.NewWeighted(int64(cfg.MaxConcurrentDocs)),
		image: &imageStrategy{cfg: cfg},
		text:  &textStrategy{cfg: cfg},
	}
}

// selectStrategy routes a document by its producer metadata: a trigger
// hit picks the image-signature strategy, anything else falls through to
// the text-pattern strategy, which accepts every document.
func (r *Remover) selectStrategy(doc Document) Strategy {
	if r.image.CanHandle(doc) {
		logger.Info("selected strategy", "strategy", r.image.Name())
		return r.image
	}
	logger.Info("selected strategy", "strategy", r.text.Name())
	return r.text
}

// Remove detects and removes a watermark from one open document,
// persisting the rewritten document to outPath. The boolean outcome is
// true iff at least one watermark instance was found and stripped;
// "nothing detected" is a false outcome, never an error. Progress events
// are pushed into events (may be nil) and are fire-and-forget.
func (r *Remover) Remove(ctx context.Context, doc Document, outPath string, events chan<- Event) (bool, error) {
	if err := r.acquireSlot(ctx); err != nil {
		return false, err
	}
	defer r.sem.Release(1)

	strat := r.selectStrategy(doc)
	return strat.Remove(ctx, doc, outPath, NewProgress(events))
}

// RemoveFile opens inPath through the collaborator, runs Remove, and
// closes the document afterwards.
func (r *Remover) RemoveFile(ctx context.Context, opener Opener, inPath, outPath string, events chan<- Event) (bool, error) {
	logger.Debug("starting removal", "path", inPath, true)

	doc, err := opener.Open(inPath)
	if err != nil {
		logger.Error("failed to open document", "path", inPath, "err", err)
		return false, err
	}
	defer func() {
		if cerr := doc.Close(); cerr != nil {
			logger.Error("failed to close document", "path", inPath, "err", cerr)
		}
	}()

	outcome, err := r.Remove(ctx, doc, outPath, events)
	logger.Debug("removal completed", "path", inPath, "outcome", outcome, "err", err, true)
	return outcome, err
}

func (r *Remover) acquireSlot(ctx context.Context) error {
	if err := r.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("acquire slot: %w", err)
	}
	logger.Debug("slot acquired successfully", true)
	return nil
}
