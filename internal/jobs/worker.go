package jobs

import (
	"context"
	"time"

	"github.com/Arsalan80425/Flipkart-Review-Intelligence-System/internal/database"
	"github.com/Arsalan80425/Flipkart-Review-Intelligence-System/internal/scraper"
)

// StartWorker processes pending runs until ctx is done. Runs execute
// serially; each gets its own browser session.
func (m *Manager) StartWorker(ctx context.Context) {
	m.logger.Info("job worker started", "poll_interval", m.opts.PollInterval)

	ticker := time.NewTicker(m.opts.PollInterval)
	defer ticker.Stop()

	for {
		for m.processNext(ctx) {
		}

		select {
		case <-ctx.Done():
			m.logger.Info("job worker stopping")
			return
		case <-ticker.C:
		}
	}
}

// processNext claims and executes one run. It reports whether a run was
// claimed, so the caller can drain the queue before sleeping.
func (m *Manager) processNext(ctx context.Context) bool {
	if ctx.Err() != nil {
		return false
	}

	run, err := m.runs.ClaimNextPending(ctx)
	if err != nil {
		m.logger.Error("failed to claim run", "error", err)
		return false
	}
	if run == nil {
		return false
	}

	m.execute(ctx, run)
	return true
}

func (m *Manager) execute(ctx context.Context, run *database.Run) {
	// Storage updates must land even when shutdown cancels the scrape.
	storeCtx := context.WithoutCancel(ctx)

	if err := m.pacer.Wait(ctx); err != nil {
		m.fail(storeCtx, run, err)
		return
	}

	runCtx := ctx
	if m.opts.RunTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, m.opts.RunTimeout)
		defer cancel()
	}

	m.logger.Info("processing run", "id", run.ID, "url", run.ProductURL)
	start := time.Now()

	result, err := m.scraper.Scrape(runCtx, run.ProductURL)
	if err != nil {
		m.fail(storeCtx, run, err)
		return
	}

	if err := m.publisher.PublishRunCompleted(storeCtx, run.ID, result); err != nil {
		m.fail(storeCtx, run, err)
		return
	}

	m.logger.Info("run completed",
		"id", run.ID,
		"reviews", len(result.Reviews),
		"termination", result.Termination,
		"duration", time.Since(start))
}

func (m *Manager) fail(ctx context.Context, run *database.Run, runErr error) {
	level := m.logger.Warn
	if scraper.IsFatal(runErr) {
		level = m.logger.Error
	}
	level("run failed", "id", run.ID, "url", run.ProductURL, "error", runErr)

	if err := m.runs.Fail(ctx, run.ID, runErr); err != nil {
		m.logger.Error("failed to mark run as failed", "id", run.ID, "error", err)
	}
}
