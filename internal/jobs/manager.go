package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Arsalan80425/Flipkart-Review-Intelligence-System/internal/database"
	"github.com/Arsalan80425/Flipkart-Review-Intelligence-System/internal/models"
	"github.com/Arsalan80425/Flipkart-Review-Intelligence-System/internal/ratelimit"
	"github.com/Arsalan80425/Flipkart-Review-Intelligence-System/internal/scraper"
	"github.com/google/uuid"
)

// Scraper runs one complete scrape.
type Scraper interface {
	Scrape(ctx context.Context, productURL string) (*models.Result, error)
}

// RunStore persists runs.
type RunStore interface {
	Create(ctx context.Context, productURL string) (*database.Run, error)
	ClaimNextPending(ctx context.Context) (*database.Run, error)
	Fail(ctx context.Context, runID uuid.UUID, runErr error) error
	Get(ctx context.Context, runID uuid.UUID) (*database.Run, error)
	List(ctx context.Context, limit int) ([]*database.Run, error)
	Reviews(ctx context.Context, runID uuid.UUID, rating int) ([]models.ReviewRecord, error)
}

// ResultPublisher stores a finished run and announces it.
type ResultPublisher interface {
	PublishRunCompleted(ctx context.Context, runID uuid.UUID, result *models.Result) error
}

type Options struct {
	PollInterval time.Duration
	RunTimeout   time.Duration
	RunDelayMin  time.Duration
	RunDelayMax  time.Duration
}

// Manager queues scrape runs and executes them one at a time.
type Manager struct {
	runs      RunStore
	scraper   Scraper
	publisher ResultPublisher
	pacer     ratelimit.RateLimiter
	opts      Options
	logger    *slog.Logger
}

func NewManager(runs RunStore, s Scraper, publisher ResultPublisher, opts Options, logger *slog.Logger) *Manager {
	if opts.PollInterval <= 0 {
		opts.PollInterval = 2 * time.Second
	}
	return &Manager{
		runs:      runs,
		scraper:   s,
		publisher: publisher,
		pacer:     ratelimit.NewSimpleRateLimiter(opts.RunDelayMin, opts.RunDelayMax),
		opts:      opts,
		logger:    logger.With("component", "job_manager"),
	}
}

// Submit queues a scrape of productURL.
func (m *Manager) Submit(ctx context.Context, productURL string) (*database.Run, error) {
	if err := scraper.ValidateURL(productURL); err != nil {
		return nil, err
	}

	run, err := m.runs.Create(ctx, productURL)
	if err != nil {
		return nil, fmt.Errorf("failed to submit run: %w", err)
	}

	m.logger.Info("run submitted", "id", run.ID, "url", productURL)
	return run, nil
}

func (m *Manager) Get(ctx context.Context, runID uuid.UUID) (*database.Run, error) {
	return m.runs.Get(ctx, runID)
}

func (m *Manager) List(ctx context.Context, limit int) ([]*database.Run, error) {
	return m.runs.List(ctx, limit)
}

func (m *Manager) Reviews(ctx context.Context, runID uuid.UUID, rating int) ([]models.ReviewRecord, error) {
	if _, err := m.runs.Get(ctx, runID); err != nil {
		return nil, err
	}
	return m.runs.Reviews(ctx, runID, rating)
}
