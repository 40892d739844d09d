package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/Arsalan80425/Flipkart-Review-Intelligence-System/internal/database"
	"github.com/Arsalan80425/Flipkart-Review-Intelligence-System/internal/models"
	"github.com/google/uuid"
)

type EventType string

const (
	// EventTypeReviewsScraped is published when a scrape run completes.
	EventTypeReviewsScraped EventType = "REVIEWS_SCRAPED"

	aggregateType = "scrape_run"
	source        = "review-scraper"
)

// ReviewsScrapedPayload is what downstream analysis consumers receive. The
// reviews themselves stay in the database; consumers fetch them by run id.
type ReviewsScrapedPayload struct {
	EventID      string               `json:"event_id"`
	EventType    string               `json:"event_type"`
	Timestamp    time.Time            `json:"timestamp"`
	RunID        string               `json:"run_id"`
	ProductURL   string               `json:"product_url"`
	Product      models.ProductRecord `json:"product"`
	ReviewCount  int                  `json:"review_count"`
	StarCounts   map[int]int          `json:"star_counts"`
	Termination  models.Termination   `json:"termination"`
	PagesFetched int                  `json:"pages_fetched"`
	Source       string               `json:"source"`
}

// RunCompleter stores a finished run together with its outbox events.
type RunCompleter interface {
	Complete(ctx context.Context, runID uuid.UUID, result *models.Result, events ...*database.OutboxEvent) error
}

// Publisher completes runs through the transactional outbox, so the
// REVIEWS_SCRAPED event exists if and only if the run's reviews do.
type Publisher struct {
	runs   RunCompleter
	stream string
	logger *slog.Logger
}

func NewPublisher(runs RunCompleter, stream string, logger *slog.Logger) *Publisher {
	if stream == "" {
		stream = database.DefaultStream
	}
	return &Publisher{
		runs:   runs,
		stream: stream,
		logger: logger.With("component", "event_publisher"),
	}
}

// NewReviewsScrapedPayload summarises result for stream consumers.
func NewReviewsScrapedPayload(runID uuid.UUID, result *models.Result) *ReviewsScrapedPayload {
	stars := make(map[int]int)
	for _, r := range result.Reviews {
		stars[r.Stars()]++
	}
	return &ReviewsScrapedPayload{
		EventID:      uuid.New().String(),
		EventType:    string(EventTypeReviewsScraped),
		Timestamp:    time.Now(),
		RunID:        runID.String(),
		ProductURL:   result.ProductURL,
		Product:      result.Product,
		ReviewCount:  len(result.Reviews),
		StarCounts:   stars,
		Termination:  result.Termination,
		PagesFetched: result.PagesFetched,
		Source:       source,
	}
}

// PublishRunCompleted stores result for runID and queues its event in one
// transaction.
func (p *Publisher) PublishRunCompleted(ctx context.Context, runID uuid.UUID, result *models.Result) error {
	payload := NewReviewsScrapedPayload(runID, result)

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	outboxEvent := &database.OutboxEvent{
		AggregateType: aggregateType,
		AggregateID:   payload.RunID,
		EventType:     payload.EventType,
		Payload:       data,
		TargetStream:  p.stream,
	}

	if err := p.runs.Complete(ctx, runID, result, outboxEvent); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	p.logger.Info("event published to outbox",
		"type", payload.EventType,
		"event_id", payload.EventID,
		"run_id", payload.RunID,
		"reviews", payload.ReviewCount,
		"outbox_id", outboxEvent.ID,
	)

	return nil
}
