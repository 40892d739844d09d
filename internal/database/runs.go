package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Arsalan80425/Flipkart-Review-Intelligence-System/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type RunStatus string

const (
	RunStatusPending   RunStatus = "pending"
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

var ErrRunNotFound = errors.New("scrape run not found")

// Run is one requested scrape and, once finished, its product summary.
type Run struct {
	ID           uuid.UUID            `json:"id"`
	ProductURL   string               `json:"product_url"`
	Status       RunStatus            `json:"status"`
	Product      models.ProductRecord `json:"product"`
	Termination  models.Termination   `json:"termination,omitempty"`
	PagesFetched int                  `json:"pages_fetched"`
	ReviewCount  int                  `json:"review_count"`
	Error        *string              `json:"error,omitempty"`
	CreatedAt    time.Time            `json:"created_at"`
	StartedAt    *time.Time           `json:"started_at,omitempty"`
	FinishedAt   *time.Time           `json:"finished_at,omitempty"`
}

// RunRepository persists scrape runs and their reviews.
type RunRepository struct {
	db     *DB
	outbox *OutboxRepository
}

func NewRunRepository(db *DB) *RunRepository {
	return &RunRepository{db: db, outbox: NewOutboxRepository(db)}
}

const runColumns = `
	id, product_url, status, title, price, rating, total_ratings, total_reviews,
	termination, pages_fetched, review_count, error_message,
	created_at, started_at, finished_at`

// Create inserts a pending run for productURL.
func (r *RunRepository) Create(ctx context.Context, productURL string) (*Run, error) {
	run := &Run{
		ID:         uuid.New(),
		ProductURL: productURL,
		Status:     RunStatusPending,
		CreatedAt:  time.Now(),
	}

	_, err := r.db.pool.Exec(ctx, `
		INSERT INTO scrape_run (id, product_url, status, created_at)
		VALUES ($1, $2, $3, $4)`,
		run.ID, run.ProductURL, run.Status, run.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}

	return run, nil
}

// ClaimNextPending marks the oldest pending run as running and returns it.
// It returns nil when nothing is pending. Concurrent workers never claim
// the same run.
func (r *RunRepository) ClaimNextPending(ctx context.Context) (*Run, error) {
	query := `
		UPDATE scrape_run
		SET status = $1, started_at = NOW()
		WHERE id = (
			SELECT id FROM scrape_run
			WHERE status = $2
			ORDER BY created_at ASC
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING` + runColumns

	run, err := scanRun(r.db.pool.QueryRow(ctx, query, RunStatusRunning, RunStatusPending))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to claim run: %w", err)
	}
	return run, nil
}

// Complete stores the result of a run and queues events in the same
// transaction, so a run is never completed without its events.
func (r *RunRepository) Complete(ctx context.Context, runID uuid.UUID, result *models.Result, events ...*OutboxEvent) error {
	return r.db.Transaction(ctx, func(tx pgx.Tx) error {
		p := result.Product
		tag, err := tx.Exec(ctx, `
			UPDATE scrape_run
			SET status = $1, title = $2, price = $3, rating = $4,
				total_ratings = $5, total_reviews = $6, termination = $7,
				pages_fetched = $8, review_count = $9, error_message = NULL,
				finished_at = NOW()
			WHERE id = $10`,
			RunStatusCompleted, p.Title.Ptr(), p.Price.Ptr(), p.Rating.Ptr(),
			p.TotalRatings.Ptr(), p.TotalReviews.Ptr(), string(result.Termination),
			result.PagesFetched, len(result.Reviews), runID)
		if err != nil {
			return fmt.Errorf("failed to update run: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}

		rows := make([][]any, len(result.Reviews))
		for i, review := range result.Reviews {
			rows[i] = []any{runID, i, review.Rating, review.Title, review.Content, review.Key()}
		}
		_, err = tx.CopyFrom(ctx,
			pgx.Identifier{"scrape_review"},
			[]string{"run_id", "position", "rating", "title", "content", "identity_key"},
			pgx.CopyFromRows(rows))
		if err != nil {
			return fmt.Errorf("failed to insert reviews: %w", err)
		}

		for _, event := range events {
			if err := r.outbox.InsertWithTx(ctx, tx, event); err != nil {
				return err
			}
		}
		return nil
	})
}

// Fail records why a run produced no result.
func (r *RunRepository) Fail(ctx context.Context, runID uuid.UUID, runErr error) error {
	tag, err := r.db.pool.Exec(ctx, `
		UPDATE scrape_run
		SET status = $1, error_message = $2, finished_at = NOW()
		WHERE id = $3`,
		RunStatusFailed, runErr.Error(), runID)
	if err != nil {
		return fmt.Errorf("failed to mark run as failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return nil
}

func (r *RunRepository) Get(ctx context.Context, runID uuid.UUID) (*Run, error) {
	run, err := scanRun(r.db.pool.QueryRow(ctx, `SELECT`+runColumns+` FROM scrape_run WHERE id = $1`, runID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// List returns the most recent runs first.
func (r *RunRepository) List(ctx context.Context, limit int) ([]*Run, error) {
	rows, err := r.db.pool.Query(ctx,
		`SELECT`+runColumns+` FROM scrape_run ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	runs := []*Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return runs, nil
}

// Reviews returns a run's reviews in their original order. A positive
// rating keeps only reviews with that star value.
func (r *RunRepository) Reviews(ctx context.Context, runID uuid.UUID, rating int) ([]models.ReviewRecord, error) {
	query := `SELECT rating, title, content FROM scrape_review WHERE run_id = $1`
	args := []any{runID}
	if rating > 0 {
		query += ` AND rating = $2`
		args = append(args, fmt.Sprint(rating))
	}
	query += ` ORDER BY position ASC`

	rows, err := r.db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get reviews: %w", err)
	}
	defer rows.Close()

	reviews := []models.ReviewRecord{}
	for rows.Next() {
		var review models.ReviewRecord
		if err := rows.Scan(&review.Rating, &review.Title, &review.Content); err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		reviews = append(reviews, review)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return reviews, nil
}

func scanRun(row pgx.Row) (*Run, error) {
	var (
		run                                          Run
		title, price, rating, totalRatings, totalRev *string
		termination                                  string
	)
	err := row.Scan(
		&run.ID, &run.ProductURL, &run.Status,
		&title, &price, &rating, &totalRatings, &totalRev,
		&termination, &run.PagesFetched, &run.ReviewCount, &run.Error,
		&run.CreatedAt, &run.StartedAt, &run.FinishedAt,
	)
	if err != nil {
		return nil, err
	}

	run.Termination = models.Termination(termination)
	run.Product = models.ProductRecord{
		Title:        models.FieldFromPtr(title),
		Price:        models.FieldFromPtr(price),
		Rating:       models.FieldFromPtr(rating),
		TotalRatings: models.FieldFromPtr(totalRatings),
		TotalReviews: models.FieldFromPtr(totalRev),
	}
	return &run, nil
}
