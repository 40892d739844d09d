package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Arsalan80425/Flipkart-Review-Intelligence-System/internal/database"
	"github.com/Arsalan80425/Flipkart-Review-Intelligence-System/internal/models"
	"github.com/Arsalan80425/Flipkart-Review-Intelligence-System/internal/scraper"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500

	pendingWarnThreshold   = 1000
	deadLetterErrThreshold = 100
)

// RunService is the subset of the job manager the handlers use.
type RunService interface {
	Submit(ctx context.Context, productURL string) (*database.Run, error)
	Get(ctx context.Context, runID uuid.UUID) (*database.Run, error)
	List(ctx context.Context, limit int) ([]*database.Run, error)
	Reviews(ctx context.Context, runID uuid.UUID, rating int) ([]models.ReviewRecord, error)
}

// OutboxStats reports relay backlog for the health check.
type OutboxStats interface {
	PendingCount(ctx context.Context) (int64, error)
	DeadLetterCount(ctx context.Context) (int64, error)
}

type Handlers struct {
	runs   RunService
	outbox OutboxStats
	logger *slog.Logger
}

func NewHandlers(runs RunService, outbox OutboxStats, logger *slog.Logger) *Handlers {
	return &Handlers{
		runs:   runs,
		outbox: outbox,
		logger: logger.With("component", "api"),
	}
}

// CreateScrapeRequest represents a new scrape request
type CreateScrapeRequest struct {
	URL string `json:"url"`
}

// CreateScrapeResponse represents the scrape creation response
type CreateScrapeResponse struct {
	RunID   string `json:"run_id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// ReviewsResponse lists the accepted reviews of one run.
type ReviewsResponse struct {
	RunID   string                `json:"run_id"`
	Rating  int                   `json:"rating,omitempty"`
	Count   int                   `json:"count"`
	Reviews []models.ReviewRecord `json:"reviews"`
}

// CreateScrape queues a scrape run
func (h *Handlers) CreateScrape(w http.ResponseWriter, r *http.Request) {
	var req CreateScrapeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.URL == "" {
		h.respondError(w, http.StatusBadRequest, "url is required")
		return
	}

	run, err := h.runs.Submit(r.Context(), req.URL)
	if err != nil {
		if errors.Is(err, scraper.ErrInvalidURL) {
			h.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("failed to create scrape", "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to create scrape")
		return
	}

	h.respondJSON(w, http.StatusAccepted, CreateScrapeResponse{
		RunID:   run.ID.String(),
		Status:  string(run.Status),
		Message: "Scrape queued",
	})
}

// GetScrape returns one run with its product record
func (h *Handlers) GetScrape(w http.ResponseWriter, r *http.Request) {
	runID, ok := h.runID(w, r)
	if !ok {
		return
	}

	run, err := h.runs.Get(r.Context(), runID)
	if err != nil {
		h.respondLookupError(w, err, "failed to get scrape")
		return
	}

	h.respondJSON(w, http.StatusOK, run)
}

// ListScrapes returns the most recent runs
func (h *Handlers) ListScrapes(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			h.respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxListLimit)
	}

	runs, err := h.runs.List(r.Context(), limit)
	if err != nil {
		h.logger.Error("failed to list scrapes", "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to list scrapes")
		return
	}
	if runs == nil {
		runs = []*database.Run{}
	}

	h.respondJSON(w, http.StatusOK, runs)
}

// GetScrapeReviews returns a run's reviews in acceptance order. An
// optional rating parameter keeps only reviews with that star value.
func (h *Handlers) GetScrapeReviews(w http.ResponseWriter, r *http.Request) {
	runID, ok := h.runID(w, r)
	if !ok {
		return
	}

	rating := 0
	if raw := r.URL.Query().Get("rating"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 5 {
			h.respondError(w, http.StatusBadRequest, "rating must be between 1 and 5")
			return
		}
		rating = n
	}

	reviews, err := h.runs.Reviews(r.Context(), runID, rating)
	if err != nil {
		h.respondLookupError(w, err, "failed to get reviews")
		return
	}
	if reviews == nil {
		reviews = []models.ReviewRecord{}
	}

	h.respondJSON(w, http.StatusOK, ReviewsResponse{
		RunID:   runID.String(),
		Rating:  rating,
		Count:   len(reviews),
		Reviews: reviews,
	})
}

// Health reports service status together with the outbox backlog.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	health := map[string]any{"status": "ok"}
	status := http.StatusOK

	if h.outbox != nil {
		pendingCount, pendingErr := h.outbox.PendingCount(r.Context())
		deadLetterCount, deadErr := h.outbox.DeadLetterCount(r.Context())

		health["outbox"] = map[string]any{
			"pending":     pendingCount,
			"dead_letter": deadLetterCount,
		}

		switch {
		case pendingErr != nil || deadErr != nil:
			health["status"] = "error"
			health["message"] = "Outbox unavailable"
			status = http.StatusServiceUnavailable
		case deadLetterCount > deadLetterErrThreshold:
			health["status"] = "error"
			health["message"] = "High number of dead letter events"
			status = http.StatusServiceUnavailable
		case pendingCount > pendingWarnThreshold:
			health["status"] = "warning"
			health["message"] = "High number of pending outbox events"
		}
	}

	h.respondJSON(w, status, health)
}

func (h *Handlers) runID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "runID"))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid run ID")
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handlers) respondLookupError(w http.ResponseWriter, err error, message string) {
	if errors.Is(err, database.ErrRunNotFound) {
		h.respondError(w, http.StatusNotFound, "scrape not found")
		return
	}
	h.logger.Error(message, "error", err)
	h.respondError(w, http.StatusInternalServerError, message)
}

// Helper methods
func (h *Handlers) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handlers) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}
