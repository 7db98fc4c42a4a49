package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vadim/artflow/internal/domain/analytics/entity"
	"github.com/vadim/artflow/internal/httpx/response"
)

// AnalyticsService defines the interface for analytics operations
type AnalyticsService interface {
	AggregateDay(ctx context.Context, day time.Time) (int, error)
	GetUserAnalytics(ctx context.Context, userID string, days int) ([]entity.Rollup, error)
}

// AnalyticsHandler handles HTTP requests for analytics
type AnalyticsHandler struct {
	service AnalyticsService
}

// NewAnalyticsHandler creates a new analytics handler
func NewAnalyticsHandler(s AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{service: s}
}

// RegisterRoutes registers analytics routes
func (h *AnalyticsHandler) RegisterRoutes(r chi.Router) {
	r.Route("/analytics", func(r chi.Router) {
		r.Get("/", h.GetUserAnalytics())
		r.Post("/aggregate", h.Aggregate())
	})
}

// GetUserAnalytics handles GET /analytics?user_id=...&days=30
func (h *AnalyticsHandler) GetUserAnalytics() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		userID := q.Get("user_id")
		if userID == "" {
			response.BadRequest(w, "user_id is required")
			return
		}

		days := 30
		if d := q.Get("days"); d != "" {
			di, err := strconv.Atoi(d)
			if err != nil || di < 1 {
				response.BadRequest(w, "invalid days")
				return
			}
			if di > 365 {
				di = 365
			}
			days = di
		}

		rollups, err := h.service.GetUserAnalytics(r.Context(), userID, days)
		if err != nil {
			handleDomainError(w, err)
			return
		}

		response.OK(w, map[string]interface{}{"rollups": rollups})
	}
}

// AggregateRequest represents the request body for a manual rollup run
type AggregateRequest struct {
	Date string `json:"date"` // YYYY-MM-DD
}

// Aggregate handles POST /analytics/aggregate
func (h *AnalyticsHandler) Aggregate() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AggregateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.BadRequest(w, "invalid JSON")
			return
		}

		day, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			response.BadRequest(w, "invalid date format, use YYYY-MM-DD")
			return
		}

		count, err := h.service.AggregateDay(r.Context(), day)
		if err != nil {
			handleDomainError(w, err)
			return
		}

		response.OK(w, map[string]interface{}{
			"date":    req.Date,
			"rollups": count,
		})
	}
}
