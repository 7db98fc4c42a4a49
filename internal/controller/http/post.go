package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vadim/artflow/internal/domain/post/entity"
	"github.com/vadim/artflow/internal/domain/post/service"
	"github.com/vadim/artflow/internal/httpx/response"
)

// PostService defines the interface for post operations
// Interface is defined by consumer (handler), not provider (service)
type PostService interface {
	CreatePost(ctx context.Context, in service.CreateInput) (*entity.Post, error)
	GetPost(ctx context.Context, id string) (*entity.Post, error)
	UpdatePost(ctx context.Context, in service.UpdateInput) (*entity.Post, error)
	DeletePost(ctx context.Context, id string) error
	ListPosts(ctx context.Context, in service.ListInput) (*service.ListOutput, error)
	SchedulePost(ctx context.Context, id string, scheduledFor time.Time, platforms []entity.Platform) (*entity.Post, error)
	SaveAsDraft(ctx context.Context, id string) (*entity.Post, error)
	GetStatistics(ctx context.Context, userID string) (*entity.PostStatistics, error)
	GetAttemptHistory(ctx context.Context, pubID string) ([]entity.DispatchAttempt, error)
}

// PostHandler handles HTTP requests for posts
type PostHandler struct {
	service PostService
}

// NewPostHandler creates a new post handler
func NewPostHandler(s PostService) *PostHandler {
	return &PostHandler{service: s}
}

// RegisterRoutes registers post routes
func (h *PostHandler) RegisterRoutes(r chi.Router) {
	r.Route("/posts", func(r chi.Router) {
		r.Post("/", h.Create())
		r.Get("/", h.List())
		r.Get("/statistics", h.Statistics())
		r.Get("/{id}", h.Get())
		r.Put("/{id}", h.Update())
		r.Delete("/{id}", h.Delete())
		r.Post("/{id}/schedule", h.Schedule())
		r.Post("/{id}/draft", h.SaveAsDraft())
	})
	r.Get("/publications/{id}/attempts", h.AttemptHistory())
}

// CreatePostRequest represents the request body for creating a post
type CreatePostRequest struct {
	UserID       string   `json:"user_id"`
	Title        string   `json:"title"`
	Content      string   `json:"content"`
	Media        []string `json:"media,omitempty"`
	Hashtags     []string `json:"hashtags,omitempty"`
	Platforms    []string `json:"platforms,omitempty"`
	ScheduledFor *string  `json:"scheduled_for,omitempty"` // RFC3339 format
}

// Create handles POST /posts
func (h *PostHandler) Create() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreatePostRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.BadRequest(w, "invalid JSON")
			return
		}

		if req.UserID == "" {
			response.BadRequest(w, "user_id is required")
			return
		}

		platforms, err := parsePlatforms(req.Platforms)
		if err != nil {
			response.BadRequest(w, err.Error())
			return
		}

		var scheduledFor *time.Time
		if req.ScheduledFor != nil && *req.ScheduledFor != "" {
			t, err := time.Parse(time.RFC3339, *req.ScheduledFor)
			if err != nil {
				response.BadRequest(w, "invalid scheduled_for format, use RFC3339")
				return
			}
			scheduledFor = &t
		}

		post, err := h.service.CreatePost(r.Context(), service.CreateInput{
			UserID:       req.UserID,
			Title:        req.Title,
			Content:      req.Content,
			Media:        req.Media,
			Hashtags:     req.Hashtags,
			Platforms:    platforms,
			ScheduledFor: scheduledFor,
		})
		if err != nil {
			handleDomainError(w, err)
			return
		}

		response.Created(w, post)
	}
}

// Get handles GET /posts/{id}
func (h *PostHandler) Get() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		post, err := h.service.GetPost(r.Context(), id)
		if err != nil {
			handleDomainError(w, err)
			return
		}

		response.OK(w, post)
	}
}

// UpdatePostRequest represents the request body for updating a post
type UpdatePostRequest struct {
	Title    *string  `json:"title,omitempty"`
	Content  *string  `json:"content,omitempty"`
	Media    []string `json:"media,omitempty"`
	Hashtags []string `json:"hashtags,omitempty"`
}

// Update handles PUT /posts/{id}
func (h *PostHandler) Update() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		var req UpdatePostRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.BadRequest(w, "invalid JSON")
			return
		}

		post, err := h.service.UpdatePost(r.Context(), service.UpdateInput{
			ID:       id,
			Title:    req.Title,
			Content:  req.Content,
			Media:    req.Media,
			Hashtags: req.Hashtags,
		})
		if err != nil {
			handleDomainError(w, err)
			return
		}

		response.OK(w, post)
	}
}

// Delete handles DELETE /posts/{id}
func (h *PostHandler) Delete() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		if err := h.service.DeletePost(r.Context(), id); err != nil {
			handleDomainError(w, err)
			return
		}

		response.NoContent(w)
	}
}

// ListPostsResponse represents the response for listing posts
type ListPostsResponse struct {
	Posts  []entity.Post `json:"posts"`
	Total  int64         `json:"total"`
	Limit  int           `json:"limit"`
	Offset int           `json:"offset"`
}

// List handles GET /posts
func (h *PostHandler) List() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		userID := q.Get("user_id")

		var status *entity.PostStatus
		if s := q.Get("status"); s != "" {
			ps := entity.PostStatus(s)
			if !ps.IsValid() {
				response.BadRequest(w, "invalid status")
				return
			}
			status = &ps
		}

		limit := 50
		offset := 0
		if l := q.Get("limit"); l != "" {
			li, err := strconv.Atoi(l)
			if err != nil || li < 1 {
				response.BadRequest(w, "invalid limit")
				return
			}
			if li > 100 {
				li = 100
			}
			limit = li
		}
		if o := q.Get("offset"); o != "" {
			oi, err := strconv.Atoi(o)
			if err != nil || oi < 0 {
				response.BadRequest(w, "invalid offset")
				return
			}
			offset = oi
		}

		out, err := h.service.ListPosts(r.Context(), service.ListInput{
			UserID: userID,
			Status: status,
			Limit:  limit,
			Offset: offset,
		})
		if err != nil {
			handleDomainError(w, err)
			return
		}

		response.OK(w, ListPostsResponse{
			Posts:  out.Posts,
			Total:  out.Total,
			Limit:  limit,
			Offset: offset,
		})
	}
}

// SchedulePostRequest represents the request body for scheduling a post
type SchedulePostRequest struct {
	ScheduledFor string   `json:"scheduled_for"` // RFC3339 format
	Platforms    []string `json:"platforms"`
}

// Schedule handles POST /posts/{id}/schedule
func (h *PostHandler) Schedule() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		var req SchedulePostRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.BadRequest(w, "invalid JSON")
			return
		}

		scheduledFor, err := time.Parse(time.RFC3339, req.ScheduledFor)
		if err != nil {
			response.BadRequest(w, "invalid scheduled_for format, use RFC3339")
			return
		}

		platforms, err := parsePlatforms(req.Platforms)
		if err != nil {
			response.BadRequest(w, err.Error())
			return
		}

		post, err := h.service.SchedulePost(r.Context(), id, scheduledFor, platforms)
		if err != nil {
			handleDomainError(w, err)
			return
		}

		response.OK(w, post)
	}
}

// SaveAsDraft handles POST /posts/{id}/draft
func (h *PostHandler) SaveAsDraft() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		post, err := h.service.SaveAsDraft(r.Context(), id)
		if err != nil {
			handleDomainError(w, err)
			return
		}

		response.OK(w, post)
	}
}

// Statistics handles GET /posts/statistics
func (h *PostHandler) Statistics() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.URL.Query().Get("user_id")
		if userID == "" {
			response.BadRequest(w, "user_id is required")
			return
		}

		stats, err := h.service.GetStatistics(r.Context(), userID)
		if err != nil {
			handleDomainError(w, err)
			return
		}

		response.OK(w, stats)
	}
}

// AttemptHistory handles GET /publications/{id}/attempts
func (h *PostHandler) AttemptHistory() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		attempts, err := h.service.GetAttemptHistory(r.Context(), id)
		if err != nil {
			handleDomainError(w, err)
			return
		}

		response.OK(w, map[string]interface{}{"attempts": attempts})
	}
}

func parsePlatforms(raw []string) ([]entity.Platform, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	platforms := make([]entity.Platform, len(raw))
	for i, p := range raw {
		parsed, err := entity.ParsePlatform(p)
		if err != nil {
			return nil, err
		}
		platforms[i] = parsed
	}
	return platforms, nil
}

// handleDomainError maps domain errors to HTTP status codes
func handleDomainError(w http.ResponseWriter, err error) {
	var transition *entity.TransitionError
	switch {
	case errors.Is(err, entity.ErrNotFound):
		response.NotFound(w, "post not found")
	case errors.Is(err, entity.ErrConflict):
		response.Conflict(w, err.Error())
	case errors.As(err, &transition), errors.Is(err, entity.ErrPostNotEditable):
		response.Conflict(w, err.Error())
	case errors.Is(err, entity.ErrEmptyUserID),
		errors.Is(err, entity.ErrEmptyTitle),
		errors.Is(err, entity.ErrContentTooLong),
		errors.Is(err, entity.ErrScheduledTimeInPast),
		errors.Is(err, entity.ErrMissingSchedule),
		errors.Is(err, entity.ErrNoPlatforms),
		errors.Is(err, entity.ErrInvalidPlatform),
		errors.Is(err, entity.ErrDuplicatePlatform):
		response.BadRequest(w, err.Error())
	case errors.Is(err, entity.ErrStoreUnavailable):
		response.ServiceUnavailable(w, "store temporarily unavailable")
	default:
		response.InternalError(w, "internal server error")
	}
}
