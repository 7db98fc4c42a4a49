package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vadim/artflow/internal/domain/template/entity"
	"github.com/vadim/artflow/internal/httpx/response"
)

// TemplateService defines the interface for content library operations
type TemplateService interface {
	CreateTemplate(ctx context.Context, tmpl *entity.Template) (*entity.Template, error)
	GetTemplate(ctx context.Context, id string) (*entity.Template, error)
	UpdateTemplate(ctx context.Context, tmpl *entity.Template) (*entity.Template, error)
	DeleteTemplate(ctx context.Context, id string) error
	ListTemplates(ctx context.Context, userID string) ([]entity.Template, error)
	UseTemplate(ctx context.Context, id string) (*entity.Template, error)
	CreateHashtagGroup(ctx context.Context, group *entity.HashtagGroup) (*entity.HashtagGroup, error)
	DeleteHashtagGroup(ctx context.Context, id string) error
	ListHashtagGroups(ctx context.Context, userID string) ([]entity.HashtagGroup, error)
}

// TemplateHandler handles HTTP requests for the content library
type TemplateHandler struct {
	service TemplateService
}

// NewTemplateHandler creates a new template handler
func NewTemplateHandler(s TemplateService) *TemplateHandler {
	return &TemplateHandler{service: s}
}

// RegisterRoutes registers content library routes
func (h *TemplateHandler) RegisterRoutes(r chi.Router) {
	r.Route("/templates", func(r chi.Router) {
		r.Post("/", h.Create())
		r.Get("/", h.List())
		r.Get("/{id}", h.Get())
		r.Put("/{id}", h.Update())
		r.Delete("/{id}", h.Delete())
		r.Post("/{id}/use", h.Use())
	})
	r.Route("/hashtag-groups", func(r chi.Router) {
		r.Post("/", h.CreateGroup())
		r.Get("/", h.ListGroups())
		r.Delete("/{id}", h.DeleteGroup())
	})
}

// TemplateRequest represents the request body for creating or updating a template
type TemplateRequest struct {
	UserID    string   `json:"user_id"`
	Name      string   `json:"name"`
	Content   string   `json:"content"`
	Hashtags  []string `json:"hashtags,omitempty"`
	Platforms []string `json:"platforms,omitempty"`
	Category  string   `json:"category,omitempty"`
}

// Create handles POST /templates
func (h *TemplateHandler) Create() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req TemplateRequest
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

		now := time.Now()
		tmpl, err := h.service.CreateTemplate(r.Context(), &entity.Template{
			UserID:    req.UserID,
			Name:      req.Name,
			Content:   req.Content,
			Hashtags:  req.Hashtags,
			Platforms: platforms,
			Category:  req.Category,
			CreatedAt: now,
			UpdatedAt: now,
		})
		if err != nil {
			handleTemplateError(w, err)
			return
		}

		response.Created(w, tmpl)
	}
}

// Get handles GET /templates/{id}
func (h *TemplateHandler) Get() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tmpl, err := h.service.GetTemplate(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			handleTemplateError(w, err)
			return
		}
		response.OK(w, tmpl)
	}
}

// Update handles PUT /templates/{id}
func (h *TemplateHandler) Update() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		var req TemplateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.BadRequest(w, "invalid JSON")
			return
		}

		existing, err := h.service.GetTemplate(r.Context(), id)
		if err != nil {
			handleTemplateError(w, err)
			return
		}

		platforms, err := parsePlatforms(req.Platforms)
		if err != nil {
			response.BadRequest(w, err.Error())
			return
		}

		existing.Name = req.Name
		existing.Content = req.Content
		existing.Hashtags = req.Hashtags
		existing.Platforms = platforms
		existing.Category = req.Category
		existing.UpdatedAt = time.Now()

		tmpl, err := h.service.UpdateTemplate(r.Context(), existing)
		if err != nil {
			handleTemplateError(w, err)
			return
		}

		response.OK(w, tmpl)
	}
}

// Delete handles DELETE /templates/{id}
func (h *TemplateHandler) Delete() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h.service.DeleteTemplate(r.Context(), chi.URLParam(r, "id")); err != nil {
			handleTemplateError(w, err)
			return
		}
		response.NoContent(w)
	}
}

// List handles GET /templates?user_id=...
func (h *TemplateHandler) List() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.URL.Query().Get("user_id")
		if userID == "" {
			response.BadRequest(w, "user_id is required")
			return
		}

		templates, err := h.service.ListTemplates(r.Context(), userID)
		if err != nil {
			handleTemplateError(w, err)
			return
		}

		response.OK(w, map[string]interface{}{"templates": templates})
	}
}

// Use handles POST /templates/{id}/use
func (h *TemplateHandler) Use() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tmpl, err := h.service.UseTemplate(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			handleTemplateError(w, err)
			return
		}
		response.OK(w, tmpl)
	}
}

// HashtagGroupRequest represents the request body for creating a hashtag group
type HashtagGroupRequest struct {
	UserID    string   `json:"user_id"`
	Name      string   `json:"name"`
	Hashtags  []string `json:"hashtags"`
	Category  string   `json:"category,omitempty"`
	IsDefault bool     `json:"is_default,omitempty"`
}

// CreateGroup handles POST /hashtag-groups
func (h *TemplateHandler) CreateGroup() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req HashtagGroupRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.BadRequest(w, "invalid JSON")
			return
		}
		if req.UserID == "" {
			response.BadRequest(w, "user_id is required")
			return
		}

		now := time.Now()
		group, err := h.service.CreateHashtagGroup(r.Context(), &entity.HashtagGroup{
			UserID:    req.UserID,
			Name:      req.Name,
			Hashtags:  req.Hashtags,
			Category:  req.Category,
			IsDefault: req.IsDefault,
			CreatedAt: now,
			UpdatedAt: now,
		})
		if err != nil {
			handleTemplateError(w, err)
			return
		}

		response.Created(w, group)
	}
}

// ListGroups handles GET /hashtag-groups?user_id=...
func (h *TemplateHandler) ListGroups() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.URL.Query().Get("user_id")
		if userID == "" {
			response.BadRequest(w, "user_id is required")
			return
		}

		groups, err := h.service.ListHashtagGroups(r.Context(), userID)
		if err != nil {
			handleTemplateError(w, err)
			return
		}

		response.OK(w, map[string]interface{}{"hashtag_groups": groups})
	}
}

// DeleteGroup handles DELETE /hashtag-groups/{id}
func (h *TemplateHandler) DeleteGroup() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h.service.DeleteHashtagGroup(r.Context(), chi.URLParam(r, "id")); err != nil {
			handleTemplateError(w, err)
			return
		}
		response.NoContent(w)
	}
}

// handleTemplateError maps content library errors to HTTP status codes
func handleTemplateError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, entity.ErrTemplateNotFound), errors.Is(err, entity.ErrGroupNotFound):
		response.NotFound(w, err.Error())
	case errors.Is(err, entity.ErrEmptyName),
		errors.Is(err, entity.ErrEmptyContent),
		errors.Is(err, entity.ErrNameTooLong),
		errors.Is(err, entity.ErrContentTooLong),
		errors.Is(err, entity.ErrNoHashtags):
		response.BadRequest(w, err.Error())
	default:
		handleDomainError(w, err)
	}
}
