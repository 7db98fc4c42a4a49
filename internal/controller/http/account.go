package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vadim/artflow/internal/domain/account/entity"
	"github.com/vadim/artflow/internal/httpx/response"
)

// ConnectionStore defines the interface for platform connection lookups
type ConnectionStore interface {
	ListByUserID(ctx context.Context, userID string) ([]entity.Connection, error)
	Deactivate(ctx context.Context, id string) error
}

// AccountHandler handles HTTP requests for platform connections
type AccountHandler struct {
	connections ConnectionStore
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(c ConnectionStore) *AccountHandler {
	return &AccountHandler{connections: c}
}

// RegisterRoutes registers connection routes
func (h *AccountHandler) RegisterRoutes(r chi.Router) {
	r.Route("/connections", func(r chi.Router) {
		r.Get("/", h.List())
		r.Delete("/{id}", h.Disconnect())
	})
}

// List handles GET /connections?user_id=...
func (h *AccountHandler) List() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.URL.Query().Get("user_id")
		if userID == "" {
			response.BadRequest(w, "user_id is required")
			return
		}

		conns, err := h.connections.ListByUserID(r.Context(), userID)
		if err != nil {
			handleDomainError(w, err)
			return
		}

		response.OK(w, map[string]interface{}{"connections": conns})
	}
}

// Disconnect handles DELETE /connections/{id}
func (h *AccountHandler) Disconnect() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		if err := h.connections.Deactivate(r.Context(), id); err != nil {
			if errors.Is(err, entity.ErrConnectionNotFound) {
				response.NotFound(w, "connection not found")
				return
			}
			handleDomainError(w, err)
			return
		}

		response.NoContent(w)
	}
}
