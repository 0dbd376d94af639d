package handlers

import (
	"net/http"
	"strconv"

	"github.com/gitport/gitport/internal/auth"
	"github.com/gitport/gitport/internal/models"
)

// repositoryResponse is a repository annotated with its latest migration.
type repositoryResponse struct {
	models.Repository
	LastMigration *models.Migration `json:"lastMigration,omitempty"`
}

// ListRepositories returns the user's connected repositories, most recently
// updated first, each with the latest migration that used it as a source.
func (h *Handler) ListRepositories(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := auth.GetUserIDFromContext(ctx)

	var platform models.Platform
	if raw := r.URL.Query().Get("platform"); raw != "" {
		parsed, ok := models.ParsePlatform(raw)
		if !ok {
			h.sendError(w, ErrInvalidField.WithField("platform").WithDetails("unknown platform: "+raw))
			return
		}
		platform = parsed
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	repos, err := h.db.ListRepositories(ctx, userID, platform, limit)
	if err != nil {
		h.sendDomainError(w, r, err)
		return
	}

	response := make([]repositoryResponse, 0, len(repos))
	for _, item := range repos {
		response = append(response, repositoryResponse{
			Repository:    item.Repository,
			LastMigration: item.LastMigration,
		})
	}

	h.sendJSON(w, http.StatusOK, map[string]any{
		"repositories": response,
	})
}

type connectRepositoryRequest struct {
	URL      string `json:"url"`
	Platform string `json:"platform,omitempty"`
}

// ConnectRepository upserts a repository from a raw URL. Re-connecting an
// equivalent URL updates the existing row instead of duplicating it.
func (h *Handler) ConnectRepository(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := auth.GetUserIDFromContext(ctx)

	var req connectRepositoryRequest
	if err := h.decodeJSON(r, &req); err != nil {
		h.sendError(w, ErrInvalidJSON)
		return
	}

	if req.URL == "" {
		h.sendError(w, ErrMissingField.WithField("url"))
		return
	}

	var platform models.Platform
	if req.Platform != "" {
		parsed, ok := models.ParsePlatform(req.Platform)
		if !ok {
			h.sendError(w, ErrInvalidField.WithField("platform").WithDetails("unknown platform: "+req.Platform))
			return
		}
		platform = parsed
	}

	repo, err := h.repos.Connect(ctx, userID, req.URL, platform)
	if err != nil {
		h.sendDomainError(w, r, err)
		return
	}

	h.sendJSON(w, http.StatusCreated, map[string]any{"repository": repo})
}
