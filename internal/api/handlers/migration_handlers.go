package handlers

import (
	"net/http"

	"github.com/gitport/gitport/internal/auth"
	"github.com/gitport/gitport/internal/models"
	"github.com/gitport/gitport/internal/services"
	"github.com/gitport/gitport/internal/storage"
)

// Pagination is the pagination block of list responses.
type Pagination struct {
	Total   int64 `json:"total"`
	Limit   int   `json:"limit"`
	Offset  int   `json:"offset"`
	HasMore bool  `json:"hasMore"`
}

// ListMigrations returns a filtered, paginated page of the user's
// migrations, newest-updated first.
func (h *Handler) ListMigrations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := auth.GetUserIDFromContext(ctx)

	var filter storage.MigrationFilter
	if raw := r.URL.Query().Get("status"); raw != "" {
		status, ok := models.ParseMigrationStatus(raw)
		if !ok {
			h.sendError(w, ErrInvalidField.WithField("status").WithDetails("unknown status: "+raw))
			return
		}
		filter.Status = status
	}
	if raw := r.URL.Query().Get("platform"); raw != "" {
		platform, ok := models.ParsePlatform(raw)
		if !ok {
			h.sendError(w, ErrInvalidField.WithField("platform").WithDetails("unknown platform: "+raw))
			return
		}
		filter.Platform = platform
	}

	limit, offset := parsePagination(r)

	migrations, total, err := h.db.ListMigrations(ctx, userID, filter, limit, offset)
	if err != nil {
		h.sendDomainError(w, r, err)
		return
	}

	h.sendJSON(w, http.StatusOK, map[string]any{
		"migrations": migrations,
		"pagination": Pagination{
			Total:   total,
			Limit:   limit,
			Offset:  offset,
			HasMore: int64(offset+limit) < total,
		},
	})
}

type createMigrationRequest struct {
	Title          string  `json:"title"`
	Description    *string `json:"description,omitempty"`
	SourceURL      string  `json:"sourceUrl"`
	TargetURL      *string `json:"targetUrl,omitempty"`
	SourcePlatform string  `json:"sourcePlatform"`
	TargetPlatform string  `json:"targetPlatform"`
	Type           string  `json:"type,omitempty"`
}

// CreateMigration registers a new migration intent in PENDING state.
func (h *Handler) CreateMigration(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := auth.GetUserIDFromContext(ctx)

	var req createMigrationRequest
	if err := h.decodeJSON(r, &req); err != nil {
		h.sendError(w, ErrInvalidJSON)
		return
	}

	if req.Title == "" {
		h.sendError(w, ErrMissingField.WithField("title"))
		return
	}
	if req.SourceURL == "" {
		h.sendError(w, ErrMissingField.WithField("sourceUrl"))
		return
	}

	sourcePlatform, ok := models.ParsePlatform(req.SourcePlatform)
	if !ok {
		h.sendError(w, ErrInvalidField.WithField("sourcePlatform").WithDetails("unknown platform: "+req.SourcePlatform))
		return
	}
	targetPlatform, ok := models.ParsePlatform(req.TargetPlatform)
	if !ok {
		h.sendError(w, ErrInvalidField.WithField("targetPlatform").WithDetails("unknown platform: "+req.TargetPlatform))
		return
	}

	var migrationType models.MigrationType
	if req.Type != "" {
		migrationType, ok = models.ParseMigrationType(req.Type)
		if !ok {
			h.sendError(w, ErrInvalidField.WithField("type").WithDetails("unknown migration type: "+req.Type))
			return
		}
	}

	m, err := h.migrations.Create(ctx, userID, services.CreateMigrationInput{
		Title:          req.Title,
		Description:    req.Description,
		SourceURL:      req.SourceURL,
		TargetURL:      req.TargetURL,
		SourcePlatform: sourcePlatform,
		TargetPlatform: targetPlatform,
		Type:           migrationType,
	})
	if err != nil {
		h.sendDomainError(w, r, err)
		return
	}

	h.sendJSON(w, http.StatusCreated, map[string]any{"migration": m})
}

// GetMigration returns one migration with its newest log entries. Another
// user's migration is indistinguishable from a missing one.
func (h *Handler) GetMigration(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := auth.GetUserIDFromContext(ctx)
	id := r.PathValue("id")

	m, err := h.db.GetMigration(ctx, userID, id)
	if err != nil {
		if mapDomainError(err) == ErrNotFound {
			h.sendError(w, ErrMigrationNotFound)
			return
		}
		h.sendDomainError(w, r, err)
		return
	}

	logs, err := h.db.ListRecentLogs(ctx, m.ID, migrationDetailLogLimit)
	if err != nil {
		h.sendDomainError(w, r, err)
		return
	}

	h.sendJSON(w, http.StatusOK, map[string]any{
		"migration": m,
		"logs":      logs,
	})
}
