package handlers

import (
	"net/http"
	"slices"

	"github.com/gitport/gitport/internal/auth"
	"github.com/gitport/gitport/internal/models"
)

var validThemes = []string{"light", "dark", "system"}

const maxConcurrentCap = 10

// GetSettings returns the authenticated user's settings.
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	userID := auth.GetUserIDFromContext(r.Context())

	settings, err := h.db.GetUserSettings(r.Context(), userID)
	if err != nil {
		h.sendDomainError(w, r, err)
		return
	}

	h.sendJSON(w, http.StatusOK, map[string]any{"settings": settings})
}

type updateSettingsRequest struct {
	Theme                     *string `json:"theme,omitempty"`
	Notifications             *bool   `json:"notifications,omitempty"`
	EmailNotifications        *bool   `json:"emailNotifications,omitempty"`
	AutoRetryFailedMigrations *bool   `json:"autoRetryFailedMigrations,omitempty"`
	MaxConcurrentMigrations   *int    `json:"maxConcurrentMigrations,omitempty"`
	DefaultMigrationType      *string `json:"defaultMigrationType,omitempty"`
}

// UpdateSettings applies a partial update to the user's settings. Absent
// fields keep their current values.
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := auth.GetUserIDFromContext(ctx)

	var req updateSettingsRequest
	if err := h.decodeJSON(r, &req); err != nil {
		h.sendError(w, ErrInvalidJSON)
		return
	}

	settings, err := h.db.GetUserSettings(ctx, userID)
	if err != nil {
		h.sendDomainError(w, r, err)
		return
	}

	if req.Theme != nil {
		if !slices.Contains(validThemes, *req.Theme) {
			h.sendError(w, ErrInvalidField.WithField("theme").WithDetails("unknown theme: "+*req.Theme))
			return
		}
		settings.Theme = *req.Theme
	}
	if req.Notifications != nil {
		settings.Notifications = *req.Notifications
	}
	if req.EmailNotifications != nil {
		settings.EmailNotifications = *req.EmailNotifications
	}
	if req.AutoRetryFailedMigrations != nil {
		settings.AutoRetryFailedMigrations = *req.AutoRetryFailedMigrations
	}
	if req.MaxConcurrentMigrations != nil {
		n := *req.MaxConcurrentMigrations
		if n < 1 || n > maxConcurrentCap {
			h.sendError(w, ErrInvalidField.WithField("maxConcurrentMigrations").WithDetails("must be between 1 and 10"))
			return
		}
		settings.MaxConcurrentMigrations = n
	}
	if req.DefaultMigrationType != nil {
		parsed, ok := models.ParseMigrationType(*req.DefaultMigrationType)
		if !ok {
			h.sendError(w, ErrInvalidField.WithField("defaultMigrationType").WithDetails("unknown migration type: "+*req.DefaultMigrationType))
			return
		}
		settings.DefaultMigrationType = parsed
	}

	if err := h.db.UpdateUserSettings(ctx, settings); err != nil {
		h.sendDomainError(w, r, err)
		return
	}

	h.sendJSON(w, http.StatusOK, map[string]any{"settings": settings})
}
