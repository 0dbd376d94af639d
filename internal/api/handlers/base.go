// Package handlers contains the HTTP handlers behind the JSON API.
package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gitport/gitport/internal/auth"
	"github.com/gitport/gitport/internal/services"
	"github.com/gitport/gitport/internal/storage"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100

	// migrationDetailLogLimit bounds the log slice on the detail view.
	migrationDetailLogLimit = 50
)

// Handler contains all HTTP handlers
type Handler struct {
	db         storage.DataStore // Uses interface for testability (storage.Database implements this)
	migrations *services.MigrationService
	repos      *services.RepositoryService
	jwtManager *auth.JWTManager
	logger     *slog.Logger
}

// NewHandler creates a new Handler instance
func NewHandler(db storage.DataStore, migrations *services.MigrationService, repos *services.RepositoryService, jwtManager *auth.JWTManager, logger *slog.Logger) *Handler {
	return &Handler{
		db:         db,
		migrations: migrations,
		repos:      repos,
		jwtManager: jwtManager,
		logger:     logger,
	}
}

// Health handles health check requests
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.sendJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

// sendJSON sends a JSON response
func (h *Handler) sendJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode JSON response", "error", err)
	}
}

// sendError sends a structured error response
func (h *Handler) sendError(w http.ResponseWriter, apiErr APIError) {
	h.sendJSON(w, apiErr.StatusCode(), apiErr)
}

// sendDomainError maps a service/storage error and sends it. Unexpected
// errors are logged server-side and surfaced as a generic 500.
func (h *Handler) sendDomainError(w http.ResponseWriter, r *http.Request, err error) {
	apiErr := mapDomainError(err)
	if apiErr.StatusCode() == http.StatusInternalServerError {
		h.logger.Error("request failed", "error", err, "path", r.URL.Path, "method", r.Method)
	}
	h.sendError(w, apiErr)
}

// decodeJSON decodes a request body into dst.
func (h *Handler) decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return ErrInvalidJSON
	}
	return nil
}

// parsePagination reads limit/offset query parameters with defaults and caps.
func parsePagination(r *http.Request) (limit, offset int) {
	limit = defaultPageLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	if raw := r.URL.Query().Get("offset"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			offset = n
		}
	}
	return limit, offset
}

// formatBytes renders a byte count with binary units and one decimal place.
func formatBytes(b int64) string {
	if b < 1024 {
		return fmt.Sprintf("%d B", b)
	}
	units := []string{"KB", "MB", "GB", "TB"}
	value := float64(b)
	for i, unit := range units {
		value /= 1024
		if value < 1024 || i == len(units)-1 {
			return fmt.Sprintf("%.1f %s", value, unit)
		}
	}
	return fmt.Sprintf("%d B", b)
}
