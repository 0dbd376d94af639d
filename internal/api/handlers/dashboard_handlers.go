package handlers

import (
	"math"
	"net/http"
	"time"

	"github.com/gitport/gitport/internal/auth"
	"github.com/gitport/gitport/internal/models"
)

const recentMigrationsLimit = 5

// DashboardStats is the aggregated stats block of the dashboard response.
type DashboardStats struct {
	TotalMigrations      int64           `json:"totalMigrations"`
	CompletedMigrations  int64           `json:"completedMigrations"`
	InProgressMigrations int64           `json:"inProgressMigrations"`
	PendingMigrations    int64           `json:"pendingMigrations"`
	FailedMigrations     int64           `json:"failedMigrations"`
	PausedMigrations     int64           `json:"pausedMigrations"`
	CancelledMigrations  int64           `json:"cancelledMigrations"`
	SuccessRate          int             `json:"successRate"`
	DataTransferred      string          `json:"dataTransferred"`
	DataTransferredBytes models.ByteSize `json:"dataTransferredBytes"`
	TotalRepositories    int64           `json:"totalRepositories"`
}

// GetDashboard returns aggregated statistics, the newest migrations and the
// trailing-30-day history for the authenticated user. Everything is computed
// on demand; there is no caching layer.
func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := auth.GetUserIDFromContext(ctx)

	counts, err := h.db.CountMigrationsByStatus(ctx, userID)
	if err != nil {
		h.sendDomainError(w, r, err)
		return
	}

	var total int64
	for _, n := range counts {
		total += n
	}

	transferred, err := h.db.SumCompletedMigratedSize(ctx, userID)
	if err != nil {
		h.sendDomainError(w, r, err)
		return
	}

	repoCount, err := h.db.CountRepositories(ctx, userID)
	if err != nil {
		h.sendDomainError(w, r, err)
		return
	}

	recent, err := h.db.RecentMigrations(ctx, userID, recentMigrationsLimit)
	if err != nil {
		h.sendDomainError(w, r, err)
		return
	}

	history, err := h.db.MigrationHistory(ctx, userID, time.Now())
	if err != nil {
		h.sendDomainError(w, r, err)
		return
	}

	stats := DashboardStats{
		TotalMigrations:      total,
		CompletedMigrations:  counts[models.StatusCompleted],
		InProgressMigrations: counts[models.StatusInProgress],
		PendingMigrations:    counts[models.StatusPending],
		FailedMigrations:     counts[models.StatusFailed],
		PausedMigrations:     counts[models.StatusPaused],
		CancelledMigrations:  counts[models.StatusCancelled],
		SuccessRate:          successRate(counts[models.StatusCompleted], total),
		DataTransferred:      formatBytes(int64(transferred)),
		DataTransferredBytes: transferred,
		TotalRepositories:    repoCount,
	}

	h.sendJSON(w, http.StatusOK, map[string]any{
		"stats":            stats,
		"recentMigrations": recent,
		"migrationHistory": history,
	})
}

// successRate is the percentage of completed migrations, rounded to the
// nearest integer. An empty account reports 100, not an error.
func successRate(completed, total int64) int {
	if total == 0 {
		return 100
	}
	return int(math.Round(float64(completed) / float64(total) * 100))
}
