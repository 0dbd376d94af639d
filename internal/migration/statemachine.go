// Package migration implements the migration lifecycle state machine.
//
// Status and progress are only ever advanced through Transition and
// SetProgress; callers persist the mutated record under an optimistic
// version check so concurrent writers cannot corrupt the monotonicity
// invariants.
package migration

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/gitport/gitport/internal/models"
)

var (
	// ErrInvalidTransition is returned for any edge not in the transition
	// table.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrIncompleteProgress is returned when completing a migration whose
	// progress has not reached 100.
	ErrIncompleteProgress = errors.New("progress must be 100 to complete")

	// ErrInvalidProgress is returned for out-of-range or non-monotonic
	// progress updates, or updates outside IN_PROGRESS.
	ErrInvalidProgress = errors.New("invalid progress update")
)

// transitions maps each status to the statuses it may move to. Terminal
// statuses have no entry.
var transitions = map[models.MigrationStatus][]models.MigrationStatus{
	models.StatusPending:    {models.StatusInProgress, models.StatusCancelled},
	models.StatusInProgress: {models.StatusCompleted, models.StatusFailed, models.StatusPaused, models.StatusCancelled},
	models.StatusPaused:     {models.StatusInProgress, models.StatusCancelled},
}

// CanTransition reports whether the edge from -> to is allowed.
func CanTransition(from, to models.MigrationStatus) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Transition moves m to the target status, applying the per-edge side
// effects:
//
//   - entering IN_PROGRESS sets StartedAt on first entry only (resume from
//     PAUSED keeps the original start time)
//   - COMPLETED requires Progress == 100 and records CompletedAt plus
//     ActualTime in minutes
//   - FAILED and CANCELLED record CompletedAt with progress frozen
//   - PAUSED freezes progress without a completion time
//
// The record is mutated in place; callers are responsible for persisting it.
func Transition(m *models.Migration, target models.MigrationStatus, now time.Time) error {
	if !CanTransition(m.Status, target) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, m.Status, target)
	}

	switch target {
	case models.StatusInProgress:
		if m.StartedAt == nil {
			t := now
			m.StartedAt = &t
		}
	case models.StatusCompleted:
		if m.Progress != 100 {
			return fmt.Errorf("%w: progress is %d", ErrIncompleteProgress, m.Progress)
		}
		t := now
		m.CompletedAt = &t
		if m.StartedAt != nil {
			minutes := int(math.Round(now.Sub(*m.StartedAt).Minutes()))
			m.ActualTime = &minutes
		}
	case models.StatusFailed, models.StatusCancelled:
		t := now
		m.CompletedAt = &t
	case models.StatusPaused:
		// progress frozen, no completion time
	}

	m.Status = target
	return nil
}

// SetProgress updates m.Progress. Progress only moves while IN_PROGRESS,
// only within [0,100], and never backwards.
func SetProgress(m *models.Migration, value int) error {
	if m.Status != models.StatusInProgress {
		return fmt.Errorf("%w: status is %s, not %s", ErrInvalidProgress, m.Status, models.StatusInProgress)
	}
	if value < 0 || value > 100 {
		return fmt.Errorf("%w: %d is outside [0,100]", ErrInvalidProgress, value)
	}
	if value < m.Progress {
		return fmt.Errorf("%w: %d is below current progress %d", ErrInvalidProgress, value, m.Progress)
	}
	m.Progress = value
	return nil
}
