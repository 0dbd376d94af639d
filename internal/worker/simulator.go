package worker

import (
	"context"
	"time"

	"github.com/gitport/gitport/internal/models"
)

// SimulatedRunner is a stand-in for the real transfer integration. It walks
// progress from 0 to 100 in fixed steps, deriving file counts from the
// source repository size, so the rest of the pipeline (state machine,
// progress persistence, dashboard aggregation) can be exercised end to end.
type SimulatedRunner struct {
	Steps        int
	StepInterval time.Duration
}

// Bytes per simulated file. Only used to fabricate plausible file counts.
const simulatedFileSize = 32 * 1024

func NewSimulatedRunner(steps int, stepInterval time.Duration) *SimulatedRunner {
	if steps <= 0 {
		steps = 10
	}
	if stepInterval <= 0 {
		stepInterval = time.Second
	}
	return &SimulatedRunner{Steps: steps, StepInterval: stepInterval}
}

func (r *SimulatedRunner) Run(ctx context.Context, m *models.Migration, report func(ProgressReport) error) error {
	totalSize := m.TotalSize
	totalFiles := int64(totalSize) / simulatedFileSize
	if totalFiles < 1 {
		totalFiles = 1
	}

	for step := 1; step <= r.Steps; step++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(r.StepInterval):
		}

		progress := step * 100 / r.Steps
		err := report(ProgressReport{
			Progress:      progress,
			TotalFiles:    totalFiles,
			MigratedFiles: totalFiles * int64(progress) / 100,
			TotalSize:     totalSize,
			MigratedSize:  totalSize * models.ByteSize(progress) / 100,
		})
		if err != nil {
			return err
		}
	}
	return nil
}
