package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/condor/internal/interfaces"
	"github.com/ternarybob/condor/internal/models"
)

// Runner executes stages in order. A failed stage is recorded and the next
// stage still runs; once the context is cancelled the remaining stages are
// marked skipped.
type Runner struct {
	runs   interfaces.RunStorage
	logger arbor.ILogger
}

// NewRunner creates a runner. runs may be nil to keep no history.
func NewRunner(runs interfaces.RunStorage, logger arbor.ILogger) *Runner {
	return &Runner{runs: runs, logger: logger}
}

// Run executes stages against state and returns the recorded run.
// The returned error is the context error when the run was cancelled.
func (r *Runner) Run(ctx context.Context, state *State, stages ...Stage) (*models.PipelineRun, error) {
	run := &models.PipelineRun{
		ID:        uuid.New().String(),
		StartedAt: time.Now().UTC(),
	}
	state.Run = run

	r.logger.Info().Str("run_id", run.ID).Int("stages", len(stages)).Msg("Pipeline started")

	for _, stage := range stages {
		if ctx.Err() != nil {
			run.Stages = append(run.Stages, models.StageResult{Name: stage.Name(), Status: models.StageSkipped})
			continue
		}
		run.Stages = append(run.Stages, r.runStage(ctx, state, stage))
	}

	run.FinishedAt = time.Now().UTC()
	state.Run = nil

	r.logger.Info().
		Str("run_id", run.ID).
		Int("succeeded", run.Succeeded()).
		Int("stages", len(run.Stages)).
		Str("duration", run.Duration().Round(time.Millisecond).String()).
		Msgf("Pipeline finished: %d of %d stages completed", run.Succeeded(), len(run.Stages))

	if r.runs != nil {
		// A cancelled run is still recorded.
		if err := r.runs.SaveRun(context.WithoutCancel(ctx), run); err != nil {
			r.logger.Error().Err(err).Str("run_id", run.ID).Msg("Failed to save run history")
		}
	}

	return run, ctx.Err()
}

func (r *Runner) runStage(ctx context.Context, state *State, stage Stage) models.StageResult {
	name := stage.Name()
	r.logger.Info().Str("stage", name).Msg("Stage started")

	start := time.Now()
	result, err := stage.Run(ctx, state)
	result.Name = name
	result.Duration = time.Since(start)

	switch {
	case err != nil:
		result.Status = models.StageFailed
		result.Error = err.Error()
		r.logger.Error().Err(err).Str("stage", name).Msg("Stage failed")
	case result.Status == models.StageSkipped:
		r.logger.Info().Str("stage", name).Msg("Stage skipped")
	default:
		result.Status = models.StageSucceeded
		r.logger.Info().
			Str("stage", name).
			Int("rows", result.Rows).
			Str("artifact", result.Artifact).
			Str("duration", result.Duration.Round(time.Millisecond).String()).
			Msg("Stage completed")
	}
	return result
}
