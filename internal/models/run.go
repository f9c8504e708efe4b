package models

import "time"

// StageStatus is the outcome of one pipeline stage.
type StageStatus string

const (
	StageSucceeded StageStatus = "succeeded"
	StageFailed    StageStatus = "failed"
	StageSkipped   StageStatus = "skipped"
)

// StageResult records what one stage produced.
type StageResult struct {
	Name     string
	Status   StageStatus
	Rows     int
	Artifact string
	Error    string
	Duration time.Duration
}

// PipelineRun is the persisted history of one pipeline execution.
type PipelineRun struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Stages     []StageResult
}

// Succeeded counts the stages that completed without error.
func (r PipelineRun) Succeeded() int {
	n := 0
	for _, s := range r.Stages {
		if s.Status == StageSucceeded {
			n++
		}
	}
	return n
}

// Duration is the wall-clock time of the run.
func (r PipelineRun) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
