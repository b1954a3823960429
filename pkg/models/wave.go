package models

// WaveStatus represents the execution state of a wave.
type WaveStatus string

const (
	// WaveStatusPlanning indicates the wave has been computed but not started.
	WaveStatusPlanning WaveStatus = "planning"
	// WaveStatusInProgress indicates at least one member task is claimed.
	WaveStatusInProgress WaveStatus = "in_progress"
	// WaveStatusCompleted indicates every member task is resolved.
	WaveStatusCompleted WaveStatus = "completed"
	// WaveStatusVerified indicates the orchestrator signed off on the wave.
	WaveStatusVerified WaveStatus = "verified"
	// WaveStatusFailed indicates a member task failed.
	WaveStatusFailed WaveStatus = "failed"
)

// Wave is one batch of a partition of the task set. Every task in wave N
// has all of its blockedBy dependencies in waves < N, so the members of a
// single wave are mutually independent and may execute in parallel.
type Wave struct {
	// Index is the zero-based position of the wave in execution order.
	Index int `json:"index"`
	// TaskIDs are the member tasks, sorted for determinism.
	TaskIDs []string `json:"task_ids"`
	// Status is the execution state of the wave.
	Status WaveStatus `json:"status"`
}
