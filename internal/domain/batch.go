package domain

import "time"

// BatchState represents the lifecycle state of a batch run.
type BatchState string

// Batch run states. A run moves Idle -> Running -> one of the terminal
// states; at most one run is active at a time.
const (
	BatchIdle      BatchState = "idle"
	BatchRunning   BatchState = "running"
	BatchCompleted BatchState = "completed"
	BatchCancelled BatchState = "cancelled"
	BatchFailed    BatchState = "failed"
)

// Terminal returns true if the state ends a run.
func (s BatchState) Terminal() bool {
	switch s {
	case BatchCompleted, BatchCancelled, BatchFailed:
		return true
	}
	return false
}

// BatchEventKind discriminates events on the batch event channel.
type BatchEventKind string

// Event kinds. A run emits zero or more progress events followed by
// exactly one terminal event (completed, cancelled, or failed).
const (
	BatchEventProgress  BatchEventKind = "progress"
	BatchEventCompleted BatchEventKind = "completed"
	BatchEventCancelled BatchEventKind = "cancelled"
	BatchEventFailed    BatchEventKind = "failed"
)

// BatchEvent is one typed event emitted by a batch run. Progress events
// carry Processed and Message; terminal events additionally carry the
// record list built so far (completed and cancelled) or Err (failed).
type BatchEvent struct {
	Kind      BatchEventKind
	Processed int           // Images processed so far
	Total     int           // Images staged for this run
	Message   string        // Human-readable progress line
	Records   []ImageRecord // Full result list; terminal events only
	Err       error         // Failure reason; failed events only
}

// Terminal returns true if the event ends the run.
func (e BatchEvent) Terminal() bool {
	return e.Kind != BatchEventProgress
}

// BatchStatus is a point-in-time view of the orchestrator, safe to
// expose over the API while a run is in flight.
type BatchStatus struct {
	State     BatchState
	Processed int
	Total     int
	Staged    int       // Images staged but not yet run
	StartedAt time.Time // Zero when idle
	Message   string    // Last progress or failure message
}
