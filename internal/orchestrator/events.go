// Package orchestrator coordinates a turn: deciding, decomposing, pruning,
// executing, and synthesizing.
package orchestrator

import (
	"time"
)

// Phase is the orchestrator's position in a turn.
type Phase string

const (
	// PhaseIdle means no turn is in flight.
	PhaseIdle Phase = "idle"
	// PhaseDeciding means the delegation decision is being made.
	PhaseDeciding Phase = "deciding"
	// PhaseDirect means a single agent is answering without decomposition.
	PhaseDirect Phase = "direct"
	// PhaseDecomposing means the coordinator is planning subtasks.
	PhaseDecomposing Phase = "decomposing"
	// PhasePruning means the plan is being trimmed of redundant subtasks.
	PhasePruning Phase = "pruning"
	// PhaseExecuting means subtasks are running.
	PhaseExecuting Phase = "executing"
	// PhaseSynthesizing means partial results are being combined.
	PhaseSynthesizing Phase = "synthesizing"
	// PhaseDone means the turn produced an answer.
	PhaseDone Phase = "done"
	// PhaseErrored means the turn was abandoned, reached only when the model
	// backend itself is unreachable.
	PhaseErrored Phase = "errored"
)

// EventType is the kind of progress event.
type EventType string

const (
	// EventPhaseChanged reports a phase transition.
	EventPhaseChanged EventType = "phase_changed"
	// EventPlanReady reports the pruned subtask plan.
	EventPlanReady EventType = "plan_ready"
	// EventSubtaskQueued reports that a subtask's dependencies are satisfied
	// and it is queued for the next wave.
	EventSubtaskQueued EventType = "subtask_queued"
	// EventSubtaskStarted reports that a subtask began running.
	EventSubtaskStarted EventType = "subtask_started"
	// EventSubtaskCompleted reports that a subtask finished successfully.
	EventSubtaskCompleted EventType = "subtask_completed"
	// EventSubtaskFailed reports that a subtask failed.
	EventSubtaskFailed EventType = "subtask_failed"
	// EventSubtaskSkipped reports that a subtask was skipped because a
	// dependency failed.
	EventSubtaskSkipped EventType = "subtask_skipped"
	// EventTurnDone reports that the turn produced its final answer.
	EventTurnDone EventType = "turn_done"
)

// Event is a progress update emitted during a turn. Consumers such as the CLI
// progress sink subscribe to these.
type Event struct {
	// Type is the kind of event.
	Type EventType
	// Phase is the orchestrator phase at emission time.
	Phase Phase
	// Seq is the subtask sequence number, for subtask events.
	Seq int
	// Agent is the agent name handling the subtask, if applicable.
	Agent string
	// Message provides human-readable context.
	Message string
	// Err carries error details for failure events.
	Err error
	// Timestamp is when the event occurred.
	Timestamp time.Time
}
