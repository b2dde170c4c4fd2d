package models

import "time"

// SubtaskState represents the scheduling state of a subtask.
type SubtaskState string

const (
	// SubtaskStatePending indicates the subtask is waiting on dependencies.
	SubtaskStatePending SubtaskState = "pending"
	// SubtaskStateReady indicates all dependencies are satisfied.
	SubtaskStateReady SubtaskState = "ready"
	// SubtaskStateRunning indicates the subtask is being executed by an agent.
	SubtaskStateRunning SubtaskState = "running"
	// SubtaskStateCompleted indicates the agent finished successfully.
	SubtaskStateCompleted SubtaskState = "completed"
	// SubtaskStateFailed indicates the agent ran and reported failure.
	SubtaskStateFailed SubtaskState = "failed"
	// SubtaskStateSkipped indicates the subtask was never executed because a
	// dependency failed or could not become ready.
	SubtaskStateSkipped SubtaskState = "skipped"
)

// Valid returns true if the state is a known value.
func (s SubtaskState) Valid() bool {
	switch s {
	case SubtaskStatePending, SubtaskStateReady, SubtaskStateRunning,
		SubtaskStateCompleted, SubtaskStateFailed, SubtaskStateSkipped:
		return true
	default:
		return false
	}
}

// Terminal returns true if the state is one the executor never leaves.
func (s SubtaskState) Terminal() bool {
	return s == SubtaskStateCompleted || s == SubtaskStateFailed || s == SubtaskStateSkipped
}

// Subtask is one node of a decomposition, as produced by the parser.
// Subtasks are created by the parser, consumed by the pruner and executor,
// and discarded after the turn; they are never persisted.
type Subtask struct {
	// Seq is the sequence number assigned by the parser, unique per decomposition.
	Seq int `json:"id"`
	// Description is the free-text statement of the work.
	Description string `json:"description"`
	// Agent is the name of the agent this subtask targets.
	Agent string `json:"agent"`
	// DependsOn lists sequence numbers of subtasks that must complete first.
	DependsOn []int `json:"dependencies,omitempty"`
}

// AgentTask is a unit of work handed to a single agent.
// Immutable once constructed.
type AgentTask struct {
	// ID is the unique identifier for this task.
	ID string `json:"id"`
	// Description is the free-text statement of the work.
	Description string `json:"description"`
	// Required lists capabilities the processing agent must declare.
	Required []Capability `json:"required,omitempty"`
	// Priority orders tasks when an agent has a backlog; higher runs first.
	Priority int `json:"priority"`
	// Params carries named parameters such as a file path or search query.
	Params map[string]string `json:"params,omitempty"`
	// CreatedAt is when the task was constructed.
	CreatedAt time.Time `json:"created_at"`
}

// ToolCallRecord captures one tool invocation made while processing a task.
type ToolCallRecord struct {
	// Tool is the name of the invoked tool.
	Tool string `json:"tool"`
	// Arguments is the serialized argument map passed to the tool.
	Arguments string `json:"arguments,omitempty"`
	// Output is a possibly truncated copy of the tool's output.
	Output string `json:"output,omitempty"`
	// At is when the call happened.
	At time.Time `json:"at"`
}

// AgentResult is produced once per subtask execution and immutable thereafter.
type AgentResult struct {
	// AgentID identifies the agent that produced the result.
	AgentID string `json:"agent_id"`
	// TaskID identifies the task the result belongs to.
	TaskID string `json:"task_id"`
	// Content is the textual output of the agent.
	Content string `json:"content"`
	// Success is false when the agent ran but could not complete the task.
	Success bool `json:"success"`
	// Error holds the failure detail when Success is false.
	Error string `json:"error,omitempty"`
	// Skipped is true when the subtask was never executed because a
	// dependency failed. Distinct from Success=false, which means the agent
	// ran and reported failure.
	Skipped bool `json:"skipped,omitempty"`
	// ToolCalls lists the tool invocations made while producing the result.
	ToolCalls []ToolCallRecord `json:"tool_calls,omitempty"`
	// Updated is the context snapshot to merge into dependents, if any.
	Updated *AgentContext `json:"-"`
}
