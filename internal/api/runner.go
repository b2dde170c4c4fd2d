package api

import (
	"context"

	"github.com/ShayCichocki/relay/internal/tools"
	"github.com/ShayCichocki/relay/pkg/models"
)

// Runner is the model invocation boundary agents depend on. The orchestrator
// treats it as a black box that can be slow and must be awaited; retry policy
// belongs to the caller, not here.
type Runner interface {
	// Respond makes a single model call with no tool access.
	Respond(ctx context.Context, system, user string) (string, error)
	// RespondWithTools runs the call-and-execute-tools cycle until the model
	// stops requesting tools or the iteration cap is hit.
	RespondWithTools(ctx context.Context, system, user string, toolset []tools.Tool) (*ToolLoopResult, error)
}

// ToolLoopResult contains the outcome of a tool-enabled model exchange.
type ToolLoopResult struct {
	// Output is the model's final text.
	Output string
	// ToolCalls lists the tool invocations made during the exchange.
	ToolCalls []models.ToolCallRecord
	// Iterations is the number of model calls made.
	Iterations int
}
