// Package agents provides the built-in agent implementations.
package agents

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ShayCichocki/relay/internal/api"
	"github.com/ShayCichocki/relay/internal/registry"
	"github.com/ShayCichocki/relay/internal/tools"
	"github.com/ShayCichocki/relay/pkg/models"
)

// SessionMetadataKey is the context metadata key carrying the session ID for
// tool-call tracking.
const SessionMetadataKey = "session_id"

// Builtin is a model-backed agent: a system prompt, a capability set, and
// zero or more tools. All built-in kinds share this implementation; they
// differ only in configuration.
type Builtin struct {
	id      string
	name    string
	desc    string
	caps    []models.Capability
	system  string
	runner  api.Runner
	toolset []tools.Tool
	tracker *tools.CallTracker
}

// Config describes one built-in agent.
type Config struct {
	// Name is the agent name used in decompositions.
	Name string
	// Description explains what the agent is good at.
	Description string
	// Capabilities is the declared capability set.
	Capabilities []models.Capability
	// System is the agent's system prompt.
	System string
	// Tools is the tool set the agent may invoke.
	Tools []tools.Tool
}

// New creates a built-in agent bound to a model runner and tracker.
// The tracker may be nil when tool-call tracking is not wanted.
func New(cfg Config, runner api.Runner, tracker *tools.CallTracker) *Builtin {
	return &Builtin{
		id:      uuid.New().String(),
		name:    cfg.Name,
		desc:    cfg.Description,
		caps:    append([]models.Capability{}, cfg.Capabilities...),
		system:  cfg.System,
		runner:  runner,
		toolset: cfg.Tools,
		tracker: tracker,
	}
}

// ID implements registry.Agent.
func (b *Builtin) ID() string { return b.id }

// Name implements registry.Agent.
func (b *Builtin) Name() string { return b.name }

// Description implements registry.Agent.
func (b *Builtin) Description() string { return b.desc }

// Capabilities implements registry.Agent.
func (b *Builtin) Capabilities() []models.Capability {
	return append([]models.Capability{}, b.caps...)
}

// Process implements registry.Agent. The returned result carries an updated
// context snapshot holding this task's output; the executor scopes the merge
// to dependents.
func (b *Builtin) Process(ctx context.Context, task *models.AgentTask, actx *models.AgentContext) (*models.AgentResult, error) {
	user := buildUserPrompt(task, actx)

	var output string
	var calls []models.ToolCallRecord

	if len(b.toolset) == 0 {
		text, err := b.runner.Respond(ctx, b.system, user)
		if err != nil {
			return nil, fmt.Errorf("agent %s: %w", b.name, err)
		}
		output = text
	} else {
		loop, err := b.runner.RespondWithTools(ctx, b.system, user, b.toolset)
		if err != nil {
			return nil, fmt.Errorf("agent %s: %w", b.name, err)
		}
		output = loop.Output
		calls = loop.ToolCalls
	}

	if b.tracker != nil {
		session := actx.Metadata[SessionMetadataKey]
		for _, call := range calls {
			b.tracker.Record(session, call.Tool, call.Arguments, call.Output)
		}
	}

	updated := actx.Clone()
	updated.Results[b.name] = output

	return &models.AgentResult{
		AgentID:   b.id,
		TaskID:    task.ID,
		Content:   output,
		Success:   strings.TrimSpace(output) != "",
		ToolCalls: calls,
		Updated:   updated,
	}, nil
}

// buildUserPrompt renders the task and its evidence for the model.
func buildUserPrompt(task *models.AgentTask, actx *models.AgentContext) string {
	var out strings.Builder
	out.WriteString(task.Description)

	if len(task.Params) > 0 {
		out.WriteString("\n\nParameters:\n")
		for k, v := range task.Params {
			fmt.Fprintf(&out, "- %s: %s\n", k, v)
		}
	}

	if actx != nil {
		if len(actx.Results) > 0 {
			out.WriteString("\n\nResults from earlier steps:\n")
			for label, text := range actx.Results {
				fmt.Fprintf(&out, "### %s\n%s\n", label, text)
			}
		}
		if len(actx.Files) > 0 {
			out.WriteString("\nRelevant files: " + strings.Join(actx.Files, ", ") + "\n")
		}
		if len(actx.Chunks) > 0 {
			out.WriteString("\nRetrieved content:\n")
			for _, chunk := range actx.Chunks {
				fmt.Fprintf(&out, "[%s] %s\n", chunk.Source, chunk.Text)
			}
		}
	}

	return out.String()
}

// NewTask builds an immutable AgentTask for a subtask description.
func NewTask(description string, required []models.Capability, params map[string]string) *models.AgentTask {
	return &models.AgentTask{
		ID:          uuid.New().String(),
		Description: description,
		Required:    required,
		Params:      params,
		CreatedAt:   time.Now(),
	}
}

// FromManifest constructs the agent for a manifest entry. The entry's kind
// selects the system prompt, capability set, and tool bindings.
func FromManifest(entry registry.ManifestEntry, runner api.Runner, tracker *tools.CallTracker, workDir string) (*Builtin, error) {
	cfg, err := kindConfig(entry.Kind, workDir)
	if err != nil {
		return nil, err
	}

	cfg.Name = entry.Name
	if entry.Description != "" {
		cfg.Description = entry.Description
	}

	return New(cfg, runner, tracker), nil
}

// kindConfig returns the base configuration for a built-in kind.
func kindConfig(kind, workDir string) (Config, error) {
	switch kind {
	case "coordinator":
		return Config{
			Description: "Reasons about requests, combines partial results, and answers from general knowledge.",
			Capabilities: []models.Capability{models.CapabilityGeneralReasoning},
			System: "You are the coordinator of a team of specialized agents. " +
				"Answer clearly and concisely. When given evidence from other agents, synthesize it instead of inventing facts.",
		}, nil
	case "web_search":
		return Config{
			Description: "Searches the web and fetches pages for current information.",
			Capabilities: []models.Capability{models.CapabilityWebSearch},
			System: "You are a web research agent. Use the web_fetch tool to gather current information, " +
				"then report what you found with sources. Say so plainly when you find nothing.",
			Tools: []tools.Tool{tools.NewWebFetchTool()},
		}, nil
	case "file_reading":
		return Config{
			Description: "Reads local files and documents and reports their contents.",
			Capabilities: []models.Capability{models.CapabilityFileReading},
			System: "You are a file reading agent. Use the read_file and list_dir tools to inspect files, " +
				"then summarize what they contain. Never guess at contents you have not read.",
			Tools: []tools.Tool{tools.NewFileReadTool(workDir), tools.NewListDirTool(workDir)},
		}, nil
	case "code_analysis":
		return Config{
			Description: "Analyzes source code: structure, behavior, and defects.",
			Capabilities: []models.Capability{models.CapabilityCodeAnalysis, models.CapabilityFileReading},
			System: "You are a code analysis agent. Read the relevant source files with the read_file tool " +
				"and explain structure, behavior, and likely defects. Quote the code you base conclusions on.",
			Tools: []tools.Tool{tools.NewFileReadTool(workDir), tools.NewListDirTool(workDir)},
		}, nil
	default:
		return Config{}, fmt.Errorf("unknown agent kind %q", kind)
	}
}
