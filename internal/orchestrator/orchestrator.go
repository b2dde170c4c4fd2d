package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ShayCichocki/relay/internal/api"
	"github.com/ShayCichocki/relay/internal/decompose"
	"github.com/ShayCichocki/relay/internal/delegate"
	"github.com/ShayCichocki/relay/internal/registry"
	"github.com/ShayCichocki/relay/pkg/models"
)

const planningSystem = `You plan work for a team of specialized agents.
Given a request and the agent roster, produce the decomposition exactly as instructed.`

// Config configures an Orchestrator.
type Config struct {
	// Registry is the agent roster.
	Registry *registry.Registry
	// Runner performs the coordinator's own model calls: planning and synthesis.
	Runner api.Runner
	// Emitter receives progress events. Optional.
	Emitter *EventEmitter
	// Logger receives debug output. Optional.
	Logger *DebugLogger
	// UseCoordinator enables decomposition. When false every request is
	// processed directly by a single agent.
	UseCoordinator bool
	// SubtaskTimeout bounds a single subtask. Zero means unbounded.
	SubtaskTimeout time.Duration
}

// TurnResult is the outcome of one processed request.
type TurnResult struct {
	// Answer is the final user-facing text.
	Answer string
	// Mode records whether the request was delegated or answered directly.
	Mode delegate.Mode
	// Session is the turn's session ID, used to key tool-call tracking.
	Session string
	// Subtasks is the executed plan, empty for direct turns.
	Subtasks []*models.Subtask
	// Results holds the per-subtask outcomes, keyed by sequence number.
	Results map[int]*models.AgentResult
	// ToolCalls aggregates tool invocations across the turn in sequence order.
	ToolCalls []models.ToolCallRecord
}

// Orchestrator runs the turn state machine: decide, decompose, prune,
// execute, synthesize. Decomposition problems degrade to direct processing;
// only an unreachable model backend aborts a turn.
type Orchestrator struct {
	reg      *registry.Registry
	runner   api.Runner
	decider  *delegate.Decider
	executor *Executor
	synth    *Synthesizer
	emitter  *EventEmitter
	logger   *DebugLogger
	useCoord bool

	mu    sync.RWMutex
	phase Phase
}

// New creates an Orchestrator from a Config.
func New(cfg Config) (*Orchestrator, error) {
	if cfg.Registry == nil {
		return nil, fmt.Errorf("orchestrator requires a registry")
	}
	if cfg.Runner == nil {
		return nil, fmt.Errorf("orchestrator requires a model runner")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = NopLogger()
	}
	setPackageLogger(logger)

	return &Orchestrator{
		reg:      cfg.Registry,
		runner:   cfg.Runner,
		decider:  delegate.NewDecider(),
		executor: NewExecutor(cfg.Registry, cfg.Emitter, cfg.SubtaskTimeout),
		synth:    NewSynthesizer(cfg.Runner),
		emitter:  cfg.Emitter,
		logger:   logger,
		useCoord: cfg.UseCoordinator,
		phase:    PhaseIdle,
	}, nil
}

// Phase returns the orchestrator's current phase.
func (o *Orchestrator) Phase() Phase {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.phase
}

func (o *Orchestrator) setPhase(p Phase) {
	o.mu.Lock()
	o.phase = p
	o.mu.Unlock()

	o.logger.Log("[orchestrator] phase -> %s", p)
	o.emit(Event{Type: EventPhaseChanged, Phase: p})
}

func (o *Orchestrator) emit(event Event) {
	if o.emitter != nil {
		o.emitter.Emit(event)
	}
}

// ProcessRequest runs one full turn for a user request.
func (o *Orchestrator) ProcessRequest(ctx context.Context, request string) (*TurnResult, error) {
	session := uuid.New().String()

	o.setPhase(PhaseDeciding)
	decision := o.decider.Decide(request, o.reg)

	if !o.useCoord || decision.Mode == delegate.ModeDirect {
		return o.runDirect(ctx, request, session, decision.AgentID)
	}

	turn, err := o.runDelegated(ctx, request, session)
	if err != nil {
		var de *DecompositionError
		if errors.As(err, &de) {
			o.logger.Log("[orchestrator] falling back to direct: %v", de)
			return o.runDirect(ctx, request, session, "")
		}
		return nil, err
	}
	return turn, nil
}

// runDelegated drives the decompose, prune, execute, synthesize path. A
// returned DecompositionError tells the caller to fall back to direct mode.
func (o *Orchestrator) runDelegated(ctx context.Context, request, session string) (*TurnResult, error) {
	o.setPhase(PhaseDecomposing)

	output, err := o.runner.Respond(ctx, planningSystem, decompose.BuildPrompt(request, o.reg))
	if err != nil {
		if be := classifyBackendError(err); be != nil {
			o.setPhase(PhaseErrored)
			return nil, be
		}
		return nil, &DecompositionError{Reason: "planning call failed", Err: err}
	}

	subtasks, err := decompose.ParseResponse(output, o.reg)
	if err != nil {
		return nil, &DecompositionError{Reason: "unusable plan", Err: err}
	}
	if err := decompose.ValidateNoCycles(subtasks); err != nil {
		return nil, &DecompositionError{Reason: "cyclic plan", Err: err}
	}

	o.setPhase(PhasePruning)
	subtasks = decompose.Prune(subtasks, o.reg)
	if len(subtasks) == 0 {
		return nil, &DecompositionError{Reason: "plan pruned to nothing"}
	}
	o.emit(Event{Type: EventPlanReady, Phase: PhasePruning, Message: describePlan(subtasks)})

	o.setPhase(PhaseExecuting)
	base := models.NewAgentContext()
	results, err := o.executor.Execute(ctx, subtasks, base, session)
	if err != nil {
		var de *DecompositionError
		if errors.As(err, &de) {
			return nil, de
		}
		// Cancellation or deadline: discard partial results.
		return nil, err
	}

	o.setPhase(PhaseSynthesizing)
	answer, err := o.synth.Synthesize(ctx, request, subtasks, results)
	if err != nil {
		if be := classifyBackendError(err); be != nil {
			o.setPhase(PhaseErrored)
			return nil, be
		}
		// The work is done; a flaky synthesis call must not lose it.
		o.logger.Log("[orchestrator] synthesis failed, joining raw results: %v", err)
		answer = joinResults(subtasks, results)
	}

	o.setPhase(PhaseDone)
	o.emit(Event{Type: EventTurnDone, Phase: PhaseDone})

	return &TurnResult{
		Answer:    answer,
		Mode:      delegate.ModeDelegate,
		Session:   session,
		Subtasks:  subtasks,
		Results:   results,
		ToolCalls: collectToolCalls(subtasks, results),
	}, nil
}

// runDirect answers with a single agent. agentID may be empty, in which case
// the decider's default selection applies.
func (o *Orchestrator) runDirect(ctx context.Context, request, session, agentID string) (*TurnResult, error) {
	o.setPhase(PhaseDirect)

	agent := o.reg.ByID(agentID)
	if agent == nil {
		if general := o.reg.ByCapability(models.CapabilityGeneralReasoning); len(general) > 0 {
			agent = general[0]
		} else if all := o.reg.All(); len(all) > 0 {
			agent = all[0]
		}
	}
	if agent == nil {
		return nil, fmt.Errorf("no agents registered")
	}

	actx := models.NewAgentContext()
	actx.Metadata["session_id"] = session

	task := &models.AgentTask{
		ID:          uuid.New().String(),
		Description: request,
		Required:    agent.Capabilities(),
		CreatedAt:   time.Now(),
	}

	res, err := agent.Process(ctx, task, actx)
	if err != nil {
		if be := classifyBackendError(err); be != nil {
			o.setPhase(PhaseErrored)
			return nil, be
		}
		return nil, fmt.Errorf("direct processing: %w", err)
	}

	o.setPhase(PhaseDone)
	o.emit(Event{Type: EventTurnDone, Phase: PhaseDone})

	return &TurnResult{
		Answer:    res.Content,
		Mode:      delegate.ModeDirect,
		Session:   session,
		ToolCalls: append([]models.ToolCallRecord{}, res.ToolCalls...),
	}, nil
}

// describePlan renders a one-line summary of the pruned plan.
func describePlan(subtasks []*models.Subtask) string {
	parts := make([]string, 0, len(subtasks))
	for _, st := range subtasks {
		parts = append(parts, fmt.Sprintf("%d:%s", st.Seq, st.Agent))
	}
	return strings.Join(parts, " ")
}

// joinResults concatenates successful subtask outputs in sequence order, the
// degraded form of synthesis.
func joinResults(subtasks []*models.Subtask, results map[int]*models.AgentResult) string {
	ordered := append([]*models.Subtask{}, subtasks...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Seq < ordered[j].Seq })

	var parts []string
	for _, st := range ordered {
		if res := results[st.Seq]; res != nil && res.Success && res.Content != "" {
			parts = append(parts, res.Content)
		}
	}
	if len(parts) == 0 {
		return "I was unable to complete any part of that request. Please try again or rephrase it."
	}
	return strings.Join(parts, "\n\n")
}

// collectToolCalls flattens per-subtask tool calls in sequence order.
func collectToolCalls(subtasks []*models.Subtask, results map[int]*models.AgentResult) []models.ToolCallRecord {
	ordered := append([]*models.Subtask{}, subtasks...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Seq < ordered[j].Seq })

	var calls []models.ToolCallRecord
	for _, st := range ordered {
		if res := results[st.Seq]; res != nil {
			calls = append(calls, res.ToolCalls...)
		}
	}
	return calls
}
