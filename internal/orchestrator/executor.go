package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ShayCichocki/relay/internal/graph"
	"github.com/ShayCichocki/relay/internal/registry"
	"github.com/ShayCichocki/relay/pkg/models"
)

// Executor runs a validated subtask plan in dependency order. Subtasks with
// satisfied dependencies run concurrently as one wave; all graph bookkeeping
// happens single-threaded between waves.
type Executor struct {
	reg     *registry.Registry
	emitter *EventEmitter
	// subtaskTimeout bounds a single agent invocation. Zero means no bound
	// beyond the turn context.
	subtaskTimeout time.Duration
}

// NewExecutor creates an Executor. The emitter may be nil.
func NewExecutor(reg *registry.Registry, emitter *EventEmitter, subtaskTimeout time.Duration) *Executor {
	return &Executor{
		reg:            reg,
		emitter:        emitter,
		subtaskTimeout: subtaskTimeout,
	}
}

// waveResult pairs a finished subtask with its outcome for bookkeeping.
type waveResult struct {
	seq    int
	result *models.AgentResult
}

// Execute runs the plan and returns one result per subtask, keyed by sequence
// number. Subtask failures do not abort the run; only context cancellation
// does, in which case partial results are discarded.
func (e *Executor) Execute(ctx context.Context, subtasks []*models.Subtask, base *models.AgentContext, session string) (map[int]*models.AgentResult, error) {
	g := graph.New()
	g.SetDebugLog(debugLog)
	if err := g.Build(subtasks); err != nil {
		return nil, &DecompositionError{Reason: "invalid dependency graph", Err: err}
	}

	results := make(map[int]*models.AgentResult, len(subtasks))

	for !g.AllTerminal() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		ready := g.Ready()
		if len(ready) == 0 {
			// Everything left is downstream of a failure.
			e.skipRemaining(g, results)
			break
		}

		for _, seq := range ready {
			g.SetState(seq, models.SubtaskStateReady)
			e.emit(Event{Type: EventSubtaskQueued, Phase: PhaseExecuting, Seq: seq, Agent: g.Subtask(seq).Agent})
		}

		var mu sync.Mutex
		var finished []waveResult

		eg, waveCtx := errgroup.WithContext(ctx)
		for _, seq := range ready {
			seq := seq
			st := g.Subtask(seq)
			g.SetState(seq, models.SubtaskStateRunning)
			e.emit(Event{Type: EventSubtaskStarted, Phase: PhaseExecuting, Seq: seq, Agent: st.Agent, Message: st.Description})

			input := e.contextFor(g, seq, base, results, session)

			eg.Go(func() error {
				res := e.runSubtask(waveCtx, st, input)
				mu.Lock()
				finished = append(finished, waveResult{seq: seq, result: res})
				mu.Unlock()
				return nil
			})
		}
		eg.Wait()

		if err := ctx.Err(); err != nil {
			return nil, err
		}

		for _, wr := range finished {
			results[wr.seq] = wr.result
			if wr.result.Success {
				g.SetState(wr.seq, models.SubtaskStateCompleted)
				e.emit(Event{Type: EventSubtaskCompleted, Phase: PhaseExecuting, Seq: wr.seq, Agent: wr.result.AgentID})
				continue
			}

			g.SetState(wr.seq, models.SubtaskStateFailed)
			e.emit(Event{
				Type:    EventSubtaskFailed,
				Phase:   PhaseExecuting,
				Seq:     wr.seq,
				Message: wr.result.Error,
				Err:     errors.New(wr.result.Error),
			})
			e.skipDependents(g, wr.seq, results)
		}
	}

	return results, nil
}

// runSubtask invokes the assigned agent and converts any error into a failed
// result so a single subtask can never abort the wave.
func (e *Executor) runSubtask(ctx context.Context, st *models.Subtask, input *models.AgentContext) *models.AgentResult {
	agent := e.reg.ByName(st.Agent)
	if agent == nil {
		return &models.AgentResult{
			TaskID:  uuid.New().String(),
			Success: false,
			Error:   fmt.Sprintf("no agent named %q", st.Agent),
		}
	}

	if e.subtaskTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.subtaskTimeout)
		defer cancel()
	}

	task := &models.AgentTask{
		ID:          uuid.New().String(),
		Description: st.Description,
		Required:    agent.Capabilities(),
		CreatedAt:   time.Now(),
	}

	res, err := agent.Process(ctx, task, input)
	if err != nil {
		debugLog("[executor] subtask %d (%s) failed: %v", st.Seq, st.Agent, err)
		return &models.AgentResult{
			AgentID: agent.ID(),
			TaskID:  task.ID,
			Success: false,
			Error:   err.Error(),
		}
	}
	return res
}

// contextFor builds the context snapshot for a subtask: the base context
// merged with each completed dependency's updated context, in ascending
// sequence order. Outputs flow to dependents only, never to siblings.
func (e *Executor) contextFor(g *graph.DependencyGraph, seq int, base *models.AgentContext, results map[int]*models.AgentResult, session string) *models.AgentContext {
	merged := base.Clone()
	merged.Metadata["session_id"] = session

	for _, dep := range g.Dependencies(seq) {
		res := results[dep]
		if res == nil || !res.Success {
			continue
		}
		if res.Updated != nil {
			merged = merged.Merge(res.Updated)
		}
		merged.Results[fmt.Sprintf("subtask-%d", dep)] = res.Content
	}
	return merged
}

// skipDependents marks everything downstream of a failed subtask as skipped.
// Skipped subtasks never reach their agent; their results record that they
// were not attempted rather than that they failed.
func (e *Executor) skipDependents(g *graph.DependencyGraph, failed int, results map[int]*models.AgentResult) {
	for _, dep := range g.TransitiveDependents(failed) {
		if g.State(dep).Terminal() {
			continue
		}
		g.SetState(dep, models.SubtaskStateSkipped)
		results[dep] = &models.AgentResult{
			Success: false,
			Skipped: true,
			Error:   fmt.Sprintf("skipped: depends on failed subtask %d", failed),
		}
		e.emit(Event{Type: EventSubtaskSkipped, Phase: PhaseExecuting, Seq: dep})
	}
}

// skipRemaining marks every unfinished subtask as skipped when no progress is
// possible.
func (e *Executor) skipRemaining(g *graph.DependencyGraph, results map[int]*models.AgentResult) {
	for _, seq := range g.Unfinished() {
		g.SetState(seq, models.SubtaskStateSkipped)
		if _, done := results[seq]; !done {
			results[seq] = &models.AgentResult{
				Success: false,
				Skipped: true,
				Error:   "skipped: dependencies never completed",
			}
		}
		e.emit(Event{Type: EventSubtaskSkipped, Phase: PhaseExecuting, Seq: seq})
	}
}

func (e *Executor) emit(event Event) {
	if e.emitter != nil {
		e.emitter.Emit(event)
	}
}
