package orchestrator

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ShayCichocki/relay/internal/delegate"
	"github.com/ShayCichocki/relay/pkg/models"
)

func newTestOrchestrator(t *testing.T, runner *scriptRunner, agents ...*stubAgent) *Orchestrator {
	t.Helper()
	o, err := New(Config{
		Registry:       testRegistry(t, agents...),
		Runner:         runner,
		UseCoordinator: true,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return o
}

func TestProcessRequestDirectBypassesPlanning(t *testing.T) {
	runner := &scriptRunner{}
	coord := newStubAgent("coordinator")
	searcher := newStubAgent("searcher", models.CapabilityWebSearch)

	o := newTestOrchestrator(t, runner, coord, searcher)
	turn, err := o.ProcessRequest(context.Background(), "Hello")
	if err != nil {
		t.Fatalf("ProcessRequest: %v", err)
	}

	if turn.Mode != delegate.ModeDirect {
		t.Fatalf("mode = %s, want direct", turn.Mode)
	}
	if len(runner.prompts) != 0 {
		t.Errorf("planning model must never be called for a greeting, got %d calls", len(runner.prompts))
	}
	if len(coord.calls()) != 1 || coord.calls()[0] != "Hello" {
		t.Errorf("coordinator should answer directly, calls = %v", coord.calls())
	}
	if turn.Subtasks != nil {
		t.Errorf("direct turn should carry no plan: %v", turn.Subtasks)
	}
	if o.Phase() != PhaseDone {
		t.Errorf("phase = %s, want done", o.Phase())
	}
}

func TestProcessRequestWebSearchScenario(t *testing.T) {
	plan := `{"subtasks": [
		{"id": 1, "description": "Search the web for Go release news", "agent": "searcher", "dependencies": []}
	]}`
	runner := &scriptRunner{responses: []string{plan, "Go 1.23 was released, per the search results."}}

	coord := newStubAgent("coordinator")
	searcher := newStubAgent("searcher", models.CapabilityWebSearch)

	o := newTestOrchestrator(t, runner, coord, searcher)
	turn, err := o.ProcessRequest(context.Background(), "Search the web for Go release news and summarize it")
	if err != nil {
		t.Fatalf("ProcessRequest: %v", err)
	}

	if turn.Mode != delegate.ModeDelegate {
		t.Fatalf("mode = %s, want delegate", turn.Mode)
	}
	if len(turn.Subtasks) != 1 || turn.Subtasks[0].Agent != "searcher" {
		t.Fatalf("plan = %+v, want one searcher subtask", turn.Subtasks)
	}
	if len(turn.Subtasks[0].DependsOn) != 0 {
		t.Errorf("single subtask should have no dependencies: %v", turn.Subtasks[0].DependsOn)
	}
	if len(searcher.calls()) != 1 {
		t.Fatalf("searcher calls = %v", searcher.calls())
	}
	if turn.Answer == "" {
		t.Fatal("synthesis produced an empty answer")
	}
	// The synthesis prompt must have carried the searcher's output.
	synthesisPrompt := runner.prompts[len(runner.prompts)-1]
	if !strings.Contains(synthesisPrompt, "output of Search the web for Go release news") {
		t.Errorf("synthesis prompt missing subtask output:\n%s", synthesisPrompt)
	}
}

func TestProcessRequestProsePlanFallsBackToDirect(t *testing.T) {
	runner := &scriptRunner{responses: []string{"I think you should just look it up yourself, honestly."}}
	coord := newStubAgent("coordinator")
	searcher := newStubAgent("searcher", models.CapabilityWebSearch)

	o := newTestOrchestrator(t, runner, coord, searcher)
	turn, err := o.ProcessRequest(context.Background(), "Compare three storage engines and recommend one for analytics")
	if err != nil {
		t.Fatalf("fallback should recover, got %v", err)
	}

	if turn.Mode != delegate.ModeDirect {
		t.Fatalf("mode = %s, want direct fallback", turn.Mode)
	}
	if len(coord.calls()) != 1 {
		t.Errorf("coordinator should have answered directly, calls = %v", coord.calls())
	}
}

func TestProcessRequestCyclicPlanFallsBackToDirect(t *testing.T) {
	plan := `{"subtasks": [
		{"id": 1, "description": "First step of the loop", "agent": "coordinator", "dependencies": [2]},
		{"id": 2, "description": "Second step of the loop", "agent": "coordinator", "dependencies": [1]}
	]}`
	runner := &scriptRunner{responses: []string{plan}}
	coord := newStubAgent("coordinator")
	searcher := newStubAgent("searcher", models.CapabilityWebSearch)

	o := newTestOrchestrator(t, runner, coord, searcher)
	turn, err := o.ProcessRequest(context.Background(), "Write a detailed report about dependency cycles")
	if err != nil {
		t.Fatalf("fallback should recover, got %v", err)
	}
	if turn.Mode != delegate.ModeDirect {
		t.Fatalf("mode = %s, want direct fallback", turn.Mode)
	}
}

func TestProcessRequestBackendUnavailableAborts(t *testing.T) {
	runner := &scriptRunner{errs: []error{errors.New("dial tcp: connection refused")}}
	coord := newStubAgent("coordinator")
	searcher := newStubAgent("searcher", models.CapabilityWebSearch)

	o := newTestOrchestrator(t, runner, coord, searcher)
	_, err := o.ProcessRequest(context.Background(), "Research something that needs the model backend")

	var be *BackendUnavailableError
	if !errors.As(err, &be) {
		t.Fatalf("want BackendUnavailableError, got %v", err)
	}
	if be.Friendly == "" {
		t.Error("backend error must carry a friendly message")
	}
	if o.Phase() != PhaseErrored {
		t.Errorf("phase = %s, want errored", o.Phase())
	}
}

func TestProcessRequestCoordinatorDisabled(t *testing.T) {
	runner := &scriptRunner{}
	coord := newStubAgent("coordinator")
	searcher := newStubAgent("searcher", models.CapabilityWebSearch)

	o, err := New(Config{
		Registry: testRegistry(t, coord, searcher),
		Runner:   runner,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	turn, err := o.ProcessRequest(context.Background(), "Search the web for something and summarize the findings")
	if err != nil {
		t.Fatalf("ProcessRequest: %v", err)
	}
	if turn.Mode != delegate.ModeDirect {
		t.Fatalf("mode = %s, want direct when coordinator is disabled", turn.Mode)
	}
	if len(runner.prompts) != 0 {
		t.Error("planning model must not be called when the coordinator is disabled")
	}
}

func TestProcessRequestSynthesisFailureDegradesToJoin(t *testing.T) {
	plan := `{"subtasks": [
		{"id": 1, "description": "Search the web for benchmarks", "agent": "searcher", "dependencies": []}
	]}`
	runner := &scriptRunner{
		responses: []string{plan, ""},
		errs:      []error{nil, errors.New("malformed response body")},
	}
	coord := newStubAgent("coordinator")
	searcher := newStubAgent("searcher", models.CapabilityWebSearch)

	o := newTestOrchestrator(t, runner, coord, searcher)
	turn, err := o.ProcessRequest(context.Background(), "Search the web for benchmarks and summarize them")
	if err != nil {
		t.Fatalf("a flaky synthesis call must not fail the turn: %v", err)
	}
	if !strings.Contains(turn.Answer, "output of Search the web for benchmarks") {
		t.Errorf("degraded answer should carry the raw results: %q", turn.Answer)
	}
}

func TestNewRequiresRegistryAndRunner(t *testing.T) {
	if _, err := New(Config{Runner: &scriptRunner{}}); err == nil {
		t.Error("missing registry should be rejected")
	}
	if _, err := New(Config{Registry: testRegistry(t)}); err == nil {
		t.Error("missing runner should be rejected")
	}
}

func TestClassifyBackendError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		backend bool
	}{
		{"overloaded", errors.New("api error 529: overloaded"), true},
		{"network", errors.New("dial tcp 1.2.3.4: no such host"), true},
		{"auth", errors.New("401 invalid api key"), true},
		{"safety", errors.New("request blocked by content policy"), true},
		{"ordinary", errors.New("json: cannot unmarshal"), false},
		{"nil", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyBackendError(tt.err)
			if (got != nil) != tt.backend {
				t.Errorf("classifyBackendError(%v) = %v, want backend=%v", tt.err, got, tt.backend)
			}
			if got != nil && got.Friendly == "" {
				t.Error("classified error missing friendly message")
			}
		})
	}
}

func TestEventEmitterDropsWhenFull(t *testing.T) {
	emitter := NewEventEmitter(1)
	emitter.Emit(Event{Type: EventPhaseChanged})
	emitter.Emit(Event{Type: EventPhaseChanged})

	if emitter.DroppedCount() != 1 {
		t.Errorf("dropped = %d, want 1", emitter.DroppedCount())
	}
}
