// Package graph provides the dependency graph the executor schedules from.
package graph

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/ShayCichocki/relay/pkg/models"
)

// ErrCycleDetected indicates a circular dependency was found in the subtask graph.
var ErrCycleDetected = errors.New("circular dependency detected")

// DependencyGraph is a directed acyclic graph of subtasks keyed by sequence
// number. Edges represent "blocked by" relationships. The graph is derived
// from a decomposition per turn and discarded afterwards.
type DependencyGraph struct {
	mu sync.RWMutex
	// nodes maps sequence number to the subtask itself.
	nodes map[int]*models.Subtask
	// edges maps sequence number to the sequence numbers it depends on.
	edges map[int][]int
	// states tracks the scheduling state of each node.
	states map[int]models.SubtaskState
	// debugLog is an optional logging function.
	debugLog func(format string, args ...interface{})
}

// New creates a new empty dependency graph.
func New() *DependencyGraph {
	return &DependencyGraph{
		nodes:    make(map[int]*models.Subtask),
		edges:    make(map[int][]int),
		states:   make(map[int]models.SubtaskState),
		debugLog: func(format string, args ...interface{}) {},
	}
}

// SetDebugLog sets the debug logging function.
func (g *DependencyGraph) SetDebugLog(fn func(format string, args ...interface{})) {
	if fn != nil {
		g.debugLog = fn
	}
}

// Build constructs the graph from a decomposition. Returns an error if a
// dependency references an unknown subtask or a cycle is detected; either is
// a decomposition error, not a runtime failure.
func (g *DependencyGraph) Build(subtasks []*models.Subtask) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.debugLog("[graph.Build] building graph from %d subtasks", len(subtasks))

	for _, st := range subtasks {
		if _, exists := g.nodes[st.Seq]; exists {
			return fmt.Errorf("duplicate subtask id %d", st.Seq)
		}
		g.nodes[st.Seq] = st
		g.edges[st.Seq] = nil
		g.states[st.Seq] = models.SubtaskStatePending
	}

	for _, st := range subtasks {
		for _, dep := range st.DependsOn {
			if _, exists := g.nodes[dep]; !exists {
				return fmt.Errorf("subtask %d depends on unknown subtask %d", st.Seq, dep)
			}
			g.edges[st.Seq] = append(g.edges[st.Seq], dep)
		}
	}

	if g.hasCycleLocked() {
		return ErrCycleDetected
	}

	g.debugLog("[graph.Build] graph built with %d nodes", len(g.nodes))
	return nil
}

// HasCycle returns true if the graph contains a circular dependency.
// Uses depth-first search with coloring to detect back edges.
func (g *DependencyGraph) HasCycle() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.hasCycleLocked()
}

// hasCycleLocked is the internal implementation that assumes the lock is held.
func (g *DependencyGraph) hasCycleLocked() bool {
	// Color states: 0 = white (unvisited), 1 = gray (in progress), 2 = black (done).
	colors := make(map[int]int, len(g.nodes))

	var visit func(seq int) bool
	visit = func(seq int) bool {
		colors[seq] = 1

		for _, dep := range g.edges[seq] {
			switch colors[dep] {
			case 1:
				// Back edge, cycle found.
				return true
			case 0:
				if visit(dep) {
					return true
				}
			}
		}

		colors[seq] = 2
		return false
	}

	for seq := range g.nodes {
		if colors[seq] == 0 {
			if visit(seq) {
				return true
			}
		}
	}
	return false
}

// TopologicalSort returns sequence numbers ordered so every dependency comes
// before the subtasks that depend on it. Ties break on ascending sequence
// number so the order is deterministic.
func (g *DependencyGraph) TopologicalSort() ([]int, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if g.hasCycleLocked() {
		return nil, ErrCycleDetected
	}

	seqs := make([]int, 0, len(g.nodes))
	for seq := range g.nodes {
		seqs = append(seqs, seq)
	}
	sort.Ints(seqs)

	visited := make(map[int]bool, len(g.nodes))
	var result []int

	var visit func(seq int)
	visit = func(seq int) {
		if visited[seq] {
			return
		}
		visited[seq] = true

		deps := append([]int{}, g.edges[seq]...)
		sort.Ints(deps)
		for _, dep := range deps {
			visit(dep)
		}

		result = append(result, seq)
	}

	for _, seq := range seqs {
		visit(seq)
	}

	return result, nil
}

// Ready returns sequence numbers whose dependencies are all completed and
// that have not started, in ascending order. These form the next wave.
func (g *DependencyGraph) Ready() []int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var ready []int
	for seq := range g.nodes {
		if g.states[seq] != models.SubtaskStatePending && g.states[seq] != models.SubtaskStateReady {
			continue
		}

		allDepsComplete := true
		for _, dep := range g.edges[seq] {
			if g.states[dep] != models.SubtaskStateCompleted {
				allDepsComplete = false
				break
			}
		}

		if allDepsComplete {
			ready = append(ready, seq)
		}
	}

	sort.Ints(ready)
	g.debugLog("[graph.Ready] %d ready: %v", len(ready), ready)
	return ready
}

// SetState records the scheduling state of a subtask.
func (g *DependencyGraph) SetState(seq int, state models.SubtaskState) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, exists := g.nodes[seq]; exists {
		g.states[seq] = state
	}
}

// State returns the current state of a subtask, or empty string if unknown.
func (g *DependencyGraph) State(seq int) models.SubtaskState {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.states[seq]
}

// States returns a copy of the state map, for progress reporting.
func (g *DependencyGraph) States() map[int]models.SubtaskState {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make(map[int]models.SubtaskState, len(g.states))
	for seq, state := range g.states {
		out[seq] = state
	}
	return out
}

// Subtask returns the subtask for a sequence number, or nil if not found.
func (g *DependencyGraph) Subtask(seq int) *models.Subtask {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.nodes[seq]
}

// Size returns the number of subtasks in the graph.
func (g *DependencyGraph) Size() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.nodes)
}

// Dependencies returns the sequence numbers the given subtask depends on.
func (g *DependencyGraph) Dependencies(seq int) []int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]int{}, g.edges[seq]...)
}

// Dependents returns the sequence numbers that depend on the given subtask,
// directly only.
func (g *DependencyGraph) Dependents(seq int) []int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var dependents []int
	for other, deps := range g.edges {
		for _, dep := range deps {
			if dep == seq {
				dependents = append(dependents, other)
				break
			}
		}
	}
	sort.Ints(dependents)
	return dependents
}

// TransitiveDependents returns every subtask downstream of seq, directly or
// through intermediate subtasks.
func (g *DependencyGraph) TransitiveDependents(seq int) []int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	seen := make(map[int]bool)
	frontier := []int{seq}
	for len(frontier) > 0 {
		current := frontier[0]
		frontier = frontier[1:]

		for other, deps := range g.edges {
			for _, dep := range deps {
				if dep == current && !seen[other] {
					seen[other] = true
					frontier = append(frontier, other)
					break
				}
			}
		}
	}

	out := make([]int, 0, len(seen))
	for other := range seen {
		out = append(out, other)
	}
	sort.Ints(out)
	return out
}

// AllTerminal returns true once every subtask is completed, failed, or skipped.
func (g *DependencyGraph) AllTerminal() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()

	for seq := range g.nodes {
		if !g.states[seq].Terminal() {
			return false
		}
	}
	return true
}

// Unfinished returns the sequence numbers not yet in a terminal state, in
// ascending order.
func (g *DependencyGraph) Unfinished() []int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var out []int
	for seq := range g.nodes {
		if !g.states[seq].Terminal() {
			out = append(out, seq)
		}
	}
	sort.Ints(out)
	return out
}
