// Package registry holds the set of available agents.
package registry

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/ShayCichocki/relay/pkg/models"
)

// Agent is a capability-tagged unit that can process a task and produce a
// result, optionally invoking tools. Implementations must be safe for
// concurrent Process calls.
type Agent interface {
	// ID returns the stable unique identity of the agent.
	ID() string
	// Name returns the human-readable name used in decompositions.
	Name() string
	// Description explains what the agent is good at; the parser's fallback
	// path matches subtask text against it.
	Description() string
	// Capabilities returns the capability set the agent declares.
	Capabilities() []models.Capability
	// Process executes the task against the given context snapshot.
	Process(ctx context.Context, task *models.AgentTask, actx *models.AgentContext) (*models.AgentResult, error)
}

// Registry is the source of truth for what agents exist. Agents are
// registered once at startup and the registry is immutable afterwards by
// convention; it is constructed explicitly and passed by reference, never
// accessed through a global.
type Registry struct {
	mu      sync.RWMutex
	byID    map[string]Agent
	byName  map[string]Agent
	ordered []Agent
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{
		byID:   make(map[string]Agent),
		byName: make(map[string]Agent),
	}
}

// Register adds an agent. Returns an error if the ID or name is already taken.
func (r *Registry) Register(a Agent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[a.ID()]; exists {
		return fmt.Errorf("agent ID %q already registered", a.ID())
	}
	if _, exists := r.byName[a.Name()]; exists {
		return fmt.Errorf("agent name %q already registered", a.Name())
	}

	r.byID[a.ID()] = a
	r.byName[a.Name()] = a
	r.ordered = append(r.ordered, a)
	return nil
}

// ByID returns the agent with the given identity, or nil.
func (r *Registry) ByID(id string) Agent {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byID[id]
}

// ByName returns the agent with the given name (case-sensitive), or nil.
func (r *Registry) ByName(name string) Agent {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byName[name]
}

// ByCapability returns all agents declaring the given capability, in
// registration order.
func (r *Registry) ByCapability(c models.Capability) []Agent {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []Agent
	for _, a := range r.ordered {
		if models.HasCapability(a.Capabilities(), c) {
			matched = append(matched, a)
		}
	}
	return matched
}

// All returns every registered agent in registration order.
func (r *Registry) All() []Agent {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Agent{}, r.ordered...)
}

// Names returns the sorted names of all registered agents.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Count returns the number of registered agents.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.ordered)
}
