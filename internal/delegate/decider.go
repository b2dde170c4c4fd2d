// Package delegate decides whether a request is answered directly or decomposed.
package delegate

import (
	"strings"

	"github.com/ShayCichocki/relay/internal/registry"
	"github.com/ShayCichocki/relay/pkg/models"
)

// MinDelegateLength is the request length below which decomposition is never
// worth the latency.
const MinDelegateLength = 24

// conversationalPatterns are openings that mark small talk rather than work.
var conversationalPatterns = []string{
	"hello",
	"hi",
	"hey",
	"thanks",
	"thank you",
	"ok",
	"okay",
	"good morning",
	"good evening",
	"goodbye",
	"bye",
	"got it",
	"sounds good",
	"yes",
	"no",
}

// Mode is the outcome of a delegation decision.
type Mode string

const (
	// ModeDirect routes the request to a single agent without decomposition.
	ModeDirect Mode = "direct"
	// ModeDelegate routes the request through decomposition.
	ModeDelegate Mode = "delegate"
)

// Decision is the result of Decide. When Mode is ModeDirect, AgentID names
// the agent that should answer.
type Decision struct {
	Mode    Mode
	AgentID string
}

// Decider encodes the "is this complex enough to split up" heuristic.
// Deliberately conservative: skipping a decomposition costs a slightly worse
// answer, decomposing a greeting costs seconds of latency and several model
// calls, so every ambiguous case degrades to direct.
type Decider struct {
	minLength int
	patterns  []string
}

// NewDecider creates a Decider with the default thresholds.
func NewDecider() *Decider {
	return &Decider{
		minLength: MinDelegateLength,
		patterns:  append([]string{}, conversationalPatterns...),
	}
}

// Decide picks direct or delegated processing for a request. It never fails;
// with an empty registry it still returns a direct decision and leaves the
// missing-agent problem to the caller.
func (d *Decider) Decide(request string, reg *registry.Registry) Decision {
	// A roster of one leaves nothing to delegate between.
	if reg.Count() <= 1 {
		return d.direct(reg)
	}

	trimmed := strings.TrimSpace(request)
	if len(trimmed) < d.minLength {
		return d.direct(reg)
	}

	if d.isConversational(trimmed) {
		return d.direct(reg)
	}

	return Decision{Mode: ModeDelegate}
}

// isConversational reports whether the request is a greeting or acknowledgement.
func (d *Decider) isConversational(request string) bool {
	lower := strings.ToLower(strings.Trim(request, " \t.!?,"))
	for _, pattern := range d.patterns {
		if lower == pattern || strings.HasPrefix(lower, pattern+" ") || strings.HasPrefix(lower, pattern+",") {
			return true
		}
	}
	return false
}

// direct selects the agent for a direct answer: a general-reasoning agent
// when one exists, otherwise the first registered agent.
func (d *Decider) direct(reg *registry.Registry) Decision {
	if general := reg.ByCapability(models.CapabilityGeneralReasoning); len(general) > 0 {
		return Decision{Mode: ModeDirect, AgentID: general[0].ID()}
	}
	if all := reg.All(); len(all) > 0 {
		return Decision{Mode: ModeDirect, AgentID: all[0].ID()}
	}
	return Decision{Mode: ModeDirect}
}
