package decompose

import (
	"strings"

	"github.com/ShayCichocki/relay/internal/registry"
	"github.com/ShayCichocki/relay/pkg/models"
)

// overlapThreshold is the word-overlap ratio above which two descriptions
// targeting the same agent count as duplicate intent.
const overlapThreshold = 0.8

// capabilityKeywords maps description keywords to the capability they imply.
// Used to drop subtasks routed to an agent that cannot possibly serve them.
var capabilityKeywords = map[models.Capability][]string{
	models.CapabilityWebSearch:     {"search", "web", "online", "internet", "latest", "news"},
	models.CapabilityFileReading:   {"file", "read", "document", "open", "contents"},
	models.CapabilityCodeAnalysis:  {"code", "function", "bug", "repository", "refactor", "compile"},
	models.CapabilityDataAnalysis:  {"data", "csv", "statistics", "average", "dataset"},
	models.CapabilityImageAnalysis: {"image", "photo", "picture", "screenshot", "diagram"},
}

// Prune removes redundant subtasks before scheduling. It is a pure pass:
// inputs are not mutated, and running it on its own output is a no-op.
//
// Rules, in order: drop a subtask whose description near-duplicates an
// earlier subtask targeting the same agent; drop a subtask with no assigned
// or unknown agent; drop a subtask whose agent declares none of the
// capabilities its description implies. Dependency references to pruned
// subtasks are stripped, not cascaded as failures, so the graph stays valid.
func Prune(subtasks []*models.Subtask, reg *registry.Registry) []*models.Subtask {
	var kept []*models.Subtask
	surviving := make(map[int]bool)

	for _, st := range subtasks {
		if st.Agent == "" {
			continue
		}
		agent := reg.ByName(st.Agent)
		if agent == nil {
			continue
		}

		if duplicatesEarlier(st, kept) {
			continue
		}

		if implied := impliedCapabilities(st.Description); len(implied) > 0 {
			if !declaresAny(agent, implied) {
				continue
			}
		}

		surviving[st.Seq] = true
		kept = append(kept, st)
	}

	// Rewrite dependency sets against the surviving subtasks only.
	out := make([]*models.Subtask, 0, len(kept))
	for _, st := range kept {
		var deps []int
		for _, dep := range st.DependsOn {
			if surviving[dep] {
				deps = append(deps, dep)
			}
		}
		out = append(out, &models.Subtask{
			Seq:         st.Seq,
			Description: st.Description,
			Agent:       st.Agent,
			DependsOn:   deps,
		})
	}

	return out
}

// duplicatesEarlier reports whether st repeats the intent of an already-kept
// subtask assigned to the same agent.
func duplicatesEarlier(st *models.Subtask, kept []*models.Subtask) bool {
	desc := strings.ToLower(strings.TrimSpace(st.Description))
	for _, earlier := range kept {
		if earlier.Agent != st.Agent {
			continue
		}
		earlierDesc := strings.ToLower(strings.TrimSpace(earlier.Description))
		if strings.Contains(earlierDesc, desc) || strings.Contains(desc, earlierDesc) {
			return true
		}
		if wordOverlap(desc, earlierDesc) >= overlapThreshold {
			return true
		}
	}
	return false
}

// wordOverlap returns the Jaccard ratio of the two descriptions' word sets.
func wordOverlap(a, b string) float64 {
	setA := keywordSet(a)
	setB := keywordSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	shared := 0
	for word := range setA {
		if setB[word] {
			shared++
		}
	}
	union := len(setA) + len(setB) - shared
	return float64(shared) / float64(union)
}

// impliedCapabilities returns the capabilities a description's keywords point at.
func impliedCapabilities(description string) []models.Capability {
	words := keywordSet(description)
	lower := strings.ToLower(description)

	var implied []models.Capability
	for capability, keywords := range capabilityKeywords {
		for _, kw := range keywords {
			if words[kw] || (len(kw) < 4 && strings.Contains(lower, kw)) {
				implied = append(implied, capability)
				break
			}
		}
	}
	return implied
}

func declaresAny(agent registry.Agent, wanted []models.Capability) bool {
	for _, c := range wanted {
		if models.HasCapability(agent.Capabilities(), c) {
			return true
		}
	}
	// General reasoning agents can take any leftover work.
	return models.HasCapability(agent.Capabilities(), models.CapabilityGeneralReasoning)
}
