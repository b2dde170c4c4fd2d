package decompose

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ShayCichocki/relay/internal/registry"
	"github.com/ShayCichocki/relay/pkg/models"
)

// linePattern matches numbered ("1." / "2)") and bulleted ("-", "*") lines.
var linePattern = regexp.MustCompile(`^\s*(?:\d+[.)]\s+|[-*]\s+)(.+)$`)

// orderingWords signal that a line continues from the previous one.
var orderingWords = []string{"then", "after", "afterwards", "next,", "finally"}

// parseHeuristic is the best-effort degrade when the coordinator produced no
// decodable JSON. It splits free text into numbered or bulleted lines and
// assigns each to the agent whose description overlaps it most. Subtasks
// default to independent; a line opening with ordering language depends on
// the line before it.
func parseHeuristic(output string, reg *registry.Registry) ([]*models.Subtask, error) {
	var subtasks []*models.Subtask
	seq := 0

	for _, line := range strings.Split(output, "\n") {
		match := linePattern.FindStringSubmatch(line)
		if match == nil {
			continue
		}
		text := strings.TrimSpace(match[1])
		if len(text) < MinDescriptionLength {
			continue
		}

		agent := bestAgentFor(text, reg)
		if agent == nil {
			continue
		}

		seq++
		st := &models.Subtask{
			Seq:         seq,
			Description: text,
			Agent:       agent.Name(),
		}
		if seq > 1 && startsWithOrdering(text) {
			st.DependsOn = []int{seq - 1}
		}
		subtasks = append(subtasks, st)
	}

	if len(subtasks) == 0 {
		return nil, fmt.Errorf("no subtasks recognized in coordinator output")
	}

	return subtasks, nil
}

// bestAgentFor picks the agent whose name and description share the most
// words with the line. Falls back to a general-reasoning agent when nothing
// overlaps; returns nil when there is no such agent either.
func bestAgentFor(text string, reg *registry.Registry) registry.Agent {
	lineWords := keywordSet(text)

	var best registry.Agent
	bestScore := 0
	for _, a := range reg.All() {
		agentWords := keywordSet(a.Name() + " " + a.Description())
		score := 0
		for word := range agentWords {
			for lineWord := range lineWords {
				if wordsMatch(word, lineWord) {
					score++
					break
				}
			}
		}
		if score > bestScore {
			best = a
			bestScore = score
		}
	}
	if best != nil {
		return best
	}

	if general := reg.ByCapability(models.CapabilityGeneralReasoning); len(general) > 0 {
		return general[0]
	}
	return nil
}

// wordsMatch treats two keywords as equivalent when one is a prefix of the
// other, so "search" lines still match an agent described as "searches".
func wordsMatch(a, b string) bool {
	return strings.HasPrefix(a, b) || strings.HasPrefix(b, a)
}

// keywordSet lowercases and splits text into words of four or more letters,
// the shorter ones being too common to signal anything.
func keywordSet(text string) map[string]bool {
	words := make(map[string]bool)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		word = strings.Trim(word, ".,;:!?()'\"")
		if len(word) >= 4 {
			words[word] = true
		}
	}
	return words
}

func startsWithOrdering(text string) bool {
	lower := strings.ToLower(text)
	for _, w := range orderingWords {
		if strings.HasPrefix(lower, w) {
			return true
		}
	}
	return false
}
