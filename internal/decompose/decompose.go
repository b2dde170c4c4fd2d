// Package decompose turns coordinator output into a validated subtask list.
package decompose

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"

	"github.com/ShayCichocki/relay/internal/registry"
	"github.com/ShayCichocki/relay/pkg/models"
)

// MinDescriptionLength is the minimum meaningful subtask description length.
// Shorter descriptions are dropped before validation counts them.
const MinDescriptionLength = 10

// subtaskJSON is the JSON structure the coordinator is prompted to return.
type subtaskJSON struct {
	ID           int    `json:"id"`
	Description  string `json:"description"`
	Agent        string `json:"agent"`
	Dependencies []int  `json:"dependencies"`
}

// responseJSON is the envelope around the subtask array.
type responseJSON struct {
	Subtasks []subtaskJSON `json:"subtasks"`
}

// ParseResponse extracts a subtask list from coordinator output.
//
// The structured path looks for a fenced or bare JSON object with a
// "subtasks" array, repairing almost-JSON with jsonrepair before giving up.
// A JSON decomposition that references an unknown agent, a forward or
// dangling dependency, or contains no usable subtasks is a hard parse
// failure: the caller falls back to direct processing, not to the heuristic
// path. The heuristic path only runs when no JSON object can be decoded at
// all.
func ParseResponse(output string, reg *registry.Registry) ([]*models.Subtask, error) {
	parsed, found := decodeSubtaskJSON(output)
	if !found {
		return parseHeuristic(output, reg)
	}
	return validateStructured(parsed.Subtasks, reg)
}

// decodeSubtaskJSON locates and decodes the subtasks envelope.
// Returns found=false only when no candidate JSON object decodes.
func decodeSubtaskJSON(output string) (*responseJSON, bool) {
	for _, candidate := range jsonCandidates(output) {
		var parsed responseJSON
		if err := json.Unmarshal([]byte(candidate), &parsed); err == nil {
			if parsed.Subtasks != nil {
				return &parsed, true
			}
			continue
		}

		// Model output is frequently almost-JSON: trailing commas, single
		// quotes, unquoted keys. Repair before rejecting.
		repaired, err := jsonrepair.JSONRepair(candidate)
		if err != nil {
			continue
		}
		var parsed2 responseJSON
		if err := json.Unmarshal([]byte(repaired), &parsed2); err == nil && parsed2.Subtasks != nil {
			return &parsed2, true
		}
	}
	return nil, false
}

// jsonCandidates returns substrings of output likely to hold the subtasks
// object: fenced code blocks first, then the widest bare brace span.
func jsonCandidates(output string) []string {
	var candidates []string

	remaining := output
	for {
		start := strings.Index(remaining, "```")
		if start == -1 {
			break
		}
		body := remaining[start+3:]
		// Skip an optional language tag on the fence line.
		if nl := strings.IndexByte(body, '\n'); nl != -1 && nl < 20 {
			body = body[nl+1:]
		}
		end := strings.Index(body, "```")
		if end == -1 {
			break
		}
		block := strings.TrimSpace(body[:end])
		if strings.HasPrefix(block, "{") {
			candidates = append(candidates, block)
		}
		remaining = body[end+3:]
	}

	jsonStart := strings.Index(output, "{")
	jsonEnd := strings.LastIndex(output, "}")
	if jsonStart != -1 && jsonEnd > jsonStart {
		candidates = append(candidates, output[jsonStart:jsonEnd+1])
	}

	return candidates
}

// validateStructured checks agent references and dependency ordering, and
// drops descriptions below the meaningful minimum.
func validateStructured(raw []subtaskJSON, reg *registry.Registry) ([]*models.Subtask, error) {
	var subtasks []*models.Subtask
	defined := make(map[int]bool)

	for _, item := range raw {
		if len(strings.TrimSpace(item.Description)) < MinDescriptionLength {
			continue
		}

		if reg.ByName(item.Agent) == nil {
			return nil, fmt.Errorf("subtask %d references unknown agent %q", item.ID, item.Agent)
		}

		for _, dep := range item.Dependencies {
			// Only backward references are legal: a dependency must name a
			// subtask that appeared earlier in the array.
			if !defined[dep] {
				return nil, fmt.Errorf("subtask %d has forward or dangling dependency %d", item.ID, dep)
			}
		}
		if defined[item.ID] {
			return nil, fmt.Errorf("duplicate subtask id %d", item.ID)
		}

		defined[item.ID] = true
		subtasks = append(subtasks, &models.Subtask{
			Seq:         item.ID,
			Description: strings.TrimSpace(item.Description),
			Agent:       item.Agent,
			DependsOn:   append([]int{}, item.Dependencies...),
		})
	}

	if len(subtasks) == 0 {
		return nil, fmt.Errorf("decomposition contains no usable subtasks")
	}

	return subtasks, nil
}

// ValidateNoCycles checks that there are no circular dependencies among subtasks.
func ValidateNoCycles(subtasks []*models.Subtask) error {
	bySeq := make(map[int]*models.Subtask)
	for _, st := range subtasks {
		bySeq[st.Seq] = st
	}

	state := make(map[int]int) // 0=unvisited, 1=visiting, 2=visited

	var visit func(seq int, path []int) error
	visit = func(seq int, path []int) error {
		if state[seq] == 2 {
			return nil
		}
		if state[seq] == 1 {
			return fmt.Errorf("circular dependency detected at subtask %d (path %v)", seq, path)
		}

		state[seq] = 1
		if st := bySeq[seq]; st != nil {
			for _, dep := range st.DependsOn {
				if err := visit(dep, append(path, seq)); err != nil {
					return err
				}
			}
		}
		state[seq] = 2
		return nil
	}

	for _, st := range subtasks {
		if state[st.Seq] == 0 {
			if err := visit(st.Seq, nil); err != nil {
				return err
			}
		}
	}

	return nil
}
