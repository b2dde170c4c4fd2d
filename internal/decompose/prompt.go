package decompose

import (
	"fmt"
	"strings"

	"github.com/ShayCichocki/relay/internal/registry"
)

// decompositionPrompt is the prompt template for request decomposition.
const decompositionPrompt = `Break this user request into subtasks, each assigned to exactly one of the available agents.

User request:
%s

Available agents:
%s

Return ONLY a JSON object with this exact structure (no other text):
{
  "subtasks": [
    {
      "id": 1,
      "description": "What this subtask should accomplish",
      "agent": "AgentName",
      "dependencies": []
    }
  ]
}

Rules:
- "agent" must be one of the available agent names, spelled exactly as listed
- "id" values start at 1 and increase in order
- "dependencies" may only reference ids of EARLIER subtasks
- Subtasks should be as independent as possible so they can run in parallel
- Only add a dependency when one subtask genuinely needs another's output
- Keep the list short: one subtask per distinct piece of work, no filler steps
- If the request is simple enough for one agent, return a single subtask`

// BuildPrompt renders the decomposition prompt for a request against the
// current agent roster.
func BuildPrompt(request string, reg *registry.Registry) string {
	var roster strings.Builder
	for _, a := range reg.All() {
		fmt.Fprintf(&roster, "- %s: %s\n", a.Name(), a.Description())
	}
	return fmt.Sprintf(decompositionPrompt, request, strings.TrimRight(roster.String(), "\n"))
}
