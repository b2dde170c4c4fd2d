package orchestrator

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/ShayCichocki/relay/internal/api"
	"github.com/ShayCichocki/relay/pkg/models"
)

const synthesisSystem = `You are combining the outputs of several specialized agents into one answer.
Write a single coherent response to the user's original request.
Use only the evidence provided. Where a step failed or was skipped, work with what remains and say what is missing.
Do not mention the agents or the steps themselves unless the user asked about them.`

// Synthesizer combines subtask results into the final answer using the
// coordinator's reasoning capability.
type Synthesizer struct {
	runner api.Runner
}

// NewSynthesizer creates a Synthesizer bound to a model runner.
func NewSynthesizer(runner api.Runner) *Synthesizer {
	return &Synthesizer{runner: runner}
}

// Synthesize produces the final answer for a request from its subtask
// results. The coordinator is invoked even when every subtask failed or was
// skipped; the prompt flags total failure so it can apologize or answer from
// general knowledge instead of inventing evidence.
func (s *Synthesizer) Synthesize(ctx context.Context, request string, subtasks []*models.Subtask, results map[int]*models.AgentResult) (string, error) {
	prompt := BuildSynthesisPrompt(request, subtasks, results)
	answer, err := s.runner.Respond(ctx, synthesisSystem, prompt)
	if err != nil {
		return "", err
	}
	return answer, nil
}

// BuildSynthesisPrompt renders the request and every subtask outcome as
// evidence, in ascending sequence order, each tagged with its status. When
// no subtask succeeded the prompt states that outright.
func BuildSynthesisPrompt(request string, subtasks []*models.Subtask, results map[int]*models.AgentResult) string {
	ordered := append([]*models.Subtask{}, subtasks...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Seq < ordered[j].Seq })

	anySuccess := false
	for _, st := range ordered {
		if res := results[st.Seq]; res != nil && res.Success {
			anySuccess = true
			break
		}
	}

	var out strings.Builder
	fmt.Fprintf(&out, "Original request:\n%s\n\n", request)
	if !anySuccess {
		out.WriteString("None of the steps produced a result. Answer from your own knowledge where you can, and say plainly what could not be done.\n\n")
	}
	out.WriteString("Evidence from the steps taken:\n")

	for _, st := range ordered {
		res := results[st.Seq]
		status := "no result"
		body := ""
		switch {
		case res == nil:
		case res.Skipped:
			status = "skipped"
			body = res.Error
		case res.Success:
			status = "succeeded"
			body = res.Content
		default:
			status = "failed"
			body = res.Error
		}

		fmt.Fprintf(&out, "\n## Step %d [%s] (%s): %s\n", st.Seq, status, st.Agent, st.Description)
		if body != "" {
			out.WriteString(body)
			out.WriteString("\n")
		}
	}

	out.WriteString("\nWrite the final answer to the original request.")
	return out.String()
}
