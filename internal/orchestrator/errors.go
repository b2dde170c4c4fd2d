package orchestrator

import (
	"fmt"
	"strings"
)

// DecompositionError marks a plan that could not be turned into a runnable
// graph: malformed structured output, an unknown agent reference, or a cycle.
// It is recovered locally by falling back to direct processing and never
// reaches the user as an error.
type DecompositionError struct {
	Reason string
	Err    error
}

func (e *DecompositionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decomposition failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("decomposition failed: %s", e.Reason)
}

func (e *DecompositionError) Unwrap() error { return e.Err }

// BackendUnavailableError means the model capability itself cannot be
// reached. It is the only error class that aborts a turn.
type BackendUnavailableError struct {
	// Friendly is the user-facing message.
	Friendly string
	// Err is the underlying transport or API error.
	Err error
}

func (e *BackendUnavailableError) Error() string {
	return fmt.Sprintf("model backend unavailable: %v", e.Err)
}

func (e *BackendUnavailableError) Unwrap() error { return e.Err }

// backendPatterns maps error-text keywords to canned user-facing messages.
// Matching on text is lossy but the underlying SDK errors carry no stable
// machine-readable class across transports.
var backendPatterns = []struct {
	keywords []string
	friendly string
}{
	{
		keywords: []string{"overloaded", "unavailable", "529", "503", "rate limit", "too many requests"},
		friendly: "The model service is temporarily unavailable. Please try again in a moment.",
	},
	{
		keywords: []string{"network", "connection", "dial tcp", "no such host", "timeout", "deadline exceeded"},
		friendly: "Could not reach the model service. Check your network connection and try again.",
	},
	{
		keywords: []string{"safety", "content policy", "blocked"},
		friendly: "The request was declined by the model's safety system. Try rephrasing it.",
	},
	{
		keywords: []string{"authentication", "api key", "401", "permission"},
		friendly: "Authentication with the model service failed. Check your API key configuration.",
	},
}

// classifyBackendError inspects an error's text for signs the backend itself
// is unreachable. It returns a BackendUnavailableError with a friendly
// message, or nil when the error does not look like a backend outage.
func classifyBackendError(err error) *BackendUnavailableError {
	if err == nil {
		return nil
	}

	text := strings.ToLower(err.Error())
	for _, p := range backendPatterns {
		for _, kw := range p.keywords {
			if strings.Contains(text, kw) {
				return &BackendUnavailableError{Friendly: p.friendly, Err: err}
			}
		}
	}
	return nil
}
