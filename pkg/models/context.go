package models

// Message is one turn of conversation history.
type Message struct {
	// Role is "user" or "assistant".
	Role string `json:"role"`
	// Content is the message text.
	Content string `json:"content"`
}

// RetrievedChunk is a piece of retrieval-augmented content attached to a context.
type RetrievedChunk struct {
	// Source identifies where the chunk came from (file path, URL, index name).
	Source string `json:"source"`
	// Text is the chunk content.
	Text string `json:"text"`
	// Score is the retrieval relevance score, if the retriever provides one.
	Score float64 `json:"score,omitempty"`
}

// AgentContext is the evidence a subtask executes against. The executor
// treats contexts as immutable snapshots: each subtask receives the
// coordinator's context merged with the outputs of its completed
// dependencies, and any context it returns is merged forward for its
// dependents only. Producing new snapshots instead of mutating shared state
// keeps concurrent branches race-free.
type AgentContext struct {
	// History is the conversation so far.
	History []Message `json:"history,omitempty"`
	// Results maps a label (usually "subtask-N" or a tool name) to output text.
	Results map[string]string `json:"results,omitempty"`
	// Files lists file references relevant to the task.
	Files []string `json:"files,omitempty"`
	// Metadata carries free-form key/value annotations.
	Metadata map[string]string `json:"metadata,omitempty"`
	// Chunks holds retrieval-augmented content, if a retriever ran.
	Chunks []RetrievedChunk `json:"chunks,omitempty"`
}

// NewAgentContext returns an empty context with allocated maps.
func NewAgentContext() *AgentContext {
	return &AgentContext{
		Results:  make(map[string]string),
		Metadata: make(map[string]string),
	}
}

// Clone returns a deep copy of the context. A nil receiver clones to an
// empty context so callers never share the zero value.
func (c *AgentContext) Clone() *AgentContext {
	out := NewAgentContext()
	if c == nil {
		return out
	}
	out.History = append(out.History, c.History...)
	for k, v := range c.Results {
		out.Results[k] = v
	}
	out.Files = append(out.Files, c.Files...)
	for k, v := range c.Metadata {
		out.Metadata[k] = v
	}
	out.Chunks = append(out.Chunks, c.Chunks...)
	return out
}

// Merge returns a new snapshot combining the receiver with other. Values
// from other win on key collision; histories and lists are appended with
// duplicates of exact entries dropped.
func (c *AgentContext) Merge(other *AgentContext) *AgentContext {
	out := c.Clone()
	if other == nil {
		return out
	}
	out.History = append(out.History, other.History...)
	for k, v := range other.Results {
		out.Results[k] = v
	}
	for _, f := range other.Files {
		if !containsString(out.Files, f) {
			out.Files = append(out.Files, f)
		}
	}
	for k, v := range other.Metadata {
		out.Metadata[k] = v
	}
	out.Chunks = append(out.Chunks, other.Chunks...)
	return out
}

func containsString(list []string, s string) bool {
	for _, have := range list {
		if have == s {
			return true
		}
	}
	return false
}
