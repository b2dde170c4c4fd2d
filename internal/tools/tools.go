// Package tools provides the small built-in tool set agents dispatch to.
package tools

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Tool is a named capability an agent can invoke while processing a task.
// Implementations must be safe for concurrent Call invocations.
type Tool interface {
	// Name returns the tool name exposed to the model.
	Name() string
	// Description explains the tool to the model.
	Description() string
	// Call executes the tool with named string arguments.
	Call(ctx context.Context, args map[string]string) (string, error)
}

// maxFileBytes caps how much of a file the read tool returns.
const maxFileBytes = 64 * 1024

// FileReadTool reads a file relative to a working directory.
type FileReadTool struct {
	workDir string
}

// NewFileReadTool creates a file read tool rooted at workDir.
func NewFileReadTool(workDir string) *FileReadTool {
	return &FileReadTool{workDir: workDir}
}

// Name implements Tool.
func (t *FileReadTool) Name() string { return "read_file" }

// Description implements Tool.
func (t *FileReadTool) Description() string {
	return "Read a file from the working directory. Arguments: path (required)."
}

// Call implements Tool.
func (t *FileReadTool) Call(ctx context.Context, args map[string]string) (string, error) {
	path := args["path"]
	if path == "" {
		return "", fmt.Errorf("read_file: missing path argument")
	}

	resolved := path
	if !filepath.IsAbs(resolved) {
		resolved = filepath.Join(t.workDir, resolved)
	}

	content, err := os.ReadFile(resolved)
	if err != nil {
		return "", fmt.Errorf("read_file: %w", err)
	}
	if len(content) > maxFileBytes {
		content = content[:maxFileBytes]
	}

	// Format with line numbers (cat -n style), the way agents expect files.
	var out strings.Builder
	for i, line := range strings.Split(string(content), "\n") {
		fmt.Fprintf(&out, "%6d\t%s\n", i+1, line)
	}
	return out.String(), nil
}

// ListDirTool lists a directory relative to a working directory.
type ListDirTool struct {
	workDir string
}

// NewListDirTool creates a directory listing tool rooted at workDir.
func NewListDirTool(workDir string) *ListDirTool {
	return &ListDirTool{workDir: workDir}
}

// Name implements Tool.
func (t *ListDirTool) Name() string { return "list_dir" }

// Description implements Tool.
func (t *ListDirTool) Description() string {
	return "List the contents of a directory. Arguments: path (optional, defaults to the working directory)."
}

// Call implements Tool.
func (t *ListDirTool) Call(ctx context.Context, args map[string]string) (string, error) {
	path := args["path"]
	if path == "" {
		path = "."
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(t.workDir, path)
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return "", fmt.Errorf("list_dir: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() {
			name += "/"
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, "\n"), nil
}

// maxFetchBytes caps how much of a page the web tool returns.
const maxFetchBytes = 128 * 1024

// WebFetchTool fetches a URL over HTTP. It stands in for the richer search
// integration of the full product; the orchestrator only cares that it is a
// slow, fallible external call.
type WebFetchTool struct {
	client *http.Client
}

// NewWebFetchTool creates a web fetch tool with a bounded timeout.
func NewWebFetchTool() *WebFetchTool {
	return &WebFetchTool{
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// Name implements Tool.
func (t *WebFetchTool) Name() string { return "web_fetch" }

// Description implements Tool.
func (t *WebFetchTool) Description() string {
	return "Fetch a web page over HTTP. Arguments: url (required)."
}

// Call implements Tool.
func (t *WebFetchTool) Call(ctx context.Context, args map[string]string) (string, error) {
	raw := args["url"]
	if raw == "" {
		return "", fmt.Errorf("web_fetch: missing url argument")
	}
	parsed, err := url.Parse(raw)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return "", fmt.Errorf("web_fetch: invalid url %q", raw)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, parsed.String(), nil)
	if err != nil {
		return "", fmt.Errorf("web_fetch: %w", err)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("web_fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("web_fetch: %s returned %s", parsed.Host, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchBytes))
	if err != nil {
		return "", fmt.Errorf("web_fetch: read body: %w", err)
	}
	return string(body), nil
}
