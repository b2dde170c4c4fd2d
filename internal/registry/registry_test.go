package registry

import (
	"context"
	"testing"

	"github.com/ShayCichocki/relay/pkg/models"
)

// stubAgent is a minimal Agent for registry tests.
type stubAgent struct {
	id   string
	name string
	desc string
	caps []models.Capability
}

func (s *stubAgent) ID() string                         { return s.id }
func (s *stubAgent) Name() string                       { return s.name }
func (s *stubAgent) Description() string                { return s.desc }
func (s *stubAgent) Capabilities() []models.Capability  { return s.caps }
func (s *stubAgent) Process(ctx context.Context, task *models.AgentTask, actx *models.AgentContext) (*models.AgentResult, error) {
	return &models.AgentResult{AgentID: s.id, TaskID: task.ID, Success: true}, nil
}

func TestRegistryRegisterAndLookup(t *testing.T) {
	reg := New()
	a := &stubAgent{id: "agent-1", name: "WebSearch", caps: []models.Capability{models.CapabilityWebSearch}}

	if err := reg.Register(a); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if got := reg.ByID("agent-1"); got != a {
		t.Error("ByID did not return the registered agent")
	}
	if got := reg.ByName("WebSearch"); got != a {
		t.Error("ByName did not return the registered agent")
	}
	if got := reg.ByName("websearch"); got != nil {
		t.Error("ByName should be case-sensitive")
	}
	if reg.Count() != 1 {
		t.Errorf("expected count 1, got %d", reg.Count())
	}
}

func TestRegistryDuplicateRejected(t *testing.T) {
	reg := New()
	if err := reg.Register(&stubAgent{id: "a", name: "One"}); err != nil {
		t.Fatalf("first Register failed: %v", err)
	}

	if err := reg.Register(&stubAgent{id: "a", name: "Two"}); err == nil {
		t.Error("expected duplicate ID to be rejected")
	}
	if err := reg.Register(&stubAgent{id: "b", name: "One"}); err == nil {
		t.Error("expected duplicate name to be rejected")
	}
}

func TestRegistryByCapability(t *testing.T) {
	reg := New()
	web := &stubAgent{id: "w", name: "WebSearch", caps: []models.Capability{models.CapabilityWebSearch}}
	code := &stubAgent{id: "c", name: "CodeAnalysis", caps: []models.Capability{models.CapabilityCodeAnalysis, models.CapabilityFileReading}}
	for _, a := range []*stubAgent{web, code} {
		if err := reg.Register(a); err != nil {
			t.Fatalf("Register failed: %v", err)
		}
	}

	got := reg.ByCapability(models.CapabilityFileReading)
	if len(got) != 1 || got[0] != code {
		t.Errorf("expected only code agent for file_reading, got %d agents", len(got))
	}

	if got := reg.ByCapability(models.CapabilityImageAnalysis); len(got) != 0 {
		t.Errorf("expected no agents for image_analysis, got %d", len(got))
	}
}

func TestRegistryNamesSorted(t *testing.T) {
	reg := New()
	for _, name := range []string{"Zulu", "Alpha", "Mike"} {
		if err := reg.Register(&stubAgent{id: name, name: name}); err != nil {
			t.Fatalf("Register failed: %v", err)
		}
	}

	names := reg.Names()
	want := []string{"Alpha", "Mike", "Zulu"}
	for i, n := range want {
		if names[i] != n {
			t.Fatalf("expected sorted names %v, got %v", want, names)
		}
	}
}

func TestParseManifest(t *testing.T) {
	data := []byte(`
agents:
  - name: Coordinator
    kind: coordinator
  - name: WebSearch
    kind: web_search
    description: Searches the public web.
  - name: Legacy
    kind: file_reading
    disabled: true
`)

	m, err := ParseManifest(data)
	if err != nil {
		t.Fatalf("ParseManifest failed: %v", err)
	}

	if len(m.Agents) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(m.Agents))
	}
	enabled := m.Enabled()
	if len(enabled) != 2 {
		t.Errorf("expected 2 enabled entries, got %d", len(enabled))
	}
}

func TestParseManifestRejectsBadEntries(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"missing name", "agents:\n  - kind: coordinator\n"},
		{"missing kind", "agents:\n  - name: A\n"},
		{"unknown kind", "agents:\n  - name: A\n    kind: telepathy\n"},
		{"duplicate name", "agents:\n  - name: A\n    kind: coordinator\n  - name: A\n    kind: web_search\n"},
		{"not yaml", "{{{"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseManifest([]byte(tt.data)); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}
