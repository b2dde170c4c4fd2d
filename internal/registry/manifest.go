package registry

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ShayCichocki/relay/pkg/models"
)

// ManifestEntry describes one agent in a roster manifest.
type ManifestEntry struct {
	// Name is the agent name used in decompositions. Required.
	Name string `yaml:"name"`
	// Kind selects a built-in agent implementation (coordinator, web_search,
	// file_reading, code_analysis). Required.
	Kind string `yaml:"kind"`
	// Description overrides the built-in description when non-empty.
	Description string `yaml:"description,omitempty"`
	// Disabled excludes the agent from the roster without deleting the entry.
	Disabled bool `yaml:"disabled,omitempty"`
}

// Manifest is the YAML roster of agents to construct at startup.
type Manifest struct {
	Agents []ManifestEntry `yaml:"agents"`
}

// LoadManifest reads and validates a roster manifest from path.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return ParseManifest(data)
}

// ParseManifest parses and validates manifest YAML.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}

	seen := make(map[string]bool)
	for i, entry := range m.Agents {
		if entry.Name == "" {
			return nil, fmt.Errorf("manifest entry %d: missing name", i)
		}
		if entry.Kind == "" {
			return nil, fmt.Errorf("manifest entry %q: missing kind", entry.Name)
		}
		if _, ok := kindCapabilities[entry.Kind]; !ok {
			return nil, fmt.Errorf("manifest entry %q: unknown kind %q", entry.Name, entry.Kind)
		}
		if seen[entry.Name] {
			return nil, fmt.Errorf("manifest entry %q: duplicate name", entry.Name)
		}
		seen[entry.Name] = true
	}

	return &m, nil
}

// Enabled returns the manifest entries that are not disabled.
func (m *Manifest) Enabled() []ManifestEntry {
	var out []ManifestEntry
	for _, entry := range m.Agents {
		if !entry.Disabled {
			out = append(out, entry)
		}
	}
	return out
}

// DefaultManifest returns the built-in roster used when no manifest file is
// configured.
func DefaultManifest() *Manifest {
	return &Manifest{Agents: []ManifestEntry{
		{Name: "coordinator", Kind: "coordinator"},
		{Name: "web-search", Kind: "web_search"},
		{Name: "file-reader", Kind: "file_reading"},
		{Name: "code-analyst", Kind: "code_analysis"},
	}}
}

// kindCapabilities maps manifest kinds to the capability sets their built-in
// implementations declare.
var kindCapabilities = map[string][]models.Capability{
	"coordinator":   {models.CapabilityGeneralReasoning},
	"web_search":    {models.CapabilityWebSearch},
	"file_reading":  {models.CapabilityFileReading},
	"code_analysis": {models.CapabilityCodeAnalysis, models.CapabilityFileReading},
}

// KindCapabilities returns the capability set for a manifest kind.
// Returns nil for unknown kinds.
func KindCapabilities(kind string) []models.Capability {
	return kindCapabilities[kind]
}
