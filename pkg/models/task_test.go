package models

import "testing"

func TestSubtaskStateValid(t *testing.T) {
	tests := []struct {
		name  string
		state SubtaskState
		want  bool
	}{
		{"pending", SubtaskStatePending, true},
		{"ready", SubtaskStateReady, true},
		{"running", SubtaskStateRunning, true},
		{"completed", SubtaskStateCompleted, true},
		{"failed", SubtaskStateFailed, true},
		{"skipped", SubtaskStateSkipped, true},
		{"empty", SubtaskState(""), false},
		{"unknown", SubtaskState("paused"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.Valid(); got != tt.want {
				t.Errorf("Valid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSubtaskStateTerminal(t *testing.T) {
	tests := []struct {
		name  string
		state SubtaskState
		want  bool
	}{
		{"pending", SubtaskStatePending, false},
		{"ready", SubtaskStateReady, false},
		{"running", SubtaskStateRunning, false},
		{"completed", SubtaskStateCompleted, true},
		{"failed", SubtaskStateFailed, true},
		{"skipped", SubtaskStateSkipped, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.Terminal(); got != tt.want {
				t.Errorf("Terminal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCapabilityValid(t *testing.T) {
	tests := []struct {
		name string
		cap  Capability
		want bool
	}{
		{"file reading", CapabilityFileReading, true},
		{"web search", CapabilityWebSearch, true},
		{"code analysis", CapabilityCodeAnalysis, true},
		{"data analysis", CapabilityDataAnalysis, true},
		{"image analysis", CapabilityImageAnalysis, true},
		{"general reasoning", CapabilityGeneralReasoning, true},
		{"empty", Capability(""), false},
		{"unknown", Capability("telepathy"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cap.Valid(); got != tt.want {
				t.Errorf("Valid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHasCapability(t *testing.T) {
	set := []Capability{CapabilityWebSearch, CapabilityGeneralReasoning}

	if !HasCapability(set, CapabilityWebSearch) {
		t.Error("expected set to contain web_search")
	}
	if HasCapability(set, CapabilityFileReading) {
		t.Error("did not expect set to contain file_reading")
	}
	if HasCapability(nil, CapabilityWebSearch) {
		t.Error("empty set should contain nothing")
	}
}
