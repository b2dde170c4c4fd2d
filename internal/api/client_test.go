package api

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
)

func TestNewClientRequiresAPIKey(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")

	if _, err := NewClient(ClientConfig{}); err == nil {
		t.Error("expected error when no API key is configured")
	}
}

func TestNewClientWithAPIKey(t *testing.T) {
	client, err := NewClient(ClientConfig{APIKey: "test-key"})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	if client.Model() != anthropic.ModelClaudeSonnet4_20250514 {
		t.Errorf("expected default model, got %s", client.Model())
	}
	if client.UsesBedrock() {
		t.Error("direct API client should not report Bedrock")
	}
}

func TestTranslateModelForBedrock(t *testing.T) {
	got := translateModelForBedrock(anthropic.ModelClaudeSonnet4_20250514)
	want := anthropic.Model("us.anthropic.claude-sonnet-4-20250514-v1:0")
	if got != want {
		t.Errorf("translateModelForBedrock() = %s, want %s", got, want)
	}

	// Unknown models pass through unchanged.
	custom := anthropic.Model("custom-model")
	if got := translateModelForBedrock(custom); got != custom {
		t.Errorf("expected passthrough for unknown model, got %s", got)
	}
}

func TestTokenTracker(t *testing.T) {
	tracker := NewTokenTracker()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tracker.Add(100, 50)
		}()
	}
	wg.Wait()

	in, out := tracker.Total()
	if in != 1000 || out != 500 {
		t.Errorf("expected totals (1000, 500), got (%d, %d)", in, out)
	}
	if tracker.Calls() != 10 {
		t.Errorf("expected 10 calls, got %d", tracker.Calls())
	}
	if tracker.Cost() <= 0 {
		t.Error("expected positive cost estimate")
	}

	tracker.Reset()
	in, out = tracker.Total()
	if in != 0 || out != 0 || tracker.Calls() != 0 {
		t.Error("expected zeroed tracker after Reset")
	}
}

func TestNotificationManagerStopSignal(t *testing.T) {
	dir := t.TempDir()
	nm, err := NewNotificationManager(dir)
	if err != nil {
		t.Fatalf("NewNotificationManager failed: %v", err)
	}
	defer nm.Close()

	if nm.ShouldStop() {
		t.Error("unexpected stop signal on fresh manager")
	}

	if err := nm.SendStop(); err != nil {
		t.Fatalf("SendStop failed: %v", err)
	}

	// ShouldStop stats the file directly, no need to wait on the watcher.
	if !nm.ShouldStop() {
		t.Error("expected stop signal after SendStop")
	}

	nm.ClearSignals()
	if _, err := os.Stat(filepath.Join(nm.RelayDir(), "signals", "stop")); !os.IsNotExist(err) {
		t.Error("expected stop file removed after ClearSignals")
	}
	if nm.ShouldStop() {
		t.Error("expected no stop signal after ClearSignals")
	}
}
