package config

import (
	"errors"
	"strings"
	"testing"
)

func TestGetAPIKeyEnvWins(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant-env-key-1234567890")

	cfg := &Config{}
	cfg.Anthropic.APIKey = "sk-ant-REDACTED"

	key, err := GetAPIKey(cfg)
	if err != nil {
		t.Fatalf("GetAPIKey: %v", err)
	}
	if key != "sk-ant-env-key-1234567890" {
		t.Errorf("key = %q, want env value", key)
	}
}

func TestGetAPIKeyFromConfig(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")

	cfg := &Config{}
	cfg.Anthropic.APIKey = "sk-ant-REDACTED"

	key, err := GetAPIKey(cfg)
	if err != nil {
		t.Fatalf("GetAPIKey: %v", err)
	}
	if key != "sk-ant-REDACTED" {
		t.Errorf("key = %q", key)
	}
}

func TestGetAPIKeyMissing(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")

	_, err := GetAPIKey(&Config{})
	if !errors.Is(err, ErrNoAPIKey) {
		t.Errorf("want ErrNoAPIKey, got %v", err)
	}

	if _, err := GetAPIKey(nil); !errors.Is(err, ErrNoAPIKey) {
		t.Errorf("nil config: want ErrNoAPIKey, got %v", err)
	}
}

func TestValidateAPIKey(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		wantErr bool
	}{
		{"valid", "sk-ant-REDACTED", false},
		{"empty", "", true},
		{"wrong prefix", "sk-openai-abcdef1234567890", true},
		{"too short", "sk-ant-x", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAPIKey(tt.key)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateAPIKey(%q) = %v, wantErr %v", tt.key, err, tt.wantErr)
			}
		})
	}
}

func TestMaskAPIKey(t *testing.T) {
	masked := MaskAPIKey("sk-ant-REDACTED")
	if !strings.HasPrefix(masked, "sk-ant-") || !strings.HasSuffix(masked, "7890") {
		t.Errorf("masked = %q", masked)
	}
	if strings.Contains(masked, "abcdef") {
		t.Errorf("masked key leaks middle: %q", masked)
	}
	if MaskAPIKey("") != "(not set)" {
		t.Errorf("empty key mask = %q", MaskAPIKey(""))
	}
}
