// Package config handles configuration loading and management for Relay.
// It supports XDG config paths, project-level overrides, and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for Relay.
type Config struct {
	Anthropic    AnthropicConfig    `mapstructure:"anthropic"`
	Orchestrator OrchestratorConfig `mapstructure:"orchestrator"`
	Agents       AgentsConfig       `mapstructure:"agents"`
	Storage      StorageConfig      `mapstructure:"storage"`
	Logging      LoggingConfig      `mapstructure:"logging"`
}

// AnthropicConfig holds model API settings.
type AnthropicConfig struct {
	APIKey        string `mapstructure:"api_key"`
	Model         string `mapstructure:"model"`
	UseAWSBedrock bool   `mapstructure:"use_aws_bedrock"`
	AWSRegion     string `mapstructure:"aws_region"`
	AWSProfile    string `mapstructure:"aws_profile"`
}

// OrchestratorConfig holds turn-processing settings.
type OrchestratorConfig struct {
	// UseCoordinator enables decomposition of complex requests.
	UseCoordinator bool `mapstructure:"use_coordinator"`
	// SubtaskTimeout bounds a single subtask execution.
	SubtaskTimeout time.Duration `mapstructure:"subtask_timeout"`
	// TurnTimeout bounds an entire turn.
	TurnTimeout time.Duration `mapstructure:"turn_timeout"`
}

// AgentsConfig holds agent roster settings.
type AgentsConfig struct {
	// Manifest is the path to the agent manifest YAML. Empty uses the
	// built-in default roster.
	Manifest string `mapstructure:"manifest"`
	// WorkDir is the directory file-reading agents operate in. Empty means
	// the current directory.
	WorkDir string `mapstructure:"work_dir"`
}

// StorageConfig holds conversation persistence settings.
type StorageConfig struct {
	// Path is the SQLite database file. Empty uses the default under the
	// user data directory.
	Path string `mapstructure:"path"`
}

// LoggingConfig holds debug logging settings.
type LoggingConfig struct {
	// Debug enables the file-based debug log.
	Debug bool `mapstructure:"debug"`
}

// Load loads configuration from XDG paths, project overrides, and environment
// variables. Precedence (highest to lowest):
// 1. Environment variables (ANTHROPIC_API_KEY, RELAY_MODEL)
// 2. Project config (.relay.yaml in current directory or a parent)
// 3. User config (~/.config/relay/config.yaml)
// 4. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	userConfigDir := getUserConfigDir()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(userConfigDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	if projectConfig := findProjectConfig(); projectConfig != "" {
		projectViper := viper.New()
		projectViper.SetConfigFile(projectConfig)
		if err := projectViper.ReadInConfig(); err == nil {
			if err := v.MergeConfigMap(projectViper.AllSettings()); err != nil {
				return nil, fmt.Errorf("merging project config: %w", err)
			}
		}
	}

	v.AutomaticEnv()
	v.BindEnv("anthropic.api_key", "ANTHROPIC_API_KEY")
	v.BindEnv("anthropic.model", "RELAY_MODEL")
	v.BindEnv("anthropic.use_aws_bedrock", "CLAUDE_CODE_USE_BEDROCK")
	v.BindEnv("anthropic.aws_region", "AWS_REGION")

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.Anthropic.APIKey = os.ExpandEnv(cfg.Anthropic.APIKey)

	return cfg, nil
}

// LoadFromPath loads configuration from a specific path (for testing).
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.Anthropic.APIKey = os.ExpandEnv(cfg.Anthropic.APIKey)

	return cfg, nil
}

// Save writes the current configuration to the user config file.
func Save(cfg *Config) error {
	userConfigDir := getUserConfigDir()
	if err := os.MkdirAll(userConfigDir, 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	configPath := filepath.Join(userConfigDir, "config.yaml")

	v := viper.New()
	v.SetConfigFile(configPath)

	v.Set("anthropic.api_key", cfg.Anthropic.APIKey)
	v.Set("anthropic.model", cfg.Anthropic.Model)
	v.Set("anthropic.use_aws_bedrock", cfg.Anthropic.UseAWSBedrock)
	v.Set("anthropic.aws_region", cfg.Anthropic.AWSRegion)
	v.Set("anthropic.aws_profile", cfg.Anthropic.AWSProfile)
	v.Set("orchestrator.use_coordinator", cfg.Orchestrator.UseCoordinator)
	v.Set("orchestrator.subtask_timeout", cfg.Orchestrator.SubtaskTimeout.String())
	v.Set("orchestrator.turn_timeout", cfg.Orchestrator.TurnTimeout.String())
	v.Set("agents.manifest", cfg.Agents.Manifest)
	v.Set("agents.work_dir", cfg.Agents.WorkDir)
	v.Set("storage.path", cfg.Storage.Path)
	v.Set("logging.debug", cfg.Logging.Debug)

	return v.WriteConfig()
}

// GetUserConfigPath returns the path to the user config file.
func GetUserConfigPath() string {
	return filepath.Join(getUserConfigDir(), "config.yaml")
}

// GetProjectConfigPath returns the path to the project config file if it exists.
func GetProjectConfigPath() string {
	return findProjectConfig()
}

// DefaultStoragePath returns the default SQLite database location.
func DefaultStoragePath() string {
	if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
		return filepath.Join(xdgData, "relay", "conversations.db")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".relay", "conversations.db")
	}
	return filepath.Join(home, ".local", "share", "relay", "conversations.db")
}

// setDefaults configures default values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("anthropic.api_key", "")
	v.SetDefault("anthropic.model", "")
	v.SetDefault("anthropic.use_aws_bedrock", false)

	v.SetDefault("orchestrator.use_coordinator", true)
	v.SetDefault("orchestrator.subtask_timeout", "3m")
	v.SetDefault("orchestrator.turn_timeout", "10m")

	v.SetDefault("agents.manifest", "")
	v.SetDefault("agents.work_dir", "")

	v.SetDefault("storage.path", "")
	v.SetDefault("logging.debug", false)
}

// getUserConfigDir returns the XDG config directory for Relay.
func getUserConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "relay")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "relay")
	}
	return filepath.Join(home, ".config", "relay")
}

// findProjectConfig searches for .relay.yaml in the current directory and parents.
func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(cwd, ".relay.yaml")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(cwd)
		if parent == cwd {
			break
		}
		cwd = parent
	}

	return ""
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Orchestrator: OrchestratorConfig{
			UseCoordinator: true,
			SubtaskTimeout: 3 * time.Minute,
			TurnTimeout:    10 * time.Minute,
		},
	}
}
