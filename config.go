package parable

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	defaults "github.com/parable-gpt/parable/default"
)

// Config represents the user's parable configuration.
type Config struct {
	Version    int              `json:"version"`
	Generation GenerationConfig `json:"generation"`
	Retrieval  RetrievalConfig  `json:"retrieval"`
}

// GenerationConfig holds settings for the generation API.
type GenerationConfig struct {
	BaseURL     string   `json:"base_url"`
	APIKey      string   `json:"api_key"`
	APIType     string   `json:"api_type"`
	Model       string   `json:"model"`
	MaxTokens   int      `json:"max_tokens,omitempty"`
	Temperature float64  `json:"temperature,omitempty"`
	Stop        []string `json:"stop,omitempty"`
}

// RetrievalConfig holds settings for the embedding API and passage retrieval.
type RetrievalConfig struct {
	BaseURL         string `json:"base_url"`
	APIKey          string `json:"api_key"`
	Model           string `json:"model"`
	Dimensions      int    `json:"dimensions,omitempty"`
	TopK            int    `json:"top_k,omitempty"`
	CacheTTLMinutes int    `json:"cache_ttl_minutes,omitempty"`
}

// ConfigDir returns the config directory path.
// Resolution order: $PARABLE_CONFIG_DIR > $XDG_CONFIG_HOME/parable > ~/.config/parable
func ConfigDir() string {
	if dir := os.Getenv("PARABLE_CONFIG_DIR"); dir != "" {
		return dir
	}
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, "parable")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join("/tmp", "parable-config")
	}
	return filepath.Join(home, ".config", "parable")
}

// ConfigPath returns the full path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.json")
}

// PromptPath returns the custom prompt template path.
func PromptPath() string {
	return filepath.Join(ConfigDir(), "prompt.md")
}

// TraditionsPath returns the custom tradition registry path.
func TraditionsPath() string {
	return filepath.Join(ConfigDir(), "traditions.toml")
}

// DefaultConfig returns the default configuration from the embedded default_config.json.
func DefaultConfig() *Config {
	var cfg Config
	if err := json.Unmarshal(defaults.DefaultConfigJSON, &cfg); err != nil {
		panic("parable: invalid embedded default_config.json: " + err.Error())
	}
	return &cfg
}

// LoadConfig loads config from disk or returns defaults if not found.
func LoadConfig() (*Config, error) {
	path := ConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	// Apply defaults for missing fields
	defaults := DefaultConfig()
	if cfg.Generation.BaseURL == "" {
		cfg.Generation.BaseURL = defaults.Generation.BaseURL
	}
	if cfg.Generation.APIType == "" {
		cfg.Generation.APIType = defaults.Generation.APIType
	}
	if cfg.Generation.Model == "" {
		cfg.Generation.Model = defaults.Generation.Model
	}
	if cfg.Generation.MaxTokens == 0 {
		cfg.Generation.MaxTokens = defaults.Generation.MaxTokens
	}
	if cfg.Generation.Temperature == 0 {
		cfg.Generation.Temperature = defaults.Generation.Temperature
	}
	if cfg.Retrieval.BaseURL == "" {
		cfg.Retrieval.BaseURL = defaults.Retrieval.BaseURL
	}
	if cfg.Retrieval.Model == "" {
		cfg.Retrieval.Model = defaults.Retrieval.Model
	}
	if cfg.Retrieval.Dimensions == 0 {
		cfg.Retrieval.Dimensions = defaults.Retrieval.Dimensions
	}
	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = defaults.Retrieval.TopK
	}
	if cfg.Retrieval.CacheTTLMinutes == 0 {
		cfg.Retrieval.CacheTTLMinutes = defaults.Retrieval.CacheTTLMinutes
	}

	return &cfg, nil
}

// ValidateConfig checks configuration for potential issues and returns warnings.
func ValidateConfig(cfg *Config) []string {
	var warnings []string
	if cfg == nil {
		return warnings
	}
	if t := cfg.Generation.APIType; t != "" && t != "chat_completions" && t != "responses" {
		warnings = append(warnings, fmt.Sprintf("unknown generation api_type %q; expected chat_completions or responses", t))
	}
	if cfg.Retrieval.TopK < 0 {
		warnings = append(warnings, "retrieval top_k is negative; the default will be used")
	}
	if cfg.Retrieval.TopK > 20 {
		warnings = append(warnings, "retrieval top_k is large; prompts may exceed the model context window")
	}
	return warnings
}

// ResolveGenerationBaseURL returns the generation API base URL.
// Priority: $PARABLE_GENERATION_BASE_URL env > config value.
func ResolveGenerationBaseURL(cfg *Config) string {
	if url := os.Getenv("PARABLE_GENERATION_BASE_URL"); url != "" {
		return url
	}
	if cfg != nil {
		return cfg.Generation.BaseURL
	}
	return ""
}

// ResolveGenerationAPIKey returns the generation API key.
// Priority: $PARABLE_GENERATION_API_KEY env > config value.
func ResolveGenerationAPIKey(cfg *Config) string {
	if key := os.Getenv("PARABLE_GENERATION_API_KEY"); key != "" {
		return key
	}
	if cfg != nil {
		return cfg.Generation.APIKey
	}
	return ""
}

// ResolveGenerationModel returns the generation model name.
// Priority: $PARABLE_GENERATION_MODEL env > config value.
func ResolveGenerationModel(cfg *Config) string {
	if model := os.Getenv("PARABLE_GENERATION_MODEL"); model != "" {
		return model
	}
	if cfg != nil {
		return cfg.Generation.Model
	}
	return ""
}

// ResolveRetrievalBaseURL returns the embedding API base URL.
// Priority: $PARABLE_RETRIEVAL_BASE_URL env > config value.
func ResolveRetrievalBaseURL(cfg *Config) string {
	if url := os.Getenv("PARABLE_RETRIEVAL_BASE_URL"); url != "" {
		return url
	}
	if cfg != nil {
		return cfg.Retrieval.BaseURL
	}
	return ""
}

// ResolveRetrievalAPIKey returns the embedding API key.
// Priority: $PARABLE_RETRIEVAL_API_KEY env > config value.
func ResolveRetrievalAPIKey(cfg *Config) string {
	if key := os.Getenv("PARABLE_RETRIEVAL_API_KEY"); key != "" {
		return key
	}
	if cfg != nil {
		return cfg.Retrieval.APIKey
	}
	return ""
}

// ResolveRetrievalModel returns the embedding model name.
// Priority: $PARABLE_RETRIEVAL_MODEL env > config value.
func ResolveRetrievalModel(cfg *Config) string {
	if model := os.Getenv("PARABLE_RETRIEVAL_MODEL"); model != "" {
		return model
	}
	if cfg != nil {
		return cfg.Retrieval.Model
	}
	return ""
}
