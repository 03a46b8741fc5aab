package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the tool configuration, loaded from a YAML file when one exists.
type Config struct {
	Model           string  `yaml:"model"`
	Temperature     float64 `yaml:"temperature"`
	MaxOutputTokens int     `yaml:"max_output_tokens"`

	// Larger output budgets for the rewrite passes, which return whole prompts and
	// whole dialogues.
	RefinePromptTokens   int `yaml:"refine_prompt_tokens"`
	RefineDialogueTokens int `yaml:"refine_dialogue_tokens"`

	// Exchanges bounds each conversation; Count is how many personas, prompts and
	// dialogues a stage produces by default.
	Exchanges int `yaml:"exchanges"`
	Count     int `yaml:"count"`

	DataDir       string `yaml:"data_dir"`
	PriceMode     string `yaml:"price_mode"`
	CollectSignup bool   `yaml:"collect_signup"`

	// Seed makes persona sampling reproducible; 0 seeds from the clock.
	Seed int64 `yaml:"seed"`

	// APIKey overrides the OPENAI_API_KEY environment variable.
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
}

func DefaultConfig() Config {
	return Config{
		Model:                "gpt-4o",
		Temperature:          0.7,
		MaxOutputTokens:      300,
		RefinePromptTokens:   500,
		RefineDialogueTokens: 1500,
		Exchanges:            10,
		Count:                10,
		DataDir:              "data",
		PriceMode:            "direct",
	}
}

// LoadConfig reads path over the defaults. A missing file is not an error, the
// defaults apply as-is; a present but invalid file is.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if cfg.Exchanges <= 0 || cfg.Count <= 0 {
		return cfg, fmt.Errorf("config %s: exchanges and count must be positive", path)
	}
	return cfg, nil
}

// Data file locations, all under DataDir.
func (c Config) personsFile() string  { return filepath.Join(c.DataDir, "persons.json") }
func (c Config) promptsFile() string  { return filepath.Join(c.DataDir, "prompts.json") }
func (c Config) refinedPromptsFile() string {
	return filepath.Join(c.DataDir, "refined_prompts.json")
}
func (c Config) dialoguesFile() string { return filepath.Join(c.DataDir, "dialogues.json") }
func (c Config) refinedDialoguesFile() string {
	return filepath.Join(c.DataDir, "refined_dialogues.json")
}
func (c Config) datasetFile() string      { return filepath.Join(c.DataDir, "training_dataset.jsonl") }
func (c Config) botPromptFile() string    { return filepath.Join(c.DataDir, "bot_prompt.txt") }
func (c Config) refinePromptFile() string { return filepath.Join(c.DataDir, "refine_prompt.txt") }

// writeJSON persists v pretty-printed with multi-byte text kept literal.
func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(path), err)
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}
	return nil
}
