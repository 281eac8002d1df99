// Package config holds the gradecard tool configuration: spreadsheet and
// Drive folder ids, Gradescope access, filesystem layout and the headless
// switch used by scheduled runs.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all gradecard configuration.
type Config struct {
	// Course label used in created card titles, e.g. "15-251".
	Course string `yaml:"course"`

	// Gradecard spreadsheet (roster + export sheets).
	Gradecard GradecardConfig `yaml:"gradecard"`

	// Gradescope access.
	Gradescope GradescopeConfig `yaml:"gradescope"`

	// OAuth credential files.
	Auth AuthConfig `yaml:"auth"`

	// Filesystem layout for roster CSVs and assignment descriptors.
	Paths PathsConfig `yaml:"paths"`

	// Remote store retry behaviour.
	Retry RetryConfig `yaml:"retry"`

	// Headless suppresses every confirmation prompt (answers yes). Overridden
	// by the GC_HEADLESS environment variable.
	Headless bool `yaml:"headless"`
}

// GradecardConfig identifies the central spreadsheet and the card resources.
type GradecardConfig struct {
	SpreadsheetID      string `yaml:"spreadsheet_id"`
	TemplateID         string `yaml:"template_id"`
	StudentCardsFolder string `yaml:"student_cards_folder"`
	TACardsFolder      string `yaml:"ta_cards_folder"`
}

// GradescopeConfig configures the evaluation source.
type GradescopeConfig struct {
	BaseURL  string `yaml:"base_url"`
	CourseID string `yaml:"course_id"`
	Token    string `yaml:"token"`
	Timeout  string `yaml:"timeout"`
}

// AuthConfig locates the OAuth client secret and the cached token.
type AuthConfig struct {
	CredentialsFile string `yaml:"credentials_file"`
	TokenFile       string `yaml:"token_file"`
}

// PathsConfig locates roster CSVs and assignment .ini descriptors.
type PathsConfig struct {
	RosterDir string `yaml:"roster_dir"`
	ConfigDir string `yaml:"config_dir"`
}

// RetryConfig bounds the fixed-delay retry on rate-limited store calls.
type RetryConfig struct {
	MaxAttempts int    `yaml:"max_attempts"`
	Delay       string `yaml:"delay"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Course: "15-251",

		Gradescope: GradescopeConfig{
			BaseURL: "https://www.gradescope.com",
			Timeout: "60s",
		},

		Auth: AuthConfig{
			CredentialsFile: "credentials.json",
			TokenFile:       "token.json",
		},

		Paths: PathsConfig{
			RosterDir: "roster",
			ConfigDir: "config",
		},

		Retry: RetryConfig{
			MaxAttempts: 30,
			Delay:       "10s",
		},
	}
}

// Load loads configuration from a YAML file, falling back to defaults when
// the file does not exist, then applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	// GC_HEADLESS forces every confirmation prompt to auto-accept; any value
	// containing "true" counts, matching how cron jobs have always set it.
	if v := os.Getenv("GC_HEADLESS"); strings.Contains(strings.ToLower(v), "true") {
		c.Headless = true
	}

	if tok := os.Getenv("GRADESCOPE_TOKEN"); tok != "" {
		c.Gradescope.Token = tok
	}
	if id := os.Getenv("GRADECARD_SPREADSHEET_ID"); id != "" {
		c.Gradecard.SpreadsheetID = id
	}
}

// Validate checks that the fields every action needs are present.
func (c *Config) Validate() error {
	if c.Gradecard.SpreadsheetID == "" {
		return fmt.Errorf("gradecard.spreadsheet_id is required")
	}
	return nil
}

// GradescopeTimeout returns the Gradescope HTTP timeout as a duration.
func (c *Config) GradescopeTimeout() time.Duration {
	d, err := time.ParseDuration(c.Gradescope.Timeout)
	if err != nil {
		return 60 * time.Second
	}
	return d
}

// RetryDelay returns the store retry delay as a duration.
func (c *Config) RetryDelay() time.Duration {
	d, err := time.ParseDuration(c.Retry.Delay)
	if err != nil {
		return 10 * time.Second
	}
	return d
}
