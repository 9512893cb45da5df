package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/breakoutai/automail/internal/llm"
	"github.com/breakoutai/automail/internal/search"
)

// Error reports a configuration problem found at load time. All
// credential and endpoint checks happen here so a campaign never fails
// halfway through because of a missing setting.
type Error struct {
	Field  string
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Reason)
}

// Config is the main configuration structure
type Config struct {
	Relay     RelayConfig     `yaml:"relay"`
	Search    SearchConfig    `yaml:"search"`
	LLM       LLMConfig       `yaml:"llm"`
	Tracking  TrackingConfig  `yaml:"tracking"`
	Sheets    SheetsConfig    `yaml:"sheets"`
	API       APIConfig       `yaml:"api"`
	Campaign  CampaignConfig  `yaml:"campaign"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// RelayConfig contains SMTP submission settings
type RelayConfig struct {
	Host      string        `yaml:"host"`
	Port      int           `yaml:"port"`
	Username  string        `yaml:"username"`
	Password  string        `yaml:"password"`
	FromEmail string        `yaml:"from_email"`
	FromName  string        `yaml:"from_name"`
	Timeout   time.Duration `yaml:"timeout"`
}

// SearchConfig contains web search API settings
type SearchConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKey      string `yaml:"api_key"`
	Engine      string `yaml:"engine"`
	ResultCount int    `yaml:"result_count"`
	MaxRetries  int    `yaml:"max_retries"`
}

// LLMConfig contains completion API settings
type LLMConfig struct {
	BaseURL    string `yaml:"base_url"`
	APIKey     string `yaml:"api_key"`
	Model      string `yaml:"model"`
	MaxRetries int    `yaml:"max_retries"`
}

// TrackingConfig contains delivery record storage settings
type TrackingConfig struct {
	Path        string `yaml:"path"`
	TrackingURL string `yaml:"tracking_url"` // base URL for the open pixel, empty disables it
}

// SheetsConfig contains Google Sheets sync settings
type SheetsConfig struct {
	Enabled         bool   `yaml:"enabled"`
	CredentialsFile string `yaml:"credentials_file"`
	SpreadsheetID   string `yaml:"spreadsheet_id"`
	SheetName       string `yaml:"sheet_name"`
}

// APIConfig contains dashboard HTTP server settings
type APIConfig struct {
	ListenAddr   string        `yaml:"listen_addr"`
	APIKey       string        `yaml:"api_key"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`
}

// CampaignConfig contains campaign template settings
type CampaignConfig struct {
	ContentTemplate string `yaml:"content_template"`
	SubjectTemplate string `yaml:"subject_template"`
	SearchQuery     string `yaml:"search_query"`
}

// SchedulerConfig contains periodic campaign settings
type SchedulerConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Interval time.Duration `yaml:"interval"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// Load loads configuration from a YAML file. ${VAR} references in the
// file are expanded from the environment before parsing, so API keys
// and SMTP credentials can live outside the file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	cfg := &Config{}
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setDefaults sets default values for configuration
func (c *Config) setDefaults() {
	if c.Relay.Port == 0 {
		c.Relay.Port = 587
	}
	if c.Relay.Timeout == 0 {
		c.Relay.Timeout = 30 * time.Second
	}
	if c.Relay.FromName == "" {
		c.Relay.FromName = "BreakoutAI"
	}

	if c.Search.BaseURL == "" {
		c.Search.BaseURL = search.DefaultBaseURL
	}
	if c.Search.Engine == "" {
		c.Search.Engine = "google"
	}
	if c.Search.ResultCount == 0 {
		c.Search.ResultCount = 100
	}
	if c.Search.MaxRetries == 0 {
		c.Search.MaxRetries = 5
	}

	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = llm.DefaultBaseURL
	}
	if c.LLM.Model == "" {
		c.LLM.Model = llm.DefaultModel
	}
	if c.LLM.MaxRetries == 0 {
		c.LLM.MaxRetries = 3
	}

	if c.Tracking.Path == "" {
		c.Tracking.Path = "data/tracking.db"
	}

	if c.Sheets.SheetName == "" {
		c.Sheets.SheetName = "Sheet1"
	}

	if c.API.ListenAddr == "" {
		c.API.ListenAddr = ":8080"
	}
	if c.API.ReadTimeout == 0 {
		c.API.ReadTimeout = 30 * time.Second
	}
	if c.API.WriteTimeout == 0 {
		c.API.WriteTimeout = 30 * time.Second
	}
	if c.API.IdleTimeout == 0 {
		c.API.IdleTimeout = 60 * time.Second
	}

	if c.Scheduler.Interval == 0 {
		c.Scheduler.Interval = time.Hour
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Relay.Host == "" {
		return &Error{Field: "relay.host", Reason: "is required"}
	}
	if c.Relay.Username == "" {
		return &Error{Field: "relay.username", Reason: "is required"}
	}
	if c.Relay.Password == "" {
		return &Error{Field: "relay.password", Reason: "is required"}
	}
	if c.Relay.FromEmail == "" {
		return &Error{Field: "relay.from_email", Reason: "is required"}
	}

	if c.LLM.APIKey == "" {
		return &Error{Field: "llm.api_key", Reason: "is required"}
	}

	// Search is only needed when enrichment is configured.
	if c.Campaign.SearchQuery != "" && c.Search.APIKey == "" {
		return &Error{Field: "search.api_key", Reason: "is required when campaign.search_query is set"}
	}

	// The scheduler re-reads its input from the sheet on every pass.
	if c.Scheduler.Enabled && !c.Sheets.Enabled {
		return &Error{Field: "scheduler.enabled", Reason: "requires sheets sync to be enabled"}
	}

	if c.Sheets.Enabled {
		if c.Sheets.CredentialsFile == "" {
			return &Error{Field: "sheets.credentials_file", Reason: "is required when sheets sync is enabled"}
		}
		if c.Sheets.SpreadsheetID == "" {
			return &Error{Field: "sheets.spreadsheet_id", Reason: "is required when sheets sync is enabled"}
		}
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return &Error{Field: "logging.level", Reason: fmt.Sprintf("invalid value %q (must be debug, info, warn, or error)", c.Logging.Level)}
	}

	validLogFormats := map[string]bool{"json": true, "text": true}
	if !validLogFormats[c.Logging.Format] {
		return &Error{Field: "logging.format", Reason: fmt.Sprintf("invalid value %q (must be json or text)", c.Logging.Format)}
	}

	return nil
}
