package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"incidentsum/internal/classify"
	"incidentsum/internal/extract"
)

// DefaultFileName is looked up when no config path is given.
const DefaultFileName = "incidentsum.yml"

// Config is the root configuration.
type Config struct {
	IncidentSum IncidentSumConfig `yaml:"incidentsum"`
}

// IncidentSumConfig is the project configuration.
type IncidentSumConfig struct {
	Summarizer SummarizerConfig  `yaml:"summarizer"`
	Report     ReportConfig      `yaml:"report"`
	Taxonomy   classify.Taxonomy `yaml:"taxonomy"`
	Extraction extract.RuleSet   `yaml:"extraction"`
	Input      InputConfig       `yaml:"input"`
	Pipeline   PipelineConfig    `yaml:"pipeline"`
	Output     OutputConfig      `yaml:"output"`
	Store      StoreConfig       `yaml:"store"`
	Digest     DigestConfig      `yaml:"digest"`
	Alerts     AlertsConfig      `yaml:"alerts"`
	Rules      RulesConfig       `yaml:"rules"`
	Server     ServerConfig      `yaml:"server"`
	Logging    LoggingConfig     `yaml:"logging"`
}

// SummarizerConfig selects the summarization collaborator.
type SummarizerConfig struct {
	Provider      string            `yaml:"provider"` // extractive|anthropic
	Model         string            `yaml:"model"`
	APIKey        string            `yaml:"api_key"`
	MinLength     int               `yaml:"min_length"`
	MaxLength     int               `yaml:"max_length"`
	MaxInputChars int               `yaml:"max_input_chars"`
	Confidence    *float64          `yaml:"confidence"`
	Timeout       time.Duration     `yaml:"timeout"`
	Translation   TranslationConfig `yaml:"translation"`
}

// TranslationConfig controls optional summary translation.
type TranslationConfig struct {
	Enabled        bool   `yaml:"enabled"`
	TargetLanguage string `yaml:"target_language"`
	Model          string `yaml:"model"`
}

// ReportConfig controls input validation.
type ReportConfig struct {
	MinWordCount int `yaml:"min_word_count"`
}

// InputConfig controls the queue reader.
type InputConfig struct {
	Mode  string      `yaml:"mode"` // redis|nats
	Redis RedisConfig `yaml:"redis"`
	NATS  NATSConfig  `yaml:"nats"`
}

// RedisConfig controls Redis input.
type RedisConfig struct {
	Addr         string        `yaml:"addr"`
	Password     string        `yaml:"password"`
	DB           int           `yaml:"db"`
	Key          string        `yaml:"key"`
	BlockTimeout time.Duration `yaml:"block_timeout"`
}

// NATSConfig controls NATS input.
type NATSConfig struct {
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
	Queue   string `yaml:"queue"`
}

// PipelineConfig controls pipeline behavior.
type PipelineConfig struct {
	Workers       int           `yaml:"workers"`
	BatchSize     int           `yaml:"batch_size"`
	FlushInterval time.Duration `yaml:"flush_interval"`
}

// OutputConfig controls report sinks.
type OutputConfig struct {
	Mode  string           `yaml:"mode"` // file|http
	File  FileOutputConfig `yaml:"file"`
	HTTP  HTTPOutputConfig `yaml:"http"`
	Slack SlackConfig      `yaml:"slack"`
}

// FileOutputConfig config for local JSON output.
type FileOutputConfig struct {
	Path string `yaml:"path"`
}

// HTTPOutputConfig config for remote output.
type HTTPOutputConfig struct {
	URL     string            `yaml:"url"`
	Timeout time.Duration     `yaml:"timeout"`
	Headers map[string]string `yaml:"headers"`
}

// SlackConfig controls Slack notifications.
type SlackConfig struct {
	Enabled       bool   `yaml:"enabled"`
	BotToken      string `yaml:"bot_token"`
	ChannelID     string `yaml:"channel_id"`
	IncludeErrors bool   `yaml:"include_errors"`
}

// StoreConfig controls the SQLite report history.
type StoreConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// DigestConfig controls the scheduled category digest.
type DigestConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Schedule string `yaml:"schedule"`
}

// AlertsConfig controls category burst alerts.
type AlertsConfig struct {
	Enabled    bool          `yaml:"enabled"`
	Window     time.Duration `yaml:"window"`
	Threshold  int           `yaml:"threshold"`
	MaxReports int           `yaml:"max_reports"`
	Cooldown   time.Duration `yaml:"cooldown"`
}

// RulesConfig controls Sigma tagging rules.
type RulesConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	MaxBodyBytes int64         `yaml:"max_body_bytes"`
	Metrics      bool          `yaml:"metrics"`
}

// LoggingConfig controls logging output.
type LoggingConfig struct {
	Enabled bool   `yaml:"enabled"`
	Level   string `yaml:"level"`
	File    string `yaml:"file"`
	Console bool   `yaml:"console"`
}

// LoadConfig reads and parses a YAML config file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes YAML configuration.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &cfg, nil
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.IncidentSum.Logging.Enabled = true
	cfg.IncidentSum.Logging.Console = true
	ApplyDefaults(cfg)
	return cfg
}

// FindConfigFile resolves the config path: the argument, ./incidentsum.yml, then the
// executable's directory. The second result is false when no file exists.
func FindConfigFile(configArg string) (string, bool) {
	if configArg != "" {
		if _, err := os.Stat(configArg); err == nil {
			return configArg, true
		}
	}

	if _, err := os.Stat(DefaultFileName); err == nil {
		return DefaultFileName, true
	}

	exePath, err := os.Executable()
	if err == nil {
		path := filepath.Join(filepath.Dir(exePath), DefaultFileName)
		if _, err := os.Stat(path); err == nil {
			return path, true
		}
	}

	return configArg, false
}

// Load finds, reads and validates configuration. A missing file yields defaults unless
// the path was given explicitly.
func Load(configArg string) (*Config, string, error) {
	path, found := FindConfigFile(configArg)
	if !found {
		if configArg != "" {
			return nil, "", fmt.Errorf("config file not found: %s", configArg)
		}
		cfg := Default()
		ApplyEnv(cfg)
		return cfg, "", cfg.Validate()
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, path, fmt.Errorf("load %s: %w", path, err)
	}
	ApplyEnv(cfg)
	ApplyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, path, err
	}
	return cfg, path, nil
}

// ApplyEnv overrides secrets and endpoints from the environment.
func ApplyEnv(cfg *Config) {
	c := &cfg.IncidentSum
	envOverride(&c.Summarizer.APIKey, "ANTHROPIC_API_KEY")
	envOverride(&c.Summarizer.Provider, "INCIDENTSUM_SUMMARIZER")
	envOverride(&c.Output.Slack.BotToken, "SLACK_BOT_TOKEN")
	envOverride(&c.Input.Redis.Addr, "REDIS_ADDR")
	envOverride(&c.Input.Redis.Password, "REDIS_PASSWORD")
	envOverride(&c.Input.NATS.URL, "NATS_URL")
}

func envOverride(field *string, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		*field = val
	}
}

// ApplyDefaults fills unset fields.
func ApplyDefaults(cfg *Config) {
	c := &cfg.IncidentSum

	if c.Summarizer.Provider == "" {
		c.Summarizer.Provider = "extractive"
	}
	if c.Summarizer.MinLength <= 0 {
		c.Summarizer.MinLength = 50
	}
	if c.Summarizer.MaxLength <= 0 {
		c.Summarizer.MaxLength = 150
	}
	if c.Summarizer.MaxInputChars <= 0 {
		c.Summarizer.MaxInputChars = 16000
	}
	if c.Summarizer.Timeout <= 0 {
		c.Summarizer.Timeout = 60 * time.Second
	}
	if c.Report.MinWordCount <= 0 {
		c.Report.MinWordCount = 50
	}

	if len(c.Taxonomy.Categories) == 0 {
		fallback := c.Taxonomy.Fallback
		c.Taxonomy = classify.DefaultTaxonomy()
		if fallback != "" {
			c.Taxonomy.Fallback = fallback
		}
	}
	if c.Taxonomy.Fallback == "" {
		c.Taxonomy.Fallback = classify.DefaultFallback
	}
	if len(c.Extraction.Patterns) == 0 && len(c.Extraction.KeyValues) == 0 {
		c.Extraction = extract.DefaultRuleSet()
	}

	if c.Input.Mode == "" {
		c.Input.Mode = "redis"
	}
	if c.Input.Redis.Addr == "" {
		c.Input.Redis.Addr = "127.0.0.1:6379"
	}
	if c.Input.Redis.Key == "" {
		c.Input.Redis.Key = "incident_reports"
	}
	if c.Input.Redis.BlockTimeout == 0 {
		c.Input.Redis.BlockTimeout = 5 * time.Second
	}
	if c.Input.NATS.URL == "" {
		c.Input.NATS.URL = "nats://127.0.0.1:4222"
	}
	if c.Input.NATS.Subject == "" {
		c.Input.NATS.Subject = "incidents.reports"
	}
	if c.Input.NATS.Queue == "" {
		c.Input.NATS.Queue = "incidentsum"
	}

	if c.Pipeline.Workers <= 0 {
		c.Pipeline.Workers = 4
	}
	if c.Pipeline.BatchSize <= 0 {
		c.Pipeline.BatchSize = 100
	}
	if c.Pipeline.FlushInterval <= 0 {
		c.Pipeline.FlushInterval = 2 * time.Second
	}

	if c.Output.Mode == "" {
		c.Output.Mode = "file"
	}
	if c.Output.File.Path == "" {
		c.Output.File.Path = "output/reports.jsonl"
	}

	if c.Store.Path == "" {
		c.Store.Path = "./incidentsum.db"
	}
	if c.Digest.Schedule == "" {
		c.Digest.Schedule = "0 9 * * *"
	}

	if c.Alerts.Window <= 0 {
		c.Alerts.Window = 30 * time.Minute
	}
	if c.Alerts.Threshold <= 0 {
		c.Alerts.Threshold = 5
	}
	if c.Alerts.MaxReports <= 0 {
		c.Alerts.MaxReports = 50
	}
	if c.Alerts.Cooldown <= 0 {
		c.Alerts.Cooldown = 15 * time.Minute
	}

	if c.Server.Addr == "" {
		c.Server.Addr = "0.0.0.0:7860"
	}
	if c.Server.ReadTimeout <= 0 {
		c.Server.ReadTimeout = 15 * time.Second
	}
	if c.Server.WriteTimeout <= 0 {
		c.Server.WriteTimeout = 90 * time.Second
	}
	if c.Server.MaxBodyBytes <= 0 {
		c.Server.MaxBodyBytes = 1 << 20
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

// Validate reports configuration errors.
func (cfg *Config) Validate() error {
	c := &cfg.IncidentSum

	switch strings.ToLower(c.Summarizer.Provider) {
	case "extractive":
	case "anthropic":
		if c.Summarizer.APIKey == "" {
			return fmt.Errorf("summarizer.api_key is required when summarizer.provider=anthropic")
		}
	default:
		return fmt.Errorf("summarizer.provider must be 'extractive' or 'anthropic', got '%s'", c.Summarizer.Provider)
	}
	if c.Summarizer.Translation.Enabled {
		if c.Summarizer.APIKey == "" {
			return fmt.Errorf("summarizer.api_key is required when translation is enabled")
		}
		if strings.TrimSpace(c.Summarizer.Translation.TargetLanguage) == "" {
			return fmt.Errorf("summarizer.translation.target_language is required when translation is enabled")
		}
	}
	if c.Summarizer.MinLength > c.Summarizer.MaxLength {
		return fmt.Errorf("summarizer.min_length (%d) exceeds max_length (%d)", c.Summarizer.MinLength, c.Summarizer.MaxLength)
	}
	if conf := c.Summarizer.Confidence; conf != nil && (*conf < 0 || *conf > 1) {
		return fmt.Errorf("summarizer.confidence must be between 0 and 1, got %f", *conf)
	}

	switch c.Input.Mode {
	case "redis", "nats":
	default:
		return fmt.Errorf("input.mode must be 'redis' or 'nats', got '%s'", c.Input.Mode)
	}
	switch c.Output.Mode {
	case "file":
	case "http":
		if c.Output.HTTP.URL == "" {
			return fmt.Errorf("output.http.url is required when output.mode=http")
		}
	default:
		return fmt.Errorf("output.mode must be 'file' or 'http', got '%s'", c.Output.Mode)
	}
	if c.Output.Slack.Enabled && (c.Output.Slack.BotToken == "" || c.Output.Slack.ChannelID == "") {
		return fmt.Errorf("output.slack requires bot_token and channel_id when enabled")
	}
	if c.Digest.Enabled && !c.Store.Enabled {
		return fmt.Errorf("digest requires store.enabled")
	}
	if c.Rules.Enabled && strings.TrimSpace(c.Rules.Path) == "" {
		return fmt.Errorf("rules.path is required when rules.enabled")
	}
	return nil
}
