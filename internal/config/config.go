package config

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Anthropic  AnthropicConfig  `yaml:"anthropic" mapstructure:"anthropic"`
	Browser    BrowserConfig    `yaml:"browser" mapstructure:"browser"`
	Scrape     ScrapeConfig     `yaml:"scrape" mapstructure:"scrape"`
	Classifier ClassifierConfig `yaml:"classifier" mapstructure:"classifier"`
	Workspace  WorkspaceConfig  `yaml:"workspace" mapstructure:"workspace"`
	Merge      MergeConfig      `yaml:"merge" mapstructure:"merge"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// AnthropicConfig holds settings for the format-inference model call.
type AnthropicConfig struct {
	Key       string `yaml:"key" mapstructure:"key"`
	Model     string `yaml:"model" mapstructure:"model"`
	MaxTokens int64  `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// BrowserConfig configures the stealth browser factory.
type BrowserConfig struct {
	Headless           bool `yaml:"headless" mapstructure:"headless"`
	QueriesPerContext  int  `yaml:"queries_per_context" mapstructure:"queries_per_context"`
	OperationTimeoutMS int  `yaml:"operation_timeout_ms" mapstructure:"operation_timeout_ms"`
	NavTimeoutMS       int  `yaml:"nav_timeout_ms" mapstructure:"nav_timeout_ms"`
	SelectorTimeoutMS  int  `yaml:"selector_timeout_ms" mapstructure:"selector_timeout_ms"`
	ConsentTimeoutMS   int  `yaml:"consent_timeout_ms" mapstructure:"consent_timeout_ms"`
}

// ScrapeConfig configures the two site scrapers.
type ScrapeConfig struct {
	AssessorURL     string `yaml:"assessor_url" mapstructure:"assessor_url"`
	PeopleSearchURL string `yaml:"people_search_url" mapstructure:"people_search_url"`
	Retries         int    `yaml:"retries" mapstructure:"retries"`
	MinDelayMS      int    `yaml:"min_delay_ms" mapstructure:"min_delay_ms"`
	MaxDelayMS      int    `yaml:"max_delay_ms" mapstructure:"max_delay_ms"`
	Concurrency     int    `yaml:"concurrency" mapstructure:"concurrency"`
}

// ClassifierConfig configures the remote phone-type classifier.
type ClassifierConfig struct {
	URL            string `yaml:"url" mapstructure:"url"`
	Key            string `yaml:"key" mapstructure:"key"`
	BatchSize      int    `yaml:"batch_size" mapstructure:"batch_size"`
	TimeoutSecs    int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RequestsPerSec int    `yaml:"requests_per_sec" mapstructure:"requests_per_sec"`
}

// WorkspaceConfig configures per-user file storage.
type WorkspaceConfig struct {
	Root            string `yaml:"root" mapstructure:"root"`
	RetentionDays   int    `yaml:"retention_days" mapstructure:"retention_days"`
	SweepEveryHours int    `yaml:"sweep_every_hours" mapstructure:"sweep_every_hours"`
}

// MergeConfig configures the merge engine.
type MergeConfig struct {
	ScratchColumnPrefix string `yaml:"scratch_column_prefix" mapstructure:"scratch_column_prefix"`
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Port          int    `yaml:"port" mapstructure:"port"`
	MaxUploadMB   int    `yaml:"max_upload_mb" mapstructure:"max_upload_mb"`
	CookieName    string `yaml:"cookie_name" mapstructure:"cookie_name"`
	AllowedOrigin string `yaml:"allowed_origin" mapstructure:"allowed_origin"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// ProxyList returns the raw BLAKE_PROXIES value. The variable name is fixed
// by the proxy vendor setup, so it is read outside the viper prefix.
func ProxyList() string {
	return os.Getenv("BLAKE_PROXIES")
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("ENRICH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.max_upload_mb", 32)
	v.SetDefault("server.cookie_name", "enrich_uid")
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.max_tokens", 2048)
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.queries_per_context", 2)
	v.SetDefault("browser.operation_timeout_ms", 15000)
	v.SetDefault("browser.nav_timeout_ms", 15000)
	v.SetDefault("browser.selector_timeout_ms", 3000)
	v.SetDefault("browser.consent_timeout_ms", 5000)
	v.SetDefault("scrape.assessor_url", "https://web.bcpa.net/BcpaClient/#/Record-Search")
	v.SetDefault("scrape.people_search_url", "https://www.fastpeoplesearch.com")
	v.SetDefault("scrape.retries", 1)
	v.SetDefault("scrape.min_delay_ms", 500)
	v.SetDefault("scrape.max_delay_ms", 1000)
	v.SetDefault("scrape.concurrency", 1)
	v.SetDefault("classifier.batch_size", 800)
	v.SetDefault("classifier.timeout_secs", 120)
	v.SetDefault("classifier.requests_per_sec", 2)
	v.SetDefault("workspace.root", "data")
	v.SetDefault("workspace.retention_days", 7)
	v.SetDefault("workspace.sweep_every_hours", 168)
	v.SetDefault("merge.scratch_column_prefix", "_enrich_")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
