package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the full stampcardd configuration.
type Config struct {
	Listen              string `yaml:"listen"`
	IndexerURL          string `yaml:"indexer_url"`
	CatalogDB           string `yaml:"catalog_db"`
	ObservabilityDB     string `yaml:"observability_db"`
	FetchTimeoutSeconds int    `yaml:"fetch_timeout_seconds"`
	IdleTTLMinutes      int    `yaml:"idle_ttl_minutes"`
	JanitorSeconds      int    `yaml:"janitor_seconds"`
	CatalogWatchSeconds int    `yaml:"catalog_watch_seconds"`
	LogLevel            string `yaml:"log_level"`

	Retention RetentionConfig `yaml:"retention"`
	MCP       MCPConfig       `yaml:"mcp"`
}

// RetentionConfig configures observability log cleanup.
type RetentionConfig struct {
	EventLogsDays int `yaml:"event_logs_days"`
	HTTPLogsDays  int `yaml:"http_logs_days"`
}

// MCPConfig configures the optional MCP-over-QUIC listener.
type MCPConfig struct {
	Transport string `yaml:"transport"` // "" disables, "quic" enables
	Addr      string `yaml:"addr"`
	TLSCert   string `yaml:"tls_cert"`
	TLSKey    string `yaml:"tls_key"`
}

// DefaultConfig returns sane defaults.
func DefaultConfig() *Config {
	return &Config{
		Listen:              ":8086",
		IndexerURL:          "http://localhost:8090",
		CatalogDB:           "db/catalog.db",
		ObservabilityDB:     "db/observability.db",
		FetchTimeoutSeconds: 30,
		IdleTTLMinutes:      30,
		JanitorSeconds:      300,
		CatalogWatchSeconds: 2,
		LogLevel:            "info",
		Retention: RetentionConfig{
			EventLogsDays: 30,
			HTTPLogsDays:  7,
		},
		MCP: MCPConfig{
			Addr: ":9445",
		},
	}
}

func (c *Config) FetchTimeout() time.Duration { return time.Duration(c.FetchTimeoutSeconds) * time.Second }
func (c *Config) IdleTTL() time.Duration      { return time.Duration(c.IdleTTLMinutes) * time.Minute }
func (c *Config) JanitorInterval() time.Duration {
	return time.Duration(c.JanitorSeconds) * time.Second
}
func (c *Config) CatalogWatch() time.Duration {
	return time.Duration(c.CatalogWatchSeconds) * time.Second
}

// LoadConfig reads and parses a YAML config file, merged over defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Validate checks that required fields are present and values are sane.
func (c *Config) Validate() error {
	if c.IndexerURL == "" {
		return fmt.Errorf("indexer_url is required")
	}
	if c.CatalogDB == "" {
		return fmt.Errorf("catalog_db is required")
	}
	if c.ObservabilityDB == "" {
		return fmt.Errorf("observability_db is required")
	}
	if c.FetchTimeoutSeconds <= 0 {
		return fmt.Errorf("fetch_timeout_seconds must be > 0")
	}
	if c.IdleTTLMinutes <= 0 {
		return fmt.Errorf("idle_ttl_minutes must be > 0")
	}
	if c.JanitorSeconds <= 0 {
		return fmt.Errorf("janitor_seconds must be > 0")
	}
	if c.CatalogWatchSeconds <= 0 {
		return fmt.Errorf("catalog_watch_seconds must be > 0")
	}
	if c.MCP.Transport != "" && c.MCP.Transport != "quic" {
		return fmt.Errorf("mcp.transport must be empty or %q", "quic")
	}
	return nil
}

// applyEnv overrides file configuration with environment variables, which
// win so deployments can tweak a shared config file.
func (c *Config) applyEnv() {
	if v := os.Getenv("PORT"); v != "" {
		c.Listen = ":" + v
	}
	if v := os.Getenv("LISTEN"); v != "" {
		c.Listen = v
	}
	if v := os.Getenv("INDEXER_URL"); v != "" {
		c.IndexerURL = v
	}
	if v := os.Getenv("CATALOG_DB"); v != "" {
		c.CatalogDB = v
	}
	if v := os.Getenv("OBSERVABILITY_DB"); v != "" {
		c.ObservabilityDB = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("MCP_TRANSPORT"); v != "" {
		c.MCP.Transport = v
	}
	if v := os.Getenv("MCP_QUIC_ADDR"); v != "" {
		c.MCP.Addr = v
	}
	if v := os.Getenv("TLS_CERT"); v != "" {
		c.MCP.TLSCert = v
	}
	if v := os.Getenv("TLS_KEY"); v != "" {
		c.MCP.TLSKey = v
	}
}
