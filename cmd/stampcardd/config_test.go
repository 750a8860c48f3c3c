package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfigIsValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
}

func TestLoadConfigMergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stampcardd.yaml")
	data := []byte(`
listen: ":9000"
indexer_url: "http://indexer.internal:8090"
idle_ttl_minutes: 5
mcp:
  transport: quic
  addr: ":9500"
`)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Listen != ":9000" {
		t.Errorf("Listen = %q", cfg.Listen)
	}
	if cfg.IdleTTL() != 5*time.Minute {
		t.Errorf("IdleTTL = %v", cfg.IdleTTL())
	}
	if cfg.MCP.Transport != "quic" || cfg.MCP.Addr != ":9500" {
		t.Errorf("MCP = %+v", cfg.MCP)
	}
	// Untouched fields keep their defaults.
	if cfg.CatalogDB != "db/catalog.db" {
		t.Errorf("CatalogDB = %q", cfg.CatalogDB)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing indexer", func(c *Config) { c.IndexerURL = "" }},
		{"zero fetch timeout", func(c *Config) { c.FetchTimeoutSeconds = 0 }},
		{"zero ttl", func(c *Config) { c.IdleTTLMinutes = 0 }},
		{"unknown transport", func(c *Config) { c.MCP.Transport = "tcp" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}
