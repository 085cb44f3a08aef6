package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/lehen20/dpr-auto/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.ShutdownTimeout != "30s" {
		t.Errorf("ShutdownTimeout = %q, want 30s", cfg.ShutdownTimeout)
	}
	if cfg.Version != "0.1.0" {
		t.Errorf("Version = %q, want 0.1.0", cfg.Version)
	}
	if got := cfg.Server.Addr(); got != "0.0.0.0:8080" {
		t.Errorf("Server.Addr() = %q, want 0.0.0.0:8080", got)
	}
	if cfg.Server.WriteTimeout != "35m" {
		t.Errorf("Server.WriteTimeout = %q, want 35m", cfg.Server.WriteTimeout)
	}
	if cfg.API.BasePath != "/api" {
		t.Errorf("API.BasePath = %q, want /api", cfg.API.BasePath)
	}
	if got := cfg.API.MaxUploadSizeBytes(); got != 50*1024*1024 {
		t.Errorf("API.MaxUploadSizeBytes() = %d, want %d", got, 50*1024*1024)
	}
	if cfg.Enrich.Model != "gemini-1.5-flash" {
		t.Errorf("Enrich.Model = %q, want gemini-1.5-flash", cfg.Enrich.Model)
	}
	if cfg.Enrich.APIKey != "" {
		t.Errorf("Enrich.APIKey = %q, want empty", cfg.Enrich.APIKey)
	}
}

func TestLoadBaseFile(t *testing.T) {
	t.Chdir(t.TempDir())
	writeConfig(t, config.BaseConfigFile, `
version = "1.2.3"
shutdown_timeout = "45s"

[server]
port = 9090

[enrich]
model = "gemini-1.5-pro"
`)

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Version != "1.2.3" {
		t.Errorf("Version = %q, want 1.2.3", cfg.Version)
	}
	if got := cfg.ShutdownTimeoutDuration(); got != 45*time.Second {
		t.Errorf("ShutdownTimeoutDuration() = %v, want 45s", got)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	// Unset fields still get defaults.
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Server.Host = %q, want 0.0.0.0", cfg.Server.Host)
	}
	if cfg.Enrich.Model != "gemini-1.5-pro" {
		t.Errorf("Enrich.Model = %q, want gemini-1.5-pro", cfg.Enrich.Model)
	}
}

func TestLoadOverlay(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv(config.EnvDPREnv, "staging")
	writeConfig(t, config.BaseConfigFile, `
version = "1.0.0"

[server]
port = 9090
read_timeout = "2m"
`)
	writeConfig(t, "config.staging.toml", `
[server]
port = 7070
`)

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != 7070 {
		t.Errorf("Server.Port = %d, want overlay 7070", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != "2m" {
		t.Errorf("Server.ReadTimeout = %q, want base 2m", cfg.Server.ReadTimeout)
	}
	if cfg.Version != "1.0.0" {
		t.Errorf("Version = %q, want base 1.0.0", cfg.Version)
	}
}

func TestLoadMissingOverlayIgnored(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv(config.EnvDPREnv, "production")
	writeConfig(t, config.BaseConfigFile, `version = "2.0.0"`)

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Version != "2.0.0" {
		t.Errorf("Version = %q, want 2.0.0", cfg.Version)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	writeConfig(t, config.BaseConfigFile, `
shutdown_timeout = "45s"

[server]
port = 9090
`)
	t.Setenv(config.EnvDPRShutdownTimeout, "90s")
	t.Setenv(config.EnvDPRVersion, "9.9.9")
	t.Setenv(config.EnvServerPort, "6061")
	t.Setenv(config.EnvEnrichAPIKey, "test-key")
	t.Setenv("DPR_STORE_BASE_PATH", "/var/lib/dpr")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.ShutdownTimeout != "90s" {
		t.Errorf("ShutdownTimeout = %q, want env 90s", cfg.ShutdownTimeout)
	}
	if cfg.Version != "9.9.9" {
		t.Errorf("Version = %q, want env 9.9.9", cfg.Version)
	}
	if cfg.Server.Port != 6061 {
		t.Errorf("Server.Port = %d, want env 6061", cfg.Server.Port)
	}
	if cfg.Enrich.APIKey != "test-key" {
		t.Errorf("Enrich.APIKey = %q, want env test-key", cfg.Enrich.APIKey)
	}
	if cfg.Store.BasePath != "/var/lib/dpr" {
		t.Errorf("Store.BasePath = %q, want env /var/lib/dpr", cfg.Store.BasePath)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name string
		toml string
		want string
	}{
		{"bad shutdown timeout", `shutdown_timeout = "soon"`, "shutdown_timeout"},
		{"bad port", "[server]\nport = 99999", "server"},
		{"bad temperature", "[enrich]\ntemperature = 3.0", "enrich"},
		{"bad run budget", "[pipeline]\nrun_budget = \"forever\"", "pipeline"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Chdir(t.TempDir())
			writeConfig(t, config.BaseConfigFile, tt.toml)

			if _, err := config.Load(); err == nil {
				t.Fatal("Load accepted invalid config")
			} else if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want mention of %q", err, tt.want)
			}
		})
	}
}

func TestMerge(t *testing.T) {
	base := &config.Config{
		Version:         "1.0.0",
		ShutdownTimeout: "30s",
		Server:          config.ServerConfig{Host: "127.0.0.1", Port: 8080},
		Enrich:          config.EnrichConfig{Model: "gemini-1.5-flash", MaxTokens: 512},
	}
	overlay := &config.Config{
		Version: "1.1.0",
		Server:  config.ServerConfig{Port: 9000},
		Enrich:  config.EnrichConfig{MaxTokens: 1024},
	}

	base.Merge(overlay)

	if base.Version != "1.1.0" {
		t.Errorf("Version = %q, want 1.1.0", base.Version)
	}
	if base.ShutdownTimeout != "30s" {
		t.Errorf("ShutdownTimeout = %q, want untouched 30s", base.ShutdownTimeout)
	}
	if base.Server.Port != 9000 {
		t.Errorf("Server.Port = %d, want 9000", base.Server.Port)
	}
	if base.Server.Host != "127.0.0.1" {
		t.Errorf("Server.Host = %q, want untouched 127.0.0.1", base.Server.Host)
	}
	if base.Enrich.MaxTokens != 1024 {
		t.Errorf("Enrich.MaxTokens = %d, want 1024", base.Enrich.MaxTokens)
	}
	if base.Enrich.Model != "gemini-1.5-flash" {
		t.Errorf("Enrich.Model = %q, want untouched", base.Enrich.Model)
	}
}

func TestEnv(t *testing.T) {
	cfg := &config.Config{}

	t.Setenv(config.EnvDPREnv, "")
	if got := cfg.Env(); got != "local" {
		t.Errorf("Env() = %q, want local", got)
	}

	t.Setenv(config.EnvDPREnv, "staging")
	if got := cfg.Env(); got != "staging" {
		t.Errorf("Env() = %q, want staging", got)
	}
}

func writeConfig(t *testing.T, name, content string) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(wd, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
