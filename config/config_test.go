package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ZaguanLabs/glossia"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "glossia.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Writing config file: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.ListenAddr != ":8080" {
		t.Errorf("Expected listen_addr ':8080', got %q", cfg.ListenAddr)
	}
	if cfg.ClientURL != "*" {
		t.Errorf("Expected client_url '*', got %q", cfg.ClientURL)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("Expected log_level 'info', got %q", cfg.LogLevel)
	}
	if cfg.LLM.Model != "gpt-4o-mini" {
		t.Errorf("Expected default model, got %q", cfg.LLM.Model)
	}
	if cfg.Translate.ChunkBudget != glossia.DefaultChunkBudget {
		t.Errorf("Expected chunk budget %d, got %d", glossia.DefaultChunkBudget, cfg.Translate.ChunkBudget)
	}
	if cfg.Translate.Workers != glossia.DefaultWorkers {
		t.Errorf("Expected %d workers, got %d", glossia.DefaultWorkers, cfg.Translate.Workers)
	}
	if cfg.Translate.CallTimeout != glossia.DefaultCallTimeout {
		t.Errorf("Expected call timeout %v, got %v", glossia.DefaultCallTimeout, cfg.Translate.CallTimeout)
	}
	if cfg.Cache.TTL != 24*time.Hour {
		t.Errorf("Expected cache TTL 24h, got %v", cfg.Cache.TTL)
	}
	if cfg.Cache.MaxEntries != 10000 {
		t.Errorf("Expected 10000 max entries, got %d", cfg.Cache.MaxEntries)
	}
	if cfg.Cache.RedisURL != "" || cfg.Convert.URL != "" || cfg.Whisper.URL != "" {
		t.Error("Expected external service URLs to default to empty")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("GLOSSIA_LISTEN_ADDR", ":9090")
	t.Setenv("GLOSSIA_LLM_MODEL", "llama-3.1-8b")
	t.Setenv("GLOSSIA_TRANSLATE_WORKERS", "8")
	t.Setenv("GLOSSIA_CACHE_TTL", "1h")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.ListenAddr != ":9090" {
		t.Errorf("Expected listen_addr ':9090', got %q", cfg.ListenAddr)
	}
	if cfg.LLM.Model != "llama-3.1-8b" {
		t.Errorf("Expected model override, got %q", cfg.LLM.Model)
	}
	if cfg.Translate.Workers != 8 {
		t.Errorf("Expected 8 workers, got %d", cfg.Translate.Workers)
	}
	if cfg.Cache.TTL != time.Hour {
		t.Errorf("Expected TTL 1h, got %v", cfg.Cache.TTL)
	}
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
listen_addr: ":7000"
log_level: debug
llm:
  model: qwen2.5-7b
  api_key: sk-test
translate:
  chunk_budget: 2000
cache:
  redis_url: redis://localhost:6379/0
  ttl: 48h
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.ListenAddr != ":7000" {
		t.Errorf("Expected listen_addr ':7000', got %q", cfg.ListenAddr)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("Expected log_level 'debug', got %q", cfg.LogLevel)
	}
	if cfg.LLM.Model != "qwen2.5-7b" || cfg.LLM.APIKey != "sk-test" {
		t.Errorf("Unexpected llm config: %+v", cfg.LLM)
	}
	if cfg.Translate.ChunkBudget != 2000 {
		t.Errorf("Expected chunk budget 2000, got %d", cfg.Translate.ChunkBudget)
	}
	if cfg.Cache.RedisURL != "redis://localhost:6379/0" {
		t.Errorf("Unexpected redis URL: %q", cfg.Cache.RedisURL)
	}
	if cfg.Cache.TTL != 48*time.Hour {
		t.Errorf("Expected TTL 48h, got %v", cfg.Cache.TTL)
	}

	// Keys the file does not mention keep their defaults.
	if cfg.ClientURL != "*" {
		t.Errorf("Expected default client_url, got %q", cfg.ClientURL)
	}
	if cfg.Translate.Workers != glossia.DefaultWorkers {
		t.Errorf("Expected default workers, got %d", cfg.Translate.Workers)
	}
}

func TestLoad_EnvBeatsFile(t *testing.T) {
	path := writeConfig(t, "llm:\n  model: from-file\n")
	t.Setenv("GLOSSIA_LLM_MODEL", "from-env")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.LLM.Model != "from-env" {
		t.Errorf("Expected env to win over file, got %q", cfg.LLM.Model)
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("Expected error for missing explicit config file")
	}
	if !strings.Contains(err.Error(), "reading config") {
		t.Errorf("Unexpected error: %v", err)
	}
}

func TestLoad_MalformedFile(t *testing.T) {
	path := writeConfig(t, "listen_addr: [unclosed\n")

	_, err := Load(path)
	if err == nil {
		t.Fatal("Expected error for malformed YAML")
	}
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"empty listen addr", `listen_addr: ""`, "listen_addr"},
		{"negative chunk budget", "translate:\n  chunk_budget: -1", "chunk_budget"},
		{"negative workers", "translate:\n  workers: -1", "workers"},
		{"negative retries", "translate:\n  max_retries: -1", "max_retries"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.yaml)
			_, err := Load(path)
			if err == nil {
				t.Fatal("Expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Expected error mentioning %q, got: %v", tt.want, err)
			}
		})
	}
}
