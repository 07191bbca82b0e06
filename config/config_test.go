package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Chunk.Size != 1000 {
		t.Errorf("expected Chunk.Size=1000, got %d", cfg.Chunk.Size)
	}
	if cfg.Chunk.Overlap != 200 {
		t.Errorf("expected Chunk.Overlap=200, got %d", cfg.Chunk.Overlap)
	}
	if cfg.Retrieve.TopK != 3 {
		t.Errorf("expected TopK=3, got %d", cfg.Retrieve.TopK)
	}
	if cfg.Generator.Model != "gemini-1.5-flash" {
		t.Errorf("expected gemini-1.5-flash, got %s", cfg.Generator.Model)
	}
	if cfg.Generator.MaxOutputTokens != 1024 {
		t.Errorf("expected MaxOutputTokens=1024, got %d", cfg.Generator.MaxOutputTokens)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected default config to be valid, got %v", err)
	}
}

func TestLoad_NonExistent(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.yaml")
	if err != nil {
		t.Errorf("expected no error for non-existent file, got %v", err)
	}
	if cfg == nil {
		t.Error("expected default config, got nil")
	}
}

func TestLoad_ValidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "ragchat.yaml")

	content := `
chunk:
  size: 500
retrieve:
  top_k: 5
  filter_before_truncate: true
generator:
  provider: openai
  timeout: 15s
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Chunk.Size != 500 {
		t.Errorf("expected Chunk.Size=500, got %d", cfg.Chunk.Size)
	}
	if cfg.Chunk.Overlap != 200 {
		t.Errorf("expected default overlap to survive, got %d", cfg.Chunk.Overlap)
	}
	if cfg.Retrieve.TopK != 5 || !cfg.Retrieve.FilterBeforeTruncate {
		t.Errorf("unexpected retrieve config %+v", cfg.Retrieve)
	}
	if cfg.Generator.Provider != "openai" {
		t.Errorf("expected provider openai, got %s", cfg.Generator.Provider)
	}
	if cfg.Generator.Timeout != 15*time.Second {
		t.Errorf("expected timeout 15s, got %s", cfg.Generator.Timeout)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "ragchat.yaml")
	if err := os.WriteFile(configPath, []byte("chunk: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(configPath); err == nil {
		t.Error("expected parse error")
	}
}

func TestLoadFromDir(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(tmpDir, ".ragchat"), 0755); err != nil {
		t.Fatal(err)
	}

	content := `
server:
  addr: ":9090"
`
	if err := os.WriteFile(filepath.Join(tmpDir, ".ragchat", "config.yaml"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromDir(tmpDir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Addr != ":9090" {
		t.Errorf("expected addr :9090, got %s", cfg.Server.Addr)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := ConfigPath(t.TempDir())

	cfg := DefaultConfig()
	cfg.Generator.Timeout = 90 * time.Second
	cfg.Logging.Pretty = true
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Generator.Timeout != 90*time.Second || !loaded.Logging.Pretty {
		t.Errorf("unexpected loaded config %+v", loaded)
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("RAGCHAT_ADDR", ":7070")
	t.Setenv("RAGCHAT_PROVIDER", "Anthropic")
	t.Setenv("RAGCHAT_TOP_K", "7")
	t.Setenv("RAGCHAT_TIMEOUT", "5s")

	cfg := DefaultConfig()
	if err := cfg.ApplyEnv(); err != nil {
		t.Fatalf("ApplyEnv failed: %v", err)
	}

	if cfg.Server.Addr != ":7070" {
		t.Errorf("expected addr :7070, got %s", cfg.Server.Addr)
	}
	if cfg.Generator.Provider != "anthropic" {
		t.Errorf("expected provider anthropic, got %s", cfg.Generator.Provider)
	}
	if cfg.Retrieve.TopK != 7 {
		t.Errorf("expected TopK=7, got %d", cfg.Retrieve.TopK)
	}
	if cfg.Generator.Timeout != 5*time.Second {
		t.Errorf("expected timeout 5s, got %s", cfg.Generator.Timeout)
	}
}

func TestApplyEnvInvalid(t *testing.T) {
	t.Setenv("RAGCHAT_TOP_K", "three")

	if err := DefaultConfig().ApplyEnv(); err == nil {
		t.Error("expected error for non-numeric RAGCHAT_TOP_K")
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"chunk_size", func(c *Config) { c.Chunk.Size = 0 }},
		{"overlap", func(c *Config) { c.Chunk.Overlap = -1 }},
		{"top_k", func(c *Config) { c.Retrieve.TopK = 0 }},
		{"provider", func(c *Config) { c.Generator.Provider = "llama" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestAPIKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "from-gemini-env")
	t.Setenv("CUSTOM_KEY", "from-custom-env")

	g := DefaultConfig().Generator
	if g.APIKey() != "from-gemini-env" {
		t.Errorf("expected provider default env, got %q", g.APIKey())
	}

	g.APIKeyEnv = "CUSTOM_KEY"
	if g.APIKey() != "from-custom-env" {
		t.Errorf("expected custom env, got %q", g.APIKey())
	}

	g = GeneratorConfig{Provider: "mock"}
	if g.APIKey() != "" {
		t.Errorf("expected no key for mock provider, got %q", g.APIKey())
	}
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("RAGCHAT_TEST_ENV_FILE=loaded\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("RAGCHAT_TEST_ENV_FILE", "")
	os.Unsetenv("RAGCHAT_TEST_ENV_FILE")

	if err := LoadEnvFile(path); err != nil {
		t.Fatalf("LoadEnvFile failed: %v", err)
	}
	if got := os.Getenv("RAGCHAT_TEST_ENV_FILE"); got != "loaded" {
		t.Errorf("expected variable from .env, got %q", got)
	}

	if err := LoadEnvFile(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Errorf("expected missing file to be ignored, got %v", err)
	}
}
