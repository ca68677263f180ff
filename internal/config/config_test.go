package config

import (
	"os"
	"path/filepath"
	"testing"
)

func baseConfig() Config {
	cfg := Config{}
	cfg.ApplyDefaults()
	return cfg
}

func TestApplyDefaults(t *testing.T) {
	cfg := baseConfig()

	if cfg.Chunking.Size != 600 {
		t.Errorf("chunking.size default: got %d, want 600", cfg.Chunking.Size)
	}
	if cfg.Chunking.Overlap != 100 {
		t.Errorf("chunking.overlap default: got %d, want 100", cfg.Chunking.Overlap)
	}
	if cfg.Retrieval.TopK != 6 {
		t.Errorf("retrieval.top_k default: got %d, want 6", cfg.Retrieval.TopK)
	}
	if cfg.Provider.Kind != "ollama" {
		t.Errorf("provider.kind default: got %q, want ollama", cfg.Provider.Kind)
	}
	if cfg.Storage.IndexDir != filepath.Join("storage", "index") {
		t.Errorf("storage.index_dir default: got %q", cfg.Storage.IndexDir)
	}
	if cfg.Sessions.Backend != "file" {
		t.Errorf("sessions.backend default: got %q, want file", cfg.Sessions.Backend)
	}
}

func TestValidate_OverlapLargerThanSize(t *testing.T) {
	cfg := baseConfig()
	cfg.Chunking.Size = 100
	cfg.Chunking.Overlap = 100

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when overlap >= size")
	}
}

func TestValidate_UnknownProviderKind(t *testing.T) {
	cfg := baseConfig()
	cfg.Provider.Kind = "bedrock"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for unknown provider kind")
	}
	expected := `provider.kind must be "ollama" or "openai", got "bedrock"`
	if err.Error() != expected {
		t.Errorf("unexpected error message:\ngot:  %q\nwant: %q", err.Error(), expected)
	}
}

func TestValidate_OpenAIRequiresKey(t *testing.T) {
	cfg := baseConfig()
	cfg.Provider.Kind = "openai"
	cfg.Provider.APIKey = ""

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for openai provider without api key")
	}
}

func TestValidate_RedisSessionsRequireAddrs(t *testing.T) {
	cfg := baseConfig()
	cfg.Sessions.Backend = "redis"
	cfg.Redis.Addrs = nil

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for redis sessions without addrs")
	}

	cfg.Redis.Addrs = []string{"localhost:6379"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error with addrs set: %v", err)
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("RAGDEX_TEST_KEY", "secret")

	in := []byte("api_key: ${RAGDEX_TEST_KEY}\nbase_url: ${RAGDEX_TEST_URL:-http://localhost:11434}\n")
	out := string(expandEnvVars(in))

	want := "api_key: secret\nbase_url: http://localhost:11434\n"
	if out != want {
		t.Errorf("expandEnvVars:\ngot:  %q\nwant: %q", out, want)
	}
}

func TestGetEnv(t *testing.T) {
	t.Setenv("ENV", "")
	if env := GetEnv(); env != "local" {
		t.Errorf("default env: got %q, want local", env)
	}

	os.Setenv("ENV", "prod")
	defer os.Unsetenv("ENV")
	if env := GetEnv(); env != "prod" {
		t.Errorf("env from ENV: got %q, want prod", env)
	}
}
