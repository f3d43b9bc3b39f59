package internal

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	pkgconfig "github.com/starford/maeum/pkg/config"
)

func TestAuthConfig_DisabledMode(t *testing.T) {
	cfg := AuthConfig{Mode: "disabled", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled mode should pass: %v", err)
	}
	if cfg.AuthEnabled() {
		t.Error("disabled mode should not be enabled")
	}
}

func TestAuthConfig_EmptyModeDefaultsDisabled(t *testing.T) {
	cfg := AuthConfig{Mode: "", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty mode should default to disabled: %v", err)
	}
	if cfg.Mode != AuthModeDisabled {
		t.Errorf("mode = %q, want %q", cfg.Mode, AuthModeDisabled)
	}
}

func TestAuthConfig_TokenModeEmptyToken(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: ""}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("token mode with empty token should fail")
	}
	if !strings.Contains(err.Error(), "token is empty") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestAuthConfig_InvalidMode(t *testing.T) {
	cfg := AuthConfig{Mode: "magic", Token: "x"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("invalid mode should fail validation")
	}
}

func TestDefaultConfigValid(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.AI.Enabled() {
		t.Error("AI should be disabled without a key")
	}
}

func TestAIConfig_ModelRequiredWithKey(t *testing.T) {
	cfg := AIConfig{APIKey: "sk-test"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("key without model should fail")
	}
	cfg.Model = "gpt-4o-mini"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("valid AI config failed: %v", err)
	}
}

func TestReportConfig_MinEntries(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Report.MinEntries = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("min_entries 0 should fail")
	}
}

func TestEventsConfig_NegativeDurations(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Events.StatsThrottle = -time.Second
	if err := cfg.Validate(); err == nil {
		t.Error("negative stats_throttle should fail")
	}

	cfg = NewDefaultConfig()
	cfg.Events.Heartbeat = -time.Second
	if err := cfg.Validate(); err == nil {
		t.Error("negative heartbeat should fail")
	}

	cfg = NewDefaultConfig()
	cfg.Events.StatsThrottle = 0
	cfg.Events.Heartbeat = 0
	if err := cfg.Validate(); err != nil {
		t.Errorf("zero durations should pass: %v", err)
	}
}

func TestLoadYAMLWithEnv(t *testing.T) {
	t.Setenv("MAEUM_TEST_KEY", "sk-from-env")
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
app:
  log_level: debug
  http:
    port: 9090
storage:
  path: /tmp/maeum
ai:
  api_key: ${MAEUM_TEST_KEY}
  request_timeout: 15s
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := NewDefaultConfig()
	if err := pkgconfig.LoadWithDefaults(path, "", cfg); err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.App.HTTP.Port != 9090 || cfg.Storage.Path != "/tmp/maeum" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.AI.APIKey != "sk-from-env" || cfg.AI.RequestTimeout != 15*time.Second {
		t.Errorf("ai = %+v", cfg.AI)
	}
	if cfg.AI.Model != "gpt-4o-mini" || cfg.Report.MinEntries != 3 {
		t.Error("defaults not preserved for omitted keys")
	}
}
