package confloader

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

type testConfig struct {
	Limiter struct {
		Capacity       int           `koanf:"capacity"`
		AcquireTimeout time.Duration `koanf:"acquire_timeout"`
	} `koanf:"limiter"`
	Log struct {
		Level string `koanf:"level"`
	} `koanf:"log"`
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "synckit.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

func TestNewLoader(t *testing.T) {
	l := NewLoader()
	if l.envPrefix != DefaultEnvPrefix {
		t.Errorf("envPrefix = %q, want %q", l.envPrefix, DefaultEnvPrefix)
	}
	if l.FilePath() != "" {
		t.Errorf("FilePath() = %q, want empty", l.FilePath())
	}
}

func TestNewLoader_WithOptions(t *testing.T) {
	l := NewLoader(
		WithEnvPrefix("TEST_"),
		WithConfigFile("/path/to/config.yaml"),
		WithOverrides(map[string]any{"log.level": "debug", "limiter.capacity": nil}),
	)

	if l.envPrefix != "TEST_" {
		t.Errorf("envPrefix = %q, want %q", l.envPrefix, "TEST_")
	}
	if l.FilePath() != "/path/to/config.yaml" {
		t.Errorf("FilePath() = %q, want %q", l.FilePath(), "/path/to/config.yaml")
	}
	if len(l.overrides) != 1 {
		t.Errorf("overrides = %v, want only log.level", l.overrides)
	}
}

func TestLoader_Load_File(t *testing.T) {
	path := writeConfig(t, `
limiter:
  capacity: 5
  acquire_timeout: 250ms
log:
  level: warn
`)

	var cfg testConfig
	if err := NewLoader(WithConfigFile(path)).Load(&cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Limiter.Capacity != 5 {
		t.Errorf("Capacity = %d, want 5", cfg.Limiter.Capacity)
	}
	if cfg.Limiter.AcquireTimeout != 250*time.Millisecond {
		t.Errorf("AcquireTimeout = %v, want 250ms", cfg.Limiter.AcquireTimeout)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("Level = %q, want warn", cfg.Log.Level)
	}
}

func TestLoader_Load_FileNotFound(t *testing.T) {
	var cfg testConfig
	err := NewLoader(WithConfigFile("/nonexistent/config.yaml")).Load(&cfg)
	if err == nil {
		t.Error("Load() should return error for nonexistent file")
	}
}

func TestLoader_Load_KeepsPrefilledValues(t *testing.T) {
	path := writeConfig(t, "log:\n  level: error\n")

	var cfg testConfig
	cfg.Limiter.Capacity = 3
	if err := NewLoader(WithConfigFile(path)).Load(&cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Limiter.Capacity != 3 {
		t.Errorf("Capacity = %d, want prefilled 3", cfg.Limiter.Capacity)
	}
	if cfg.Log.Level != "error" {
		t.Errorf("Level = %q, want error", cfg.Log.Level)
	}
}

func TestLoader_Load_Env(t *testing.T) {
	t.Setenv("SYNCKIT_LIMITER_CAPACITY", "7")
	t.Setenv("SYNCKIT_LIMITER_ACQUIRE_TIMEOUT", "2s")

	l := NewLoader()
	var cfg testConfig
	if err := l.Load(&cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Limiter.Capacity != 7 {
		t.Errorf("Capacity = %d, want 7", cfg.Limiter.Capacity)
	}
	if cfg.Limiter.AcquireTimeout != 2*time.Second {
		t.Errorf("AcquireTimeout = %v, want 2s", cfg.Limiter.AcquireTimeout)
	}
	if got := l.GetString("limiter.acquire_timeout"); got != "2s" {
		t.Errorf("GetString(limiter.acquire_timeout) = %q, want 2s", got)
	}
}

func TestLoader_Load_CustomPrefix(t *testing.T) {
	t.Setenv("MYAPP_LOG_LEVEL", "debug")

	var cfg testConfig
	if err := NewLoader(WithEnvPrefix("MYAPP_")).Load(&cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Log.Level != "debug" {
		t.Errorf("Level = %q, want debug", cfg.Log.Level)
	}
}

func TestLoader_Load_Priority(t *testing.T) {
	path := writeConfig(t, `
limiter:
  capacity: 1
log:
  level: warn
`)
	t.Setenv("SYNCKIT_LIMITER_CAPACITY", "4")
	t.Setenv("SYNCKIT_LOG_LEVEL", "error")

	l := NewLoader(
		WithConfigFile(path),
		WithOverrides(map[string]any{"log.level": "debug"}),
	)

	var cfg testConfig
	if err := l.Load(&cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Limiter.Capacity != 4 {
		t.Errorf("Capacity = %d, want 4 (env should override file)", cfg.Limiter.Capacity)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Level = %q, want debug (override should win)", cfg.Log.Level)
	}
}

func TestLoader_Reload(t *testing.T) {
	path := writeConfig(t, "log:\n  level: info\n")
	l := NewLoader(WithConfigFile(path))

	var cfg testConfig
	if err := l.Load(&cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if err := os.WriteFile(path, []byte("log:\n  level: debug\n"), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if err := l.Reload(&cfg); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}

	if cfg.Log.Level != "debug" {
		t.Errorf("Level after reload = %q, want debug", cfg.Log.Level)
	}
	if got := l.Get("log.level"); got != "debug" {
		t.Errorf("Get(log.level) = %v, want debug", got)
	}
}

func TestLoader_Keys(t *testing.T) {
	l := NewLoader(WithOverrides(map[string]any{
		"log.level":        "info",
		"limiter.capacity": 2,
	}))

	var cfg testConfig
	if err := l.Load(&cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	keys := l.Keys()
	if len(keys) < 2 {
		t.Errorf("Keys() returned %d keys, want at least 2", len(keys))
	}
	if cfg.Limiter.Capacity != 2 {
		t.Errorf("Capacity = %d, want 2", cfg.Limiter.Capacity)
	}
}

func TestMapProvider_ReadBytes(t *testing.T) {
	if _, err := mapProvider(nil).ReadBytes(); err != ErrReadBytesNotSupported {
		t.Errorf("ReadBytes() error = %v, want %v", err, ErrReadBytesNotSupported)
	}
}

func TestMapProvider_ReadNests(t *testing.T) {
	got, err := mapProvider{"a.b": 1, "a.c": 2, "d": 3}.Read()
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	a, ok := got["a"].(map[string]any)
	if !ok {
		t.Fatalf("Read()[a] = %T, want map", got["a"])
	}
	if a["b"] != 1 || a["c"] != 2 || got["d"] != 3 {
		t.Errorf("Read() = %v", got)
	}
}
