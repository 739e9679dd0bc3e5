package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := NewLoader().Parse([]byte("{}"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if cfg.Server.GRPCAddress != ":10901" {
		t.Errorf("grpc_address default: got %q", cfg.Server.GRPCAddress)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("logging.level default: got %q", cfg.Logging.Level)
	}
	if !cfg.Metrics.Enabled || cfg.Metrics.Address != ":10902" {
		t.Errorf("metrics defaults: got %+v", cfg.Metrics)
	}
	if cfg.Limits.MatcherCacheSize != 256 {
		t.Errorf("matcher_cache_size default: got %d", cfg.Limits.MatcherCacheSize)
	}
}

func TestParseOverrides(t *testing.T) {
	cfg, err := NewLoader().Parse([]byte(`
server:
  grpc_address: "127.0.0.1:19091"
  grace_period: 5s
store:
  block_dir: /data/blocks
  external_labels:
    replica: a
limits:
  max_series_per_request: 1000
  request_rate: 10
logging:
  level: debug
tracing:
  enabled: true
  endpoint: localhost:4317
  insecure: true
`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if cfg.Server.GRPCAddress != "127.0.0.1:19091" {
		t.Errorf("grpc_address: got %q", cfg.Server.GRPCAddress)
	}
	if cfg.Server.GracePeriod != 5*time.Second {
		t.Errorf("grace_period: got %v", cfg.Server.GracePeriod)
	}
	if cfg.Store.BlockDir != "/data/blocks" {
		t.Errorf("block_dir: got %q", cfg.Store.BlockDir)
	}
	if cfg.Store.ExternalLabels["replica"] != "a" {
		t.Errorf("external_labels: got %v", cfg.Store.ExternalLabels)
	}
	if cfg.Limits.MaxSeriesPerRequest != 1000 || cfg.Limits.RequestRate != 10 {
		t.Errorf("limits: got %+v", cfg.Limits)
	}
	if !cfg.Tracing.Enabled || cfg.Tracing.Endpoint != "localhost:4317" {
		t.Errorf("tracing: got %+v", cfg.Tracing)
	}
}

func TestParseEnvExpansion(t *testing.T) {
	t.Setenv("STORE_GRPC_ADDR", ":29091")

	cfg, err := NewLoader().Parse([]byte(`
server:
  grpc_address: "${STORE_GRPC_ADDR}"
`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Server.GRPCAddress != ":29091" {
		t.Errorf("env expansion: got %q", cfg.Server.GRPCAddress)
	}
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"bad level", "logging:\n  level: loud\n", "logging.level"},
		{"bad sample rate", "tracing:\n  sample_rate: 2.0\n", "sample_rate"},
		{"negative series limit", "limits:\n  max_series_per_request: -1\n", "max_series_per_request"},
		{"negative rate", "limits:\n  request_rate: -2\n", "request_rate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLoader().Parse([]byte(tt.yaml))
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestWatcherReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "store.yaml")
	if err := os.WriteFile(path, []byte("logging:\n  level: info\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	w, err := NewWatcher(path)
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	defer w.Stop()
	w.debounce = 10 * time.Millisecond

	reloaded := make(chan *Config, 1)
	w.OnChange(func(cfg *Config) {
		select {
		case reloaded <- cfg:
		default:
		}
	})

	if err := w.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}

	if err := os.WriteFile(path, []byte("logging:\n  level: debug\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case cfg := <-reloaded:
		if cfg.Logging.Level != "debug" {
			t.Errorf("reloaded level: got %q", cfg.Logging.Level)
		}
		if w.Config().Logging.Level != "debug" {
			t.Errorf("Config() not updated: got %q", w.Config().Logging.Level)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reload")
	}
}

func TestWatcherKeepsLastGoodConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "store.yaml")
	if err := os.WriteFile(path, []byte("logging:\n  level: warn\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	w, err := NewWatcher(path)
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	defer w.Stop()

	// A broken rewrite must not clobber the loaded config.
	w.reload() // no-op, file unchanged
	if err := os.WriteFile(path, []byte("logging:\n  level: loud\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	w.reload()

	if w.Config().Logging.Level != "warn" {
		t.Errorf("config after bad reload: got %q, want %q", w.Config().Logging.Level, "warn")
	}
}
