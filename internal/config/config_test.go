package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Sternrassler/gh-user-sync/pkg/cache"
	"github.com/Sternrassler/gh-user-sync/pkg/client"
	"github.com/Sternrassler/gh-user-sync/pkg/logging"
)

// isolate points HOME and the working directory at empty temp dirs so no
// real usersync.yaml is picked up.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return home
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoad_Defaults(t *testing.T) {
	home := isolate(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.GitHub.BaseURL != client.DefaultBaseURL {
		t.Errorf("BaseURL = %q", cfg.GitHub.BaseURL)
	}
	if cfg.GitHub.UserAgent != DefaultUserAgent {
		t.Errorf("UserAgent = %q", cfg.GitHub.UserAgent)
	}
	if cfg.GitHub.Timeout != 30*time.Second {
		t.Errorf("Timeout = %v, want 30s", cfg.GitHub.Timeout)
	}
	if !cfg.GitHub.RespectRateLimit {
		t.Error("RespectRateLimit should default to true")
	}
	if cfg.Cache.Backend != cache.BackendBolt {
		t.Errorf("Backend = %q, want bolt", cfg.Cache.Backend)
	}
	if !strings.HasPrefix(cfg.Cache.Path, home) {
		t.Errorf("Path = %q, want it under %q", cfg.Cache.Path, home)
	}
	if cfg.Retry.MaxAttempts != 1 || cfg.Retry.InitialBackoff != time.Second {
		t.Errorf("Retry = %+v", cfg.Retry)
	}
	if cfg.Detail.MaxConcurrency != 5 {
		t.Errorf("Detail.MaxConcurrency = %d, want 5", cfg.Detail.MaxConcurrency)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("Server.Addr = %q", cfg.Server.Addr)
	}
}

func TestLoad_ExplicitFile(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "custom.yaml")
	writeFile(t, path, `
github:
  base_url: http://localhost:9999
  token: secret
  timeout: 5s
  respect_rate_limit: false
cache:
  backend: redis
  namespace: staging
  redis:
    addr: redis:6379
    db: 2
logging:
  level: debug
  pretty: true
retry:
  max_attempts: 5
  initial_backoff: 250ms
detail:
  max_concurrency: 2
server:
  addr: 127.0.0.1:9000
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.GitHub.BaseURL != "http://localhost:9999" || cfg.GitHub.Token != "secret" {
		t.Errorf("GitHub = %+v", cfg.GitHub)
	}
	if cfg.GitHub.Timeout != 5*time.Second || cfg.GitHub.RespectRateLimit {
		t.Errorf("GitHub = %+v", cfg.GitHub)
	}
	if cfg.Cache.Backend != cache.BackendRedis || cfg.Cache.Redis.Addr != "redis:6379" || cfg.Cache.Redis.DB != 2 {
		t.Errorf("Cache = %+v", cfg.Cache)
	}
	if cfg.Retry.MaxAttempts != 5 || cfg.Retry.InitialBackoff != 250*time.Millisecond {
		t.Errorf("Retry = %+v", cfg.Retry)
	}
	// Unset keys keep their defaults.
	if cfg.Retry.MaxBackoff != 30*time.Second {
		t.Errorf("MaxBackoff = %v, want default 30s", cfg.Retry.MaxBackoff)
	}
	if cfg.GitHub.UserAgent != DefaultUserAgent {
		t.Errorf("UserAgent = %q, want default", cfg.GitHub.UserAgent)
	}

	if got := cfg.CacheKey().String(); got != "staging:cached_users" {
		t.Errorf("CacheKey() = %q", got)
	}
	lc := cfg.LoggerConfig()
	if lc.Level != logging.LevelDebug || !lc.Pretty {
		t.Errorf("LoggerConfig() = %+v", lc)
	}
	if dc := cfg.DetailBatchConfig(); dc.MaxConcurrency != 2 {
		t.Errorf("DetailBatchConfig() = %+v", dc)
	}
}

func TestLoad_SearchPath(t *testing.T) {
	home := isolate(t)
	writeFile(t, filepath.Join(home, ".config", "usersync", "usersync.yaml"), "server:\n  addr: :7070\n")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Addr != ":7070" {
		t.Errorf("Server.Addr = %q, want :7070", cfg.Server.Addr)
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	isolate(t)

	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Load() with a missing explicit file should fail")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("USERSYNC_GITHUB_TOKEN", "from-env")
	t.Setenv("USERSYNC_CACHE_BACKEND", "sqlite")
	t.Setenv("USERSYNC_CACHE_PATH", "/tmp/usersync-test.db")
	t.Setenv("USERSYNC_RETRY_MAX_ATTEMPTS", "7")
	t.Setenv("USERSYNC_GITHUB_TIMEOUT", "12s")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.GitHub.Token != "from-env" {
		t.Errorf("Token = %q", cfg.GitHub.Token)
	}
	if cfg.Cache.Backend != cache.BackendSQLite || cfg.Cache.Path != "/tmp/usersync-test.db" {
		t.Errorf("Cache = %+v", cfg.Cache)
	}
	if cfg.Retry.MaxAttempts != 7 {
		t.Errorf("MaxAttempts = %d, want 7", cfg.Retry.MaxAttempts)
	}
	if cfg.GitHub.Timeout != 12*time.Second {
		t.Errorf("Timeout = %v, want 12s", cfg.GitHub.Timeout)
	}

	bc := cfg.CacheBackendConfig()
	if bc.Backend != cache.BackendSQLite || bc.Path != "/tmp/usersync-test.db" {
		t.Errorf("CacheBackendConfig() = %+v", bc)
	}
	cc := cfg.ClientConfig()
	if cc.Token != "from-env" || cc.Timeout != 12*time.Second {
		t.Errorf("ClientConfig() = %+v", cc)
	}
	if rp := cfg.RetryPolicy(); rp.MaxAttempts != 7 || rp.Multiplier != 2.0 {
		t.Errorf("RetryPolicy() = %+v", rp)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			GitHub:  GitHubConfig{UserAgent: "ua", Timeout: time.Second},
			Cache:   CacheConfig{Backend: cache.BackendMemory},
			Logging: LoggingConfig{Level: "info"},
			Retry:   RetryConfig{MaxAttempts: 1},
			Detail:  DetailConfig{MaxConcurrency: 1},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"empty user agent", func(c *Config) { c.GitHub.UserAgent = " " }, "user_agent"},
		{"zero timeout", func(c *Config) { c.GitHub.Timeout = 0 }, "github.timeout"},
		{"unknown backend", func(c *Config) { c.Cache.Backend = "etcd" }, "unknown cache backend"},
		{"bolt without path", func(c *Config) { c.Cache.Backend = cache.BackendBolt }, "cache.path"},
		{"bad level", func(c *Config) { c.Logging.Level = "loud" }, "logging.level"},
		{"zero attempts", func(c *Config) { c.Retry.MaxAttempts = 0 }, "retry.max_attempts"},
		{"zero concurrency", func(c *Config) { c.Detail.MaxConcurrency = 0 }, "detail.max_concurrency"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}
