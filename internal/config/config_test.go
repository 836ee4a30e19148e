package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("STAKE_API_TOKEN", "")
	cfg, err := Load(writeConfig(t, "app:\n  name: stakewatch\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Stake.Endpoint != "https://api.stake.com/graphql" {
		t.Fatalf("endpoint = %q", cfg.Stake.Endpoint)
	}
	if cfg.Stake.RequestTimeout != 30*time.Second {
		t.Fatalf("request timeout = %s", cfg.Stake.RequestTimeout)
	}
	if cfg.Watcher.MinUSD != 1000 || cfg.Watcher.Interval != time.Minute || cfg.Watcher.PageSize != 50 {
		t.Fatalf("unexpected watcher defaults: %+v", cfg.Watcher)
	}
	if cfg.Watcher.StartupDelay != 0 || cfg.Watcher.AlignToInterval {
		t.Fatalf("unexpected schedule defaults: %+v", cfg.Watcher)
	}
	if cfg.Stake.MaxRetries != 0 {
		t.Fatalf("max retries = %d", cfg.Stake.MaxRetries)
	}
	if cfg.Seen.Backend != BackendMemory {
		t.Fatalf("backend = %q", cfg.Seen.Backend)
	}
	if cfg.Stake.AccessToken != "" {
		t.Fatalf("token should be empty, got %q", cfg.Stake.AccessToken)
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	path := writeConfig(t, strings.Join([]string{
		"watcher:",
		"  min_usd: 250.5",
		"  interval: 15s",
		"  lookback: 5m",
		"  startup_delay: 2s",
		"  align_to_interval: true",
		"seen:",
		"  backend: redis",
		"  redis_addr: cache:6379",
	}, "\n"))
	t.Setenv("STAKE_API_TOKEN", "secret-token")
	t.Setenv("STAKEWATCH_WATCHER_PAGE_SIZE", "20")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Watcher.MinUSD != 250.5 || cfg.Watcher.Interval != 15*time.Second || cfg.Watcher.Lookback != 5*time.Minute {
		t.Fatalf("file values not applied: %+v", cfg.Watcher)
	}
	if cfg.Watcher.StartupDelay != 2*time.Second || !cfg.Watcher.AlignToInterval {
		t.Fatalf("schedule values not applied: %+v", cfg.Watcher)
	}
	if cfg.Watcher.PageSize != 20 {
		t.Fatalf("env override not applied: page_size = %d", cfg.Watcher.PageSize)
	}
	if cfg.Stake.AccessToken != "secret-token" {
		t.Fatalf("token = %q", cfg.Stake.AccessToken)
	}
	if cfg.Seen.Backend != BackendRedis || cfg.Seen.RedisAddr != "cache:6379" {
		t.Fatalf("seen = %+v", cfg.Seen)
	}
}

func TestValidateRejects(t *testing.T) {
	cases := map[string]string{
		"page size":   "watcher:\n  page_size: 51\n",
		"interval":    "watcher:\n  interval: 0s\n",
		"min usd":     "watcher:\n  min_usd: -1\n",
		"min usd inf": "watcher:\n  min_usd: .inf\n",
		"min usd nan": "watcher:\n  min_usd: .nan\n",
		"delay":       "watcher:\n  startup_delay: -1s\n",
		"backend":     "seen:\n  backend: sqlite\n",
		"retries":     "stake:\n  max_retries: -2\n",
		"redis addr":  "seen:\n  backend: redis\n  redis_addr: \"\"\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, body)); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestResolveOverrides(t *testing.T) {
	cfg := &Config{Watcher: WatcherConfig{MinUSD: 1000, Interval: time.Minute}}
	if got := cfg.ResolveMinUSD(500, true); got != 500 {
		t.Fatalf("min override = %v", got)
	}
	if got := cfg.ResolveMinUSD(500, false); got != 1000 {
		t.Fatalf("min fallback = %v", got)
	}
	if got := cfg.ResolveInterval(5, true); got != 5*time.Second {
		t.Fatalf("interval override = %s", got)
	}
	if got := cfg.ResolveInterval(5, false); got != time.Minute {
		t.Fatalf("interval fallback = %s", got)
	}
}

func TestExampleConfigMatchesDefaults(t *testing.T) {
	t.Setenv("STAKE_API_TOKEN", "")
	cfg, err := Load(filepath.Join("..", "..", "config.example.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Stake.MaxRetries != 0 || cfg.Stake.RequestTimeout != 30*time.Second {
		t.Fatalf("stake = %+v", cfg.Stake)
	}
	if cfg.Watcher.MinUSD != 1000 || cfg.Watcher.Interval != time.Minute || cfg.Watcher.StartupDelay != 0 || cfg.Watcher.AlignToInterval {
		t.Fatalf("watcher = %+v", cfg.Watcher)
	}
}
