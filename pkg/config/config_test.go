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
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const minimalConfig = `
environment: test
exchange:
  base_url: https://api.example.com
ledger:
  base_url: http://ledger:9090
`

func TestLoadAppliesDefaults(t *testing.T) {
	c, err := Load(writeConfig(t, minimalConfig))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Server.Port != 8080 {
		t.Fatalf("default port = %d, want 8080", c.Server.Port)
	}
	if c.WS.Path != "/ws" || c.WS.SendQueueSize != 64 {
		t.Fatalf("ws defaults: %+v", c.WS)
	}
	if c.Scheduler.CycleInterval != 60*time.Second || c.Scheduler.MaxRetries != 3 {
		t.Fatalf("scheduler defaults: %+v", c.Scheduler)
	}
	if c.Scheduler.MinConfidence != 0.7 || c.Scheduler.MaxRiskScore != 0.8 {
		t.Fatalf("threshold defaults: %+v", c.Scheduler)
	}
	if c.Scheduler.DefaultPoolValue != 1_000_000 {
		t.Fatalf("pool default = %v", c.Scheduler.DefaultPoolValue)
	}
	if c.Logging.Level != "info" || c.Logging.Output != "stdout" {
		t.Fatalf("logging defaults: %+v", c.Logging)
	}
	if c.Queue.Workers != 1 {
		t.Fatalf("queue workers default = %d", c.Queue.Workers)
	}
}

func TestLoadExplicitValuesWin(t *testing.T) {
	c, err := Load(writeConfig(t, `
environment: production
server:
  port: 9999
scheduler:
  cycle_interval: 1s
  min_confidence: 0.5
exchange:
  base_url: https://api.example.com
ledger:
  base_url: http://ledger:9090
`))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Server.Port != 9999 {
		t.Fatalf("port = %d, want 9999", c.Server.Port)
	}
	if c.Scheduler.CycleInterval != time.Second {
		t.Fatalf("cycle interval = %v, want 1s", c.Scheduler.CycleInterval)
	}
	if c.Scheduler.MinConfidence != 0.5 {
		t.Fatalf("min confidence = %v, want 0.5", c.Scheduler.MinConfidence)
	}
}

func TestLoadValidation(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"missing environment", `
exchange:
  base_url: https://api.example.com
ledger:
  base_url: http://ledger:9090
`, "environment is required"},
		{"missing exchange url", `
environment: test
ledger:
  base_url: http://ledger:9090
`, "exchange.base_url is required"},
		{"kafka without brokers", minimalConfig + `
kafka:
  enabled: true
`, "kafka.brokers"},
		{"clickhouse without host", minimalConfig + `
clickhouse:
  enabled: true
`, "clickhouse.host"},
		{"bad confidence", minimalConfig + `
scheduler:
  min_confidence: 1.5
`, "min_confidence"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.body))
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error containing %q, got %v", tc.want, err)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	t.Setenv("EXCHANGE_API_KEY", "secret-key")
	t.Setenv("LEDGER_BASE_URL", "http://override:9090")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("REDIS_ADDR", "redis:6379")

	c, err := LoadWithEnv(writeConfig(t, minimalConfig))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Exchange.APIKey != "secret-key" {
		t.Fatalf("api key not overridden: %q", c.Exchange.APIKey)
	}
	if c.Ledger.BaseURL != "http://override:9090" {
		t.Fatalf("ledger url not overridden: %q", c.Ledger.BaseURL)
	}
	if len(c.Kafka.Brokers) != 2 || c.Kafka.Brokers[0] != "k1:9092" {
		t.Fatalf("brokers not overridden: %v", c.Kafka.Brokers)
	}
	if !c.Ledger.Redis.Enabled || c.Ledger.Redis.Addr != "redis:6379" {
		t.Fatalf("redis not enabled by env: %+v", c.Ledger.Redis)
	}
}
