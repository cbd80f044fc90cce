package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"logging"`
	WS struct {
		Path          string        `yaml:"path"`
		SendQueueSize int           `yaml:"send_queue_size"`
		WriteTimeout  time.Duration `yaml:"write_timeout"`
		PongTimeout   time.Duration `yaml:"pong_timeout"`
		PingInterval  time.Duration `yaml:"ping_interval"`
		MaxMessageRPS float64       `yaml:"max_message_rps"`
	} `yaml:"ws"`
	Scheduler struct {
		CycleInterval    time.Duration `yaml:"cycle_interval"`
		MaxRetries       int           `yaml:"max_retries"`
		RetryDelay       time.Duration `yaml:"retry_delay"`
		MinConfidence    float64       `yaml:"min_confidence"`
		MaxRiskScore     float64       `yaml:"max_risk_score"`
		Interval         string        `yaml:"interval"`
		Lookback         int           `yaml:"lookback"`
		DefaultPoolValue float64       `yaml:"default_pool_value"`
		LatencyWindow    int           `yaml:"latency_window"`
	} `yaml:"scheduler"`
	Exchange struct {
		BaseURL        string        `yaml:"base_url"`
		APIKey         string        `yaml:"api_key"`
		Timeout        time.Duration `yaml:"timeout"`
		OrderBookDepth int           `yaml:"orderbook_depth"`
	} `yaml:"exchange"`
	Ledger struct {
		BaseURL      string        `yaml:"base_url"`
		Timeout      time.Duration `yaml:"timeout"`
		AuthCacheTTL time.Duration `yaml:"auth_cache_ttl"`
		Redis        struct {
			Enabled  bool   `yaml:"enabled"`
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
		} `yaml:"redis"`
	} `yaml:"ledger"`
	Kafka struct {
		Enabled      bool     `yaml:"enabled"`
		Brokers      []string `yaml:"brokers"`
		SignalTopic  string   `yaml:"signal_topic"`
		ProfitTopic  string   `yaml:"profit_topic"`
		RequiredAcks int      `yaml:"required_acks"`
		Compression  string   `yaml:"compression"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			Linger       time.Duration `yaml:"linger"`
			BatchSize    int           `yaml:"batch_size"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			ReadTimeout  time.Duration `yaml:"read_timeout"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Enabled          bool          `yaml:"enabled"`
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port"`
		Database         string        `yaml:"database"`
		User             string        `yaml:"user"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout"`
		ReadTimeout      time.Duration `yaml:"read_timeout"`
		WriteTimeout     time.Duration `yaml:"write_timeout"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`
	Queue struct {
		Workers    int           `yaml:"workers"`
		RetryLimit int           `yaml:"retry_limit"`
		RetryDelay time.Duration `yaml:"retry_delay"`
	} `yaml:"queue"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("EXCHANGE_API_KEY"); v != "" {
		c.Exchange.APIKey = v
	}
	if v := os.Getenv("EXCHANGE_BASE_URL"); v != "" {
		c.Exchange.BaseURL = v
	}
	if v := os.Getenv("LEDGER_BASE_URL"); v != "" {
		c.Ledger.BaseURL = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Ledger.Redis.Addr = v
		c.Ledger.Redis.Enabled = true
	}
	return c, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Output == "" {
		c.Logging.Output = "stdout"
	}
	if c.WS.Path == "" {
		c.WS.Path = "/ws"
	}
	if c.WS.SendQueueSize == 0 {
		c.WS.SendQueueSize = 64
	}
	if c.WS.PingInterval == 0 {
		c.WS.PingInterval = 30 * time.Second
	}
	if c.Scheduler.CycleInterval == 0 {
		c.Scheduler.CycleInterval = 60 * time.Second
	}
	if c.Scheduler.MaxRetries == 0 {
		c.Scheduler.MaxRetries = 3
	}
	if c.Scheduler.RetryDelay == 0 {
		c.Scheduler.RetryDelay = time.Second
	}
	if c.Scheduler.MinConfidence == 0 {
		c.Scheduler.MinConfidence = 0.7
	}
	if c.Scheduler.MaxRiskScore == 0 {
		c.Scheduler.MaxRiskScore = 0.8
	}
	if c.Scheduler.Interval == "" {
		c.Scheduler.Interval = "1m"
	}
	if c.Scheduler.Lookback == 0 {
		c.Scheduler.Lookback = 100
	}
	if c.Scheduler.DefaultPoolValue == 0 {
		c.Scheduler.DefaultPoolValue = 1_000_000
	}
	if c.Scheduler.LatencyWindow == 0 {
		c.Scheduler.LatencyWindow = 100
	}
	if c.Exchange.OrderBookDepth == 0 {
		c.Exchange.OrderBookDepth = 20
	}
	if c.Ledger.AuthCacheTTL == 0 {
		c.Ledger.AuthCacheTTL = 30 * time.Second
	}
	if c.Queue.Workers == 0 {
		c.Queue.Workers = 1
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Exchange.BaseURL == "" {
		return fmt.Errorf("exchange.base_url is required")
	}
	if c.Ledger.BaseURL == "" {
		return fmt.Errorf("ledger.base_url is required")
	}
	if c.Scheduler.MinConfidence < 0 || c.Scheduler.MinConfidence > 1 {
		return fmt.Errorf("scheduler.min_confidence must be in [0,1], got %v", c.Scheduler.MinConfidence)
	}
	if c.Scheduler.MaxRiskScore <= 0 || c.Scheduler.MaxRiskScore > 1 {
		return fmt.Errorf("scheduler.max_risk_score must be in (0,1], got %v", c.Scheduler.MaxRiskScore)
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	if c.ClickHouse.Enabled && c.ClickHouse.Host == "" {
		return fmt.Errorf("clickhouse.host is required when clickhouse is enabled")
	}
	return nil
}
