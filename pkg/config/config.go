package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment" default:"development"`
	Server      struct {
		Port            int           `yaml:"port" default:"8080"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"120s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"15s"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
	Logging struct {
		Level  string `yaml:"level" default:"info"`
		Format string `yaml:"format" default:"json"`
		Output string `yaml:"output" default:"stdout"`
	} `yaml:"logging"`
	Data struct {
		Source          string `yaml:"source" default:"csv"`
		CSVPath         string `yaml:"csv_path"`
		Table           string `yaml:"table" default:"sales"`
		FillPolicy      string `yaml:"fill_policy" default:"zero"`
		MinObservations int    `yaml:"min_observations" default:"730"`
	} `yaml:"data"`
	ClickHouse struct {
		Host             string        `yaml:"host" default:"localhost"`
		Port             int           `yaml:"port" default:"9000"`
		Database         string        `yaml:"database" default:"default"`
		User             string        `yaml:"user" default:"default"`
		Password         string        `yaml:"password"`
		DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout      time.Duration `yaml:"read_timeout" default:"30s"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"60s"`
	} `yaml:"clickhouse"`
	Store struct {
		Backend string `yaml:"backend" default:"memory"`
		Redis   struct {
			Host     string `yaml:"host" default:"localhost"`
			Port     int    `yaml:"port" default:"6379"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix" default:"demand"`
		} `yaml:"redis"`
	} `yaml:"store"`
	Events struct {
		Enabled bool `yaml:"enabled"`
		Kafka   struct {
			Brokers      []string      `yaml:"brokers"`
			Topic        string        `yaml:"topic" default:"demand.reports"`
			RequiredAcks int           `yaml:"required_acks" default:"1"`
			Compression  string        `yaml:"compression" default:"snappy"`
			MaxAttempts  int           `yaml:"max_attempts" default:"3"`
			Linger       time.Duration `yaml:"linger" default:"100ms"`
			BatchBytes   int           `yaml:"batch_bytes" default:"1048576"`
			BatchSize    int           `yaml:"batch_size" default:"100"`
			WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
			Async        bool          `yaml:"async"`
		} `yaml:"kafka"`
	} `yaml:"events"`
	Backtest struct {
		InitialTrain  int           `yaml:"initial_train" default:"1095"`
		Horizon       int           `yaml:"horizon" default:"90"`
		Step          int           `yaml:"step" default:"180"`
		FutureHorizon int           `yaml:"future_horizon" default:"365"`
		Workers       int           `yaml:"workers"`
		SeriesTimeout time.Duration `yaml:"series_timeout" default:"5m"`
		Model         string        `yaml:"model" default:"sarima"`
		SARIMA        struct {
			P          int     `yaml:"p" default:"1"`
			D          int     `yaml:"d" default:"1"`
			Q          int     `yaml:"q" default:"1"`
			SP         int     `yaml:"sp" default:"1"`
			SD         int     `yaml:"sd"`
			SQ         int     `yaml:"sq" default:"1"`
			Period     int     `yaml:"period" default:"7"`
			Confidence float64 `yaml:"confidence" default:"0.95"`
		} `yaml:"sarima"`
	} `yaml:"backtest"`
	Anomaly struct {
		Period        int     `yaml:"period" default:"7"`
		Method        string  `yaml:"method" default:"iforest"`
		SigmaK        float64 `yaml:"sigma_k" default:"3"`
		Contamination float64 `yaml:"contamination" default:"0.05"`
		Trees         int     `yaml:"trees" default:"100"`
		Seed          int64   `yaml:"seed" default:"42"`
		RobustIters   int     `yaml:"robust_iters" default:"2"`
	} `yaml:"anomaly"`
	RunOnStart bool `yaml:"run_on_start"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if c.Backtest.Workers <= 0 {
		c.Backtest.Workers = runtime.NumCPU()
	}

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

	// Override with environment variables
	if v := os.Getenv("DATA_SOURCE"); v != "" {
		c.Data.Source = v
	}
	if v := os.Getenv("CSV_PATH"); v != "" {
		c.Data.CSVPath = v
	}
	if v := os.Getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
	}
	if v := os.Getenv("CLICKHOUSE_PASSWORD"); v != "" {
		c.ClickHouse.Password = v
	}
	if v := os.Getenv("STORE_BACKEND"); v != "" {
		c.Store.Backend = v
	}
	if v := os.Getenv("REDIS_HOST"); v != "" {
		c.Store.Redis.Host = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Store.Redis.Password = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Events.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		c.Events.Kafka.Topic = v
	}
	if v := os.Getenv("BACKTEST_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Backtest.Workers = n
		}
	}

	return c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Data.Source != "csv" && c.Data.Source != "clickhouse" {
		return fmt.Errorf("data.source must be 'csv' or 'clickhouse', got '%s'", c.Data.Source)
	}
	if c.Data.Source == "csv" && c.Data.CSVPath == "" {
		return fmt.Errorf("data.csv_path is required when data.source is 'csv'")
	}
	if c.Data.FillPolicy != "zero" && c.Data.FillPolicy != "forward" {
		return fmt.Errorf("data.fill_policy must be 'zero' or 'forward', got '%s'", c.Data.FillPolicy)
	}
	if c.Store.Backend != "memory" && c.Store.Backend != "redis" {
		return fmt.Errorf("store.backend must be 'memory' or 'redis', got '%s'", c.Store.Backend)
	}
	if c.Events.Enabled && len(c.Events.Kafka.Brokers) == 0 {
		return fmt.Errorf("events.kafka.brokers cannot be empty when events are enabled")
	}
	if c.Backtest.Model != "sarima" && c.Backtest.Model != "seasonal_naive" {
		return fmt.Errorf("backtest.model must be 'sarima' or 'seasonal_naive', got '%s'", c.Backtest.Model)
	}
	if c.Backtest.InitialTrain <= 0 || c.Backtest.Horizon <= 0 || c.Backtest.Step <= 0 {
		return fmt.Errorf("backtest.initial_train, horizon and step must be positive")
	}
	if c.Backtest.Step < c.Backtest.Horizon {
		return fmt.Errorf("backtest.step must be >= backtest.horizon")
	}
	if c.Anomaly.Method != "iforest" && c.Anomaly.Method != "sigma" {
		return fmt.Errorf("anomaly.method must be 'iforest' or 'sigma', got '%s'", c.Anomaly.Method)
	}
	if c.Anomaly.Contamination <= 0 || c.Anomaly.Contamination >= 1 {
		return fmt.Errorf("anomaly.contamination must be in (0, 1)")
	}
	return nil
}
