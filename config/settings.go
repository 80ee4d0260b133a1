package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/yoockh/convolens/internal/churn"
	"gopkg.in/yaml.v3"
)

type Settings struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Mongo    MongoConfig    `yaml:"mongo"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Worker   WorkerConfig   `yaml:"worker"`
	Batch    BatchConfig    `yaml:"batch"`
	Churn    churn.Model    `yaml:"churn"`
	Trends   TrendsConfig   `yaml:"trends"`
	LogLevel string         `yaml:"log_level"`
}

type ServerConfig struct {
	Port        string   `yaml:"port"`
	CORSOrigins []string `yaml:"cors_origins"`
}

type DatabaseConfig struct {
	Driver       string `yaml:"driver"` // sqlite | postgres
	DSN          string `yaml:"dsn"`
	MaxOpenConns int    `yaml:"max_open_conns"`
}

// RedisConfig is optional; an empty Addr disables the job stream and events.
type RedisConfig struct {
	Addr          string `yaml:"addr"`
	Stream        string `yaml:"stream"`
	EventsChannel string `yaml:"events_channel"`
}

type MongoConfig struct {
	URI string `yaml:"uri"`
	DB  string `yaml:"db"`
}

type KafkaConfig struct {
	Brokers    []string `yaml:"brokers"`
	ChurnTopic string   `yaml:"churn_topic"`
}

type WorkerConfig struct {
	Consumers int    `yaml:"consumers"`
	Group     string `yaml:"group"`
}

type BatchConfig struct {
	DefaultLimit int `yaml:"default_limit"`
	MaxLimit     int `yaml:"max_limit"`
}

type TrendsConfig struct {
	DefaultForecastDays int `yaml:"default_forecast_days"`
	MaxForecastDays     int `yaml:"max_forecast_days"`
}

func Defaults() *Settings {
	return &Settings{
		Server: ServerConfig{
			Port:        "8080",
			CORSOrigins: []string{"*"},
		},
		Database: DatabaseConfig{
			Driver:       "sqlite",
			DSN:          "convolens.db",
			MaxOpenConns: 20,
		},
		Redis: RedisConfig{
			Stream:        "analysis:stream",
			EventsChannel: "analysis:events",
		},
		Mongo: MongoConfig{DB: "convolens"},
		Kafka: KafkaConfig{ChurnTopic: "churn-scores"},
		Worker: WorkerConfig{
			Consumers: 1,
			Group:     "analysis-workers",
		},
		Batch: BatchConfig{
			DefaultLimit: 100,
			MaxLimit:     500,
		},
		Churn: churn.DefaultModel(),
		Trends: TrendsConfig{
			DefaultForecastDays: 7,
			MaxForecastDays:     30,
		},
		LogLevel: "info",
	}
}

// Load builds settings from defaults, then the YAML file named by CONFIG_FILE
// (config.yaml when unset, skipped if absent), then environment overrides.
func Load() (*Settings, error) {
	cfg := Defaults()

	path := os.Getenv("CONFIG_FILE")
	if path == "" {
		path = "config.yaml"
	}
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Settings) {
	if v := os.Getenv("PORT"); v != "" {
		cfg.Server.Port = v
	}
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		cfg.Server.CORSOrigins = splitList(v)
	}
	if v := os.Getenv("DB_DRIVER"); v != "" {
		cfg.Database.Driver = strings.ToLower(v)
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.DSN = v
	} else if v := os.Getenv("POSTGRES_URI"); v != "" {
		cfg.Database.Driver = "postgres"
		cfg.Database.DSN = v
	}
	for _, key := range []string{"REDIS_ADDR", "REDIS_URI", "REDIS_URL"} {
		if v := os.Getenv(key); v != "" {
			cfg.Redis.Addr = v
			break
		}
	}
	if v := os.Getenv("MONGO_URI"); v != "" {
		cfg.Mongo.URI = v
	}
	if v := os.Getenv("MONGO_DB"); v != "" {
		cfg.Mongo.DB = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = splitList(v)
	}
	if v := os.Getenv("KAFKA_CHURN_TOPIC"); v != "" {
		cfg.Kafka.ChurnTopic = v
	}
	if n, ok := envInt("WORKER_CONSUMERS"); ok {
		cfg.Worker.Consumers = n
	}
	if n, ok := envInt("BATCH_MAX_LIMIT"); ok {
		cfg.Batch.MaxLimit = n
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
}

func (s *Settings) Validate() error {
	switch s.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported database driver %q", s.Database.Driver)
	}
	if s.Database.DSN == "" {
		return errors.New("database dsn is empty")
	}
	if s.Worker.Consumers < 1 {
		return errors.New("worker consumers must be >= 1")
	}
	if s.Batch.DefaultLimit < 1 || s.Batch.MaxLimit < s.Batch.DefaultLimit {
		return fmt.Errorf("invalid batch limits: default=%d max=%d", s.Batch.DefaultLimit, s.Batch.MaxLimit)
	}
	if s.Trends.DefaultForecastDays < 1 || s.Trends.MaxForecastDays < s.Trends.DefaultForecastDays {
		return fmt.Errorf("invalid forecast days: default=%d max=%d", s.Trends.DefaultForecastDays, s.Trends.MaxForecastDays)
	}
	if err := s.Churn.Validate(); err != nil {
		return fmt.Errorf("churn model: %w", err)
	}
	return nil
}

func envInt(key string) (int, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
