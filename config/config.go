package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "PANTRY_"

type Config struct {
	Server    ServerConfig        `koanf:"server"`
	Logger    LoggerConfig        `koanf:"logger"`
	Postgres  PostgresConfig      `koanf:"postgres"`
	Redis     RedisConfig         `koanf:"redis"`
	Kafka     KafkaConfig         `koanf:"kafka"`
	Elastic   ElasticsearchConfig `koanf:"elastic"`
	LLM       LLMConfig           `koanf:"llm"`
	ShelfLife ShelfLifeConfig     `koanf:"shelflife"`
	Priority  PriorityConfig      `koanf:"priority"`
}

type ServerConfig struct {
	AppEnv      string `koanf:"app_env"`
	GRPCPort    string `koanf:"grpc_port"`
	MetricsPort string `koanf:"metrics_port"`
}

type LoggerConfig struct {
	Level             string `koanf:"level"`
	Encoding          string `koanf:"encoding"`
	DisableCaller     bool   `koanf:"disable_caller"`
	DisableStacktrace bool   `koanf:"disable_stacktrace"`
}

type PostgresConfig struct {
	Driver          string `koanf:"driver"` // postgres or sqlite3
	Host            string `koanf:"host"`
	Port            string `koanf:"port"`
	User            string `koanf:"user"`
	Password        string `koanf:"password"`
	DBName          string `koanf:"db_name"`
	SSLMode         string `koanf:"ssl_mode"`
	MaxOpenConns    int    `koanf:"max_open_conns"`
	MaxIdleConns    int    `koanf:"max_idle_conns"`
	ConnMaxLifetime int    `koanf:"conn_max_lifetime"`
	ConnMaxIdleTime int    `koanf:"conn_max_idle_time"`
}

type RedisConfig struct {
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
	Enabled  bool   `koanf:"enabled"`
}

type KafkaConfig struct {
	Brokers []string `koanf:"brokers"`
	Topic   string   `koanf:"topic"`
	GroupID string   `koanf:"group_id"`
	Enabled bool     `koanf:"enabled"`
}

type ElasticsearchConfig struct {
	Addresses []string `koanf:"addresses"`
	Username  string   `koanf:"username"`
	Password  string   `koanf:"password"`
	Index     string   `koanf:"index"`
	Enabled   bool     `koanf:"enabled"`
}

type LLMConfig struct {
	BaseURL   string        `koanf:"base_url"`
	Token     string        `koanf:"token"`
	Model     string        `koanf:"model"`
	Timeout   time.Duration `koanf:"timeout"`
	RateLimit float64       `koanf:"rate_limit"` // requests per second
}

type ShelfLifeConfig struct {
	MaxDays     int           `koanf:"max_days"`
	DefaultDays int           `koanf:"default_days"`
	Timeout     time.Duration `koanf:"timeout"`
}

type PriorityConfig struct {
	WindowDays     int `koanf:"window_days"`
	TopN           int `koanf:"top_n"`
	UseByDays      int `koanf:"use_by_days"`
	BestBeforeDays int `koanf:"best_before_days"`
}

// Default returns the configuration used when nothing overrides a key.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			AppEnv:      "dev",
			GRPCPort:    ":8082",
			MetricsPort: ":9090",
		},
		Logger: LoggerConfig{
			Level:             "debug",
			Encoding:          "console",
			DisableCaller:     false,
			DisableStacktrace: true,
		},
		Postgres: PostgresConfig{
			Driver:          "postgres",
			Host:            "localhost",
			Port:            "5433",
			User:            "pantry",
			Password:        "pantry",
			DBName:          "pantry",
			SSLMode:         "disable",
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 300,
			ConnMaxIdleTime: 60,
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		Kafka: KafkaConfig{
			Brokers: []string{"localhost:9092"},
			Topic:   "pantry.events",
			GroupID: "pantry-inventory",
		},
		Elastic: ElasticsearchConfig{
			Addresses: []string{"http://localhost:9200"},
			Index:     "pantry_items",
		},
		LLM: LLMConfig{
			Model:     "gpt-4o-mini",
			Timeout:   10 * time.Second,
			RateLimit: 2,
		},
		ShelfLife: ShelfLifeConfig{
			MaxDays:     365,
			DefaultDays: 7,
			Timeout:     5 * time.Second,
		},
		Priority: PriorityConfig{
			WindowDays:     14,
			TopN:           10,
			UseByDays:      2,
			BestBeforeDays: 5,
		},
	}
}

// Load reads .env (if present), then an optional YAML file named by
// PANTRY_CONFIG_FILE, then PANTRY_* environment variables, each layer
// overriding the previous one.
//
//	PANTRY_POSTGRES_MAX_OPEN_CONNS -> postgres.max_open_conns
//	PANTRY_KAFKA_BROKERS=a:9092,b:9092 -> kafka.brokers
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")

	if path := os.Getenv(envPrefix + "CONFIG_FILE"); path != "" {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// envKey maps PANTRY_SECTION_FIELD_NAME to section.field_name.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, envPrefix))
	if s == "config_file" {
		return ""
	}
	section, field, ok := strings.Cut(s, "_")
	if !ok {
		return s
	}
	return section + "." + field
}

func (c *Config) Validate() error {
	if c.Priority.WindowDays <= 0 {
		return fmt.Errorf("priority.window_days must be positive, got %d", c.Priority.WindowDays)
	}
	if c.Priority.TopN <= 0 {
		return fmt.Errorf("priority.top_n must be positive, got %d", c.Priority.TopN)
	}
	if c.ShelfLife.MaxDays < 1 {
		return fmt.Errorf("shelflife.max_days must be at least 1, got %d", c.ShelfLife.MaxDays)
	}
	if c.ShelfLife.DefaultDays < 1 {
		return fmt.Errorf("shelflife.default_days must be at least 1, got %d", c.ShelfLife.DefaultDays)
	}
	switch c.Postgres.Driver {
	case "postgres", "sqlite3":
	default:
		return fmt.Errorf("postgres.driver must be postgres or sqlite3, got %q", c.Postgres.Driver)
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Server.AppEnv == "development" || c.Server.AppEnv == "dev"
}
