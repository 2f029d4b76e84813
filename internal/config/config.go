package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"

	"todo-app-go/pkg/logger"
)

const envPrefix = "TODO_"

const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	Env      string         `koanf:"env" validate:"required"`
	HTTP     HTTPConfig     `koanf:"http"`
	Store    StoreConfig    `koanf:"store"`
	Mongo    MongoConfig    `koanf:"mongo"`
	Postgres PostgresConfig `koanf:"postgres"`
}

type HTTPConfig struct {
	Port string `koanf:"port" validate:"required,numeric"`
	// Comma separated.
	CORSOrigins string `koanf:"cors_origins"`
}

type StoreConfig struct {
	Driver string `koanf:"driver" validate:"oneof=mongo postgres memory"`
}

type MongoConfig struct {
	// Creating a list with initial items runs in a transaction, which needs a
	// replica set or mongos (e.g. mongodb://localhost:27017/?replicaSet=rs0).
	URI            string        `koanf:"uri" validate:"required"`
	Database       string        `koanf:"database" validate:"required"`
	Collection     string        `koanf:"collection" validate:"required"`
	ConnectTimeout time.Duration `koanf:"connect_timeout" validate:"gt=0"`
	MaxPoolSize    uint64        `koanf:"max_pool_size"`
}

type PostgresConfig struct {
	DSN             string        `koanf:"dsn"`
	MaxOpenConns    int           `koanf:"max_open_conns" validate:"gte=0"`
	MaxIdleConns    int           `koanf:"max_idle_conns" validate:"gte=0"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime" validate:"gte=0"`
}

func Default() Config {
	return Config{
		Env: "development",
		HTTP: HTTPConfig{
			Port:        "8080",
			CORSOrigins: "http://localhost:5173",
		},
		Store: StoreConfig{Driver: DriverMongo},
		Mongo: MongoConfig{
			URI:            "mongodb://localhost:27017",
			Database:       "todo",
			Collection:     "todo_lists",
			ConnectTimeout: 10 * time.Second,
			MaxPoolSize:    100,
		},
		Postgres: PostgresConfig{
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
		},
	}
}

// Load reads .env (never overriding the process environment), then maps
// TODO_* variables onto Config: TODO_MONGO_CONNECT_TIMEOUT -> mongo.connect_timeout.
func Load(log logger.Logger) (Config, error) {
	if err := loadDotEnv(log); err != nil {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	k := koanf.New(".")
	err := k.Load(env.Provider(envPrefix, ".", envKey), nil)
	if err != nil {
		return Config{}, fmt.Errorf("load env: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Store.Driver == DriverPostgres && strings.TrimSpace(c.Postgres.DSN) == "" {
		return fmt.Errorf("invalid config: TODO_POSTGRES_DSN is required for the postgres driver")
	}
	return nil
}

func (c HTTPConfig) AllowedOrigins() []string {
	parts := strings.Split(c.CORSOrigins, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		origin := strings.TrimSpace(part)
		if origin != "" {
			result = append(result, origin)
		}
	}
	return result
}

func envKey(name string) string {
	key := strings.ToLower(strings.TrimPrefix(name, envPrefix))
	return strings.Replace(key, "_", ".", 1)
}
