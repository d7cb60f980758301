package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/ilyakaznacheev/cleanenv"
)

const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	App      AppConfig      `toml:"app"`
	Auth     AuthConfig     `toml:"auth"`
	Database DatabaseConfig `toml:"database"`
	MySQL    MySQLConfig    `toml:"mysql"`
	Postgres PostgresConfig `toml:"postgres"`
	Redis    RedisConfig    `toml:"redis"`
	RabbitMQ RabbitMQConfig `toml:"rabbitmq"`
}

type AppConfig struct {
	Name        string   `toml:"name" env:"APP_NAME"`
	Env         string   `toml:"env" env:"APP_ENV"`
	Host        string   `toml:"host" env:"APP_HOST"`
	Port        int      `toml:"port" env:"APP_PORT"`
	GinMode     string   `toml:"gin_mode" env:"GIN_MODE"`
	LogLevel    string   `toml:"log_level" env:"LOG_LEVEL"`
	CORSOrigins []string `toml:"cors_origins" env:"CORS_ORIGINS" env-separator:","`
}

type AuthConfig struct {
	JWTSecret       string `toml:"jwt_secret" env:"JWT_SECRET"`
	JWTExpireMinute int    `toml:"jwt_expire_minute" env:"JWT_EXPIRE_MINUTE"`
	BcryptCost      int    `toml:"bcrypt_cost" env:"BCRYPT_COST"`
}

type DatabaseConfig struct {
	Driver     string `toml:"driver" env:"DB_DRIVER"`
	SQLitePath string `toml:"sqlite_path" env:"SQLITE_PATH"`
}

type MySQLConfig struct {
	Host     string `toml:"host" env:"MYSQL_HOST"`
	Port     int    `toml:"port" env:"MYSQL_PORT"`
	User     string `toml:"user" env:"MYSQL_USER"`
	Password string `toml:"password" env:"MYSQL_PASSWORD"`
	DB       string `toml:"db" env:"MYSQL_DB"`
	Params   string `toml:"params" env:"MYSQL_PARAMS"`
}

type PostgresConfig struct {
	Host     string `toml:"host" env:"POSTGRES_HOST"`
	Port     int    `toml:"port" env:"POSTGRES_PORT"`
	User     string `toml:"user" env:"POSTGRES_USER"`
	Password string `toml:"password" env:"POSTGRES_PASSWORD"`
	DB       string `toml:"db" env:"POSTGRES_DB"`
	SSLMode  string `toml:"sslmode" env:"POSTGRES_SSLMODE"`
}

// RedisConfig enables the user projection cache when Addr is set.
type RedisConfig struct {
	Addr           string `toml:"addr" env:"REDIS_ADDR"`
	Password       string `toml:"password" env:"REDIS_PASSWORD"`
	DB             int    `toml:"db" env:"REDIS_DB"`
	UserTTLSeconds int    `toml:"user_ttl_seconds" env:"REDIS_USER_TTL_SECONDS"`
}

// RabbitMQConfig enables user lifecycle events when URL is set.
type RabbitMQConfig struct {
	URL      string `toml:"url" env:"RABBITMQ_URL"`
	Exchange string `toml:"exchange" env:"RABBITMQ_EXCHANGE"`
}

func Load() (*Config, error) {
	cfg := defaultConfig()

	configPath := os.Getenv("CONFIG_FILE")
	if configPath == "" {
		configPath = "configs/config.toml"
	}
	if _, err := os.Stat(configPath); err == nil {
		if _, err := toml.DecodeFile(configPath, cfg); err != nil {
			return nil, fmt.Errorf("decode config file failed: %w", err)
		}
	}

	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("read env overrides failed: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverMySQL, DriverPostgres:
	case DriverSQLite:
		if strings.TrimSpace(c.Database.SQLitePath) == "" {
			return errors.New("database.sqlite_path is required for the sqlite driver")
		}
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		return errors.New("auth.jwt_secret must not be empty")
	}
	if c.Auth.JWTExpireMinute <= 0 {
		return errors.New("auth.jwt_expire_minute must be positive")
	}
	return nil
}

func (c *Config) HTTPAddr() string {
	return fmt.Sprintf("%s:%d", c.App.Host, c.App.Port)
}

func (c *Config) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?%s",
		c.MySQL.User,
		c.MySQL.Password,
		c.MySQL.Host,
		c.MySQL.Port,
		c.MySQL.DB,
		c.MySQL.Params,
	)
}

func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Postgres.Host,
		c.Postgres.Port,
		c.Postgres.User,
		c.Postgres.Password,
		c.Postgres.DB,
		c.Postgres.SSLMode,
	)
}

func defaultConfig() *Config {
	return &Config{
		App: AppConfig{
			Name:     "gopher-accounts",
			Env:      "dev",
			Host:     "0.0.0.0",
			Port:     8080,
			GinMode:  "debug",
			LogLevel: "info",
		},
		Auth: AuthConfig{
			JWTSecret:       "change-me-in-production",
			JWTExpireMinute: 120,
			BcryptCost:      10,
		},
		Database: DatabaseConfig{
			Driver:     DriverSQLite,
			SQLitePath: "data/accounts.db",
		},
		MySQL: MySQLConfig{
			Host:   "127.0.0.1",
			Port:   3306,
			User:   "root",
			DB:     "gopher_accounts",
			Params: "parseTime=true&loc=Local&charset=utf8mb4",
		},
		Postgres: PostgresConfig{
			Host:    "127.0.0.1",
			Port:    5432,
			User:    "postgres",
			DB:      "gopher_accounts",
			SSLMode: "disable",
		},
		Redis: RedisConfig{
			UserTTLSeconds: 60,
		},
		RabbitMQ: RabbitMQConfig{
			Exchange: "accounts.users",
		},
	}
}
