package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	Storage  StorageConfig  `yaml:"storage"`
	Redis    RedisConfig    `yaml:"redis"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Auth     AuthConfig     `yaml:"auth"`
	Booking  BookingConfig  `yaml:"booking"`
	Logger   LoggerConfig   `yaml:"logger"`
}

type HTTPConfig struct {
	Address                string `yaml:"address"`
	ShutdownTimeoutSeconds int    `yaml:"shutdown_timeout_seconds"`
}

func (h HTTPConfig) ShutdownTimeout() time.Duration {
	return time.Duration(h.ShutdownTimeoutSeconds) * time.Second
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int32  `yaml:"max_conns"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s", d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type StorageConfig struct {
	Driver        string `yaml:"driver"`
	RunMigrations bool   `yaml:"run_migrations"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

func (r RedisConfig) Enabled() bool {
	return r.Addr != ""
}

type KafkaConfig struct {
	Brokers            []string `yaml:"brokers"`
	BookingTopic       string   `yaml:"booking_topic"`
	NotificationsTopic string   `yaml:"notifications_topic"`
	GroupID            string   `yaml:"group_id"`
}

func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0
}

type AuthConfig struct {
	JWTSecret       string `yaml:"jwt_secret"`
	TokenTTLMinutes int    `yaml:"token_ttl_minutes"`
	AdminUsername   string `yaml:"admin_username"`
	AdminPassword   string `yaml:"admin_password"`
}

func (a AuthConfig) TokenTTL() time.Duration {
	return time.Duration(a.TokenTTLMinutes) * time.Minute
}

type BookingConfig struct {
	ClaimRetries        int  `yaml:"claim_retries"`
	StrictResize        bool `yaml:"strict_resize"`
	LotsCacheTTLSeconds int  `yaml:"lots_cache_ttl_seconds"`
}

func (b BookingConfig) LotsCacheTTL() time.Duration {
	return time.Duration(b.LotsCacheTTLSeconds) * time.Second
}

type LoggerConfig struct {
	Level string `yaml:"level"`
}

// LoadConfig reads the YAML file at path, then applies .env and environment
// overrides for secrets, then defaults. A missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	applyEnv(&cfg)
	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	overrideString(&cfg.Database.Password, "DATABASE_PASSWORD")
	overrideString(&cfg.Auth.JWTSecret, "AUTH_JWT_SECRET")
	overrideString(&cfg.Auth.AdminPassword, "AUTH_ADMIN_PASSWORD")
	overrideString(&cfg.Redis.Password, "REDIS_PASSWORD")
	overrideString(&cfg.Storage.Driver, "STORAGE_DRIVER")
	if brokers, ok := os.LookupEnv("KAFKA_BROKERS"); ok {
		cfg.Kafka.Brokers = splitList(brokers)
	}
}

func applyDefaults(cfg *Config) {
	defaultString(&cfg.HTTP.Address, ":8080")
	defaultInt(&cfg.HTTP.ShutdownTimeoutSeconds, 5)
	defaultString(&cfg.Database.Host, "localhost")
	defaultInt(&cfg.Database.Port, 5432)
	defaultString(&cfg.Database.SSLMode, "disable")
	defaultString(&cfg.Storage.Driver, StorageDriverPostgres)
	defaultString(&cfg.Kafka.BookingTopic, "parking.bookings")
	defaultString(&cfg.Kafka.GroupID, "parking-worker")
	defaultInt(&cfg.Auth.TokenTTLMinutes, 24*60)
	defaultString(&cfg.Auth.AdminUsername, "admin")
	defaultInt(&cfg.Booking.ClaimRetries, 3)
	defaultInt(&cfg.Booking.LotsCacheTTLSeconds, 30)
	defaultString(&cfg.Logger.Level, "info")
}

func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case StorageDriverPostgres, StorageDriverMemory:
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret (or AUTH_JWT_SECRET) is required")
	}
	if c.Auth.AdminPassword == "" {
		return errors.New("auth.admin_password (or AUTH_ADMIN_PASSWORD) is required")
	}
	return nil
}

func overrideString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func defaultString(dst *string, v string) {
	if *dst == "" {
		*dst = v
	}
}

func defaultInt(dst *int, v int) {
	if *dst == 0 {
		*dst = v
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
