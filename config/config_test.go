package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
http:
  address: ":9090"
database:
  host: db
  port: 5433
  user: parking
  name: parking
storage:
  driver: memory
kafka:
  brokers: ["kafka:9092"]
  notifications_topic: parking.notifications
auth:
  jwt_secret: from-file
  admin_password: admin@123
booking:
  strict_resize: true
`)

	cfg, err := LoadConfig(path)

	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.HTTP.Address)
	assert.Equal(t, 5433, cfg.Database.Port)
	assert.Equal(t, StorageDriverMemory, cfg.Storage.Driver)
	assert.True(t, cfg.Kafka.Enabled())
	assert.Equal(t, "parking.bookings", cfg.Kafka.BookingTopic)
	assert.True(t, cfg.Booking.StrictResize)
	assert.Equal(t, 3, cfg.Booking.ClaimRetries)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL())
	assert.Equal(t, "admin", cfg.Auth.AdminUsername)
	assert.False(t, cfg.Redis.Enabled())
	assert.Equal(t, "host=db port=5433 user=parking password= dbname=parking sslmode=disable", cfg.Database.DSN())
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	path := writeConfig(t, `
auth:
  jwt_secret: from-file
  admin_password: from-file
`)
	t.Setenv("AUTH_JWT_SECRET", "from-env")
	t.Setenv("DATABASE_PASSWORD", "pg-secret")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")

	cfg, err := LoadConfig(path)

	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Auth.JWTSecret)
	assert.Equal(t, "from-file", cfg.Auth.AdminPassword)
	assert.Equal(t, "pg-secret", cfg.Database.Password)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
}

func TestLoadConfig_MissingFileUsesEnvAndDefaults(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "s")
	t.Setenv("AUTH_ADMIN_PASSWORD", "p")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))

	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTP.Address)
	assert.Equal(t, StorageDriverPostgres, cfg.Storage.Driver)
}

func TestLoadConfig_Invalid(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, "auth: [unterminated"))
	assert.Error(t, err)

	_, err = LoadConfig(writeConfig(t, "storage:\n  driver: sqlite\nauth:\n  jwt_secret: s\n  admin_password: p\n"))
	assert.ErrorContains(t, err, "unknown storage driver")

	_, err = LoadConfig(writeConfig(t, "auth:\n  admin_password: p\n"))
	assert.ErrorContains(t, err, "jwt_secret")
}
