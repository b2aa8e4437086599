package cmd

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")

	config, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "8080", config.HTTPPort)
	assert.Equal(t, StorageDriverPostgres, config.StorageDriver)
	assert.Equal(t, 30*time.Minute, config.OTPTTL)
	assert.Equal(t, 5, config.OTPMaxAttempts)
	assert.Equal(t, 4, config.DispatchWorkers)
	assert.Equal(t, "*/10 * * * * *", config.DispatchRetrySpec)
	assert.False(t, config.KafkaEnabled())
	assert.False(t, config.SimulationEnabled)

	level, err := config.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, level)
}

func TestLoadConfigFromEnvFile(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	content := "JWT_SECRET=from-file\nSTORAGE_DRIVER=memory\nKAFKA_BROKERS=k1:9092,k2:9092\nOTP_TTL=10m\nLOG_LEVEL=debug\n"
	require.NoError(t, os.WriteFile(envFile, []byte(content), 0o600))

	for _, key := range []string{"JWT_SECRET", "STORAGE_DRIVER", "KAFKA_BROKERS", "OTP_TTL", "LOG_LEVEL"} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}

	config, err := LoadConfig(envFile)
	require.NoError(t, err)

	assert.Equal(t, "from-file", config.JWTSecret)
	assert.Equal(t, StorageDriverMemory, config.StorageDriver)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, config.KafkaBrokers)
	assert.True(t, config.KafkaEnabled())
	assert.Equal(t, 10*time.Minute, config.OTPTTL)

	level, err := config.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}

func TestLoadConfigSkipsMissingEnvFile(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")

	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.env"))
	assert.NoError(t, err)
}

func TestLoadConfigRejects(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing secret", map[string]string{"JWT_SECRET": ""}},
		{"unknown driver", map[string]string{"STORAGE_DRIVER": "mongo"}},
		{"zero otp ttl", map[string]string{"OTP_TTL": "0s"}},
		{"no attempts", map[string]string{"OTP_MAX_ATTEMPTS": "0"}},
		{"no workers", map[string]string{"DISPATCH_WORKERS": "0"}},
		{"bad log level", map[string]string{"LOG_LEVEL": "loud"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("JWT_SECRET", "secret")
			for key, value := range tc.env {
				t.Setenv(key, value)
			}

			_, err := LoadConfig("")
			assert.Error(t, err)
		})
	}
}

func TestDatabaseURL(t *testing.T) {
	config := Config{
		DBUser:     "app",
		DBPassword: "p@ss word",
		DBHost:     "db",
		DBPort:     "5432",
		DBName:     "robodelivery",
		DBSslMode:  "disable",
	}

	assert.Equal(t, "postgres://app:p%40ss%20word@db:5432/robodelivery?sslmode=disable", config.DatabaseURL())
}
