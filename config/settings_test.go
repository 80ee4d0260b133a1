package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 1, cfg.Worker.Consumers)
	assert.Equal(t, 100, cfg.Batch.DefaultLimit)
	assert.Equal(t, 500, cfg.Batch.MaxLimit)
	assert.Equal(t, 7, cfg.Trends.DefaultForecastDays)
	assert.InDelta(t, 1.0, cfg.Churn.Weights.Sum(), 1e-9)
}

func TestLoadYAMLThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yml := `
server:
  port: "9000"
database:
  driver: postgres
  dsn: postgres://localhost/convolens
churn:
  high_threshold: 75
kafka:
  brokers: ["k1:9092"]
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o600))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("PORT", "9100")
	t.Setenv("KAFKA_BROKERS", "a:9092, b:9092")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9100", cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 75, cfg.Churn.HighThreshold)
	assert.Equal(t, 40, cfg.Churn.MediumThreshold)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Kafka.Brokers)
	assert.NotEmpty(t, cfg.Churn.HighRiskTerms)
}

func TestLoadRejectsBadWeights(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yml := `
churn:
  weights:
    sentiment: 0.5
    repeat_contact: 0.5
    resolution: 0.5
    keywords: 0
    duration: 0
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o600))
	t.Setenv("CONFIG_FILE", path)

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sum to 1.0")
}

func TestValidateDriver(t *testing.T) {
	cfg := Defaults()
	cfg.Database.Driver = "mysql"
	assert.Error(t, cfg.Validate())

	cfg = Defaults()
	cfg.Worker.Consumers = 0
	assert.Error(t, cfg.Validate())
}
