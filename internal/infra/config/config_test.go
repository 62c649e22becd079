package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staybook/internal/infra/config"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Empty(t, cfg.MongoURI)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, "USD", cfg.Currency)
	assert.Equal(t, int64(300), cfg.ServiceFeeBps)
	assert.Equal(t, int64(1200), cfg.TaxBps)
	assert.Equal(t, 24*time.Hour, cfg.DecisionWindow)
	assert.Equal(t, 5*time.Minute, cfg.SweepInterval)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "prod")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("CURRENCY", "EUR")
	t.Setenv("SERVICE_FEE_BPS", "500")
	t.Setenv("DECISION_WINDOW", "12h")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "prod", cfg.Env)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "EUR", cfg.Currency)
	assert.Equal(t, int64(500), cfg.ServiceFeeBps)
	assert.Equal(t, 12*time.Hour, cfg.DecisionWindow)
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Run("bad duration", func(t *testing.T) {
		t.Setenv("DECISION_WINDOW", "one day")
		_, err := config.Load()
		assert.Error(t, err)
	})

	t.Run("bad currency", func(t *testing.T) {
		t.Setenv("CURRENCY", "DOLLARS")
		_, err := config.Load()
		assert.Error(t, err)
	})

	t.Run("negative rate", func(t *testing.T) {
		t.Setenv("TAX_RATE_BPS", "-5")
		_, err := config.Load()
		assert.Error(t, err)
	})
}
