package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config aggregates application configuration values loaded from environment
// variables. Mongo, Kafka and Redis are all optional: a value left unset makes
// the service fall back to its in-memory counterpart, which is how the test
// and dev profiles run.
type Config struct {
	Env            string
	HTTPAddr       string
	MongoURI       string
	MongoDB        string
	KafkaBrokers   []string
	KafkaTopic     string
	KafkaGroupID   string
	RedisAddr      string
	Currency       string
	ServiceFeeBps  int64
	TaxBps         int64
	DecisionWindow time.Duration
	SweepInterval  time.Duration
	IdempotencyTTL time.Duration
}

// Load parses configuration from the current environment.
func Load() (Config, error) {
	cfg := Config{
		Env:          getEnv("APP_ENV", "dev"),
		HTTPAddr:     getEnv("HTTP_ADDR", ":8080"),
		MongoURI:     os.Getenv("MONGO_URI"),
		MongoDB:      getEnv("MONGO_DB", "staybook"),
		KafkaTopic:   getEnv("KAFKA_TOPIC", "reservations.events"),
		KafkaGroupID: getEnv("KAFKA_GROUP_ID", "staybook-notifications"),
		RedisAddr:    os.Getenv("REDIS_ADDR"),
		Currency:     getEnv("CURRENCY", "USD"),
	}
	brokers := getEnv("KAFKA_BROKERS", "")
	if brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}

	feeBps, err := parseIntEnv("SERVICE_FEE_BPS", 300)
	if err != nil {
		return Config{}, err
	}
	cfg.ServiceFeeBps = feeBps

	taxBps, err := parseIntEnv("TAX_RATE_BPS", 1200)
	if err != nil {
		return Config{}, err
	}
	cfg.TaxBps = taxBps

	window, err := parseDurationEnv("DECISION_WINDOW", 24*time.Hour)
	if err != nil {
		return Config{}, err
	}
	cfg.DecisionWindow = window

	sweep, err := parseDurationEnv("SWEEP_INTERVAL", 5*time.Minute)
	if err != nil {
		return Config{}, err
	}
	cfg.SweepInterval = sweep

	idempotencyTTL, err := parseDurationEnv("IDEMP_TTL", 24*time.Hour)
	if err != nil {
		return Config{}, err
	}
	cfg.IdempotencyTTL = idempotencyTTL

	if len(cfg.Currency) != 3 {
		return Config{}, fmt.Errorf("CURRENCY must be a 3-letter code, got %q", cfg.Currency)
	}
	if cfg.ServiceFeeBps < 0 || cfg.TaxBps < 0 {
		return Config{}, fmt.Errorf("fee and tax rates cannot be negative")
	}
	return cfg, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseDurationEnv(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s duration: %w", key, err)
	}
	return d, nil
}

func parseIntEnv(key string, def int64) (int64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s integer: %w", key, err)
	}
	return n, nil
}
