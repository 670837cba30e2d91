package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("DATABASE_URL", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, BackendLog, cfg.NotifyBackend)
	assert.Equal(t, 5*time.Second, cfg.RelayInterval)
	assert.Equal(t, 100, cfg.RelayBatchSize)
	assert.True(t, cfg.AutoMigrate)
	assert.True(t, cfg.InMemory())
}

func TestLoad_FullEnvironment(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("ADDR", ":9090")
	t.Setenv("DATABASE_URL", "postgres://app@localhost/addressme")
	t.Setenv("NOTIFY_BACKEND", "kafka")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("RELAY_INTERVAL", "30s")
	t.Setenv("STATIC_ACTORS", "res1:resident,chief:verifier")
	t.Setenv("AUTO_MIGRATE", "false")
	t.Setenv("BOOTSTRAP_VERIFIERS", "chief,deputy")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Addr)
	assert.False(t, cfg.InMemory())
	assert.False(t, cfg.AutoMigrate)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 30*time.Second, cfg.RelayInterval)
	assert.Equal(t, map[string]string{"res1": "resident", "chief": "verifier"}, cfg.StaticActors)
	assert.Equal(t, []string{"chief", "deputy"}, cfg.BootstrapVerifiers)
}

func TestLoad_RequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	_, err := Load()
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := Config{NotifyBackend: BackendLog, RelayInterval: time.Second, RelayBatchSize: 1}
	require.NoError(t, base.Validate())

	cases := map[string]func(c *Config){
		"redis without url":    func(c *Config) { c.NotifyBackend = BackendRedis },
		"kafka without broker": func(c *Config) { c.NotifyBackend = BackendKafka },
		"unknown backend":      func(c *Config) { c.NotifyBackend = "sns" },
		"sub-second interval":  func(c *Config) { c.RelayInterval = 100 * time.Millisecond },
		"empty batch":          func(c *Config) { c.RelayBatchSize = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := base
			mutate(&cfg)
			require.Error(t, cfg.Validate())
		})
	}
}
