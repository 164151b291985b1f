package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/fitqueue/core/config"
)

type queueSettings struct {
	Attempts int           `env:"TEST_CFG_ATTEMPTS" envDefault:"3"`
	Backoff  time.Duration `env:"TEST_CFG_BACKOFF" envDefault:"2s"`
	Queues   []string      `env:"TEST_CFG_QUEUES" envDefault:"ai,email" envSeparator:","`
}

type requiredSettings struct {
	URL string `env:"TEST_CFG_REQUIRED_URL,required"`
}

func TestLoad_DefaultsAndOverrides(t *testing.T) {
	config.Reset()
	t.Setenv("TEST_CFG_ATTEMPTS", "5")

	var cfg queueSettings
	require.NoError(t, config.Load(&cfg))

	assert.Equal(t, 5, cfg.Attempts)
	assert.Equal(t, 2*time.Second, cfg.Backoff)
	assert.Equal(t, []string{"ai", "email"}, cfg.Queues)
}

func TestLoad_CachesPerType(t *testing.T) {
	config.Reset()
	t.Setenv("TEST_CFG_ATTEMPTS", "7")

	var first queueSettings
	require.NoError(t, config.Load(&first))

	t.Setenv("TEST_CFG_ATTEMPTS", "9")

	var second queueSettings
	require.NoError(t, config.Load(&second))
	assert.Equal(t, 7, second.Attempts, "second load must come from cache")

	config.Reset()
	var third queueSettings
	require.NoError(t, config.Load(&third))
	assert.Equal(t, 9, third.Attempts)
}

func TestLoad_RequiredMissing(t *testing.T) {
	config.Reset()

	var cfg requiredSettings
	err := config.Load(&cfg)
	assert.Error(t, err)

	assert.Panics(t, func() {
		config.MustLoad(&requiredSettings{})
	})
}

func TestLoad_Nil(t *testing.T) {
	var cfg *queueSettings
	assert.ErrorIs(t, config.Load(cfg), config.ErrNilConfig)
}
