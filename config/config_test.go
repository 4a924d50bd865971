package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "tcp://localhost:1883", cfg.Broker.Url)
	assert.Equal(t, "mqtt", cfg.Broker.Transport)
	assert.NotEmpty(t, cfg.Broker.ClientId)
	assert.Equal(t, "server", cfg.Server.Name)
	assert.Equal(t, 2*time.Second, cfg.Server.Heartbeat)
	assert.Equal(t, ":9100", cfg.Metrics.Addr)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestValidateRejectsUnknownTransport(t *testing.T) {
	cfg := &Config{
		Broker: BrokerConfig{Transport: "carrier-pigeon"},
		Server: ServerConfig{Heartbeat: time.Second},
	}
	assert.Error(t, cfg.validate())
}

func TestValidateRejectsNonPositiveHeartbeat(t *testing.T) {
	cfg := &Config{
		Broker: BrokerConfig{Transport: "mqtt"},
		Server: ServerConfig{Heartbeat: 0},
	}
	assert.Error(t, cfg.validate())
}
