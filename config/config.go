package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/viper"
)

// BrokerConfig selects and addresses the pub/sub transport.
type BrokerConfig struct {
	Url       string `mapstructure:"url"`
	ClientId  string `mapstructure:"client_id"`
	Transport string `mapstructure:"transport"` // "mqtt" or "dda"
	Cluster   string `mapstructure:"cluster"`   // dda only
}

// ServerConfig holds introspection server settings.
type ServerConfig struct {
	Name      string        `mapstructure:"name"`
	Heartbeat time.Duration `mapstructure:"heartbeat"`
}

// MetricsConfig holds the Prometheus listen address.
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// LoggingConfig holds the logging-related configuration.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// Config is the top-level configuration struct.
type Config struct {
	Broker  BrokerConfig  `mapstructure:"broker"`
	Server  ServerConfig  `mapstructure:"server"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Logging LoggingConfig `mapstructure:"log"`
}

// InitConfig sets defaults, wires the config file and environment
// variables.
func InitConfig() error {
	viper.SetDefault("broker.url", "tcp://localhost:1883")
	viper.SetDefault("broker.client_id", uuid.NewString())
	viper.SetDefault("broker.transport", "mqtt")
	viper.SetDefault("broker.cluster", "smach")
	viper.SetDefault("server.name", "server")
	viper.SetDefault("server.heartbeat", 2*time.Second)
	viper.SetDefault("metrics.addr", ":9100")
	viper.SetDefault("log.level", "info")

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
		// no file: defaults and env vars apply
	}

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	return nil
}

// Load unmarshals the configuration into the Config struct.
func Load() (*Config, error) {
	if err := InitConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Broker.Transport {
	case "mqtt", "dda":
	default:
		return fmt.Errorf("unknown transport %q", c.Broker.Transport)
	}
	if c.Server.Heartbeat <= 0 {
		return fmt.Errorf("heartbeat must be positive, got %s", c.Server.Heartbeat)
	}
	return nil
}
