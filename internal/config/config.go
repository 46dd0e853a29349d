// Package config loads runtime configuration from the environment with
// sane defaults for a local run.
package config

import (
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	App    AppConfig
	Sim    SimConfig
	Oracle OracleConfig
	Notary NotaryConfig
	DB     DBConfig
}

type AppConfig struct {
	LogLevel string `mapstructure:"log_level"`
	Port     int    `mapstructure:"port"`
}

type SimConfig struct {
	Seed         int64 `mapstructure:"seed"`
	StepInterval int   `mapstructure:"step_interval"` // milliseconds between auto-steps
	DemoWorld    bool  `mapstructure:"demo_world"`
}

type OracleConfig struct {
	URL   string `mapstructure:"url"`
	Model string `mapstructure:"model"`
}

type NotaryConfig struct {
	Endpoint string `mapstructure:"endpoint"`
}

type DBConfig struct {
	Path string `mapstructure:"path"`
}

// Load reads configuration from AURALIS_-prefixed environment variables
// over built-in defaults.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.port", 8080)

	v.SetDefault("sim.seed", 0)
	v.SetDefault("sim.step_interval", 1000)
	v.SetDefault("sim.demo_world", true)

	v.SetDefault("oracle.url", "")
	v.SetDefault("oracle.model", "llama2")

	v.SetDefault("notary.endpoint", "")

	v.SetDefault("db.path", "data/auralis.db")

	v.SetEnvPrefix("AURALIS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range []string{
		"app.log_level", "app.port",
		"sim.seed", "sim.step_interval", "sim.demo_world",
		"oracle.url", "oracle.model",
		"notary.endpoint",
		"db.path",
	} {
		_ = v.BindEnv(key)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
