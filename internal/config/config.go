// Package config provides configuration for the companion client.
package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the companion configuration.
type Config struct {
	Platform PlatformConfig `mapstructure:"platform"`
	Chat     ChatConfig     `mapstructure:"chat"`
	Session  SessionConfig  `mapstructure:"session"`
	Dev      DevConfig      `mapstructure:"dev"`
	Log      LogConfig      `mapstructure:"log"`
}

// PlatformConfig points the client at the platform API.
type PlatformConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// ChatConfig controls transcript fetching.
type ChatConfig struct {
	PerPage int `mapstructure:"per_page"`
}

// SessionConfig controls where the session is persisted.
type SessionConfig struct {
	DataDir    string `mapstructure:"data_dir"`
	CookieFile string `mapstructure:"cookie_file"`
}

// DevConfig configures the local platform stub started with -dev.
type DevConfig struct {
	Port         int    `mapstructure:"port"`
	JWTSecret    string `mapstructure:"jwt_secret"`
	OpenAIAPIKey string `mapstructure:"openai_api_key"`
	OpenAIModel  string `mapstructure:"openai_model"`
}

// LogConfig controls logging output.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from the given yaml file, overridden by
// FITPULSE_* environment variables. A missing config file is not an
// error; defaults apply.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetDefault("platform.base_url", "http://localhost:8080")
	v.SetDefault("platform.timeout", "5m")
	v.SetDefault("chat.per_page", 20)
	v.SetDefault("session.data_dir", ".fitpulse")
	v.SetDefault("session.cookie_file", ".fitpulse/cookies.txt")
	v.SetDefault("dev.port", 8080)
	v.SetDefault("dev.jwt_secret", "dev-secret")
	v.SetDefault("dev.openai_model", "gpt-4o-mini")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetEnvPrefix("FITPULSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
