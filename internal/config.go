package internal

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Defaults applied when neither environment nor config file say otherwise.
const (
	DefaultObservabilityURL = "https://api.helicone.ai"
	DefaultGatewayURL       = "https://oai.helicone.ai"
	DefaultTimeout          = 30 * time.Second
	DefaultPageSize         = 100
)

// Config carries everything the pipeline needs. Components receive it
// explicitly; nothing reads the environment after LoadConfig returns, which
// keeps every stage testable with an injected transport.
type Config struct {
	ObservabilityURL string        `mapstructure:"observability_url"` // query/search API base
	ObservabilityKey string        `mapstructure:"observability_key"`
	GatewayURL       string        `mapstructure:"gateway_url"` // LLM gateway replays go through
	ProviderKey      string        `mapstructure:"provider_key"`
	Timeout          time.Duration `mapstructure:"timeout"` // per network call
	PageSize         int           `mapstructure:"page_size"`
	ArchivePath      string        `mapstructure:"archive_path"`
}

// LoadConfig resolves configuration from, in precedence order: the given
// config file (or ~/.session-replay.yaml when empty), environment variables
// (SESSION_REPLAY_* with HELICONE_API_KEY / OPENAI_API_KEY fallbacks), a
// .env file in the working directory, then defaults.
func LoadConfig(configFile string) (Config, error) {
	// Best effort; a missing .env is the common case.
	_ = godotenv.Load()

	v := viper.New()
	v.SetDefault("observability_url", DefaultObservabilityURL)
	v.SetDefault("gateway_url", DefaultGatewayURL)
	v.SetDefault("timeout", DefaultTimeout)
	v.SetDefault("page_size", DefaultPageSize)

	v.SetEnvPrefix("SESSION_REPLAY")
	v.AutomaticEnv()
	_ = v.BindEnv("observability_url", "SESSION_REPLAY_OBSERVABILITY_URL")
	_ = v.BindEnv("observability_key", "SESSION_REPLAY_OBSERVABILITY_KEY", "HELICONE_API_KEY")
	_ = v.BindEnv("gateway_url", "SESSION_REPLAY_GATEWAY_URL")
	_ = v.BindEnv("provider_key", "SESSION_REPLAY_PROVIDER_KEY", "OPENAI_API_KEY")
	_ = v.BindEnv("timeout", "SESSION_REPLAY_TIMEOUT")
	_ = v.BindEnv("page_size", "SESSION_REPLAY_PAGE_SIZE")
	_ = v.BindEnv("archive_path", "SESSION_REPLAY_ARCHIVE_PATH")

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config file %s: %w", configFile, err)
		}
	} else {
		v.SetConfigName(".session-replay")
		v.SetConfigType("yaml")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		// Optional when not named explicitly.
		_ = v.ReadInConfig()
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}

	if cfg.ArchivePath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Config{}, fmt.Errorf("resolving archive path: %w", err)
		}
		cfg.ArchivePath = filepath.Join(home, ".session-replay", "archive.db")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}

	return cfg, nil
}

// RequireFetch validates the fields fetching needs.
func (c Config) RequireFetch() error {
	if c.ObservabilityKey == "" {
		return fmt.Errorf("observability API key not set (HELICONE_API_KEY)")
	}
	return nil
}

// RequireReplay validates the fields replaying needs.
func (c Config) RequireReplay() error {
	if c.ProviderKey == "" {
		return fmt.Errorf("provider API key not set (OPENAI_API_KEY)")
	}
	return nil
}
