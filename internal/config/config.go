package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/docgate-app/docgate/internal/remoteocr"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	RemoteOCR RemoteOCRConfig `mapstructure:"remote_ocr"`
	Debug     bool            `mapstructure:"debug"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Address      string        `mapstructure:"address"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	BodyLimit    int           `mapstructure:"body_limit"`
}

// RemoteOCRConfig contains the remote OCR backend settings
type RemoteOCRConfig struct {
	Engine        string            `mapstructure:"engine"`
	Endpoint      string            `mapstructure:"endpoint"`
	APIKey        string            `mapstructure:"api_key"`
	AuthToken     string            `mapstructure:"auth_token"`
	AuthMethod    string            `mapstructure:"auth_method"`
	Timeout       time.Duration     `mapstructure:"timeout"`
	RetryCount    int               `mapstructure:"retry_count"`
	VerifyTLS     bool              `mapstructure:"verify_tls"`
	Language      string            `mapstructure:"language"`
	CustomHeaders map[string]string `mapstructure:"custom_headers"`
}

// Load loads configuration from file and environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (for local development)
	if err := loadEnvFile(); err != nil {
		log.Debug().Err(err).Msg("No .env file loaded")
	}

	viper.SetConfigName("docgate")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/docgate")

	setDefaults()

	viper.AutomaticEnv()
	viper.SetEnvPrefix("DOCGATE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		log.Info().Msg("No config file found, using environment variables and defaults")
	} else {
		log.Info().Str("file", viper.ConfigFileUsed()).Msg("Config file loaded")
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// loadEnvFile loads environment variables from .env file
func loadEnvFile() error {
	locations := []string{
		".env",
		".env.local",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			if err := godotenv.Load(location); err != nil {
				return fmt.Errorf("error loading .env file from %s: %w", location, err)
			}
			log.Info().Str("file", location).Msg(".env file loaded")
			return nil
		}
	}

	return fmt.Errorf("no .env file found")
}

// setDefaults sets default configuration values
func setDefaults() {
	viper.SetDefault("server.address", ":8085")
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "5m")
	viper.SetDefault("server.body_limit", 100*1024*1024) // 100MB

	viper.SetDefault("remote_ocr.engine", "")
	viper.SetDefault("remote_ocr.auth_method", "bearer")
	viper.SetDefault("remote_ocr.timeout", "30s")
	viper.SetDefault("remote_ocr.retry_count", 3)
	viper.SetDefault("remote_ocr.verify_tls", true)
	viper.SetDefault("remote_ocr.language", "eng")

	viper.SetDefault("debug", false)
}

// Validate validates the configuration. Misconfigurations that would make
// the selected backend unusable are errors; weaker-than-ideal settings are
// logged as warnings.
func (c *Config) Validate() error {
	if err := c.RemoteOCR.Validate(); err != nil {
		return err
	}

	if c.Server.BodyLimit <= 0 {
		return fmt.Errorf("server body_limit must be positive")
	}

	return nil
}

// Validate checks the remote OCR settings. An unset engine is fine: the
// pipeline then runs with the local fallback only.
func (rc *RemoteOCRConfig) Validate() error {
	if rc.Engine == "" {
		return nil
	}

	engine := remoteocr.Engine(rc.Engine)
	if !engine.Known() {
		return fmt.Errorf("remote_ocr engine must be one of: %s, %s, %s",
			remoteocr.EngineGenericREST, remoteocr.EngineVisionDocIntel, remoteocr.EngineBridgeOCR)
	}

	if rc.Timeout < time.Second {
		return fmt.Errorf("remote_ocr timeout must be at least 1s")
	}
	if rc.RetryCount < 0 {
		return fmt.Errorf("remote_ocr retry_count must not be negative")
	}

	switch engine {
	case remoteocr.EngineGenericREST:
		if rc.Endpoint == "" {
			return fmt.Errorf("remote_ocr engine %s is selected but no endpoint is configured", rc.Engine)
		}
		if rc.APIKey == "" && rc.AuthToken == "" {
			log.Warn().Msg("Remote OCR backend is configured without authentication")
		}
	case remoteocr.EngineVisionDocIntel, remoteocr.EngineBridgeOCR:
		if rc.Endpoint == "" || rc.APIKey == "" {
			return fmt.Errorf("remote_ocr engine %s requires endpoint and api_key to be configured", rc.Engine)
		}
	}

	if !rc.VerifyTLS {
		log.Warn().Msg("TLS verification is disabled for the remote OCR endpoint")
	}

	return nil
}

// EngineConfig converts the settings into the gateway's resolved per-call
// configuration value.
func (rc *RemoteOCRConfig) EngineConfig() remoteocr.EngineConfig {
	return remoteocr.EngineConfig{
		Engine:        remoteocr.Engine(rc.Engine),
		Endpoint:      rc.Endpoint,
		APIKey:        rc.APIKey,
		AuthToken:     rc.AuthToken,
		AuthMethod:    rc.AuthMethod,
		Timeout:       rc.Timeout,
		RetryCount:    rc.RetryCount,
		VerifyTLS:     rc.VerifyTLS,
		Language:      rc.Language,
		CustomHeaders: rc.CustomHeaders,
	}
}
