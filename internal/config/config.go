/**
 * @description
 * This file handles the configuration management for the verification service.
 * It uses the Viper library to read settings from environment variables or a .env file.
 *
 * @dependencies
 * - github.com/spf13/viper: For configuration management.
 */
package config

import (
	"log"
	"strings"

	"github.com/spf13/viper"
)

// Config stores all configuration for the application.
type Config struct {
	DatabaseURL        string `mapstructure:"DATABASE_URL"`
	RabbitMQURL        string `mapstructure:"RABBITMQ_URL"`
	PlatformAPIBaseURL string `mapstructure:"PLATFORM_API_BASE_URL"`
	PlatformAPIKey     string `mapstructure:"PLATFORM_API_KEY"`
	StorageAPIBaseURL  string `mapstructure:"STORAGE_API_BASE_URL"`
	StorageAPIKey      string `mapstructure:"STORAGE_API_KEY"`
	AuthJWTSecret      string `mapstructure:"AUTH_JWT_SECRET"`
	ServerPort         string `mapstructure:"SERVER_PORT"`
	SessionTTLMinutes  int    `mapstructure:"SESSION_TTL_MINUTES"`
	MaxUploadSizeMB    int64  `mapstructure:"MAX_UPLOAD_SIZE_MB"`
	AllowedOrigins     []string
	RawAllowedOrigins  string `mapstructure:"ALLOWED_ORIGINS"`
}

// MaxUploadSizeBytes converts the configured upload ceiling to bytes.
func (c *Config) MaxUploadSizeBytes() int64 {
	return c.MaxUploadSizeMB << 20
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig() (*Config, error) {
	viper.AddConfigPath(".")
	viper.SetConfigName(".env")
	viper.SetConfigType("env")

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set default values
	viper.SetDefault("SERVER_PORT", "8086")
	viper.SetDefault("SESSION_TTL_MINUTES", 30)
	viper.SetDefault("MAX_UPLOAD_SIZE_MB", 10)
	viper.SetDefault("ALLOWED_ORIGINS", "*")

	// Bind envs explicitly so containers pick them up reliably
	_ = viper.BindEnv("DATABASE_URL")
	_ = viper.BindEnv("RABBITMQ_URL")
	_ = viper.BindEnv("PLATFORM_API_BASE_URL")
	_ = viper.BindEnv("PLATFORM_API_KEY")
	_ = viper.BindEnv("STORAGE_API_BASE_URL")
	_ = viper.BindEnv("STORAGE_API_KEY")
	_ = viper.BindEnv("AUTH_JWT_SECRET")
	_ = viper.BindEnv("SERVER_PORT")
	_ = viper.BindEnv("SESSION_TTL_MINUTES")
	_ = viper.BindEnv("MAX_UPLOAD_SIZE_MB")
	_ = viper.BindEnv("ALLOWED_ORIGINS")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Printf("Warning: Error reading config file: %s", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	config.AllowedOrigins = splitOrigins(config.RawAllowedOrigins)
	return &config, nil
}

func splitOrigins(raw string) []string {
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return origins
}
