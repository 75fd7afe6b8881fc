// Package config handles application configuration management.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Audio    AudioConfig
	TTS      TTSConfig
	// LogLevel controls logging verbosity ("info" or "debug")
	LogLevel    string
	Environment string
}

// ServerConfig holds HTTP server and CORS configuration.
type ServerConfig struct {
	Address string
	// AllowedOrigins is a comma-separated list of allowed origins for CORS
	AllowedOrigins string
}

// DatabaseConfig holds MySQL database connection parameters.
type DatabaseConfig struct {
	Host           string
	Port           int
	User           string
	Password       string
	Database       string
	MigrationsPath string
}

// AuthConfig holds authentication and session configuration.
type AuthConfig struct {
	// Method specifies authentication type: "local", "oidc", or "both"
	Method AuthMethod

	// SessionSecret must be changed from default in production
	SessionSecret string

	// Cookie configuration
	CookieDomain   string
	CookieSameSite string

	// OIDC configuration
	OIDCProviderURL  string
	OIDCClientID     string
	OIDCClientSecret string
	OIDCRedirectURL  string
}

// AudioConfig holds audio processing and media storage configuration.
type AudioConfig struct {
	FFmpegPath string
	// MediaPath is the root under which line recordings, dialogue audio
	// and simulation audio are stored
	MediaPath string
	TempPath  string
	AppRoot   string
}

// TTSConfig holds the speech synthesis backend configuration.
type TTSConfig struct {
	// ServiceURL is the HTTP endpoint of the synthesis backend.
	// Synthesis is disabled when empty.
	ServiceURL string
	APIKey     string
	// DefaultLanguage is the language code used when a simulation
	// does not specify one
	DefaultLanguage string
	RequestTimeout  time.Duration
}

// Load reads configuration from environment variables and creates required directories.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Address:        getEnv("PARLONS_SERVER_ADDRESS", ":8080"),
			AllowedOrigins: getEnv("PARLONS_ALLOWED_ORIGINS", ""),
		},
		Database: DatabaseConfig{
			Host:           getEnv("PARLONS_DB_HOST", "localhost"),
			Port:           3306,
			User:           getEnv("PARLONS_DB_USER", "parlons"),
			Password:       getEnv("PARLONS_DB_PASSWORD", "parlons"),
			Database:       getEnv("PARLONS_DB_NAME", "parlons"),
			MigrationsPath: "migrations",
		},
		Auth: AuthConfig{
			Method:           AuthMethod(getEnv("PARLONS_AUTH_METHOD", "local")),
			SessionSecret:    getEnv("PARLONS_SESSION_SECRET", "your-secret-key-change-in-production"),
			CookieDomain:     getEnv("PARLONS_COOKIE_DOMAIN", ""),
			CookieSameSite:   getEnv("PARLONS_COOKIE_SAMESITE", "lax"),
			OIDCProviderURL:  getEnv("PARLONS_OIDC_PROVIDER_URL", ""),
			OIDCClientID:     getEnv("PARLONS_OIDC_CLIENT_ID", ""),
			OIDCClientSecret: getEnv("PARLONS_OIDC_CLIENT_SECRET", ""),
			OIDCRedirectURL:  getEnv("PARLONS_OIDC_REDIRECT_URL", "http://localhost:8080/api/v1/auth/callback"),
		},
		Audio: AudioConfig{
			FFmpegPath: getEnv("PARLONS_FFMPEG_PATH", "ffmpeg"),
			MediaPath:  getEnv("PARLONS_MEDIA_PATH", "./media"),
			TempPath:   getEnv("PARLONS_TEMP_PATH", "./media/temp"),
			AppRoot:    getEnv("PARLONS_APP_ROOT", "/app"),
		},
		TTS: TTSConfig{
			ServiceURL:      getEnv("PARLONS_TTS_URL", ""),
			APIKey:          getEnv("PARLONS_TTS_API_KEY", ""),
			DefaultLanguage: getEnv("PARLONS_TTS_LANGUAGE", "fr"),
			RequestTimeout:  30 * time.Second,
		},
		LogLevel:    getEnv("PARLONS_LOG_LEVEL", "info"),
		Environment: getEnv("PARLONS_ENV", "development"),
	}

	// Create directories if they don't exist
	dirs := []string{
		filepath.Join(cfg.Audio.MediaPath, "simulations", "lines"),
		filepath.Join(cfg.Audio.MediaPath, "simulations", "final"),
		filepath.Join(cfg.Audio.MediaPath, "dialogues", "complete"),
		filepath.Join(cfg.Audio.MediaPath, "dialogues", "recordings"),
		cfg.Audio.TempPath,
	}

	for _, dir := range dirs {
		// #nosec G301 - 0755 is appropriate for media directories that need to be readable by the web server
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return cfg, nil
}

// getEnv returns the value of the environment variable key, or defaultValue if unset.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
