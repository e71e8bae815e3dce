package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Environment string `mapstructure:"ENVIRONMENT"`
	ServerPort  int    `mapstructure:"SERVER_PORT"`
	LogLevel    string `mapstructure:"LOG_LEVEL"`

	DatabaseDbPath       string `mapstructure:"DATABASE_DB_PATH"`
	DatabaseURL          string `mapstructure:"DATABASE_URL"`
	DatabaseCacheAddress string `mapstructure:"DATABASE_CACHE_ADDRESS"`
	DatabaseCachePort    int    `mapstructure:"DATABASE_CACHE_PORT"`

	SessionTTL        time.Duration `mapstructure:"SESSION_TTL"`
	SessionCookieName string        `mapstructure:"SESSION_COOKIE_NAME"`
	SecureCookies     bool          `mapstructure:"SECURE_COOKIES"`

	DocumentToolPath     string        `mapstructure:"DOCUMENT_TOOL_PATH"`
	DocumentToolArgs     string        `mapstructure:"DOCUMENT_TOOL_ARGS"`
	DocumentMode         string        `mapstructure:"DOCUMENT_MODE"`
	DocumentTemplatePath string        `mapstructure:"DOCUMENT_TEMPLATE_PATH"`
	DocumentOutputDir    string        `mapstructure:"DOCUMENT_OUTPUT_DIR"`
	DocumentTempDir      string        `mapstructure:"DOCUMENT_TEMP_DIR"`
	DocumentTimeout      time.Duration `mapstructure:"DOCUMENT_TIMEOUT"`

	SupportEmail  string `mapstructure:"SUPPORT_EMAIL"`
	AdminUsername string `mapstructure:"ADMIN_USERNAME"`
	AdminPassword string `mapstructure:"ADMIN_PASSWORD"`
}

var defaults = map[string]any{
	"ENVIRONMENT":            "development",
	"SERVER_PORT":            5003,
	"LOG_LEVEL":              "info",
	"DATABASE_DB_PATH":       "data/form_data.db",
	"DATABASE_URL":           "",
	"DATABASE_CACHE_ADDRESS": "localhost",
	"DATABASE_CACHE_PORT":    6379,
	"SESSION_TTL":            "24h",
	"SESSION_COOKIE_NAME":    "form95_session",
	"SECURE_COOKIES":         false,
	"DOCUMENT_TOOL_PATH":     "pdfcpu",
	"DOCUMENT_TOOL_ARGS":     "form fill",
	"DOCUMENT_MODE":          "xfa",
	"DOCUMENT_TEMPLATE_PATH": "data/sf95.pdf",
	"DOCUMENT_OUTPUT_DIR":    "data/filled_forms",
	"DOCUMENT_TEMP_DIR":      "",
	"DOCUMENT_TIMEOUT":       "30s",
	"SUPPORT_EMAIL":          "support@example.com",
	"ADMIN_USERNAME":         "admin",
	"ADMIN_PASSWORD":         "",
}

// InitConfig loads .env from the working directory when present;
// environment variables always win.
func InitConfig() (Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if _, err := os.Stat(".env"); err == nil {
		v.SetConfigFile(".env")
		v.SetConfigType("env")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}

	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return Config{}, err
	}

	config.Environment = strings.ToLower(strings.TrimSpace(config.Environment))

	if err := config.Validate(); err != nil {
		return Config{}, err
	}

	return config, nil
}

func (c Config) Validate() error {
	if c.DatabaseDbPath == "" && c.DatabaseURL == "" {
		return errors.New("DATABASE_DB_PATH or DATABASE_URL is required")
	}
	if c.ServerPort <= 0 {
		return errors.New("SERVER_PORT must be positive")
	}
	if c.DocumentToolPath == "" {
		return errors.New("DOCUMENT_TOOL_PATH is required")
	}
	if c.DocumentTimeout <= 0 {
		return errors.New("DOCUMENT_TIMEOUT must be positive")
	}
	if c.SessionTTL <= 0 {
		return errors.New("SESSION_TTL must be positive")
	}
	return nil
}

func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

// DocumentToolArguments splits DocumentToolArgs into the subcommand words
// placed before the --mode flag.
func (c Config) DocumentToolArguments() []string {
	return strings.Fields(c.DocumentToolArgs)
}
