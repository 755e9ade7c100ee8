package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the application configuration loaded from files and environment variables.
type Config struct {
	AppName  string `mapstructure:"app_name"`
	Env      string `mapstructure:"app_env"`
	LogLevel string `mapstructure:"log_level"`

	APIBaseURL        string        `mapstructure:"api_base_url"`
	APITimeoutSeconds int64         `mapstructure:"api_timeout_seconds"`
	APITimeout        time.Duration `mapstructure:"-"`
	Locale            string        `mapstructure:"api_locale"`
	MessagesFile      string        `mapstructure:"api_messages_file"`

	CookieStoreType       string        `mapstructure:"cookie_store_type"`
	CookieStorePath       string        `mapstructure:"cookie_store_path"`
	CookieSessionTTLSecs  int64         `mapstructure:"cookie_session_ttl_seconds"`
	CookieCleanupSecs     int64         `mapstructure:"cookie_cleanup_interval_seconds"`
	CookieSessionTTL      time.Duration `mapstructure:"-"`
	CookieCleanupInterval time.Duration `mapstructure:"-"`

	ReportersFile        string        `mapstructure:"reporters_file"`
	ReportTimeoutSeconds int64         `mapstructure:"report_timeout_seconds"`
	ReportTimeout        time.Duration `mapstructure:"-"`
}

// Load reads configuration from environment variables and config files.
func Load() (*Config, error) {
	_ = godotenv.Load("configs/.env")

	v := viper.New()

	v.SetDefault("app_name", "samvad-api-client")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("api_base_url", "") // relative paths when empty
	v.SetDefault("api_timeout_seconds", 0)
	v.SetDefault("api_locale", "zh")
	v.SetDefault("api_messages_file", "")
	v.SetDefault("cookie_store_type", "bbolt")
	v.SetDefault("cookie_store_path", "./data/cookies.db")
	v.SetDefault("cookie_session_ttl_seconds", int64((24*time.Hour)/time.Second))
	v.SetDefault("cookie_cleanup_interval_seconds", int64((12*time.Hour)/time.Second))
	v.SetDefault("reporters_file", "")
	v.SetDefault("report_timeout_seconds", 5)

	v.AutomaticEnv()
	// the frontend build used a VITE_ prefixed variable for the same setting
	if err := v.BindEnv("api_base_url", "API_BASE_URL", "VITE_API_BASE_URL"); err != nil {
		return nil, fmt.Errorf("bind api_base_url: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.APIBaseURL = strings.TrimSpace(cfg.APIBaseURL)
	cfg.Locale = strings.ToLower(strings.TrimSpace(cfg.Locale))

	if cfg.APITimeoutSeconds < 0 {
		return nil, fmt.Errorf("invalid api_timeout_seconds (must be zero or positive seconds)")
	}
	cfg.APITimeout = time.Duration(cfg.APITimeoutSeconds) * time.Second

	if cfg.CookieSessionTTLSecs <= 0 {
		return nil, fmt.Errorf("invalid cookie_session_ttl_seconds (must be positive seconds)")
	}
	if cfg.CookieCleanupSecs <= 0 {
		return nil, fmt.Errorf("invalid cookie_cleanup_interval_seconds (must be positive seconds)")
	}
	cfg.CookieSessionTTL = time.Duration(cfg.CookieSessionTTLSecs) * time.Second
	cfg.CookieCleanupInterval = time.Duration(cfg.CookieCleanupSecs) * time.Second

	if cfg.ReportTimeoutSeconds <= 0 {
		return nil, fmt.Errorf("invalid report_timeout_seconds (must be positive seconds)")
	}
	cfg.ReportTimeout = time.Duration(cfg.ReportTimeoutSeconds) * time.Second

	return &cfg, nil
}
