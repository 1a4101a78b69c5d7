package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Config struct is the top-level configuration structure.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Inference InferenceConfig `mapstructure:"inference"`
	Analytics AnalyticsConfig `mapstructure:"analytics"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Events    EventsConfig    `mapstructure:"events"`
	Sessions  SessionsConfig  `mapstructure:"sessions"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

// ServerConfig holds server-related settings.
type ServerConfig struct {
	Port              string   `mapstructure:"port"`
	SessionSecret     string   `mapstructure:"session_secret"`
	SecureCookies     bool     `mapstructure:"secure_cookies"`
	AllowedOrigins    []string `mapstructure:"allowed_origins"`
	QuestionnaireFile string   `mapstructure:"questionnaire_file"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Host          string        `mapstructure:"host"`
	Port          string        `mapstructure:"port"`
	User          string        `mapstructure:"user"`
	Password      string        `mapstructure:"password"`
	DBName        string        `mapstructure:"dbname"`
	SSLMode       string        `mapstructure:"sslmode"`
	SlowThreshold time.Duration `mapstructure:"slow_threshold"`
}

// DSN renders the postgres connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		d.Host, d.User, d.Password, d.DBName, d.Port, d.SSLMode)
}

// LoggingConfig holds settings for the logger.
type LoggingConfig struct {
	Directory  string `mapstructure:"directory"`
	Level      string `mapstructure:"level"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

// InferenceConfig points at the model services and the chat assistant.
type InferenceConfig struct {
	TabularURL        string        `mapstructure:"tabular_url"`
	SignalURL         string        `mapstructure:"signal_url"`
	ChatURL           string        `mapstructure:"chat_url"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	Burst             int           `mapstructure:"burst"`
}

// AnalyticsConfig holds the dashboard constants. AccuracyRate and ImpactMultiplier
// are approximations, not measurements; both can be changed without a restart.
type AnalyticsConfig struct {
	AccuracyRate     float64 `mapstructure:"accuracy_rate"`
	ImpactMultiplier float64 `mapstructure:"impact_multiplier"`
	RecentLimit      int     `mapstructure:"recent_limit"`
	TimeZone         string  `mapstructure:"time_zone"`

	// ActiveWindow is how far back a prediction counts a user as active.
	ActiveWindow time.Duration `mapstructure:"active_window"`
}

// Location resolves TimeZone, falling back to UTC.
func (a AnalyticsConfig) Location() *time.Location {
	if a.TimeZone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(a.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// AuthConfig configures verification of identity provider tokens.
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
	JWTIssuer string `mapstructure:"jwt_issuer"`
}

// EventsConfig configures the optional prediction event stream.
type EventsConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

// SessionsConfig controls eviction of idle wizard and ECG sessions.
type SessionsConfig struct {
	IdleTTL       time.Duration `mapstructure:"idle_ttl"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

// RateLimitConfig limits submissions per client IP.
type RateLimitConfig struct {
	SubmitPerMinute uint `mapstructure:"submit_per_minute"`
	ChatPerMinute   uint `mapstructure:"chat_per_minute"`
}

var (
	v         *viper.Viper
	mu        sync.RWMutex
	conf      *Config
	listeners []func(*Config)
)

// setDefaults sets the default values for the configuration.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "5050")
	v.SetDefault("server.session_secret", "change-me-in-production")
	v.SetDefault("server.secure_cookies", false)
	v.SetDefault("server.allowed_origins", []string{"http://localhost:5173"})
	v.SetDefault("server.questionnaire_file", "config/questionnaire.yaml")

	// Database defaults
	v.SetDefault("database.host", "db")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "user")
	v.SetDefault("database.password", "password")
	v.SetDefault("database.dbname", "heartfailure")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.slow_threshold", 200*time.Millisecond)

	// Logging defaults
	v.SetDefault("logging.directory", "logs")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.max_size", 10)   // 10 MB
	v.SetDefault("logging.max_backups", 3) // Keep 3 backups
	v.SetDefault("logging.max_age", 7)     // 7 days
	v.SetDefault("logging.compress", true) // Compress old logs

	// Inference defaults
	v.SetDefault("inference.tabular_url", "http://127.0.0.1:49232")
	v.SetDefault("inference.signal_url", "http://127.0.0.1:49232")
	v.SetDefault("inference.chat_url", "http://127.0.0.1:49232")
	v.SetDefault("inference.timeout", 30*time.Second)
	v.SetDefault("inference.requests_per_second", 5.0)
	v.SetDefault("inference.burst", 10)

	// Analytics defaults
	v.SetDefault("analytics.accuracy_rate", 95.2)
	v.SetDefault("analytics.impact_multiplier", 1.2)
	v.SetDefault("analytics.recent_limit", 5)
	v.SetDefault("analytics.time_zone", "UTC")
	v.SetDefault("analytics.active_window", 30*24*time.Hour)

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.jwt_issuer", "")

	v.SetDefault("events.enabled", false)
	v.SetDefault("events.brokers", []string{"localhost:9092"})
	v.SetDefault("events.topic", "predictions")

	v.SetDefault("sessions.idle_ttl", 30*time.Minute)
	v.SetDefault("sessions.sweep_interval", time.Minute)

	v.SetDefault("rate_limit.submit_per_minute", 10)
	v.SetDefault("rate_limit.chat_per_minute", 20)
}

// Init reads config/config.yaml under projectRoot, environment overrides and defaults.
func Init(projectRoot string) (*Config, error) {
	nv := viper.New()

	// Set default values
	setDefaults(nv)

	// --- File Configuration ---
	nv.AddConfigPath(filepath.Join(projectRoot, "config"))
	nv.SetConfigName("config")
	nv.SetConfigType("yaml")

	// --- Environment Variable Binding ---
	nv.SetEnvPrefix("HFRISK") // e.g., HFRISK_SERVER_PORT
	nv.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	nv.AutomaticEnv()

	// It's okay if the file doesn't exist; defaults and env vars will be used.
	if err := nv.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var c Config
	if err := nv.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	mu.Lock()
	v = nv
	conf = &c
	listeners = nil
	mu.Unlock()
	return &c, nil
}

// Current returns the most recently loaded configuration.
func Current() *Config {
	mu.RLock()
	defer mu.RUnlock()
	return conf
}

// OnChange registers fn to run with the new configuration after every hot reload.
func OnChange(fn func(*Config)) {
	mu.Lock()
	listeners = append(listeners, fn)
	mu.Unlock()
}

// Watch enables hot reloading of the config file.
func Watch(log *zap.Logger) {
	mu.RLock()
	nv := v
	mu.RUnlock()
	if nv == nil {
		return
	}

	nv.OnConfigChange(func(e fsnotify.Event) {
		log.Info("Configuration file changed, reloading.", zap.String("file", e.Name))
		reload(nv, log)
	})
	nv.WatchConfig()
}

func reload(nv *viper.Viper, log *zap.Logger) {
	var c Config
	if err := nv.Unmarshal(&c); err != nil {
		log.Error("Error reloading configuration", zap.Error(err))
		return
	}

	mu.Lock()
	conf = &c
	fns := append([]func(*Config){}, listeners...)
	mu.Unlock()

	for _, fn := range fns {
		fn(&c)
	}
}
