package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Config holds every setting the server reads at startup.
// Values come from, in increasing priority: struct defaults, the optional
// YAML file named by CONFIG_FILE, and environment variables (.env included).
type Config struct {
	Port           string        `yaml:"port" env:"PORT"`
	MongoURI       string        `yaml:"mongodb_uri" env:"MONGODB_URI"`
	MongoDB        string        `yaml:"mongodb_db" env:"MONGODB_DB"`
	RedisAddr      string        `yaml:"redis_addr" env:"REDIS_ADDR"`
	RedisDB        int           `yaml:"redis_db" env:"REDIS_DB"`
	JWTSecret      string        `yaml:"jwt_secret" env:"JWT_SECRET"`
	SessionTTL     time.Duration `yaml:"session_ttl" env:"SESSION_TTL"`
	CookieSecure   bool          `yaml:"cookie_secure" env:"COOKIE_SECURE"`
	AllowedOrigins []string      `yaml:"allowed_origins" env:"ALLOWED_ORIGINS" envSeparator:","`
	AdminUsernames []string      `yaml:"admin_usernames" env:"ADMIN_USERNAMES" envSeparator:","`
	LogLevel       string        `yaml:"log_level" env:"LOG_LEVEL"`
	LogFormat      string        `yaml:"log_format" env:"LOG_FORMAT"`
	LoginRateLimit float64       `yaml:"login_rate_limit" env:"LOGIN_RATE_LIMIT"`
	LoginRateBurst int           `yaml:"login_rate_burst" env:"LOGIN_RATE_BURST"`
}

var ErrMissingJWTSecret = errors.New("JWT_SECRET environment variable is not set")

// Default returns the configuration used for local development.
func Default() Config {
	return Config{
		Port:           "8080",
		MongoURI:       "mongodb://localhost:27017",
		MongoDB:        "social_db",
		RedisAddr:      "localhost:6379",
		RedisDB:        0,
		SessionTTL:     24 * time.Hour,
		AllowedOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
		LogLevel:       "info",
		LogFormat:      "text",
		LoginRateLimit: 1,
		LoginRateBurst: 5,
	}
}

// Load builds the configuration. A missing .env file is not an error.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logrus.Debug("No .env file found, using process environment")
	}

	cfg := Default()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return nil, err
		}
	}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return ErrMissingJWTSecret
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("invalid SESSION_TTL %s", c.SessionTTL)
	}
	if c.LoginRateLimit <= 0 || c.LoginRateBurst <= 0 {
		return fmt.Errorf("login rate limit and burst must be positive")
	}
	return nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Port
}

// NewLogger configures a logrus logger from LOG_LEVEL and LOG_FORMAT.
func (c *Config) NewLogger() *logrus.Logger {
	logger := logrus.New()
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	if c.LogFormat == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger
}
