package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Env  string `mapstructure:"env"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// DatabaseConfig configures the primary store. An empty URL means the
// primary is not configured and every operation goes to the fallback.
type DatabaseConfig struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type FallbackConfig struct {
	Dir  string `mapstructure:"dir"`
	File string `mapstructure:"file"`
}

// Path is the location of the fallback record file.
func (c FallbackConfig) Path() string {
	return filepath.Join(c.Dir, c.File)
}

type AdminConfig struct {
	Key string `mapstructure:"key"`
}

type RateLimitConfig struct {
	PerMinute int `mapstructure:"per_minute"`
}

// EmailConfig holds SMTP settings for submission notifications.
type EmailConfig struct {
	Host       string        `mapstructure:"host"`
	Port       int           `mapstructure:"port"`
	User       string        `mapstructure:"user"`
	Password   string        `mapstructure:"password"`
	From       string        `mapstructure:"from"`
	AdminEmail string        `mapstructure:"admin"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// Enabled reports whether credentials are present. Without them
// notifications are disabled rather than failing.
func (c EmailConfig) Enabled() bool {
	return c.Host != "" && c.User != "" && c.Password != ""
}

// Sender returns the From address, falling back to the SMTP user.
func (c EmailConfig) Sender() string {
	if c.From != "" {
		return c.From
	}
	return c.User
}

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Fallback  FallbackConfig  `mapstructure:"fallback"`
	Admin     AdminConfig     `mapstructure:"admin"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Email     EmailConfig     `mapstructure:"email"`
}

// Load builds the configuration from the process environment.
// Nested keys map to upper-case underscore names (database.url -> DATABASE_URL);
// a few keys keep the names the deployment already uses.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.port", "3000")
	v.SetDefault("server.env", "development")
	v.SetDefault("log.level", "INFO")
	v.SetDefault("database.url", "")
	v.SetDefault("database.timeout", 5*time.Second)
	v.SetDefault("fallback.dir", "./data")
	v.SetDefault("fallback.file", "audit-requests.json")
	v.SetDefault("admin.key", "")
	v.SetDefault("rate_limit.per_minute", 10)
	v.SetDefault("email.host", "")
	v.SetDefault("email.port", 587)
	v.SetDefault("email.user", "")
	v.SetDefault("email.password", "")
	v.SetDefault("email.from", "")
	v.SetDefault("email.admin", "")
	v.SetDefault("email.timeout", 30*time.Second)

	aliases := map[string]string{
		"server.port":      "PORT",
		"server.env":       "APP_ENV",
		"database.timeout": "PRIMARY_TIMEOUT",
		"email.admin":      "ADMIN_EMAIL",
		"email.timeout":    "NOTIFY_TIMEOUT",
	}
	for key, env := range aliases {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", env, err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) validate() error {
	if c.Database.Timeout <= 0 {
		return fmt.Errorf("config: PRIMARY_TIMEOUT must be positive, got %s", c.Database.Timeout)
	}
	if c.Email.Timeout <= 0 {
		return fmt.Errorf("config: NOTIFY_TIMEOUT must be positive, got %s", c.Email.Timeout)
	}
	if c.RateLimit.PerMinute <= 0 {
		return fmt.Errorf("config: RATE_LIMIT_PER_MINUTE must be positive, got %d", c.RateLimit.PerMinute)
	}
	if c.Fallback.Dir == "" || c.Fallback.File == "" {
		return fmt.Errorf("config: fallback location is empty")
	}
	return nil
}
