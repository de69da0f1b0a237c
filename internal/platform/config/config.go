package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"pawpal/internal/platform/logger"
)

const EnvPrefix = "PAWPAL"

type Config struct {
	App  AppConfig
	HTTP HTTPConfig
	Log  LogConfig
	DB   DBConfig
	Plan PlanConfig
	Auth AuthConfig
}

type AppConfig struct {
	Name string
}

type HTTPConfig struct {
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

func (c HTTPConfig) Addr() string { return fmt.Sprintf(":%d", c.Port) }

type LogConfig struct {
	Level  string
	Format string
}

type DBConfig struct {
	DSN string // vacío = in-memory

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxIdleTime time.Duration
	ConnMaxLifetime time.Duration
	PingTimeout     time.Duration
}

type PlanConfig struct {
	CacheSize int
}

// AuthConfig: sin IntrospectURL el API corre en modo dev (header X-Debug-User-ID).
type AuthConfig struct {
	IntrospectURL string
	APIKey        string
	APIKeyHeader  string
	Timeout       time.Duration
	CacheTTL      time.Duration
}

func (c AuthConfig) Enabled() bool { return strings.TrimSpace(c.IntrospectURL) != "" }

func (c Config) LoggerOptions() logger.Options {
	return logger.Options{
		Level:  logger.ParseLevel(c.Log.Level),
		Format: logger.ParseFormat(c.Log.Format),
		App:    c.App.Name,
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "pawpal")
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.read_timeout", 5*time.Second)
	v.SetDefault("http.write_timeout", 10*time.Second)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("db.dsn", "")
	v.SetDefault("db.max_open_conns", 10)
	v.SetDefault("db.max_idle_conns", 5)
	v.SetDefault("db.conn_max_idle_time", 5*time.Minute)
	v.SetDefault("db.conn_max_lifetime", 30*time.Minute)
	v.SetDefault("db.ping_timeout", 3*time.Second)
	v.SetDefault("plan.cache_size", 256)
	v.SetDefault("auth.introspect_url", "")
	v.SetDefault("auth.api_key", "")
	v.SetDefault("auth.api_key_header", "X-Api-Key")
	v.SetDefault("auth.timeout", 5*time.Second)
	v.SetDefault("auth.cache_ttl", time.Minute)
}

// Load lee config.yaml (./config, ., /etc/pawpal/) o el archivo explícito en path,
// y encima las variables PAWPAL_* (PAWPAL_HTTP_PORT, PAWPAL_DB_DSN, ...).
// PORT y DB_DSN sin prefijo se siguen respetando.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	if strings.TrimSpace(path) != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/pawpal/")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	if port := os.Getenv("PORT"); port != "" && !explicit(v, "http.port") {
		v.Set("http.port", port)
	}
	if dsn := os.Getenv("DB_DSN"); dsn != "" && v.GetString("db.dsn") == "" {
		v.Set("db.dsn", dsn)
	}

	cfg := Config{
		App: AppConfig{Name: v.GetString("app.name")},
		HTTP: HTTPConfig{
			Port:         v.GetInt("http.port"),
			ReadTimeout:  v.GetDuration("http.read_timeout"),
			WriteTimeout: v.GetDuration("http.write_timeout"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
		DB: DBConfig{
			DSN:             v.GetString("db.dsn"),
			MaxOpenConns:    v.GetInt("db.max_open_conns"),
			MaxIdleConns:    v.GetInt("db.max_idle_conns"),
			ConnMaxIdleTime: v.GetDuration("db.conn_max_idle_time"),
			ConnMaxLifetime: v.GetDuration("db.conn_max_lifetime"),
			PingTimeout:     v.GetDuration("db.ping_timeout"),
		},
		Plan: PlanConfig{CacheSize: v.GetInt("plan.cache_size")},
		Auth: AuthConfig{
			IntrospectURL: v.GetString("auth.introspect_url"),
			APIKey:        v.GetString("auth.api_key"),
			APIKeyHeader:  v.GetString("auth.api_key_header"),
			Timeout:       v.GetDuration("auth.timeout"),
			CacheTTL:      v.GetDuration("auth.cache_ttl"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// explicit: la clave viene del archivo o de PAWPAL_*, no del default.
func explicit(v *viper.Viper, key string) bool {
	env := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
	return v.InConfig(key) || os.Getenv(env) != ""
}

func (c Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port out of range: %d", c.HTTP.Port)
	}
	if c.HTTP.ReadTimeout <= 0 || c.HTTP.WriteTimeout <= 0 {
		return errors.New("http timeouts must be positive")
	}
	if c.Plan.CacheSize <= 0 {
		return fmt.Errorf("plan.cache_size must be positive: %d", c.Plan.CacheSize)
	}
	if c.DB.MaxOpenConns <= 0 || c.DB.MaxIdleConns < 0 || c.DB.MaxIdleConns > c.DB.MaxOpenConns {
		return fmt.Errorf("db pool: need 0 <= max_idle_conns (%d) <= max_open_conns (%d)", c.DB.MaxIdleConns, c.DB.MaxOpenConns)
	}
	if c.DB.PingTimeout <= 0 {
		return errors.New("db.ping_timeout must be positive")
	}
	if c.Auth.Enabled() && strings.TrimSpace(c.Auth.APIKey) == "" {
		return errors.New("auth.api_key required when auth.introspect_url is set")
	}
	return nil
}
