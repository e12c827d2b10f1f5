package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
	DriverInMemory = "inmemory"
)

const envPrefix = "TASKBOARD"

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Worker   WorkerConfig   `mapstructure:"worker"`
	CORS     CORSConfig     `mapstructure:"cors"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            string        `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Driver         string        `mapstructure:"driver"` // mongo, postgres или inmemory
	URI            string        `mapstructure:"uri"`
	Name           string        `mapstructure:"name"`
	MaxConnections int           `mapstructure:"max_connections"`
	MinConnections int           `mapstructure:"min_connections"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	SlowQuery      time.Duration `mapstructure:"slow_query"`
}

type AuthConfig struct {
	Secret       string        `mapstructure:"secret"`
	TokenTTL     time.Duration `mapstructure:"token_ttl"`
	Issuer       string        `mapstructure:"issuer"`
	CookieName   string        `mapstructure:"cookie_name"`
	SecureCookie bool          `mapstructure:"secure_cookie"`
}

type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

type WorkerConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	Interval  time.Duration `mapstructure:"interval"`
	BatchSize int           `mapstructure:"batch_size"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.request_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("database.driver", DriverMongo)
	v.SetDefault("database.name", "taskboard")
	v.SetDefault("database.max_connections", 10)
	v.SetDefault("database.min_connections", 2)
	v.SetDefault("database.idle_timeout", 5*time.Minute)
	v.SetDefault("database.connect_timeout", 10*time.Second)
	v.SetDefault("database.slow_query", 100*time.Millisecond)

	v.SetDefault("auth.token_ttl", 30*24*time.Hour)
	v.SetDefault("auth.issuer", "taskboard")
	v.SetDefault("auth.cookie_name", "session-token")
	v.SetDefault("auth.secure_cookie", false)

	v.SetDefault("logging.development", false)

	v.SetDefault("worker.enabled", false)
	v.SetDefault("worker.interval", 5*time.Minute)
	v.SetDefault("worker.batch_size", 100)

	v.SetDefault("cors.allowed_origins", []string{})
}

// Load читает конфиг из yaml-файла (если он есть) и переменных окружения.
// Пустой path означает config.yml в рабочей директории, его отсутствие не ошибка.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// имена переменных из исходного next.js-приложения
	if err := v.BindEnv("auth.secret", envPrefix+"_AUTH_SECRET", "NEXTAUTH_SECRET"); err != nil {
		return nil, fmt.Errorf("привязка переменной окружения: %w", err)
	}
	if err := v.BindEnv("database.uri", envPrefix+"_DATABASE_URI", "MONGODB_URI"); err != nil {
		return nil, fmt.Errorf("привязка переменной окружения: %w", err)
	}

	explicit := path != ""
	if !explicit {
		path = os.Getenv(envPrefix + "_CONFIG")
		explicit = path != ""
	}
	if !explicit {
		path = "config.yml"
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		switch {
		case explicit:
			return nil, fmt.Errorf("не могу прочитать %s: %w", path, err)
		case errors.As(err, &notFound), errors.Is(err, os.ErrNotExist):
			// работаем только на окружении и значениях по умолчанию
		default:
			return nil, fmt.Errorf("ошибка парсинга %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("разбор конфига: %w", err)
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Auth.Secret == "" {
		return errors.New("auth.secret должен быть задан")
	}
	if c.Auth.TokenTTL <= 0 {
		return errors.New("auth.token_ttl должен быть положительным")
	}

	switch c.Database.Driver {
	case DriverMongo, DriverPostgres:
		if c.Database.URI == "" {
			return fmt.Errorf("database.uri обязателен для драйвера %s", c.Database.Driver)
		}
	case DriverInMemory:
	default:
		return fmt.Errorf("неизвестный драйвер базы данных: %q", c.Database.Driver)
	}

	return nil
}

func (c *Config) GetServerAddr() string {
	return net.JoinHostPort(c.Server.Host, c.Server.Port)
}
