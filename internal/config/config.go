package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Supported database drivers
const (
	DriverPostgres     = "postgres"
	DriverGormPostgres = "gorm-postgres"
	DriverSQLite       = "sqlite"
)

// Supported client transports
const (
	TransportRPC  = "rpc"
	TransportHTTP = "http"
)

// Config holds all configuration for the order system
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	RabbitMQ RabbitMQConfig `yaml:"rabbitmq"`
	HTTP     HTTPConfig     `yaml:"http"`
	Client   ClientConfig   `yaml:"client"`
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	Driver   string `yaml:"driver"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	// Path is the SQLite file used by the sqlite driver
	Path string `yaml:"path"`
}

// RabbitMQConfig holds RabbitMQ connection configuration
type RabbitMQConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	RPCQueue string `yaml:"rpc_queue"`
}

// HTTPConfig holds the order service HTTP endpoint configuration
type HTTPConfig struct {
	Port      int     `yaml:"port"`
	Endpoint  string  `yaml:"endpoint"`
	Username  string  `yaml:"username"`
	Password  string  `yaml:"password"`
	RateLimit float64 `yaml:"rate_limit"`
	RateBurst int     `yaml:"rate_burst"`
}

// ClientConfig holds configuration for the restaurant client
type ClientConfig struct {
	Transport   string        `yaml:"transport"`
	Endpoint    string        `yaml:"endpoint"`
	Username    string        `yaml:"username"`
	Password    string        `yaml:"password"`
	Timeout     time.Duration `yaml:"timeout"`
	MaxAttempts int           `yaml:"max_attempts"`
}

// Default returns the configuration used when no file or variable overrides a value
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver:   DriverPostgres,
			Host:     "localhost",
			Port:     5432,
			User:     "restaurant",
			Database: "restaurant",
			Path:     "restaurant.db",
		},
		RabbitMQ: RabbitMQConfig{
			Host:     "localhost",
			Port:     5672,
			User:     "guest",
			Password: "guest",
			RPCQueue: "restaurant_rpc",
		},
		HTTP: HTTPConfig{
			Port:      3000,
			Endpoint:  "/api/restaurant",
			RateLimit: 20,
			RateBurst: 40,
		},
		Client: ClientConfig{
			Transport:   TransportHTTP,
			Endpoint:    "http://localhost:3000/api/restaurant",
			Timeout:     10 * time.Second,
			MaxAttempts: 3,
		},
	}
}

// Load reads configuration from a YAML file, then applies .env and
// environment overrides. A missing file is not an error.
func Load(filename string) (*Config, error) {
	cfg := Default()

	content, err := os.ReadFile(filename)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(content, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}

	// .env is optional
	_ = godotenv.Load()

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that would make a component fail later on
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverPostgres, DriverGormPostgres, DriverSQLite:
	default:
		return fmt.Errorf("unknown database driver: %s", c.Database.Driver)
	}
	switch c.Client.Transport {
	case TransportRPC, TransportHTTP:
	default:
		return fmt.Errorf("unknown client transport: %s", c.Client.Transport)
	}
	if !strings.HasPrefix(c.HTTP.Endpoint, "/") {
		return fmt.Errorf("http endpoint must start with '/': %s", c.HTTP.Endpoint)
	}
	return nil
}

func (c *Config) applyEnv() error {
	setString(&c.Database.Driver, "DB_DRIVER")
	setString(&c.Database.Host, "DB_HOST")
	setString(&c.Database.User, "DB_USER")
	setString(&c.Database.Password, "DB_PASSWORD")
	setString(&c.Database.Database, "DB_NAME")
	setString(&c.Database.Path, "DB_PATH")
	if err := setInt(&c.Database.Port, "DB_PORT"); err != nil {
		return err
	}

	setString(&c.RabbitMQ.Host, "RABBITMQ_HOST")
	setString(&c.RabbitMQ.User, "RABBITMQ_USER")
	setString(&c.RabbitMQ.Password, "RABBITMQ_PASSWORD")
	setString(&c.RabbitMQ.RPCQueue, "RABBITMQ_RPC_QUEUE")
	if err := setInt(&c.RabbitMQ.Port, "RABBITMQ_PORT"); err != nil {
		return err
	}

	setString(&c.HTTP.Username, "HTTP_USERNAME")
	setString(&c.HTTP.Password, "HTTP_PASSWORD")
	if err := setInt(&c.HTTP.Port, "HTTP_PORT"); err != nil {
		return err
	}

	setString(&c.Client.Transport, "CLIENT_TRANSPORT")
	setString(&c.Client.Endpoint, "CLIENT_ENDPOINT")
	setString(&c.Client.Username, "CLIENT_USERNAME")
	setString(&c.Client.Password, "CLIENT_PASSWORD")
	if v := strings.TrimSpace(os.Getenv("CLIENT_TIMEOUT")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid CLIENT_TIMEOUT value: %w", err)
		}
		c.Client.Timeout = d
	}
	return nil
}

// DatabaseURL returns a PostgreSQL connection URL
func (c *Config) DatabaseURL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.Database.User, c.Database.Password),
		Host:     net.JoinHostPort(c.Database.Host, strconv.Itoa(c.Database.Port)),
		Path:     "/" + c.Database.Database,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

// RabbitMQURL returns an AMQP connection URL
func (c *Config) RabbitMQURL() string {
	u := url.URL{
		Scheme: "amqp",
		User:   url.UserPassword(c.RabbitMQ.User, c.RabbitMQ.Password),
		Host:   net.JoinHostPort(c.RabbitMQ.Host, strconv.Itoa(c.RabbitMQ.Port)),
		Path:   "/",
	}
	return u.String()
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s value: %w", key, err)
	}
	*dst = n
	return nil
}
