// FilePath: internal/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the service
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Broker    BrokerConfig    `mapstructure:"broker"`
	WebSocket WebSocketConfig `mapstructure:"websocket"`
	Ingest    IngestConfig    `mapstructure:"ingest"`
	Query     QueryConfig     `mapstructure:"query"`
	Report    ReportConfig    `mapstructure:"report"`
	Auth      AuthConfig      `mapstructure:"auth"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Host            string        `mapstructure:"host"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	TimescaleDB PostgresConfig `mapstructure:"timescaledb"`
	AppDB       PostgresConfig `mapstructure:"postgres_app"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

type RedisConfig struct {
	Host      string        `mapstructure:"host"`
	Port      int           `mapstructure:"port"`
	Password  string        `mapstructure:"password"`
	DB        int           `mapstructure:"db"`
	LatestTTL time.Duration `mapstructure:"latest_ttl"`
}

type BrokerConfig struct {
	URL      string `mapstructure:"url"`
	ClientID string `mapstructure:"client_id"`
	Topic    string `mapstructure:"topic"`
	QoS      int    `mapstructure:"qos"`
}

// WebSocketConfig configures the viewer fanout listener. In production mode
// the listener serves TLS with the configured certificate pair.
type WebSocketConfig struct {
	Port     int    `mapstructure:"port"`
	Mode     string `mapstructure:"mode"`
	CertFile string `mapstructure:"cert_file"`
	KeyFile  string `mapstructure:"key_file"`
}

type IngestConfig struct {
	// TimestampOffset is added to the arrival-time fallback when a payload
	// carries no timestamp of its own. Some deployments run device clocks in
	// local time; keep this zero unless you know you need it.
	TimestampOffset time.Duration `mapstructure:"timestamp_offset"`
}

type QueryConfig struct {
	// MaxResults caps the row count a single range query returns.
	MaxResults int `mapstructure:"max_results"`
}

type ReportConfig struct {
	SenderEmail string `mapstructure:"sender_email"`
	SMTPHost    string `mapstructure:"smtp_host"`
	SMTPPort    int    `mapstructure:"smtp_port"`
	SMTPUser    string `mapstructure:"smtp_user"`
	SMTPPass    string `mapstructure:"smtp_pass"`
}

type AuthConfig struct {
	UserSecret   string `mapstructure:"user_secret"`
	DeviceSecret string `mapstructure:"device_secret"`
}

// Load initializes configuration from environment variables and config file
func Load() (*Config, error) {
	viper.SetEnvPrefix("SMX")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "__"))
	viper.AutomaticEnv()

	// Set defaults
	setDefaults()

	// Load config file if exists
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("config validation error: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	// Server defaults
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.read_timeout", "15s")
	viper.SetDefault("server.write_timeout", "15s")
	viper.SetDefault("server.shutdown_timeout", "30s")

	// Database defaults
	viper.SetDefault("database.timescaledb.sslmode", "disable")
	viper.SetDefault("database.postgres_app.sslmode", "disable")

	// Redis defaults
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.latest_ttl", "24h")

	// Broker defaults
	viper.SetDefault("broker.client_id", "telemetry-hub")
	viper.SetDefault("broker.topic", "weather_data/#")
	viper.SetDefault("broker.qos", 0)

	// WebSocket defaults
	viper.SetDefault("websocket.port", 8081)
	viper.SetDefault("websocket.mode", "development")

	// Ingest defaults
	viper.SetDefault("ingest.timestamp_offset", "0s")

	// Query defaults
	viper.SetDefault("query.max_results", 10000)

	// Report defaults
	viper.SetDefault("report.smtp_port", 587)
}

func validateConfig(config *Config) error {
	if config.Database.TimescaleDB.Host == "" {
		return fmt.Errorf("timescaledb host is required")
	}
	if config.Database.AppDB.Host == "" {
		return fmt.Errorf("postgres app host is required")
	}
	if config.Broker.URL == "" {
		return fmt.Errorf("broker URL is required")
	}
	if config.WebSocket.Mode == "production" {
		if config.WebSocket.CertFile == "" || config.WebSocket.KeyFile == "" {
			return fmt.Errorf("websocket TLS cert/key required in production mode")
		}
	}
	if config.Query.MaxResults <= 0 {
		return fmt.Errorf("query max_results must be positive")
	}
	return nil
}
