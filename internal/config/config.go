package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Kafka    KafkaConfig
	Request  RequestConfig
	Log      LogConfig
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type DatabaseConfig struct {
	Driver         string // postgres or sqlite
	PostgresDSN    string
	SQLiteDSN      string
	MaxOpenConns   int
	MaxIdleConns   int
	MaxLifetime    time.Duration
	ConnectRetries int
	AutoMigrate    bool
}

type KafkaConfig struct {
	Brokers []string
	Enabled bool
	Topics  TopicConfig
}

type TopicConfig struct {
	RequestChanges string
}

// RequestConfig holds the booking rules that are product decisions rather
// than schema constraints.
type RequestConfig struct {
	EnforceWheelchairLimit bool
}

type LogConfig struct {
	Dir     string
	Service string
}

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", ":8085"),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Database: DatabaseConfig{
			Driver:         strings.ToLower(getEnv("DB_DRIVER", DriverPostgres)),
			PostgresDSN:    getEnv("POSTGRES_DSN", ""),
			SQLiteDSN:      getEnv("SQLITE_DSN", "file:requests.db?cache=shared"),
			MaxOpenConns:   getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:   getEnvInt("DB_MAX_IDLE_CONNS", 25),
			MaxLifetime:    time.Duration(getEnvInt("DB_MAX_LIFETIME_MINUTES", 5)) * time.Minute,
			ConnectRetries: getEnvInt("DB_CONNECT_RETRIES", 5),
			AutoMigrate:    getEnvBool("MIGRATIONS_AUTO", true),
		},
		Kafka: KafkaConfig{
			Brokers: getEnvList("KAFKA_BROKERS", []string{"localhost:9092"}),
			Enabled: getEnvBool("KAFKA_ENABLED", false),
			Topics: TopicConfig{
				RequestChanges: getEnv("KAFKA_TOPIC_REQUESTS", "request.changes"),
			},
		},
		Request: RequestConfig{
			EnforceWheelchairLimit: getEnvBool("REQUEST_ENFORCE_WHEELCHAIR_LIMIT", true),
		},
		Log: LogConfig{
			Dir:     getEnv("LOG_DIR", "logs"),
			Service: getEnv("SERVICE_NAME", "request-service"),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvList splits a comma separated value, dropping empty entries.
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
