package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Environment string
	Server      ServerConfig
	Database    DatabaseConfig
	NATS        NATSConfig
	Chat        ChatConfig
	Realtime    RealtimeConfig
	Geo         GeoConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	CorsOrigins     []string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Database     string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
	SSLMode      string
}

// NATSConfig holds NATS configuration
type NATSConfig struct {
	URL            string
	MaxReconnects  int
	ReconnectWait  time.Duration
	ConnectTimeout time.Duration
}

// ChatConfig holds message dispatch configuration
type ChatConfig struct {
	MaxMessageLength int
	PersistTimeout   time.Duration
	HistoryLimit     int
	EventsTopic      string
}

// RealtimeConfig holds realtime connection configuration
type RealtimeConfig struct {
	WriteWait      time.Duration
	PingInterval   time.Duration
	IdleMultiplier int
	MaxMessageSize int64
	SendBuffer     int
}

// GeoConfig holds discovery configuration
type GeoConfig struct {
	DefaultRadiusKm float64
	MinRadiusKm     float64
	MaxRadiusKm     float64
	FeedLimit       int
}

// Load loads configuration from the environment, with a .env file as
// fallback when present.
func Load() (Config, error) {
	_ = godotenv.Load()

	config := Config{
		Environment: getEnv("APP_ENV", "development"),
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvAsInt("SERVER_PORT", 8080),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 10*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			CorsOrigins:     getEnvAsSlice("SERVER_CORS_ORIGINS", []string{"*"}),
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnvAsInt("DB_PORT", 5432),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", "postgres"),
			Database:     getEnv("DB_NAME", "nearby"),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 25),
			MaxLifetime:  getEnvAsDuration("DB_MAX_LIFETIME", 5*time.Minute),
			SSLMode:      getEnv("DB_SSL_MODE", "disable"),
		},
		NATS: NATSConfig{
			URL:            getEnv("NATS_URL", "nats://localhost:4222"),
			MaxReconnects:  getEnvAsInt("NATS_MAX_RECONNECTS", 10),
			ReconnectWait:  getEnvAsDuration("NATS_RECONNECT_WAIT", 1*time.Second),
			ConnectTimeout: getEnvAsDuration("NATS_CONNECT_TIMEOUT", 2*time.Second),
		},
		Chat: ChatConfig{
			MaxMessageLength: getEnvAsInt("CHAT_MAX_MESSAGE_LENGTH", 1000),
			PersistTimeout:   getEnvAsDuration("CHAT_PERSIST_TIMEOUT", 5*time.Second),
			HistoryLimit:     getEnvAsInt("CHAT_HISTORY_LIMIT", 100),
			EventsTopic:      getEnv("CHAT_EVENTS_TOPIC", "chat"),
		},
		Realtime: RealtimeConfig{
			WriteWait:      getEnvAsDuration("REALTIME_WRITE_WAIT", 10*time.Second),
			PingInterval:   getEnvAsDuration("REALTIME_PING_INTERVAL", 30*time.Second),
			IdleMultiplier: getEnvAsInt("REALTIME_IDLE_MULTIPLIER", 2),
			MaxMessageSize: int64(getEnvAsInt("REALTIME_MAX_MESSAGE_SIZE", 64*1024)),
			SendBuffer:     getEnvAsInt("REALTIME_SEND_BUFFER", 256),
		},
		Geo: GeoConfig{
			DefaultRadiusKm: getEnvAsFloat("GEO_DEFAULT_RADIUS_KM", 5.0),
			MinRadiusKm:     getEnvAsFloat("GEO_MIN_RADIUS_KM", 1.0),
			MaxRadiusKm:     getEnvAsFloat("GEO_MAX_RADIUS_KM", 50.0),
			FeedLimit:       getEnvAsInt("GEO_FEED_LIMIT", 200),
		},
	}

	return config, validate(config)
}

// validate checks if config is valid
func validate(config Config) error {
	if config.Geo.MinRadiusKm > config.Geo.MaxRadiusKm {
		return fmt.Errorf("GEO_MIN_RADIUS_KM must not exceed GEO_MAX_RADIUS_KM")
	}
	if config.Realtime.IdleMultiplier < 1 {
		return fmt.Errorf("REALTIME_IDLE_MULTIPLIER must be at least 1")
	}

	return nil
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	return strings.Split(valueStr, ",")
}
