package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all application configuration
type Config struct {
	ServiceName string
	Database    DatabaseConfig
	HTTP        HTTPConfig
	RabbitMQ    RabbitMQConfig
	Import      ImportConfig
	Anomaly     AnomalyConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	URL      string
	MaxConns int
}

// HTTPConfig holds HTTP server settings
type HTTPConfig struct {
	Port           int
	BearerToken    string
	MaxUploadBytes int64
}

// RabbitMQConfig holds RabbitMQ connection and queue settings
type RabbitMQConfig struct {
	URL              string
	ImportExchange   string
	ImportQueue      string
	ImportRoutingKey string
	EventsExchange   string
	EventsRoutingKey string
	DLQQueue         string
	PrefetchCount    int
}

// ImportConfig holds flow-file import settings
type ImportConfig struct {
	Timezone     string
	MaxLineBytes int
}

// AnomalyConfig holds anomaly flagging settings
type AnomalyConfig struct {
	SpikeThreshold            float64
	MinDataPointsForDetection int
	HistoryWindow             int
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		ServiceName: getEnv("SERVICE_NAME", "d0010-ingest"),
		Database: DatabaseConfig{
			URL:      getEnv("DATABASE_URL", ""),
			MaxConns: getEnvAsInt("DATABASE_MAX_CONNS", 10),
		},
		HTTP: HTTPConfig{
			Port:           getEnvAsInt("HTTP_PORT", 8080),
			BearerToken:    getEnv("API_BEARER_TOKEN", ""),
			MaxUploadBytes: getEnvAsInt64("HTTP_MAX_UPLOAD_BYTES", 32<<20),
		},
		RabbitMQ: RabbitMQConfig{
			URL:              getEnv("RABBITMQ_URL", ""),
			ImportExchange:   getEnv("RABBITMQ_IMPORT_EXCHANGE", "d0010.import.exchange"),
			ImportQueue:      getEnv("RABBITMQ_IMPORT_QUEUE", "d0010.import.queue"),
			ImportRoutingKey: getEnv("RABBITMQ_IMPORT_ROUTING_KEY", "flow.file.received"),
			EventsExchange:   getEnv("RABBITMQ_EVENTS_EXCHANGE", "d0010.events.exchange"),
			EventsRoutingKey: getEnv("RABBITMQ_EVENTS_ROUTING_KEY", "flow.file.imported"),
			DLQQueue:         getEnv("RABBITMQ_DLQ_QUEUE", "d0010.import.dlq"),
			PrefetchCount:    getEnvAsInt("RABBITMQ_PREFETCH", 10),
		},
		Import: ImportConfig{
			Timezone:     getEnv("IMPORT_TIMEZONE", "Europe/London"),
			MaxLineBytes: getEnvAsInt("IMPORT_MAX_LINE_BYTES", 1<<20),
		},
		Anomaly: AnomalyConfig{
			SpikeThreshold:            getEnvAsFloat("ANOMALY_SPIKE_THRESHOLD", 3.0),
			MinDataPointsForDetection: getEnvAsInt("ANOMALY_MIN_DATA_POINTS", 3),
			HistoryWindow:             getEnvAsInt("ANOMALY_HISTORY_WINDOW", 10),
		},
	}

	// Validate required fields
	if cfg.Database.URL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required but not set in environment variables")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseInt(valueStr, 10, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}
