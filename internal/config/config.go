package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Env      string
	Server   ServerConfig
	Store    StoreConfig
	Database DatabaseConfig
	Redis    RedisConfig
	NATS     NATSConfig
	Cache    CacheConfig
	Batch    BatchConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
}

// StoreConfig holds the review store backend configuration
type StoreConfig struct {
	// Backend selects the ReviewStore adapter: "rest" or "postgres"
	Backend string
	BaseURL string
	Timeout time.Duration
}

// DatabaseConfig holds PostgreSQL configuration for the colocated adapter
type DatabaseConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// NATSConfig holds NATS configuration
type NATSConfig struct {
	URL string
}

// CacheConfig holds per-tier TTL configuration
type CacheConfig struct {
	ReviewsTTL     time.Duration
	SnapshotTTL    time.Duration
	BatchRatingTTL time.Duration
}

// BatchConfig holds the chunked rating loader configuration
type BatchConfig struct {
	ChunkSize     int
	YieldInterval time.Duration
}

// Load reads configuration from environment variables and returns a Config struct
func Load() (*Config, error) {
	viper.AutomaticEnv()

	viper.SetDefault("ENV", "development")
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SERVER_READ_TIMEOUT", "10s")
	viper.SetDefault("SERVER_WRITE_TIMEOUT", "10s")
	viper.SetDefault("SERVER_SHUTDOWN_TIMEOUT", "30s")
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:8080")

	viper.SetDefault("STORE_BACKEND", "rest")
	viper.SetDefault("STORE_BASE_URL", "http://localhost:9090")
	viper.SetDefault("STORE_TIMEOUT", "5s")

	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_USER", "postgres")
	viper.SetDefault("DB_PASSWORD", "postgres")
	viper.SetDefault("DB_NAME", "cakeshop")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("DB_MAX_OPEN_CONNS", 25)
	viper.SetDefault("DB_MAX_IDLE_CONNS", 5)
	viper.SetDefault("DB_CONN_MAX_LIFETIME", "5m")

	viper.SetDefault("REDIS_HOST", "localhost")
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_DB", 0)

	viper.SetDefault("NATS_URL", "nats://localhost:4222")

	viper.SetDefault("CACHE_TTL_REVIEWS", "5m")
	viper.SetDefault("CACHE_TTL_SNAPSHOT", "5m")
	viper.SetDefault("CACHE_TTL_BATCH_RATING", "15m")

	viper.SetDefault("BATCH_CHUNK_SIZE", 10)
	viper.SetDefault("BATCH_YIELD_INTERVAL", "10ms")

	readTimeout, err := parseDurationKey("SERVER_READ_TIMEOUT")
	if err != nil {
		return nil, err
	}
	writeTimeout, err := parseDurationKey("SERVER_WRITE_TIMEOUT")
	if err != nil {
		return nil, err
	}
	shutdownTimeout, err := parseDurationKey("SERVER_SHUTDOWN_TIMEOUT")
	if err != nil {
		return nil, err
	}
	storeTimeout, err := parseDurationKey("STORE_TIMEOUT")
	if err != nil {
		return nil, err
	}
	connMaxLifetime, err := parseDurationKey("DB_CONN_MAX_LIFETIME")
	if err != nil {
		return nil, err
	}
	reviewsTTL, err := parseDurationKey("CACHE_TTL_REVIEWS")
	if err != nil {
		return nil, err
	}
	snapshotTTL, err := parseDurationKey("CACHE_TTL_SNAPSHOT")
	if err != nil {
		return nil, err
	}
	batchRatingTTL, err := parseDurationKey("CACHE_TTL_BATCH_RATING")
	if err != nil {
		return nil, err
	}
	yieldInterval, err := parseDurationKey("BATCH_YIELD_INTERVAL")
	if err != nil {
		return nil, err
	}

	chunkSize := viper.GetInt("BATCH_CHUNK_SIZE")
	if chunkSize <= 0 {
		return nil, fmt.Errorf("BATCH_CHUNK_SIZE must be positive, got %d", chunkSize)
	}

	allowedOrigins := strings.Split(viper.GetString("CORS_ALLOWED_ORIGINS"), ",")
	for i := range allowedOrigins {
		allowedOrigins[i] = strings.TrimSpace(allowedOrigins[i])
	}

	config := &Config{
		Env: viper.GetString("ENV"),
		Server: ServerConfig{
			Port:            viper.GetString("SERVER_PORT"),
			ReadTimeout:     readTimeout,
			WriteTimeout:    writeTimeout,
			ShutdownTimeout: shutdownTimeout,
			AllowedOrigins:  allowedOrigins,
		},
		Store: StoreConfig{
			Backend: viper.GetString("STORE_BACKEND"),
			BaseURL: viper.GetString("STORE_BASE_URL"),
			Timeout: storeTimeout,
		},
		Database: DatabaseConfig{
			Host:            viper.GetString("DB_HOST"),
			Port:            viper.GetString("DB_PORT"),
			User:            viper.GetString("DB_USER"),
			Password:        viper.GetString("DB_PASSWORD"),
			Name:            viper.GetString("DB_NAME"),
			SSLMode:         viper.GetString("DB_SSLMODE"),
			MaxOpenConns:    viper.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    viper.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: connMaxLifetime,
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		NATS: NATSConfig{
			URL: viper.GetString("NATS_URL"),
		},
		Cache: CacheConfig{
			ReviewsTTL:     reviewsTTL,
			SnapshotTTL:    snapshotTTL,
			BatchRatingTTL: batchRatingTTL,
		},
		Batch: BatchConfig{
			ChunkSize:     chunkSize,
			YieldInterval: yieldInterval,
		},
	}

	return config, nil
}

func parseDurationKey(key string) (time.Duration, error) {
	d, err := time.ParseDuration(viper.GetString(key))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

// GetDSN returns the PostgreSQL connection string
func (c *Config) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// GetRedisAddr returns the Redis address
func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Redis.Host, c.Redis.Port)
}
