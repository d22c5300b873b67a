package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server ServerConfig `json:"server"`

	// Database Configuration
	Database DatabaseConfig `json:"database"`

	// MongoDB holds the GridFS object store
	MongoDB MongoDBConfig `json:"mongodb"`

	Storage StorageConfig `json:"storage"`

	// Feed pipeline tuning
	Feed FeedConfig `json:"feed"`

	Auth AuthConfig `json:"auth"`

	// Logging Configuration
	Logging LoggingConfig `json:"logging"`
}

// ServerConfig contains server-related configuration
type ServerConfig struct {
	Host             string `json:"host"`
	HTTPPort         string `json:"http_port"`
	GRPCPort         string `json:"grpc_port"`
	MediaServicePort string `json:"media_service_port"`
	ReadTimeout      int    `json:"read_timeout"`  // Seconds
	WriteTimeout     int    `json:"write_timeout"` // Seconds
	Environment      string `json:"environment"`   // development, staging, production
	GRPCReflection   bool   `json:"grpc_reflection"`

	// MediaBaseURL is the externally reachable address of the media server,
	// used as the prefix of every signed and public object URL.
	MediaBaseURL string `json:"media_base_url"`
}

// DatabaseConfig contains database connection configuration
type DatabaseConfig struct {
	Host         string `json:"host"`
	Port         string `json:"port"`
	Username     string `json:"username"`
	Password     string `json:"password"`
	DatabaseName string `json:"database_name"`
	MaxOpenConns int    `json:"max_open_conns"`
	MaxIdleConns int    `json:"max_idle_conns"`
}

type MongoDBConfig struct {
	Host     string `json:"host"`
	Port     string `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	Database string `json:"database"`
}

// StorageConfig describes the buckets the object store exposes.
type StorageConfig struct {
	AvatarBucket    string `json:"avatar_bucket"`
	PostMediaBucket string `json:"post_media_bucket"`
	SigningSecret   string `json:"-"`
	CacheControl    string `json:"cache_control"`
}

type FeedConfig struct {
	PostWorkers      int `json:"post_workers"`       // posts enriched in parallel per run
	SignWorkers      int `json:"sign_workers"`       // in-flight signing calls, shared by all runs
	SignedURLTTL     int `json:"signed_url_ttl"`     // Seconds
	RunTimeout       int `json:"run_timeout"`        // Seconds
	SessionCacheSize int `json:"session_cache_size"` // per-user assemblers kept in memory
}

type AuthConfig struct {
	JWTSecret string `json:"-"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `json:"level"`  // debug, info, warn, error
	Format string `json:"format"` // json, text
}

func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:             getEnv("SERVER_HOST", "0.0.0.0"),
			HTTPPort:         getEnv("HTTP_PORT", "7002"),
			GRPCPort:         getEnv("GRPC_PORT", "7012"),
			MediaServicePort: getEnv("MEDIA_SERVER_PORT", "8080"),
			ReadTimeout:      getEnvAsInt("SERVER_READ_TIMEOUT", 15),
			WriteTimeout:     getEnvAsInt("SERVER_WRITE_TIMEOUT", 30),
			Environment:      getEnv("APP_ENV", "development"),
			GRPCReflection:   getEnvAsBool("GRPC_REFLECTION", true),
		},
		Database: DatabaseConfig{
			Host:         getEnv("MYSQL_HOST", "localhost"),
			Port:         getEnv("MYSQL_PORT", "3306"),
			Username:     getEnv("MYSQL_USERNAME", "jamsocial"),
			Password:     getEnv("MYSQL_PASSWORD", "jamsocial123"),
			DatabaseName: getEnv("MYSQL_DATABASE", "jamsocial"),
			MaxOpenConns: getEnvAsInt("MYSQL_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvAsInt("MYSQL_MAX_IDLE_CONNS", 5),
		},
		MongoDB: MongoDBConfig{
			Host:     getEnv("MONGO_HOST", "localhost"),
			Port:     getEnv("MONGO_PORT", "27017"),
			Username: getEnv("MONGO_USERNAME", "admin"),
			Password: getEnv("MONGO_PASSWORD", "admin123"),
			Database: getEnv("MONGO_DATABASE", "jamsocial"),
		},
		Storage: StorageConfig{
			AvatarBucket:    getEnv("AVATAR_BUCKET", "avatars"),
			PostMediaBucket: getEnv("POST_MEDIA_BUCKET", "post-media-bucket"),
			SigningSecret:   getEnv("STORAGE_SIGNING_SECRET", "dev-signing-secret"),
			CacheControl:    getEnv("AVATAR_CACHE_CONTROL", "3600"),
		},
		Feed: FeedConfig{
			PostWorkers:      getEnvAsInt("FEED_POST_WORKERS", 8),
			SignWorkers:      getEnvAsInt("FEED_SIGN_WORKERS", 32),
			SignedURLTTL:     getEnvAsInt("FEED_SIGNED_URL_TTL", 60),
			RunTimeout:       getEnvAsInt("FEED_RUN_TIMEOUT", 20),
			SessionCacheSize: getEnvAsInt("FEED_SESSION_CACHE_SIZE", 1024),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", "dev-jwt-secret"),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
		},
	}

	cfg.Server.MediaBaseURL = strings.TrimRight(
		getEnv("MEDIA_BASE_URL", fmt.Sprintf("http://localhost:%s", cfg.Server.MediaServicePort)), "/")

	return cfg
}

func (cfg *Config) DSN() string {
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == "" {
		cfg.Database.Port = "3306"
	}

	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		cfg.Database.Username,
		cfg.Database.Password,
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.DatabaseName,
	)
}

func (cfg *Config) GetMongoURI() string {
	if cfg.MongoDB.Username == "" {
		return fmt.Sprintf("mongodb://%s:%s/%s", cfg.MongoDB.Host, cfg.MongoDB.Port, cfg.MongoDB.Database)
	}
	return fmt.Sprintf("mongodb://%s:%s@%s:%s/%s?authSource=admin",
		cfg.MongoDB.Username,
		cfg.MongoDB.Password,
		cfg.MongoDB.Host,
		cfg.MongoDB.Port,
		cfg.MongoDB.Database,
	)
}

// SignedURLTTL returns the lifetime of feed media URLs.
func (cfg *Config) SignedURLTTL() time.Duration {
	return time.Duration(cfg.Feed.SignedURLTTL) * time.Second
}

func (cfg *Config) RunTimeout() time.Duration {
	return time.Duration(cfg.Feed.RunTimeout) * time.Second
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return value
}
