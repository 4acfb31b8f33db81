package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// DefaultChunkSize is the chunk size handed to clients that do not pick
// their own when opening an upload session.
const DefaultChunkSize int64 = 8 << 20

type Config struct {
	JWTSecret     string
	DBHost        string
	DBPort        string
	DBUser        string
	DBPass        string
	DBName        string
	DBNameTest    string
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	MinioHost     string
	MinioPort     string
	MinioUsername string
	MinioPassword string
	BucketName    string

	S3Region        string
	S3Endpoint      string
	S3AccessKey     string
	S3SecretKey     string
	S3ArchiveBucket string

	MaxFileSize       int64
	SessionTTL        time.Duration
	ChunkSize         int64
	StagingProvider   string
	ThumbnailProvider string
	ThumbnailMaxEdge  int
	ThumbnailQuality  int

	RabbitMQURL                string
	RabbitMQHost               string
	RabbitMQPort               string
	RabbitMQUser               string
	RabbitMQPass               string
	RabbitMQVhost              string
	RabbitMQPrefetch           int
	RetrievalWorkerConcurrency int
	RetrievalRate              float64
	RetrievalBurst             int
	RetrievalRetryMax          int
	RetrievalRetryDelays       []time.Duration
}

var AppConfig Config

// getEnv returns the environment value or a default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getEnvInt64(key string, defaultValue int64) int64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getEnvDurationList(key string, defaultValue []time.Duration) []time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue
	}
	parts := strings.Split(raw, ",")
	out := make([]time.Duration, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		parsed, err := time.ParseDuration(part)
		if err != nil {
			return defaultValue
		}
		out = append(out, parsed)
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

// InitConfig loads configuration and initializes sub-configs.
func InitConfig() {
	rabbitHost := getEnv("RABBITMQ_HOST", "localhost")
	rabbitPort := getEnv("RABBITMQ_PORT", "5672")
	rabbitUser := getEnv("RABBITMQ_USER", "guest")
	rabbitPass := getEnv("RABBITMQ_PASSWORD", "guest")
	rabbitVhost := getEnv("RABBITMQ_VHOST", "/")
	rabbitURL := getEnv("RABBITMQ_URL", "")
	if rabbitURL == "" {
		rabbitURL = fmt.Sprintf(
			"amqp://%s:%s@%s:%s/%s",
			url.PathEscape(rabbitUser),
			url.PathEscape(rabbitPass),
			rabbitHost,
			rabbitPort,
			url.PathEscape(rabbitVhost),
		)
	}
	retryDelays := getEnvDurationList(
		"RETRIEVAL_RETRY_DELAYS",
		[]time.Duration{10 * time.Second, 30 * time.Second, 2 * time.Minute, 10 * time.Minute, 30 * time.Minute},
	)
	AppConfig = Config{
		JWTSecret:     getEnv("JWT_SECRET", "l=ax+b"),
		DBHost:        getEnv("DB_HOST", "localhost"),
		DBPort:        getEnv("DB_PORT", "3306"),
		DBUser:        getEnv("DB_USER", "root"),
		DBPass:        getEnv("DB_PASS", "root"),
		DBName:        getEnv("DB_NAME", "ColdVault"),
		DBNameTest:    getEnv("DB_NAME_TEST", "ColdVault_Test"),
		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       0,

		MinioHost:     getEnv("MINIO_HOST", "localhost"),
		MinioPort:     getEnv("MINIO_PORT", "9000"),
		MinioUsername: getEnv("MINIO_USERNAME", "minioadmin"),
		MinioPassword: getEnv("MINIO_PASSWORD", "minioadmin"),
		BucketName:    getEnv("BUCKET_NAME", "coldvault"),

		S3Region:        getEnv("S3_REGION", "us-east-1"),
		S3Endpoint:      getEnv("S3_ENDPOINT", ""),
		S3AccessKey:     getEnv("S3_ACCESS_KEY", ""),
		S3SecretKey:     getEnv("S3_SECRET_KEY", ""),
		S3ArchiveBucket: getEnv("S3_ARCHIVE_BUCKET", "coldvault-archive"),

		MaxFileSize:       getEnvInt64("MAX_FILE_SIZE", 5<<30),
		SessionTTL:        getEnvDuration("UPLOAD_SESSION_TTL", 24*time.Hour),
		ChunkSize:         getEnvInt64("UPLOAD_CHUNK_SIZE", DefaultChunkSize),
		StagingProvider:   getEnv("STAGING_PROVIDER", "minio"),
		ThumbnailProvider: getEnv("THUMBNAIL_PROVIDER", "minio"),
		ThumbnailMaxEdge:  getEnvInt("THUMBNAIL_MAX_EDGE", 256),
		ThumbnailQuality:  getEnvInt("THUMBNAIL_QUALITY", 80),

		RabbitMQURL:                rabbitURL,
		RabbitMQHost:               rabbitHost,
		RabbitMQPort:               rabbitPort,
		RabbitMQUser:               rabbitUser,
		RabbitMQPass:               rabbitPass,
		RabbitMQVhost:              rabbitVhost,
		RabbitMQPrefetch:           getEnvInt("RABBITMQ_PREFETCH", 8),
		RetrievalWorkerConcurrency: getEnvInt("RETRIEVAL_WORKER_CONCURRENCY", 4),
		RetrievalRate:              getEnvFloat("RETRIEVAL_RATE", 2),
		RetrievalBurst:             getEnvInt("RETRIEVAL_BURST", 4),
		RetrievalRetryMax:          getEnvInt("RETRIEVAL_RETRY_MAX", 5),
		RetrievalRetryDelays:       retryDelays,
	}

	InitProviderConfig()
}
