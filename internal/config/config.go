package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Assistant AssistantConfig
	Upload    UploadConfig
	Redis     RedisConfig
	Storage   StorageConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	ClientURL          string
	Environment        string
	LogFilePath        string
	IndexerLogFilePath string
	CorsAllowedOrigins string
	NatsURL            string
	JwtSecret          string
}

type DatabaseConfig struct {
	Connection string
}

type AssistantConfig struct {
	BaseURL    string
	APIKey     string
	FolderID   string
	Model      string
	TitleModel string
}

type UploadConfig struct {
	MaxFilesPerRequest int
	MaxTotalSizeBytes  int64
	AllowedExtensions  []string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	// Turn dedup cache TTL in seconds; when Addr is empty an in-process cache is used instead.
	DedupTTLSeconds int
}

type StorageConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			ClientURL:          getEnv("CLIENT_URL", "http://localhost:5173"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log"),
			IndexerLogFilePath: getEnv("INDEXER_LOG_FILE_PATH", "indexer.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			JwtSecret:          getEnv("JWT_SECRET", ""),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Assistant: AssistantConfig{
			BaseURL:    getEnv("ASSISTANT_BASE_URL", "https://llm.api.cloud.yandex.net/v1"),
			APIKey:     getEnv("ASSISTANT_API_KEY", ""),
			FolderID:   getEnv("ASSISTANT_FOLDER_ID", ""),
			Model:      getEnv("ASSISTANT_MODEL", "yandexgpt/latest"),
			TitleModel: getEnv("ASSISTANT_TITLE_MODEL", "yandexgpt-lite/latest"),
		},
		Upload: UploadConfig{
			MaxFilesPerRequest: getEnvAsInt("UPLOAD_MAX_FILES", 10),
			MaxTotalSizeBytes:  int64(getEnvAsInt("UPLOAD_MAX_TOTAL_MB", 30)) * 1024 * 1024,
			AllowedExtensions:  getEnvAsSlice("UPLOAD_ALLOWED_EXTENSIONS", []string{".txt", ".pdf", ".doc", ".docx", ".md", ".json", ".csv", ".xls", ".xlsx"}),
		},
		Redis: RedisConfig{
			Addr:            getEnv("REDIS_ADDR", ""),
			Password:        getEnv("REDIS_PASSWORD", ""),
			DB:              getEnvAsInt("REDIS_DB", 0),
			DedupTTLSeconds: getEnvAsInt("CHAT_DEDUP_TTL_SECONDS", 600),
		},
		Storage: StorageConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", "localhost:9000"),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", "evoblast-files"),
			UseSSL:    getEnvAsBool("MINIO_USE_SSL", false),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsSlice(key string, fallback []string) []string {
	strValue := getEnv(key, "")
	if strValue == "" {
		return fallback
	}
	parts := strings.Split(strValue, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
