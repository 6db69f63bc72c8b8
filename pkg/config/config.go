package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	App          AppConfig
	Database     DatabaseConfig
	Redis        RedisConfig
	RateLimit    RateLimitConfig
	Embedding    EmbeddingConfig
	Storage      StorageConfig
	Drive        DriveConfig
	CloudRun     CloudRunConfig
	Sync         SyncConfig
	Normalize    NormalizeConfig
	Scheduler    SchedulerConfig
	Admin        AdminConfig
}

type AppConfig struct {
	Name string
	Port string
	Env  string
}

type DatabaseConfig struct {
	URL      string
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisConfig struct {
	URL      string
	Host     string
	Port     string
	Password string
	DB       int
}

type RateLimitConfig struct {
	Enabled       bool
	MaxRequests   int
	WindowSeconds int
}

// EmbeddingConfig selects and configures the Embedding Provider (C3).
type EmbeddingConfig struct {
	Provider string // "vertex_ai" or "cohere"

	VertexProject         string
	VertexLocation        string
	VertexTextModel       string
	VertexMultimodalModel string

	CohereBaseURL  string
	CohereAPIKey   string
	CohereTextModel  string
	CohereImageModel string

	UseEmbedV4 bool
}

// StorageConfig names the GCS buckets backing the Blob Store (C1).
type StorageConfig struct {
	ArtifactBucket string
	ManifestBucket string
	WatchPrefix    string
}

// DriveConfig holds Drive OAuth credentials and push-notification settings.
type DriveConfig struct {
	ClientID      string
	ClientSecret  string
	RefreshToken  string
	CallbackURL   string
	WatchTTLSeconds      int
	WatchCooldownSeconds int
}

// CloudRunConfig names the Job Dispatcher's (C6) target.
type CloudRunConfig struct {
	Project string
	Region  string
	JobName string
}

type SyncConfig struct {
	CheckpointInterval int
	MaxWorkers         int
}

type NormalizeConfig struct {
	MaxPixels     int
	MaxFileSizeMB int
}

type SchedulerConfig struct {
	MaxWorkers int
}

type AdminConfig struct {
	Token string
}

func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))

	cfg := &Config{
		App: AppConfig{
			Name: getEnv("APP_NAME", "drivesync"),
			Port: getEnv("APP_PORT", "8080"),
			Env:  getEnv("APP_ENV", "development"),
		},
		Database: DatabaseConfig{
			URL:      getEnv("DATABASE_URL", ""),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "drivesync"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		},
		Redis: RedisConfig{
			URL:      getEnv("REDIS_URL", ""),
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		RateLimit: RateLimitConfig{
			Enabled:       getEnv("RATE_LIMIT_ENABLED", "true") == "true",
			MaxRequests:   getEnvInt("RATE_LIMIT_MAX_REQUESTS", 100),
			WindowSeconds: getEnvInt("RATE_LIMIT_WINDOW_SECONDS", 60),
		},
		Embedding: EmbeddingConfig{
			Provider:              getEnv("EMBEDDING_PROVIDER", "vertex_ai"),
			VertexProject:         getEnv("VERTEX_PROJECT", ""),
			VertexLocation:        getEnv("VERTEX_LOCATION", "us-central1"),
			VertexTextModel:       getEnv("VERTEX_TEXT_MODEL", "text-embedding-005"),
			VertexMultimodalModel: getEnv("VERTEX_MULTIMODAL_MODEL", "multimodalembedding@001"),
			CohereBaseURL:         getEnv("COHERE_BASE_URL", "https://api.cohere.com"),
			CohereAPIKey:          getEnv("COHERE_API_KEY", ""),
			CohereTextModel:       getEnv("COHERE_TEXT_MODEL", "embed-v4.0"),
			CohereImageModel:      getEnv("COHERE_IMAGE_MODEL", "embed-v4.0"),
			UseEmbedV4:            getEnv("USE_EMBED_V4", "false") == "true",
		},
		Storage: StorageConfig{
			ArtifactBucket: getEnv("ARTIFACT_BUCKET", ""),
			ManifestBucket: getEnv("MANIFEST_BUCKET", ""),
			WatchPrefix:    getEnv("WATCH_STATE_PREFIX", "watch-state"),
		},
		Drive: DriveConfig{
			ClientID:             getEnv("GOOGLE_CLIENT_ID", ""),
			ClientSecret:         getEnv("GOOGLE_CLIENT_SECRET", ""),
			RefreshToken:         getEnv("GOOGLE_REFRESH_TOKEN", ""),
			CallbackURL:          getEnv("GOOGLE_DRIVE_WEBHOOK_URL", ""),
			WatchTTLSeconds:      getEnvInt("DRIVE_WATCH_TTL_SECONDS", 86400),
			WatchCooldownSeconds: getEnvInt("DRIVE_WATCH_COOLDOWN_SECONDS", 60),
		},
		CloudRun: CloudRunConfig{
			Project: getEnv("GOOGLE_CLOUD_PROJECT", ""),
			Region:  getEnv("GOOGLE_CLOUD_RUN_REGION", "us-central1"),
			JobName: getEnv("GOOGLE_CLOUD_RUN_JOB_NAME", ""),
		},
		Sync: SyncConfig{
			CheckpointInterval: getEnvInt("CHECKPOINT_INTERVAL", 100),
			MaxWorkers:         getEnvInt("MAX_WORKERS", 3),
		},
		Normalize: NormalizeConfig{
			MaxPixels:     getEnvInt("MAX_PIXELS", 2_300_000),
			MaxFileSizeMB: getEnvInt("MAX_FILE_SIZE_MB", 5),
		},
		Scheduler: SchedulerConfig{
			MaxWorkers: getEnvInt("MAX_WORKERS", 3),
		},
		Admin: AdminConfig{
			Token: getEnv("ADMIN_TOKEN", ""),
		},
	}

	if cfg.Storage.ArtifactBucket == "" {
		return nil, fmt.Errorf("fatal_config: ARTIFACT_BUCKET is required")
	}
	if cfg.Storage.ManifestBucket == "" {
		return nil, fmt.Errorf("fatal_config: MANIFEST_BUCKET is required")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}
