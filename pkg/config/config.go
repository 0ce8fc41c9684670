package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Storage  StorageConfig
	LLM      LLMConfig
	STT      STTConfig
	Analysis AnalysisConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port            string   `envconfig:"PORT" default:"8080"`
	Host            string   `envconfig:"HOST" default:"0.0.0.0"`
	Environment     string   `envconfig:"ENVIRONMENT" default:"development"`
	AllowedOrigins  []string `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:3000"`
	ShutdownTimeout int      `envconfig:"SHUTDOWN_TIMEOUT" default:"10"`
	AuthEnabled     bool     `envconfig:"AUTH_ENABLED" default:"false"`
	MaxUploadMB     int64    `envconfig:"MAX_UPLOAD_MB" default:"512"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host        string `envconfig:"DB_HOST" default:"localhost"`
	Port        string `envconfig:"DB_PORT" default:"5432"`
	User        string `envconfig:"DB_USER" default:"postgres"`
	Password    string `envconfig:"DB_PASSWORD" default:"postgres"`
	Name        string `envconfig:"DB_NAME" default:"atc_shifts"`
	SSLMode     string `envconfig:"DB_SSLMODE" default:"disable"`
	MaxConns    int    `envconfig:"DB_MAX_CONNS" default:"25"`
	MinConns    int    `envconfig:"DB_MIN_CONNS" default:"5"`
	AutoMigrate bool   `envconfig:"DB_AUTO_MIGRATE" default:"false"`
}

// RedisConfig holds Redis configuration for the report cache
type RedisConfig struct {
	Enabled   bool          `envconfig:"REDIS_ENABLED" default:"false"`
	Host      string        `envconfig:"REDIS_HOST" default:"localhost"`
	Port      string        `envconfig:"REDIS_PORT" default:"6379"`
	Password  string        `envconfig:"REDIS_PASSWORD" default:""`
	DB        int           `envconfig:"REDIS_DB" default:"0"`
	ReportTTL time.Duration `envconfig:"REDIS_REPORT_TTL" default:"10m"`
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	AccessSecret string        `envconfig:"JWT_ACCESS_SECRET" default:"your-access-secret-change-in-production"`
	AccessExpiry time.Duration `envconfig:"JWT_ACCESS_EXPIRY" default:"12h"`
	Issuer       string        `envconfig:"JWT_ISSUER" default:"atc-shift-analyzer"`
}

// StorageConfig holds object storage configuration for uploaded shift audio
type StorageConfig struct {
	Enabled         bool   `envconfig:"STORAGE_ENABLED" default:"true"`
	Endpoint        string `envconfig:"STORAGE_ENDPOINT" default:"localhost:9000"`
	AccessKeyID     string `envconfig:"STORAGE_ACCESS_KEY" default:"minioadmin"`
	SecretAccessKey string `envconfig:"STORAGE_SECRET_KEY" default:"minioadmin"`
	BucketName      string `envconfig:"STORAGE_BUCKET" default:"shift-audio"`
	UseSSL          bool   `envconfig:"STORAGE_USE_SSL" default:"false"`
	LocalDir        string `envconfig:"STORAGE_LOCAL_DIR" default:"./data/audio"`
}

// LLMConfig holds text-completion backend configuration
type LLMConfig struct {
	Provider    string        `envconfig:"LLM_PROVIDER" default:"ollama"` // "ollama" or "groq"
	BaseURL     string        `envconfig:"LLM_BASE_URL" default:"http://localhost:11434"`
	Model       string        `envconfig:"LLM_MODEL" default:"llama3.2:3b"`
	APIKey      string        `envconfig:"LLM_API_KEY" default:""`
	Timeout     time.Duration `envconfig:"LLM_TIMEOUT" default:"120s"`
	Temperature float64       `envconfig:"LLM_TEMPERATURE" default:"0.2"`
}

// STTConfig holds speech-to-text and chunking configuration
type STTConfig struct {
	Backend          string        `envconfig:"STT_BACKEND" default:"whisper"` // "whisper" or "assemblyai"
	WhisperURL       string        `envconfig:"STT_WHISPER_URL" default:"http://localhost:9000"`
	WhisperModel     string        `envconfig:"STT_WHISPER_MODEL" default:"base"`
	AssemblyAIAPIKey string        `envconfig:"STT_ASSEMBLYAI_API_KEY" default:""`
	Language         string        `envconfig:"STT_LANGUAGE" default:"en"`
	DefaultSpeaker   string        `envconfig:"STT_DEFAULT_SPEAKER" default:"controller"`
	ChunkSeconds     int           `envconfig:"STT_CHUNK_SECONDS" default:"180"`
	SampleRate       int           `envconfig:"STT_SAMPLE_RATE" default:"16000"`
	FFmpegPath       string        `envconfig:"STT_FFMPEG_PATH" default:"ffmpeg"`
	Workers          int           `envconfig:"STT_WORKERS" default:"2"`
	Timeout          time.Duration `envconfig:"STT_TIMEOUT" default:"30m"`
}

// AnalysisConfig holds pipeline tuning
type AnalysisConfig struct {
	SampleCount      int           `envconfig:"ANALYSIS_SAMPLE_COUNT" default:"10"`
	DefaultDutyHours float64       `envconfig:"ANALYSIS_DEFAULT_DUTY_HOURS" default:"8.0"`
	AutoRun          bool          `envconfig:"ANALYSIS_AUTO_RUN" default:"false"`
	StaleAfter       time.Duration `envconfig:"ANALYSIS_STALE_AFTER" default:"30m"`
	SweepInterval    time.Duration `envconfig:"ANALYSIS_SWEEP_INTERVAL" default:"5m"`
}

// sections lists every config section; each field carries its full variable name
func (c *Config) sections() []interface{} {
	return []interface{}{
		&c.Server,
		&c.Database,
		&c.Redis,
		&c.JWT,
		&c.Storage,
		&c.LLM,
		&c.STT,
		&c.Analysis,
	}
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables or defaults")
	}

	config := &Config{}
	for _, section := range config.sections() {
		if err := envconfig.Process("", section); err != nil {
			return nil, fmt.Errorf("failed to process config: %w", err)
		}
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case "ollama":
	case "groq":
		if c.LLM.APIKey == "" {
			return fmt.Errorf("LLM_API_KEY is required for the groq provider")
		}
	default:
		return fmt.Errorf("unsupported LLM_PROVIDER %q", c.LLM.Provider)
	}

	switch c.STT.Backend {
	case "whisper":
	case "assemblyai":
		if c.STT.AssemblyAIAPIKey == "" {
			return fmt.Errorf("STT_ASSEMBLYAI_API_KEY is required for the assemblyai backend")
		}
	default:
		return fmt.Errorf("unsupported STT_BACKEND %q", c.STT.Backend)
	}

	if c.STT.ChunkSeconds <= 0 {
		return fmt.Errorf("STT_CHUNK_SECONDS must be positive")
	}
	if c.STT.Workers <= 0 {
		return fmt.Errorf("STT_WORKERS must be positive")
	}
	if c.Analysis.SampleCount <= 0 {
		return fmt.Errorf("ANALYSIS_SAMPLE_COUNT must be positive")
	}
	if c.LLM.Timeout <= 0 {
		return fmt.Errorf("LLM_TIMEOUT must be positive")
	}
	if c.Server.AuthEnabled && c.Server.Environment == "production" &&
		c.JWT.AccessSecret == "your-access-secret-change-in-production" {
		return fmt.Errorf("JWT_ACCESS_SECRET must be set in production")
	}
	return nil
}

// GetDatabaseDSN returns the database connection string
func (c *Config) GetDatabaseDSN() string {
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
