package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server        ServerConfig
	Storage       StorageConfig
	Extraction    ExtractionConfig
	Observability ObservabilityConfig
}

type ServerConfig struct {
	Host               string
	Port               int
	BaseURL            string
	RateLimitPerSecond int
	RateLimitBurst     int
	MaxUploadBytes     int64
	AllowedOrigins     []string
	ShutdownTimeout    time.Duration
}

type StorageConfig struct {
	BasePath        string
	Retention       time.Duration
	RetentionSpec   string // cron expression for the retention sweep
	RetentionEnable bool
	KeepUploads     bool // store original uploads alongside records
}

type ExtractionConfig struct {
	Workers          int
	PDFToTextPath    string
	TesseractPath    string
	OCRLanguage      string
	ConverterTimeout time.Duration
	RowTolerance     float64 // PDF points within which fragments share a row
}

type ObservabilityConfig struct {
	MetricsEnabled bool
	MetricsPort    int
	LogLevel       string
	LogFormat      string
}

// Load reads configuration from environment variables. A .env file in the
// working directory is loaded first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Host:               getEnv("SERVER_HOST", "localhost"),
			Port:               getEnvAsInt("SERVER_PORT", 8080),
			BaseURL:            getEnv("BASE_URL", "http://localhost:8080"),
			RateLimitPerSecond: getEnvAsInt("SERVER_RATE_LIMIT_PER_SECOND", 20),
			RateLimitBurst:     getEnvAsInt("SERVER_RATE_LIMIT_BURST", 40),
			MaxUploadBytes:     int64(getEnvAsInt("SERVER_MAX_UPLOAD_MB", 20)) << 20,
			AllowedOrigins:     getEnvAsList("SERVER_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
			ShutdownTimeout:    getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 15*time.Second),
		},
		Storage: StorageConfig{
			BasePath:        getEnv("STORAGE_PATH", "./data/conversions"),
			Retention:       getEnvAsDuration("STORAGE_RETENTION", 24*time.Hour),
			RetentionSpec:   getEnv("STORAGE_RETENTION_SCHEDULE", "@every 1h"),
			RetentionEnable: getEnvAsBool("STORAGE_RETENTION_ENABLED", true),
			KeepUploads:     getEnvAsBool("STORAGE_KEEP_UPLOADS", false),
		},
		Extraction: ExtractionConfig{
			Workers:          getEnvAsInt("EXTRACTION_WORKERS", 0),
			PDFToTextPath:    getEnv("PDFTOTEXT_PATH", "pdftotext"),
			TesseractPath:    getEnv("TESSERACT_PATH", "tesseract"),
			OCRLanguage:      getEnv("OCR_LANGUAGE", "eng"),
			ConverterTimeout: getEnvAsDuration("CONVERTER_TIMEOUT", 60*time.Second),
			RowTolerance:     getEnvAsFloat("EXTRACTION_ROW_TOLERANCE", 3),
		},
		Observability: ObservabilityConfig{
			MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
			MetricsPort:    getEnvAsInt("METRICS_PORT", 9090),
			LogLevel:       getEnv("LOG_LEVEL", "info"),
			LogFormat:      getEnv("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that have no safe fallback.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("SERVER_PORT out of range: %d", c.Server.Port))
	}
	if c.Server.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("SERVER_MAX_UPLOAD_MB must be positive"))
	}
	if c.Storage.BasePath == "" {
		errs = append(errs, errors.New("STORAGE_PATH is required"))
	}
	if c.Storage.Retention <= 0 {
		errs = append(errs, errors.New("STORAGE_RETENTION must be positive"))
	}
	if c.Extraction.Workers < 0 {
		errs = append(errs, errors.New("EXTRACTION_WORKERS must not be negative"))
	}
	return errors.Join(errs...)
}

// Addr returns the listen address of the API server
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
