package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Ingest   IngestConfig
	Extract  ExtractConfig
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Path        string
	BusyTimeout time.Duration
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	HTTPAddr        string
	ShutdownTimeout time.Duration
}

// IngestConfig holds upload-intake configuration
type IngestConfig struct {
	UploadDir     string
	VendorsConfig string
	MaxUploadSize int64
}

// ExtractConfig holds text-extraction configuration
type ExtractConfig struct {
	Tesseract     string
	TesseractLang string
	Pdftotext     string
	Timeout       time.Duration
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:        getEnv("DB_PATH", "data/receipts.db"),
			BusyTimeout: getEnvAsDuration("DB_BUSY_TIMEOUT", 10*time.Second),
		},
		Server: ServerConfig{
			HTTPAddr:        getEnv("HTTP_ADDR", ":8080"),
			ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Ingest: IngestConfig{
			UploadDir:     getEnv("UPLOAD_DIR", "data/uploads"),
			VendorsConfig: getEnv("VENDORS_CONFIG", ""),
			MaxUploadSize: getEnvAsInt64("MAX_UPLOAD_SIZE", 50<<20),
		},
		Extract: ExtractConfig{
			Tesseract:     getEnv("TESSERACT_BIN", "tesseract"),
			TesseractLang: getEnv("TESSERACT_LANG", "eng"),
			Pdftotext:     getEnv("PDFTOTEXT_BIN", "pdftotext"),
			Timeout:       getEnvAsDuration("EXTRACT_TIMEOUT", 60*time.Second),
		},
	}
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return NewAppError("CONFIG_ERROR", "DB_PATH is required", ErrInvalidInput)
	}
	if c.Server.HTTPAddr == "" {
		return NewAppError("CONFIG_ERROR", "HTTP_ADDR is required", ErrInvalidInput)
	}
	if c.Ingest.UploadDir == "" {
		return NewAppError("CONFIG_ERROR", "UPLOAD_DIR is required", ErrInvalidInput)
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
