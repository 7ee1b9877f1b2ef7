// Package config handles application configuration via environment variables.
package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Storage backends understood by the application.
const (
	BackendFile     = "file"
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// Config holds all configurable values for the app.
type Config struct {
	Env            string
	HTTPAddr       string
	StorageBackend string
	StorageDir     string
	StorageKey     string
	PostgresDSN    string
	RedisAddr      string
	WriteRetries   int
	WriteBackoff   time.Duration
	LoadTimeout    time.Duration
}

// Load reads environment variables, after an optional .env file, and
// populates a Config struct. Invalid values panic.
func Load() *Config {
	// a missing .env is fine, real environment variables take precedence
	_ = godotenv.Load()

	retries, err := strconv.Atoi(getEnv("WRITE_RETRIES", "3"))
	if err != nil || retries < 1 {
		log.Panicf("Invalid WRITE_RETRIES: %q", os.Getenv("WRITE_RETRIES"))
	}

	backoff, err := time.ParseDuration(getEnv("WRITE_BACKOFF", "200ms"))
	if err != nil {
		log.Panicf("Invalid WRITE_BACKOFF: %v", err)
	}

	loadTimeout, err := time.ParseDuration(getEnv("LOAD_TIMEOUT", "10s"))
	if err != nil || loadTimeout <= 0 {
		log.Panicf("Invalid LOAD_TIMEOUT: %q", os.Getenv("LOAD_TIMEOUT"))
	}

	backend := getEnv("STORAGE_BACKEND", BackendFile)
	switch backend {
	case BackendFile, BackendMemory, BackendPostgres, BackendRedis:
	default:
		log.Panicf("Invalid STORAGE_BACKEND: %q", backend)
	}

	return &Config{
		Env:            getEnv("ENV", "development"),
		HTTPAddr:       getEnv("HTTP_ADDR", ":8080"),
		StorageBackend: backend,
		StorageDir:     getEnv("STORAGE_DIR", "./data"),
		StorageKey:     getEnv("STORAGE_KEY", "meal-storage"),
		PostgresDSN:    getEnv("POSTGRES_DSN", "postgres://localhost:5432/mealbuddy?sslmode=disable"),
		RedisAddr:      getEnv("REDIS_ADDR", "localhost:6379"),
		WriteRetries:   retries,
		WriteBackoff:   backoff,
		LoadTimeout:    loadTimeout,
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
