package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the service. Everything comes from
// the environment; there are no CLI flags.
type Config struct {
	Port string

	// Postgres prediction log
	DBHost     string
	DBPort     int
	DBName     string
	DBUser     string
	DBPassword string

	// Model artifact locations
	ScannModelPath   string
	BruteModelPath   string
	RankingModelPath string

	// Approximate index backend
	QdrantHost       string
	QdrantPort       int
	QdrantCollection string

	// Optional retrieval result cache
	RedisAddr         string
	RetrievalCacheTTL time.Duration

	// Base URL advertised to client tooling
	APIBaseURL string

	// Experiment split, e.g. "A:90,B:10"
	ExperimentVariants string

	// Per-call deadlines for model inference and storage writes
	ModelTimeout time.Duration
	StoreTimeout time.Duration
}

// Load reads configuration from environment variables.
func Load() *Config {
	dbPort, _ := strconv.Atoi(getEnv("DB_PORT", "5432"))
	qdrantPort, _ := strconv.Atoi(getEnv("QDRANT_PORT", "6334"))

	return &Config{
		Port:               getEnv("PORT", "8000"),
		DBHost:             os.Getenv("DB_HOST"),
		DBPort:             dbPort,
		DBName:             os.Getenv("DB_NAME"),
		DBUser:             os.Getenv("DB_USER"),
		DBPassword:         os.Getenv("DB_PASSWORD"),
		ScannModelPath:     getEnv("SCANN_MODEL_PATH", "models/scann"),
		BruteModelPath:     getEnv("BRUTE_MODEL_PATH", "models/brute"),
		RankingModelPath:   getEnv("RANKING_MODEL_PATH", "models/ranking"),
		QdrantHost:         os.Getenv("QDRANT_HOST"),
		QdrantPort:         qdrantPort,
		QdrantCollection:   getEnv("QDRANT_COLLECTION", "movie_embeddings"),
		RedisAddr:          os.Getenv("REDIS_ADDR"),
		RetrievalCacheTTL:  getDuration("RETRIEVAL_CACHE_TTL", 5*time.Minute),
		APIBaseURL:         getEnv("API_BASE_URL", "http://localhost:8000"),
		ExperimentVariants: getEnv("EXPERIMENT_VARIANTS", "A:90,B:10"),
		ModelTimeout:       getDuration("MODEL_TIMEOUT", 5*time.Second),
		StoreTimeout:       getDuration("STORE_TIMEOUT", 3*time.Second),
	}
}

// DSN builds the Postgres connection string for the prediction log.
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName,
	)
}

// HasDB reports whether enough database configuration is present to
// attempt a connection.
func (c *Config) HasDB() bool {
	return c.DBHost != "" && c.DBName != "" && c.DBUser != ""
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return d
}
