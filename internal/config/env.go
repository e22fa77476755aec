package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/textsift/textsift/internal/core"
)

type Config struct {
	Port string

	// Extraction defaults; per-request options may override them.
	MaxTextLength      int
	UseMemoryMap       bool
	MemoryMapThreshold int64
	ChunkSize          int
	Workers            int
	ParserPreference   string

	// S3 fetcher; empty access key disables the s3:// scheme.
	AwsAccessKey string
	AwsSecretKey string
	AwsRegion    string
}

// LoadConfig loads the environment variables and returns the config.
func LoadConfig() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:               getEnv("PORT", "8080"),
		MaxTextLength:      getEnvInt("MAX_TEXT_LENGTH", core.DefaultMaxTextLength),
		UseMemoryMap:       getEnvBool("USE_MEMORY_MAP", true),
		MemoryMapThreshold: int64(getEnvInt("MEMORY_MAP_THRESHOLD", core.DefaultMemoryMapThreshold)),
		ChunkSize:          getEnvInt("CHUNK_SIZE", core.DefaultChunkSize),
		Workers:            getEnvInt("WORKERS", 0),
		ParserPreference:   getEnv("PARSER_PREFERENCE", "prefer-native"),
		AwsAccessKey:       getEnv("AWS_ACCESS_KEY", ""),
		AwsSecretKey:       getEnv("AWS_SECRET_KEY", ""),
		AwsRegion:          getEnv("AWS_REGION", "us-east-2"),
	}
}

// Extraction builds the service-wide default extraction config.
func (c *Config) Extraction() core.ExtractionConfig {
	return core.DefaultConfig().
		WithMaxTextLength(c.MaxTextLength).
		WithMemoryMap(c.UseMemoryMap, c.MemoryMapThreshold).
		WithChunkSize(c.ChunkSize).
		WithParallel(true, c.Workers).
		WithParserPreference(parsePreference(c.ParserPreference)).
		Sanitized()
}

func parsePreference(s string) core.ParserPreference {
	switch s {
	case "prefer-bridge":
		return core.PreferBridge
	case "bridge-only":
		return core.BridgeOnly
	default:
		return core.PreferNative
	}
}

// Helper to read environment variables with a default fallback
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, def int) int {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("WARN: %s=%q not an int, using default %d", key, v, def)
		return def
	}
	return n
}

func getEnvBool(key string, def bool) bool {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("WARN: %s=%q not a bool, using default %t", key, v, def)
		return def
	}
	return b
}
