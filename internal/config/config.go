package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

type Mode string

const (
	ModeLocal Mode = "local"
	ModeGCP   Mode = "gcp"
)

type Config struct {
	Mode Mode

	Port string

	GCPProjectID     string
	GCPLocation      string
	ModelName        string
	TicketCollection string

	StorageBackend string // "memory" or "firestore"
	UseMockLLM     bool   // true = use mock even on GCP

	// Engine tunables.
	PageSize            int
	NumbersPageSize     int
	HistoryCapacity     int
	DefaultResumeOffset int
	MaxQueryRetries     int
	SessionIdleTTL      time.Duration
	SweepInterval       time.Duration
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getBoolEnv(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if v == "1" || v == "true" || v == "TRUE" {
		return true
	}
	return false
}

func getIntEnv(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func getDurationEnv(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

// Load reads all env vars and builds the config
func Load() *Config {
	modeStr := getEnv("DESKMATE_MODE", "local")
	var mode Mode
	switch modeStr {
	case "gcp":
		mode = ModeGCP
	default:
		mode = ModeLocal
	}

	cfg := &Config{
		Mode: mode,

		Port: getEnv("DESKMATE_PORT", "8080"),

		GCPProjectID:     getEnv("DESKMATE_GCP_PROJECT", ""),
		GCPLocation:      getEnv("DESKMATE_GCP_LOCATION", "us-central1"),
		ModelName:        getEnv("DESKMATE_MODEL_NAME", "gemini-2.5-flash"),
		TicketCollection: getEnv("DESKMATE_TICKET_COLLECTION", "tickets"),

		StorageBackend: getEnv("DESKMATE_STORAGE_BACKEND", "memory"),
		UseMockLLM:     getBoolEnv("DESKMATE_USE_MOCK_LLM", mode == ModeLocal),

		PageSize:            getIntEnv("DESKMATE_PAGE_SIZE", 20),
		NumbersPageSize:     getIntEnv("DESKMATE_NUMBERS_PAGE_SIZE", 50),
		HistoryCapacity:     getIntEnv("DESKMATE_HISTORY_CAPACITY", 10),
		DefaultResumeOffset: getIntEnv("DESKMATE_RESUME_OFFSET", 20),
		MaxQueryRetries:     getIntEnv("DESKMATE_MAX_QUERY_RETRIES", 3),
		SessionIdleTTL:      getDurationEnv("DESKMATE_SESSION_IDLE_TTL", 2*time.Hour),
		SweepInterval:       getDurationEnv("DESKMATE_SWEEP_INTERVAL", 60*time.Minute),
	}

	// Minimal validation in GCP mode
	if cfg.Mode == ModeGCP && cfg.GCPProjectID == "" {
		log.Fatal("DESKMATE_GCP_PROJECT must be set in gcp mode")
	}

	return cfg
}
