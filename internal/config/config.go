package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DetectorBackend = "backend"
	DetectorLLM     = "llm"
)

type Config struct {
	Port           string
	AllowedOrigins []string
	// Travel-assistant backend
	BackendURL     string
	BackendDirect  bool
	BackendToken   string
	BackendTimeout time.Duration
	// Destination detection: "backend" or "llm"
	Detector          string
	OpenAIAPIKey      string
	Model             string
	DestinationPrompt string
	// Gateway cache; Redis is used when RedisAddr is set
	CacheTTL  time.Duration
	RedisAddr string
	// Messages kept per session transcript, and how long a detected
	// destination stays attached to a session
	SessionHistory        int
	SessionDestinationTTL time.Duration
	LogLevel              string
	LogDevelopment        bool
}

func Load() Config {
	_ = godotenv.Load()
	cfg := Config{
		Port:                  getEnvDefault("PORT", "8080"),
		AllowedOrigins:        getEnvListDefault("ALLOWED_ORIGIN", []string{"*"}),
		BackendURL:            getEnvDefault("BACKEND_URL", "http://localhost:3200"),
		BackendDirect:         getEnvBoolDefault("BACKEND_DIRECT", true),
		BackendToken:          os.Getenv("BACKEND_TOKEN"),
		BackendTimeout:        getEnvDurationDefault("BACKEND_TIMEOUT", 60*time.Second),
		Detector:              strings.ToLower(getEnvDefault("DESTINATION_DETECTOR", DetectorBackend)),
		OpenAIAPIKey:          os.Getenv("OPENAI_API_KEY"),
		Model:                 getEnvDefault("OPENAI_MODEL", "gpt-4o-mini"),
		DestinationPrompt:     getEnvDefault("DESTINATION_PROMPT", "./prompts/destination.yaml"),
		CacheTTL:              getEnvDurationDefault("CACHE_TTL", 10*time.Minute),
		RedisAddr:             os.Getenv("REDIS_ADDR"),
		SessionHistory:        getEnvIntDefault("SESSION_HISTORY", 40),
		SessionDestinationTTL: getEnvDurationDefault("SESSION_DESTINATION_TTL", 30*time.Minute),
		LogLevel:              getEnvDefault("LOG_LEVEL", "info"),
		LogDevelopment:        getEnvBoolDefault("LOG_DEVELOPMENT", false),
	}
	if cfg.Detector == DetectorLLM && cfg.OpenAIAPIKey == "" {
		log.Println("warning: DESTINATION_DETECTOR=llm but OPENAI_API_KEY is not set; detection will fail until provided")
	}
	return cfg
}

func getEnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvListDefault(key string, def []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			s := strings.TrimSpace(p)
			if s != "" {
				out = append(out, s)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return def
}

func getEnvBoolDefault(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getEnvIntDefault(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
		log.Printf("warning: %s=%q is not an integer; using %d", key, v, def)
	}
	return def
}

// getEnvDurationDefault accepts Go durations ("90s") or plain seconds ("90").
func getEnvDurationDefault(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	log.Printf("warning: %s=%q is not a duration; using %s", key, v, def)
	return def
}
