package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
)

// App holds the runtime configuration loaded from environment variables.
type App struct {
	Env              string
	HTTPPort         string
	APIBaseURL       string
	APITimeout       time.Duration
	WebDir           string
	SessionBackend   string
	StatePath        string
	RedisAddr        string
	MarkQueueBackend string
	MarkWorkers      int
	RateLimitPerMin  int
	LoginRatePerMin  int
	DemoMode         bool
}

// Load returns application config populated from environment variables with
// sensible defaults. A .env file in the working directory is honored when
// present.
func Load() App {
	_ = godotenv.Load()

	return App{
		Env:              getEnv("APP_ENV", "dev"),
		HTTPPort:         getEnv("HTTP_PORT", "8082"),
		APIBaseURL:       getEnv("API_BASE_URL", "http://localhost:8080/api"),
		APITimeout:       durationEnv("API_TIMEOUT", 15*time.Second),
		WebDir:           getEnv("WEB_DIR", "web"),
		SessionBackend:   getEnv("SESSION_BACKEND", "file"),
		StatePath:        getEnv("STATE_PATH", defaultStatePath()),
		RedisAddr:        getEnv("REDIS_ADDR", "localhost:6379"),
		MarkQueueBackend: getEnv("MARK_QUEUE_BACKEND", "memory"),
		MarkWorkers:      intEnv("MARK_WORKERS", 4),
		RateLimitPerMin:  intEnv("RATE_LIMIT_PER_MIN", 240),
		LoginRatePerMin:  intEnv("LOGIN_RATE_PER_MIN", 10),
		DemoMode:         boolEnv("DEMO_MODE", false),
	}
}

// defaultStatePath places the session file under the user config dir,
// falling back to the working directory when that cannot be resolved.
func defaultStatePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".attenddesk.json"
	}
	return filepath.Join(dir, "attenddesk", "session.json")
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		d, err := time.ParseDuration(val)
		if err != nil {
			log.Printf("invalid duration for %s: %v, using fallback %s", key, err, fallback)
			return fallback
		}
		return d
	}
	return fallback
}

func boolEnv(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if val == "1" || val == "true" || val == "TRUE" {
			return true
		}
		if val == "0" || val == "false" || val == "FALSE" {
			return false
		}
		log.Printf("invalid bool for %s, using fallback %v", key, fallback)
	}
	return fallback
}

func intEnv(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		var parsed int
		if _, err := fmt.Sscanf(val, "%d", &parsed); err == nil {
			return parsed
		}
		log.Printf("invalid int for %s, using fallback %d", key, fallback)
	}
	return fallback
}
