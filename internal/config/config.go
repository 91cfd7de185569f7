package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/brnikita/refine-supabase-apps-builder/pkg/constants"
)

// Data backends the engine can run on. Memory keeps everything in process
// (demo, tests); mysql persists apps, blueprints and records.
const (
	BackendMemory = "memory"
	BackendMySQL  = "mysql"
)

// Config is the process configuration, resolved once at startup from the
// environment (with .env support for local development).
type Config struct {
	Port        string
	DataBackend string
	JWTSecret   string

	SessionTTL      time.Duration
	JanitorSchedule string

	DemoSeed bool
	SeedDir  string
}

// Load reads the environment into a Config. Missing keys take defaults;
// nothing here fails, validation happens where the values are consumed.
func Load() *Config {
	LoadDotEnv()

	return &Config{
		Port:            getEnvOrDefault("PORT", "8080"),
		DataBackend:     strings.ToLower(getEnvOrDefault("DATA_BACKEND", BackendMemory)),
		JWTSecret:       os.Getenv("JWT_SECRET"),
		SessionTTL:      time.Duration(getEnvInt("SESSION_TTL_MINUTES", constants.DefaultSessionTTLMinutes)) * time.Minute,
		JanitorSchedule: getEnvOrDefault("JANITOR_SCHEDULE", constants.JanitorSchedule),
		DemoSeed:        getEnvBool("DEMO_SEED", false),
		SeedDir:         os.Getenv("SEED_DIR"),
	}
}

// UseMySQL reports whether the persistent backend is selected.
func (c *Config) UseMySQL() bool {
	return c.DataBackend == BackendMySQL
}

// LoadDotEnv loads the first .env file it finds. The file lives at the
// project root, so candidates walk upward from the working directory.
func LoadDotEnv() {
	paths := []string{".env", "../.env", "../../.env"}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err == nil {
			log.Printf("📁 Loaded .env from %s", p)
			return
		}
	}
}

func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("⚠️ Config: %s=%q is not an integer, using %d", key, v, fallback)
		return fallback
	}
	return n
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("⚠️ Config: %s=%q is not a boolean, using %v", key, v, fallback)
		return fallback
	}
	return b
}
