package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Update policies for PUT /api/blogs/:id
const (
	UpdatePolicyOpen          = "open"
	UpdatePolicyAuthenticated = "authenticated"
	UpdatePolicyOwner         = "owner"
)

type Config struct {
	Port                    string
	Env                     string
	MongoURI                string
	MongoDatabase           string
	Secret                  string
	TokenTTL                time.Duration
	UserStore               string
	PostgresURL             string
	RedisAddr               string
	RedisPassword           string
	RedisDB                 int
	CacheTTL                time.Duration
	FirebaseCredentialsPath string
	AuthRateLimitPerMinute  int
	BlogUpdatePolicy        string
	LogLevel                string
	LogPath                 string
	CORSOrigins             []string
}

// Load reads configuration from the environment, after applying a .env file
// when one exists. The database connection string and token secret are required.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:                    getEnv("PORT", "3001"),
		Env:                     getEnv("ENV", "development"),
		MongoURI:                getEnv("MONGODB_URI", ""),
		MongoDatabase:           getEnv("MONGODB_DATABASE", "bloglist"),
		Secret:                  getEnv("SECRET", ""),
		TokenTTL:                getDuration("TOKEN_TTL", 0),
		UserStore:               strings.ToLower(getEnv("USER_STORE", "mongo")),
		PostgresURL:             getEnv("POSTGRES_URL", ""),
		RedisAddr:               getEnv("REDIS_ADDR", ""),
		RedisPassword:           getEnv("REDIS_PASSWORD", ""),
		RedisDB:                 getInt("REDIS_DB", 0),
		CacheTTL:                getDuration("CACHE_TTL", time.Minute),
		FirebaseCredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", ""),
		AuthRateLimitPerMinute:  getInt("AUTH_RATE_LIMIT_PER_MINUTE", 60),
		BlogUpdatePolicy:        strings.ToLower(getEnv("BLOG_UPDATE_POLICY", UpdatePolicyOpen)),
		LogLevel:                getEnv("LOG_LEVEL", "info"),
		LogPath:                 getEnv("LOG_PATH", ""),
		CORSOrigins:             splitList(getEnv("CORS_ORIGINS", "*")),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports the first missing or inconsistent setting
func (c *Config) Validate() error {
	if c.MongoURI == "" {
		return fmt.Errorf("MONGODB_URI environment variable not set")
	}
	if c.Secret == "" {
		return fmt.Errorf("SECRET environment variable not set")
	}
	switch c.UserStore {
	case "mongo":
	case "postgres":
		if c.PostgresURL == "" {
			return fmt.Errorf("POSTGRES_URL environment variable not set (USER_STORE=postgres)")
		}
	default:
		return fmt.Errorf("unknown USER_STORE %q", c.UserStore)
	}
	switch c.BlogUpdatePolicy {
	case UpdatePolicyOpen, UpdatePolicyAuthenticated, UpdatePolicyOwner:
	default:
		return fmt.Errorf("unknown BLOG_UPDATE_POLICY %q", c.BlogUpdatePolicy)
	}
	return nil
}

// IsTest reports whether test-only routes should be mounted
func (c *Config) IsTest() bool {
	return c.Env == "test"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

// getDuration accepts Go durations ("90s") or a bare number of seconds
func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if n, err := strconv.Atoi(value); err == nil {
		return time.Duration(n) * time.Second
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
