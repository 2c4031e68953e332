package config

import (
	"os"
	"strconv"
	"time"
)

// Config is read once at startup; nothing else touches the environment.
type Config struct {
	Port         string
	MongoURI     string
	MongoDB      string
	JWTSecret    string
	RedisAddr    string
	FrontendURL  string
	JudgeURL     string // explicit self-hosted judge endpoint, optional
	JudgeAPIKey  string // RapidAPI key for the hosted endpoint, optional
	JudgeTimeout time.Duration
}

func Load() Config {
	return Config{
		Port:         getenv("PORT", "8080"),
		MongoURI:     os.Getenv("MONGO_URI"),
		MongoDB:      getenv("MONGO_DB", "mulakhat"),
		JWTSecret:    os.Getenv("JWT_SECRET"),
		RedisAddr:    os.Getenv("REDIS_ADDR"),
		FrontendURL:  getenv("FRONTEND_URL", "http://localhost:3000"),
		JudgeURL:     os.Getenv("JUDGE0_API_URL"),
		JudgeAPIKey:  os.Getenv("JUDGE0_API_KEY"),
		JudgeTimeout: getdur("JUDGE0_TIMEOUT_SECONDS", 20*time.Second),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getdur(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return fallback
}
