package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
// 集約コアは環境を直接読まず、この値の注入のみを受ける。
type Config struct {
	// Canvas
	CanvasBaseURL     string
	CanvasAccessToken string
	CanvasTimeout     time.Duration

	// Access gate
	ServiceAPIKey string

	// Fetch
	FetchMaxConcurrent int

	// Rate Limit
	RateLimitGeneral int
	RateLimitReport  int

	// Server
	ServerPort string

	// CORS
	CORSAllowedOrigin string
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.CanvasBaseURL = os.Getenv("CANVAS_BASE_URL")
	if cfg.CanvasBaseURL == "" {
		missing = append(missing, "CANVAS_BASE_URL")
	}

	cfg.CanvasAccessToken = os.Getenv("CANVAS_ACCESS_TOKEN")
	if cfg.CanvasAccessToken == "" {
		missing = append(missing, "CANVAS_ACCESS_TOKEN")
	}

	cfg.ServiceAPIKey = os.Getenv("SERVICE_API_KEY")
	if cfg.ServiceAPIKey == "" {
		missing = append(missing, "SERVICE_API_KEY")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.CanvasTimeout = getEnvDuration("CANVAS_TIMEOUT", 30*time.Second)
	cfg.FetchMaxConcurrent = getEnvInt("FETCH_MAX_CONCURRENT", 8)
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitReport = getEnvInt("RATE_LIMIT_REPORT", 20)
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")

	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
