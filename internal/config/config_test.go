package config

import (
	"testing"
	"time"
)

func setRequiredEnvVars(t *testing.T) {
	t.Helper()
	t.Setenv("CANVAS_BASE_URL", "https://canvas.example.edu")
	t.Setenv("CANVAS_ACCESS_TOKEN", "test-canvas-token")
	t.Setenv("SERVICE_API_KEY", "test-service-api-key")
}

func TestLoad_AllRequiredVarsSet_ReturnsConfig(t *testing.T) {
	setRequiredEnvVars(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.CanvasBaseURL != "https://canvas.example.edu" {
		t.Errorf("CanvasBaseURL = %q, want %q", cfg.CanvasBaseURL, "https://canvas.example.edu")
	}
	if cfg.CanvasAccessToken != "test-canvas-token" {
		t.Errorf("CanvasAccessToken = %q, want %q", cfg.CanvasAccessToken, "test-canvas-token")
	}
	if cfg.ServiceAPIKey != "test-service-api-key" {
		t.Errorf("ServiceAPIKey = %q, want %q", cfg.ServiceAPIKey, "test-service-api-key")
	}
}

func TestLoad_DefaultValues(t *testing.T) {
	setRequiredEnvVars(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	// Canvas defaults
	if cfg.CanvasTimeout != 30*time.Second {
		t.Errorf("CanvasTimeout = %v, want %v", cfg.CanvasTimeout, 30*time.Second)
	}

	// Fetch defaults
	if cfg.FetchMaxConcurrent != 8 {
		t.Errorf("FetchMaxConcurrent = %d, want %d", cfg.FetchMaxConcurrent, 8)
	}

	// Rate limit defaults
	if cfg.RateLimitGeneral != 120 {
		t.Errorf("RateLimitGeneral = %d, want %d", cfg.RateLimitGeneral, 120)
	}
	if cfg.RateLimitReport != 20 {
		t.Errorf("RateLimitReport = %d, want %d", cfg.RateLimitReport, 20)
	}

	// Server defaults
	if cfg.ServerPort != "8080" {
		t.Errorf("ServerPort = %q, want %q", cfg.ServerPort, "8080")
	}
	if cfg.CORSAllowedOrigin != "http://localhost:3000" {
		t.Errorf("CORSAllowedOrigin = %q, want %q", cfg.CORSAllowedOrigin, "http://localhost:3000")
	}
}

func TestLoad_CustomValues(t *testing.T) {
	setRequiredEnvVars(t)

	t.Setenv("CANVAS_TIMEOUT", "10s")
	t.Setenv("FETCH_MAX_CONCURRENT", "4")
	t.Setenv("RATE_LIMIT_GENERAL", "60")
	t.Setenv("RATE_LIMIT_REPORT", "5")
	t.Setenv("SERVER_PORT", "3000")
	t.Setenv("CORS_ALLOWED_ORIGIN", "https://app.example.edu")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.CanvasTimeout != 10*time.Second {
		t.Errorf("CanvasTimeout = %v, want %v", cfg.CanvasTimeout, 10*time.Second)
	}
	if cfg.FetchMaxConcurrent != 4 {
		t.Errorf("FetchMaxConcurrent = %d, want %d", cfg.FetchMaxConcurrent, 4)
	}
	if cfg.RateLimitGeneral != 60 {
		t.Errorf("RateLimitGeneral = %d, want %d", cfg.RateLimitGeneral, 60)
	}
	if cfg.RateLimitReport != 5 {
		t.Errorf("RateLimitReport = %d, want %d", cfg.RateLimitReport, 5)
	}
	if cfg.ServerPort != "3000" {
		t.Errorf("ServerPort = %q, want %q", cfg.ServerPort, "3000")
	}
	if cfg.CORSAllowedOrigin != "https://app.example.edu" {
		t.Errorf("CORSAllowedOrigin = %q, want %q", cfg.CORSAllowedOrigin, "https://app.example.edu")
	}
}

func TestLoad_InvalidIntFallsBackToDefault(t *testing.T) {
	setRequiredEnvVars(t)
	t.Setenv("FETCH_MAX_CONCURRENT", "not-a-number")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.FetchMaxConcurrent != 8 {
		t.Errorf("FetchMaxConcurrent = %d, want default %d", cfg.FetchMaxConcurrent, 8)
	}
}

func TestLoad_MissingCanvasBaseURL_ReturnsError(t *testing.T) {
	setRequiredEnvVars(t)
	t.Setenv("CANVAS_BASE_URL", "")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error for missing CANVAS_BASE_URL, got nil")
	}
}

func TestLoad_MissingCanvasAccessToken_ReturnsError(t *testing.T) {
	setRequiredEnvVars(t)
	t.Setenv("CANVAS_ACCESS_TOKEN", "")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error for missing CANVAS_ACCESS_TOKEN, got nil")
	}
}

func TestLoad_MissingServiceAPIKey_ReturnsError(t *testing.T) {
	setRequiredEnvVars(t)
	t.Setenv("SERVICE_API_KEY", "")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error for missing SERVICE_API_KEY, got nil")
	}
}
