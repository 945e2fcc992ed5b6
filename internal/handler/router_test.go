package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"github.com/hitoshi/canvasman/internal/middleware"
	"github.com/hitoshi/canvasman/internal/model"
	"github.com/hitoshi/canvasman/internal/summary"
)

const testRouterAPIKey = "router-test-key"

// newTestRouter は全ミドルウェアを組んだルーターを生成する。
func newTestRouter(t *testing.T, deps *RouterDeps) http.Handler {
	t.Helper()

	if deps.APIKey == "" {
		deps.APIKey = testRouterAPIKey
	}
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if deps.RateLimiter == nil {
		rl := middleware.NewRateLimiter(middleware.RateLimiterConfig{
			GeneralRate:     rate.Limit(100),
			GeneralBurst:    100,
			ReportRate:      rate.Limit(100),
			ReportBurst:     100,
			CleanupInterval: time.Minute,
		})
		t.Cleanup(rl.Stop)
		deps.RateLimiter = rl
	}
	return NewRouter(deps)
}

func authorizedRequest(path string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("Authorization", "Bearer "+testRouterAPIKey)
	return req
}

func TestRouter_HealthIsUnauthenticated(t *testing.T) {
	router := newTestRouter(t, &RouterDeps{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("ステータスコード = %d, want 200", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("レスポンスのデコードに失敗: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status = %q, want %q", body["status"], "ok")
	}
}

func TestRouter_MetricsIsUnauthenticated(t *testing.T) {
	metricsHandler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("# HELP canvasman_tool_requests_total\n"))
	})
	router := newTestRouter(t, &RouterDeps{MetricsHandler: metricsHandler})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("ステータスコード = %d, want 200", rec.Code)
	}
}

func TestRouter_APIRequiresAuthentication(t *testing.T) {
	called := false
	router := newTestRouter(t, &RouterDeps{
		CourseService: &mockCourseService{
			listRawFn: func(_ context.Context) (json.RawMessage, error) {
				called = true
				return json.RawMessage(`[]`), nil
			},
		},
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/courses", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("ステータスコード = %d, want 401", rec.Code)
	}
	if called {
		t.Error("未認証リクエストでサービスが呼ばれた")
	}
	body := decodeErrorBody(t, rec)
	if body.OK {
		t.Error("ok = true, want false")
	}
	if body.Code != model.ErrCodeUnauthorized {
		t.Errorf("code = %q, want %q", body.Code, model.ErrCodeUnauthorized)
	}
}

func TestRouter_AuthorizedRequestReachesService(t *testing.T) {
	router := newTestRouter(t, &RouterDeps{
		CourseService: &mockCourseService{
			listRawFn: func(_ context.Context) (json.RawMessage, error) {
				return json.RawMessage(`[{"id":101}]`), nil
			},
		},
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authorizedRequest("/api/courses"))

	if rec.Code != http.StatusOK {
		t.Fatalf("ステータスコード = %d, want 200", rec.Code)
	}
	var body struct {
		OK bool `json:"ok"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("レスポンスのデコードに失敗: %v", err)
	}
	if !body.OK {
		t.Error("ok = false, want true")
	}
}

func TestRouter_SummaryUsesReportRateLimit(t *testing.T) {
	// サマリー専用のレート制限を使い切りやすい設定にして、
	// 一般APIは引き続き通ることを確認する。
	rl := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		GeneralRate:     rate.Limit(100),
		GeneralBurst:    100,
		ReportRate:      rate.Limit(0.01),
		ReportBurst:     1,
		CleanupInterval: time.Minute,
	})
	t.Cleanup(rl.Stop)

	router := newTestRouter(t, &RouterDeps{
		RateLimiter: rl,
		CourseService: &mockCourseService{
			listRawFn: func(_ context.Context) (json.RawMessage, error) {
				return json.RawMessage(`[]`), nil
			},
		},
		SummaryService: &mockSummaryService{
			todaySummaryFn: func(_ context.Context, _ summary.Params) (*model.Report, error) {
				return &model.Report{}, nil
			},
		},
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authorizedRequest("/api/summary/today"))
	if rec.Code != http.StatusOK {
		t.Fatalf("1回目のサマリー: ステータスコード = %d, want 200", rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, authorizedRequest("/api/summary/today"))
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("2回目のサマリー: ステータスコード = %d, want 429", rec.Code)
	}

	// 一般APIのレート制限は別枠なので影響を受けない
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, authorizedRequest("/api/courses"))
	if rec.Code != http.StatusOK {
		t.Fatalf("一般API: ステータスコード = %d, want 200", rec.Code)
	}
}

func TestRouter_SecurityHeadersApplied(t *testing.T) {
	router := newTestRouter(t, &RouterDeps{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q, want %q", got, "nosniff")
	}
	if got := rec.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q, want %q", got, "DENY")
	}
}
