package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/canvasman/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	APIKey            string
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	Logger            *slog.Logger

	// サービス
	CourseService   CourseServiceInterface
	ActivityService ActivityServiceInterface
	SummaryService  SummaryServiceInterface

	// 観測
	ToolMetrics    ToolMetrics
	MetricsHandler http.Handler
}

// NewRouter は全ツール操作のルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	CORS → SecurityHeaders → Recovery → Logging → APIKey → RateLimit
//
// ヘルスチェック（/health）とメトリクス（/metrics）は認証ゲートの外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	// 全ルートに効くミドルウェア
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))

	h := NewToolsHandler(deps.CourseService, deps.ActivityService, deps.SummaryService, deps.ToolMetrics)

	// --- 認証不要のルート ---

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: APIKey → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewAPIKeyMiddleware(deps.APIKey))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		r.Route("/api", func(r chi.Router) {
			r.Get("/courses", h.GetCourses)
			r.Get("/dashboard_cards", h.GetDashboardCards)
			r.Get("/courses/{courseID}/assignments", h.GetCourseAssignments)
			r.Get("/assignments/upcoming", h.GetUpcomingAssignments)
			r.Get("/announcements/recent", h.GetRecentAnnouncements)
			r.Get("/week_ahead", h.GetWeekAhead)
			r.Get("/graded/recent", h.GetRecentlyGraded)

			// サマリー合成は全ソースへファンアウトするため専用のレート制限を追加
			r.With(deps.RateLimiter.ReportMiddleware()).Get("/summary/today", h.GetTodaySummary)
		})
	})

	return r
}
