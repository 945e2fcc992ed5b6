// Package app はアプリケーションの初期化と起動を提供する。
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/hitoshi/canvasman/internal/activity"
	"github.com/hitoshi/canvasman/internal/canvas"
	"github.com/hitoshi/canvasman/internal/config"
	"github.com/hitoshi/canvasman/internal/courses"
	"github.com/hitoshi/canvasman/internal/handler"
	"github.com/hitoshi/canvasman/internal/logger"
	"github.com/hitoshi/canvasman/internal/metrics"
	"github.com/hitoshi/canvasman/internal/middleware"
	"github.com/hitoshi/canvasman/internal/security"
	"github.com/hitoshi/canvasman/internal/summary"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("canvas_base_url", cfg.CanvasBaseURL),
	)

	return runServe(cfg)
}

// runServe はAPIサーバーモードで起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンする。
func runServe(cfg *config.Config) error {
	// 1. セキュリティサービスの初期化
	ssrfGuard := security.NewSSRFGuard()
	if err := ssrfGuard.ValidateBaseURL(cfg.CanvasBaseURL); err != nil {
		return fmt.Errorf("invalid CANVAS_BASE_URL: %w", err)
	}
	sanitizer := security.NewContentSanitizer()

	// 2. メトリクスの初期化
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 3. Canvasゲートウェイの初期化
	httpClient := ssrfGuard.NewSafeClient(cfg.CanvasTimeout)
	gateway := canvas.NewClient(httpClient, cfg.CanvasBaseURL, cfg.CanvasAccessToken, slog.Default(), collector)

	// 4. ドメインサービスの初期化
	resolver := courses.NewResolver(gateway, slog.Default())
	activityService := activity.NewService(gateway, resolver, sanitizer, slog.Default(), collector, cfg.FetchMaxConcurrent)
	summaryComposer := summary.NewComposer(activityService, resolver, slog.Default())

	// 5. レート制限の初期化（req/min -> req/sec に変換）
	rateLimiterCfg := middleware.DefaultRateLimiterConfig()
	if cfg.RateLimitGeneral > 0 {
		rateLimiterCfg.GeneralRate = rate.Limit(float64(cfg.RateLimitGeneral) / 60.0)
		rateLimiterCfg.GeneralBurst = cfg.RateLimitGeneral
	}
	if cfg.RateLimitReport > 0 {
		rateLimiterCfg.ReportRate = rate.Limit(float64(cfg.RateLimitReport) / 60.0)
		rateLimiterCfg.ReportBurst = cfg.RateLimitReport
	}
	rateLimiter := middleware.NewRateLimiter(rateLimiterCfg)
	defer rateLimiter.Stop()

	// 6. ルーターの構築
	deps := &handler.RouterDeps{
		APIKey:            cfg.ServiceAPIKey,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rateLimiter,
		Logger:            slog.Default(),

		CourseService:   resolver,
		ActivityService: activityService,
		SummaryService:  summaryComposer,

		ToolMetrics:    collector,
		MetricsHandler: metrics.Handler(registry),
	}

	router := handler.NewRouter(deps)

	// 7. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.CanvasTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}
