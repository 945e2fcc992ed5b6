package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/hitoshi/canvasman/internal/model"
)

// RateLimiterConfig はレート制限の設定を保持する。
type RateLimiterConfig struct {
	GeneralRate     rate.Limit    // API全般のレート（req/sec）。120/60 = 2 req/sec
	GeneralBurst    int           // API全般のバーストサイズ
	ReportRate      rate.Limit    // サマリー合成のレート（req/sec）。20/60
	ReportBurst     int           // サマリー合成のバーストサイズ
	CleanupInterval time.Duration // 期限切れエントリのクリーンアップ間隔
}

// DefaultRateLimiterConfig はデフォルトのレート制限設定を返す。
// API全般 120 req/min、サマリー合成 20 req/min（全ソースへファンアウトするため重い）
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		GeneralRate:     rate.Limit(120.0 / 60.0), // 2 req/sec
		GeneralBurst:    120,
		ReportRate:      rate.Limit(20.0 / 60.0), // ~0.33 req/sec
		ReportBurst:     20,
		CleanupInterval: 5 * time.Minute,
	}
}

// clientLimiter はクライアントごとのレートリミッターとアクセス時刻を保持する。
type clientLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// RateLimiter はクライアント（リモートIP）ごとのレート制限を管理する。
// API全般のレート制限とサマリー合成のレート制限の2種類を提供する。
type RateLimiter struct {
	config RateLimiterConfig

	generalMu       sync.RWMutex
	generalLimiters map[string]*clientLimiter

	reportMu       sync.RWMutex
	reportLimiters map[string]*clientLimiter

	stopCh chan struct{}
}

// NewRateLimiter は新しいRateLimiterを生成する。
// バックグラウンドで期限切れエントリのクリーンアップを開始する。
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	rl := &RateLimiter{
		config:          config,
		generalLimiters: make(map[string]*clientLimiter),
		reportLimiters:  make(map[string]*clientLimiter),
		stopCh:          make(chan struct{}),
	}

	go rl.cleanupLoop()

	return rl
}

// Stop はクリーンアップのバックグラウンドゴルーチンを停止する。
func (rl *RateLimiter) Stop() {
	close(rl.stopCh)
}

// GeneralMiddleware はAPI全般のレート制限ミドルウェアを返す。
func (rl *RateLimiter) GeneralMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			client := clientKey(r)
			limiter := rl.getOrCreateGeneralLimiter(client)

			if !limiter.Allow() {
				writeRateLimitResponse(w)
				slog.Warn("rate limit exceeded",
					slog.String("client", client),
					slog.String("limit_type", "general"),
				)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ReportMiddleware はサマリー合成専用のレート制限ミドルウェアを返す。
// API全般のレート制限とは独立に動作する。
func (rl *RateLimiter) ReportMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			client := clientKey(r)
			limiter := rl.getOrCreateReportLimiter(client)

			if !limiter.Allow() {
				writeRateLimitResponse(w)
				slog.Warn("rate limit exceeded",
					slog.String("client", client),
					slog.String("limit_type", "report"),
				)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// GeneralLimiterCount は現在管理されているAPI全般リミッターのエントリ数を返す。
// テストおよびメトリクス用。
func (rl *RateLimiter) GeneralLimiterCount() int {
	rl.generalMu.RLock()
	defer rl.generalMu.RUnlock()
	return len(rl.generalLimiters)
}

// ReportLimiterCount は現在管理されているサマリー合成リミッターのエントリ数を返す。
// テストおよびメトリクス用。
func (rl *RateLimiter) ReportLimiterCount() int {
	rl.reportMu.RLock()
	defer rl.reportMu.RUnlock()
	return len(rl.reportLimiters)
}

// clientKey はレート制限のキーとなるクライアント識別子を返す。
// 共有シークレット認証のためユーザー単位の識別ができず、リモートIPで代替する。
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// getOrCreateGeneralLimiter はクライアントのAPI全般リミッターを取得または作成する。
func (rl *RateLimiter) getOrCreateGeneralLimiter(client string) *rate.Limiter {
	rl.generalMu.RLock()
	cl, exists := rl.generalLimiters[client]
	rl.generalMu.RUnlock()

	if exists {
		rl.generalMu.Lock()
		cl.lastAccess = time.Now()
		rl.generalMu.Unlock()
		return cl.limiter
	}

	rl.generalMu.Lock()
	defer rl.generalMu.Unlock()

	// ダブルチェック
	if cl, exists := rl.generalLimiters[client]; exists {
		cl.lastAccess = time.Now()
		return cl.limiter
	}

	limiter := rate.NewLimiter(rl.config.GeneralRate, rl.config.GeneralBurst)
	rl.generalLimiters[client] = &clientLimiter{
		limiter:    limiter,
		lastAccess: time.Now(),
	}

	return limiter
}

// getOrCreateReportLimiter はクライアントのサマリー合成リミッターを取得または作成する。
func (rl *RateLimiter) getOrCreateReportLimiter(client string) *rate.Limiter {
	rl.reportMu.RLock()
	cl, exists := rl.reportLimiters[client]
	rl.reportMu.RUnlock()

	if exists {
		rl.reportMu.Lock()
		cl.lastAccess = time.Now()
		rl.reportMu.Unlock()
		return cl.limiter
	}

	rl.reportMu.Lock()
	defer rl.reportMu.Unlock()

	// ダブルチェック
	if cl, exists := rl.reportLimiters[client]; exists {
		cl.lastAccess = time.Now()
		return cl.limiter
	}

	limiter := rate.NewLimiter(rl.config.ReportRate, rl.config.ReportBurst)
	rl.reportLimiters[client] = &clientLimiter{
		limiter:    limiter,
		lastAccess: time.Now(),
	}

	return limiter
}

// cleanupLoop は期限切れエントリを定期的に削除する。
func (rl *RateLimiter) cleanupLoop() {
	interval := rl.config.CleanupInterval
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stopCh:
			return
		case <-ticker.C:
			rl.cleanup()
		}
	}
}

// cleanup はクリーンアップ間隔の2倍を超えてアクセスのないエントリを削除する。
func (rl *RateLimiter) cleanup() {
	expiry := 2 * rl.config.CleanupInterval

	rl.generalMu.Lock()
	for client, cl := range rl.generalLimiters {
		if time.Since(cl.lastAccess) > expiry {
			delete(rl.generalLimiters, client)
		}
	}
	rl.generalMu.Unlock()

	rl.reportMu.Lock()
	for client, cl := range rl.reportLimiters {
		if time.Since(cl.lastAccess) > expiry {
			delete(rl.reportLimiters, client)
		}
	}
	rl.reportMu.Unlock()
}

// writeRateLimitResponse は429レスポンスを統一フォーマットで書き込む。
func writeRateLimitResponse(w http.ResponseWriter) {
	WriteErrorResponse(w, http.StatusTooManyRequests, &model.APIError{
		Code:     "RATE_LIMITED",
		Message:  "リクエスト数が制限を超えています。",
		Category: "validation",
		Action:   "しばらく待ってから再度お試しください。",
	})
}
