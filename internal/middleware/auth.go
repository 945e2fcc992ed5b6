// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hitoshi/canvasman/internal/model"
)

// apiKeyHeaderName はAPIキーを読み取る際の専用ヘッダー名。
const apiKeyHeaderName = "X-Api-Key"

// NewAPIKeyMiddleware は共有シークレットによるアクセスゲートのミドルウェアを返す。
// Authorization: Bearer ヘッダーまたは X-Api-Key ヘッダーの値を
// 定数時間比較で検証する。キーの欠落・不一致はCanvas API呼び出しの前に
// 401で拒否される。
func NewAPIKeyMiddleware(apiKey string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			presented := presentedKey(r)
			if presented == "" {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
				return
			}

			if subtle.ConstantTimeCompare([]byte(presented), []byte(apiKey)) != 1 {
				slog.Warn("APIキーの検証に失敗しました",
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
				)
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// presentedKey はリクエストから提示されたAPIキーを取り出す。
// Bearerトークンを優先し、なければX-Api-Keyヘッダーを参照する。
func presentedKey(r *http.Request) string {
	authz := r.Header.Get("Authorization")
	if strings.HasPrefix(authz, "Bearer ") {
		return strings.TrimPrefix(authz, "Bearer ")
	}
	return r.Header.Get(apiKeyHeaderName)
}
