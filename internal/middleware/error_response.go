package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/hitoshi/canvasman/internal/canvas"
	"github.com/hitoshi/canvasman/internal/model"
)

// ErrorResponseBody はAPIエラーレスポンスの統一フォーマット。
// 呼び出し側は明示的なokフラグで成否を判定する。
type ErrorResponseBody struct {
	OK     bool   `json:"ok"`
	Status int    `json:"status"`
	Error  string `json:"error"`
	URL    string `json:"url,omitempty"`
	Code   string `json:"code,omitempty"`
	Action string `json:"action,omitempty"`
}

// WriteErrorResponse は統一エラーフォーマットでHTTPエラーレスポンスを書き込む。
// すべてのAPIエンドポイントで一貫したエラーレスポンスを提供する。
func WriteErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponseBody{
		OK:     false,
		Status: statusCode,
		Error:  apiErr.Message,
		Code:   apiErr.Code,
		Action: apiErr.Action,
	})
}

// WriteUpstreamErrorResponse は上流（Canvas API）の失敗をそのまま呼び出し側へ返す。
// このサービス自身は200で応答し、ボディのok=falseとstatusで上流の失敗を表現する
// （ツール呼び出しのセマンティクス。例外を投げる代わりにフラグを確認させる）。
func WriteUpstreamErrorResponse(w http.ResponseWriter, upErr *canvas.UpstreamError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(ErrorResponseBody{
		OK:     false,
		Status: upErr.Status,
		Error:  upErr.Body,
		URL:    upErr.URL,
		Code:   model.ErrCodeUpstreamError,
	})
}

// WriteInternalServerError は内部サーバーエラーの統一レスポンスを書き込む。
// 詳細はログのみに記録し、呼び出し側には一般的なメッセージを返す。
func WriteInternalServerError(w http.ResponseWriter) {
	WriteErrorResponse(w, http.StatusInternalServerError, model.NewInternalError())
}
