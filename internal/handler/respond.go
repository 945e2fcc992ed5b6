package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/hitoshi/canvasman/internal/canvas"
	"github.com/hitoshi/canvasman/internal/middleware"
	"github.com/hitoshi/canvasman/internal/model"
)

// dataResponseBody は成功レスポンスの統一フォーマット。
// エラーレスポンス（middleware.ErrorResponseBody）と対になるokフラグを持つ。
type dataResponseBody struct {
	OK   bool `json:"ok"`
	Data any  `json:"data"`
}

// writeDataResponse は成功レスポンスを統一フォーマットで書き込む。
func writeDataResponse(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(dataResponseBody{
		OK:   true,
		Data: data,
	})
}

// handleServiceError はサービス層のエラーを統一フォーマットで書き込む。
// 上流（Canvas API）の失敗は構造化ペイロードとしてそのまま呼び出し側へ返す。
// それ以外は内部エラーとしてログに記録し、詳細は返さない。
func handleServiceError(w http.ResponseWriter, err error) {
	var upErr *canvas.UpstreamError
	if errors.As(err, &upErr) {
		middleware.WriteUpstreamErrorResponse(w, upErr)
		return
	}

	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	slog.Error("サービス層でエラーが発生しました",
		slog.String("error", err.Error()),
	)
	middleware.WriteInternalServerError(w)
}

// queryInt はクエリパラメータを整数として解釈する。
// 未指定の場合はデフォルト値を返す。形式不正の場合はエラーを返す。
func queryInt(r *http.Request, name string, defaultVal int) (int, *model.APIError) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return defaultVal, nil
	}
	i, err := parseNonNegativeInt(v)
	if err != nil {
		return 0, model.NewInvalidParameterError(name, v)
	}
	return i, nil
}

// parseNonNegativeInt は0以上の整数のみを受け付ける。
func parseNonNegativeInt(v string) (int, error) {
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, err
	}
	if i < 0 {
		return 0, errors.New("negative value")
	}
	return i, nil
}

// queryBool はクエリパラメータを真偽値として解釈する。
// 未指定の場合はデフォルト値を返す。
func queryBool(r *http.Request, name string, defaultVal bool) (bool, *model.APIError) {
	v := r.URL.Query().Get(name)
	switch v {
	case "":
		return defaultVal, nil
	case "true", "1":
		return true, nil
	case "false", "0":
		return false, nil
	default:
		return false, model.NewInvalidParameterError(name, v)
	}
}
