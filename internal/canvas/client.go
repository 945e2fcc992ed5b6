// Package canvas はCanvas APIへのゲートウェイクライアントを提供する。
// Bearerトークンによる認証付きGETと、構造化された上流エラーの返却を担う。
// リトライは行わない（必要なら上流側のポリシーとして扱う）。
package canvas

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// maxResponseSize はレスポンスボディの最大読み取りサイズ。
const maxResponseSize = 10 * 1024 * 1024

// UpstreamError はCanvas APIが4xx/5xxを返した場合の構造化エラー。
// ステータス・ボディ・リクエストURLを保持し、そのまま呼び出し側へ伝搬される。
type UpstreamError struct {
	Status int
	Body   string
	URL    string
}

// Error はerrorインターフェースを実装する。
func (e *UpstreamError) Error() string {
	return fmt.Sprintf("canvas APIがステータス %d を返しました: %s", e.Status, e.URL)
}

// MetricsRecorder は上流呼び出しのメトリクス記録インターフェース。
type MetricsRecorder interface {
	RecordUpstreamStatus(statusCode int)
	RecordUpstreamLatency(duration time.Duration)
}

// Client はCanvas APIのゲートウェイクライアント。
// 集約コアは環境変数を直接読まず、構築時に注入された設定のみを使用する。
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	logger     *slog.Logger
	metrics    MetricsRecorder
}

// NewClient はClientの新しいインスタンスを生成する。
// baseURLは末尾スラッシュなしの教育機関URL（例: https://school.instructure.com）。
// metricsはnilでもよい。
func NewClient(httpClient *http.Client, baseURL, token string, logger *slog.Logger, metrics MetricsRecorder) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		logger:     logger,
		metrics:    metrics,
	}
}

// BaseURL は教育機関のベースURLを返す。
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ResolveURL は相対パス（/で始まる）をベースURLで絶対URLに書き換える。
// 既に絶対URLの場合はそのまま、空の場合は空のまま返す。
func (c *Client) ResolveURL(raw string) string {
	if raw == "" {
		return ""
	}
	if strings.HasPrefix(raw, "/") {
		return c.baseURL + raw
	}
	return raw
}

// Get はCanvas APIへ認証付きGETリクエストを発行する。
// 成功時はパース可能なJSONボディを返す。
// ステータスが400以上の場合は*UpstreamErrorを返す。
func (c *Client) Get(ctx context.Context, path string, query url.Values) (json.RawMessage, error) {
	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Canvas APIの呼び出しに失敗しました",
			slog.String("url", reqURL),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("canvas APIの呼び出しに失敗しました: %w", err)
	}
	defer resp.Body.Close()

	duration := time.Since(start)
	if c.metrics != nil {
		c.metrics.RecordUpstreamStatus(resp.StatusCode)
		c.metrics.RecordUpstreamLatency(duration)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("レスポンスボディの読み取りに失敗しました: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		c.logger.Error("Canvas APIがエラーステータスを返しました",
			slog.String("url", reqURL),
			slog.Int("http_status", resp.StatusCode),
			slog.Float64("duration_ms", float64(duration.Milliseconds())),
		)
		return nil, &UpstreamError{
			Status: resp.StatusCode,
			Body:   string(body),
			URL:    reqURL,
		}
	}

	if !json.Valid(body) {
		return nil, fmt.Errorf("canvas APIのレスポンスが有効なJSONではありません: %s", reqURL)
	}

	return json.RawMessage(body), nil
}
