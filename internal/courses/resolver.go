// Package courses は集約対象コースのスコープ解決を提供する。
// Canvasのダッシュボードカード一覧を唯一の情報源とする。
package courses

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/hitoshi/canvasman/internal/model"
)

// defaultPerPage はCanvas API一覧取得の1ページあたりの件数。
const defaultPerPage = "100"

// Gateway はスコープ解決が必要とするCanvas APIゲートウェイのインターフェース。
// canvas.Clientの部分集合として定義する。
type Gateway interface {
	Get(ctx context.Context, path string, query url.Values) (json.RawMessage, error)
}

// Resolver はコーススコープの解決を行う。
// ダッシュボードカードの取得に失敗した場合、失敗はそのまま呼び出し側へ
// 伝搬される（部分結果やキャッシュは返さない）。
type Resolver struct {
	gateway Gateway
	logger  *slog.Logger
}

// NewResolver はResolverの新しいインスタンスを生成する。
func NewResolver(gateway Gateway, logger *slog.Logger) *Resolver {
	return &Resolver{
		gateway: gateway,
		logger:  logger,
	}
}

// dashboardCard はダッシュボードカードのレスポンス形状のうち必要な部分。
type dashboardCard struct {
	ID        int    `json:"id"`
	ShortName string `json:"shortName"`
}

// Resolve は操作対象のコース集合を順序付きで解決する。
//   - prefixが非空の場合、表示名（shortName）がprefixで始まるカードのみを残す。
//     リテラルな大文字小文字区別の前方一致であり、パターンマッチではない。
//     相対順序は保持され、再ソートは行わない。prefixが指定された場合、capは無視される
//     （明示的なスコープ指定がサイズ制限に優先する）。
//   - prefixが空でcap > 0の場合、ダッシュボード順の先頭cap件に切り詰める。
func (r *Resolver) Resolve(ctx context.Context, prefix string, maxCourses int) ([]model.Course, error) {
	query := url.Values{}
	query.Set("per_page", defaultPerPage)

	raw, err := r.gateway.Get(ctx, "/api/v1/dashboard/dashboard_cards", query)
	if err != nil {
		return nil, err
	}

	var cards []dashboardCard
	if err := json.Unmarshal(raw, &cards); err != nil {
		return nil, fmt.Errorf("ダッシュボードカードのパースに失敗しました: %w", err)
	}

	result := make([]model.Course, 0, len(cards))
	for _, card := range cards {
		if prefix != "" && !strings.HasPrefix(card.ShortName, prefix) {
			continue
		}
		result = append(result, model.Course{ID: card.ID, Name: card.ShortName})
	}

	if prefix == "" && maxCourses > 0 && len(result) > maxCourses {
		result = result[:maxCourses]
	}

	r.logger.Info("コーススコープを解決しました",
		slog.Int("card_count", len(cards)),
		slog.Int("resolved_count", len(result)),
		slog.String("term_prefix", prefix),
	)

	return result, nil
}

// ListRaw はコース一覧をフィルタなしでそのまま返す。
func (r *Resolver) ListRaw(ctx context.Context) (json.RawMessage, error) {
	query := url.Values{}
	query.Set("per_page", defaultPerPage)
	return r.gateway.Get(ctx, "/api/v1/courses", query)
}
