// Package aggregate はコース横断のファンアウト集約を提供する。
// 各コースのフェッチを有界の並列度で実行し、コース単位の上限適用・
// マージ・ソートを行う。順序付きの結合はここが唯一の逐次ポイントとなる。
package aggregate

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/hitoshi/canvasman/internal/model"
)

// defaultMaxConcurrency はファンアウトの最大並列数のデフォルト値。
// リモートのレート制限を尊重するための小さな定数。
const defaultMaxConcurrency = 8

// Fetch は1コース分の項目リストを取得する関数。
type Fetch[T any] func(ctx context.Context, course model.Course) ([]T, error)

// Options はMergeの動作を制御する。
type Options[T any] struct {
	// MaxConcurrency はファンアウトの最大並列数。0以下ならデフォルト8。
	MaxConcurrency int
	// PerCourseCap が正の場合、各コースの結果をPerCourseLessでソートした上で
	// 先頭PerCourseCap件に切り詰めてからマージする。
	// 小さな複合窓で単一コースが結果を占有するのを防ぐ。
	PerCourseCap int
	// PerCourseCap適用時のコース内ソートキー（新しい順などの自然な鍵）。
	PerCourseLess func(a, b T) bool
	// Less はマージ後の全体ソートキー。
	Less func(a, b T) bool
}

// Merge は解決済みスコープの各コースに対してfetchを1回ずつ実行し、
// 結果をマージ・ソートして返す。
//
// 個別コースのフェッチ失敗はスキップされ、集約全体は失敗しない
// （ログに記録するのみ）。呼び出し側が完全な失敗を見るのは
// スコープ解決そのものが失敗した場合だけである。
// 並列実行される各フェッチは自分専用のスロットにのみ書き込むため、
// 共有の可変状態は存在しない。
func Merge[T any](ctx context.Context, logger *slog.Logger, courses []model.Course, fetch Fetch[T], opts Options[T]) []T {
	if len(courses) == 0 {
		return []T{}
	}

	maxConcurrency := opts.MaxConcurrency
	if maxConcurrency <= 0 {
		maxConcurrency = defaultMaxConcurrency
	}
	if maxConcurrency > len(courses) {
		maxConcurrency = len(courses)
	}

	// semaphoreパターンで並列数を制御
	sem := make(chan struct{}, maxConcurrency)
	var wg sync.WaitGroup

	perCourse := make([][]T, len(courses))

	for i, course := range courses {
		wg.Add(1)
		sem <- struct{}{} // semaphore取得（ブロック）

		go func(idx int, c model.Course) {
			defer wg.Done()
			defer func() { <-sem }() // semaphore解放

			items, err := fetch(ctx, c)
			if err != nil {
				logger.Warn("コースのフェッチに失敗したためスキップします",
					slog.Int("course_id", c.ID),
					slog.String("course_name", c.Name),
					slog.String("error", err.Error()),
				)
				return
			}
			perCourse[idx] = items
		}(i, course)
	}

	wg.Wait()

	merged := make([]T, 0)
	for _, items := range perCourse {
		if opts.PerCourseCap > 0 && len(items) > opts.PerCourseCap {
			if opts.PerCourseLess != nil {
				sort.SliceStable(items, func(a, b int) bool {
					return opts.PerCourseLess(items[a], items[b])
				})
			}
			items = items[:opts.PerCourseCap]
		}
		merged = append(merged, items...)
	}

	if opts.Less != nil {
		sort.SliceStable(merged, func(a, b int) bool {
			return opts.Less(merged[a], merged[b])
		})
	}

	return merged
}
