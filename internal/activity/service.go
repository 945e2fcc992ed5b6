// Package activity は学習アクティビティの取得・正規化・分類を提供する。
// コース単位のフェッチャー（課題・お知らせ・プランナー項目）と、
// それらをコース横断で集約する公開操作を含む。
package activity

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/hitoshi/canvasman/internal/aggregate"
	"github.com/hitoshi/canvasman/internal/model"
	"github.com/hitoshi/canvasman/internal/window"
)

// defaultPerPage はCanvas API一覧取得のデフォルトページサイズ。
const defaultPerPage = 100

// Gateway はフェッチャーが必要とするCanvas APIゲートウェイのインターフェース。
// canvas.Clientの部分集合として定義する。
type Gateway interface {
	Get(ctx context.Context, path string, query url.Values) (json.RawMessage, error)
	ResolveURL(raw string) string
}

// ScopeResolver はコーススコープ解決のインターフェース。
type ScopeResolver interface {
	Resolve(ctx context.Context, prefix string, maxCourses int) ([]model.Course, error)
}

// BodyFilter はお知らせ本文の変換インターフェース。
// security.ContentSanitizerServiceの部分集合として定義する。
type BodyFilter interface {
	Sanitize(rawHTML string) string
	ExtractText(rawHTML string) string
}

// MetricsRecorder は正規化で破棄されたレコードのメトリクス記録インターフェース。
type MetricsRecorder interface {
	RecordDroppedRecord(source string)
}

// Service はアクティビティ集約の操作を提供する。
// リクエスト間で状態を保持せず、全ての操作は入力と現在時刻の純関数である。
type Service struct {
	gateway        Gateway
	resolver       ScopeResolver
	bodies         BodyFilter
	logger         *slog.Logger
	metrics        MetricsRecorder
	maxConcurrency int
	now            func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
// metricsはnilでもよい。maxConcurrencyが0以下の場合はaggregate側のデフォルトを使う。
func NewService(gateway Gateway, resolver ScopeResolver, bodies BodyFilter, logger *slog.Logger, metrics MetricsRecorder, maxConcurrency int) *Service {
	return &Service{
		gateway:        gateway,
		resolver:       resolver,
		bodies:         bodies,
		logger:         logger,
		metrics:        metrics,
		maxConcurrency: maxConcurrency,
		now:            time.Now,
	}
}

// WithClock は現在時刻の取得関数を差し替えたServiceを返す。テスト用。
func (s *Service) WithClock(now func() time.Time) *Service {
	clone := *s
	clone.now = now
	return &clone
}

// recordDropped は破棄レコードをメトリクスに記録する。
func (s *Service) recordDropped(source string) {
	if s.metrics != nil {
		s.metrics.RecordDroppedRecord(source)
	}
}

// --- コース単位のフェッチャー ---
// 各フェッチャーは互いに独立であり、あるコースのお知らせ取得の失敗が
// 同じコースや他コースの課題取得を妨げることはない。

// fetchCourseAssignments は1コース分の課題を取得・正規化・分類する。
func (s *Service) fetchCourseAssignments(ctx context.Context, course model.Course, now, end time.Time, includeOverdue bool) ([]model.AssignmentItem, error) {
	query := url.Values{}
	query.Set("per_page", strconv.Itoa(defaultPerPage))
	query.Add("include[]", "submission")

	raw, err := s.gateway.Get(ctx, fmt.Sprintf("/api/v1/courses/%d/assignments", course.ID), query)
	if err != nil {
		return nil, err
	}

	var assignments []rawAssignment
	if err := json.Unmarshal(raw, &assignments); err != nil {
		return nil, fmt.Errorf("課題一覧のパースに失敗しました: %w", err)
	}

	results := make([]model.AssignmentItem, 0, len(assignments))
	for _, a := range assignments {
		item := normalizeAssignment(a, course, now, end, includeOverdue, s.gateway.ResolveURL)
		if item == nil {
			continue
		}
		results = append(results, *item)
	}

	return results, nil
}

// fetchAnnouncements は1コース分のお知らせを取得・正規化し、窓で絞り込む。
func (s *Service) fetchAnnouncements(ctx context.Context, course model.Course, win window.Window, includeBody bool) ([]model.AnnouncementItem, error) {
	query := url.Values{}
	query.Set("only_announcements", "true")
	query.Set("per_page", strconv.Itoa(defaultPerPage))

	raw, err := s.gateway.Get(ctx, fmt.Sprintf("/api/v1/courses/%d/discussion_topics", course.ID), query)
	if err != nil {
		return nil, err
	}

	var topics []rawDiscussionTopic
	if err := json.Unmarshal(raw, &topics); err != nil {
		return nil, fmt.Errorf("お知らせ一覧のパースに失敗しました: %w", err)
	}

	var bodies BodyFilter
	if includeBody {
		bodies = s.bodies
	}

	results := make([]model.AnnouncementItem, 0, len(topics))
	for _, t := range topics {
		item := normalizeAnnouncement(t, course, bodies, s.gateway.ResolveURL)
		if item == nil {
			s.recordDropped("announcement")
			continue
		}
		if !win.Contains(item.PostedAt) {
			continue
		}
		results = append(results, *item)
	}

	return results, nil
}

// fetchPlannerItems はプランナー項目を取得・正規化し、窓で絞り込む。
// courseがnilでない場合はcontext_codesでそのコースに限定する。
// nilの場合は全コース横断のグローバル取得となる。
func (s *Service) fetchPlannerItems(ctx context.Context, course *model.Course, win window.Window, perPage int) ([]model.ActivityItem, error) {
	if perPage <= 0 {
		perPage = defaultPerPage
	}

	query := url.Values{}
	query.Set("start_date", win.WireStart())
	query.Set("end_date", win.WireEnd())
	query.Set("per_page", strconv.Itoa(perPage))
	if course != nil {
		query.Add("context_codes[]", fmt.Sprintf("course_%d", course.ID))
	}

	raw, err := s.gateway.Get(ctx, "/api/v1/planner/items", query)
	if err != nil {
		return nil, err
	}

	var items []rawPlannerItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("プランナー項目のパースに失敗しました: %w", err)
	}

	results := make([]model.ActivityItem, 0, len(items))
	for _, it := range items {
		item, ok := normalizePlannerItem(it, s.gateway.ResolveURL)
		if !ok {
			s.recordDropped("planner_item")
			continue
		}
		// リモート側も日付で絞るが、閉区間ポリシーはローカルでも適用する
		if !win.Contains(item.Timestamp) {
			continue
		}
		// コース限定取得でコース名が欠けている場合は補完する
		if course != nil && item.CourseName == "" {
			item.CourseName = course.Name
		}
		results = append(results, item)
	}

	return results, nil
}

// --- ソートキー ---

// lessAssignments は課題の全体ソートキー。
// 期限切れ項目が先、各グループ内は期限の昇順。
func lessAssignments(a, b model.AssignmentItem) bool {
	if a.IsOverdue != b.IsOverdue {
		return a.IsOverdue
	}
	return a.DueAt.Before(b.DueAt)
}

// moreRecentAnnouncement はお知らせの新しい順ソートキー。
func moreRecentAnnouncement(a, b model.AnnouncementItem) bool {
	return a.PostedAt.After(b.PostedAt)
}

// lessActivityByDate はアクティビティ項目の日付昇順ソートキー。
func lessActivityByDate(a, b model.ActivityItem) bool {
	return a.Timestamp.Before(b.Timestamp)
}

// moreRecentGraded は採点済み項目の新しい順ソートキー。
func moreRecentGraded(a, b model.GradedItem) bool {
	return a.GradePostedAt.After(b.GradePostedAt)
}

// gradedFromActivity は採点済みプランナー項目からGradedItemを導出する。
// 採点の掲示時刻は提出状況のposted_atを優先し、なければ項目の計画日時を使う。
func gradedFromActivity(item model.ActivityItem) model.GradedItem {
	postedAt := item.Timestamp
	if item.Submission != nil && item.Submission.PostedAt != nil {
		postedAt = *item.Submission.PostedAt
	}
	return model.GradedItem{
		PlannableType: string(item.Kind),
		CourseID:      item.CourseID,
		CourseName:    item.CourseName,
		ID:            item.ItemID,
		Title:         item.Title,
		GradePostedAt: postedAt,
		HTMLURL:       item.HTMLURL,
		Submission:    *item.Submission,
	}
}

// --- 公開操作 ---

// CourseAssignments は1コースの「今後および期限切れ」の課題ビューを返す。
// ソート済み（期限切れが先、期限の昇順）。
func (s *Service) CourseAssignments(ctx context.Context, courseID, daysAhead int, includeOverdue bool) ([]model.AssignmentItem, error) {
	now := s.now().UTC()
	win := window.FromOffsets(now, daysAhead, 0, window.UnitDay)

	items, err := s.fetchCourseAssignments(ctx, model.Course{ID: courseID}, now, win.End, includeOverdue)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(items, func(a, b int) bool {
		return lessAssignments(items[a], items[b])
	})
	return items, nil
}

// UpcomingParams はUpcomingAssignmentsのパラメータ。
type UpcomingParams struct {
	DaysAhead      int
	IncludeOverdue bool
	TermPrefix     string
	MaxCourses     int
}

// UpcomingAssignments は解決済みスコープ横断のマージ済み課題ビューを返す。
// スコープ解決の失敗のみが操作全体の失敗となる。
func (s *Service) UpcomingAssignments(ctx context.Context, p UpcomingParams) ([]model.AssignmentItem, error) {
	scope, err := s.resolver.Resolve(ctx, p.TermPrefix, p.MaxCourses)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	win := window.FromOffsets(now, p.DaysAhead, 0, window.UnitDay)

	merged := aggregate.Merge(ctx, s.logger, scope,
		func(ctx context.Context, c model.Course) ([]model.AssignmentItem, error) {
			return s.fetchCourseAssignments(ctx, c, now, win.End, p.IncludeOverdue)
		},
		aggregate.Options[model.AssignmentItem]{
			MaxConcurrency: s.maxConcurrency,
			Less:           lessAssignments,
		},
	)

	return merged, nil
}

// AnnouncementParams はRecentAnnouncementsのパラメータ。
type AnnouncementParams struct {
	DaysBack    int
	TermPrefix  string
	MaxCourses  int
	PerCourse   int
	IncludeBody bool
}

// RecentAnnouncements はスコープ横断の直近お知らせビューを返す。
// コースごとにPerCourse件へ切り詰めた上で、新しい順にマージされる。
func (s *Service) RecentAnnouncements(ctx context.Context, p AnnouncementParams) ([]model.AnnouncementItem, error) {
	scope, err := s.resolver.Resolve(ctx, p.TermPrefix, p.MaxCourses)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	win := window.FromOffsets(now, 0, p.DaysBack, window.UnitDay)

	return s.AnnouncementsInWindow(ctx, scope, win, p.PerCourse, p.IncludeBody), nil
}

// AnnouncementsInWindow は解決済みスコープのお知らせを集約する。
// サマリー合成からも使用される。
func (s *Service) AnnouncementsInWindow(ctx context.Context, scope []model.Course, win window.Window, perCourse int, includeBody bool) []model.AnnouncementItem {
	return aggregate.Merge(ctx, s.logger, scope,
		func(ctx context.Context, c model.Course) ([]model.AnnouncementItem, error) {
			return s.fetchAnnouncements(ctx, c, win, includeBody)
		},
		aggregate.Options[model.AnnouncementItem]{
			MaxConcurrency: s.maxConcurrency,
			PerCourseCap:   perCourse,
			PerCourseLess:  moreRecentAnnouncement,
			Less:           moreRecentAnnouncement,
		},
	)
}

// WeekAhead はグローバルなプランナービューを日付昇順で返す。
// パラメータにコーススコープを持たないため、スコープ解決は行わず
// プランナーを1回だけグローバルに取得する。この取得の失敗は
// 操作全体の失敗として伝搬される。
func (s *Service) WeekAhead(ctx context.Context, daysAhead, daysBack, perPage int) ([]model.ActivityItem, error) {
	now := s.now().UTC()
	win := window.FromOffsets(now, daysAhead, daysBack, window.UnitDay)

	items, err := s.fetchPlannerItems(ctx, nil, win, perPage)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(items, func(a, b int) bool {
		return lessActivityByDate(items[a], items[b])
	})
	return items, nil
}

// GradedParams はRecentlyGradedのパラメータ。
type GradedParams struct {
	DaysBack         int
	TermPrefix       string
	MaxCourses       int
	PerPage          int
	OnlyWithFeedback bool
}

// RecentlyGraded はスコープ横断の採点済み項目を新しい順で返す。
func (s *Service) RecentlyGraded(ctx context.Context, p GradedParams) ([]model.GradedItem, error) {
	scope, err := s.resolver.Resolve(ctx, p.TermPrefix, p.MaxCourses)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	win := window.FromOffsets(now, 0, p.DaysBack, window.UnitDay)

	return s.GradedInWindow(ctx, scope, win, p.PerPage, p.OnlyWithFeedback), nil
}

// GradedInWindow は解決済みスコープの採点済み項目を集約する。
func (s *Service) GradedInWindow(ctx context.Context, scope []model.Course, win window.Window, perPage int, onlyWithFeedback bool) []model.GradedItem {
	return aggregate.Merge(ctx, s.logger, scope,
		func(ctx context.Context, c model.Course) ([]model.GradedItem, error) {
			items, err := s.fetchPlannerItems(ctx, &c, win, perPage)
			if err != nil {
				return nil, err
			}
			graded := make([]model.GradedItem, 0)
			for _, item := range items {
				if item.Submission == nil || !IsGraded(*item.Submission) {
					continue
				}
				if !PassesFeedbackFilter(*item.Submission, onlyWithFeedback) {
					continue
				}
				graded = append(graded, gradedFromActivity(item))
			}
			return graded, nil
		},
		aggregate.Options[model.GradedItem]{
			MaxConcurrency: s.maxConcurrency,
			Less:           moreRecentGraded,
		},
	)
}

// PlannerInWindow は解決済みスコープのプランナー項目を日付昇順で集約する。
func (s *Service) PlannerInWindow(ctx context.Context, scope []model.Course, win window.Window, perPage int) []model.ActivityItem {
	return aggregate.Merge(ctx, s.logger, scope,
		func(ctx context.Context, c model.Course) ([]model.ActivityItem, error) {
			return s.fetchPlannerItems(ctx, &c, win, perPage)
		},
		aggregate.Options[model.ActivityItem]{
			MaxConcurrency: s.maxConcurrency,
			Less:           lessActivityByDate,
		},
	)
}

// OverdueInLookback は解決済みスコープの期限切れ課題をlookbackの範囲で集約する。
// 期限切れ判定済みかつ期限がnow-lookback以降の項目のみを残す。
func (s *Service) OverdueInLookback(ctx context.Context, scope []model.Course, now time.Time, lookback time.Duration) []model.AssignmentItem {
	cutoff := now.Add(-lookback)

	return aggregate.Merge(ctx, s.logger, scope,
		func(ctx context.Context, c model.Course) ([]model.AssignmentItem, error) {
			items, err := s.fetchCourseAssignments(ctx, c, now, now, true)
			if err != nil {
				return nil, err
			}
			overdue := make([]model.AssignmentItem, 0, len(items))
			for _, item := range items {
				if !item.IsOverdue {
					continue
				}
				if item.DueAt.Before(cutoff) {
					continue
				}
				overdue = append(overdue, item)
			}
			return overdue, nil
		},
		aggregate.Options[model.AssignmentItem]{
			MaxConcurrency: s.maxConcurrency,
			Less:           lessAssignments,
		},
	)
}
