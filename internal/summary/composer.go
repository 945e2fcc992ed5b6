// Package summary は複合デイリーサマリーの合成を提供する。
// 前向き・後ろ向きの2つの独立した窓の上で集約を実行し、
// 件数付きの1つのレポートに組み立てる。
package summary

import (
	"context"
	"log/slog"
	"time"

	"github.com/hitoshi/canvasman/internal/activity"
	"github.com/hitoshi/canvasman/internal/model"
	"github.com/hitoshi/canvasman/internal/window"
)

// overdueLookbackDays は「忘れられた期限切れ課題」の固定の遡り日数。
// 呼び出し側のpast_hoursとは独立した固定ポリシーであり、連動させない。
const overdueLookbackDays = 7

// Params はデイリーサマリーのパラメータ。
type Params struct {
	FutureHours             int
	PastHours               int
	TermPrefix              string
	MaxCourses              int
	PerCourseAnnouncements  int
	IncludeAnnouncementBody bool
	OnlyWithFeedback        bool
	PlannerPerPage          int
}

// Composer はサマリーレポートの合成を行う。
// スコープ解決を1回だけ行い、その上で各集約を実行する。
type Composer struct {
	activity *activity.Service
	resolver activity.ScopeResolver
	logger   *slog.Logger
	now      func() time.Time
}

// NewComposer はComposerの新しいインスタンスを生成する。
func NewComposer(activitySvc *activity.Service, resolver activity.ScopeResolver, logger *slog.Logger) *Composer {
	return &Composer{
		activity: activitySvc,
		resolver: resolver,
		logger:   logger,
		now:      time.Now,
	}
}

// WithClock は現在時刻の取得関数を差し替えたComposerを返す。テスト用。
func (c *Composer) WithClock(now func() time.Time) *Composer {
	clone := *c
	clone.now = now
	return &clone
}

// TodaySummary は複合デイリーサマリーを合成する。
// スコープ解決の失敗のみが操作全体の失敗となる。
// 個別の集約内のコース失敗はスキップされ、レポートは欠けた分を除いて返される。
func (c *Composer) TodaySummary(ctx context.Context, p Params) (*model.Report, error) {
	scope, err := c.resolver.Resolve(ctx, p.TermPrefix, p.MaxCourses)
	if err != nil {
		return nil, err
	}

	now := c.now().UTC()
	futureWin := window.FromOffsets(now, p.FutureHours, 0, window.UnitHour)
	pastWin := window.FromOffsets(now, 0, p.PastHours, window.UnitHour)

	// 期限・イベント: 前向き窓のプランナー項目をkindで分離する。
	// 提出済みの期限は行動可能でないため、窓内であっても除外する
	// （優先度を下げるのではなく、落とす）。
	planner := c.activity.PlannerInWindow(ctx, scope, futureWin, p.PlannerPerPage)

	deadlines := make([]model.ActivityItem, 0, len(planner))
	events := make([]model.ActivityItem, 0)
	for _, item := range planner {
		if item.Kind == model.ItemKindCalendarEvent {
			events = append(events, item)
			continue
		}
		if item.Submission != nil && item.Submission.Submitted {
			continue
		}
		deadlines = append(deadlines, item)
	}

	announcements := c.activity.AnnouncementsInWindow(ctx, scope, pastWin, p.PerCourseAnnouncements, p.IncludeAnnouncementBody)
	graded := c.activity.GradedInWindow(ctx, scope, pastWin, p.PlannerPerPage, p.OnlyWithFeedback)
	overdue := c.activity.OverdueInLookback(ctx, scope, now, overdueLookbackDays*24*time.Hour)

	report := &model.Report{
		GeneratedAt: now,
		Window: model.ReportWindow{
			Past:   window.FormatLocal(pastWin.Start),
			Future: window.FormatLocal(futureWin.End),
		},
		Counts: model.ReportCounts{
			Deadlines:     len(deadlines),
			Events:        len(events),
			Announcements: len(announcements),
			Graded:        len(graded),
			Overdue:       len(overdue),
		},
		Deadlines:     deadlines,
		Events:        events,
		Announcements: announcements,
		Graded:        graded,
		Overdue:       overdue,
	}

	c.logger.Info("デイリーサマリーを合成しました",
		slog.Int("course_count", len(scope)),
		slog.Int("deadlines", report.Counts.Deadlines),
		slog.Int("events", report.Counts.Events),
		slog.Int("announcements", report.Counts.Announcements),
		slog.Int("graded", report.Counts.Graded),
		slog.Int("overdue", report.Counts.Overdue),
	)

	return report, nil
}
