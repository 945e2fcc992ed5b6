// Package handler はツール操作のHTTPハンドラーとルーティングを提供する。
package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/canvasman/internal/activity"
	"github.com/hitoshi/canvasman/internal/middleware"
	"github.com/hitoshi/canvasman/internal/model"
	"github.com/hitoshi/canvasman/internal/summary"
)

// デフォルトパラメータ
const (
	defaultDaysAhead    = 7
	defaultDaysBack     = 7
	defaultMaxCourses   = 8
	defaultPerCourse    = 5
	defaultPerPage      = 100
	defaultFutureHours  = 48
	defaultPastHours    = 48
)

// CourseServiceInterface はコース操作ハンドラーが必要とするサービスインターフェース。
type CourseServiceInterface interface {
	// ListRaw はコース一覧をフィルタなしでそのまま返す。
	ListRaw(ctx context.Context) (json.RawMessage, error)
	// Resolve は操作対象のコース集合を順序付きで解決する。
	Resolve(ctx context.Context, prefix string, maxCourses int) ([]model.Course, error)
}

// ActivityServiceInterface はアクティビティ操作ハンドラーが必要とするサービスインターフェース。
type ActivityServiceInterface interface {
	CourseAssignments(ctx context.Context, courseID, daysAhead int, includeOverdue bool) ([]model.AssignmentItem, error)
	UpcomingAssignments(ctx context.Context, p activity.UpcomingParams) ([]model.AssignmentItem, error)
	RecentAnnouncements(ctx context.Context, p activity.AnnouncementParams) ([]model.AnnouncementItem, error)
	WeekAhead(ctx context.Context, daysAhead, daysBack, perPage int) ([]model.ActivityItem, error)
	RecentlyGraded(ctx context.Context, p activity.GradedParams) ([]model.GradedItem, error)
}

// SummaryServiceInterface はサマリー操作ハンドラーが必要とするサービスインターフェース。
type SummaryServiceInterface interface {
	TodaySummary(ctx context.Context, p summary.Params) (*model.Report, error)
}

// ToolMetrics はツール操作のメトリクス記録インターフェース。
type ToolMetrics interface {
	RecordToolRequest(tool string)
}

// ToolsHandler はツール操作のHTTPハンドラー。
type ToolsHandler struct {
	courses  CourseServiceInterface
	activity ActivityServiceInterface
	summary  SummaryServiceInterface
	metrics  ToolMetrics
}

// NewToolsHandler はToolsHandlerを生成する。metricsはnilでもよい。
func NewToolsHandler(courses CourseServiceInterface, activitySvc ActivityServiceInterface, summarySvc SummaryServiceInterface, metrics ToolMetrics) *ToolsHandler {
	return &ToolsHandler{
		courses:  courses,
		activity: activitySvc,
		summary:  summarySvc,
		metrics:  metrics,
	}
}

// recordTool はツール操作の実行をメトリクスに記録する。
func (h *ToolsHandler) recordTool(tool string) {
	if h.metrics != nil {
		h.metrics.RecordToolRequest(tool)
	}
}

// GetCourses はコース一覧をフィルタなしでそのまま返す。
// GET /api/courses
func (h *ToolsHandler) GetCourses(w http.ResponseWriter, r *http.Request) {
	h.recordTool("get_courses")

	raw, err := h.courses.ListRaw(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeDataResponse(w, raw)
}

// GetDashboardCards は解決済みのコーススコープを返す。
// GET /api/dashboard_cards?term_prefix=26SS
func (h *ToolsHandler) GetDashboardCards(w http.ResponseWriter, r *http.Request) {
	h.recordTool("get_dashboard_cards")

	prefix := r.URL.Query().Get("term_prefix")

	cards, err := h.courses.Resolve(r.Context(), prefix, 0)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeDataResponse(w, cards)
}

// GetCourseAssignments は1コースの今後・期限切れ課題ビューを返す。
// GET /api/courses/{courseID}/assignments?days_ahead=7&include_overdue=false
func (h *ToolsHandler) GetCourseAssignments(w http.ResponseWriter, r *http.Request) {
	h.recordTool("get_course_assignments")

	rawID := chi.URLParam(r, "courseID")
	courseID, err := strconv.Atoi(rawID)
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidCourseIDError(rawID))
		return
	}

	daysAhead, apiErr := queryInt(r, "days_ahead", defaultDaysAhead)
	if apiErr != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}
	includeOverdue, apiErr := queryBool(r, "include_overdue", false)
	if apiErr != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	items, svcErr := h.activity.CourseAssignments(r.Context(), courseID, daysAhead, includeOverdue)
	if svcErr != nil {
		handleServiceError(w, svcErr)
		return
	}

	writeDataResponse(w, items)
}

// GetUpcomingAssignments はスコープ横断のマージ済み課題ビューを返す。
// GET /api/assignments/upcoming?days_ahead=7&include_overdue=false&term_prefix=&max_courses=8
func (h *ToolsHandler) GetUpcomingAssignments(w http.ResponseWriter, r *http.Request) {
	h.recordTool("get_upcoming_assignments")

	p := activity.UpcomingParams{TermPrefix: r.URL.Query().Get("term_prefix")}

	var apiErr *model.APIError
	if p.DaysAhead, apiErr = queryInt(r, "days_ahead", defaultDaysAhead); apiErr != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}
	if p.IncludeOverdue, apiErr = queryBool(r, "include_overdue", false); apiErr != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}
	if p.MaxCourses, apiErr = queryInt(r, "max_courses", defaultMaxCourses); apiErr != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	items, err := h.activity.UpcomingAssignments(r.Context(), p)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeDataResponse(w, items)
}

// GetRecentAnnouncements はスコープ横断の直近お知らせビューを返す。
// GET /api/announcements/recent?days_back=7&term_prefix=&max_courses=8&per_course=5&include_body=false
func (h *ToolsHandler) GetRecentAnnouncements(w http.ResponseWriter, r *http.Request) {
	h.recordTool("get_recent_announcements")

	p := activity.AnnouncementParams{TermPrefix: r.URL.Query().Get("term_prefix")}

	var apiErr *model.APIError
	if p.DaysBack, apiErr = queryInt(r, "days_back", defaultDaysBack); apiErr != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}
	if p.MaxCourses, apiErr = queryInt(r, "max_courses", defaultMaxCourses); apiErr != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}
	if p.PerCourse, apiErr = queryInt(r, "per_course", defaultPerCourse); apiErr != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}
	if p.IncludeBody, apiErr = queryBool(r, "include_body", false); apiErr != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	items, err := h.activity.RecentAnnouncements(r.Context(), p)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeDataResponse(w, items)
}

// GetWeekAhead はグローバルなプランナービューを日付昇順で返す。
// GET /api/week_ahead?days_ahead=7&days_back=0&per_page=100
func (h *ToolsHandler) GetWeekAhead(w http.ResponseWriter, r *http.Request) {
	h.recordTool("get_week_ahead")

	daysAhead, apiErr := queryInt(r, "days_ahead", defaultDaysAhead)
	if apiErr != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}
	daysBack, apiErr := queryInt(r, "days_back", 0)
	if apiErr != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}
	perPage, apiErr := queryInt(r, "per_page", defaultPerPage)
	if apiErr != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	items, err := h.activity.WeekAhead(r.Context(), daysAhead, daysBack, perPage)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeDataResponse(w, items)
}

// GetRecentlyGraded はスコープ横断の採点済み項目を新しい順で返す。
// GET /api/graded/recent?days_back=7&term_prefix=&max_courses=8&per_page=100&include_only_with_feedback=false
func (h *ToolsHandler) GetRecentlyGraded(w http.ResponseWriter, r *http.Request) {
	h.recordTool("get_recently_graded")

	p := activity.GradedParams{TermPrefix: r.URL.Query().Get("term_prefix")}

	var apiErr *model.APIError
	if p.DaysBack, apiErr = queryInt(r, "days_back", defaultDaysBack); apiErr != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}
	if p.MaxCourses, apiErr = queryInt(r, "max_courses", defaultMaxCourses); apiErr != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}
	if p.PerPage, apiErr = queryInt(r, "per_page", defaultPerPage); apiErr != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}
	if p.OnlyWithFeedback, apiErr = queryBool(r, "include_only_with_feedback", false); apiErr != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	items, err := h.activity.RecentlyGraded(r.Context(), p)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeDataResponse(w, items)
}

// GetTodaySummary は複合デイリーサマリーを返す。
// GET /api/summary/today
func (h *ToolsHandler) GetTodaySummary(w http.ResponseWriter, r *http.Request) {
	h.recordTool("get_today_summary")

	p := summary.Params{TermPrefix: r.URL.Query().Get("term_prefix")}

	var apiErr *model.APIError
	if p.FutureHours, apiErr = queryInt(r, "future_hours", defaultFutureHours); apiErr != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}
	if p.PastHours, apiErr = queryInt(r, "past_hours", defaultPastHours); apiErr != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}
	if p.MaxCourses, apiErr = queryInt(r, "max_courses", defaultMaxCourses); apiErr != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}
	if p.PerCourseAnnouncements, apiErr = queryInt(r, "per_course_announcements", defaultPerCourse); apiErr != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}
	if p.IncludeAnnouncementBody, apiErr = queryBool(r, "include_announcement_body", false); apiErr != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}
	if p.OnlyWithFeedback, apiErr = queryBool(r, "include_only_with_feedback", false); apiErr != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}
	if p.PlannerPerPage, apiErr = queryInt(r, "planner_per_page", defaultPerPage); apiErr != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	report, err := h.summary.TodaySummary(r.Context(), p)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeDataResponse(w, report)
}
