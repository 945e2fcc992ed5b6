package activity

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/hitoshi/canvasman/internal/model"
	"github.com/hitoshi/canvasman/internal/window"
)

// --- Canvas APIの生レコード形状 ---

// rawPlannable はプランナー項目のplannableフィールドのうち必要な部分。
// 由来する種別によって設定されるフィールドが異なる。
type rawPlannable struct {
	ID               int64    `json:"id"`
	Title            string   `json:"title"`
	DueAt            string   `json:"due_at"`
	PointsPossible   *float64 `json:"points_possible"`
	AssignmentID     *int64   `json:"assignment_id"`
	StartAt          string   `json:"start_at"`
	EndAt            string   `json:"end_at"`
	LocationName     string   `json:"location_name"`
	OnlineMeetingURL string   `json:"online_meeting_url"`
}

// rawPlannerItem はプランナーAPIの生レコード。
// submissionsはオブジェクトまたはfalseで返るためRawMessageで受ける。
type rawPlannerItem struct {
	PlannableType string          `json:"plannable_type"`
	PlannableDate string          `json:"plannable_date"`
	CourseID      int             `json:"course_id"`
	ContextName   string          `json:"context_name"`
	HTMLURL       string          `json:"html_url"`
	NewActivity   bool            `json:"new_activity"`
	Plannable     rawPlannable    `json:"plannable"`
	Submissions   json.RawMessage `json:"submissions"`
}

// rawSubmissionStatus はプランナー項目のsubmissionsオブジェクトの形状。
type rawSubmissionStatus struct {
	Submitted   bool   `json:"submitted"`
	Graded      bool   `json:"graded"`
	Late        bool   `json:"late"`
	Missing     bool   `json:"missing"`
	PostedAt    string `json:"posted_at"`
	HasFeedback bool   `json:"has_feedback"`
}

// rawAssignment は課題APIの生レコードのうち必要な部分。
type rawAssignment struct {
	ID             int64    `json:"id"`
	Name           string   `json:"name"`
	DueAt          string   `json:"due_at"`
	PointsPossible *float64 `json:"points_possible"`
	HTMLURL        string   `json:"html_url"`
	Submission     *struct {
		SubmittedAt *string `json:"submitted_at"`
	} `json:"submission"`
}

// rawDiscussionTopic はディスカッショントピック（お知らせ）の生レコード。
type rawDiscussionTopic struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	PostedAt  string `json:"posted_at"`
	CreatedAt string `json:"created_at"`
	Author    *struct {
		DisplayName string `json:"display_name"`
	} `json:"author"`
	ReadState   string `json:"read_state"`
	UnreadCount int    `json:"unread_count"`
	HTMLURL     string `json:"html_url"`
	Message     string `json:"message"`
}

// --- 正規化 ---

// normalizeSubmissions はsubmissionsフィールドを提出状況に変換する。
// オブジェクトでない場合（false等）はnilを返す。
func normalizeSubmissions(raw json.RawMessage) *model.SubmissionStatus {
	trimmed := strings.TrimSpace(string(raw))
	if !strings.HasPrefix(trimmed, "{") {
		return nil
	}

	var sub rawSubmissionStatus
	if err := json.Unmarshal(raw, &sub); err != nil {
		return nil
	}

	status := &model.SubmissionStatus{
		Submitted:   sub.Submitted,
		Graded:      sub.Graded,
		Late:        sub.Late,
		Missing:     sub.Missing,
		HasFeedback: sub.HasFeedback,
	}
	if t, ok := window.ParseInstant(sub.PostedAt); ok {
		status.PostedAt = &t
	}
	return status
}

// normalizePlannerItem はプランナー項目を共通形状へ正規化する。
// plannable_dateを解析できないレコードは破棄される（ok=false）。
// 未知のplannable_typeも共通フィールドのみで正規化する
// （まだモデル化していないソース種別に対する前方互換）。
func normalizePlannerItem(raw rawPlannerItem, resolveURL func(string) string) (model.ActivityItem, bool) {
	timestamp, ok := window.ParseInstant(raw.PlannableDate)
	if !ok {
		return model.ActivityItem{}, false
	}

	item := model.ActivityItem{
		Kind:        model.ItemKind(strings.ToLower(raw.PlannableType)),
		CourseID:    raw.CourseID,
		CourseName:  raw.ContextName,
		ItemID:      raw.Plannable.ID,
		Title:       raw.Plannable.Title,
		Timestamp:   timestamp,
		HTMLURL:     resolveURL(raw.HTMLURL),
		NewActivity: raw.NewActivity,
		Submission:  normalizeSubmissions(raw.Submissions),
	}

	// バリアント固有フィールドは構築時にのみ設定する
	switch item.Kind {
	case model.ItemKindAssignment, model.ItemKindQuiz:
		if due, ok := window.ParseInstant(raw.Plannable.DueAt); ok {
			item.DueAt = &due
		}
		item.PointsPossible = raw.Plannable.PointsPossible
		item.AssignmentID = raw.Plannable.AssignmentID
	case model.ItemKindCalendarEvent:
		if start, ok := window.ParseInstant(raw.Plannable.StartAt); ok {
			item.StartAt = &start
		}
		if end, ok := window.ParseInstant(raw.Plannable.EndAt); ok {
			item.EndAt = &end
		}
		item.LocationName = raw.Plannable.LocationName
		item.OnlineMeetingURL = resolveURL(raw.Plannable.OnlineMeetingURL)
	}

	return item, true
}

// normalizeAssignment は課題レコードをコース単位ビューへ正規化・分類する。
// 期限のない課題は全てのビューの対象外であり、エラーではなくnilを返す。
// 「upcoming or overdue」の包含判定はここで1回だけ行われ、
// is_overdueは下流で再計算されない。
func normalizeAssignment(raw rawAssignment, course model.Course, now, end time.Time, includeOverdue bool, resolveURL func(string) string) *model.AssignmentItem {
	due, ok := window.ParseInstant(raw.DueAt)
	if !ok {
		return nil
	}

	submitted := raw.Submission != nil && raw.Submission.SubmittedAt != nil

	isOverdue := IsOverdue(due, now, submitted)
	isUpcoming := IsUpcoming(due, now, end)

	if !isUpcoming && !(includeOverdue && isOverdue) {
		return nil
	}

	return &model.AssignmentItem{
		CourseID:       course.ID,
		ID:             raw.ID,
		Name:           raw.Name,
		DueAt:          due,
		IsOverdue:      isOverdue,
		Submitted:      submitted,
		PointsPossible: raw.PointsPossible,
		HTMLURL:        resolveURL(raw.HTMLURL),
		CourseName:     course.Name,
	}
}

// normalizeAnnouncement はお知らせレコードを正規化する。
// posted_atもcreated_atも解析できないレコードは破棄される（nil）。
// 本文のbody_text / body_htmlはbodiesがnilでない場合のみ設定される。
func normalizeAnnouncement(raw rawDiscussionTopic, course model.Course, bodies BodyFilter, resolveURL func(string) string) *model.AnnouncementItem {
	postedAt, ok := window.ParseInstant(raw.PostedAt)
	if !ok {
		postedAt, ok = window.ParseInstant(raw.CreatedAt)
		if !ok {
			return nil
		}
	}

	item := &model.AnnouncementItem{
		CourseID:    course.ID,
		CourseName:  course.Name,
		ID:          raw.ID,
		Title:       raw.Title,
		PostedAt:    postedAt,
		ReadState:   raw.ReadState,
		UnreadCount: raw.UnreadCount,
		HTMLURL:     resolveURL(raw.HTMLURL),
	}
	if raw.Author != nil {
		item.Author = raw.Author.DisplayName
	}
	if bodies != nil {
		item.BodyText = bodies.ExtractText(raw.Message)
		item.BodyHTML = bodies.Sanitize(raw.Message)
	}

	return item
}
