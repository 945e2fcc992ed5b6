package model

import "time"

// ItemKind は正規化済みアクティビティ項目の種別を表す。
// プランナー項目のplannable_typeを判別子とするタグ付きユニオンのタグ。
type ItemKind string

const (
	// ItemKindAssignment は課題を示す。
	ItemKindAssignment ItemKind = "assignment"
	// ItemKindQuiz は小テストを示す。
	ItemKindQuiz ItemKind = "quiz"
	// ItemKindCalendarEvent はカレンダーイベントを示す。
	ItemKindCalendarEvent ItemKind = "calendar_event"
)

// SubmissionStatus は提出状況を表す。
// 値としてコピーされ、項目間で共有可能な可変状態を持たない。
type SubmissionStatus struct {
	Submitted   bool       `json:"submitted"`
	Graded      bool       `json:"graded"`
	Late        bool       `json:"late"`
	Missing     bool       `json:"missing"`
	PostedAt    *time.Time `json:"posted_at,omitempty"`
	HasFeedback bool       `json:"has_feedback"`
}

// ActivityItem はプランナー項目を正規化した共通形状を表す。
// Kindを判別子とするバリアント型であり、バリアント固有のフィールドは
// 構築時にのみ設定される:
//   - DueAt / PointsPossible / AssignmentID は assignment, quiz のみ
//   - StartAt / EndAt / LocationName / OnlineMeetingURL は calendar_event のみ
//
// 未知のplannable_typeは共通フィールドのみで正規化される（拒否しない）。
type ActivityItem struct {
	Kind        ItemKind          `json:"kind"`
	CourseID    int               `json:"course_id"`
	CourseName  string            `json:"course_name"`
	ItemID      int64             `json:"item_id"`
	Title       string            `json:"title"`
	Timestamp   time.Time         `json:"timestamp"`
	HTMLURL     string            `json:"html_url,omitempty"`
	NewActivity bool              `json:"new_activity"`
	Submission  *SubmissionStatus `json:"submission,omitempty"`

	// assignment / quiz のみ
	DueAt          *time.Time `json:"due_at,omitempty"`
	PointsPossible *float64   `json:"points_possible,omitempty"`
	AssignmentID   *int64     `json:"assignment_id,omitempty"`

	// calendar_event のみ
	StartAt          *time.Time `json:"start_at,omitempty"`
	EndAt            *time.Time `json:"end_at,omitempty"`
	LocationName     string     `json:"location_name,omitempty"`
	OnlineMeetingURL string     `json:"online_meeting_url,omitempty"`
}

// AnnouncementItem はコースのお知らせを正規化した形状を表す。
// BodyText / BodyHTML は呼び出し側が本文を要求した場合のみ設定される。
type AnnouncementItem struct {
	CourseID    int       `json:"course_id"`
	CourseName  string    `json:"course_name"`
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	PostedAt    time.Time `json:"posted_at"`
	Author      string    `json:"author,omitempty"`
	ReadState   string    `json:"read_state,omitempty"`
	UnreadCount int       `json:"unread_count,omitempty"`
	HTMLURL     string    `json:"html_url,omitempty"`
	BodyText    string    `json:"body_text,omitempty"`
	BodyHTML    string    `json:"body_html,omitempty"`
}

// GradedItem は採点済みのプランナー項目を表す。
// submission.graded == true の項目からのみ導出される。
type GradedItem struct {
	PlannableType string           `json:"plannable_type"`
	CourseID      int              `json:"course_id"`
	CourseName    string           `json:"course_name"`
	ID            int64            `json:"id"`
	Title         string           `json:"title"`
	GradePostedAt time.Time        `json:"grade_posted_at"`
	HTMLURL       string           `json:"html_url,omitempty"`
	Submission    SubmissionStatus `json:"submission"`
}

// AssignmentItem はコース単位の課題ビューを表す。
// IsOverdue は分類時に1回だけ計算され、下流で再計算されない。
type AssignmentItem struct {
	CourseID       int       `json:"course_id"`
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	DueAt          time.Time `json:"due_at"`
	IsOverdue      bool      `json:"is_overdue"`
	Submitted      bool      `json:"submitted"`
	PointsPossible *float64  `json:"points_possible,omitempty"`
	HTMLURL        string    `json:"html_url,omitempty"`
	CourseName     string    `json:"course_name,omitempty"`
}
