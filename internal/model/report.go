package model

import "time"

// ReportWindow はレポートが対象とした時間窓の境界を表す。
// PastとFutureはUTCのISO-8601文字列（呼び出し側向けの表現）。
type ReportWindow struct {
	Past   string `json:"past"`
	Future string `json:"future"`
}

// ReportCounts は複合レポートの各リストの件数を表す。
type ReportCounts struct {
	Deadlines     int `json:"deadlines"`
	Events        int `json:"events"`
	Announcements int `json:"announcements"`
	Graded        int `json:"graded"`
	Overdue       int `json:"overdue"`
}

// Report は複合デイリーサマリーの出力を表す。
// 呼び出しごとにリモートの最新状態から新規に構築される派生値であり、
// 永続化されるライフサイクルを持たない。
type Report struct {
	GeneratedAt   time.Time          `json:"generated_at"`
	Window        ReportWindow       `json:"window"`
	Counts        ReportCounts       `json:"counts"`
	Deadlines     []ActivityItem     `json:"deadlines"`
	Events        []ActivityItem     `json:"events"`
	Announcements []AnnouncementItem `json:"announcements"`
	Graded        []GradedItem       `json:"graded"`
	Overdue       []AssignmentItem   `json:"overdue"`
}
