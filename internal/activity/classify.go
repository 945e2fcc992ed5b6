package activity

import (
	"time"

	"github.com/hitoshi/canvasman/internal/model"
)

// IsOverdue は期限切れかを判定する。
// 期限が過去で、かつ未提出の場合に真となる。
func IsOverdue(due, now time.Time, submitted bool) bool {
	return due.Before(now) && !submitted
}

// IsUpcoming は期限が [now, end] に含まれるかを判定する。
// IsOverdueとは構成上同時に真にならない（IsOverdueはdue < now、
// IsUpcomingはdue >= nowを要求する）。
func IsUpcoming(due, now, end time.Time) bool {
	return !due.Before(now) && !due.After(end)
}

// IsGraded は提出が採点済みかを判定する。
func IsGraded(sub model.SubmissionStatus) bool {
	return sub.Graded
}

// PassesFeedbackFilter はフィードバック有無フィルタを通過するかを判定する。
// onlyWithFeedbackが偽の場合は常に通過する。
func PassesFeedbackFilter(sub model.SubmissionStatus, onlyWithFeedback bool) bool {
	return !onlyWithFeedback || sub.HasFeedback
}
