package exam

import (
	"time"

	"github.com/examstack/examhall-backend/internal/model"
)

// Deadline returns the instant the attempt's clock runs out: the student's
// personal window (started_at + duration) capped by the exam's absolute
// close time. A student who starts late still cannot answer past the
// published end.
func Deadline(attempt *model.Attempt, ex *model.Exam) time.Time {
	deadline := attempt.StartedAt.Add(time.Duration(ex.DurationMinutes) * time.Minute)
	if ex.ScheduledEnd != nil && ex.ScheduledEnd.Before(deadline) {
		deadline = *ex.ScheduledEnd
	}
	return deadline
}

// RemainingSeconds computes the remaining time for an attempt at the given
// instant, clamped at zero. Every tick is a fresh computation from
// server-recorded timestamps; the client's clock is never consulted.
func RemainingSeconds(attempt *model.Attempt, ex *model.Exam, now time.Time) int64 {
	remaining := int64(Deadline(attempt, ex).Sub(now) / time.Second)
	if remaining < 0 {
		return 0
	}
	return remaining
}
