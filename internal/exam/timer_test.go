package exam

import (
	"testing"
	"time"

	"github.com/examstack/examhall-backend/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestRemainingSeconds_FullWindow(t *testing.T) {
	now := time.Date(2026, 3, 9, 8, 0, 0, 0, time.UTC)
	attempt := &model.Attempt{StartedAt: now}
	ex := &model.Exam{DurationMinutes: 30}

	assert.Equal(t, int64(1800), RemainingSeconds(attempt, ex, now))
	assert.Equal(t, int64(1500), RemainingSeconds(attempt, ex, now.Add(5*time.Minute)))
}

func TestRemainingSeconds_FlooredAtZero(t *testing.T) {
	now := time.Date(2026, 3, 9, 8, 0, 0, 0, time.UTC)
	attempt := &model.Attempt{StartedAt: now.Add(-31 * time.Minute)}
	ex := &model.Exam{DurationMinutes: 30}

	remaining := RemainingSeconds(attempt, ex, now)
	assert.LessOrEqual(t, remaining, int64(0))
	assert.Equal(t, int64(0), remaining)
}

func TestRemainingSeconds_ExamCloseOverridesPersonalDuration(t *testing.T) {
	now := time.Date(2026, 3, 9, 8, 0, 0, 0, time.UTC)
	closed := now.Add(-1 * time.Minute)

	// Ten minutes of personal duration left, but the exam window is shut.
	attempt := &model.Attempt{StartedAt: now.Add(-20 * time.Minute)}
	ex := &model.Exam{DurationMinutes: 30, ScheduledEnd: &closed}

	assert.Equal(t, int64(0), RemainingSeconds(attempt, ex, now))
}

func TestRemainingSeconds_ExamCloseCapsRemaining(t *testing.T) {
	now := time.Date(2026, 3, 9, 8, 0, 0, 0, time.UTC)
	end := now.Add(3 * time.Minute)

	// Personal window would allow 30 minutes, global close allows 3.
	attempt := &model.Attempt{StartedAt: now}
	ex := &model.Exam{DurationMinutes: 30, ScheduledEnd: &end}

	assert.Equal(t, int64(180), RemainingSeconds(attempt, ex, now))
}

func TestDeadline_IgnoresLaterExamClose(t *testing.T) {
	start := time.Date(2026, 3, 9, 8, 0, 0, 0, time.UTC)
	end := start.Add(2 * time.Hour)

	attempt := &model.Attempt{StartedAt: start}
	ex := &model.Exam{DurationMinutes: 45, ScheduledEnd: &end}

	assert.Equal(t, start.Add(45*time.Minute), Deadline(attempt, ex))
}
