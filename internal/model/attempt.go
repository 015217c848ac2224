package model

import (
	"time"

	"github.com/google/uuid"
)

// AttemptStatus enumerates the lifecycle states of an exam attempt.
type AttemptStatus string

const (
	AttemptStatusNotStarted AttemptStatus = "NOT_STARTED"
	AttemptStatusInProgress AttemptStatus = "IN_PROGRESS"
	AttemptStatusCompleted  AttemptStatus = "COMPLETED"
	AttemptStatusExpired    AttemptStatus = "EXPIRED"
)

// Terminal reports whether the status is a final state that can never
// transition again. Grading refuses to run on a terminal attempt.
func (s AttemptStatus) Terminal() bool {
	return s == AttemptStatusCompleted || s == AttemptStatusExpired
}

// Attempt is one student's instance of taking one exam, identified by
// (exam_id, student_id). StartedAt is set once by the database and never
// rewritten; Score and FinishedAt are written exactly once at grading.
type Attempt struct {
	ID         uuid.UUID     `json:"id"`
	ExamID     int64         `json:"exam_id"`
	StudentID  int64         `json:"student_id"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt *time.Time    `json:"finished_at,omitempty"`
	Status     AttemptStatus `json:"status"`
	Score      *float64      `json:"score,omitempty"`
}

// AttemptKey identifies an attempt purely by (exam_id, student_id).
// It is the cache and registry key; a reconnecting client derives the
// same key, so no synthetic connection identifier is ever involved.
type AttemptKey struct {
	ExamID    int64 `json:"exam_id"`
	StudentID int64 `json:"student_id"`
}
