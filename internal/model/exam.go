package model

import "time"

// ExamStatus enumerates the possible states of an exam.
type ExamStatus string

const (
	ExamStatusDraft      ExamStatus = "DRAFT"
	ExamStatusPublished  ExamStatus = "PUBLISHED"
	ExamStatusInProgress ExamStatus = "IN_PROGRESS"
	ExamStatusCompleted  ExamStatus = "COMPLETED"
	ExamStatusArchived   ExamStatus = "ARCHIVED"
)

// Exam is the read-only view of an exam definition the coordinator needs:
// the per-student duration and the absolute window close. Exam authoring
// belongs to the management layer, not to this process.
type Exam struct {
	ID              int64      `json:"id"`
	Title           string     `json:"title"`
	DurationMinutes int        `json:"duration_minutes"`
	ScheduledEnd    *time.Time `json:"scheduled_end,omitempty"`
	Status          ExamStatus `json:"status"`
	QuestionCount   int        `json:"question_count"`
}
