package model

import "time"

// QuestionSnapshot is one entry of the frozen answer key materialized for an
// exam. The coordinator treats it as immutable input: it is written by the
// authoring layer at publish time and only ever read here.
type QuestionSnapshot struct {
	QuestionID    int64   `json:"question_id"`
	CorrectAnswer string  `json:"correct_answer"`
	Point         float64 `json:"point"`
}

// CachedAnswer is a student's in-progress answer for one question order
// position. At most one entry exists per (attempt, order); a later write for
// the same order replaces the earlier one.
type CachedAnswer struct {
	Order      int       `json:"order"`
	QuestionID int64     `json:"questionId"`
	AnswerText string    `json:"answer"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// GradeResult is the output of grading one attempt.
type GradeResult struct {
	Score    float64 `json:"score"`
	MaxScore float64 `json:"maxScore"`
}

// GradedAnswer is the audit record persisted for every cached answer after
// grading, including answers that scored zero.
type GradedAnswer struct {
	ExamID     int64   `json:"exam_id"`
	StudentID  int64   `json:"student_id"`
	QuestionID int64   `json:"question_id"`
	Order      int     `json:"order"`
	AnswerText string  `json:"answer"`
	Earned     float64 `json:"earned"`
	Correct    bool    `json:"correct"`
}
