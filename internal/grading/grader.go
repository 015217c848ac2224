package grading

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/examstack/examhall-backend/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// Domain errors.
var (
	// ErrAttemptNotFound signals a session that was allowed to exist without
	// a backing attempt record. This is a data-integrity fault, never hidden.
	ErrAttemptNotFound = errors.New("attempt record not found")
	// ErrAlreadyGraded is returned when grading finds the attempt already in
	// a terminal state: a competing trigger won, nothing was written.
	ErrAlreadyGraded = errors.New("attempt already graded")
)

// AttemptStore is the slice of attempt persistence the grader needs.
type AttemptStore interface {
	GetByExamAndStudent(ctx context.Context, examID, studentID int64) (*model.Attempt, error)
	CompleteIfInProgress(ctx context.Context, examID, studentID int64, score float64, finishedAt time.Time) (bool, error)
}

// SnapshotSource provides the frozen answer key for an exam.
type SnapshotSource interface {
	Snapshots(ctx context.Context, examID int64) ([]model.QuestionSnapshot, error)
}

// AnswerSource is the cached-answer view the grader consumes.
type AnswerSource interface {
	GetAnswers(examID, studentID int64) []model.CachedAnswer
	Clear(examID, studentID int64)
}

// AuditSink receives one record per cached answer after grading.
type AuditSink interface {
	EnqueueGraded(ctx context.Context, records []model.GradedAnswer) error
}

// Grader scores an attempt against its frozen answer key, persists the
// result exactly once and clears the cached answers.
type Grader struct {
	attempts  AttemptStore
	snapshots SnapshotSource
	cache     AnswerSource
	audit     AuditSink
	log       zerolog.Logger
	now       func() time.Time
}

// NewGrader creates a Grader.
func NewGrader(attempts AttemptStore, snapshots SnapshotSource, cache AnswerSource, audit AuditSink, log zerolog.Logger) *Grader {
	return &Grader{
		attempts:  attempts,
		snapshots: snapshots,
		cache:     cache,
		audit:     audit,
		log:       log.With().Str("component", "grader").Logger(),
		now:       time.Now,
	}
}

// GradeAndSave grades the attempt identified by (examID, studentID).
//
// Competing triggers (timer expiry, explicit submit, duplicate submit) are
// resolved by a compare-and-set on the attempt's status: exactly one caller
// transitions it to COMPLETED and persists the score; every other caller
// gets ErrAlreadyGraded and must not retry. A failed grade leaves the
// attempt IN_PROGRESS so a later trigger can run the whole step again.
func (g *Grader) GradeAndSave(ctx context.Context, examID, studentID int64) (*model.GradeResult, error) {
	attempt, err := g.attempts.GetByExamAndStudent(ctx, examID, studentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("grade exam %d student %d: %w", examID, studentID, ErrAttemptNotFound)
		}
		return nil, fmt.Errorf("load attempt: %w", err)
	}
	if attempt.Status.Terminal() {
		return nil, ErrAlreadyGraded
	}

	snapshots, err := g.snapshots.Snapshots(ctx, examID)
	if err != nil {
		return nil, fmt.Errorf("load answer key: %w", err)
	}

	byQuestion := make(map[int64]model.QuestionSnapshot, len(snapshots))
	var maxScore float64
	for _, s := range snapshots {
		byQuestion[s.QuestionID] = s
		maxScore += s.Point
	}

	answers := g.cache.GetAnswers(examID, studentID)

	var score float64
	records := make([]model.GradedAnswer, 0, len(answers))
	for _, ans := range answers {
		record := model.GradedAnswer{
			ExamID:     examID,
			StudentID:  studentID,
			QuestionID: ans.QuestionID,
			Order:      ans.Order,
			AnswerText: ans.AnswerText,
		}
		if snap, ok := byQuestion[ans.QuestionID]; ok && answersMatch(ans.AnswerText, snap.CorrectAnswer) {
			record.Earned = snap.Point
			record.Correct = true
			score += snap.Point
		}
		records = append(records, record)
	}

	// One winner: the CAS transitions status, score and finished_at together.
	won, err := g.attempts.CompleteIfInProgress(ctx, examID, studentID, score, g.now())
	if err != nil {
		return nil, fmt.Errorf("complete attempt: %w", err)
	}
	if !won {
		return nil, ErrAlreadyGraded
	}

	// Audit records include zero-scored answers. Persistence is asynchronous
	// and best-effort; a queue failure never undoes the grade.
	if err := g.audit.EnqueueGraded(ctx, records); err != nil {
		g.log.Error().Err(err).
			Int64("exam_id", examID).
			Int64("student_id", studentID).
			Msg("Failed to enqueue graded answers for audit")
	}

	g.cache.Clear(examID, studentID)

	g.log.Info().
		Int64("exam_id", examID).
		Int64("student_id", studentID).
		Float64("score", score).
		Float64("max_score", maxScore).
		Int("answers", len(records)).
		Msg("Attempt graded")

	return &model.GradeResult{Score: score, MaxScore: maxScore}, nil
}
