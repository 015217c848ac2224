package repository

import (
	"context"
	"time"

	"github.com/examstack/examhall-backend/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AttemptRepository handles exam attempt data access.
type AttemptRepository struct {
	pool *pgxpool.Pool
}

// NewAttemptRepository creates a new AttemptRepository.
func NewAttemptRepository(pool *pgxpool.Pool) *AttemptRepository {
	return &AttemptRepository{pool: pool}
}

// GetByExamAndStudent retrieves the attempt for a specific exam-student pair.
// Returns pgx.ErrNoRows when no attempt exists.
func (r *AttemptRepository) GetByExamAndStudent(ctx context.Context, examID, studentID int64) (*model.Attempt, error) {
	a := &model.Attempt{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, exam_id, student_id, started_at, finished_at, status, score
		 FROM attempts
		 WHERE exam_id = $1 AND student_id = $2`, examID, studentID,
	).Scan(&a.ID, &a.ExamID, &a.StudentID, &a.StartedAt, &a.FinishedAt, &a.Status, &a.Score)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Start inserts the attempt row if it does not exist yet. The database sets
// started_at exactly once; concurrent starts for the same pair resolve to the
// single existing row, which is returned unchanged.
func (r *AttemptRepository) Start(ctx context.Context, examID, studentID int64) (*model.Attempt, error) {
	a := &model.Attempt{
		ExamID:    examID,
		StudentID: studentID,
		Status:    model.AttemptStatusInProgress,
	}

	err := r.pool.QueryRow(ctx,
		`INSERT INTO attempts (exam_id, student_id, status)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (exam_id, student_id) DO NOTHING
		 RETURNING id, started_at`,
		examID, studentID, model.AttemptStatusInProgress,
	).Scan(&a.ID, &a.StartedAt)
	if err == nil {
		return a, nil
	}
	if err != pgx.ErrNoRows {
		return nil, err
	}

	// Concurrent or repeated start: the row already exists.
	return r.GetByExamAndStudent(ctx, examID, studentID)
}

// CompleteIfInProgress atomically transitions the attempt to COMPLETED,
// writing score and finished_at in the same statement. It reports whether
// this caller won the transition; a false return with nil error means the
// attempt was already terminal and nothing was written.
func (r *AttemptRepository) CompleteIfInProgress(ctx context.Context, examID, studentID int64, score float64, finishedAt time.Time) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE attempts
		 SET status = $1, score = $2, finished_at = $3
		 WHERE exam_id = $4 AND student_id = $5 AND status = $6`,
		model.AttemptStatusCompleted, score, finishedAt,
		examID, studentID, model.AttemptStatusInProgress)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
