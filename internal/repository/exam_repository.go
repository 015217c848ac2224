package repository

import (
	"context"

	"github.com/examstack/examhall-backend/internal/model"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ExamRepository provides read access to exam definitions. The coordinator
// never writes exams; authoring happens in the management layer.
type ExamRepository struct {
	pool *pgxpool.Pool
}

// NewExamRepository creates a new ExamRepository.
func NewExamRepository(pool *pgxpool.Pool) *ExamRepository {
	return &ExamRepository{pool: pool}
}

// GetByID retrieves an exam by its numeric ID.
func (r *ExamRepository) GetByID(ctx context.Context, id int64) (*model.Exam, error) {
	e := &model.Exam{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, title, duration_minutes, scheduled_end, status, question_count
		 FROM exams
		 WHERE id = $1`, id,
	).Scan(&e.ID, &e.Title, &e.DurationMinutes, &e.ScheduledEnd, &e.Status, &e.QuestionCount)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// ListActive returns all exams students may currently be sitting, used to
// prewarm the snapshot cache at startup.
func (r *ExamRepository) ListActive(ctx context.Context) ([]model.Exam, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, title, duration_minutes, scheduled_end, status, question_count
		 FROM exams
		 WHERE status = $1 OR status = $2`,
		model.ExamStatusPublished, model.ExamStatusInProgress,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var exams []model.Exam
	for rows.Next() {
		var e model.Exam
		if err := rows.Scan(&e.ID, &e.Title, &e.DurationMinutes, &e.ScheduledEnd, &e.Status, &e.QuestionCount); err != nil {
			return nil, err
		}
		exams = append(exams, e)
	}
	return exams, rows.Err()
}
