package repository

import (
	"context"

	"github.com/examstack/examhall-backend/internal/model"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SnapshotRepository reads the frozen question/answer-key set materialized
// for an exam at publish time.
type SnapshotRepository struct {
	pool *pgxpool.Pool
}

// NewSnapshotRepository creates a new SnapshotRepository.
func NewSnapshotRepository(pool *pgxpool.Pool) *SnapshotRepository {
	return &SnapshotRepository{pool: pool}
}

// ListByExam returns the exam's answer key entries ordered by position.
func (r *SnapshotRepository) ListByExam(ctx context.Context, examID int64) ([]model.QuestionSnapshot, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT question_id, correct_answer, point
		 FROM exam_questions
		 WHERE exam_id = $1
		 ORDER BY order_num ASC`, examID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snapshots []model.QuestionSnapshot
	for rows.Next() {
		var s model.QuestionSnapshot
		if err := rows.Scan(&s.QuestionID, &s.CorrectAnswer, &s.Point); err != nil {
			return nil, err
		}
		snapshots = append(snapshots, s)
	}
	return snapshots, rows.Err()
}
