package repository

import (
	"context"

	"github.com/examstack/examhall-backend/internal/model"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AnswerRepository persists graded answer audit records.
type AnswerRepository struct {
	pool *pgxpool.Pool
}

// NewAnswerRepository creates a new AnswerRepository.
func NewAnswerRepository(pool *pgxpool.Pool) *AnswerRepository {
	return &AnswerRepository{pool: pool}
}

// BulkUpsert writes a batch of graded answers in a single statement using
// UNNEST. Conflicts on (exam_id, student_id, question_id) take the new row,
// so redelivered queue items stay idempotent.
func (r *AnswerRepository) BulkUpsert(ctx context.Context, batch []model.GradedAnswer) error {
	if len(batch) == 0 {
		return nil
	}

	n := len(batch)
	examIDs := make([]int64, 0, n)
	studentIDs := make([]int64, 0, n)
	questionIDs := make([]int64, 0, n)
	orders := make([]int, 0, n)
	answers := make([]string, 0, n)
	earned := make([]float64, 0, n)
	correct := make([]bool, 0, n)

	for _, g := range batch {
		examIDs = append(examIDs, g.ExamID)
		studentIDs = append(studentIDs, g.StudentID)
		questionIDs = append(questionIDs, g.QuestionID)
		orders = append(orders, g.Order)
		answers = append(answers, g.AnswerText)
		earned = append(earned, g.Earned)
		correct = append(correct, g.Correct)
	}

	_, err := r.pool.Exec(ctx,
		`INSERT INTO attempt_answers
			(exam_id, student_id, question_id, order_num, answer, earned, correct)
		 SELECT * FROM UNNEST(
			$1::bigint[], $2::bigint[], $3::bigint[],
			$4::int[], $5::text[], $6::float8[], $7::bool[]
		 )
		 ON CONFLICT (exam_id, student_id, question_id) DO UPDATE
		 SET answer = EXCLUDED.answer,
		     order_num = EXCLUDED.order_num,
		     earned = EXCLUDED.earned,
		     correct = EXCLUDED.correct,
		     updated_at = NOW()`,
		examIDs, studentIDs, questionIDs, orders, answers, earned, correct,
	)
	return err
}
