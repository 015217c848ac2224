package grading

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/examstack/examhall-backend/internal/config"
	"github.com/examstack/examhall-backend/internal/model"
	"github.com/redis/go-redis/v9"
)

// RedisAuditSink pushes graded answer records onto the persistence queue
// consumed by the answer audit worker.
type RedisAuditSink struct {
	rdb *redis.Client
}

// NewRedisAuditSink creates a RedisAuditSink.
func NewRedisAuditSink(rdb *redis.Client) *RedisAuditSink {
	return &RedisAuditSink{rdb: rdb}
}

// EnqueueGraded marshals each record and RPUSHes the batch in one pipeline.
func (s *RedisAuditSink) EnqueueGraded(ctx context.Context, records []model.GradedAnswer) error {
	if len(records) == 0 {
		return nil
	}

	pipe := s.rdb.Pipeline()
	for _, record := range records {
		payload, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("marshal graded answer: %w", err)
		}
		pipe.RPush(ctx, config.WorkerKey.PersistAnswersQueue, payload)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("enqueue graded answers: %w", err)
	}
	return nil
}
