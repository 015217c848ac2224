package exam

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/examstack/examhall-backend/internal/config"
	"github.com/examstack/examhall-backend/internal/model"
	"github.com/examstack/examhall-backend/internal/repository"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Service handles exam lookups and the Redis-cached answer-key snapshots.
// The snapshot cache keeps grading off PostgreSQL on the hot path; a cache
// miss falls back to the database and self-heals.
type Service struct {
	examRepo     *repository.ExamRepository
	snapshotRepo *repository.SnapshotRepository
	rdb          *redis.Client
	log          zerolog.Logger
}

// NewService creates a new exam Service.
func NewService(
	examRepo *repository.ExamRepository,
	snapshotRepo *repository.SnapshotRepository,
	rdb *redis.Client,
	log zerolog.Logger,
) *Service {
	return &Service{
		examRepo:     examRepo,
		snapshotRepo: snapshotRepo,
		rdb:          rdb,
		log:          log.With().Str("component", "exam_service").Logger(),
	}
}

// GetByID retrieves an exam definition.
func (s *Service) GetByID(ctx context.Context, id int64) (*model.Exam, error) {
	return s.examRepo.GetByID(ctx, id)
}

// Snapshots returns the frozen answer key for an exam, serving from Redis
// when possible and falling back to PostgreSQL on a miss.
func (s *Service) Snapshots(ctx context.Context, examID int64) ([]model.QuestionSnapshot, error) {
	key := config.CacheKey.ExamSnapshotKey(examID)

	raw, err := s.rdb.Get(ctx, key).Result()
	if err == nil {
		var snapshots []model.QuestionSnapshot
		if jsonErr := json.Unmarshal([]byte(raw), &snapshots); jsonErr == nil {
			return snapshots, nil
		}
		// Corrupt cache entry: fall through to the database and rewrite it.
		s.log.Warn().Int64("exam_id", examID).Msg("Discarding unreadable snapshot cache entry")
	} else if err != redis.Nil {
		return nil, fmt.Errorf("redis get snapshot: %w", err)
	}

	snapshots, err := s.snapshotRepo.ListByExam(ctx, examID)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}

	// Self-heal so the next grading run hits the cache.
	if payload, err := json.Marshal(snapshots); err == nil {
		if err := s.rdb.Set(ctx, key, payload, 0).Err(); err != nil {
			s.log.Warn().Err(err).Int64("exam_id", examID).Msg("Snapshot cache write failed")
		}
	}

	return snapshots, nil
}

// WarmExamCache loads one exam's answer key and duration into Redis.
func (s *Service) WarmExamCache(ctx context.Context, ex *model.Exam) error {
	snapshots, err := s.snapshotRepo.ListByExam(ctx, ex.ID)
	if err != nil {
		return fmt.Errorf("list snapshots: %w", err)
	}

	payload, err := json.Marshal(snapshots)
	if err != nil {
		return fmt.Errorf("marshal snapshots: %w", err)
	}

	pipe := s.rdb.Pipeline()
	pipe.Set(ctx, config.CacheKey.ExamSnapshotKey(ex.ID), payload, 0)
	pipe.Set(ctx, config.CacheKey.ExamDurationKey(ex.ID), ex.DurationMinutes, 0)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cache exam %d: %w", ex.ID, err)
	}

	s.log.Debug().Int64("exam_id", ex.ID).Int("questions", len(snapshots)).Msg("Exam cache warmed")
	return nil
}

// PrewarmAllCaches loads every active exam's answer key into Redis before the
// server accepts traffic, avoiding lazy-load races under a thundering herd.
func (s *Service) PrewarmAllCaches(ctx context.Context) error {
	exams, err := s.examRepo.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("list active exams: %w", err)
	}

	for i := range exams {
		if err := s.WarmExamCache(ctx, &exams[i]); err != nil {
			s.log.Warn().Err(err).Int64("exam_id", exams[i].ID).Msg("Prewarm failed for exam")
		}
	}

	s.log.Info().Int("exams", len(exams)).Msg("Exam caches prewarmed")
	return nil
}
