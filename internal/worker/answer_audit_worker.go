package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/examstack/examhall-backend/internal/config"
	"github.com/examstack/examhall-backend/internal/model"
	"github.com/examstack/examhall-backend/internal/repository"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	auditBatchSize    = 100
	auditBatchTimeout = 2 * time.Second
	auditPollTimeout  = 1 * time.Second
)

// AnswerAuditWorker drains the graded-answer queue into PostgreSQL. The
// queue is filled by the grading engine; grading correctness never depends
// on this worker, it only provides the per-answer audit trail.
type AnswerAuditWorker struct {
	answers *repository.AnswerRepository
	rdb     *redis.Client
	log     zerolog.Logger
}

// NewAnswerAuditWorker creates a new AnswerAuditWorker.
func NewAnswerAuditWorker(answers *repository.AnswerRepository, rdb *redis.Client, log zerolog.Logger) *AnswerAuditWorker {
	return &AnswerAuditWorker{
		answers: answers,
		rdb:     rdb,
		log:     log.With().Str("component", "answer_audit_worker").Logger(),
	}
}

// Start begins the worker loop with batching. Call in a goroutine; the loop
// exits after draining the current batch when ctx is cancelled.
func (w *AnswerAuditWorker) Start(ctx context.Context) {
	w.log.Info().Msg("AnswerAuditWorker started")

	batch := make([]model.GradedAnswer, 0, auditBatchSize)
	lastFlush := time.Now()

	for {
		if len(batch) > 0 &&
			(len(batch) >= auditBatchSize || time.Since(lastFlush) >= auditBatchTimeout) {

			w.flushSafe(ctx, batch)
			batch = batch[:0]
			lastFlush = time.Now()
		}

		select {
		case <-ctx.Done():
			w.log.Info().Msg("Shutdown requested, flushing remaining batch")
			w.flushSafe(context.Background(), batch)
			return

		default:
			item, err := w.rdb.BLPop(ctx, auditPollTimeout, config.WorkerKey.PersistAnswersQueue).Result()
			if err != nil {
				if err != redis.Nil && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
				}
				continue
			}

			if len(item) < 2 {
				continue
			}

			var record model.GradedAnswer
			if err := json.Unmarshal([]byte(item[1]), &record); err != nil {
				w.log.Error().Err(err).Msg("Invalid JSON payload, dropping")
				continue
			}

			batch = append(batch, record)
		}
	}
}

// flushSafe writes a batch, requeueing every record on failure so nothing
// is lost across worker restarts.
func (w *AnswerAuditWorker) flushSafe(ctx context.Context, batch []model.GradedAnswer) {
	if len(batch) == 0 {
		return
	}

	if err := w.answers.BulkUpsert(ctx, batch); err != nil {
		w.log.Error().Err(err).Int("count", len(batch)).Msg("Bulk upsert failed, requeueing batch")
		for _, record := range batch {
			raw, marshalErr := json.Marshal(record)
			if marshalErr != nil {
				continue
			}
			w.rdb.RPush(ctx, config.WorkerKey.PersistAnswersQueue, raw)
		}
		return
	}

	w.log.Debug().Int("count", len(batch)).Msg("Audit batch persisted")
}
