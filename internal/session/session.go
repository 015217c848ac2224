package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/examstack/examhall-backend/internal/answercache"
	"github.com/examstack/examhall-backend/internal/exam"
	"github.com/examstack/examhall-backend/internal/grading"
	"github.com/examstack/examhall-backend/internal/model"
	"github.com/examstack/examhall-backend/internal/validator"
	ws "github.com/examstack/examhall-backend/internal/websocket"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// AttemptSource is the attempt persistence view the session needs.
type AttemptSource interface {
	GetByExamAndStudent(ctx context.Context, examID, studentID int64) (*model.Attempt, error)
	Start(ctx context.Context, examID, studentID int64) (*model.Attempt, error)
}

// GradeInvoker triggers grading for an attempt.
type GradeInvoker interface {
	GradeAndSave(ctx context.Context, examID, studentID int64) (*model.GradeResult, error)
}

// Config carries everything a Session needs. Dependencies are acquired once
// per connection, never re-resolved inside the per-second loop.
type Config struct {
	Conn     *websocket.Conn
	Attempt  *model.Attempt
	Exam     *model.Exam
	Cache    *answercache.Cache
	Registry *Registry
	Attempts AttemptSource
	Grader   GradeInvoker
	// GradingTimeout bounds one grading invocation. Zero means 30 seconds.
	GradingTimeout time.Duration
	// TickInterval is the countdown push period. Zero means one second.
	TickInterval time.Duration
	Log          zerolog.Logger
}

// Session owns one live connection for one attempt and runs the two loops
// of the exam protocol: the outbound countdown ticker and the inbound
// message dispatcher. Whichever loop reaches a terminal outcome first ends
// the session; the other is unblocked by cancelling the shared context and
// closing the socket.
type Session struct {
	conn    *websocket.Conn
	writeMu sync.Mutex

	attempt  *model.Attempt
	exam     *model.Exam
	cache    *answercache.Cache
	registry *Registry
	attempts AttemptSource
	grader   GradeInvoker

	gradingTimeout time.Duration
	tickInterval   time.Duration
	log            zerolog.Logger
	now            func() time.Time
}

// New creates a Session for an already-upgraded connection whose attempt
// passed the precondition check.
func New(cfg Config) *Session {
	if cfg.GradingTimeout <= 0 {
		cfg.GradingTimeout = 30 * time.Second
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = time.Second
	}
	return &Session{
		conn:           cfg.Conn,
		attempt:        cfg.Attempt,
		exam:           cfg.Exam,
		cache:          cfg.Cache,
		registry:       cfg.Registry,
		attempts:       cfg.Attempts,
		grader:         cfg.Grader,
		gradingTimeout: cfg.GradingTimeout,
		tickInterval:   cfg.TickInterval,
		log: cfg.Log.With().
			Int64("exam_id", cfg.Attempt.ExamID).
			Int64("student_id", cfg.Attempt.StudentID).
			Logger(),
		now: time.Now,
	}
}

func (s *Session) key() model.AttemptKey {
	return model.AttemptKey{ExamID: s.attempt.ExamID, StudentID: s.attempt.StudentID}
}

// Run drives the session until a terminal outcome and tears down both loops
// before returning. The connection is always closed and the registry entry
// removed by the time Run returns; the answer cache is cleared only by
// grading, so a dropped connection can resume.
func (s *Session) Run(parent context.Context) {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	s.registry.TryAdd(s.key())
	s.log.Info().Msg("Student connected")

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		defer cancel()
		s.tickerLoop(ctx)
	}()
	go func() {
		defer wg.Done()
		defer cancel()
		s.receiverLoop(ctx)
	}()

	<-ctx.Done()
	// Closing the socket unblocks whichever loop is still waiting on it.
	s.conn.Close()
	wg.Wait()

	s.registry.Remove(s.key())
	s.log.Info().Msg("Session closed")
}

// tickerLoop pushes the remaining seconds once per tick and triggers grading
// on expiry. Remaining time is recomputed from server-recorded timestamps on
// every iteration.
func (s *Session) tickerLoop(ctx context.Context) {
	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()

	for {
		remaining := exam.RemainingSeconds(s.attempt, s.exam, s.now())

		if err := s.sendText(strconv.FormatInt(remaining, 10)); err != nil {
			s.log.Debug().Err(err).Msg("Countdown push failed, ending session")
			return
		}

		if remaining <= 0 {
			s.log.Info().Msg("Time is up, auto-submitting")
			if s.finish() {
				return
			}
			// Grading failed but the attempt is still open: keep ticking so
			// the next expiry check or an explicit submit can retry.
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// receiverLoop blocks on inbound messages and dispatches them. Malformed or
// unknown payloads are logged and ignored; the connection survives them.
func (s *Session) receiverLoop(ctx context.Context) {
	for {
		var msg ws.RequestPayload
		if err := ws.ReadJSON(s.conn, &msg); err != nil {
			if isMalformed(err) {
				s.log.Warn().Err(err).Msg("Discarding malformed payload")
				continue
			}
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Warn().Err(err).Msg("Unexpected close")
			} else {
				s.log.Debug().Msg("Connection closed")
			}
			return
		}

		if ctx.Err() != nil {
			return
		}

		if fields := validator.Struct(&msg); fields != nil {
			s.log.Warn().
				Str("action", string(msg.Action)).
				Interface("fields", fields).
				Msg("Discarding invalid payload")
			continue
		}

		switch msg.Action {
		case ws.ActionSubmitAnswer:
			s.handleSubmitAnswer(&msg)
		case ws.ActionSubmitExam, ws.ActionForceSubmit:
			if s.finish() {
				return
			}
		case ws.ActionHeartbeat:
			s.registry.UpdateHeartbeat(s.key())
			s.sendJSON(ws.StatusResponse{Status: "Heartbeat"})
		case ws.ActionSyncState, ws.ActionReconnect:
			s.sendJSON(s.cache.GetAnswers(s.attempt.ExamID, s.attempt.StudentID))
		case ws.ActionStartExam:
			s.handleStartExam(ctx)
		default:
			s.log.Warn().Str("action", string(msg.Action)).Msg("Unknown action")
		}
	}
}

// handleSubmitAnswer buffers one answer edit and acknowledges it.
func (s *Session) handleSubmitAnswer(msg *ws.RequestPayload) {
	s.cache.SaveAnswer(s.attempt.ExamID, s.attempt.StudentID, msg.Order, msg.QuestionID, msg.Answer)
	s.sendJSON(ws.StatusResponse{
		Status: fmt.Sprintf("submitted answer id %d : %s", msg.QuestionID, msg.Answer),
	})
}

// handleStartExam idempotently ensures the attempt row exists and is
// running. The start time is set once by the database; repeated calls and
// reconnects see the original value.
func (s *Session) handleStartExam(ctx context.Context) {
	if _, err := s.attempts.Start(ctx, s.attempt.ExamID, s.attempt.StudentID); err != nil {
		s.log.Error().Err(err).Msg("StartExam failed")
		return
	}
	s.sendJSON(ws.StatusResponse{Status: "started"})
}

// finish runs grading and reports whether the session reached a terminal
// state. Grading executes in its own scope derived from the background
// context: the timeout path may legitimately outlive the socket.
func (s *Session) finish() bool {
	gctx, cancel := context.WithTimeout(context.Background(), s.gradingTimeout)
	defer cancel()

	result, err := s.grader.GradeAndSave(gctx, s.attempt.ExamID, s.attempt.StudentID)
	if err != nil {
		if errors.Is(err, grading.ErrAlreadyGraded) {
			// A competing trigger won; it already delivered the result.
			s.log.Debug().Msg("Attempt already graded by a competing trigger")
			return true
		}
		// Visible failure, attempt stays open for a later retry.
		s.log.Error().Err(err).Msg("Grading failed")
		s.sendJSON(ws.StatusResponse{Status: "error : grading failed"})
		return false
	}

	s.sendJSON(ws.ResultResponse{Status: "submitted", Score: result.Score})
	return true
}

// isMalformed reports whether a read error came from undecodable JSON rather
// than a dead connection.
func isMalformed(err error) bool {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	return errors.As(err, &syntaxErr) || errors.As(err, &typeErr)
}

func (s *Session) sendJSON(v interface{}) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return ws.WriteJSON(s.conn, v)
}

func (s *Session) sendText(text string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return ws.WriteText(s.conn, text)
}
