package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/examstack/examhall-backend/internal/answercache"
	"github.com/examstack/examhall-backend/internal/model"
	"github.com/examstack/examhall-backend/internal/response"
	"github.com/examstack/examhall-backend/internal/session"
	ws "github.com/examstack/examhall-backend/internal/websocket"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty allowedOrigins slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// ExamSource is the exam lookup the handler performs once per connection.
type ExamSource interface {
	GetByID(ctx context.Context, id int64) (*model.Exam, error)
}

// WSHandler owns the exam stream endpoint: it validates the target attempt,
// upgrades the connection and hands it to a Session.
type WSHandler struct {
	attempts       session.AttemptSource
	exams          ExamSource
	grader         session.GradeInvoker
	cache          *answercache.Cache
	registry       *session.Registry
	gradingTimeout time.Duration
	tickInterval   time.Duration
	log            zerolog.Logger
	upgrader       websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(
	attempts session.AttemptSource,
	exams ExamSource,
	grader session.GradeInvoker,
	cache *answercache.Cache,
	registry *session.Registry,
	gradingTimeout time.Duration,
	log zerolog.Logger,
	allowedOrigins []string,
) *WSHandler {
	return &WSHandler{
		attempts:       attempts,
		exams:          exams,
		grader:         grader,
		cache:          cache,
		registry:       registry,
		gradingTimeout: gradingTimeout,
		tickInterval:   time.Second,
		log:            log.With().Str("component", "ws_handler").Logger(),
		upgrader:       buildUpgrader(allowedOrigins),
	}
}

// ExamStream godoc
// WS /ws/v1/exams/stream?exam_id=&student_id=
// Upgrades to WebSocket for the live exam session: countdown pushes,
// answer autosaves and grading on submit or timeout.
func (h *WSHandler) ExamStream(c *gin.Context) {
	// Both identifiers must be present and numeric before the upgrade.
	examID, err := strconv.ParseInt(c.Query("exam_id"), 10, 64)
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}
	studentID, err := strconv.ParseInt(c.Query("student_id"), 10, 64)
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	wsLog := h.log.With().
		Int64("exam_id", examID).
		Int64("student_id", studentID).
		Logger()

	// Precondition: the attempt must exist and not be terminal. Nothing is
	// mutated on rejection.
	attempt, err := h.attempts.GetByExamAndStudent(c.Request.Context(), examID, studentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			ws.WriteError(conn, "no attempt found for this exam and student")
		} else {
			wsLog.Error().Err(err).Msg("Attempt lookup failed")
			ws.WriteError(conn, "could not load attempt")
		}
		return
	}
	if attempt.Status.Terminal() {
		ws.WriteError(conn, "attempt has already been submitted")
		return
	}

	ex, err := h.exams.GetByID(c.Request.Context(), examID)
	if err != nil {
		wsLog.Error().Err(err).Msg("Exam lookup failed")
		ws.WriteError(conn, "could not load exam")
		return
	}

	// The session outlives the request context on the grading path, so it
	// runs against the background context; its own teardown rules apply.
	sess := session.New(session.Config{
		Conn:           conn,
		Attempt:        attempt,
		Exam:           ex,
		Cache:          h.cache,
		Registry:       h.registry,
		Attempts:       h.attempts,
		Grader:         h.grader,
		GradingTimeout: h.gradingTimeout,
		TickInterval:   h.tickInterval,
		Log:            wsLog,
	})
	sess.Run(context.Background())
}
