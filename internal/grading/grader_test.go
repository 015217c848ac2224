package grading

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/examstack/examhall-backend/internal/answercache"
	"github.com/examstack/examhall-backend/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	examID    = int64(1)
	studentID = int64(9)
)

// fakeAttemptStore keeps attempts in memory with the same CAS contract as
// the PostgreSQL repository.
type fakeAttemptStore struct {
	mu       sync.Mutex
	attempts map[model.AttemptKey]*model.Attempt
	writes   int
}

func newFakeAttemptStore() *fakeAttemptStore {
	return &fakeAttemptStore{attempts: make(map[model.AttemptKey]*model.Attempt)}
}

func (f *fakeAttemptStore) add(a *model.Attempt) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attempts[model.AttemptKey{ExamID: a.ExamID, StudentID: a.StudentID}] = a
}

func (f *fakeAttemptStore) GetByExamAndStudent(_ context.Context, examID, studentID int64) (*model.Attempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.attempts[model.AttemptKey{ExamID: examID, StudentID: studentID}]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *a
	return &cp, nil
}

func (f *fakeAttemptStore) CompleteIfInProgress(_ context.Context, examID, studentID int64, score float64, finishedAt time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.attempts[model.AttemptKey{ExamID: examID, StudentID: studentID}]
	if !ok || a.Status != model.AttemptStatusInProgress {
		return false, nil
	}
	a.Status = model.AttemptStatusCompleted
	a.Score = &score
	a.FinishedAt = &finishedAt
	f.writes++
	return true, nil
}

type fakeSnapshotSource struct {
	snapshots []model.QuestionSnapshot
}

func (f *fakeSnapshotSource) Snapshots(context.Context, int64) ([]model.QuestionSnapshot, error) {
	return f.snapshots, nil
}

type captureAuditSink struct {
	mu      sync.Mutex
	records []model.GradedAnswer
}

func (f *captureAuditSink) EnqueueGraded(_ context.Context, records []model.GradedAnswer) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, records...)
	return nil
}

func newTestGrader(store *fakeAttemptStore, snaps []model.QuestionSnapshot, cache *answercache.Cache, audit *captureAuditSink) *Grader {
	return NewGrader(store, &fakeSnapshotSource{snapshots: snaps}, cache, audit, zerolog.Nop())
}

func inProgressAttempt() *model.Attempt {
	return &model.Attempt{
		ExamID:    examID,
		StudentID: studentID,
		StartedAt: time.Now().Add(-10 * time.Minute),
		Status:    model.AttemptStatusInProgress,
	}
}

func TestGradeAndSave_ScoresMatchedPoints(t *testing.T) {
	store := newFakeAttemptStore()
	store.add(inProgressAttempt())

	cache := answercache.New()
	cache.SaveAnswer(examID, studentID, 1, 10, "Paris")
	cache.SaveAnswer(examID, studentID, 2, 11, "wrong")

	audit := &captureAuditSink{}
	g := newTestGrader(store, []model.QuestionSnapshot{
		{QuestionID: 10, CorrectAnswer: "paris", Point: 5},
		{QuestionID: 11, CorrectAnswer: "right", Point: 3},
	}, cache, audit)

	result, err := g.GradeAndSave(context.Background(), examID, studentID)
	require.NoError(t, err)
	assert.Equal(t, float64(5), result.Score)
	assert.Equal(t, float64(8), result.MaxScore)

	// The attempt is terminal with the score persisted once.
	a, err := store.GetByExamAndStudent(context.Background(), examID, studentID)
	require.NoError(t, err)
	assert.Equal(t, model.AttemptStatusCompleted, a.Status)
	require.NotNil(t, a.Score)
	assert.Equal(t, float64(5), *a.Score)
	assert.NotNil(t, a.FinishedAt)
}

func TestGradeAndSave_AuditIncludesZeroScoredAnswers(t *testing.T) {
	store := newFakeAttemptStore()
	store.add(inProgressAttempt())

	cache := answercache.New()
	cache.SaveAnswer(examID, studentID, 1, 10, "Paris")
	cache.SaveAnswer(examID, studentID, 2, 11, "wrong")

	audit := &captureAuditSink{}
	g := newTestGrader(store, []model.QuestionSnapshot{
		{QuestionID: 10, CorrectAnswer: "paris", Point: 5},
		{QuestionID: 11, CorrectAnswer: "right", Point: 3},
	}, cache, audit)

	_, err := g.GradeAndSave(context.Background(), examID, studentID)
	require.NoError(t, err)

	require.Len(t, audit.records, 2)
	assert.True(t, audit.records[0].Correct)
	assert.Equal(t, float64(5), audit.records[0].Earned)
	assert.False(t, audit.records[1].Correct)
	assert.Equal(t, float64(0), audit.records[1].Earned)
}

func TestGradeAndSave_ClearsCache(t *testing.T) {
	store := newFakeAttemptStore()
	store.add(inProgressAttempt())

	cache := answercache.New()
	cache.SaveAnswer(examID, studentID, 1, 10, "anything")

	g := newTestGrader(store, []model.QuestionSnapshot{
		{QuestionID: 10, CorrectAnswer: "anything", Point: 1},
	}, cache, &captureAuditSink{})

	_, err := g.GradeAndSave(context.Background(), examID, studentID)
	require.NoError(t, err)
	assert.Empty(t, cache.GetAnswers(examID, studentID))
}

func TestGradeAndSave_MultiSelectTokenComparison(t *testing.T) {
	store := newFakeAttemptStore()
	store.add(inProgressAttempt())

	cache := answercache.New()
	cache.SaveAnswer(examID, studentID, 1, 10, "c, a")
	cache.SaveAnswer(examID, studentID, 2, 11, "a")

	g := newTestGrader(store, []model.QuestionSnapshot{
		// Authoring tools mark correct options with '*' and mix delimiters.
		{QuestionID: 10, CorrectAnswer: "*A; *C", Point: 4},
		{QuestionID: 11, CorrectAnswer: "a, b", Point: 2},
	}, cache, &captureAuditSink{})

	result, err := g.GradeAndSave(context.Background(), examID, studentID)
	require.NoError(t, err)
	// Question 10 matches as an order-independent set; question 11 is a
	// partial selection and earns nothing.
	assert.Equal(t, float64(4), result.Score)
}

func TestGradeAndSave_MissingAttemptIsFatal(t *testing.T) {
	g := newTestGrader(newFakeAttemptStore(), nil, answercache.New(), &captureAuditSink{})

	_, err := g.GradeAndSave(context.Background(), examID, studentID)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAttemptNotFound)
}

func TestGradeAndSave_RefusesTerminalAttempt(t *testing.T) {
	store := newFakeAttemptStore()
	a := inProgressAttempt()
	a.Status = model.AttemptStatusCompleted
	store.add(a)

	g := newTestGrader(store, nil, answercache.New(), &captureAuditSink{})

	_, err := g.GradeAndSave(context.Background(), examID, studentID)
	assert.ErrorIs(t, err, ErrAlreadyGraded)
	assert.Zero(t, store.writes)
}

func TestGradeAndSave_ExactlyOnceUnderRace(t *testing.T) {
	store := newFakeAttemptStore()
	store.add(inProgressAttempt())

	cache := answercache.New()
	cache.SaveAnswer(examID, studentID, 1, 10, "paris")

	g := newTestGrader(store, []model.QuestionSnapshot{
		{QuestionID: 10, CorrectAnswer: "Paris", Point: 5},
	}, cache, &captureAuditSink{})

	// Simulate timer expiry and explicit submit racing each other.
	const callers = 2
	results := make([]*model.GradeResult, callers)
	errs := make([]error, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = g.GradeAndSave(context.Background(), examID, studentID)
		}(i)
	}
	wg.Wait()

	var wins, aborts int
	for i := 0; i < callers; i++ {
		if errs[i] == nil {
			wins++
			assert.Equal(t, float64(5), results[i].Score)
		} else {
			aborts++
			assert.ErrorIs(t, errs[i], ErrAlreadyGraded)
		}
	}
	assert.Equal(t, 1, wins, "exactly one caller grades")
	assert.Equal(t, 1, aborts, "the loser observes a terminal attempt")
	assert.Equal(t, 1, store.writes, "exactly one persisted score write")
}
