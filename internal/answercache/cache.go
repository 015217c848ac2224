package answercache

import (
	"sort"
	"sync"
	"time"

	"github.com/examstack/examhall-backend/internal/model"
)

// Cache buffers a student's in-progress answers for one attempt, keyed
// directly by (exam_id, student_id) so a reconnecting client lands on the
// same entry. Entries are created lazily on the first write and destroyed
// when the attempt leaves IN_PROGRESS.
//
// Writes for one attempt are serialized by a per-attempt mutex; different
// attempts never contend with each other.
type Cache struct {
	mu       sync.RWMutex
	attempts map[model.AttemptKey]*attemptAnswers
	now      func() time.Time
}

type attemptAnswers struct {
	mu      sync.Mutex
	byOrder map[int]model.CachedAnswer
}

// New creates an empty Cache.
func New() *Cache {
	return &Cache{
		attempts: make(map[model.AttemptKey]*attemptAnswers),
		now:      time.Now,
	}
}

// entry returns the per-attempt bucket, creating it if absent.
func (c *Cache) entry(key model.AttemptKey) *attemptAnswers {
	c.mu.RLock()
	a, ok := c.attempts[key]
	c.mu.RUnlock()
	if ok {
		return a
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if a, ok = c.attempts[key]; !ok {
		a = &attemptAnswers{byOrder: make(map[int]model.CachedAnswer)}
		c.attempts[key] = a
	}
	return a
}

// SaveAnswer upserts the answer for the given question order position.
// A later write for the same order replaces the earlier one.
func (c *Cache) SaveAnswer(examID, studentID int64, order int, questionID int64, answerText string) {
	a := c.entry(model.AttemptKey{ExamID: examID, StudentID: studentID})

	a.mu.Lock()
	a.byOrder[order] = model.CachedAnswer{
		Order:      order,
		QuestionID: questionID,
		AnswerText: answerText,
		UpdatedAt:  c.now(),
	}
	a.mu.Unlock()
}

// GetAnswers returns a copy of the attempt's cached answers sorted ascending
// by order. It returns an empty slice when nothing is cached. The copy is
// taken under the attempt lock, so grading never observes a mid-write state.
func (c *Cache) GetAnswers(examID, studentID int64) []model.CachedAnswer {
	c.mu.RLock()
	a, ok := c.attempts[model.AttemptKey{ExamID: examID, StudentID: studentID}]
	c.mu.RUnlock()
	if !ok {
		return []model.CachedAnswer{}
	}

	a.mu.Lock()
	answers := make([]model.CachedAnswer, 0, len(a.byOrder))
	for _, ans := range a.byOrder {
		answers = append(answers, ans)
	}
	a.mu.Unlock()

	sort.Slice(answers, func(i, j int) bool { return answers[i].Order < answers[j].Order })
	return answers
}

// Clear removes all cached state for the attempt. Clearing an attempt that
// has no cached state is a no-op.
func (c *Cache) Clear(examID, studentID int64) {
	c.mu.Lock()
	delete(c.attempts, model.AttemptKey{ExamID: examID, StudentID: studentID})
	c.mu.Unlock()
}

// Len reports how many attempts currently have cached answers.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.attempts)
}
