package answercache

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testExamID    = int64(7)
	testStudentID = int64(42)
)

func TestSaveAnswer_LastWriteWinsPerOrder(t *testing.T) {
	c := New()

	c.SaveAnswer(testExamID, testStudentID, 1, 10, "first")
	c.SaveAnswer(testExamID, testStudentID, 1, 10, "second")
	c.SaveAnswer(testExamID, testStudentID, 1, 10, "final")

	answers := c.GetAnswers(testExamID, testStudentID)
	require.Len(t, answers, 1)
	assert.Equal(t, 1, answers[0].Order)
	assert.Equal(t, int64(10), answers[0].QuestionID)
	assert.Equal(t, "final", answers[0].AnswerText)
}

func TestGetAnswers_SortedByOrder(t *testing.T) {
	c := New()

	// Insert out of order on purpose.
	for _, order := range []int{5, 1, 3, 2, 4} {
		c.SaveAnswer(testExamID, testStudentID, order, int64(100+order), fmt.Sprintf("ans-%d", order))
	}

	answers := c.GetAnswers(testExamID, testStudentID)
	require.Len(t, answers, 5)
	for i, a := range answers {
		assert.Equal(t, i+1, a.Order)
		assert.Equal(t, fmt.Sprintf("ans-%d", i+1), a.AnswerText)
	}
}

func TestGetAnswers_EmptyForUnknownAttempt(t *testing.T) {
	c := New()

	answers := c.GetAnswers(99, 99)
	assert.NotNil(t, answers)
	assert.Empty(t, answers)
}

func TestClear_Idempotent(t *testing.T) {
	c := New()

	// Clearing an attempt that never existed must not panic or error.
	c.Clear(testExamID, testStudentID)

	c.SaveAnswer(testExamID, testStudentID, 1, 10, "a")
	c.Clear(testExamID, testStudentID)
	c.Clear(testExamID, testStudentID)

	assert.Empty(t, c.GetAnswers(testExamID, testStudentID))
	assert.Equal(t, 0, c.Len())
}

func TestSaveAnswer_ConcurrentBurstSameAttempt(t *testing.T) {
	c := New()

	// Simulate a keystroke-triggered autosave burst: many goroutines writing
	// many orders for the same attempt.
	const writers = 16
	const orders = 20

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for order := 1; order <= orders; order++ {
				c.SaveAnswer(testExamID, testStudentID, order, int64(order), fmt.Sprintf("w%d", w))
			}
		}(w)
	}
	wg.Wait()

	answers := c.GetAnswers(testExamID, testStudentID)
	require.Len(t, answers, orders)
	for i, a := range answers {
		assert.Equal(t, i+1, a.Order, "exactly one entry per order, ascending")
	}
}

func TestAttemptsDoNotInterfere(t *testing.T) {
	c := New()

	c.SaveAnswer(1, 1, 1, 10, "student one")
	c.SaveAnswer(1, 2, 1, 10, "student two")
	c.SaveAnswer(2, 1, 1, 10, "other exam")

	c.Clear(1, 2)

	require.Len(t, c.GetAnswers(1, 1), 1)
	assert.Equal(t, "student one", c.GetAnswers(1, 1)[0].AnswerText)
	assert.Empty(t, c.GetAnswers(1, 2))
	require.Len(t, c.GetAnswers(2, 1), 1)
}

func TestGetAnswers_ReturnsCopy(t *testing.T) {
	c := New()
	c.SaveAnswer(testExamID, testStudentID, 1, 10, "original")

	answers := c.GetAnswers(testExamID, testStudentID)
	answers[0].AnswerText = "mutated"

	assert.Equal(t, "original", c.GetAnswers(testExamID, testStudentID)[0].AnswerText)
}
