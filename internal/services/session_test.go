package services

import (
	"context"
	"errors"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ubilern/internal/logging"
	"ubilern/internal/mastery"
	"ubilern/internal/models"
)

// flakyStore fails the first failures calls to ApplyAnswer.
type flakyStore struct {
	*QuestionService
	failures int
	err      error
	calls    int
}

func (f *flakyStore) ApplyAnswer(ctx context.Context, out mastery.Outcome, sessionID string) (*models.ReviewLog, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, f.err
	}
	return f.QuestionService.ApplyAnswer(ctx, out, sessionID)
}

func newTestSession(store QuestionStore) *QuizSession {
	s := NewQuizSession(store, rand.New(rand.NewPCG(3, 4)), logging.NewNop())
	s.retryBase = time.Millisecond
	return s
}

func answerCurrent(t *testing.T, s *QuizSession, correct bool) mastery.Outcome {
	t.Helper()
	ctx := context.Background()
	pq, err := s.Next(ctx)
	require.NoError(t, err)
	idx := pq.CorrectIndex
	if !correct {
		idx = (idx + 1) % len(pq.Options)
	}
	out, err := s.Answer(ctx, models.Selected(idx))
	require.NoError(t, err)
	return out
}

func TestSessionThreeCorrectAnswersMasterAQuestion(t *testing.T) {
	store := newTestStore(t)
	seedStore(t, store, 1)
	session := newTestSession(store)

	for want := 1; want <= 3; want++ {
		out := answerCurrent(t, session, true)
		assert.Equal(t, want, out.NewMastery)
		assert.Equal(t, 1, out.ProgressDelta)
	}

	progress, capacity, err := session.Progress(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, progress)
	assert.Equal(t, 3, capacity)

	_, err = session.Next(context.Background())
	assert.ErrorIs(t, err, ErrNoOpenQuestions)
	assert.Nil(t, session.Current())

	answered, correct := session.Tally()
	assert.Equal(t, 3, answered)
	assert.Equal(t, 3, correct)
}

func TestSessionMistakeResetsMastery(t *testing.T) {
	store := newTestStore(t)
	seedStore(t, store, 1)
	session := newTestSession(store)

	answerCurrent(t, session, true)
	answerCurrent(t, session, true)
	out := answerCurrent(t, session, false)

	assert.Equal(t, 2, out.OldMastery)
	assert.Equal(t, 0, out.NewMastery)
	assert.Equal(t, -2, out.ProgressDelta)

	progress, err := store.TotalProgress(context.Background())
	require.NoError(t, err)
	assert.Zero(t, progress)
}

func TestSessionAnswerRequiresQuestionAndChoice(t *testing.T) {
	store := newTestStore(t)
	seedStore(t, store, 1)
	session := newTestSession(store)
	ctx := context.Background()

	_, err := session.Answer(ctx, models.Selected(0))
	assert.ErrorIs(t, err, ErrNoCurrentQuestion)

	_, err = session.Next(ctx)
	require.NoError(t, err)
	_, err = session.Answer(ctx, models.NoSelection())
	assert.ErrorIs(t, err, mastery.ErrNoSelection)
	_, err = session.Answer(ctx, models.Selected(4))
	assert.ErrorIs(t, err, mastery.ErrChoiceOutOfRange)

	_, err = session.Answer(ctx, models.Selected(0))
	require.NoError(t, err)
	_, err = session.Answer(ctx, models.Selected(1))
	assert.ErrorIs(t, err, mastery.ErrAlreadyAnswered)
}

func TestSessionRetriesFailedWrites(t *testing.T) {
	store := &flakyStore{QuestionService: newTestStore(t), failures: 2, err: errors.New("database is locked")}
	seedStore(t, store.QuestionService, 1)
	session := newTestSession(store)

	out := answerCurrent(t, session, true)

	assert.Equal(t, 3, store.calls)
	assert.Equal(t, 1, out.NewMastery)
	progress, err := store.TotalProgress(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, progress)
}

func TestSessionGivesUpAfterRetries(t *testing.T) {
	store := &flakyStore{QuestionService: newTestStore(t), failures: 100, err: errors.New("disk I/O error")}
	seedStore(t, store.QuestionService, 1)
	session := newTestSession(store)
	ctx := context.Background()

	pq, err := session.Next(ctx)
	require.NoError(t, err)
	_, err = session.Answer(ctx, models.Selected(pq.CorrectIndex))
	require.Error(t, err)

	assert.Equal(t, answerRetries+1, store.calls)
	assert.False(t, session.Current().Answered(), "failed write leaves the question unanswered")
	answered, _ := session.Tally()
	assert.Zero(t, answered)
}

func TestSessionDoesNotRetryMissingQuestion(t *testing.T) {
	store := &flakyStore{QuestionService: newTestStore(t), failures: 1, err: ErrQuestionNotFound}
	seedStore(t, store.QuestionService, 1)
	session := newTestSession(store)
	ctx := context.Background()

	pq, err := session.Next(ctx)
	require.NoError(t, err)
	_, err = session.Answer(ctx, models.Selected(pq.CorrectIndex))

	assert.ErrorIs(t, err, ErrQuestionNotFound)
	assert.Equal(t, 1, store.calls)
}

func TestSessionScramblesOptions(t *testing.T) {
	store := newTestStore(t)
	seedStore(t, store, 1)
	session := newTestSession(store)

	pq, err := session.Next(context.Background())
	require.NoError(t, err)

	assert.ElementsMatch(t, pq.Record.Options(), pq.Options)
	assert.Equal(t, pq.Record.CorrectAnswer, pq.Options[pq.CorrectIndex])
	assert.False(t, pq.Answered())
}
