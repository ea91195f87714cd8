package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	"ubilern/internal/logging"
	"ubilern/internal/mastery"
	"ubilern/internal/models"
)

// ErrNoCurrentQuestion is returned when Answer is called before Next.
var ErrNoCurrentQuestion = errors.New("no question presented")

const (
	answerRetries   = 3
	answerRetryBase = 50 * time.Millisecond
)

// QuestionStore is the part of the question bank a quiz session needs.
type QuestionStore interface {
	RandomOpen(ctx context.Context, rng *rand.Rand) (*models.QuestionRecord, error)
	ApplyAnswer(ctx context.Context, out mastery.Outcome, sessionID string) (*models.ReviewLog, error)
	Progress(ctx context.Context) (int, int, error)
}

// QuizSession serves open questions one at a time and writes every answer
// back to the store. It is not safe for concurrent use; one goroutine owns it.
type QuizSession struct {
	store     QuestionStore
	rng       *rand.Rand
	logger    *logging.Logger
	id        string
	retryBase time.Duration

	current  *models.PresentedQuestion
	answered int
	correct  int
}

func NewQuizSession(store QuestionStore, rng *rand.Rand, logger *logging.Logger) *QuizSession {
	id := uuid.NewString()
	return &QuizSession{
		store:     store,
		rng:       rng,
		logger:    logger.With("session", id),
		id:        id,
		retryBase: answerRetryBase,
	}
}

func (s *QuizSession) ID() string {
	return s.id
}

// Current returns the question on screen, or nil before the first Next.
func (s *QuizSession) Current() *models.PresentedQuestion {
	return s.current
}

// Tally returns how many questions were answered in this session and how
// many of them correctly.
func (s *QuizSession) Tally() (answered, correct int) {
	return s.answered, s.correct
}

// Next discards the current question and presents a random open one with
// scrambled options. ErrNoOpenQuestions means the bank is fully mastered.
func (s *QuizSession) Next(ctx context.Context) (*models.PresentedQuestion, error) {
	s.current = nil
	rec, err := s.store.RandomOpen(ctx, s.rng)
	if err != nil {
		return nil, err
	}
	s.current = mastery.Present(s.rng, *rec)
	s.logger.Debug("question presented", "question", rec.ID, "mastery", rec.Mastery)
	return s.current, nil
}

// Answer evaluates choice against the current question and persists the
// outcome. The store write is retried; if it still fails the question is
// left unanswered.
func (s *QuizSession) Answer(ctx context.Context, choice models.Choice) (mastery.Outcome, error) {
	if s.current == nil {
		return mastery.Outcome{}, ErrNoCurrentQuestion
	}
	out, err := mastery.Answer(s.current, choice)
	if err != nil {
		return mastery.Outcome{}, err
	}

	if err := s.persist(ctx, out); err != nil {
		s.current.Choice = models.NoSelection()
		s.logger.Error("answer not saved", "question", out.QuestionID, "error", err)
		return mastery.Outcome{}, fmt.Errorf("save answer to question %d: %w", out.QuestionID, err)
	}

	s.answered++
	if out.Correct {
		s.correct++
	}
	s.logger.Info("question answered",
		"question", out.QuestionID,
		"correct", out.Correct,
		"mastery_before", out.OldMastery,
		"mastery_after", out.NewMastery,
		"progress_delta", out.ProgressDelta,
	)
	return out, nil
}

func (s *QuizSession) persist(ctx context.Context, out mastery.Outcome) error {
	backoff := retry.WithMaxRetries(answerRetries, retry.NewExponential(s.retryBase))
	attempt := 0
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		_, err := s.store.ApplyAnswer(ctx, out, s.id)
		if err == nil {
			return nil
		}
		if errors.Is(err, ErrInvalidMastery) || errors.Is(err, ErrQuestionNotFound) {
			return err
		}
		s.logger.Warn("saving answer failed", "question", out.QuestionID, "attempt", attempt, "error", err)
		return retry.RetryableError(err)
	})
}

// Progress returns total progress and capacity of the bank.
func (s *QuizSession) Progress(ctx context.Context) (int, int, error) {
	return s.store.Progress(ctx)
}
