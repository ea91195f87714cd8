package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand/v2"
	"path/filepath"
	"testing"

	"github.com/cucumber/godog"

	"ubilern/internal/db"
	"ubilern/internal/logging"
	"ubilern/internal/mastery"
	"ubilern/internal/models"
)

// TestMasteryFeatures runs the mastery scenarios via godog.
func TestMasteryFeatures(t *testing.T) {
	suite := godog.TestSuite{
		Name: "mastery",
		ScenarioInitializer: func(ctx *godog.ScenarioContext) {
			initializeMasteryScenario(t, ctx)
		},
		Options: &godog.Options{
			Format:    "pretty",
			Paths:     []string{filepath.Join("..", "..", "features", "mastery.feature")},
			Strict:    true,
			TestingT:  t,
			Randomize: 0,
		},
	}
	if suite.Run() != 0 {
		t.Fatalf("non-zero godog status")
	}
}

type masteryState struct {
	t             *testing.T
	conn          *sql.DB
	store         *QuestionService
	session       *QuizSession
	startProgress int
	last          mastery.Outcome
}

func initializeMasteryScenario(t *testing.T, ctx *godog.ScenarioContext) {
	state := &masteryState{t: t}
	ctx.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
		return ctx, state.reset()
	})
	ctx.After(func(ctx context.Context, _ *godog.Scenario, _ error) (context.Context, error) {
		state.close()
		return ctx, nil
	})

	ctx.Step(`^a question bank with question (\d+) at mastery (\d+)$`, state.givenQuestion)
	ctx.Step(`^question (\d+) at mastery (\d+)$`, state.givenQuestion)
	ctx.Step(`^I answer correctly (\d+) times$`, state.answerCorrectly)
	ctx.Step(`^I answer incorrectly$`, state.answerIncorrectly)
	ctx.Step(`^I clear progress$`, state.clearProgress)
	ctx.Step(`^I load the text:$`, state.loadText)
	ctx.Step(`^question (\d+) has mastery (\d+)$`, state.questionHasMastery)
	ctx.Step(`^total progress changed by (-?\d+)$`, state.progressChangedBy)
	ctx.Step(`^the last answer changed progress by (-?\d+)$`, state.lastDeltaIs)
	ctx.Step(`^no open question is left$`, state.noOpenQuestion)
	ctx.Step(`^open questions exist$`, state.openQuestionsExist)
	ctx.Step(`^(\d+) questions are stored$`, state.questionsStored)
	ctx.Step(`^question (\d+) reads "([^"]+)"$`, state.questionReads)
	ctx.Step(`^question (\d+) has correct answer "([^"]+)"$`, state.questionHasCorrectAnswer)
}

func (s *masteryState) reset() error {
	conn, err := db.Open(filepath.Join(s.t.TempDir(), "bank.db"), nil)
	if err != nil {
		return err
	}
	s.conn = conn
	s.store = NewQuestionService(conn)
	s.session = NewQuizSession(s.store, rand.New(rand.NewPCG(7, 11)), logging.NewNop())
	s.startProgress = 0
	s.last = mastery.Outcome{}
	return nil
}

func (s *masteryState) close() {
	if s.conn != nil {
		_ = s.conn.Close()
	}
}

func (s *masteryState) givenQuestion(ctx context.Context, id, level int) error {
	rec := sampleRecord(int64(id))
	if err := s.store.Insert(ctx, rec); err != nil {
		return err
	}
	if err := s.store.UpdateMastery(ctx, rec.ID, level); err != nil {
		return err
	}
	progress, err := s.store.TotalProgress(ctx)
	s.startProgress = progress
	return err
}

func (s *masteryState) answer(ctx context.Context, correct bool) error {
	pq, err := s.session.Next(ctx)
	if err != nil {
		return err
	}
	idx := pq.CorrectIndex
	if !correct {
		idx = (idx + 1) % len(pq.Options)
	}
	out, err := s.session.Answer(ctx, models.Selected(idx))
	if err != nil {
		return err
	}
	s.last = out
	return nil
}

func (s *masteryState) answerCorrectly(ctx context.Context, times int) error {
	for range times {
		if err := s.answer(ctx, true); err != nil {
			return err
		}
	}
	return nil
}

func (s *masteryState) answerIncorrectly(ctx context.Context) error {
	return s.answer(ctx, false)
}

func (s *masteryState) clearProgress(ctx context.Context) error {
	return s.store.ClearProgress(ctx)
}

func (s *masteryState) loadText(ctx context.Context, doc *godog.DocString) error {
	ingest := NewIngestionService(NewPDFService(), s.store, logging.NewNop())
	_, err := ingest.LoadText(ctx, doc.Content, nil)
	return err
}

func (s *masteryState) questionHasMastery(ctx context.Context, id, want int) error {
	rec, err := s.store.Get(ctx, int64(id))
	if err != nil {
		return err
	}
	if rec.Mastery != want {
		return fmt.Errorf("question %d has mastery %d, want %d", id, rec.Mastery, want)
	}
	return nil
}

func (s *masteryState) progressChangedBy(ctx context.Context, want int) error {
	progress, err := s.store.TotalProgress(ctx)
	if err != nil {
		return err
	}
	if got := progress - s.startProgress; got != want {
		return fmt.Errorf("progress changed by %d, want %d", got, want)
	}
	return nil
}

func (s *masteryState) lastDeltaIs(want int) error {
	if s.last.ProgressDelta != want {
		return fmt.Errorf("last answer changed progress by %d, want %d", s.last.ProgressDelta, want)
	}
	return nil
}

func (s *masteryState) noOpenQuestion(ctx context.Context) error {
	_, err := s.session.Next(ctx)
	if !errors.Is(err, ErrNoOpenQuestions) {
		return fmt.Errorf("expected no open question, got %v", err)
	}
	return nil
}

func (s *masteryState) openQuestionsExist(ctx context.Context) error {
	open, err := s.store.HasOpenQuestions(ctx)
	if err != nil {
		return err
	}
	if !open {
		return errors.New("expected open questions")
	}
	return nil
}

func (s *masteryState) questionsStored(ctx context.Context, want int) error {
	count, err := s.store.Count(ctx)
	if err != nil {
		return err
	}
	if count != want {
		return fmt.Errorf("%d questions stored, want %d", count, want)
	}
	return nil
}

func (s *masteryState) questionReads(ctx context.Context, id int, text string) error {
	rec, err := s.store.Get(ctx, int64(id))
	if err != nil {
		return err
	}
	if rec.Question != text {
		return fmt.Errorf("question %d reads %q, want %q", id, rec.Question, text)
	}
	return nil
}

func (s *masteryState) questionHasCorrectAnswer(ctx context.Context, id int, text string) error {
	rec, err := s.store.Get(ctx, int64(id))
	if err != nil {
		return err
	}
	if rec.CorrectAnswer != text {
		return fmt.Errorf("question %d has correct answer %q, want %q", id, rec.CorrectAnswer, text)
	}
	return nil
}
