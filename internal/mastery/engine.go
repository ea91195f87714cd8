// Package mastery holds the answer-evaluation rules of the question bank and
// the option scrambler used when a question is presented.
package mastery

import (
	"errors"
	"fmt"

	"ubilern/internal/models"
)

var (
	// ErrNoSelection is returned when an answer is submitted without a choice.
	ErrNoSelection = errors.New("no option selected")
	// ErrAlreadyAnswered is returned when a presented question is answered twice.
	ErrAlreadyAnswered = errors.New("question already answered")
	// ErrChoiceOutOfRange is returned for a selection outside the presented options.
	ErrChoiceOutOfRange = errors.New("choice out of range")
)

// Outcome is the effect of one answer. It is computed first and then written
// by the store in a single step.
type Outcome struct {
	QuestionID    int64
	Correct       bool
	OldMastery    int
	NewMastery    int
	ProgressDelta int
}

// Evaluate computes the new mastery of rec. A correct answer adds one, capped
// at models.MaxMastery; a wrong answer resets mastery to zero.
func Evaluate(rec models.QuestionRecord, correct bool) Outcome {
	old := clamp(rec.Mastery)
	out := Outcome{
		QuestionID: rec.ID,
		Correct:    correct,
		OldMastery: old,
	}
	if correct {
		out.NewMastery = min(old+1, models.MaxMastery)
	} else {
		out.NewMastery = 0
	}
	out.ProgressDelta = out.NewMastery - old
	return out
}

// Answer records choice on pq and evaluates it. pq must be unanswered.
func Answer(pq *models.PresentedQuestion, choice models.Choice) (Outcome, error) {
	if pq.Answered() {
		return Outcome{}, ErrAlreadyAnswered
	}
	idx, ok := choice.Index()
	if !ok {
		return Outcome{}, ErrNoSelection
	}
	if idx < 0 || idx >= len(pq.Options) {
		return Outcome{}, fmt.Errorf("%w: %d of %d", ErrChoiceOutOfRange, idx, len(pq.Options))
	}
	pq.Choice = choice
	return Evaluate(pq.Record, pq.AnsweredCorrectly()), nil
}

func clamp(m int) int {
	return max(0, min(m, models.MaxMastery))
}
