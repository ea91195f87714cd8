package models

import (
	"database/sql"
	"time"

	fsrs "github.com/open-spaced-repetition/go-fsrs"
)

// MaxMastery is the mastery count at which a question leaves the active pool.
const MaxMastery = 3

// DistractorCount is the number of wrong answers every question carries.
const DistractorCount = 3

// QuestionRecord is one multiple-choice question of the bank.
type QuestionRecord struct {
	ID            int64    `validate:"gte=0"`
	Question      string   `validate:"required"`
	CorrectAnswer string   `validate:"required"`
	Distractors   []string `validate:"len=3,dive,required"`
	Mastery       int      `validate:"gte=0,lte=3"`
}

// IsOpen reports whether the record is still eligible for selection.
func (q QuestionRecord) IsOpen() bool {
	return q.Mastery < MaxMastery
}

// Options returns the answers in canonical order: the correct answer first,
// then the distractors in source order.
func (q QuestionRecord) Options() []string {
	opts := make([]string, 0, 1+len(q.Distractors))
	opts = append(opts, q.CorrectAnswer)
	opts = append(opts, q.Distractors...)
	return opts
}

// Choice is the user's selection on a presented question. The zero value is
// "no selection"; use Selected to build a selection.
type Choice struct {
	index    int
	selected bool
}

// NoSelection returns the empty choice.
func NoSelection() Choice {
	return Choice{}
}

// Selected returns a choice of the option at index.
func Selected(index int) Choice {
	return Choice{index: index, selected: true}
}

// Index returns the selected option and whether a selection was made.
func (c Choice) Index() (int, bool) {
	return c.index, c.selected
}

// IsSelected reports whether the choice holds a selection.
func (c Choice) IsSelected() bool {
	return c.selected
}

// PresentedQuestion is a record prepared for display. It lives until the
// next record is fetched and is never persisted.
type PresentedQuestion struct {
	Record       QuestionRecord
	Options      []string
	CorrectIndex int
	Choice       Choice
}

// Answered reports whether the user already picked an option.
func (p *PresentedQuestion) Answered() bool {
	return p.Choice.IsSelected()
}

// AnsweredCorrectly reports whether the selection points at the correct option.
func (p *PresentedQuestion) AnsweredCorrectly() bool {
	idx, ok := p.Choice.Index()
	return ok && idx == p.CorrectIndex
}

// Schedule is the FSRS review state kept alongside a question.
type Schedule struct {
	QuestionID    int64
	Due           sql.NullTime
	Stability     float64
	Difficulty    float64
	ElapsedDays   int
	ScheduledDays int
	Reps          int
	Lapses        int
	State         int
	LastReview    sql.NullTime
}

// ReviewLog records a single answer event.
type ReviewLog struct {
	ID            int64
	QuestionID    int64
	SessionID     string
	Correct       bool
	MasteryBefore int
	MasteryAfter  int
	Rating        int
	ScheduledDays int
	ElapsedDays   int
	State         int
	ReviewedAt    time.Time
}

// Stats summarises the whole question bank.
type Stats struct {
	Questions     int
	Open          int
	Mastered      int
	Progress      int
	Capacity      int
	DueForReview  int
	ReviewsLogged int
}

func (s *Schedule) ToFSRSCard() fsrs.Card {
	card := fsrs.Card{
		Stability:     s.Stability,
		Difficulty:    s.Difficulty,
		ElapsedDays:   uint64(max(s.ElapsedDays, 0)),
		ScheduledDays: uint64(max(s.ScheduledDays, 0)),
		Reps:          uint64(max(s.Reps, 0)),
		Lapses:        uint64(max(s.Lapses, 0)),
		State:         fsrs.State(max(s.State, 0)),
	}
	if s.Due.Valid {
		card.Due = s.Due.Time
	}
	if s.LastReview.Valid {
		card.LastReview = s.LastReview.Time
	}
	return card
}

func (s *Schedule) ApplyFSRSCard(f fsrs.Card) {
	s.Due = sql.NullTime{Time: f.Due, Valid: !f.Due.IsZero()}
	s.Stability = f.Stability
	s.Difficulty = f.Difficulty
	s.ElapsedDays = int(f.ElapsedDays)
	s.ScheduledDays = int(f.ScheduledDays)
	s.Reps = int(f.Reps)
	s.Lapses = int(f.Lapses)
	s.State = int(f.State)
	s.LastReview = sql.NullTime{Time: f.LastReview, Valid: !f.LastReview.IsZero()}
}
