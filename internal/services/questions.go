package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/go-playground/validator/v10"
	fsrs "github.com/open-spaced-repetition/go-fsrs"

	"ubilern/internal/mastery"
	"ubilern/internal/models"
)

var (
	// ErrNoOpenQuestions indicates that every question is fully mastered, or
	// that the bank is empty. It is an expected outcome, not a failure.
	ErrNoOpenQuestions = errors.New("no open questions")
	// ErrQuestionNotFound is returned when an id does not exist.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrInvalidQuestion is returned when a record fails validation.
	ErrInvalidQuestion = errors.New("invalid question")
	// ErrInvalidMastery is returned for a mastery count outside [0,3].
	ErrInvalidMastery = errors.New("mastery out of range")
)

const questionColumns = `id, question, answer_0, answer_1, answer_2, answer_3, correctly_answered`

// QuestionService is the durable question bank. Every mutation keeps
// total progress equal to the sum of mastery counts because progress is
// always derived from the rows themselves.
type QuestionService struct {
	db       *sql.DB
	params   fsrs.Parameters
	validate *validator.Validate
	now      func() time.Time
}

func NewQuestionService(db *sql.DB) *QuestionService {
	return &QuestionService{
		db:       db,
		params:   fsrs.DefaultParam(),
		validate: validator.New(),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Insert stores a single question. See BulkInsert.
func (s *QuestionService) Insert(ctx context.Context, rec models.QuestionRecord) error {
	_, err := s.BulkInsert(ctx, []models.QuestionRecord{rec})
	return err
}

// BulkInsert stores questions in one transaction. An id that already exists
// gets its texts replaced and keeps its mastery count.
func (s *QuestionService) BulkInsert(ctx context.Context, recs []models.QuestionRecord) (int, error) {
	if len(recs) == 0 {
		return 0, nil
	}
	for _, rec := range recs {
		if err := s.validateRecord(rec); err != nil {
			return 0, err
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO questions (id, question, answer_0, answer_1, answer_2, answer_3, correctly_answered)
		VALUES (?, ?, ?, ?, ?, ?, 0)
		ON CONFLICT(id) DO UPDATE SET
			question = excluded.question,
			answer_0 = excluded.answer_0,
			answer_1 = excluded.answer_1,
			answer_2 = excluded.answer_2,
			answer_3 = excluded.answer_3;
	`)
	if err != nil {
		return 0, fmt.Errorf("prepare question insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range recs {
		if _, err = stmt.ExecContext(ctx,
			rec.ID,
			rec.Question,
			rec.CorrectAnswer,
			rec.Distractors[0],
			rec.Distractors[1],
			rec.Distractors[2],
		); err != nil {
			return 0, fmt.Errorf("insert question %d: %w", rec.ID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit bulk insert: %w", err)
	}
	return len(recs), nil
}

func (s *QuestionService) validateRecord(rec models.QuestionRecord) error {
	if len(rec.Distractors) != models.DistractorCount {
		return fmt.Errorf("%w: question %d has %d distractors, want %d",
			ErrInvalidQuestion, rec.ID, len(rec.Distractors), models.DistractorCount)
	}
	if err := s.validate.Struct(rec); err != nil {
		return fmt.Errorf("%w: question %d: %v", ErrInvalidQuestion, rec.ID, err)
	}
	return nil
}

// Get returns the question with the given id.
func (s *QuestionService) Get(ctx context.Context, id int64) (*models.QuestionRecord, error) {
	rec, err := scanQuestion(s.db.QueryRowContext(ctx, `
		SELECT `+questionColumns+` FROM questions WHERE id = ?;
	`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %d", ErrQuestionNotFound, id)
		}
		return nil, fmt.Errorf("load question %d: %w", id, err)
	}
	return rec, nil
}

// RandomOpen returns a uniformly random question with mastery below the
// maximum, drawing from rng. It returns ErrNoOpenQuestions when none is left.
func (s *QuestionService) RandomOpen(ctx context.Context, rng *rand.Rand) (*models.QuestionRecord, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var open int
	if err := tx.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM questions WHERE correctly_answered < ?;
	`, models.MaxMastery).Scan(&open); err != nil {
		return nil, fmt.Errorf("count open questions: %w", err)
	}
	if open == 0 {
		return nil, ErrNoOpenQuestions
	}

	rec, err := scanQuestion(tx.QueryRowContext(ctx, `
		SELECT `+questionColumns+`
		FROM questions
		WHERE correctly_answered < ?
		ORDER BY id
		LIMIT 1 OFFSET ?;
	`, models.MaxMastery, rng.IntN(open)))
	if err != nil {
		return nil, fmt.Errorf("select open question: %w", err)
	}
	return rec, nil
}

// UpdateMastery overwrites the mastery count of a question.
func (s *QuestionService) UpdateMastery(ctx context.Context, id int64, count int) error {
	if count < 0 || count > models.MaxMastery {
		return fmt.Errorf("%w: %d", ErrInvalidMastery, count)
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE questions SET correctly_answered = ? WHERE id = ?;
	`, count, id)
	if err != nil {
		return fmt.Errorf("update mastery of %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %d", ErrQuestionNotFound, id)
	}
	return nil
}

// ApplyAnswer writes an evaluated answer: the new mastery count, the FSRS
// schedule and a review log, all in one transaction. The write is absolute,
// so repeating it after a failure is safe.
func (s *QuestionService) ApplyAnswer(ctx context.Context, out mastery.Outcome, sessionID string) (*models.ReviewLog, error) {
	if out.NewMastery < 0 || out.NewMastery > models.MaxMastery {
		return nil, fmt.Errorf("%w: %d", ErrInvalidMastery, out.NewMastery)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, `
		UPDATE questions SET correctly_answered = ? WHERE id = ?;
	`, out.NewMastery, out.QuestionID)
	if err != nil {
		return nil, fmt.Errorf("update mastery of %d: %w", out.QuestionID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		err = fmt.Errorf("%w: %d", ErrQuestionNotFound, out.QuestionID)
		return nil, err
	}

	schedule, err := loadSchedule(ctx, tx, out.QuestionID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	rating := fsrs.Again
	if out.Correct {
		rating = fsrs.Good
	}
	info, ok := s.params.Repeat(schedule.ToFSRSCard(), now)[rating]
	if !ok {
		err = fmt.Errorf("rating %d not supported", rating)
		return nil, err
	}
	schedule.ApplyFSRSCard(info.Card)

	if _, err = tx.ExecContext(ctx, `
		INSERT INTO question_schedules (question_id, due, stability, difficulty, elapsed_days, scheduled_days,
		                                reps, lapses, state, last_review)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(question_id) DO UPDATE SET
			due = excluded.due, stability = excluded.stability, difficulty = excluded.difficulty,
			elapsed_days = excluded.elapsed_days, scheduled_days = excluded.scheduled_days,
			reps = excluded.reps, lapses = excluded.lapses, state = excluded.state,
			last_review = excluded.last_review;
	`,
		schedule.QuestionID,
		nullTimePtr(schedule.Due),
		schedule.Stability,
		schedule.Difficulty,
		schedule.ElapsedDays,
		schedule.ScheduledDays,
		schedule.Reps,
		schedule.Lapses,
		schedule.State,
		nullTimePtr(schedule.LastReview),
	); err != nil {
		return nil, fmt.Errorf("upsert schedule %d: %w", out.QuestionID, err)
	}

	log := &models.ReviewLog{
		QuestionID:    out.QuestionID,
		SessionID:     sessionID,
		Correct:       out.Correct,
		MasteryBefore: out.OldMastery,
		MasteryAfter:  out.NewMastery,
		Rating:        int(info.ReviewLog.Rating),
		ScheduledDays: int(info.ReviewLog.ScheduledDays),
		ElapsedDays:   int(info.ReviewLog.ElapsedDays),
		State:         int(info.ReviewLog.State),
		ReviewedAt:    now,
	}
	res, err = tx.ExecContext(ctx, `
		INSERT INTO review_logs (question_id, session_id, correct, mastery_before, mastery_after, rating,
		                         scheduled_days, elapsed_days, state, reviewed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
	`, log.QuestionID, log.SessionID, log.Correct, log.MasteryBefore, log.MasteryAfter, log.Rating,
		log.ScheduledDays, log.ElapsedDays, log.State, log.ReviewedAt)
	if err != nil {
		return nil, fmt.Errorf("insert review log: %w", err)
	}
	log.ID, _ = res.LastInsertId()

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit answer: %w", err)
	}
	return log, nil
}

func loadSchedule(ctx context.Context, tx *sql.Tx, questionID int64) (*models.Schedule, error) {
	schedule := &models.Schedule{QuestionID: questionID}
	err := tx.QueryRowContext(ctx, `
		SELECT due, stability, difficulty, elapsed_days, scheduled_days, reps, lapses, state, last_review
		FROM question_schedules
		WHERE question_id = ?;
	`, questionID).Scan(
		&schedule.Due,
		&schedule.Stability,
		&schedule.Difficulty,
		&schedule.ElapsedDays,
		&schedule.ScheduledDays,
		&schedule.Reps,
		&schedule.Lapses,
		&schedule.State,
		&schedule.LastReview,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return schedule, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load schedule %d: %w", questionID, err)
	}
	return schedule, nil
}

// TotalProgress returns the sum of all mastery counts.
func (s *QuestionService) TotalProgress(ctx context.Context) (int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(correctly_answered), 0) FROM questions;
	`).Scan(&total); err != nil {
		return 0, fmt.Errorf("sum progress: %w", err)
	}
	return total, nil
}

// TotalCapacity returns the highest reachable progress.
func (s *QuestionService) TotalCapacity(ctx context.Context) (int, error) {
	count, err := s.Count(ctx)
	if err != nil {
		return 0, err
	}
	return models.MaxMastery * count, nil
}

// Progress returns total progress and capacity together.
func (s *QuestionService) Progress(ctx context.Context) (int, int, error) {
	progress, err := s.TotalProgress(ctx)
	if err != nil {
		return 0, 0, err
	}
	capacity, err := s.TotalCapacity(ctx)
	if err != nil {
		return 0, 0, err
	}
	return progress, capacity, nil
}

// Count returns the number of questions.
func (s *QuestionService) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM questions;").Scan(&count); err != nil {
		return 0, fmt.Errorf("count questions: %w", err)
	}
	return count, nil
}

// OpenCount returns the number of questions still eligible for selection.
func (s *QuestionService) OpenCount(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM questions WHERE correctly_answered < ?;",
		models.MaxMastery).Scan(&count); err != nil {
		return 0, fmt.Errorf("count open questions: %w", err)
	}
	return count, nil
}

func (s *QuestionService) IsEmpty(ctx context.Context) (bool, error) {
	count, err := s.Count(ctx)
	return count == 0, err
}

func (s *QuestionService) HasOpenQuestions(ctx context.Context) (bool, error) {
	count, err := s.OpenCount(ctx)
	return count > 0, err
}

// Clear removes every question together with its history.
func (s *QuestionService) Clear(ctx context.Context) error {
	return s.execAll(ctx, "clear questions",
		"DELETE FROM review_logs;",
		"DELETE FROM question_schedules;",
		"DELETE FROM questions;",
	)
}

// ClearProgress resets every mastery count to zero and forgets review
// history. Questions are kept.
func (s *QuestionService) ClearProgress(ctx context.Context) error {
	return s.execAll(ctx, "clear progress",
		"DELETE FROM review_logs;",
		"DELETE FROM question_schedules;",
		"UPDATE questions SET correctly_answered = 0;",
	)
}

func (s *QuestionService) execAll(ctx context.Context, op string, stmts ...string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: begin tx: %w", op, err)
	}
	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("%s: execute %q: %w", op, stmt, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: commit: %w", op, err)
	}
	return nil
}

// Stats summarises the bank for the stats command.
func (s *QuestionService) Stats(ctx context.Context) (*models.Stats, error) {
	stats := &models.Stats{}
	var err error

	if stats.Questions, err = s.Count(ctx); err != nil {
		return nil, err
	}
	if stats.Open, err = s.OpenCount(ctx); err != nil {
		return nil, err
	}
	stats.Mastered = stats.Questions - stats.Open
	if stats.Progress, err = s.TotalProgress(ctx); err != nil {
		return nil, err
	}
	stats.Capacity = models.MaxMastery * stats.Questions

	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM question_schedules WHERE due IS NOT NULL AND due <= ?;",
		s.now()).Scan(&stats.DueForReview); err != nil {
		return nil, fmt.Errorf("count due questions: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM review_logs;").Scan(&stats.ReviewsLogged); err != nil {
		return nil, fmt.Errorf("count review logs: %w", err)
	}
	return stats, nil
}

// ListReviews returns the answer history of a question, oldest first.
func (s *QuestionService) ListReviews(ctx context.Context, questionID int64) ([]models.ReviewLog, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, question_id, session_id, correct, mastery_before, mastery_after, rating,
		       scheduled_days, elapsed_days, state, reviewed_at
		FROM review_logs
		WHERE question_id = ?
		ORDER BY id ASC;
	`, questionID)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	var logs []models.ReviewLog
	for rows.Next() {
		var log models.ReviewLog
		if err := rows.Scan(
			&log.ID,
			&log.QuestionID,
			&log.SessionID,
			&log.Correct,
			&log.MasteryBefore,
			&log.MasteryAfter,
			&log.Rating,
			&log.ScheduledDays,
			&log.ElapsedDays,
			&log.State,
			&log.ReviewedAt,
		); err != nil {
			return nil, fmt.Errorf("scan review log: %w", err)
		}
		logs = append(logs, log)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate review logs: %w", err)
	}
	return logs, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanQuestion(row rowScanner) (*models.QuestionRecord, error) {
	rec := &models.QuestionRecord{Distractors: make([]string, models.DistractorCount)}
	if err := row.Scan(
		&rec.ID,
		&rec.Question,
		&rec.CorrectAnswer,
		&rec.Distractors[0],
		&rec.Distractors[1],
		&rec.Distractors[2],
		&rec.Mastery,
	); err != nil {
		return nil, err
	}
	return rec, nil
}

func nullTimePtr(t sql.NullTime) any {
	if t.Valid {
		return t.Time
	}
	return nil
}
