package extract

import (
	"fmt"
	"io"
	"strings"

	"ubilern/internal/models"
)

type parseState int

const (
	stateSearching parseState = iota
	stateQuestionOpen
	stateQuestionClosed
)

func (s parseState) String() string {
	switch s {
	case stateSearching:
		return "searching"
	case stateQuestionOpen:
		return "question-open"
	case stateQuestionClosed:
		return "question-closed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// answerPhase is the sub-state of stateQuestionClosed.
type answerPhase int

const (
	awaitingAnswerStart answerPhase = iota
	accumulatingAnswer
)

// partialRecord buffers the record under construction.
type partialRecord struct {
	id          int64
	question    []string
	correct     string
	hasCorrect  bool
	distractors []string
	slot        byte
	answer      []string
}

func (p *partialRecord) reset() {
	*p = partialRecord{}
}

func (p *partialRecord) appendQuestion(text string) {
	if text != "" {
		p.question = append(p.question, text)
	}
}

// Extractor recovers question records from normalized text, one line at a
// time. It never looks back at lines that produced an emitted record.
type Extractor struct {
	state     parseState
	phase     answerPhase
	rec       partialRecord
	records   []models.QuestionRecord
	abandoned int
}

// NewExtractor returns an extractor in the searching state.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract normalizes text and returns every complete record in it.
// Malformed or incomplete records are skipped.
func Extract(text string) []models.QuestionRecord {
	return NewExtractor().Extract(text)
}

// Extract feeds every line of the normalized text and finishes.
func (x *Extractor) Extract(text string) []models.QuestionRecord {
	for _, line := range strings.Split(Normalize(text), "\n") {
		x.Feed(line)
	}
	return x.Finish()
}

// ExtractFrom reads r to the end and extracts its records. Only read
// failures are returned as errors.
func ExtractFrom(r io.Reader) ([]models.QuestionRecord, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read text: %w", err)
	}
	return Extract(string(raw)), nil
}

// Feed consumes one line.
func (x *Extractor) Feed(raw string) {
	line := strings.TrimSpace(raw)
	switch x.state {
	case stateSearching:
		x.search(line)
	case stateQuestionOpen:
		x.collectQuestion(line)
	case stateQuestionClosed:
		x.collectAnswers(line)
	}
}

// Finish closes an answer block still open at the end of input and returns
// the records emitted so far.
func (x *Extractor) Finish() []models.QuestionRecord {
	if x.state == stateQuestionClosed && x.phase == accumulatingAnswer {
		x.finishAnswer()
	}
	if x.state != stateSearching {
		x.abandon()
	}
	records := x.records
	if records == nil {
		records = []models.QuestionRecord{}
	}
	return records
}

// Abandoned returns how many started records were dropped.
func (x *Extractor) Abandoned() int {
	return x.abandoned
}

func (x *Extractor) search(line string) {
	if line == "" {
		return
	}
	id, text, ok := MatchStart(line)
	if !ok {
		return
	}
	if endID, _, closed := MatchEnd(line); closed {
		if endID != id {
			return
		}
		question, ok := MatchSandwiched(line)
		if !ok {
			return
		}
		x.rec.reset()
		x.rec.id = id
		x.rec.appendQuestion(question)
		x.closeQuestion()
		return
	}
	x.rec.reset()
	x.rec.id = id
	x.rec.appendQuestion(text)
	x.state = stateQuestionOpen
}

// collectQuestion appends wrapped question lines until the end marker. A
// blank line before the end marker drops the record.
func (x *Extractor) collectQuestion(line string) {
	if line == "" {
		x.abandon()
		return
	}
	id, text, ok := MatchEnd(line)
	if !ok {
		x.rec.appendQuestion(line)
		return
	}
	if id != x.rec.id {
		x.abandon()
		return
	}
	x.rec.appendQuestion(text)
	x.closeQuestion()
}

func (x *Extractor) closeQuestion() {
	x.state = stateQuestionClosed
	x.phase = awaitingAnswerStart
	x.rec.slot = 'a'
}

func (x *Extractor) collectAnswers(line string) {
	switch x.phase {
	case awaitingAnswerStart:
		if line == "" {
			return
		}
		if slot, text, ok := MatchAnswer(line); ok {
			x.rec.slot = slot
			x.rec.answer = x.rec.answer[:0]
			if text != "" {
				x.rec.answer = append(x.rec.answer, text)
			}
			x.phase = accumulatingAnswer
			return
		}
		if _, _, ok := MatchStart(line); ok {
			x.abandon()
			x.search(line)
		}
	case accumulatingAnswer:
		if line == "" {
			x.finishAnswer()
			return
		}
		if _, _, ok := MatchStart(line); ok {
			x.abandon()
			x.search(line)
			return
		}
		x.rec.answer = append(x.rec.answer, line)
	}
}

func (x *Extractor) finishAnswer() {
	text := collapse(strings.Join(x.rec.answer, " "))
	x.rec.answer = x.rec.answer[:0]
	x.phase = awaitingAnswerStart

	if x.rec.slot == 'a' {
		x.rec.correct = text
		x.rec.hasCorrect = true
	} else {
		x.rec.distractors = append(x.rec.distractors, text)
	}
	if len(x.rec.distractors) == models.DistractorCount {
		x.emit()
	}
}

func (x *Extractor) emit() {
	rec := models.QuestionRecord{
		ID:            x.rec.id,
		Question:      collapse(strings.Join(x.rec.question, " ")),
		CorrectAnswer: x.rec.correct,
		Distractors:   append([]string(nil), x.rec.distractors...),
	}
	if x.rec.hasCorrect && complete(rec) {
		x.records = append(x.records, rec)
	} else {
		x.abandoned++
	}
	x.rec.reset()
	x.state = stateSearching
}

func (x *Extractor) abandon() {
	x.abandoned++
	x.rec.reset()
	x.state = stateSearching
	x.phase = awaitingAnswerStart
}

func complete(rec models.QuestionRecord) bool {
	if rec.Question == "" || rec.CorrectAnswer == "" {
		return false
	}
	for _, d := range rec.Distractors {
		if d == "" {
			return false
		}
	}
	return len(rec.Distractors) == models.DistractorCount
}
