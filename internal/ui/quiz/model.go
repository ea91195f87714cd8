// Package quiz is the terminal front end of a learning session.
package quiz

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"ubilern/internal/mastery"
	"ubilern/internal/models"
	"ubilern/internal/services"
)

// Session is the quiz logic the model drives.
type Session interface {
	Next(ctx context.Context) (*models.PresentedQuestion, error)
	Answer(ctx context.Context, choice models.Choice) (mastery.Outcome, error)
	Progress(ctx context.Context) (int, int, error)
	Tally() (answered, correct int)
}

// Options configures the quiz model.
type Options struct {
	NoColor bool
	FPS     int
}

// Model renders one presented question at a time. Store calls happen
// synchronously inside Update, so the Bubble Tea loop is the only goroutine
// touching the session.
type Model struct {
	ctx     context.Context
	session Session

	current  *models.PresentedQuestion
	outcome  *mastery.Outcome
	progress int
	capacity int
	done     bool
	err      error

	width   int
	keys    keyMap
	help    help.Model
	bar     progress.Model
	noColor bool
}

// NewModel presents the first open question of session.
func NewModel(ctx context.Context, session Session, opts Options) (Model, error) {
	m := Model{
		ctx:     ctx,
		session: session,
		keys:    defaultKeys(),
		help:    help.New(),
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
		noColor: opts.NoColor,
	}
	if opts.NoColor {
		m.bar = progress.New(progress.WithSolidFill("7"), progress.WithoutPercentage())
	}
	if err := m.refreshProgress(); err != nil {
		return m, err
	}
	if err := m.next(); err != nil {
		return m, err
	}
	return m, nil
}

// Init has nothing to start; the first question is loaded by NewModel.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles key presses and terminal resizes.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = typed.Width
		m.help.Width = typed.Width
		m.bar.Width = max(min(typed.Width-20, 60), 10)
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(typed)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		return m, tea.Quit
	}
	if m.done {
		if key.Matches(msg, m.keys.Next) {
			return m, tea.Quit
		}
		return m, nil
	}

	if !m.current.Answered() {
		idx, ok := m.keys.optionFor(msg)
		if !ok || idx >= len(m.current.Options) {
			return m, nil
		}
		out, err := m.session.Answer(m.ctx, models.Selected(idx))
		if err != nil {
			return m.fail(err)
		}
		m.outcome = &out
		m.progress += out.ProgressDelta
		return m, nil
	}

	if key.Matches(msg, m.keys.Next) {
		if err := m.next(); err != nil {
			return m.fail(err)
		}
		if err := m.refreshProgress(); err != nil {
			return m.fail(err)
		}
	}
	return m, nil
}

func (m *Model) next() error {
	m.outcome = nil
	pq, err := m.session.Next(m.ctx)
	if errors.Is(err, services.ErrNoOpenQuestions) {
		m.current, m.done = nil, true
		return nil
	}
	if err != nil {
		return fmt.Errorf("next question: %w", err)
	}
	m.current = pq
	return nil
}

func (m *Model) refreshProgress() error {
	progress, capacity, err := m.session.Progress(m.ctx)
	if err != nil {
		return fmt.Errorf("read progress: %w", err)
	}
	m.progress, m.capacity = progress, capacity
	return nil
}

func (m Model) fail(err error) (tea.Model, tea.Cmd) {
	m.err = err
	return m, tea.Quit
}

// Err returns the error that ended the session, if any.
func (m Model) Err() error {
	return m.err
}

// Done reports whether every question is mastered.
func (m Model) Done() bool {
	return m.done
}

// Current returns the question on screen.
func (m Model) Current() *models.PresentedQuestion {
	return m.current
}

// Progress returns the progress shown in the header.
func (m Model) Progress() (int, int) {
	return m.progress, m.capacity
}

// Run starts the full-screen quiz and blocks until the user quits. The
// terminal is restored on every exit path, including panics inside the
// program loop.
func Run(ctx context.Context, session Session, opts Options, programOpts ...tea.ProgramOption) error {
	model, err := NewModel(ctx, session, opts)
	if err != nil {
		return err
	}
	programOpts = append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}, programOpts...)
	if opts.FPS > 0 {
		programOpts = append(programOpts, tea.WithFPS(opts.FPS))
	}
	final, err := tea.NewProgram(model, programOpts...).Run()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("run quiz: %w", err)
	}
	if m, ok := final.(Model); ok && m.err != nil {
		return m.err
	}
	return nil
}
