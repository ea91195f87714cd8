package quiz

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"ubilern/internal/models"
)

const optionLetters = "abcd"

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	correctStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	wrongStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	frameStyle   = lipgloss.NewStyle().Padding(1, 2)
)

// View renders the current screen.
func (m Model) View() string {
	sections := []string{m.renderHeader()}
	if m.done {
		sections = append(sections, m.renderDone())
	} else if m.current != nil {
		sections = append(sections, m.renderQuestion(), m.renderOptions(), m.renderOutcome())
	}
	sections = append(sections, m.help.View(m.keys))
	return frameStyle.Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}

func (m Model) renderHeader() string {
	percent := 0.0
	if m.capacity > 0 {
		percent = float64(m.progress) / float64(m.capacity)
	}
	answered, correct := m.session.Tally()
	line := fmt.Sprintf("%s  %d/%d", m.bar.ViewAs(percent), m.progress, m.capacity)
	tally := fmt.Sprintf("session: %d answered, %d correct", answered, correct)
	return lipgloss.JoinVertical(lipgloss.Left,
		m.style(titleStyle).Render("ubilern"),
		line,
		m.style(mutedStyle).Render(tally),
		"",
	)
}

func (m Model) renderQuestion() string {
	rec := m.current.Record
	body := rec.Question
	if m.width > 8 {
		body = lipgloss.NewStyle().Width(m.width - 8).Render(body)
	}
	return fmt.Sprintf("%s\n%s\n", m.style(mutedStyle).Render(fmt.Sprintf("Question %d · mastery %d/%d", rec.ID, rec.Mastery, models.MaxMastery)), body)
}

func (m Model) renderOptions() string {
	chosen, answered := m.current.Choice.Index()
	var b strings.Builder
	for i, option := range m.current.Options {
		line := fmt.Sprintf("%c) %s", optionLetters[i%len(optionLetters)], option)
		switch {
		case answered && i == m.current.CorrectIndex:
			line = m.style(correctStyle).Render(line)
		case answered && i == chosen:
			line = m.style(wrongStyle).Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderOutcome() string {
	if m.outcome == nil {
		return ""
	}
	if m.outcome.Correct {
		return m.style(correctStyle).Render(fmt.Sprintf("Correct! Mastery %d/%d", m.outcome.NewMastery, models.MaxMastery)) + "\n"
	}
	msg := fmt.Sprintf("Wrong. The answer was %c). Mastery reset to 0.", optionLetters[m.current.CorrectIndex%len(optionLetters)])
	return m.style(wrongStyle).Render(msg) + "\n"
}

func (m Model) renderDone() string {
	return m.style(correctStyle).Render("All questions mastered.") + "\n" +
		m.style(mutedStyle).Render("Run `ubilern clear progress` to start over.") + "\n"
}

func (m Model) style(s lipgloss.Style) lipgloss.Style {
	if m.noColor {
		return lipgloss.NewStyle()
	}
	return s
}
