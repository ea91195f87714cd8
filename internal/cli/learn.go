package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"ubilern/internal/services"
	"ubilern/internal/ui/quiz"
)

// runQuiz is swapped in tests, which have no terminal.
var runQuiz = func(ctx context.Context, session quiz.Session, opts quiz.Options, stdout io.Writer) error {
	return quiz.Run(ctx, session, opts, tea.WithOutput(stdout))
}

func runLearn(cmd *Command) func(args []string, stdout, stderr io.Writer) int {
	return func(args []string, stdout, stderr io.Writer) int {
		if wantsHelp(args) {
			printCommandUsage(cmd, stdout)
			return ExitOK
		}
		if len(args) > 0 {
			fmt.Fprintf(stderr, "unexpected arguments: %s\n", strings.Join(args, " "))
			printCommandUsage(cmd, stderr)
			return ExitUsage
		}
		if !isTerminal(stdout) {
			fmt.Fprintln(stderr, "ubilern learn needs an interactive terminal")
			return ExitError
		}

		a, err := openApp()
		if err != nil {
			fmt.Fprintf(stderr, "ubilern: %v\n", err)
			return ExitError
		}
		defer a.Close()

		ctx := context.Background()
		empty, err := a.questions.IsEmpty(ctx)
		if err != nil {
			fmt.Fprintf(stderr, "ubilern: %v\n", err)
			return ExitError
		}
		if empty {
			fmt.Fprintln(stderr, "No questions loaded. Run \"ubilern load <file>\" first.")
			return ExitError
		}

		session := services.NewQuizSession(a.questions, newRNG(a.cfg.Seed), a.logger)
		a.logger.Info("learning session started", "session", session.ID(), "seed", a.cfg.Seed)

		opts := quiz.Options{FPS: a.cfg.FPS, NoColor: os.Getenv("NO_COLOR") != ""}
		if err := runQuiz(ctx, session, opts, stdout); err != nil {
			a.logger.Error("learning session failed", "session", session.ID(), "error", err)
			fmt.Fprintf(stderr, "ubilern: %v\n", err)
			return ExitError
		}

		answered, correct := session.Tally()
		progress, capacity, err := a.questions.Progress(ctx)
		if err != nil {
			fmt.Fprintf(stderr, "ubilern: %v\n", err)
			return ExitError
		}
		a.logger.Info("learning session ended", "session", session.ID(), "answered", answered, "correct", correct)
		fmt.Fprintf(stdout, "Answered %d questions, %d correct. Progress %d/%d.\n", answered, correct, progress, capacity)
		return ExitOK
	}
}
