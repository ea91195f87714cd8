package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
)

func runStats(cmd *Command) func(args []string, stdout, stderr io.Writer) int {
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

		a, err := openApp()
		if err != nil {
			fmt.Fprintf(stderr, "ubilern: %v\n", err)
			return ExitError
		}
		defer a.Close()

		stats, err := a.questions.Stats(context.Background())
		if err != nil {
			fmt.Fprintf(stderr, "ubilern: %v\n", err)
			return ExitError
		}

		fmt.Fprintf(stdout, "Questions:  %d\n", stats.Questions)
		fmt.Fprintf(stdout, "Open:       %d\n", stats.Open)
		fmt.Fprintf(stdout, "Mastered:   %d\n", stats.Mastered)
		fmt.Fprintf(stdout, "Progress:   %d/%d\n", stats.Progress, stats.Capacity)
		fmt.Fprintf(stdout, "Due:        %d\n", stats.DueForReview)
		fmt.Fprintf(stdout, "Answers:    %d\n", stats.ReviewsLogged)
		return ExitOK
	}
}
