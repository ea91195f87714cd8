package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"ubilern/internal/models"
	"ubilern/internal/services"
)

func runExplain(cmd *Command) func(args []string, stdout, stderr io.Writer) int {
	return func(args []string, stdout, stderr io.Writer) int {
		if wantsHelp(args) {
			printCommandUsage(cmd, stdout)
			return ExitOK
		}
		if len(args) != 1 {
			fmt.Fprintln(stderr, "explain expects one question id")
			printCommandUsage(cmd, stderr)
			return ExitUsage
		}
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil || id < 0 {
			fmt.Fprintf(stderr, "invalid question id %q\n", args[0])
			return ExitUsage
		}

		a, err := openApp()
		if err != nil {
			fmt.Fprintf(stderr, "ubilern: %v\n", err)
			return ExitError
		}
		defer a.Close()

		ctx := context.Background()
		rec, err := a.questions.Get(ctx, id)
		if err != nil {
			fmt.Fprintf(stderr, "ubilern: %v\n", err)
			return ExitError
		}

		reviews, err := a.questions.ListReviews(ctx, id)
		if err != nil {
			fmt.Fprintf(stderr, "ubilern: %v\n", err)
			return ExitError
		}

		explanation, err := a.ai.Explain(ctx, *rec)
		if errors.Is(err, services.ErrAIUnavailable) {
			fmt.Fprintln(stderr, "No OpenAI API key configured. Set OPENAI_API_KEY or UBILERN_OPENAI_API_KEY.")
			return ExitError
		}
		if err != nil {
			a.logger.Error("explain failed", "question", id, "error", err)
			fmt.Fprintf(stderr, "ubilern: %v\n", err)
			return ExitError
		}

		fmt.Fprintf(stdout, "%d. %s\n\n", rec.ID, rec.Question)
		fmt.Fprintf(stdout, "Answer: %s\n\n%s\n", rec.CorrectAnswer, explanation.Summary)
		for _, note := range explanation.Distractors {
			fmt.Fprintf(stdout, "\n- %s: %s\n", note.Answer, note.Reason)
		}
		printHistory(stdout, reviews)
		return ExitOK
	}
}

func printHistory(w io.Writer, reviews []models.ReviewLog) {
	if len(reviews) == 0 {
		fmt.Fprintln(w, "\nNot answered yet.")
		return
	}
	correct := 0
	for _, r := range reviews {
		if r.Correct {
			correct++
		}
	}
	last := reviews[len(reviews)-1]
	result := "wrong"
	if last.Correct {
		result = "correct"
	}
	fmt.Fprintf(w, "\nAnswered %d times, %d correct. Last: %s on %s, mastery %d.\n",
		len(reviews), correct, result, last.ReviewedAt.Local().Format("2006-01-02"), last.MasteryAfter)
}
