package cli

import (
	"context"
	"fmt"
	"io"
)

func runClear(cmd *Command) func(args []string, stdout, stderr io.Writer) int {
	return func(args []string, stdout, stderr io.Writer) int {
		if wantsHelp(args) {
			printCommandUsage(cmd, stdout)
			return ExitOK
		}
		if len(args) != 1 || (args[0] != "questions" && args[0] != "progress") {
			fmt.Fprintln(stderr, "clear expects \"questions\" or \"progress\"")
			printCommandUsage(cmd, stderr)
			return ExitUsage
		}

		a, err := openApp()
		if err != nil {
			fmt.Fprintf(stderr, "ubilern: %v\n", err)
			return ExitError
		}
		defer a.Close()

		ctx := context.Background()
		if args[0] == "questions" {
			err = a.questions.Clear(ctx)
		} else {
			err = a.questions.ClearProgress(ctx)
		}
		if err != nil {
			a.logger.Error("clear failed", "what", args[0], "error", err)
			fmt.Fprintf(stderr, "ubilern: %v\n", err)
			return ExitError
		}

		a.logger.Info("cleared", "what", args[0])
		if args[0] == "questions" {
			fmt.Fprintln(stdout, "All questions deleted.")
		} else {
			fmt.Fprintln(stdout, "Progress reset.")
		}
		return ExitOK
	}
}
