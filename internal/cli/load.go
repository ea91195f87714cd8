package cli

import (
	"context"
	"fmt"
	"io"
)

func runLoad(cmd *Command) func(args []string, stdout, stderr io.Writer) int {
	return func(args []string, stdout, stderr io.Writer) int {
		if wantsHelp(args) {
			printCommandUsage(cmd, stdout)
			return ExitOK
		}
		if len(args) != 1 {
			fmt.Fprintln(stderr, "load expects exactly one file")
			printCommandUsage(cmd, stderr)
			return ExitUsage
		}

		a, err := openApp()
		if err != nil {
			fmt.Fprintf(stderr, "ubilern: %v\n", err)
			return ExitError
		}
		defer a.Close()

		result, err := a.ingestion.LoadFile(context.Background(), args[0], func(step, message string, current, total int) {
			a.logger.Debug(message, "step", step, "current", current, "total", total)
		})
		if err != nil {
			a.logger.Error("load failed", "path", args[0], "error", err)
			fmt.Fprintf(stderr, "ubilern: %v\n", err)
			return ExitError
		}

		a.logger.Info("questions loaded", "path", result.Source, "stored", result.Stored, "abandoned", result.Abandoned)
		fmt.Fprintf(stdout, "Loaded %d questions from %s.\n", result.Stored, result.Source)
		if result.Abandoned > 0 {
			fmt.Fprintf(stdout, "Skipped %d incomplete records.\n", result.Abandoned)
		}
		return ExitOK
	}
}
