package cli

import (
	"fmt"
	"io"
	"strings"
)

// version is overridden at build time with -ldflags "-X ubilern/internal/cli.version=...".
var version = "0.1.0"

const licenseText = "MIT License. Question texts stay the property of their publishers."

func runVersion(cmd *Command) func(args []string, stdout, stderr io.Writer) int {
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
		printVersion(stdout)
		return ExitOK
	}
}

func printVersion(w io.Writer) {
	fmt.Fprintf(w, "ubilern %s\n", version)
	fmt.Fprintln(w, licenseText)
}
