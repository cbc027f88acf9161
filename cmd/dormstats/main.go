package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/dormstats/dormstats/internal/cli"
	"github.com/dormstats/dormstats/pkg/dormstats"
)

func main() {
	// Recover from panics to ensure graceful exits with stack traces
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "panic: %v\n%s\n", r, debug.Stack())
			os.Exit(dormstats.ExitPanic)
		}
	}()

	if err := cli.Execute(); err != nil {
		os.Exit(dormstats.ExitCodeForError(err))
	}
}
