package main

import (
	"fmt"
	"os"

	"spotlight/internal/app"
)

func main() {
	// stdlib log is redirected into the log file once the app starts, so
	// startup errors go straight to stderr.
	if err := app.NewCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Application error: %v\n", err)
		os.Exit(1)
	}
}
