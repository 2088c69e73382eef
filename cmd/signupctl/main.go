// Command signupctl parses a pasted signup sheet offline and prints the
// roster, a sorted view or its stats.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/simplimarked/signup-api/pkg/logging"
)

func main() {
	_ = godotenv.Load()
	logging.Setup()

	if err := newRootCmd(os.Stdin, os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
