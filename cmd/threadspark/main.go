package main

// ============================================================================
// threadspark entry point
//
// Builds the cobra command tree from internal/cli and executes it. All logic
// lives in internal/cli; main only recovers from panics and sets the exit code.
//
//   go run ./cmd/threadspark run -f configs/default.yaml
//   go run ./cmd/threadspark bench -n 200 -k 8
//   go build -ldflags "-X main.version=1.0.0 -X main.commit=$(git rev-parse HEAD)" ./cmd/threadspark
// ============================================================================

import (
	"fmt"
	"os"

	"github.com/ChuLiYu/threadspark/internal/cli"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "fatal: %v\n", r)
			os.Exit(1)
		}
	}()

	rootCmd := cli.BuildCLI()
	if version != "dev" {
		rootCmd.Version = fmt.Sprintf("%s (commit: %s)", version, commit)
	}

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
