// Command ralf runs API-RALF, a chat gateway that streams completions from
// a rotating list of LLM backends and fails over when one is rate limited.
//
// Usage:
//
//	# Start with built-in defaults plus environment (PORT, GEMINI_API_KEY, ...)
//	ralf run
//
//	# Start from a configuration file, reloading it on change
//	ralf run --config ralf.yaml
//
//	# Check a configuration file
//	ralf validate --config ralf.yaml
//
//	# Inspect the dispatch journal
//	ralf journal list --outcome exhausted --since 24h
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/ForLess01/API-RALF/pkg/cli"
)

func main() {
	ctx, stop := cli.SignalContext(context.Background())
	err := newRootCmd().ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	os.Exit(cli.ExitCode(err))
}
