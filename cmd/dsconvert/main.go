// Command dsconvert batch-transcodes the camera videos of a robotics
// dataset to H.264 and rewrites the dataset's JSON metadata to match.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintf(os.Stderr, "dsconvert: %v\n", err)
		}
		os.Exit(1)
	}
}
