// Command stereomerge merges <key>.L/<key>.R mono WAV pairs in a directory
// into stereo files.
package main

import (
	"errors"
	"fmt"
	"os"
)

// version is set at build time via -ldflags
var version = "dev"

func main() {
	if err := newRootCommand().Execute(); err != nil {
		if !errors.Is(err, errPairsFailed) {
			fmt.Fprintf(os.Stderr, "stereomerge: %v\n", err)
		}
		os.Exit(1)
	}
}
