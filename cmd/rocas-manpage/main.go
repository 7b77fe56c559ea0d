package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra/doc"

	"github.com/arthur-debert/rocas/cmd/rocas"
	"github.com/arthur-debert/rocas/internal/version"
)

// Writes rocas(1) to stdout, or one page per command into the directory
// given as the first argument.
func main() {
	rootCmd := rocas.NewRootCmd()

	header := &doc.GenManHeader{
		Title:   "ROCAS",
		Section: "1",
		Source:  "rocas " + version.Get().Version,
		Manual:  "rocas manual",
	}

	var err error
	if len(os.Args) > 1 {
		err = doc.GenManTree(rootCmd, header, os.Args[1])
	} else {
		err = doc.GenMan(rootCmd, header, os.Stdout)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating man page: %v\n", err)
		os.Exit(1)
	}
}
