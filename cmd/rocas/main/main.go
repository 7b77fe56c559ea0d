package main

import (
	"fmt"
	"os"

	"github.com/arthur-debert/rocas/cmd/rocas"
	"github.com/arthur-debert/rocas/pkg/ui"
)

func main() {
	rootCmd := rocas.NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		msg := fmt.Sprintf("Error: %v", err)
		if ui.DetectFormat(os.Stderr) == ui.FormatTerminal {
			msg = ui.DefaultStyles().Render("Failed", msg)
		}
		fmt.Fprintln(os.Stderr, msg)
		os.Exit(1)
	}
}
