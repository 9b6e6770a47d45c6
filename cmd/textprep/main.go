// Package main is the entry point for the textprep CLI.
package main

import (
	"os"

	"github.com/Montasar-Dridi/job-recommender-system/cmd/textprep/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
