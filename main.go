// The main package for the doubanlink executable.
package main

import (
	// Loads a local .env before anything reads the environment, so the
	// TMDB key can live next to the binary during development.
	_ "github.com/joho/godotenv/autoload"

	"doubanlink/cmd"
)

// main defers all execution to the Cobra CLI.
func main() {
	cmd.Execute()
}
