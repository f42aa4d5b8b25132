// Package main provides the entry point for the ferret CLI.
package main

import (
	"os"

	"github.com/ferret-go/ferret/cmd/ferret/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
