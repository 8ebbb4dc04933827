// Package main provides the entry point for the actingweb-hooks CLI.
package main

import (
	"fmt"
	"os"

	"github.com/actingweb/actingweb-sub001/cmd/actingweb-hooks/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
