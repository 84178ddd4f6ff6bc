// Command drawn renders scenes from the command line.
package main

import (
	"fmt"
	"os"

	"github.com/go-drift/drawn/cmd/drawn/cmd"
)

func main() {
	if err := cmd.Execute(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
