package cmd

import "fmt"

func init() {
	RegisterCommand(&Command{
		Name:  "version",
		Short: "Show version information",
		Long:  "Print the drawn CLI version and build time.",
		Usage: "drawn version",
		Run: func([]string) error {
			printVersion()
			return nil
		},
	})
}

func printVersion() {
	fmt.Fprintf(stdout, "drawn version %s (built %s)\n", Version, BuildTime)
}
