// Command solarctl inspects and drives a solarium from the shell
package main

import (
	"os"
	_ "time/tzdata"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		failColor.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
