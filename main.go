// The main package for the rfp-radar executable.
package main

import (
	"github.com/JakeFAU/rfp-radar/cmd"
)

// main defers all execution to the Cobra CLI library.
func main() {
	cmd.Execute()
}
