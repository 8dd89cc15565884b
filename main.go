// The main package for the registry-scraper executable.
package main

import (
	"github.com/JakeFAU/company-registry-scraper/cmd"
)

// main defers all execution to the Cobra CLI.
func main() {
	cmd.Execute()
}
