// Command feedplan prints a feeding plan and weekly projection for one batch.
package main

import (
	"os"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}
