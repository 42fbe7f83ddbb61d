// Command samuelizer transcribes recordings and turns transcripts into
// meeting minutes.
package main

import (
	"os"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}
