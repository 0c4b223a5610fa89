package main

import (
	"fmt"
	"os"
)

// main wires high-level dependencies through the cobra command tree. Business
// logic lives in internal packages.
func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
