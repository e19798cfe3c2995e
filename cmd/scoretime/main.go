// Command scoretime exposes the scoring time core on the command line.
// Commands run locally unless --server is given, in which case they call
// the scoring API.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
