// Command yieldcast forecasts crop yield from a trained pipeline artifact and
// a reference dataset.
package main

import (
	"fmt"
	"os"

	"github.com/ezoic/yieldcast/pkg/errors"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "yieldcast:", err)
		os.Exit(exitCode(err))
	}
}

// exitCode is 2 for startup failures and 1 for everything else.
func exitCode(err error) int {
	if errors.IsStartupError(err) {
		return 2
	}
	return 1
}
