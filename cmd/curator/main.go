// curator curates EASMS affinity-selection screens into ML-ready datasets.
//
// Usage:
//
//	curator curate [--in <dir>] [--out <dir>] [--workers N] [--db <file>]
//	curator score  [--in <dir>]
//	curator label  [--in <dir>] [--out <dir>]
//	curator runs   [<run-id>] [--limit N]
//	curator serve  [--port N]
//	curator version
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd(defaultLoggerFactory).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
