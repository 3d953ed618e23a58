// Command factory operates a pair factory on a local ledger.
//
// Usage:
//
//	factory init --sender addr0000
//	factory create-pair native:uusd token:contract0009 --sender addr0001
//	factory pair native:uusd token:contract0009
//	factory pairs --all
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rickgao/pair-factory/internal/errs"
)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error (%s): %v\n", errs.Kind(err), err)
		os.Exit(1)
	}
}
