// Command ildecompile is a small CLI front end over the ilcore
// decompilation pipeline: it loads one or more *.ilasm fixture functions
// (see the ilasm package) and runs them through pipeline.Driver, printing
// the recognized transform steps and the resulting tree.
package main

import (
	"fmt"
	"os"

	"github.com/viant/ilcore/cmd/ildecompile/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
