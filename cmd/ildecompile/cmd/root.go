package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	// Version information (set by build flags)
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "ildecompile",
	Short: "IL-to-high-level-AST decompilation core",
	Long: `ildecompile drives the ilcore decompilation pipeline over textual
IL-assembly fixtures (see the ilasm package's s-expression format).

It recognizes the same compiler-lowering shapes a real IL decompiler
must undo: lock statements, switch-on-string dispatch, using blocks, and
the other passes in transform.Pipeline's fixed order.`,
	Version: Version,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf("ildecompile version {{.Version}}\nCommit: %s\n", GitCommit))
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
