package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/viant/ilcore/ilasm"
	"github.com/viant/ilcore/ilast"
	"github.com/viant/ilcore/pipeline"
)

var (
	settingsFile string
	dumpTree     bool
)

var decompileCmd = &cobra.Command{
	Use:   "decompile [file.ilasm]",
	Short: "Run the transform pipeline over every method in a fixture file",
	Long: `Parse a textual IL-assembly fixture (see the ilasm package's
s-expression format) and run each (method ...) form through the pipeline,
printing the recognized transform steps for every function.

Example:

  ildecompile decompile testdata/lock_roslyn.ilasm --dump-tree`,
	Args: cobra.ExactArgs(1),
	RunE: runDecompile,
}

func init() {
	rootCmd.AddCommand(decompileCmd)

	decompileCmd.Flags().StringVar(&settingsFile, "settings", "", "path to a YAML DecompilerSettings document (default: DefaultSettings, every pass enabled except XML documentation)")
	decompileCmd.Flags().BoolVar(&dumpTree, "dump-tree", false, "print the resulting instruction tree after the pipeline runs")
}

func runDecompile(_ *cobra.Command, args []string) error {
	src, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading %s: %w", args[0], err)
	}

	settings := pipeline.DefaultSettings()
	if settingsFile != "" {
		data, err := os.ReadFile(settingsFile)
		if err != nil {
			return fmt.Errorf("reading settings file %s: %w", settingsFile, err)
		}
		settings, err = pipeline.LoadSettings(data)
		if err != nil {
			return fmt.Errorf("parsing settings file %s: %w", settingsFile, err)
		}
	}

	forms, err := ilasm.Parse(string(src))
	if err != nil {
		return fmt.Errorf("parsing %s: %w", args[0], err)
	}
	if len(forms) == 0 {
		return fmt.Errorf("%s declares no (method ...) forms", args[0])
	}

	driver := pipeline.NewDriver(settings, noXmlDocs)

	for _, form := range forms {
		fn, err := ilasm.BuildFunction(form)
		if err != nil {
			return fmt.Errorf("building function from %s: %w", args[0], err)
		}
		steps, err := driver.DecompileFunction(context.Background(), fn)
		for _, step := range steps {
			if step.Rewrites == 0 && !verbose {
				continue
			}
			fmt.Printf("%-28s %-24s rewrites=%d\n", step.Method, step.Pass, step.Rewrites)
		}
		if err != nil {
			return err
		}
		if dumpTree {
			dumpInstruction(fn.Body, 0)
		}
	}
	return nil
}

// noXmlDocs is the XmlDocLookup used when no documentation source is
// configured: every lookup misses, matching an assembly built without
// /// comments.
func noXmlDocs(string) string { return "" }

func dumpInstruction(n *ilast.Instruction, depth int) {
	fmt.Printf("%s%s\n", strings.Repeat("  ", depth), n.String())
	for _, c := range n.Children() {
		dumpInstruction(c, depth+1)
	}
}
