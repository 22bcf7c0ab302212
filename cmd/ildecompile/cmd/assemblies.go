package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/viant/ilcore/metadata"
)

var assembliesCmd = &cobra.Command{
	Use:   "assemblies [root]",
	Short: "List the *.ilasm fixture assemblies found under a directory",
	Long: `Walk root (a local path or any afs-supported URL) and list every
*.ilasm fixture found, along with whether it carries a companion *.mod
manifest.`,
	Args: cobra.ExactArgs(1),
	RunE: runAssemblies,
}

func init() {
	rootCmd.AddCommand(assembliesCmd)
}

func runAssemblies(_ *cobra.Command, args []string) error {
	set := metadata.NewAssemblySet(args[0])
	fixtures, err := set.List(context.Background())
	if err != nil {
		return err
	}
	if len(fixtures) == 0 {
		fmt.Println("no *.ilasm fixtures found")
		return nil
	}
	for _, fx := range fixtures {
		manifest := "no manifest"
		if fx.ManifestURL != "" {
			manifest = "manifest: " + fx.ManifestURL
		}
		fmt.Printf("%-24s %s (%s)\n", fx.Name, fx.SourceURL, manifest)
	}
	return nil
}
