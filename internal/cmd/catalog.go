package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/promptalchemy/promptalchemy/internal/catalog"
	"github.com/promptalchemy/promptalchemy/internal/observability"
)

var catalogFamilyID string

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "List model families and checkpoints",
	Long: `List the model families available for prompt generation.

Without flags, all families are listed. Use --family to show the
checkpoints and auxiliary notes of a single family.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := catalog.Load()
		if err != nil {
			ExitWithCode(observability.CLILogger, foundry.ExitConfigInvalid, "Failed to load model catalog", err)
		}

		if catalogFamilyID != "" {
			family, ok := cat.Family(catalogFamilyID)
			if !ok {
				known := make([]string, 0, len(cat.Families))
				for _, f := range cat.Families {
					known = append(known, f.ID)
				}
				return fmt.Errorf("unknown model family %q (known: %s)", catalogFamilyID, strings.Join(known, ", "))
			}
			renderCheckpointTable(family)
			return nil
		}

		renderFamilyTable(cat)
		return nil
	},
}

func renderFamilyTable(cat *catalog.Catalog) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"ID", "Family", "Architecture", "Resolution", "Checkpoints"})

	for _, family := range cat.Families {
		t.AppendRow(table.Row{
			family.ID,
			family.Label,
			family.Architecture,
			family.DefaultResolution,
			len(family.Checkpoints),
		})
	}

	t.Render()
}

func renderCheckpointTable(family catalog.Family) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleRounded)
	t.SetTitle(family.Label)
	t.AppendHeader(table.Row{"ID", "Checkpoint", "Path"})

	for _, cp := range family.Checkpoints {
		t.AppendRow(table.Row{
			cp.ID,
			cp.Label,
			cp.Path,
		})
	}

	t.Render()
}

func init() {
	rootCmd.AddCommand(catalogCmd)
	catalogCmd.Flags().StringVar(&catalogFamilyID, "family", "", "show checkpoints for a single model family")
}
