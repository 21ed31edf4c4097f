package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/switchyard-io/switchyard"
	"github.com/switchyard-io/switchyard/internal/presentation/graph"
	"github.com/switchyard-io/switchyard/internal/presentation/tui"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph [machine]",
	Short: "Export machine graph visualizations",
	Long:  `Loads the definitions and outputs a Mermaid diagram (graph TD) per machine, or for the named machine only.`,
	Run: func(cmd *cobra.Command, args []string) {
		dir, _ := cmd.Flags().GetString("dir")
		render, _ := cmd.Flags().GetBool("render")

		reg := switchyard.New()
		ids, err := switchyard.LoadDir(reg, dir)
		if err != nil {
			fmt.Printf("Error loading definitions: %v\n", err)
			os.Exit(1)
		}

		if len(args) > 0 {
			ids = args
			sort.Strings(ids)
		}

		for _, id := range ids {
			entries := reg.Events(id)
			if entries == nil {
				fmt.Printf("Error: machine %q is not registered\n", id)
				os.Exit(1)
			}
			diagram := graph.GenerateMermaid(entries, nil)

			if !render {
				if len(ids) > 1 {
					fmt.Printf("%%%% %s\n", id)
				}
				fmt.Print(diagram)
				continue
			}

			markdown := fmt.Sprintf("# %s\n\n```mermaid\n%s```\n", id, diagram)
			rendered, err := tui.NewRenderer()(markdown)
			if err != nil {
				fmt.Print(markdown)
				continue
			}
			fmt.Print(rendered)
		}
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().Bool("render", false, "Render the diagrams as styled terminal markdown")
}
