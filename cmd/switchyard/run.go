package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/switchyard-io/switchyard/internal/cli"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the interactive machine shell",
	Long:  `Loads the machine definitions from the given directory and starts an interactive shell for sending events and inspecting machines.`,
	Run: func(cmd *cobra.Command, args []string) {
		dir, _ := cmd.Flags().GetString("dir")
		if !cmd.Flags().Changed("dir") && len(args) > 0 {
			dir = args[0]
		}
		debug, _ := cmd.Flags().GetBool("debug")
		quiet, _ := cmd.Flags().GetBool("quiet")

		if err := cli.RunSession(cli.RunOptions{
			Dir:   dir,
			Debug: debug,
			Quiet: quiet,
		}); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().Bool("debug", false, "Enable debug logging and transition hooks")
	runCmd.Flags().BoolP("quiet", "q", false, "Suppress the banner and prompts (for piped input)")

	// Make 'run' the default if no command is provided.
	rootCmd.Run = runCmd.Run
}
