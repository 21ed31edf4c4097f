package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/switchyard-io/switchyard/pkg/adapters/file"
)

var checkpointCmd = &cobra.Command{
	Use:   "checkpoint",
	Short: "Manage persisted machine checkpoints",
	Long:  `List, inspect, and remove machine checkpoints stored in .switchyard/machines.`,
}

var checkpointLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List all checkpointed machines",
	Run: func(cmd *cobra.Command, args []string) {
		store := getStore(cmd)
		machines, err := store.List(cmd.Context())
		if err != nil {
			fmt.Printf("Error listing checkpoints: %v\n", err)
			os.Exit(1)
		}

		if len(machines) == 0 {
			fmt.Println("No checkpoints found.")
			return
		}

		fmt.Println("Checkpointed machines:")
		for _, id := range machines {
			fmt.Println("- " + id)
		}
	},
}

var checkpointInspectCmd = &cobra.Command{
	Use:   "inspect <machine-id>",
	Short: "Inspect a machine checkpoint",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		machineID := args[0]
		store := getStore(cmd)

		snap, err := store.Load(cmd.Context(), machineID)
		if err != nil {
			fmt.Printf("Error loading checkpoint '%s': %v\n", machineID, err)
			os.Exit(1)
		}

		// Pretty print JSON
		data, err := json.MarshalIndent(snap, "", "  ")
		if err != nil {
			fmt.Printf("Error marshaling checkpoint: %v\n", err)
			os.Exit(1)
		}

		fmt.Println(string(data))
	},
}

var checkpointRmCmd = &cobra.Command{
	Use:   "rm <machine-id>...",
	Short: "Remove one or more checkpoints",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		store := getStore(cmd)
		hasError := false

		for _, machineID := range args {
			if err := store.Delete(cmd.Context(), machineID); err != nil {
				fmt.Printf("Error removing '%s': %v\n", machineID, err)
				hasError = true
			} else {
				fmt.Printf("Removed checkpoint '%s'\n", machineID)
			}
		}

		if hasError {
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(checkpointCmd)
	checkpointCmd.AddCommand(checkpointLsCmd)
	checkpointCmd.AddCommand(checkpointInspectCmd)
	checkpointCmd.AddCommand(checkpointRmCmd)
}

func getStore(cmd *cobra.Command) *file.Store {
	projectDir, _ := cmd.Flags().GetString("dir")
	if projectDir == "" {
		projectDir = "."
	}
	storePath := filepath.Join(projectDir, ".switchyard", "machines")
	return file.NewStore(storePath)
}
