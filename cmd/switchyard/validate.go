package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/switchyard-io/switchyard/pkg/dsl"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check machine definitions for consistency",
	Long:  `Loads every definition file and reports schema errors, unknown initial states and dead-end transition targets.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runValidate(cmd, args); err != nil {
			fmt.Printf("Validation failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Definitions are valid! ✅")
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	dir, _ := cmd.Flags().GetString("dir")
	if !cmd.Flags().Changed("dir") && len(args) > 0 {
		dir = args[0]
	}

	defs, err := dsl.LoadDir(dir)
	if err != nil {
		return err
	}
	if len(defs) == 0 {
		return fmt.Errorf("no definition files found in %s", dir)
	}

	failed := false
	for id, def := range defs {
		for _, problem := range dsl.Validate(def) {
			fmt.Printf("%s: %s\n", id, problem)
			failed = true
		}
	}
	if failed {
		return fmt.Errorf("definitions have problems")
	}
	return nil
}
