package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
)

var validateUser string

var validateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Filter a phone-bearing CSV down to mobile numbers",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initPipeline()
		if err != nil {
			return err
		}

		result, err := env.Pipeline.ValidateFile(cmd.Context(), validateUser, args[0])
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func init() {
	validateCmd.Flags().StringVar(&validateUser, "user", "cli", "workspace user id")
	rootCmd.AddCommand(validateCmd)
}
