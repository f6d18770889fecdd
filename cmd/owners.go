package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
)

var (
	ownersUser string
	ownersMax  int
)

var ownersCmd = &cobra.Command{
	Use:   "owners <file>",
	Short: "Look up legal property owners for eligible rows",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initPipeline()
		if err != nil {
			return err
		}

		result, err := env.Pipeline.RunOwnerJob(cmd.Context(), ownersUser, args[0], ownersMax)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func init() {
	ownersCmd.Flags().StringVar(&ownersUser, "user", "cli", "workspace user id")
	ownersCmd.Flags().IntVar(&ownersMax, "max-records", 0, "cap on eligible rows to scrape (0 = all)")
	rootCmd.AddCommand(ownersCmd)
}
