package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
)

var (
	phonesUser string
	phonesMax  int
)

var phonesCmd = &cobra.Command{
	Use:   "phones <file>",
	Short: "Look up mobile phones for eligible rows without existing numbers",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initPipeline()
		if err != nil {
			return err
		}

		result, err := env.Pipeline.RunPhoneJob(cmd.Context(), phonesUser, args[0], phonesMax)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func init() {
	phonesCmd.Flags().StringVar(&phonesUser, "user", "cli", "workspace user id")
	phonesCmd.Flags().IntVar(&phonesMax, "max-records", 0, "cap on eligible rows to scrape (0 = all)")
	rootCmd.AddCommand(phonesCmd)
}
