package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	runUser       string
	runMaxRecords int
)

var runCmd = &cobra.Command{
	Use:   "run <file>",
	Short: "Run the full enrichment pipeline on an input file",
	Long: "Analyzes the file, scrapes mobile phones for eligible rows without " +
		"existing numbers, and writes the merged and mobile-only outputs.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initPipeline()
		if err != nil {
			return err
		}

		analysis, err := env.Pipeline.AnalyzeUpload(cmd.Context(), runUser, args[0])
		if err != nil {
			return err
		}
		zap.L().Info("analysis complete",
			zap.String("staging", analysis.StagingPath),
			zap.Int("eligible_rows", analysis.EligibleRows),
		)

		job, err := env.Pipeline.RunPhoneJob(cmd.Context(), runUser, args[0], runMaxRecords)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Analysis any `json:"analysis"`
			Job      any `json:"job"`
		}{analysis, job})
	},
}

func init() {
	runCmd.Flags().StringVar(&runUser, "user", "cli", "workspace user id")
	runCmd.Flags().IntVar(&runMaxRecords, "max-records", 0, "cap on scraped rows (0 = all)")
	rootCmd.AddCommand(runCmd)
}
