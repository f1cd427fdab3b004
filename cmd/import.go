package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/boardwatch/filings-cli/internal/model"
	"github.com/boardwatch/filings-cli/internal/pipeline"
)

var importFile string

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import a manifest of discovered filings",
	Long:  "Reads a JSON array of filings (title, source_url, pdf_path, filing_date), normalizes titles and case numbers, and upserts them as discovered.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("report"); err != nil {
			return err
		}

		data, err := os.ReadFile(importFile)
		if err != nil {
			return eris.Wrap(err, "read manifest")
		}

		var filings []model.Filing
		if err := json.Unmarshal(data, &filings); err != nil {
			return eris.Wrap(err, "parse manifest")
		}

		for i := range filings {
			if filings[i].SourceURL == "" {
				return eris.Errorf("manifest entry %d has no source_url", i)
			}
			pipeline.Intake(&filings[i])
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		n, err := st.BulkUpsertFilings(ctx, filings)
		if err != nil {
			return eris.Wrap(err, "upsert filings")
		}

		zap.L().Info("manifest imported",
			zap.Int("filings", len(filings)),
			zap.Int64("written", n),
		)
		return nil
	},
}

func init() {
	importCmd.Flags().StringVar(&importFile, "file", "", "path to the JSON manifest (required)")
	_ = importCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(importCmd)
}
