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

var (
	processURL     string
	processPDF     string
	processTitle   string
	processDryRun  bool
	processSkipOcr bool
	processForce   bool
)

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Process a single filing end to end",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("process"); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		// A known filing is reloaded from the store so reprocessing keeps
		// its discovery metadata; flags fill in the rest for new documents.
		filing, err := st.GetFiling(ctx, processURL)
		if err != nil {
			return eris.Wrap(err, "load filing")
		}
		if filing == nil {
			filing = &model.Filing{SourceURL: processURL}
		}
		if processTitle != "" {
			filing.Title = processTitle
		}
		if processPDF != "" {
			filing.PDFPath = processPDF
		}

		p := initPipeline(st, pipeline.Options{
			SkipOcr: processSkipOcr,
			DryRun:  processDryRun,
			Force:   processForce,
		})

		out, err := p.Process(ctx, filing)
		if err != nil {
			return eris.Wrap(err, "process filing")
		}

		zap.L().Info("process complete",
			zap.String("source_url", out.SourceURL),
			zap.String("status", string(out.Status)),
			zap.Bool("skipped", out.Skipped),
		)

		result := struct {
			SourceURL string `json:"source_url"`
			Kind      string `json:"kind,omitempty"`
			Status    string `json:"status"`
			Skipped   bool   `json:"skipped,omitempty"`
			Failure   string `json:"failure,omitempty"`
			Error     string `json:"error,omitempty"`
		}{
			SourceURL: out.SourceURL,
			Kind:      string(out.Kind),
			Status:    string(out.Status),
			Skipped:   out.Skipped,
			Failure:   string(out.Failure),
		}
		if out.Err != nil {
			result.Error = out.Err.Error()
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func init() {
	processCmd.Flags().StringVar(&processURL, "url", "", "source URL of the filing (required)")
	processCmd.Flags().StringVar(&processPDF, "pdf", "", "path to the scanned PDF")
	processCmd.Flags().StringVar(&processTitle, "title", "", "filing title, used when the store has no record yet")
	processCmd.Flags().BoolVar(&processDryRun, "dry-run", false, "classify and clean only, write nothing")
	processCmd.Flags().BoolVar(&processSkipOcr, "skip-ocr", false, "use existing sidecar text instead of running OCR")
	processCmd.Flags().BoolVar(&processForce, "force", false, "reprocess even if already stored")
	_ = processCmd.MarkFlagRequired("url")
	rootCmd.AddCommand(processCmd)
}
