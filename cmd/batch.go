package main

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/boardwatch/filings-cli/internal/model"
	"github.com/boardwatch/filings-cli/internal/pipeline"
	"github.com/boardwatch/filings-cli/internal/store"
)

var (
	batchLimit   int
	batchYears   []int
	batchDryRun  bool
	batchSkipOcr bool
	batchForce   bool
	batchRetry   bool
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Process all pending filings",
	Long:  "Runs every discovered filing through the pipeline and automatically retries filings whose last failure was transient. Documents fail individually; the batch keeps going.",
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

		filings, err := pendingFilings(ctx, st)
		if err != nil {
			return err
		}
		if len(filings) == 0 {
			zap.L().Info("no pending filings")
			return nil
		}

		p := initPipeline(st, pipeline.Options{
			SkipOcr: batchSkipOcr,
			DryRun:  batchDryRun,
			Force:   batchForce,
		})

		stats, err := p.Batch(ctx, filings)
		if err != nil {
			return eris.Wrap(err, "batch run")
		}

		zap.L().Info("batch summary",
			zap.Int("total", stats.Total),
			zap.Int("stored", stats.Stored),
			zap.Int("skipped", stats.Skipped),
			zap.Int("ignored", stats.Ignored),
			zap.Int("failed", stats.Failed),
		)
		return nil
	},
}

// pendingFilings lists discovered filings, one query per requested year,
// then appends filings with a recorded failure. Retryable failures (OCR
// timeouts, tool errors, rate-limited extractions) are swept up on every
// run without operator action; --retry-failed widens the sweep to
// permanent failure kinds.
func pendingFilings(ctx context.Context, st store.Store) ([]model.Filing, error) {
	years := batchYears
	if len(years) == 0 {
		years = []int{0}
	}

	var filings []model.Filing
	seen := map[string]bool{}
	for _, year := range years {
		page, err := st.ListFilings(ctx, store.FilingFilter{
			Status: model.StatusDiscovered,
			Year:   year,
			Limit:  batchLimit,
		})
		if err != nil {
			return nil, eris.Wrap(err, "list filings")
		}
		for _, f := range page {
			if !seen[f.SourceURL] {
				seen[f.SourceURL] = true
				filings = append(filings, f)
			}
		}
	}

	records, err := st.ListFailures(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "list failures")
	}
	for _, rec := range records {
		if seen[rec.SourceURL] {
			continue
		}
		if !rec.Kind.Retryable() && !batchRetry {
			continue
		}
		f, err := st.GetFiling(ctx, rec.SourceURL)
		if err != nil {
			return nil, eris.Wrap(err, "load failed filing")
		}
		if f == nil || !yearRequested(f.FilingYear) {
			continue
		}
		seen[f.SourceURL] = true
		filings = append(filings, *f)
	}

	if batchLimit > 0 && len(filings) > batchLimit {
		filings = filings[:batchLimit]
	}
	return filings, nil
}

func yearRequested(year int) bool {
	if len(batchYears) == 0 {
		return true
	}
	for _, y := range batchYears {
		if y == year {
			return true
		}
	}
	return false
}

func init() {
	batchCmd.Flags().IntVar(&batchLimit, "limit", 0, "maximum number of filings to process (0 = all)")
	batchCmd.Flags().IntSliceVar(&batchYears, "years", nil, "restrict to filings from these years")
	batchCmd.Flags().BoolVar(&batchDryRun, "dry-run", false, "classify and clean only, write nothing")
	batchCmd.Flags().BoolVar(&batchSkipOcr, "skip-ocr", false, "use existing sidecar text instead of running OCR")
	batchCmd.Flags().BoolVar(&batchForce, "force", false, "reprocess filings that are already stored")
	batchCmd.Flags().BoolVar(&batchRetry, "retry-failed", false, "also pick up filings with permanent failures, not just transient ones")
	rootCmd.AddCommand(batchCmd)
}
