package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/boardwatch/filings-cli/internal/report"
)

var gapsCmd = &cobra.Command{
	Use:   "gaps",
	Short: "Report unmatched settlements, orphan amendments, and failures",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withReporter(cmd, func(r *report.Reporter) (any, error) {
			return r.Gaps(cmd.Context())
		})
	},
}

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Roll up stored records into per-case summaries",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withReporter(cmd, func(r *report.Reporter) (any, error) {
			return r.CaseSummaries(cmd.Context())
		})
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check stored records for malformed or inconsistent case numbers",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withReporter(cmd, func(r *report.Reporter) (any, error) {
			return r.Validate(cmd.Context())
		})
	},
}

func withReporter(cmd *cobra.Command, build func(*report.Reporter) (any, error)) error {
	ctx := cmd.Context()

	if err := cfg.Validate("report"); err != nil {
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

	out, err := build(report.New(st))
	if err != nil {
		return err
	}
	return report.WriteYAML(os.Stdout, out)
}

func init() {
	rootCmd.AddCommand(gapsCmd, summaryCmd, validateCmd)
}
