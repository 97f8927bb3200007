package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Hettieboo/AuctionDimensionProcessor/internal/application/lotprocessing"
	"github.com/Hettieboo/AuctionDimensionProcessor/internal/application/tabular"
	"github.com/Hettieboo/AuctionDimensionProcessor/internal/config"
	"github.com/Hettieboo/AuctionDimensionProcessor/internal/infrastructure/monitoring/logging"
	"github.com/Hettieboo/AuctionDimensionProcessor/internal/infrastructure/storage/minio"
)

// ConvertOptions holds the convert command flags.
type ConvertOptions struct {
	InputPath  string
	OutputPath string
	Workers    int
}

// NewConvertCommand creates `lotproc convert`: catalog CSV in, wide CSV out.
func NewConvertCommand() *cobra.Command {
	opts := &ConvertOptions{}

	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert a catalog CSV into the wide dimension format",
		Long: "Reads a CSV with LOT and TYPESET columns, derives structured shipping\n" +
			"dimensions for every row and writes the wide output CSV with one\n" +
			"H/L/D/P/Diameter column group per item.",
		Example: "  lotproc convert -i catalog.csv -o dimensions.csv\n" +
			"  lotproc convert -i catalog.csv -o dimensions.csv --workers 16",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConvert(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.InputPath, "input", "i", "", "input catalog CSV (required)")
	f.StringVarP(&opts.OutputPath, "output", "o", "", "output CSV path (required)")
	f.IntVar(&opts.Workers, "workers", 0, "worker concurrency (default: from config)")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("output")

	return cmd
}

func runConvert(cmd *cobra.Command, opts *ConvertOptions) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}
	cfg, logger := cliCtx.Config, cliCtx.Logger

	table, err := tabular.ReadLotsFile(opts.InputPath)
	if err != nil {
		return err
	}
	descs := table.Descriptions()

	workers := opts.Workers
	if workers < 1 {
		workers = cfg.Worker.Concurrency
	}
	proc := lotprocessing.NewProcessor(cfg.Rules, nil, logger)
	svc := lotprocessing.NewService(proc, logger, lotprocessing.ServiceOptions{Workers: workers})

	start := time.Now()
	batch, err := svc.ProcessBatch(cmd.Context(), descs)
	if err != nil {
		return err
	}

	// Results keep input order with failed indices skipped, so the two lists
	// zip back together against the row count.
	failed := make(map[int]error, len(batch.Failed))
	for _, f := range batch.Failed {
		failed[f.Index] = f.Err
	}
	results := make([]tabular.RowResult, len(descs))
	next := 0
	reviewCount := 0
	for i := range descs {
		if ferr, ok := failed[i]; ok {
			results[i] = tabular.RowResult{Err: ferr}
			continue
		}
		res := batch.Results[next]
		next++
		results[i] = tabular.RowResult{Result: &res}
		if res.ManualReviewRequired {
			reviewCount++
		}
	}

	if err := tabular.WriteResultsFile(opts.OutputPath, table, results); err != nil {
		return err
	}

	if cfg.Pipeline.ArchiveEnabled {
		if err := archiveOutput(cmd, cfg, logger, batch.JobID, opts.OutputPath); err != nil {
			// The local output is already on disk; a missed archive copy is
			// recoverable, so report it without failing the run.
			logger.Warn("output archival failed", logging.Err(err))
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(),
		"Processed %d lots in %s: %d ok, %d failed, %d flagged for manual review\nOutput: %s\n",
		len(descs), time.Since(start).Truncate(time.Millisecond),
		len(batch.Results), len(batch.Failed), reviewCount, opts.OutputPath)
	return nil
}

// archiveOutput uploads the written CSV to object storage under the batch
// job ID so finished conversions survive local cleanup.
func archiveOutput(cmd *cobra.Command, cfg *config.Config, logger logging.Logger, jobID, outputPath string) error {
	data, err := os.ReadFile(outputPath)
	if err != nil {
		return err
	}
	client, err := minio.NewClient(cmd.Context(), cfg.MinIO, logger)
	if err != nil {
		return err
	}
	archive := minio.NewArchiveRepository(client, logger)
	key, err := archive.ArchiveExport(cmd.Context(), jobID, data)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Archived: %s/%s\n", client.Bucket(), key)
	return nil
}
