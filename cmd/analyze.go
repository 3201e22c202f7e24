package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/mdobak/go-xerrors"
	"github.com/spf13/cobra"

	"github.com/RyanBlaney/chipper/analysis"
	"github.com/RyanBlaney/chipper/batch"
	"github.com/RyanBlaney/chipper/boutio"
	"github.com/RyanBlaney/chipper/config"
	"github.com/RyanBlaney/chipper/logging"
	"github.com/RyanBlaney/chipper/storage"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [flags] <gzip records or directories...>",
	Short: "Compute song statistics from segmented records",
	Long: `Load each SegSyllsOutput_*.gzip record, compute bout, syllable and note
statistics, and append one row per record to a tab separated table.

Examples:
  # analyze a directory into AnalysisOutput_<timestamp>.txt
  chipper analyze ./songs

  # append to an existing table and keep a copy in SQLite
  chipper analyze --table results.txt --sqlite chipper.db ./songs`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	d := config.DefaultConfig()
	analyzeCmd.Flags().Int("note-threshold", d.Analysis.NoteThreshold,
		"bounding box area in pixels at or below which a note is discarded")
	analyzeCmd.Flags().Float64("syllable-similarity", d.Analysis.SyllableSim,
		"percent cross-correlation at which two syllables are the same")
	analyzeCmd.Flags().StringP("table", "t", "",
		"statistics table path (default is AnalysisOutput_<timestamp>.txt)")
	analyzeCmd.Flags().String("sqlite", "",
		"SQLite database that also receives every record")
	analyzeCmd.Flags().StringP("output-dir", "o", "",
		"directory of the default statistics table")
}

type analyzePipeline struct {
	analyzer *analysis.Analyzer
	store    *storage.SQLiteStore
	logger   logging.Logger
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	files, err := batch.DiscoverSegmented(args)
	if err != nil {
		return err
	}

	logger := logging.GetGlobalLogger().WithFields(logging.Fields{"command": "analyze"})

	pipeline := &analyzePipeline{
		analyzer: analysis.NewAnalyzer(cfg.Analysis, logger),
		logger:   logger,
	}
	if cfg.Output.SQLiteDSN != "" {
		store, err := storage.NewSQLiteStore(cfg.Output.SQLiteDSN)
		if err != nil {
			return err
		}
		defer store.Close()
		pipeline.store = store
	}

	runner := batch.NewRunner(cfg.Batch.Workers, logger)
	bar := newProgressBar(cmd.ErrOrStderr(), "Analyzing: ", len(files))
	runner.OnProgress(bar.update)

	results, runErr := batch.Run(cmd.Context(), runner, files, pipeline.analyzeFile)
	bar.wait()

	var records []*analysis.Record
	for _, res := range results {
		if res.Err != nil {
			logger.Error(xerrors.New(res.Err), "Failed to analyze record", logging.Fields{"file": res.File})
			continue
		}
		records = append(records, res.Value)
	}

	if len(records) > 0 {
		table := cfg.Output.Table
		if table == "" {
			table = boutio.DefaultTableName(cfg.Output.Directory, time.Now())
		}
		path, err := boutio.AppendTable(table, records)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d rows to %s\n", len(records), path)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Analyzed %d of %d records\n", len(records), len(results))

	return runErr
}

// analyzeFile computes the statistics of one bout record
func (p *analyzePipeline) analyzeFile(ctx context.Context, file string) (*analysis.Record, error) {
	rec, err := boutio.Load(file)
	if err != nil {
		return nil, err
	}

	record, err := p.analyzer.Analyze(ctx, rec.Bout(filepath.Base(file)))
	if err != nil {
		return nil, err
	}

	if p.store != nil {
		if _, err := p.store.SaveRecord(ctx, record); err != nil {
			return nil, err
		}
	}
	return record, nil
}
