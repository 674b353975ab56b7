// =============================================================================
// Deficiency Notes Generator - Process Command
// =============================================================================
//
// This file defines the 'process' command, which generates notes for every
// job workbook waiting in the input directory.
//
// COMMAND USAGE:
//   notesgen process [flags]
//
// PROCESSING PIPELINE:
//   1. Load configuration
//   2. Discover workbooks in the input directory
//   3. For each workbook (concurrently, bounded by --workers):
//      load, apply field rules, validate, synthesize, write, archive
//   4. Collect results and write the summary log
//   5. Optionally prune old archives
//
// Errors in one workbook never stop the others.
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ginjaninja78/deficiency-notes/internal/config"
	"github.com/ginjaninja78/deficiency-notes/internal/pipeline"
	"github.com/ginjaninja78/deficiency-notes/pkg/utils"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

type processFlags struct {
	pattern       string
	workers       int
	dryRun        bool
	strict        bool
	save          bool
	pruneArchives time.Duration
}

var procFlags processFlags

// =============================================================================
// PROCESS COMMAND DEFINITION
// =============================================================================

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Generate notes for every workbook in the input directory",
	Long: `The process command scans the input directory for job workbooks and
generates one notes document per workbook. Job metadata is read from each
workbook's Job sheet.

On successful processing:
  - The notes document is placed in the output directory and archived
  - Input warnings are written next to the document
  - The workbook is moved to the input archive when archive_inputs is set

On error:
  - The workbook remains in the input directory
  - Processing continues for other workbooks

A processing summary is written to the output directory after every run.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runProcess(cmd, procFlags)
	},
}

func init() {
	rootCmd.AddCommand(processCmd)

	f := processCmd.Flags()
	f.StringVar(&procFlags.pattern, "pattern", "*.xlsx", "Glob pattern for input workbooks")
	f.IntVar(&procFlags.workers, "workers", runtime.NumCPU(), "Maximum workbooks processed at once")
	f.BoolVar(&procFlags.dryRun, "dry-run", false, "Generate without writing, archiving or saving")
	f.BoolVar(&procFlags.strict, "strict", false, "Fail a workbook on any validation finding")
	f.BoolVar(&procFlags.save, "save", false, "Save the notes of every job with an id to the job store")
	f.DurationVar(&procFlags.pruneArchives, "prune-archives", 0, "Delete archived files older than this (e.g. 720h)")
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

type jobOutcome struct {
	input  string
	result pipeline.Result
}

func runProcess(cmd *cobra.Command, flags processFlags) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	startTime := time.Now()

	// =========================================================================
	// STEP 1: LOAD CONFIGURATION
	// =========================================================================

	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	fm := utils.NewFileManager(cfg.InputDir, cfg.OutputDir, cfg.InputArchiveDir, cfg.OutputArchiveDir)

	var opts []pipeline.Option
	if flags.save && !flags.dryRun {
		store, closeFn, err := openStore(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer closeFn()
		opts = append(opts, pipeline.WithPersister(&serialSaver{saver: store}))
	}

	// =========================================================================
	// STEP 2: DISCOVER INPUT FILES
	// =========================================================================

	inputFiles, err := fm.DiscoverInputFiles(flags.pattern)
	if err != nil {
		return err
	}
	if len(inputFiles) == 0 {
		fmt.Fprintln(out, "No workbooks found in the input directory.")
		return pruneArchives(cfg, flags.pruneArchives, logger)
	}
	logger.Info("Discovered workbooks", zap.Int("count", len(inputFiles)), zap.String("dir", cfg.InputDir))

	// =========================================================================
	// STEP 3: PROCESS FILES CONCURRENTLY
	// =========================================================================

	outcomes := processAll(ctx, cfg, inputFiles, flags, logger, opts)

	// =========================================================================
	// STEP 4: COLLECT RESULTS AND WRITE SUMMARY
	// =========================================================================

	summary := utils.ProcessingSummary{
		StartTime: startTime,
		TotalJobs: len(inputFiles),
	}

	for _, o := range outcomes {
		r := o.result
		name := filepath.Base(o.input)

		if !r.Success {
			summary.FailedJobs++
			summary.FailedJobsList = append(summary.FailedJobsList, utils.FailedJobInfo{
				InputFile:    name,
				ErrorMessage: r.Error.Error(),
			})
			fmt.Fprintf(out, "  ✗ %s: %v\n", name, r.Error)
			continue
		}

		summary.SuccessfulJobs++
		summary.TotalEquipment += r.Stats.EquipmentCount
		summary.TotalStrings += r.Stats.BatteryStrings
		summary.TotalFindings += r.Stats.DeficiencyRows
		summary.TotalWarnings += r.Stats.Warnings
		summary.ProcessedJobs = append(summary.ProcessedJobs, utils.ProcessedJobInfo{
			InputFile:   name,
			OutputFile:  filepath.Base(r.OutputFile),
			Equipment:   r.Stats.EquipmentCount,
			Findings:    r.Stats.DeficiencyRows,
			ProcessTime: r.Stats.ProcessingTime,
		})
		target := r.OutputFile
		if target == "" {
			target = "(dry run)"
		}
		fmt.Fprintf(out, "  ✓ %s -> %s\n", name, target)
	}
	summary.EndTime = time.Now()

	fmt.Fprintln(out, "\n=== Processing Complete ===")
	fmt.Fprintf(out, "Total jobs:      %d\n", summary.TotalJobs)
	fmt.Fprintf(out, "Successful:      %d\n", summary.SuccessfulJobs)
	fmt.Fprintf(out, "Errors:          %d\n", summary.FailedJobs)
	fmt.Fprintf(out, "Time elapsed:    %s\n", summary.EndTime.Sub(startTime))

	if !flags.dryRun {
		if err := cfg.EnsureDirectories(); err != nil {
			return err
		}
		path, err := fm.WriteSummaryLog(summary)
		if err != nil {
			logger.Warn("Failed to write summary log", zap.Error(err))
		} else {
			fmt.Fprintf(out, "Summary:         %s\n", path)
		}
	}

	// =========================================================================
	// STEP 5: PRUNE ARCHIVES
	// =========================================================================

	if err := pruneArchives(cfg, flags.pruneArchives, logger); err != nil {
		return err
	}

	if summary.FailedJobs > 0 {
		return fmt.Errorf("%d of %d jobs failed", summary.FailedJobs, summary.TotalJobs)
	}
	return nil
}

// processAll runs one pipeline per workbook with at most flags.workers in
// flight. Outcomes are returned in input order.
func processAll(ctx context.Context, cfg *config.MainConfig, inputFiles []string, flags processFlags, logger *zap.Logger, opts []pipeline.Option) []jobOutcome {
	workers := flags.workers
	if workers < 1 {
		workers = 1
	}

	outcomes := make([]jobOutcome, len(inputFiles))
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup

	for i, file := range inputFiles {
		wg.Add(1)
		go func(i int, path string) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			fileOpts := append([]pipeline.Option{
				pipeline.WithLogger(logger.With(zap.String("file", filepath.Base(path)))),
			}, opts...)

			p := pipeline.New(cfg, pipeline.WorkbookSource{Path: path}, fileOpts...)
			outcomes[i] = jobOutcome{
				input: path,
				result: p.Run(ctx, pipeline.JobRequest{
					DryRun: flags.dryRun,
					Strict: flags.strict,
				}),
			}
		}(i, file)
	}

	wg.Wait()
	return outcomes
}

// pruneArchives deletes archived files older than maxAge. Zero disables it.
func pruneArchives(cfg *config.MainConfig, maxAge time.Duration, logger *zap.Logger) error {
	if maxAge <= 0 {
		return nil
	}

	for _, dir := range []string{cfg.OutputArchiveDir, cfg.InputArchiveDir} {
		if !utils.FileExists(dir) {
			continue
		}
		removed, err := utils.CleanOldArchives(dir, maxAge)
		if err != nil {
			return fmt.Errorf("failed to prune %s: %w", dir, err)
		}
		logger.Info("Pruned archive", zap.String("dir", dir), zap.Int("removed", removed))
	}
	return nil
}

// serialSaver serializes writes to the job store across workers.
type serialSaver struct {
	mu    sync.Mutex
	saver pipeline.NotesSaver
}

func (s *serialSaver) SaveNotes(ctx context.Context, jobID int, body string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saver.SaveNotes(ctx, jobID, body)
}
