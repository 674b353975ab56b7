// =============================================================================
// Deficiency Notes Generator - Generate Command
// =============================================================================
//
// This file defines the 'generate' command, which builds the notes document
// of a single job.
//
// COMMAND USAGE:
//   notesgen generate --equipment eq.csv --deficiencies def.csv [flags]
//   notesgen generate --workbook job.xlsx [flags]
//   notesgen generate --from-store --job 4711 [flags]
//
// =============================================================================

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ginjaninja78/deficiency-notes/internal/pipeline"
	"github.com/ginjaninja78/deficiency-notes/internal/types"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

type generateFlags struct {
	inputs    inputFlags
	fromStore bool
	save      bool

	jobID       int
	description string
	country     string

	dryRun   bool
	stdout   bool
	fragment bool
	strict   bool
}

var genFlags generateFlags

// =============================================================================
// GENERATE COMMAND DEFINITION
// =============================================================================

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate the notes document of one job",
	Long: `The generate command reads one job from CSV files, a workbook or the job
store, and writes its HTML notes document to the output directory.

Job metadata flags override the values found in the input. A country of US,
USA or United States titles the notes "Technician"; any other value titles
them "Field Service Engineer".

With --stdout the notes fragment is printed instead of written.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGenerate(cmd, &genFlags)
	},
}

func init() {
	rootCmd.AddCommand(generateCmd)

	genFlags.inputs.register(generateCmd)

	f := generateCmd.Flags()
	f.BoolVar(&genFlags.fromStore, "from-store", false, "Read the job given by --job from the job store")
	f.BoolVar(&genFlags.save, "save", false, "Save the notes to the job store")

	f.IntVar(&genFlags.jobID, "job", 0, "Job id")
	f.StringVar(&genFlags.description, "description", "", "Job description")
	f.StringVar(&genFlags.country, "country", "", "Job country")

	f.BoolVar(&genFlags.dryRun, "dry-run", false, "Generate without writing, archiving or saving")
	f.BoolVar(&genFlags.stdout, "stdout", false, "Print the notes fragment instead of writing a file")
	f.BoolVar(&genFlags.fragment, "fragment", false, "Write the bare notes table instead of a full page")
	f.BoolVar(&genFlags.strict, "strict", false, "Fail on any validation finding")

	generateCmd.MarkFlagsMutuallyExclusive("equipment", "from-store")
	generateCmd.MarkFlagsMutuallyExclusive("workbook", "from-store")
	generateCmd.MarkFlagsMutuallyExclusive("deficiencies", "from-store")
}

// =============================================================================
// MAIN FUNCTION
// =============================================================================

func runGenerate(cmd *cobra.Command, flags *generateFlags) error {
	ctx := cmd.Context()

	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	opts := []pipeline.Option{pipeline.WithLogger(logger)}

	// =========================================================================
	// STEP 1: SELECT SOURCE
	// =========================================================================

	var source pipeline.Source

	if flags.fromStore || flags.save {
		store, closeFn, err := openStore(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer closeFn()

		if flags.save {
			opts = append(opts, pipeline.WithPersister(store))
		}
		if flags.fromStore {
			if flags.jobID <= 0 {
				return fmt.Errorf("--from-store requires --job")
			}
			source = pipeline.StoreSource{Store: store, JobID: flags.jobID}
		}
	}

	if source == nil {
		if source, err = flags.inputs.source(cfg); err != nil {
			return err
		}
	}

	// =========================================================================
	// STEP 2: RUN PIPELINE
	// =========================================================================

	req := pipeline.JobRequest{
		Meta: types.JobMeta{
			JobID:       flags.jobID,
			Description: flags.description,
			Country:     flags.country,
		},
		DryRun:   flags.dryRun || flags.stdout,
		Fragment: flags.fragment,
		Strict:   flags.strict,
	}

	result := pipeline.New(cfg, source, opts...).Run(ctx, req)
	if result.Error != nil {
		logger.Error("Generation failed", zap.String("run_id", result.RunID), zap.Error(result.Error))
		return result.Error
	}

	// =========================================================================
	// STEP 3: REPORT
	// =========================================================================

	if flags.stdout {
		fmt.Fprintln(cmd.OutOrStdout(), result.Notes)
		return nil
	}

	printResult(cmd, result)
	return nil
}

// printResult prints the outcome of one run.
func printResult(cmd *cobra.Command, result pipeline.Result) {
	out := cmd.OutOrStdout()

	if result.OutputFile != "" {
		fmt.Fprintf(out, "Notes:           %s\n", result.OutputFile)
	} else {
		fmt.Fprintln(out, "Notes:           (dry run, nothing written)")
	}
	if result.WarningLog != "" {
		fmt.Fprintf(out, "Warnings log:    %s\n", result.WarningLog)
	}
	fmt.Fprintf(out, "Equipment:       %d\n", result.Stats.EquipmentCount)
	fmt.Fprintf(out, "Battery strings: %d\n", result.Stats.BatteryStrings)
	fmt.Fprintf(out, "Findings:        %d\n", result.Stats.DeficiencyRows)
	fmt.Fprintf(out, "Warnings:        %d\n", result.Stats.Warnings)
	if n := result.Stats.UnmatchedDeficiencies; n > 0 {
		fmt.Fprintf(out, "Unmatched rows:  %d (no such equipment, left out of the notes)\n", n)
	}
	fmt.Fprintf(out, "Time elapsed:    %s\n", result.Stats.ProcessingTime)
}
