// =============================================================================
// Deficiency Notes Generator - Import Command
// =============================================================================
//
// This file defines the 'import' command, which loads a job from CSV files
// or a workbook into the job store. Field rules are applied before the
// records are stored, so stored jobs can be generated without them.
//
// COMMAND USAGE:
//   notesgen import --workbook job.xlsx
//   notesgen import --equipment eq.csv --deficiencies def.csv --job 4711
//
// Re-importing a job replaces its equipment and deficiencies.
//
// =============================================================================

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ginjaninja78/deficiency-notes/internal/pipeline"
	"github.com/ginjaninja78/deficiency-notes/internal/validation"
)

type importFlags struct {
	inputs      inputFlags
	jobID       int
	description string
	country     string
}

var impFlags importFlags

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import a job into the job store",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runImport(cmd, &impFlags)
	},
}

func init() {
	rootCmd.AddCommand(importCmd)

	impFlags.inputs.register(importCmd)

	f := importCmd.Flags()
	f.IntVar(&impFlags.jobID, "job", 0, "Job id (required unless the workbook has a Job sheet)")
	f.StringVar(&impFlags.description, "description", "", "Job description")
	f.StringVar(&impFlags.country, "country", "", "Job country")
}

func runImport(cmd *cobra.Command, flags *importFlags) error {
	ctx := cmd.Context()

	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	// =========================================================================
	// STEP 1: LOAD AND TRANSFORM
	// =========================================================================

	src, err := flags.inputs.source(cfg)
	if err != nil {
		return err
	}
	job, err := loadRows(ctx, cfg, src)
	if err != nil {
		return err
	}

	meta := job.Meta
	if flags.jobID != 0 {
		meta.JobID = flags.jobID
	}
	if flags.description != "" {
		meta.Description = flags.description
	}
	if flags.country != "" {
		meta.Country = flags.country
	}
	if meta.JobID <= 0 {
		return fmt.Errorf("a positive job id is required (--job or the workbook Job sheet)")
	}

	// =========================================================================
	// STEP 2: VALIDATE
	// =========================================================================

	result := validation.NewValidator().ValidateRows(job.EquipmentRows, job.DeficiencyRows)
	for _, finding := range result.Errors {
		logger.Warn("Input finding",
			zap.String("sheet", finding.Sheet),
			zap.String("rule", finding.Rule),
			zap.Int("row", finding.RowNumber),
			zap.String("message", finding.Message))
	}

	equipment, deficiencies := pipeline.BuildRecords(job.EquipmentRows, job.DeficiencyRows)

	// =========================================================================
	// STEP 3: STORE
	// =========================================================================

	store, closeFn, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeFn()

	if err := store.ImportJob(ctx, meta, equipment, deficiencies); err != nil {
		return err
	}

	logger.Info("Imported job",
		zap.Int("job_id", meta.JobID),
		zap.Int("equipment", len(equipment)),
		zap.Int("deficiencies", len(deficiencies)))
	fmt.Fprintf(cmd.OutOrStdout(), "Imported job %d: %d equipment, %d deficiencies, %d warnings\n",
		meta.JobID, len(equipment), len(deficiencies), result.WarningCount)
	return nil
}
