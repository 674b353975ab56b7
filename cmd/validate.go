// =============================================================================
// Deficiency Notes Generator - Validate Command
// =============================================================================
//
// This file defines the 'validate' command. Without input flags it checks
// the configuration only; with them it also runs the input checks a
// generate run would log, without generating anything.
//
// COMMAND USAGE:
//   notesgen validate
//   notesgen validate --workbook job.xlsx [--strict]
//
// =============================================================================

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/deficiency-notes/internal/pipeline"
	"github.com/ginjaninja78/deficiency-notes/internal/validation"
)

type validateFlags struct {
	inputs inputFlags
	strict bool
}

var valFlags validateFlags

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration and, optionally, job inputs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runValidate(cmd, &valFlags)
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)

	valFlags.inputs.register(validateCmd)
	validateCmd.Flags().BoolVar(&valFlags.strict, "strict", false, "Exit with an error on any finding")
}

func runValidate(cmd *cobra.Command, flags *validateFlags) error {
	out := cmd.OutOrStdout()

	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	if _, err := pipeline.NewTransformer(cfg.FieldRules); err != nil {
		return fmt.Errorf("invalid field rules: %w", err)
	}
	fmt.Fprintf(out, "Configuration OK (%s)\n", cfgFile)

	if !flags.inputs.set() {
		return nil
	}

	src, err := flags.inputs.source(cfg)
	if err != nil {
		return err
	}
	job, err := loadRows(cmd.Context(), cfg, src)
	if err != nil {
		return err
	}

	v := validation.NewValidatorWithOptions(validation.ValidationOptions{TreatWarningsAsErrors: flags.strict})
	result := v.ValidateRows(job.EquipmentRows, job.DeficiencyRows)

	for _, finding := range result.Errors {
		fmt.Fprintln(out, finding.Error())
	}
	fmt.Fprintf(out, "Rows validated: %d, errors: %d, warnings: %d\n",
		result.RowsValidated, result.ErrorCount, result.WarningCount)

	if !result.IsValid {
		return fmt.Errorf("%w with %d errors", pipeline.ErrValidation, result.ErrorCount)
	}
	return nil
}
