package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/deficiency-notes/internal/config"
	"github.com/ginjaninja78/deficiency-notes/internal/pipeline"
)

// inputFlags select a file-based job source.
type inputFlags struct {
	equipment    string
	deficiencies string
	workbook     string
}

func (f *inputFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.equipment, "equipment", "", "Equipment CSV file")
	cmd.Flags().StringVar(&f.deficiencies, "deficiencies", "", "Deficiencies CSV file")
	cmd.Flags().StringVar(&f.workbook, "workbook", "", "Job workbook (XLSX)")

	cmd.MarkFlagsMutuallyExclusive("equipment", "workbook")
	cmd.MarkFlagsMutuallyExclusive("deficiencies", "workbook")
}

func (f *inputFlags) set() bool {
	return f.equipment != "" || f.workbook != ""
}

// source returns the file source named by the flags.
func (f *inputFlags) source(cfg *config.MainConfig) (pipeline.Source, error) {
	switch {
	case f.workbook != "":
		return pipeline.WorkbookSource{Path: f.workbook}, nil
	case f.equipment != "":
		return pipeline.CSVSource{
			EquipmentPath:    f.equipment,
			DeficienciesPath: f.deficiencies,
			Settings:         cfg.CSVSettings,
		}, nil
	case f.deficiencies != "":
		return nil, fmt.Errorf("--deficiencies requires --equipment")
	default:
		return nil, fmt.Errorf("one of --equipment or --workbook is required")
	}
}

// loadRows loads a file job and applies the configured field rules to it.
func loadRows(ctx context.Context, cfg *config.MainConfig, src pipeline.Source) (*pipeline.Job, error) {
	job, err := src.Load(ctx)
	if err != nil {
		return nil, err
	}

	transformer, err := pipeline.NewTransformer(cfg.FieldRules)
	if err != nil {
		return nil, err
	}
	if err := transformer.TransformRows(pipeline.SheetEquipment, job.EquipmentRows); err != nil {
		return nil, err
	}
	if err := transformer.TransformRows(pipeline.SheetDeficiencies, job.DeficiencyRows); err != nil {
		return nil, err
	}
	return job, nil
}
