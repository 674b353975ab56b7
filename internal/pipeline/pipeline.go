// =============================================================================
// Deficiency Notes Generator - Job Pipeline
// =============================================================================
//
// This module orchestrates one notes run for a single job, from loading the
// inputs to writing and archiving the HTML document.
//
// PIPELINE:
//   1. Load the job from its source (CSV pair, workbook or job store)
//   2. Apply field rules to raw rows
//   3. Validate the inputs (findings are warnings)
//   4. Resolve job metadata
//   5. Synthesize the notes fragment
//   6. Write the HTML document
//   7. Archive the document (and optionally the inputs)
//   8. Persist the notes to the job store
//
// A dry run stops after step 5. Nothing is written when synthesis fails.
//
// CONCURRENCY:
//   A Pipeline holds no per-run state. Batch processing runs one Pipeline per
//   workbook in its own goroutine.
//
// =============================================================================

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ginjaninja78/deficiency-notes/internal/config"
	"github.com/ginjaninja78/deficiency-notes/internal/htmlwriter"
	"github.com/ginjaninja78/deficiency-notes/internal/notes"
	"github.com/ginjaninja78/deficiency-notes/internal/types"
	"github.com/ginjaninja78/deficiency-notes/internal/validation"
	"github.com/ginjaninja78/deficiency-notes/pkg/utils"
)

// ErrValidation is returned when strict validation rejects a job.
var ErrValidation = errors.New("validation failed")

// =============================================================================
// RESULT STRUCTURE
// =============================================================================

// Result represents the outcome of one run.
type Result struct {
	// RunID identifies the run in logs and in the document comment.
	RunID string

	// Meta is the resolved job metadata.
	Meta types.JobMeta

	// InputFiles are the files the job was read from.
	InputFiles []string

	// OutputFile is the generated document. Empty on failure and on dry runs.
	OutputFile string

	// ArchivedOutput is the archive copy of OutputFile.
	ArchivedOutput string

	// WarningLog is the warnings file written next to OutputFile, if any.
	WarningLog string

	// Notes is the synthesized fragment.
	Notes string

	// Warnings are the validation findings.
	Warnings []*validation.ValidationError

	// Success indicates whether the run completed.
	Success bool

	// Error is set when the run failed.
	Error error

	// Stats contains run statistics.
	Stats Stats
}

// Stats contains statistics about one run.
type Stats struct {
	// EquipmentCount is the number of equipment records rendered.
	EquipmentCount int

	// BatteryStrings is the number of battery strings numbered in the notes.
	BatteryStrings int

	// DeficiencyRows is the number of deficiency rows read during synthesis.
	DeficiencyRows int

	// UnmatchedDeficiencies is the number of deficiency rows whose equipment
	// is not in the equipment list. They never appear in the notes.
	UnmatchedDeficiencies int

	// Warnings is the number of validation findings.
	Warnings int

	// ProcessingTime is the time taken by the run.
	ProcessingTime time.Duration
}

// JobRequest carries per-run settings.
type JobRequest struct {
	// Meta overrides the metadata from the source field by field.
	// Zero fields keep the source value.
	Meta types.JobMeta

	// DryRun synthesizes without writing, archiving or persisting.
	DryRun bool

	// Fragment writes the bare notes table instead of a complete page.
	Fragment bool

	// Strict fails the run when validation reports any finding.
	Strict bool
}

// =============================================================================
// PIPELINE STRUCTURE
// =============================================================================

// NotesSaver persists generated notes.
type NotesSaver interface {
	SaveNotes(ctx context.Context, jobID int, body string) error
}

// Pipeline runs jobs from one source.
type Pipeline struct {
	cfg       *config.MainConfig
	source    Source
	logger    *zap.Logger
	files     *utils.FileManager
	persister NotesSaver
	now       func() time.Time
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger. Nil keeps the no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithPersister stores the notes of every successful run that has a job id.
func WithPersister(saver NotesSaver) Option {
	return func(p *Pipeline) {
		p.persister = saver
	}
}

// WithClock replaces the clock used for generation timestamps.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		p.now = now
		p.files.Now = now
	}
}

// New creates a Pipeline.
//
// PARAMETERS:
//   - cfg: The application configuration.
//   - source: Where the job is read from.
//   - opts: Optional settings.
func New(cfg *config.MainConfig, source Source, opts ...Option) *Pipeline {
	p := &Pipeline{
		cfg:    cfg,
		source: source,
		logger: zap.NewNop(),
		files:  utils.NewFileManager(cfg.InputDir, cfg.OutputDir, cfg.InputArchiveDir, cfg.OutputArchiveDir),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// Run executes the pipeline once.
//
// RETURNS:
//   - A Result describing the outcome. Failures are reported in Result.Error.
func (p *Pipeline) Run(ctx context.Context, req JobRequest) (result Result) {
	startTime := p.now()
	runID := uuid.NewString()
	log := p.logger.With(zap.String("run_id", runID))

	result = Result{RunID: runID}
	defer func() {
		result.Stats.ProcessingTime = p.now().Sub(startTime)
	}()

	// =========================================================================
	// STEP 1: LOAD JOB
	// =========================================================================

	job, err := p.source.Load(ctx)
	if err != nil {
		result.Error = fmt.Errorf("failed to load job: %w", err)
		return result
	}
	result.InputFiles = job.InputFiles

	// =========================================================================
	// STEP 2: APPLY FIELD RULES
	// =========================================================================
	// Rules only apply to raw rows. Stored jobs were transformed on import.

	equipment := job.Equipment
	fetcher := job.Fetcher
	var validated *validation.ValidationResult

	if job.fromRows() {
		transformer, err := NewTransformer(p.cfg.FieldRules)
		if err != nil {
			result.Error = err
			return result
		}
		if err := transformer.TransformRows(SheetEquipment, job.EquipmentRows); err != nil {
			result.Error = fmt.Errorf("failed to apply field rules: %w", err)
			return result
		}
		if err := transformer.TransformRows(SheetDeficiencies, job.DeficiencyRows); err != nil {
			result.Error = fmt.Errorf("failed to apply field rules: %w", err)
			return result
		}

		// =====================================================================
		// STEP 3: VALIDATE (FILE INPUT)
		// =====================================================================

		validated = p.validator(req).ValidateRows(job.EquipmentRows, job.DeficiencyRows)

		var deficiencies []types.DeficiencyRecord
		equipment, deficiencies = BuildRecords(job.EquipmentRows, job.DeficiencyRows)
		fetcher = memoryFetcher(deficiencies)
	} else {
		// =====================================================================
		// STEP 3: VALIDATE (STORED JOB)
		// =====================================================================
		// Deficiencies are fetched lazily, so only equipment is checked here.

		validated = p.validator(req).ValidateRecords(equipment, nil)
	}

	result.Warnings = validated.Errors
	result.Stats.Warnings = len(validated.Errors)
	result.Stats.UnmatchedDeficiencies = len(validation.FilterByRule(validated.Errors, validation.RuleUnknownEquipment))
	for _, finding := range validated.Errors {
		log.Warn("Input finding",
			zap.String("sheet", finding.Sheet),
			zap.String("rule", finding.Rule),
			zap.Int("row", finding.RowNumber),
			zap.Int("equipment_id", finding.EquipmentID),
			zap.String("message", finding.Message))
	}
	if !validated.IsValid {
		result.Error = fmt.Errorf("%w with %d errors", ErrValidation, validated.ErrorCount)
		return result
	}

	// =========================================================================
	// STEP 4: RESOLVE METADATA
	// =========================================================================

	meta := resolveMeta(job.Meta, req.Meta, p.cfg.DefaultCountry)
	result.Meta = meta
	log = log.With(zap.Int("job_id", meta.JobID))

	// =========================================================================
	// STEP 5: SYNTHESIZE
	// =========================================================================

	synth := notes.New(
		notes.WithLogger(log),
		notes.WithStyles(notes.Styles{Heading: p.cfg.Styles.Heading, Cell: p.cfg.Styles.Cell}),
	)
	generated, err := synth.Run(ctx, equipment, fetcher, meta)
	if err != nil {
		result.Error = fmt.Errorf("failed to generate notes: %w", err)
		return result
	}

	result.Notes = generated.Notes
	result.Stats.EquipmentCount = generated.EquipmentCount
	result.Stats.BatteryStrings = generated.State.BatteryStringCounter
	result.Stats.DeficiencyRows = generated.DeficiencyCount

	log.Info("Notes generated",
		zap.Int("equipment", generated.EquipmentCount),
		zap.Int("battery_strings", generated.State.BatteryStringCounter),
		zap.Int("deficiency_rows", generated.DeficiencyCount))

	if req.DryRun {
		result.Success = true
		return result
	}

	// =========================================================================
	// STEP 6: WRITE DOCUMENT
	// =========================================================================

	if err := p.cfg.EnsureDirectories(); err != nil {
		result.Error = err
		return result
	}

	name := utils.GenerateOutputFileName(p.cfg.OutputNameFormat, p.nameParams(meta, job.InputFiles), startTime)
	outputPath := filepath.Join(p.cfg.OutputDir, name)

	options := htmlwriter.DefaultGenerateOptions()
	options.Standalone = !req.Fragment
	options.RunID = runID
	options.GeneratedAt = startTime

	doc := htmlwriter.GenerateWithOptions(generated.Notes, meta, options)
	if err := htmlwriter.WriteFile(outputPath, doc); err != nil {
		result.Error = fmt.Errorf("failed to write output: %w", err)
		return result
	}
	result.OutputFile = outputPath
	log.Info("Wrote notes", zap.String("path", outputPath))

	if len(validated.Errors) > 0 {
		logPath, err := utils.WriteWarningLog(logEntries(validated.Errors), outputPath)
		if err != nil {
			log.Warn("Failed to write warning log", zap.Error(err))
		}
		result.WarningLog = logPath
	}

	// =========================================================================
	// STEP 7: ARCHIVE
	// =========================================================================
	// Archive failures are logged and never fail the run.

	if archived, err := p.files.ArchiveOutputFile(outputPath); err != nil {
		log.Warn("Failed to archive output", zap.Error(err))
	} else {
		result.ArchivedOutput = archived
	}

	if p.cfg.ArchiveInputs {
		for _, input := range job.InputFiles {
			if _, err := p.files.ArchiveInputFile(input); err != nil {
				log.Warn("Failed to archive input", zap.String("path", input), zap.Error(err))
			}
		}
	}

	// =========================================================================
	// STEP 8: PERSIST
	// =========================================================================

	if p.persister != nil && meta.JobID > 0 {
		if err := p.persister.SaveNotes(ctx, meta.JobID, generated.Notes); err != nil {
			result.Error = fmt.Errorf("failed to save notes: %w", err)
			return result
		}
		log.Debug("Saved notes to job store")
	}

	// =========================================================================
	// COMPLETE
	// =========================================================================

	result.Success = true
	return result
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func (p *Pipeline) validator(req JobRequest) *validation.Validator {
	return validation.NewValidatorWithOptions(validation.ValidationOptions{
		TreatWarningsAsErrors: req.Strict,
	})
}

// resolveMeta layers request overrides over the source metadata and fills
// the configured default country.
func resolveMeta(source, override types.JobMeta, defaultCountry string) types.JobMeta {
	meta := source
	if override.JobID != 0 {
		meta.JobID = override.JobID
	}
	if override.Description != "" {
		meta.Description = override.Description
	}
	if override.Country != "" {
		meta.Country = override.Country
	}
	if strings.TrimSpace(meta.Country) == "" {
		meta.Country = defaultCountry
	}
	return meta
}

// nameParams builds the placeholders for the output file name.
func (p *Pipeline) nameParams(meta types.JobMeta, inputs []string) map[string]string {
	job := "unsaved"
	if meta.JobID > 0 {
		job = strconv.Itoa(meta.JobID)
	}

	original := "job_" + job
	if len(inputs) > 0 {
		base := filepath.Base(inputs[0])
		original = strings.TrimSuffix(base, filepath.Ext(base))
	}

	return map[string]string{"job": job, "original": original}
}

// logEntries converts findings for the warning log.
func logEntries(findings []*validation.ValidationError) []utils.LogEntry {
	entries := make([]utils.LogEntry, len(findings))
	for i, f := range findings {
		entries[i] = utils.LogEntry{
			Sheet:       f.Sheet,
			Rule:        f.Rule,
			Message:     f.Message,
			RowNumber:   f.RowNumber,
			FieldName:   f.Field,
			FieldValue:  f.Value,
			EquipmentID: f.EquipmentID,
		}
	}
	return entries
}
