package pipeline

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/ginjaninja78/deficiency-notes/internal/config"
	"github.com/ginjaninja78/deficiency-notes/internal/csvparser"
	"github.com/ginjaninja78/deficiency-notes/internal/notes"
	"github.com/ginjaninja78/deficiency-notes/internal/types"
	"github.com/ginjaninja78/deficiency-notes/internal/xlsxparser"
)

// =============================================================================
// JOB INPUT
// =============================================================================

// Job is everything a source provides for one run.
//
// File sources fill the raw row slices; the pipeline applies field rules to
// them and builds the records itself. The store source fills Equipment and
// Fetcher directly.
type Job struct {
	// Meta is the job metadata known to the source. Zero values are allowed.
	Meta types.JobMeta

	// EquipmentRows and DeficiencyRows are raw rows keyed by normalized header.
	EquipmentRows  []map[string]string
	DeficiencyRows []map[string]string

	// Equipment is the ordered equipment list (store source only).
	Equipment []types.EquipmentRecord

	// Fetcher resolves deficiencies (store source only).
	Fetcher notes.Fetcher

	// InputFiles are the files the job was read from, for archiving.
	InputFiles []string
}

// fromRows reports whether the job carries raw rows.
func (j *Job) fromRows() bool {
	return j.Fetcher == nil
}

// Source loads one job.
type Source interface {
	Load(ctx context.Context) (*Job, error)
}

// =============================================================================
// CSV SOURCE
// =============================================================================

// CSVSource reads a job from an equipment CSV and an optional deficiency CSV.
type CSVSource struct {
	EquipmentPath    string
	DeficienciesPath string
	Settings         config.CSVSettings
}

// Load implements Source.
func (s CSVSource) Load(_ context.Context) (*Job, error) {
	if s.EquipmentPath == "" {
		return nil, fmt.Errorf("equipment file is required")
	}

	eq, err := csvparser.Parse(s.EquipmentPath, s.Settings)
	if err != nil {
		return nil, fmt.Errorf("failed to parse equipment file: %w", err)
	}

	job := &Job{
		EquipmentRows: eq.Rows,
		InputFiles:    []string{s.EquipmentPath},
	}

	if s.DeficienciesPath != "" {
		defs, err := csvparser.Parse(s.DeficienciesPath, s.Settings)
		if err != nil {
			return nil, fmt.Errorf("failed to parse deficiencies file: %w", err)
		}
		job.DeficiencyRows = defs.Rows
		job.InputFiles = append(job.InputFiles, s.DeficienciesPath)
	}

	return job, nil
}

// =============================================================================
// WORKBOOK SOURCE
// =============================================================================

// WorkbookSource reads a job from a single XLSX workbook.
type WorkbookSource struct {
	Path string

	// Sheets overrides the sheet names. Zero value uses the defaults.
	Sheets xlsxparser.SheetNames
}

// Load implements Source.
func (s WorkbookSource) Load(_ context.Context) (*Job, error) {
	sheets := s.Sheets
	if sheets == (xlsxparser.SheetNames{}) {
		sheets = xlsxparser.DefaultSheetNames()
	}

	wb, err := xlsxparser.ParseWithSheets(s.Path, sheets)
	if err != nil {
		return nil, err
	}

	meta, err := MetaFromKeyValues(wb.Job)
	if err != nil {
		return nil, fmt.Errorf("%s: job sheet: %w", s.Path, err)
	}

	return &Job{
		Meta:           meta,
		EquipmentRows:  wb.Equipment,
		DeficiencyRows: wb.Deficiencies,
		InputFiles:     []string{s.Path},
	}, nil
}

// MetaFromKeyValues reads job metadata from a key/value sheet.
// Recognized keys are job_id (or id), description and country.
func MetaFromKeyValues(kv map[string]string) (types.JobMeta, error) {
	var meta types.JobMeta

	raw := strings.TrimSpace(kv["job_id"])
	if raw == "" {
		raw = strings.TrimSpace(kv["id"])
	}
	if raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil {
			return meta, fmt.Errorf("job id %q is not a whole number", raw)
		}
		meta.JobID = id
	}

	meta.Description = strings.TrimSpace(kv["description"])
	meta.Country = strings.TrimSpace(kv["country"])
	return meta, nil
}

// =============================================================================
// STORE SOURCE
// =============================================================================

// JobStore is the read side of the job store.
type JobStore interface {
	Job(ctx context.Context, jobID int) (types.JobMeta, error)
	Equipment(ctx context.Context, jobID int) ([]types.EquipmentRecord, error)
	Deficiencies(ctx context.Context, jobID, equipmentID int) ([]types.DeficiencyRecord, error)
}

// StoreSource reads a previously imported job. Deficiencies are fetched
// lazily from the store during synthesis.
type StoreSource struct {
	Store JobStore
	JobID int
}

// Load implements Source.
func (s StoreSource) Load(ctx context.Context) (*Job, error) {
	meta, err := s.Store.Job(ctx, s.JobID)
	if err != nil {
		return nil, fmt.Errorf("failed to load job %d: %w", s.JobID, err)
	}

	equipment, err := s.Store.Equipment(ctx, s.JobID)
	if err != nil {
		return nil, fmt.Errorf("failed to load equipment of job %d: %w", s.JobID, err)
	}

	store, jobID := s.Store, s.JobID
	return &Job{
		Meta:      meta,
		Equipment: equipment,
		Fetcher: notes.FetchFunc(func(ctx context.Context, equipmentID int) ([]types.DeficiencyRecord, error) {
			return store.Deficiencies(ctx, jobID, equipmentID)
		}),
	}, nil
}

// =============================================================================
// RECORD BUILDING
// =============================================================================

// BuildRecords turns raw rows into records. Row errors are reported by
// validation; the records are built regardless.
func BuildRecords(equipmentRows, deficiencyRows []map[string]string) ([]types.EquipmentRecord, []types.DeficiencyRecord) {
	equipment := make([]types.EquipmentRecord, 0, len(equipmentRows))
	for _, row := range equipmentRows {
		rec, _ := types.EquipmentFromRow(row)
		equipment = append(equipment, rec)
	}

	deficiencies := make([]types.DeficiencyRecord, 0, len(deficiencyRows))
	for _, row := range deficiencyRows {
		rec, _ := types.DeficiencyFromRow(row)
		deficiencies = append(deficiencies, rec)
	}

	return equipment, deficiencies
}

// memoryFetcher serves deficiencies grouped from file rows.
func memoryFetcher(deficiencies []types.DeficiencyRecord) notes.Fetcher {
	grouped := types.GroupDeficiencies(deficiencies)
	return notes.FetchFunc(func(_ context.Context, equipmentID int) ([]types.DeficiencyRecord, error) {
		return grouped[equipmentID], nil
	})
}
