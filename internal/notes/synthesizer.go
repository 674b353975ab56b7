// =============================================================================
// Deficiency Notes Generator - Notes Synthesizer
// =============================================================================
//
// The synthesizer turns a job's ordered equipment list into one "system notes"
// document.
//
// PROCESSING:
//   1. Walk the equipment list in the order given
//   2. Fetch each equipment's deficiency rows (skipped for non-positive ids)
//   3. Dispatch on equipment kind: battery, UPS or generic
//   4. Append the returned fragment to the output buffer
//   5. After the last equipment, run the renderer's style pass once
//
// CONCURRENCY:
//   Equipment is processed strictly one at a time. The battery string counter
//   and the merge buffers are order-dependent, so fetches are never issued in
//   parallel. A Synthesizer holds no per-run state and may be shared.
//
// ERRORS:
//   The first fetch failure aborts the run. No partial document is returned.
//
// =============================================================================

package notes

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ginjaninja78/deficiency-notes/internal/types"
	"go.uber.org/zap"
)

// ErrFetchFailed wraps every deficiency fetch failure returned by Synthesize.
var ErrFetchFailed = errors.New("notes: deficiency fetch failed")

// =============================================================================
// COLLABORATORS
// =============================================================================

// Fetcher resolves the deficiency rows of one equipment, in display order.
// An empty result means no problems were found.
type Fetcher interface {
	Deficiencies(ctx context.Context, equipmentID int) ([]types.DeficiencyRecord, error)
}

// FetchFunc adapts a plain function to Fetcher.
type FetchFunc func(ctx context.Context, equipmentID int) ([]types.DeficiencyRecord, error)

// Deficiencies calls f.
func (f FetchFunc) Deficiencies(ctx context.Context, equipmentID int) ([]types.DeficiencyRecord, error) {
	return f(ctx, equipmentID)
}

// =============================================================================
// STATE
// =============================================================================

// GenerationState is threaded through one synthesis run.
// It is created fresh per run and returned, never stored on the Synthesizer.
type GenerationState struct {
	// BatteryStringCounter counts battery equipment seen so far in the job.
	BatteryStringCounter int
}

// Result describes a completed run.
type Result struct {
	// Notes is the finalized document.
	Notes string

	// State is the generation state after the last equipment.
	State GenerationState

	// EquipmentCount is the number of equipment records rendered.
	EquipmentCount int

	// DeficiencyCount is the number of deficiency rows read.
	DeficiencyCount int
}

// =============================================================================
// DISPATCH
// =============================================================================

// composeFunc is the common shape every equipment handler is adapted to.
type composeFunc func(
	equipment types.EquipmentRecord,
	deficiencies []types.DeficiencyRecord,
	meta types.JobMeta,
	state GenerationState,
) (string, GenerationState)

// composers is the kind-keyed dispatch table. Kinds not listed use the
// generic composer.
var composers = map[types.EquipmentKind]composeFunc{
	types.KindBattery: ComposeBattery,
	types.KindUPS:     upsComposer,
}

func upsComposer(eq types.EquipmentRecord, defs []types.DeficiencyRecord, _ types.JobMeta, state GenerationState) (string, GenerationState) {
	return ComposeUPS(eq, defs), state
}

func genericComposer(eq types.EquipmentRecord, defs []types.DeficiencyRecord, _ types.JobMeta, state GenerationState) (string, GenerationState) {
	return ComposeGeneric(eq, defs), state
}

func composerFor(kind types.EquipmentKind) composeFunc {
	if c, ok := composers[kind]; ok {
		return c
	}
	return genericComposer
}

// =============================================================================
// SYNTHESIZER
// =============================================================================

// Synthesizer builds notes documents.
type Synthesizer struct {
	renderer *Renderer
	logger   *zap.Logger
}

// Option configures a Synthesizer.
type Option func(*Synthesizer)

// WithLogger sets the logger. Nil keeps the no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Synthesizer) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithStyles overrides the inline styles used by the final pass.
func WithStyles(styles Styles) Option {
	return func(s *Synthesizer) {
		s.renderer = NewRenderer(styles)
	}
}

// New creates a Synthesizer.
func New(opts ...Option) *Synthesizer {
	s := &Synthesizer{
		renderer: NewRenderer(Styles{}),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Synthesize renders the notes document for a job.
//
// PARAMETERS:
//   - ctx: Passed to the fetcher; the synthesizer adds no timeouts of its own.
//   - equipment: The job's equipment, in display order.
//   - fetch: Resolves deficiency rows per equipment.
//   - meta: Job description and country.
//
// RETURNS:
//   - The finalized document.
//   - An error wrapping ErrFetchFailed if any fetch fails; the document is then empty.
func (s *Synthesizer) Synthesize(ctx context.Context, equipment []types.EquipmentRecord, fetch Fetcher, meta types.JobMeta) (string, error) {
	res, err := s.Run(ctx, equipment, fetch, meta)
	if err != nil {
		return "", err
	}
	return res.Notes, nil
}

// Run is Synthesize with run statistics.
func (s *Synthesizer) Run(ctx context.Context, equipment []types.EquipmentRecord, fetch Fetcher, meta types.JobMeta) (Result, error) {
	var (
		out   strings.Builder
		state GenerationState
		rows  int
	)

	for _, eq := range equipment {
		var deficiencies []types.DeficiencyRecord

		// Unsaved equipment cannot have deficiencies; render it as clean.
		if eq.ID > 0 {
			defs, err := fetch.Deficiencies(ctx, eq.ID)
			if err != nil {
				s.logger.Error("Deficiency fetch failed",
					zap.Int("equipment_id", eq.ID),
					zap.Error(err))
				return Result{}, fmt.Errorf("%w: equipment %d: %w", ErrFetchFailed, eq.ID, err)
			}
			deficiencies = defs
		}

		kind := eq.Kind()
		s.logger.Debug("Composing equipment notes",
			zap.Int("equipment_id", eq.ID),
			zap.String("kind", string(kind)),
			zap.Int("deficiencies", len(deficiencies)))

		var frag string
		frag, state = composerFor(kind)(eq, deficiencies, meta, state)
		out.WriteString(frag)
		rows += len(deficiencies)
	}

	return Result{
		Notes:           s.renderer.Finalize(out.String()),
		State:           state,
		EquipmentCount:  len(equipment),
		DeficiencyCount: rows,
	}, nil
}
