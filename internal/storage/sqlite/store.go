package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ginjaninja78/deficiency-notes/internal/types"
)

// ErrNotFound is returned when a job or its notes do not exist.
var ErrNotFound = errors.New("sqlite: not found")

// Store is the SQLite-backed job store.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens a SQLite connection using the provided DSN and returns a Store
// plus a close function for cleanup.
func Open(ctx context.Context, cfg Config) (*Store, func(), error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, nil, fmt.Errorf("sqlite: DSN must not be empty")
	}

	db, err := sql.Open("sqlite", cfg.dsn())
	if err != nil {
		return nil, nil, fmt.Errorf("sqlite: open: %w", err)
	}
	if cfg.inMemory() {
		db.SetMaxOpenConns(1)
	}

	// Fail fast on invalid DSNs.
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("sqlite: ping: %w", err)
	}

	closeFn := func() { db.Close() }
	return &Store{db: db, now: time.Now}, closeFn, nil
}

// Bootstrap creates the tables and indexes if they do not exist.
func (s *Store) Bootstrap(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("sqlite: bootstrap: %w", err)
		}
	}
	return nil
}

// Job returns the metadata of a job.
func (s *Store) Job(ctx context.Context, jobID int) (types.JobMeta, error) {
	meta := types.JobMeta{JobID: jobID}
	err := s.db.QueryRowContext(ctx,
		`SELECT description, country FROM jobs WHERE id = ?`, jobID,
	).Scan(&meta.Description, &meta.Country)
	if errors.Is(err, sql.ErrNoRows) {
		return types.JobMeta{}, fmt.Errorf("job %d: %w", jobID, ErrNotFound)
	}
	if err != nil {
		return types.JobMeta{}, fmt.Errorf("sqlite: job %d: %w", jobID, err)
	}
	return meta, nil
}

// Equipment returns the equipment list of a job in stored order.
func (s *Store) Equipment(ctx context.Context, jobID int) ([]types.EquipmentRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, type, make, model, serial_number, rating, location, task_description, date_code
		FROM equipment
		WHERE job_id = ?
		ORDER BY position, row_id`, jobID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: equipment of job %d: %w", jobID, err)
	}
	defer rows.Close()

	var out []types.EquipmentRecord
	for rows.Next() {
		var e types.EquipmentRecord
		if err := rows.Scan(&e.ID, &e.Type, &e.Make, &e.Model, &e.SerialNumber,
			&e.Rating, &e.Location, &e.TaskDescription, &e.DateCode); err != nil {
			return nil, fmt.Errorf("sqlite: scan equipment: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: equipment rows: %w", err)
	}
	return out, nil
}

// Deficiencies returns the deficiency rows of one equipment of a job in
// stored order. Equipment ids repeat across jobs.
func (s *Store) Deficiencies(ctx context.Context, jobID, equipmentID int) ([]types.DeficiencyRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT equipment_id, column_name, battery_id, deficiency_text, action_text, status
		FROM deficiencies
		WHERE job_id = ? AND equipment_id = ?
		ORDER BY position, id`, jobID, equipmentID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: deficiencies of job %d equipment %d: %w", jobID, equipmentID, err)
	}
	defer rows.Close()

	out := []types.DeficiencyRecord{}
	for rows.Next() {
		var (
			d      types.DeficiencyRecord
			status string
		)
		if err := rows.Scan(&d.EquipmentID, &d.ColumnName, &d.BatteryID,
			&d.DeficiencyText, &d.ActionText, &status); err != nil {
			return nil, fmt.Errorf("sqlite: scan deficiency: %w", err)
		}
		d.Status = types.ParseDeficiencyStatus(status)
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: deficiency rows: %w", err)
	}
	return out, nil
}

// ImportJob replaces a job's metadata, equipment and deficiencies in one
// transaction. Positions follow the slice order.
func (s *Store) ImportJob(ctx context.Context, meta types.JobMeta, equipment []types.EquipmentRecord, deficiencies []types.DeficiencyRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO jobs (id, description, country) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET description = excluded.description, country = excluded.country`,
		meta.JobID, meta.Description, meta.Country); err != nil {
		return fmt.Errorf("sqlite: upsert job: %w", err)
	}
	for _, table := range []string{"equipment", "deficiencies"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE job_id = ?`, meta.JobID); err != nil {
			return fmt.Errorf("sqlite: clear %s: %w", table, err)
		}
	}

	eqStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO equipment (id, job_id, position, type, make, model, serial_number, rating, location, task_description, date_code)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("sqlite: prepare equipment insert: %w", err)
	}
	defer eqStmt.Close()

	for i, e := range equipment {
		if _, err := eqStmt.ExecContext(ctx, e.ID, meta.JobID, i, e.Type, e.Make, e.Model,
			e.SerialNumber, e.Rating, e.Location, e.TaskDescription, e.DateCode); err != nil {
			return fmt.Errorf("sqlite: insert equipment %d: %w", e.ID, err)
		}
	}

	defStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO deficiencies (job_id, equipment_id, position, column_name, battery_id, deficiency_text, action_text, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("sqlite: prepare deficiency insert: %w", err)
	}
	defer defStmt.Close()

	for i, d := range deficiencies {
		status := d.Status
		if status == "" {
			status = types.StatusOther
		}
		if _, err := defStmt.ExecContext(ctx, meta.JobID, d.EquipmentID, i, d.ColumnName, d.BatteryID,
			d.DeficiencyText, d.ActionText, string(status)); err != nil {
			return fmt.Errorf("sqlite: insert deficiency %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit: %w", err)
	}
	return nil
}

// SaveNotes stores the generated notes of a job, replacing earlier notes.
// Jobs generated from files need not have been imported; an empty job row
// is created for them.
func (s *Store) SaveNotes(ctx context.Context, jobID int, body string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO jobs (id) VALUES (?) ON CONFLICT(id) DO NOTHING`, jobID); err != nil {
		return fmt.Errorf("sqlite: ensure job %d: %w", jobID, err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO notes (job_id, body, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(job_id) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at`,
		jobID, body, s.now().UTC().Format(time.RFC3339Nano)); err != nil {
		return fmt.Errorf("sqlite: save notes of job %d: %w", jobID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit: %w", err)
	}
	return nil
}

// Notes returns the stored notes of a job and when they were written.
func (s *Store) Notes(ctx context.Context, jobID int) (string, time.Time, error) {
	var body, updated string
	err := s.db.QueryRowContext(ctx,
		`SELECT body, updated_at FROM notes WHERE job_id = ?`, jobID,
	).Scan(&body, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return "", time.Time{}, fmt.Errorf("notes of job %d: %w", jobID, ErrNotFound)
	}
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sqlite: notes of job %d: %w", jobID, err)
	}

	at, err := time.Parse(time.RFC3339Nano, updated)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sqlite: notes of job %d: bad updated_at %q: %w", jobID, updated, err)
	}
	return body, at, nil
}
