package sqlite

// schema is applied by Bootstrap. Every statement is idempotent.
//
// Equipment ids come from the field service system and are not unique across
// imports of the same job, so equipment rows carry their own row_id.
// Deficiencies reference the equipment id value within their job, so every
// fetch is keyed on (job_id, equipment_id).
var schema = []string{
	`CREATE TABLE IF NOT EXISTS jobs (
		id          INTEGER PRIMARY KEY,
		description TEXT NOT NULL DEFAULT '',
		country     TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS equipment (
		row_id           INTEGER PRIMARY KEY AUTOINCREMENT,
		id               INTEGER NOT NULL,
		job_id           INTEGER NOT NULL REFERENCES jobs(id) ON DELETE CASCADE,
		position         INTEGER NOT NULL,
		type             TEXT NOT NULL DEFAULT '',
		make             TEXT NOT NULL DEFAULT '',
		model            TEXT NOT NULL DEFAULT '',
		serial_number    TEXT NOT NULL DEFAULT '',
		rating           TEXT NOT NULL DEFAULT '',
		location         TEXT NOT NULL DEFAULT '',
		task_description TEXT NOT NULL DEFAULT '',
		date_code        TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS equipment_job_idx ON equipment (job_id, position)`,
	`CREATE TABLE IF NOT EXISTS deficiencies (
		id              INTEGER PRIMARY KEY AUTOINCREMENT,
		job_id          INTEGER NOT NULL REFERENCES jobs(id) ON DELETE CASCADE,
		equipment_id    INTEGER NOT NULL,
		position        INTEGER NOT NULL,
		column_name     TEXT NOT NULL DEFAULT '',
		battery_id      TEXT NOT NULL DEFAULT '',
		deficiency_text TEXT NOT NULL DEFAULT '',
		action_text     TEXT NOT NULL DEFAULT '',
		status          TEXT NOT NULL DEFAULT 'Other'
	)`,
	`DROP INDEX IF EXISTS deficiencies_equipment_idx`,
	`CREATE INDEX IF NOT EXISTS deficiencies_job_equipment_idx ON deficiencies (job_id, equipment_id, position)`,
	`CREATE TABLE IF NOT EXISTS notes (
		job_id     INTEGER PRIMARY KEY REFERENCES jobs(id) ON DELETE CASCADE,
		body       TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
}
