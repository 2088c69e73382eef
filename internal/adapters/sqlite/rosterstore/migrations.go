package rosterstore

import "database/sql"

const schema = `
CREATE TABLE IF NOT EXISTS roster_documents (
	path       TEXT PRIMARY KEY,
	document   TEXT NOT NULL,
	updated_at INTEGER NOT NULL
);
`

func runMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
