package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/minsoo-dev/libcrowd/models"
	"github.com/minsoo-dev/libcrowd/parser"
)

// SQLiteStore persists readings in a local SQLite database. The database
// file is the container, the readings table the named table; both are
// created on first open and reused afterwards.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens or creates the database and initializes the schema.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_synchronous=NORMAL")
	if err != nil {
		return nil, ErrPersistence{Step: "locate container", Err: err}
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, ErrPersistence{Step: "locate container", Err: err}
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, ErrPersistence{Step: "locate table", Err: err}
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS readings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp TEXT NOT NULL,
		floor TEXT NOT NULL,
		location TEXT NOT NULL,
		status TEXT NOT NULL,
		status_level INTEGER NOT NULL DEFAULT 0,
		UNIQUE(timestamp, floor, location)
	);

	CREATE INDEX IF NOT EXISTS idx_readings_location ON readings(location);
	CREATE INDEX IF NOT EXISTS idx_readings_timestamp ON readings(timestamp);
	`
	_, err := s.db.Exec(schema)
	return err
}

// AppendReadings inserts one row per reading, ignoring rows whose
// (timestamp, floor, location) key already exists. Re-running an invocation
// therefore never duplicates data.
func (s *SQLiteStore) AppendReadings(ctx context.Context, readings []*models.Reading) error {
	if len(readings) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ErrPersistence{Step: "append rows", Err: err}
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO readings (timestamp, floor, location, status, status_level)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return ErrPersistence{Step: "append rows", Err: err}
	}
	defer stmt.Close()

	for _, r := range readings {
		level := r.StatusLevel
		if level == 0 {
			level = parser.StatusLevel(r.Status)
		}
		if _, err := stmt.ExecContext(ctx, r.Timestamp, r.Floor, r.Location, r.Status, level); err != nil {
			return ErrPersistence{Step: "append rows", Err: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return ErrPersistence{Step: "append rows", Err: err}
	}
	return nil
}

// QueryReadings returns all persisted rows in insertion order.
func (s *SQLiteStore) QueryReadings(ctx context.Context) ([]*models.Reading, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT timestamp, floor, location, status, status_level
		FROM readings
		ORDER BY timestamp ASC, id ASC
	`)
	if err != nil {
		return nil, ErrPersistence{Step: "query rows", Err: err}
	}
	defer rows.Close()

	var readings []*models.Reading
	for rows.Next() {
		var r models.Reading
		if err := rows.Scan(&r.Timestamp, &r.Floor, &r.Location, &r.Status, &r.StatusLevel); err != nil {
			return nil, ErrPersistence{Step: "query rows", Err: err}
		}
		readings = append(readings, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, ErrPersistence{Step: "query rows", Err: err}
	}
	return readings, nil
}

// Validate checks the connection and the presence of the readings table.
func (s *SQLiteStore) Validate() error {
	var name string
	err := s.db.QueryRow(
		`SELECT name FROM sqlite_master WHERE type='table' AND name='readings'`,
	).Scan(&name)
	if err == sql.ErrNoRows {
		return fmt.Errorf("readings table missing")
	}
	if err != nil {
		return fmt.Errorf("validate sqlite: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
