package store

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/minsoo-dev/libcrowd/models"
	"github.com/minsoo-dev/libcrowd/parser"
)

// PostgresStore is an optional DSN-driven sink for deployments that already
// run a database. Conflicting rows are silently skipped, so replaying an
// archive folder into it is safe.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects and ensures the readings table exists.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, ErrPersistence{Step: "locate container", Err: err}
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, ErrPersistence{Step: "locate container", Err: err}
	}

	s := &PostgresStore{pool: pool}
	if err := s.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, ErrPersistence{Step: "locate table", Err: err}
	}
	return s, nil
}

func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS readings (
			id BIGSERIAL PRIMARY KEY,
			ts TEXT NOT NULL,
			floor TEXT NOT NULL,
			location TEXT NOT NULL,
			status TEXT NOT NULL,
			status_level INT NOT NULL DEFAULT 0,
			UNIQUE (ts, floor, location)
		)
	`)
	return err
}

// AppendReadings inserts all readings in one batch, skipping conflicts.
func (s *PostgresStore) AppendReadings(ctx context.Context, readings []*models.Reading) error {
	if len(readings) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, r := range readings {
		level := r.StatusLevel
		if level == 0 {
			level = parser.StatusLevel(r.Status)
		}
		batch.Queue(`
			INSERT INTO readings (ts, floor, location, status, status_level)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (ts, floor, location) DO NOTHING
		`, r.Timestamp, r.Floor, r.Location, r.Status, level)
	}

	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()
	for range readings {
		if _, err := results.Exec(); err != nil {
			return ErrPersistence{Step: "append rows", Err: err}
		}
	}
	return nil
}

// QueryReadings returns all persisted rows in insertion order.
func (s *PostgresStore) QueryReadings(ctx context.Context) ([]*models.Reading, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT ts, floor, location, status, status_level
		FROM readings
		ORDER BY ts ASC, id ASC
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

// Validate pings the pool.
func (s *PostgresStore) Validate() error {
	return s.pool.Ping(context.Background())
}

// Close releases the pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
