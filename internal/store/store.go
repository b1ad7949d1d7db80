// Package store provides the on-disk sample store for the spectra tools.
//
// The store is a single DuckDB file holding one entry per ingested
// reading. Each entry is addressed by a key composed from the sensor
// type and the sample timestamp, and consists of a summary row plus the
// numeric series and optional string attributes:
//
//	samples: key, sensor_type, sample_ts, provenance, summary stats
//	series:  key, name ("values" | "transmittance"), idx, channel, value
//	attrs:   key, name, value
//
// Entries are immutable once written; the store never updates or deletes
// them. One writer at a time is assumed.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/marcboeker/go-duckdb"

	"github.com/aa08453/spectra/internal/errors"
	"github.com/aa08453/spectra/internal/sensor"
)

// schemaSQL creates the store layout. Idempotent.
const schemaSQL = `
CREATE SEQUENCE IF NOT EXISTS samples_seq;

CREATE TABLE IF NOT EXISTS samples (
	seq         BIGINT DEFAULT nextval('samples_seq'),
	key         VARCHAR PRIMARY KEY,
	sensor_type VARCHAR NOT NULL,
	sample_ts   VARCHAR NOT NULL,
	source_file VARCHAR,
	ingested_at TIMESTAMP NOT NULL,
	count       BIGINT NOT NULL,
	min         DOUBLE NOT NULL,
	max         DOUBLE NOT NULL,
	mean        DOUBLE NOT NULL,
	p50         DOUBLE NOT NULL,
	p95         DOUBLE NOT NULL
);

CREATE TABLE IF NOT EXISTS series (
	key     VARCHAR NOT NULL,
	name    VARCHAR NOT NULL,
	idx     INTEGER NOT NULL,
	channel DOUBLE NOT NULL,
	value   DOUBLE NOT NULL
);

CREATE TABLE IF NOT EXISTS attrs (
	key   VARCHAR NOT NULL,
	name  VARCHAR NOT NULL,
	value VARCHAR NOT NULL
);
`

// Series names used in the series table.
const (
	SeriesValues        = "values"
	SeriesTransmittance = "transmittance"
)

// loadConcurrency bounds parallel entry loads in LoadMany.
const loadConcurrency = 4

// Store provides access to one sample store file.
//
// Store is safe for concurrent reads; writes assume a single writer.
type Store struct {
	db     *sql.DB
	path   string
	mu     sync.RWMutex
	closed bool
}

// Open opens (or creates) the store file at path and ensures the schema
// exists.
func Open(path string) (*Store, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Store{
		db:   db,
		path: path,
	}, nil
}

// Close closes the store.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	return s.db.Close()
}

// Path returns the store file path.
func (s *Store) Path() string {
	return s.path
}

// checkOpen returns an error if the store has been closed.
func (s *Store) checkOpen() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return errors.ErrStoreClosed
	}
	return nil
}

// Checkpoint flushes the write-ahead log into the store file. Callers
// run it before staging the file for synchronization so the on-disk
// store is complete.
func (s *Store) Checkpoint(ctx context.Context) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `CHECKPOINT`); err != nil {
		return errors.Wrap(err, "checkpoint")
	}
	return nil
}

// =============================================================================
// Keys
// =============================================================================

// Has reports whether an entry with the given key exists.
func (s *Store) Has(ctx context.Context, key string) (bool, error) {
	if err := s.checkOpen(); err != nil {
		return false, err
	}

	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM samples WHERE key = ?`, key).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrap(err, "query key")
	}
	return true, nil
}

// NextKey derives the store key for a sample timestamp and sensor type.
// Collisions are rejected: if an entry with the derived key already
// exists, ErrKeyCollision is returned and the caller decides whether to
// skip or abort.
func (s *Store) NextKey(ctx context.Context, t sensor.Type, timestamp string) (string, error) {
	if timestamp == "" {
		return "", errors.NewMissingField("timestamp")
	}

	key := sensor.Key(t, timestamp)

	exists, err := s.Has(ctx, key)
	if err != nil {
		return "", err
	}
	if exists {
		return "", errors.NewKeyCollision(key)
	}

	return key, nil
}

// Keys returns all entry keys in insertion order. The ordering is stable
// across calls with no intervening writes.
func (s *Store) Keys(ctx context.Context) ([]string, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT key FROM samples ORDER BY seq`)
	if err != nil {
		return nil, errors.Wrap(err, "list keys")
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, errors.Wrap(err, "scan key")
		}
		keys = append(keys, key)
	}

	return keys, rows.Err()
}

// Count returns the number of entries in the store.
func (s *Store) Count(ctx context.Context) (int64, error) {
	if err := s.checkOpen(); err != nil {
		return 0, err
	}

	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM samples`).Scan(&n); err != nil {
		return 0, errors.Wrap(err, "count samples")
	}
	return n, nil
}

// =============================================================================
// Write path
// =============================================================================

// Put appends a new entry for the reading. The entry row, its series and
// its attributes are written in one transaction: a failed write leaves no
// partial entry behind. Duplicate keys are rejected with ErrKeyCollision.
func (s *Store) Put(ctx context.Context, r *sensor.Reading) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if err := r.Validate(); err != nil {
		return err
	}

	key := r.Key()

	return s.transaction(ctx, func(tx *sql.Tx) error {
		var one int
		err := tx.QueryRowContext(ctx, `SELECT 1 FROM samples WHERE key = ?`, key).Scan(&one)
		if err == nil {
			return errors.NewKeyCollision(key)
		}
		if err != sql.ErrNoRows {
			return errors.Wrap(err, "query key")
		}

		ingested := r.IngestedAt
		if ingested.IsZero() {
			ingested = time.Now().UTC()
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO samples (key, sensor_type, sample_ts, source_file, ingested_at,
				count, min, max, mean, p50, p95)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			key, r.Sensor.String(), r.Timestamp, r.SourceFile, ingested,
			r.Summary.Count, r.Summary.Min, r.Summary.Max,
			r.Summary.Mean, r.Summary.P50, r.Summary.P95,
		)
		if err != nil {
			return errors.Wrap(err, "insert sample")
		}

		if err := insertSeries(ctx, tx, key, SeriesValues, r.Channels, r.Values); err != nil {
			return err
		}
		if r.Transmittance != nil {
			if err := insertSeries(ctx, tx, key, SeriesTransmittance, r.Channels, r.Transmittance); err != nil {
				return err
			}
		}

		for name, value := range r.Attrs {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO attrs (key, name, value) VALUES (?, ?, ?)`,
				key, name, value)
			if err != nil {
				return errors.Wrap(err, "insert attr")
			}
		}

		return nil
	})
}

// insertSeries writes one named numeric series for an entry.
func insertSeries(ctx context.Context, tx *sql.Tx, key, name string, channels, values []float64) error {
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO series (key, name, idx, channel, value) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return errors.Wrap(err, "prepare series insert")
	}
	defer stmt.Close()

	for i := range values {
		if _, err := stmt.ExecContext(ctx, key, name, i, channels[i], values[i]); err != nil {
			return errors.Wrapf(err, "insert series %s[%d]", name, i)
		}
	}
	return nil
}

// transaction executes fn within a database transaction, rolling back on
// error or panic.
func (s *Store) transaction(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback failed: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}
