package store

import (
	"context"
	"database/sql"

	"golang.org/x/sync/errgroup"

	"github.com/aa08453/spectra/internal/errors"
	"github.com/aa08453/spectra/internal/sensor"
)

// Load reads one entry back as a reading. ErrNotFound is returned when
// the key does not exist.
func (s *Store) Load(ctx context.Context, key string) (*sensor.Reading, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	r := &sensor.Reading{}
	var sensorName string

	err := s.db.QueryRowContext(ctx, `
		SELECT sensor_type, sample_ts, source_file, ingested_at,
			count, min, max, mean, p50, p95
		FROM samples WHERE key = ?`, key).Scan(
		&sensorName, &r.Timestamp, &r.SourceFile, &r.IngestedAt,
		&r.Summary.Count, &r.Summary.Min, &r.Summary.Max,
		&r.Summary.Mean, &r.Summary.P50, &r.Summary.P95,
	)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("sample", key)
	}
	if err != nil {
		return nil, errors.Wrap(err, "load sample")
	}

	r.Sensor, err = sensor.ParseType(sensorName)
	if err != nil {
		return nil, err
	}

	if err := s.loadSeries(ctx, key, r); err != nil {
		return nil, err
	}
	if err := s.loadAttrs(ctx, key, r); err != nil {
		return nil, err
	}

	return r, nil
}

// loadSeries reads the numeric series for an entry into the reading.
func (s *Store) loadSeries(ctx context.Context, key string, r *sensor.Reading) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, channel, value FROM series
		WHERE key = ? ORDER BY name DESC, idx`, key)
	if err != nil {
		return errors.Wrap(err, "load series")
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		var channel, value float64
		if err := rows.Scan(&name, &channel, &value); err != nil {
			return errors.Wrap(err, "scan series")
		}

		switch name {
		case SeriesValues:
			r.Channels = append(r.Channels, channel)
			r.Values = append(r.Values, value)
		case SeriesTransmittance:
			r.Transmittance = append(r.Transmittance, value)
		}
	}

	return rows.Err()
}

// loadAttrs reads the string attributes for an entry into the reading.
func (s *Store) loadAttrs(ctx context.Context, key string, r *sensor.Reading) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, value FROM attrs WHERE key = ? ORDER BY name`, key)
	if err != nil {
		return errors.Wrap(err, "load attrs")
	}
	defer rows.Close()

	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return errors.Wrap(err, "scan attr")
		}
		if r.Attrs == nil {
			r.Attrs = make(map[string]string)
		}
		r.Attrs[name] = value
	}

	return rows.Err()
}

// LoadMany loads the given keys with bounded concurrency, preserving the
// input order. The first failing key aborts the load.
func (s *Store) LoadMany(ctx context.Context, keys []string) ([]*sensor.Reading, error) {
	if len(keys) == 0 {
		return nil, nil
	}

	readings := make([]*sensor.Reading, len(keys))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(loadConcurrency)

	for i, key := range keys {
		i, key := i, key
		g.Go(func() error {
			r, err := s.Load(ctx, key)
			if err != nil {
				return err
			}
			readings[i] = r
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return readings, nil
}
