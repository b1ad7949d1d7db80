package store

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/aa08453/spectra/internal/errors"
	"github.com/aa08453/spectra/internal/sensor"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(filepath.Join(t.TempDir(), "samples.duckdb"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	return s
}

func testReading(ts string) *sensor.Reading {
	r := &sensor.Reading{
		Sensor:     sensor.TypeRGB,
		Timestamp:  ts,
		Channels:   []float64{630, 532, 465},
		Values:     []float64{0.1, 0.2, 0.3},
		SourceFile: "rgb.csv",
		IngestedAt: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
	}
	r.Summary = sensor.Summarize(r.Values, 0.01)
	return r
}

func TestPutLoadRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	orig := testReading("2024-01-01T10:00")
	orig.Attrs = map[string]string{"operator": "alice", "batch": "7"}

	if err := s.Put(ctx, orig); err != nil {
		t.Fatalf("Put: %v", err)
	}

	loaded, err := s.Load(ctx, orig.Key())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if loaded.Sensor != orig.Sensor {
		t.Errorf("sensor: expected %v, got %v", orig.Sensor, loaded.Sensor)
	}
	if loaded.Timestamp != orig.Timestamp {
		t.Errorf("timestamp: expected %s, got %s", orig.Timestamp, loaded.Timestamp)
	}
	if !reflect.DeepEqual(loaded.Channels, orig.Channels) {
		t.Errorf("channels: expected %v, got %v", orig.Channels, loaded.Channels)
	}
	if !reflect.DeepEqual(loaded.Values, orig.Values) {
		t.Errorf("values: expected %v, got %v", orig.Values, loaded.Values)
	}
	if !reflect.DeepEqual(loaded.Attrs, orig.Attrs) {
		t.Errorf("attrs: expected %v, got %v", orig.Attrs, loaded.Attrs)
	}
	if loaded.SourceFile != "rgb.csv" {
		t.Errorf("source file: got %s", loaded.SourceFile)
	}
	if loaded.Summary.Count != 3 {
		t.Errorf("summary count: expected 3, got %d", loaded.Summary.Count)
	}
}

func TestPutTransmittanceRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	orig := &sensor.Reading{
		Sensor:        sensor.TypeSpectrophotometer,
		Timestamp:     "2024-01-01T10-00",
		Channels:      []float64{400, 410, 420},
		Values:        []float64{0.12, 0.15, 0.19},
		Transmittance: []float64{75.9, 70.8, 64.6},
		SourceFile:    "2024-01-01T10-00.csv",
	}
	orig.Summary = sensor.Summarize(orig.Values, 0.01)

	if err := s.Put(ctx, orig); err != nil {
		t.Fatalf("Put: %v", err)
	}

	loaded, err := s.Load(ctx, orig.Key())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if !reflect.DeepEqual(loaded.Transmittance, orig.Transmittance) {
		t.Errorf("transmittance: expected %v, got %v", orig.Transmittance, loaded.Transmittance)
	}
}

func TestPutDuplicateKey(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.Put(ctx, testReading("2024-01-01T10:00")); err != nil {
		t.Fatalf("first Put: %v", err)
	}

	err := s.Put(ctx, testReading("2024-01-01T10:00"))
	if !errors.IsCollision(err) {
		t.Errorf("expected ErrKeyCollision, got %v", err)
	}

	// The store still has exactly one entry.
	n, err := s.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 entry, got %d", n)
	}
}

func TestNextKey(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	key, err := s.NextKey(ctx, sensor.TypeAS7341, "2024-01-01T10:00")
	if err != nil {
		t.Fatalf("NextKey: %v", err)
	}
	if key != "as7341/2024-01-01T10:00" {
		t.Errorf("unexpected key %s", key)
	}

	r := testReading("2024-01-01T10:00")
	if err := s.Put(ctx, r); err != nil {
		t.Fatal(err)
	}

	// Same timestamp, same sensor: collision.
	if _, err := s.NextKey(ctx, sensor.TypeRGB, "2024-01-01T10:00"); !errors.IsCollision(err) {
		t.Errorf("expected ErrKeyCollision, got %v", err)
	}

	// Same timestamp, different sensor: distinct key, no collision.
	if _, err := s.NextKey(ctx, sensor.TypeAS7341, "2024-01-01T10:00"); err != nil {
		t.Errorf("expected no collision for different sensor, got %v", err)
	}

	if _, err := s.NextKey(ctx, sensor.TypeRGB, ""); !errors.Is(err, errors.ErrMissingField) {
		t.Errorf("expected ErrMissingField, got %v", err)
	}
}

func TestKeysInsertionOrderAndIdempotence(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	// Insert out of lexical order to prove insertion ordering.
	timestamps := []string{"2024-03-01T09:00", "2024-01-01T10:00", "2024-02-15T08:30"}
	for _, ts := range timestamps {
		if err := s.Put(ctx, testReading(ts)); err != nil {
			t.Fatal(err)
		}
	}

	keys, err := s.Keys(ctx)
	if err != nil {
		t.Fatalf("Keys: %v", err)
	}

	expected := []string{
		"rgb/2024-03-01T09:00",
		"rgb/2024-01-01T10:00",
		"rgb/2024-02-15T08:30",
	}
	if !reflect.DeepEqual(keys, expected) {
		t.Errorf("expected %v, got %v", expected, keys)
	}

	again, err := s.Keys(ctx)
	if err != nil {
		t.Fatalf("Keys: %v", err)
	}
	if !reflect.DeepEqual(keys, again) {
		t.Errorf("Keys not stable: %v vs %v", keys, again)
	}
}

func TestKeysEmptyStore(t *testing.T) {
	s := openTestStore(t)

	keys, err := s.Keys(context.Background())
	if err != nil {
		t.Fatalf("Keys: %v", err)
	}
	if len(keys) != 0 {
		t.Errorf("expected no keys, got %v", keys)
	}
}

func TestLoadNotFound(t *testing.T) {
	s := openTestStore(t)

	_, err := s.Load(context.Background(), "rgb/2099-01-01T00:00")
	if !errors.IsNotFound(err) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestLoadMany(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	timestamps := []string{"t1", "t2", "t3", "t4", "t5"}
	for _, ts := range timestamps {
		if err := s.Put(ctx, testReading(ts)); err != nil {
			t.Fatal(err)
		}
	}

	keys := []string{"rgb/t3", "rgb/t1", "rgb/t5"}
	readings, err := s.LoadMany(ctx, keys)
	if err != nil {
		t.Fatalf("LoadMany: %v", err)
	}

	if len(readings) != 3 {
		t.Fatalf("expected 3 readings, got %d", len(readings))
	}
	// Order matches the requested keys.
	for i, key := range keys {
		if readings[i].Key() != key {
			t.Errorf("position %d: expected %s, got %s", i, key, readings[i].Key())
		}
	}
}

func TestLoadManyMissingKey(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.Put(ctx, testReading("t1")); err != nil {
		t.Fatal(err)
	}

	_, err := s.LoadMany(ctx, []string{"rgb/t1", "rgb/missing"})
	if !errors.IsNotFound(err) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestClosedStore(t *testing.T) {
	s := openTestStore(t)
	s.Close()

	if _, err := s.Keys(context.Background()); !errors.Is(err, errors.ErrStoreClosed) {
		t.Errorf("expected ErrStoreClosed, got %v", err)
	}
	if err := s.Put(context.Background(), testReading("t1")); !errors.Is(err, errors.ErrStoreClosed) {
		t.Errorf("expected ErrStoreClosed, got %v", err)
	}
}

func TestReopenPersists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "samples.duckdb")
	ctx := context.Background()

	s, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Put(ctx, testReading("2024-01-01T10:00")); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	s2, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s2.Close()

	keys, err := s2.Keys(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(keys) != 1 || keys[0] != "rgb/2024-01-01T10:00" {
		t.Errorf("unexpected keys after reopen: %v", keys)
	}
}
