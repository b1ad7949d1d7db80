// Package ingest orchestrates the CSV ingestion pipeline:
// collect files → parse → derive key → append to store → synchronize.
package ingest

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/aa08453/spectra/internal/errors"
	"github.com/aa08453/spectra/internal/logging"
	"github.com/aa08453/spectra/internal/sensor"
	"github.com/aa08453/spectra/internal/store"
)

// Summary accumulates the results of one ingestion run. It is consumed
// once to build the synchronization commit message and then discarded.
type Summary struct {
	// SensorType is the declared sensor type for the batch.
	SensorType sensor.Type

	// NewSamples is the number of entries appended to the store.
	NewSamples int

	// Duplicates is the number of readings skipped due to key collisions.
	Duplicates int

	// FilesProcessed and FilesFailed count the batch's input files.
	FilesProcessed int
	FilesFailed    int

	// Timestamps lists the sample timestamps added, in ingestion order.
	Timestamps []string

	// MetadataUpdated is true when any added reading carried user
	// metadata attributes.
	MetadataUpdated bool

	// Errors holds the per-file errors surfaced during the run. They do
	// not abort the batch.
	Errors []error
}

// MetadataFunc supplies optional metadata attributes for a reading about
// to be stored, keyed by the derived store key. A nil return attaches no
// metadata. The interactive prompt in cmd/ingest is one implementation;
// tests inject pure ones.
type MetadataFunc func(key string) map[string]string

// Syncer pushes the updated store to its remote location after a batch.
type Syncer interface {
	Sync(ctx context.Context, summary *Summary) error
}

// Options configures an ingestion service.
type Options struct {
	// PercentileAccuracy is the DDSketch accuracy for summary stats.
	PercentileAccuracy float64

	// Metadata, when set, is consulted once per stored reading.
	Metadata MetadataFunc

	// Syncer, when set, is invoked once at the end of a successful run.
	Syncer Syncer
}

// Service runs ingestion batches against an explicit store handle.
type Service struct {
	store *store.Store
	opts  Options
}

// New creates an ingestion service.
func New(st *store.Store, opts Options) *Service {
	if opts.PercentileAccuracy <= 0 {
		opts.PercentileAccuracy = 0.01
	}
	return &Service{store: st, opts: opts}
}

// CollectCSVFiles expands the given inputs into a list of CSV files.
// Directories contribute their immediate *.csv children; non-CSV inputs
// are logged and skipped.
func CollectCSVFiles(inputs []string) []string {
	log := logging.Component("ingest")

	var files []string
	for _, item := range inputs {
		info, err := os.Stat(item)
		switch {
		case err != nil:
			log.Warn("skipping input", "path", item, "error", err)
		case info.IsDir():
			matches, err := filepath.Glob(filepath.Join(item, "*.csv"))
			if err != nil {
				log.Warn("skipping directory", "path", item, "error", err)
				continue
			}
			files = append(files, matches...)
		case strings.EqualFold(filepath.Ext(item), ".csv"):
			files = append(files, item)
		default:
			log.Warn("skipping input: not a folder or CSV file", "path", item)
		}
	}

	return files
}

// Run ingests the given CSV files as the declared sensor type.
//
// A parse failure skips that file and is recorded in the summary; a key
// collision skips that reading; any other store-write failure is fatal
// to that file's ingestion but not to the batch. When a Syncer is
// configured it runs once at the end; its error is returned alongside
// the summary and does not undo the local writes.
func (s *Service) Run(ctx context.Context, paths []string, t sensor.Type) (*Summary, error) {
	log := logging.WithContext(ctx).With("component", "ingest")
	summary := &Summary{SensorType: t}

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		fctx := logging.ContextWithSourceFile(ctx, path)
		flog := logging.WithContext(fctx).With("component", "ingest")
		flog.Info("processing file")

		readings, err := sensor.ParseFile(path, t)
		if err != nil {
			flog.Warn("skipping file", "error", err)
			summary.FilesFailed++
			summary.Errors = append(summary.Errors, err)
			continue
		}

		if err := s.ingestFile(ctx, readings, summary, flog); err != nil {
			flog.Error("file ingestion aborted", "error", err)
			summary.FilesFailed++
			summary.Errors = append(summary.Errors, err)
			continue
		}

		summary.FilesProcessed++
	}

	log.Info("batch complete",
		"sensor", t.String(),
		"new_samples", summary.NewSamples,
		"duplicates", summary.Duplicates,
		"files_processed", summary.FilesProcessed,
		"files_failed", summary.FilesFailed,
	)

	if s.opts.Syncer != nil {
		if err := s.opts.Syncer.Sync(ctx, summary); err != nil {
			// The local store already has the new entries; they are
			// kept regardless of the sync outcome.
			log.Error("synchronization failed; local store retained", "error", err)
			return summary, err
		}
	}

	return summary, nil
}

// ingestFile appends one parsed file's readings to the store.
func (s *Service) ingestFile(ctx context.Context, readings []sensor.Reading, summary *Summary, log *slog.Logger) error {
	for i := range readings {
		r := &readings[i]

		key, err := s.store.NextKey(ctx, r.Sensor, r.Timestamp)
		if errors.IsCollision(err) {
			log.Info("skipping duplicate sample", "timestamp", r.Timestamp)
			summary.Duplicates++
			continue
		}
		if err != nil {
			return err
		}

		r.Summary = sensor.Summarize(r.Values, s.opts.PercentileAccuracy)

		if s.opts.Metadata != nil {
			if attrs := s.opts.Metadata(key); len(attrs) > 0 {
				r.Attrs = attrs
				summary.MetadataUpdated = true
			}
		}

		if err := s.store.Put(ctx, r); err != nil {
			return err
		}

		summary.NewSamples++
		summary.Timestamps = append(summary.Timestamps, r.Timestamp)
		log.Info("added sample", "key", key)
	}

	return nil
}
