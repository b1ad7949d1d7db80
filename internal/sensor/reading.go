package sensor

import (
	"fmt"
	"time"

	"github.com/aa08453/spectra/internal/errors"
)

// Reading is one normalized sensor reading. It is the primary data unit
// flowing from CSV parsing into the store.
type Reading struct {
	// Identity
	Sensor    Type
	Timestamp string // Sample timestamp as supplied by the source

	// Channels holds the wavelength (nm) or channel labels.
	// Values holds the measurements, aligned with Channels.
	Channels []float64
	Values   []float64

	// Transmittance is a secondary series recorded by spectrophotometers.
	// Nil for other sensor types.
	Transmittance []float64

	// Provenance
	SourceFile string
	IngestedAt time.Time

	// Attrs holds optional user-supplied metadata.
	Attrs map[string]string

	// Summary holds per-reading summary statistics over Values.
	Summary Stats
}

// Key returns the store key for this reading: "<sensor>/<timestamp>".
func (r *Reading) Key() string {
	return Key(r.Sensor, r.Timestamp)
}

// Key composes a store key from a sensor type and a sample timestamp.
func Key(t Type, timestamp string) string {
	return t.String() + "/" + timestamp
}

// Validate checks the reading against its sensor schema.
func (r *Reading) Validate() error {
	if r.Timestamp == "" {
		return errors.NewMissingField("timestamp")
	}
	if len(r.Channels) != len(r.Values) {
		return fmt.Errorf("channels (%d) and values (%d) differ in length: %w",
			len(r.Channels), len(r.Values), errors.ErrSchemaMismatch)
	}
	if r.Transmittance != nil && len(r.Transmittance) != len(r.Channels) {
		return fmt.Errorf("transmittance (%d) and channels (%d) differ in length: %w",
			len(r.Transmittance), len(r.Channels), errors.ErrSchemaMismatch)
	}

	schema, err := SchemaFor(r.Sensor)
	if err != nil {
		return err
	}

	switch schema.Layout {
	case LayoutRowPerSample:
		if len(r.Values) != schema.ChannelCount() {
			return fmt.Errorf("expected %d channels for %s, got %d: %w",
				schema.ChannelCount(), r.Sensor, len(r.Values), errors.ErrSchemaMismatch)
		}
	case LayoutFilePerSample:
		if len(r.Values) < 2 {
			return fmt.Errorf("%s scan needs at least 2 points, got %d: %w",
				r.Sensor, len(r.Values), errors.ErrSchemaMismatch)
		}
	}

	return nil
}
