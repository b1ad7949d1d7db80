// Package export writes store entries to Parquet files so the collected
// readings can be consumed by external analysis tooling.
package export

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"

	"github.com/aa08453/spectra/internal/sensor"
)

// Row is one channel of one reading in long format. Long format keeps
// the schema flat: one row per (reading, series, channel) triple.
type Row struct {
	Key        string  `parquet:"key,zstd"`
	SensorType string  `parquet:"sensor_type,zstd"`
	SampleTs   string  `parquet:"sample_ts,zstd"`
	SourceFile string  `parquet:"source_file,optional,zstd"`
	Series     string  `parquet:"series,zstd"`
	Idx        int32   `parquet:"idx"`
	Channel    float64 `parquet:"channel"`
	Value      float64 `parquet:"value"`
}

// Rows flattens readings into long-format rows.
func Rows(readings []*sensor.Reading) []Row {
	var rows []Row

	for _, r := range readings {
		key := r.Key()
		for i := range r.Values {
			rows = append(rows, Row{
				Key:        key,
				SensorType: r.Sensor.String(),
				SampleTs:   r.Timestamp,
				SourceFile: r.SourceFile,
				Series:     "values",
				Idx:        int32(i),
				Channel:    r.Channels[i],
				Value:      r.Values[i],
			})
		}
		for i := range r.Transmittance {
			rows = append(rows, Row{
				Key:        key,
				SensorType: r.Sensor.String(),
				SampleTs:   r.Timestamp,
				SourceFile: r.SourceFile,
				Series:     "transmittance",
				Idx:        int32(i),
				Channel:    r.Channels[i],
				Value:      r.Transmittance[i],
			})
		}
	}

	return rows
}

// Write exports readings to a Parquet file at path.
func Write(readings []*sensor.Reading, path string) error {
	rows := Rows(readings)
	if len(rows) == 0 {
		return fmt.Errorf("nothing to export")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}

	writer := parquet.NewGenericWriter[Row](f, parquet.Compression(&parquet.Zstd))

	if _, err := writer.Write(rows); err != nil {
		writer.Close()
		f.Close()
		return fmt.Errorf("write rows: %w", err)
	}

	if err := writer.Close(); err != nil {
		f.Close()
		return fmt.Errorf("close writer: %w", err)
	}

	return f.Close()
}

// ReadAll reads all rows back from a Parquet export.
func ReadAll(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	reader := parquet.NewGenericReader[Row](f)
	defer reader.Close()

	rows := make([]Row, reader.NumRows())
	n, err := reader.Read(rows)
	if err != nil && n < len(rows) {
		return nil, fmt.Errorf("read rows: %w", err)
	}

	return rows[:n], nil
}
