package sensor

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/aa08453/spectra/internal/errors"
)

// ParseFile reads a CSV file and normalizes it into readings for the
// declared sensor type. The header and every numeric cell are validated
// against the sensor's schema; any mismatch fails the whole file.
func ParseFile(path string, t Type) ([]Reading, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	readings, err := Parse(f, path, t)
	if err != nil {
		return nil, err
	}
	return readings, nil
}

// Parse reads CSV data from r and normalizes it into readings. name is
// used for error messages and as the reading's source file; for
// file-per-sample sensors the sample timestamp is derived from it.
func Parse(r io.Reader, name string, t Type) ([]Reading, error) {
	schema, err := SchemaFor(t)
	if err != nil {
		return nil, err
	}

	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%s: %w", name, errors.ErrEmptyFile)
	}
	if err != nil {
		return nil, errors.NewParse(name, err.Error())
	}

	withOptional, err := matchHeader(name, header, schema)
	if err != nil {
		return nil, err
	}

	switch schema.Layout {
	case LayoutRowPerSample:
		return parseRows(cr, name, t, schema)
	case LayoutFilePerSample:
		return parseScan(cr, name, t, withOptional)
	default:
		return nil, errors.NewParse(name, "unsupported layout")
	}
}

// matchHeader validates the CSV header against the schema. It returns
// true when the optional columns are present.
func matchHeader(name string, header []string, schema Schema) (bool, error) {
	full := append(append([]string{}, schema.Columns...), schema.Optional...)

	switch len(header) {
	case len(schema.Columns):
		full = schema.Columns
	case len(full):
		if len(schema.Optional) == 0 {
			return false, errors.NewSchemaMismatch(name,
				fmt.Sprintf("expected %d columns, got %d", len(schema.Columns), len(header)))
		}
	default:
		return false, errors.NewSchemaMismatch(name,
			fmt.Sprintf("expected %d columns, got %d", len(schema.Columns), len(header)))
	}

	for i, want := range full {
		got := strings.TrimSpace(header[i])
		if !strings.EqualFold(got, want) {
			return false, errors.NewSchemaMismatch(name,
				fmt.Sprintf("column %d: expected %q, got %q", i+1, want, got))
		}
	}

	return len(header) == len(schema.Columns)+len(schema.Optional) && len(schema.Optional) > 0, nil
}

// parseRows handles row-per-sample layouts: the first column is the
// sample timestamp, the remaining columns one value per channel.
func parseRows(cr *csv.Reader, name string, t Type, schema Schema) ([]Reading, error) {
	var readings []Reading
	row := 1

	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.NewParse(name, err.Error())
		}
		row++

		ts := strings.TrimSpace(record[0])
		if ts == "" {
			return nil, errors.NewParse(name, fmt.Sprintf("row %d: empty timestamp", row))
		}

		values := make([]float64, len(record)-1)
		for i, cell := range record[1:] {
			v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
			if err != nil {
				return nil, errors.NewNotNumeric(name, schema.Columns[i+1], row)
			}
			values[i] = v
		}

		reading := Reading{
			Sensor:     t,
			Timestamp:  ts,
			Channels:   append([]float64{}, schema.Wavelengths...),
			Values:     values,
			SourceFile: filepath.Base(name),
		}
		if err := reading.Validate(); err != nil {
			return nil, err
		}

		readings = append(readings, reading)
	}

	if len(readings) == 0 {
		return nil, fmt.Errorf("%s: %w", name, errors.ErrEmptyFile)
	}
	return readings, nil
}

// parseScan handles file-per-sample layouts: each row is one wavelength
// point and the whole file is a single reading. The sample timestamp is
// the file name stem.
func parseScan(cr *csv.Reader, name string, t Type, withTransmittance bool) ([]Reading, error) {
	reading := Reading{
		Sensor:     t,
		Timestamp:  TimestampFromFile(name),
		SourceFile: filepath.Base(name),
	}
	if withTransmittance {
		reading.Transmittance = []float64{}
	}
	row := 1

	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.NewParse(name, err.Error())
		}
		row++

		cells := make([]float64, len(record))
		for i, cell := range record {
			v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
			if err != nil {
				col := "wavelength"
				if i == 1 {
					col = "absorbance"
				} else if i == 2 {
					col = "transmittance"
				}
				return nil, errors.NewNotNumeric(name, col, row)
			}
			cells[i] = v
		}

		reading.Channels = append(reading.Channels, cells[0])
		reading.Values = append(reading.Values, cells[1])
		if withTransmittance {
			reading.Transmittance = append(reading.Transmittance, cells[2])
		}
	}

	if len(reading.Values) == 0 {
		return nil, fmt.Errorf("%s: %w", name, errors.ErrEmptyFile)
	}
	if err := reading.Validate(); err != nil {
		return nil, err
	}

	return []Reading{reading}, nil
}

// TimestampFromFile derives a sample timestamp from a file name by
// stripping the directory and extension.
func TimestampFromFile(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
