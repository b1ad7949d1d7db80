// Package sensor defines the supported sensor types, their CSV schemas,
// and the normalized reading record produced by ingestion.
package sensor

import (
	"fmt"
	"strings"

	"github.com/aa08453/spectra/internal/errors"
)

// Type identifies one of the supported sensor sources.
type Type int

const (
	// TypeRGB is a three-channel RGB color sensor.
	TypeRGB Type = iota
	// TypeSpectrophotometer is a scanning spectrophotometer producing one
	// absorbance value per wavelength.
	TypeSpectrophotometer
	// TypeAS7341 is the AS7341 10-channel color sensor.
	TypeAS7341
)

// String returns a human-readable representation of the Type.
func (t Type) String() string {
	switch t {
	case TypeRGB:
		return "rgb"
	case TypeSpectrophotometer:
		return "spectrophotometer"
	case TypeAS7341:
		return "as7341"
	default:
		return "unknown"
	}
}

// Label returns the display name used in commit messages and legends.
func (t Type) Label() string {
	switch t {
	case TypeRGB:
		return "RGB Sensor"
	case TypeSpectrophotometer:
		return "Spectrophotometer"
	case TypeAS7341:
		return "AS7341 Sensor"
	default:
		return "Unknown Source"
	}
}

// ParseType parses a sensor type from its name. The numeric aliases
// "1", "2", "3" are accepted for compatibility with the original
// prompt-driven workflow.
func ParseType(s string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "rgb", "1":
		return TypeRGB, nil
	case "spectrophotometer", "spectro", "2":
		return TypeSpectrophotometer, nil
	case "as7341", "3":
		return TypeAS7341, nil
	default:
		return 0, fmt.Errorf("%q: %w", s, errors.ErrInvalidSensorType)
	}
}

// Types lists all supported sensor types in declaration order.
func Types() []Type {
	return []Type{TypeRGB, TypeSpectrophotometer, TypeAS7341}
}

// Layout describes how a sensor's CSV maps onto readings.
type Layout int

const (
	// LayoutRowPerSample means every CSV row is one complete reading,
	// with the first column holding the sample timestamp.
	LayoutRowPerSample Layout = iota
	// LayoutFilePerSample means the whole CSV file is one reading, with
	// one channel per row; the timestamp is derived from the file name.
	LayoutFilePerSample
)

// Schema describes the expected CSV column layout for one sensor type.
// The set of schemas is closed: schema lookups replace per-type branching
// in the parser.
type Schema struct {
	// Columns is the exact required header.
	Columns []string

	// Optional lists columns that may follow the required header.
	Optional []string

	// Layout selects row-per-sample or file-per-sample parsing.
	Layout Layout

	// Wavelengths holds the fixed channel labels in nm for
	// row-per-sample sensors, aligned with the value columns.
	Wavelengths []float64
}

// ChannelCount returns the number of value channels for row-per-sample
// schemas, or 0 when the channel count is data-dependent.
func (s Schema) ChannelCount() int {
	return len(s.Wavelengths)
}

// as7341Wavelengths are the nominal band centers of the AS7341 channels,
// with CLEAR and NIR mapped to 850 and 940 nm.
var as7341Wavelengths = []float64{415, 445, 480, 515, 555, 590, 630, 680, 850, 940}

// rgbWavelengths are the nominal peak wavelengths of the RGB channels.
var rgbWavelengths = []float64{630, 532, 465}

// schemas is the closed set of per-sensor schema descriptors.
var schemas = map[Type]Schema{
	TypeRGB: {
		Columns:     []string{"time", "red", "green", "blue"},
		Layout:      LayoutRowPerSample,
		Wavelengths: rgbWavelengths,
	},
	TypeSpectrophotometer: {
		Columns:  []string{"wavelength", "absorbance"},
		Optional: []string{"transmittance"},
		Layout:   LayoutFilePerSample,
	},
	TypeAS7341: {
		Columns: []string{
			"time",
			"415nm_F1", "445nm_F2", "480nm_F3", "515nm_F4",
			"555nm_F5", "590nm_F6", "630nm_F7", "680nm_F8",
			"CLEAR", "NIR",
		},
		Layout:      LayoutRowPerSample,
		Wavelengths: as7341Wavelengths,
	},
}

// SchemaFor returns the CSV schema for a sensor type.
func SchemaFor(t Type) (Schema, error) {
	s, ok := schemas[t]
	if !ok {
		return Schema{}, fmt.Errorf("%v: %w", t, errors.ErrInvalidSensorType)
	}
	return s, nil
}
