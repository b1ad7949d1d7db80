package plot

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aa08453/spectra/internal/sensor"
)

func TestRender(t *testing.T) {
	readings := []*sensor.Reading{
		{
			Sensor:    sensor.TypeAS7341,
			Timestamp: "2024-01-01T10:00",
			Channels:  []float64{415, 445, 480, 515, 555, 590, 630, 680, 850, 940},
			Values:    []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10},
		},
		{
			Sensor:    sensor.TypeAS7341,
			Timestamp: "2024-01-01T10:05",
			Channels:  []float64{415, 445, 480, 515, 555, 590, 630, 680, 850, 940},
			Values:    []float64{2, 4, 6, 8, 10, 12, 14, 16, 18, 20},
		},
	}

	path := filepath.Join(t.TempDir(), "chart.png")
	if err := Render(readings, path, DefaultOptions()); err != nil {
		t.Fatalf("Render: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("chart not written: %v", err)
	}
	if info.Size() == 0 {
		t.Error("chart file is empty")
	}
}

func TestRenderNoReadings(t *testing.T) {
	err := Render(nil, filepath.Join(t.TempDir(), "chart.png"), DefaultOptions())
	if err == nil {
		t.Error("expected error for empty reading list")
	}
}
