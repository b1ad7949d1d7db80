package sensor

import (
	"math"

	"github.com/DataDog/sketches-go/ddsketch"
)

// Stats holds summary statistics for one reading's values. They are
// computed once at ingestion time and stored alongside the entry so the
// store can be inspected without reloading the full series.
type Stats struct {
	Count int64
	Min   float64
	Max   float64
	Mean  float64
	P50   float64
	P95   float64
}

// Summarize computes summary statistics over values. Quantiles come from
// a DDSketch with the given relative accuracy; min, max and mean are
// exact.
func Summarize(values []float64, accuracy float64) Stats {
	if len(values) == 0 {
		return Stats{}
	}

	stats := Stats{
		Min: math.MaxFloat64,
		Max: -math.MaxFloat64,
	}

	sketch, err := ddsketch.NewDefaultDDSketch(accuracy)
	if err != nil {
		sketch = nil
	}

	var sum float64
	for _, v := range values {
		stats.Count++
		sum += v

		if v < stats.Min {
			stats.Min = v
		}
		if v > stats.Max {
			stats.Max = v
		}

		if sketch != nil {
			sketch.Add(v)
		}
	}

	stats.Mean = sum / float64(stats.Count)

	if sketch != nil {
		if p50, err := sketch.GetValueAtQuantile(0.50); err == nil {
			stats.P50 = p50
		}
		if p95, err := sketch.GetValueAtQuantile(0.95); err == nil {
			stats.P95 = p95
		}
	}

	return stats
}
