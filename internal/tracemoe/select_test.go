package tracemoe

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func similarities(rs []Result) []float64 {
	out := make([]float64, 0, len(rs))
	for _, r := range rs {
		out = append(out, r.Similarity)
	}
	return out
}

func results(sims ...float64) []Result {
	rs := make([]Result, 0, len(sims))
	for _, s := range sims {
		rs = append(rs, Result{Similarity: s})
	}
	return rs
}

func TestSelect(t *testing.T) {
	tests := []struct {
		name string
		in   []float64
		want []float64
	}{
		{"keeps confident matches", []float64{0.95, 0.90, 0.80, 0.60}, []float64{0.95, 0.90}},
		{"falls back to first three", []float64{0.80, 0.70, 0.60}, []float64{0.80, 0.70, 0.60}},
		{"falls back truncates", []float64{0.5, 0.4, 0.3, 0.2, 0.1}, []float64{0.5, 0.4, 0.3}},
		{"threshold is exclusive", []float64{0.87, 0.86}, []float64{0.87, 0.86}},
		{"empty", nil, []float64{}},
		{"keeps upstream order", []float64{0.88, 0.99, 0.10}, []float64{0.88, 0.99}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, similarities(Select(results(tt.in...))))
		})
	}
}
