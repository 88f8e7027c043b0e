package report

import (
	"sort"

	"github.com/nvr-ai/go-motion/motion"
	"gonum.org/v1/gonum/stat"
)

// Series summarizes one per-frame signal.
type Series struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stdDev"`
	Median float64 `json:"median"`
	P90    float64 `json:"p90"`
}

// Summary holds descriptive statistics beyond the streaming aggregates, for ranking
// artworks against each other.
type Summary struct {
	Transitions int    `json:"transitions"`
	Delta       Series `json:"delta"`
	Flow        Series `json:"flow"`
	// Busiest is the row-major index of the region with the highest peak flow, -1 when
	// there are no transitions.
	Busiest int `json:"busiest"`
}

// Summarize computes a Summary of r. Reports without transitions yield zero series.
func Summarize(r *motion.Report) Summary {
	s := Summary{Transitions: len(r.Delta), Busiest: -1}
	if len(r.Delta) == 0 {
		return s
	}
	s.Delta = summarize(r.Delta)
	s.Flow = summarize(r.Flow)

	best := -1.0
	for i, mm := range r.Regions.MinMaxFlow {
		if mm[1] > best {
			best, s.Busiest = mm[1], i
		}
	}
	return s
}

func summarize(x []float64) Series {
	sorted := append([]float64(nil), x...)
	sort.Float64s(sorted)
	mean, std := stat.MeanStdDev(x, nil)
	if len(x) < 2 {
		std = 0
	}
	return Series{
		Mean:   mean,
		StdDev: std,
		Median: stat.Quantile(0.5, stat.Empirical, sorted, nil),
		P90:    stat.Quantile(0.9, stat.Empirical, sorted, nil),
	}
}
