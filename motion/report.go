package motion

import (
	"github.com/nvr-ai/go-motion/flow"
	"github.com/nvr-ai/go-motion/stats"
)

// Report is the result of one analysis run. Per-frame arrays hold one entry per
// frame transition, so a sequence of N frames yields N-1 entries.
type Report struct {
	// Frames is the number of frames consumed, including the baseline.
	Frames int `json:"frames"`
	// Angle is the heading of Dir per transition, in radians.
	Angle []float64 `json:"angle"`
	// Dir is the mean flow vector per transition.
	Dir []flow.Vec2 `json:"dir"`
	// Delta is the normalized mean frame difference per transition.
	Delta []float64 `json:"delta"`
	// Flow is the magnitude of Dir per transition.
	Flow []float64 `json:"flow"`
	// Regions holds the per-region results.
	Regions RegionReport `json:"regions"`
	// Temporal holds the aggregates over the whole sequence.
	Temporal Temporal `json:"temporal"`
}

// RegionReport holds per-region results, indexed [transition][region] with regions
// in row-major order.
type RegionReport struct {
	Dir        [][]flow.Vec2 `json:"dir"`
	Flow       [][]float64   `json:"flow"`
	MinMaxFlow [][2]float64  `json:"minMaxFlow"`
}

// Temporal holds sequence-level aggregates. All fields are nil when the sequence had
// a single frame.
type Temporal struct {
	// Angle is the heading of the mean direction.
	Angle *float64 `json:"angle,omitempty"`
	// Dir is the mean of the per-transition directions.
	Dir *flow.Vec2 `json:"dir,omitempty"`
	// Flow is the mean of the per-transition flow magnitudes.
	Flow *float64 `json:"flow,omitempty"`
	// Delta is the mean of the per-transition deltas.
	Delta *float64 `json:"delta,omitempty"`
	// MinMaxDelta is [min, max] of Delta.
	MinMaxDelta *[2]float64 `json:"minMaxDelta,omitempty"`
	// MinMaxFlow is [min, max] of Flow.
	MinMaxFlow *[2]float64 `json:"minMaxFlow,omitempty"`
}

// Defined reports whether the temporal aggregates hold values.
func (t Temporal) Defined() bool {
	return t.Dir != nil
}

func newReport() *Report {
	return &Report{
		Angle: []float64{},
		Dir:   []flow.Vec2{},
		Delta: []float64{},
		Flow:  []float64{},
		Regions: RegionReport{
			Dir:        [][]flow.Vec2{},
			Flow:       [][]float64{},
			MinMaxFlow: [][2]float64{},
		},
	}
}

// appendRegions copies the region vectors since the decomposition buffer is reused.
func (r *Report) appendRegions(dirs []flow.Vec2, energy []float64) {
	r.Regions.Dir = append(r.Regions.Dir, append([]flow.Vec2(nil), dirs...))
	r.Regions.Flow = append(r.Regions.Flow, append([]float64(nil), energy...))
}

// finish fills the temporal section from the aggregator.
func (r *Report) finish(agg *stats.Aggregator) {
	r.Regions.MinMaxFlow = agg.RegionMinMax()

	dir, ok := agg.Dir.Mean()
	if !ok {
		return
	}
	angle := dir.Heading()
	flowMean, _ := agg.Flow.Mean()
	deltaMean, _ := agg.Delta.Mean()
	minMaxDelta, _ := agg.Delta.MinMax()
	minMaxFlow, _ := agg.Flow.MinMax()

	r.Temporal = Temporal{
		Angle:       &angle,
		Dir:         &dir,
		Flow:        &flowMean,
		Delta:       &deltaMean,
		MinMaxDelta: &minMaxDelta,
		MinMaxFlow:  &minMaxFlow,
	}
}
