package stats

import (
	"github.com/nvr-ai/go-motion/flow"
	"github.com/pkg/errors"
)

// Sample is everything one frame transition contributes to the aggregate.
type Sample struct {
	// Delta is the normalized mean absolute difference to the previous frame.
	Delta float64
	// Dir is the mean flow vector of the transition.
	Dir flow.Vec2
	// Flow is the magnitude of Dir.
	Flow float64
	// RegionFlow holds the energy of each region, row-major.
	RegionFlow []float64
}

// Aggregator maintains the sequence-level statistics of a motion analysis run.
// Each metric is folded independently of the others.
type Aggregator struct {
	Delta   RunningStat
	Flow    RunningStat
	Dir     VecMean
	Regions []RunningStat
}

// NewAggregator creates an aggregator for the given number of regions.
func NewAggregator(regions int) *Aggregator {
	return &Aggregator{Regions: make([]RunningStat, regions)}
}

// Fold adds one frame transition.
//
// Arguments:
//   - s: The sample. len(s.RegionFlow) must equal the region count.
//
// Returns:
//   - error: An error if the region count differs; nothing is folded in that case.
func (a *Aggregator) Fold(s Sample) error {
	if len(s.RegionFlow) != len(a.Regions) {
		return errors.Errorf("expected %d region samples, got %d", len(a.Regions), len(s.RegionFlow))
	}
	a.Delta.Fold(s.Delta)
	a.Flow.Fold(s.Flow)
	a.Dir.Fold(s.Dir)
	for i, e := range s.RegionFlow {
		a.Regions[i].Fold(e)
	}
	return nil
}

// Count returns the number of folded samples.
func (a *Aggregator) Count() int {
	return a.Delta.Count
}

// RegionMinMax returns [min, max] per region, or an empty slice when nothing was folded.
func (a *Aggregator) RegionMinMax() [][2]float64 {
	out := make([][2]float64, 0, len(a.Regions))
	for _, r := range a.Regions {
		mm, ok := r.MinMax()
		if !ok {
			return [][2]float64{}
		}
		out = append(out, mm)
	}
	return out
}
