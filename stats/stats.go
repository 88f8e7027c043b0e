// Package stats - One-pass, constant-memory statistics for streaming motion signals.
//
// Every statistic is plain data mutated only through Fold, so an aggregate over a
// sequence of any length costs a fixed number of fields per metric.
package stats

import (
	"math"

	"github.com/nvr-ai/go-motion/flow"
)

// RunningStat holds the sufficient statistics of one scalar signal.
type RunningStat struct {
	Count int     `json:"count"`
	Sum   float64 `json:"sum"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
}

// Fold adds one sample.
func (s *RunningStat) Fold(x float64) {
	if s.Count == 0 {
		s.Min, s.Max = x, x
	} else {
		s.Min = math.Min(s.Min, x)
		s.Max = math.Max(s.Max, x)
	}
	s.Count++
	s.Sum += x
}

// Mean returns Sum/Count; ok is false when nothing was folded.
func (s RunningStat) Mean() (mean float64, ok bool) {
	if s.Count == 0 {
		return 0, false
	}
	return s.Sum / float64(s.Count), true
}

// MinMax returns [Min, Max]; ok is false when nothing was folded.
func (s RunningStat) MinMax() (bounds [2]float64, ok bool) {
	if s.Count == 0 {
		return bounds, false
	}
	return [2]float64{s.Min, s.Max}, true
}

// VecMean accumulates the running mean of a vector signal.
//
// Only the component sums are stored. The angle is derived from the mean on read,
// which avoids averaging angles across the ±π wraparound.
type VecMean struct {
	Count int       `json:"count"`
	Sum   flow.Vec2 `json:"sum"`
}

// Fold adds one vector.
func (m *VecMean) Fold(v flow.Vec2) {
	m.Count++
	m.Sum = m.Sum.Add(v)
}

// Mean returns the component-wise mean; ok is false when nothing was folded.
func (m VecMean) Mean() (mean flow.Vec2, ok bool) {
	if m.Count == 0 {
		return mean, false
	}
	return m.Sum.Div(float64(m.Count)), true
}

// Angle returns atan2(mean.y, mean.x); ok is false when nothing was folded.
func (m VecMean) Angle() (angle float64, ok bool) {
	mean, ok := m.Mean()
	if !ok {
		return 0, false
	}
	return mean.Heading(), true
}
