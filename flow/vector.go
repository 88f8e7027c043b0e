// Package flow - Dense optical flow fields and the estimators that produce them.
//
// An Estimator is stateful: it is constructed with a baseline frame and every Update
// compares the new frame against the one it saw last. The returned Field is owned by
// the estimator and is only valid until the next Update, so at most one field buffer is
// live per estimator.
//
// Pipeline Overview:
//
// ┌──────────────┐      ┌────────────────────────────┐
// │ Baseline     │ ───▶ │ Estimator (prev buffer)    │
// └──────────────┘      └──────┬─────────────────────┘
// ┌──────────────┐      ┌────────────────────────────┐
// │ Next frame   │ ───▶ │ Raw field (per window)     │
// └──────────────┘      └──────┬─────────────────────┘
// ┌────────────────────────────────────────────────┐
// │ Threshold + temporal smoothing (Config.Smooth) │
// └──────┬─────────────────────────────────────────┘
// ┌────────────────────────────┐
// │ Result{Field, Dir}         │
// └────────────────────────────┘
package flow

import "math"

// Vec2 is a 2D vector, serialized as [x, y].
type Vec2 [2]float64

// X returns the horizontal component.
func (v Vec2) X() float64 { return v[0] }

// Y returns the vertical component.
func (v Vec2) Y() float64 { return v[1] }

// Add returns v + o.
func (v Vec2) Add(o Vec2) Vec2 { return Vec2{v[0] + o[0], v[1] + o[1]} }

// Sub returns v - o.
func (v Vec2) Sub(o Vec2) Vec2 { return Vec2{v[0] - o[0], v[1] - o[1]} }

// Scale returns v * s.
func (v Vec2) Scale(s float64) Vec2 { return Vec2{v[0] * s, v[1] * s} }

// Div returns v / s.
func (v Vec2) Div(s float64) Vec2 { return Vec2{v[0] / s, v[1] / s} }

// Mix linearly interpolates from v towards o by t.
func (v Vec2) Mix(o Vec2, t float64) Vec2 {
	return Vec2{v[0] + (o[0]-v[0])*t, v[1] + (o[1]-v[1])*t}
}

// Mag returns the euclidean length.
func (v Vec2) Mag() float64 { return math.Hypot(v[0], v[1]) }

// Heading returns the angle of the vector in radians, atan2(y, x).
func (v Vec2) Heading() float64 { return math.Atan2(v[1], v[0]) }
