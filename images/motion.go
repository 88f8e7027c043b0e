// Package images - This file contains the frame differencing used by the motion
// analysis pipeline.
//
// The delta of two frames is the per-pixel absolute difference, amplified and
// clamped back into the GRAY8 range:
//
//	out[i] = clamp(|curr[i] - prev[i]| * amp, 0, 255)
//
// The mean of the delta image divided by MaxIntensity yields a normalized score in
// [0, 1] that describes how much the raw pixels changed between two frames.
package images

import (
	"github.com/pkg/errors"
)

// ErrNegativeAmplitude is returned when a delta is requested with amp < 0.
var ErrNegativeAmplitude = errors.New("delta amplitude must not be negative")

// Delta computes the amplified absolute difference between two frames.
//
// Arguments:
//   - prev: The earlier frame.
//   - curr: The later frame, must have the same dimensions as prev.
//   - amp: Amplification factor applied before clamping (1 for none).
//
// Returns:
//   - *Frame: A new frame holding the clamped differences.
//   - error: ErrDimensionMismatch or ErrNegativeAmplitude.
//
// @example
// diff, err := Delta(prev, curr, 1)
//
//	if err != nil {
//	    return err
//	}
func Delta(prev, curr *Frame, amp float64) (*Frame, error) {
	dst := NewFrame(curr.Width, curr.Height)
	if err := DeltaInto(dst, prev, curr, amp); err != nil {
		return nil, err
	}
	return dst, nil
}

// DeltaInto writes the delta of prev and curr into dst, reshaping dst when needed.
//
// Arguments:
//   - dst: Destination frame, reused across calls to avoid allocations.
//   - prev: The earlier frame.
//   - curr: The later frame.
//   - amp: Amplification factor.
//
// Returns:
//   - error: ErrDimensionMismatch or ErrNegativeAmplitude.
func DeltaInto(dst, prev, curr *Frame, amp float64) error {
	if amp < 0 {
		return errors.Wrapf(ErrNegativeAmplitude, "amp=%v", amp)
	}
	if err := CheckSameShape(prev, curr); err != nil {
		return err
	}
	if !dst.SameShape(curr) {
		dst.Reshape(curr.Width, curr.Height)
	}

	a, b, out := prev.Pix, curr.Pix, dst.Pix
	// Unit amplitude needs no float math and cannot exceed the range.
	if amp == 1 {
		for i := range b {
			out[i] = absDiff(a[i], b[i])
		}
		return nil
	}
	for i := range b {
		out[i] = uint8(Clamp(float64(absDiff(a[i], b[i]))*amp, 0, MaxIntensity))
	}
	return nil
}

// NormalizedDelta returns mean(Delta(prev, curr, amp)) / MaxIntensity without
// materializing the delta frame.
//
// Arguments:
//   - prev: The earlier frame.
//   - curr: The later frame.
//   - amp: Amplification factor.
//
// Returns:
//   - float64: A value in [0, 1].
//   - error: ErrDimensionMismatch or ErrNegativeAmplitude.
func NormalizedDelta(prev, curr *Frame, amp float64) (float64, error) {
	if amp < 0 {
		return 0, errors.Wrapf(ErrNegativeAmplitude, "amp=%v", amp)
	}
	if err := CheckSameShape(prev, curr); err != nil {
		return 0, err
	}
	if len(curr.Pix) == 0 {
		return 0, nil
	}

	var sum uint64
	a, b := prev.Pix, curr.Pix
	if amp == 1 {
		for i := range b {
			sum += uint64(absDiff(a[i], b[i]))
		}
	} else {
		for i := range b {
			sum += uint64(uint8(Clamp(float64(absDiff(a[i], b[i]))*amp, 0, MaxIntensity)))
		}
	}
	return float64(sum) / float64(len(b)) / MaxIntensity, nil
}

func absDiff(a, b uint8) uint8 {
	if a > b {
		return a - b
	}
	return b - a
}
