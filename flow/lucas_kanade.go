package flow

import (
	"github.com/chewxy/math32"
	"github.com/nvr-ai/go-motion/images"
)

// minDeterminant is the smallest structure tensor determinant for which a window
// is considered textured enough to solve for a displacement.
const minDeterminant = 1e-6

// LucasKanade estimates dense flow by solving the brightness constancy equation
// Ix*u + Iy*v + It = 0 in least squares over a square window around every cell.
//
// Intensities are normalized to [0, 1]. Spatial gradients are central differences of
// the average of both frames, the temporal gradient is curr - prev. Windows without
// texture (uniform areas) yield a zero vector.
type LucasKanade struct {
	cfg    Config
	pre    *prefilter
	prev   *images.Frame
	gx     []float32
	gy     []float32
	gt     []float32
	raw    *Field
	smooth *temporal
}

// NewLucasKanade creates a gradient based estimator with the given baseline.
//
// Arguments:
//   - baseline: The first frame of the sequence. It is copied.
//   - cfg: The flow configuration.
//
// Returns:
//   - *LucasKanade: The estimator.
//   - error: ErrInvalidConfig if the configuration or baseline is invalid.
func NewLucasKanade(baseline *images.Frame, cfg Config) (*LucasKanade, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	pre := newPrefilter(cfg)
	prev, err := baselineCopy(baseline, pre)
	if err != nil {
		return nil, err
	}

	fh, fw := cfg.FieldShape(prev.Width, prev.Height)
	raw, err := NewField(fh, fw)
	if err != nil {
		return nil, err
	}
	smooth, err := newTemporal(cfg, fh, fw)
	if err != nil {
		return nil, err
	}

	n := prev.Width * prev.Height
	return &LucasKanade{
		cfg:    cfg,
		pre:    pre,
		prev:   prev,
		gx:     make([]float32, n),
		gy:     make([]float32, n),
		gt:     make([]float32, n),
		raw:    raw,
		smooth: smooth,
	}, nil
}

// Update estimates the flow from the previous frame to frame and makes frame the new
// baseline.
func (lk *LucasKanade) Update(frame *images.Frame) (*Result, error) {
	if err := images.CheckSameShape(lk.prev, frame); err != nil {
		return nil, err
	}
	frame = lk.pre.apply(frame)

	lk.gradients(frame)
	lk.solve()
	copy(lk.prev.Pix, frame.Pix)
	return lk.smooth.apply(lk.raw)
}

// gradients fills gx, gy, gt for every pixel.
func (lk *LucasKanade) gradients(curr *images.Frame) {
	const norm = 1.0 / images.MaxIntensity
	w, h := curr.Width, curr.Height
	prev := lk.prev

	avg := func(x, y int) float32 {
		x = images.MapCoord(x, w, images.ClampEdgeMode)
		y = images.MapCoord(y, h, images.ClampEdgeMode)
		i := y*w + x
		return (float32(prev.Pix[i]) + float32(curr.Pix[i])) * 0.5 * norm
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*w + x
			lk.gx[i] = (avg(x+1, y) - avg(x-1, y)) * 0.5
			lk.gy[i] = (avg(x, y+1) - avg(x, y-1)) * 0.5
			lk.gt[i] = (float32(curr.Pix[i]) - float32(prev.Pix[i])) * norm
		}
	}
}

// solve computes the raw field from the gradient buffers.
func (lk *LucasKanade) solve() {
	w, h := lk.prev.Width, lk.prev.Height
	step := lk.cfg.WindowStep
	lo := -(lk.cfg.WindowSize / 2)
	hi := lo + lk.cfg.WindowSize
	fh, fw := lk.raw.Shape()

	for fy := 0; fy < fh; fy++ {
		cy := fy * step
		for fx := 0; fx < fw; fx++ {
			cx := fx * step

			var ixx, iyy, ixy, ixt, iyt float32
			for wy := lo; wy < hi; wy++ {
				y := cy + wy
				if y < 0 || y >= h {
					continue
				}
				for wx := lo; wx < hi; wx++ {
					x := cx + wx
					if x < 0 || x >= w {
						continue
					}
					i := y*w + x
					gx, gy, gt := lk.gx[i], lk.gy[i], lk.gt[i]
					ixx += gx * gx
					iyy += gy * gy
					ixy += gx * gy
					ixt += gx * gt
					iyt += gy * gt
				}
			}

			var v Vec2
			det := ixx*iyy - ixy*ixy
			if math32.Abs(det) >= minDeterminant {
				v[0] = float64((ixy*iyt - iyy*ixt) / det)
				v[1] = float64((ixy*ixt - ixx*iyt) / det)
			}
			lk.raw.Set(fx, fy, v)
		}
	}
}
