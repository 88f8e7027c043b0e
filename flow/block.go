package flow

import (
	"github.com/nvr-ai/go-motion/images"
)

// BlockMatcher estimates flow by exhaustive search: for every cell it compares the
// window around the cell in the previous frame with every window displaced by up to
// Displace pixels in the current frame and keeps the displacement with the lowest
// sum of absolute differences.
//
// Ties resolve to the shortest displacement, then to scan order, so uniform areas
// always produce a zero vector and results are deterministic.
type BlockMatcher struct {
	cfg    Config
	pre    *prefilter
	prev   *images.Frame
	raw    *Field
	smooth *temporal
}

// NewBlockMatcher creates a block matching estimator with the given baseline.
//
// Arguments:
//   - baseline: The first frame of the sequence. It is copied.
//   - cfg: The flow configuration, Displace sets the search radius.
//
// Returns:
//   - *BlockMatcher: The estimator.
//   - error: ErrInvalidConfig if the configuration or baseline is invalid.
func NewBlockMatcher(baseline *images.Frame, cfg Config) (*BlockMatcher, error) {
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

	return &BlockMatcher{cfg: cfg, pre: pre, prev: prev, raw: raw, smooth: smooth}, nil
}

// Update estimates the flow from the previous frame to frame and makes frame the new
// baseline.
func (bm *BlockMatcher) Update(frame *images.Frame) (*Result, error) {
	if err := images.CheckSameShape(bm.prev, frame); err != nil {
		return nil, err
	}
	frame = bm.pre.apply(frame)

	step := bm.cfg.WindowStep
	d := bm.cfg.Displace
	fh, fw := bm.raw.Shape()
	for fy := 0; fy < fh; fy++ {
		for fx := 0; fx < fw; fx++ {
			cx, cy := fx*step, fy*step
			best := bm.cost(frame, cx, cy, 0, 0)
			bestDX, bestDY, bestLen := 0, 0, 0
			// A perfect match at rest cannot be beaten.
			if best == 0 {
				bm.raw.Set(fx, fy, Vec2{})
				continue
			}
			for dy := -d; dy <= d; dy++ {
				for dx := -d; dx <= d; dx++ {
					l := dx*dx + dy*dy
					if l == 0 {
						continue
					}
					c := bm.cost(frame, cx, cy, dx, dy)
					if c < best || (c == best && l < bestLen) {
						best, bestDX, bestDY, bestLen = c, dx, dy, l
					}
				}
			}
			bm.raw.Set(fx, fy, Vec2{float64(bestDX), float64(bestDY)})
		}
	}

	copy(bm.prev.Pix, frame.Pix)
	return bm.smooth.apply(bm.raw)
}

// cost returns the SAD between the window at (cx, cy) in the previous frame and the
// window at (cx+dx, cy+dy) in curr. Out-of-range samples are clamped to the border.
func (bm *BlockMatcher) cost(curr *images.Frame, cx, cy, dx, dy int) int {
	lo := -(bm.cfg.WindowSize / 2)
	hi := lo + bm.cfg.WindowSize
	sum := 0
	for wy := lo; wy < hi; wy++ {
		for wx := lo; wx < hi; wx++ {
			a := int(bm.prev.Sample(cx+wx, cy+wy, images.ClampEdgeMode))
			b := int(curr.Sample(cx+wx+dx, cy+wy+dy, images.ClampEdgeMode))
			if a > b {
				sum += a - b
			} else {
				sum += b - a
			}
		}
	}
	return sum
}
