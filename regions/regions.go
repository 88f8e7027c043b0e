// Package regions - Spatial decomposition of a flow field into an R×R grid of regions.
//
// Each region is a non-overlapping rectangle of field cells. Region dimensions are
// floor(fieldHeight/R) by floor(fieldWidth/R); the remainder rows at the bottom and
// columns at the right belong to no region.
//
//	┌────┬────┬────┬─┐
//	│ 0  │ 1  │ 2  │ │
//	├────┼────┼────┤ │  R = 3, regions indexed row-major (idx = y*R + x)
//	│ 3  │ 4  │ 5  │ │
//	├────┼────┼────┤ │
//	│ 6  │ 7  │ 8  │ │
//	├────┴────┴────┘ │
//	└────────────────┘  truncated remainder
package regions

import (
	"github.com/nvr-ai/go-motion/flow"
	"github.com/pkg/errors"
)

// ErrInvalidRegionCount is returned when the grid size is not positive.
var ErrInvalidRegionCount = errors.New("region count must be >= 1")

// Grid describes the partition of a field into R×R regions.
type Grid struct {
	// R is the number of regions along each axis.
	R int `json:"r"`
	// RegionHeight is the number of field rows per region.
	RegionHeight int `json:"regionHeight"`
	// RegionWidth is the number of field columns per region.
	RegionWidth int `json:"regionWidth"`
}

// NewGrid computes the grid for a field of the given shape.
//
// Arguments:
//   - fieldHeight: Number of field rows.
//   - fieldWidth: Number of field columns.
//   - r: Number of regions along each axis, must be >= 1.
//
// Returns:
//   - Grid: The partition.
//   - error: ErrInvalidRegionCount if r <= 0.
func NewGrid(fieldHeight, fieldWidth, r int) (Grid, error) {
	if r <= 0 {
		return Grid{}, errors.Wrapf(ErrInvalidRegionCount, "got %d", r)
	}
	return Grid{R: r, RegionHeight: fieldHeight / r, RegionWidth: fieldWidth / r}, nil
}

// Len returns the number of regions, R*R.
func (g Grid) Len() int {
	return g.R * g.R
}

// Area returns the number of field cells per region.
func (g Grid) Area() int {
	return g.RegionHeight * g.RegionWidth
}

// Origin returns the top-left field cell of the region at idx.
func (g Grid) Origin(idx int) (x, y int) {
	return (idx % g.R) * g.RegionWidth, (idx / g.R) * g.RegionHeight
}

// Decomposition is the per-region reduction of one field.
type Decomposition struct {
	// Directions holds the mean vector of each region, row-major.
	Directions []flow.Vec2 `json:"dir"`
	// Energy holds the magnitude of each region's mean vector.
	Energy []float64 `json:"flow"`
}

// Decompose reduces field to the mean vector and its magnitude per region.
//
// Arguments:
//   - field: The flow field.
//   - r: Number of regions along each axis.
//
// Returns:
//   - *Decomposition: R*R directions and energies.
//   - error: ErrInvalidRegionCount if r <= 0.
//
// @example
// d, err := regions.Decompose(res.Field, 6)
// fmt.Println(d.Energy[0])
func Decompose(field *flow.Field, r int) (*Decomposition, error) {
	d := &Decomposition{}
	if err := DecomposeInto(d, field, r); err != nil {
		return nil, err
	}
	return d, nil
}

// DecomposeInto writes the decomposition of field into d, reusing its slices when
// they have enough capacity.
func DecomposeInto(d *Decomposition, field *flow.Field, r int) error {
	if field == nil {
		return errors.New("nil flow field")
	}
	h, w := field.Shape()
	grid, err := NewGrid(h, w, r)
	if err != nil {
		return err
	}

	n := grid.Len()
	if cap(d.Directions) < n {
		d.Directions = make([]flow.Vec2, n)
	}
	if cap(d.Energy) < n {
		d.Energy = make([]float64, n)
	}
	d.Directions = d.Directions[:n]
	d.Energy = d.Energy[:n]

	area := grid.Area()
	for idx := 0; idx < n; idx++ {
		// Regions without cells have no motion.
		if area == 0 {
			d.Directions[idx] = flow.Vec2{}
			d.Energy[idx] = 0
			continue
		}
		x0, y0 := grid.Origin(idx)
		sum, err := field.Integrate(x0, y0, grid.RegionWidth, grid.RegionHeight)
		if err != nil {
			return errors.Wrapf(err, "region %d", idx)
		}
		mean := sum.Div(float64(area))
		d.Directions[idx] = mean
		d.Energy[idx] = mean.Mag()
	}
	return nil
}
