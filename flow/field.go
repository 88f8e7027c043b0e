package flow

import (
	"github.com/pkg/errors"
	"gorgonia.org/tensor"
)

// Field is a dense flow field of shape [height, width, 2] holding one float32
// displacement vector (dx, dy) per cell.
//
// The field is backed by a gorgonia tensor so it can be handed to tensor code
// without copying; Data exposes the same backing slice for tight loops.
type Field struct {
	t      *tensor.Dense
	data   []float32
	height int
	width  int
}

// NewField allocates a zeroed field.
//
// Arguments:
//   - height: Number of cell rows, must be > 0.
//   - width: Number of cell columns, must be > 0.
//
// Returns:
//   - *Field: The allocated field.
//   - error: An error if either dimension is not positive.
func NewField(height, width int) (*Field, error) {
	if height <= 0 || width <= 0 {
		return nil, errors.Errorf("invalid flow field shape %dx%d", height, width)
	}
	data := make([]float32, height*width*2)
	return FieldFromTensor(tensor.New(tensor.WithShape(height, width, 2), tensor.WithBacking(data)))
}

// FieldFromTensor wraps an existing [h, w, 2] Float32 tensor without copying.
func FieldFromTensor(t *tensor.Dense) (*Field, error) {
	if t == nil {
		return nil, errors.New("nil tensor")
	}
	if t.Dtype() != tensor.Float32 {
		return nil, errors.Errorf("flow tensor must be Float32, got %v", t.Dtype())
	}
	shape := t.Shape()
	if len(shape) != 3 || shape[2] != 2 || shape[0] <= 0 || shape[1] <= 0 {
		return nil, errors.Errorf("flow tensor must have shape [h, w, 2], got %v", shape)
	}
	data, ok := t.Data().([]float32)
	if !ok || len(data) != shape[0]*shape[1]*2 {
		return nil, errors.Errorf("flow tensor backing does not match shape %v", shape)
	}
	return &Field{t: t, data: data, height: shape[0], width: shape[1]}, nil
}

// Shape returns the number of cell rows and columns.
func (f *Field) Shape() (height, width int) {
	return f.height, f.width
}

// Tensor returns the backing tensor. Mutating it mutates the field.
func (f *Field) Tensor() *tensor.Dense {
	return f.t
}

// Data returns the backing slice laid out as [y][x][dx, dy].
func (f *Field) Data() []float32 {
	return f.data
}

// At returns the vector stored at cell (x, y).
func (f *Field) At(x, y int) Vec2 {
	i := (y*f.width + x) * 2
	return Vec2{float64(f.data[i]), float64(f.data[i+1])}
}

// Set stores a vector at cell (x, y).
func (f *Field) Set(x, y int, v Vec2) {
	i := (y*f.width + x) * 2
	f.data[i] = float32(v[0])
	f.data[i+1] = float32(v[1])
}

// Zero resets every vector to (0, 0).
func (f *Field) Zero() {
	for i := range f.data {
		f.data[i] = 0
	}
}

// Integrate sums the vectors of the rectangle starting at cell (x0, y0) spanning h
// rows and w columns.
//
// The rectangle is cropped as a tensor view of extent [h, w, 2] and reduced over
// both spatial axes, leaving the (dx, dy) sums. Accumulation happens in float32.
func (f *Field) Integrate(x0, y0, w, h int) (Vec2, error) {
	if x0 < 0 || y0 < 0 || w <= 0 || h <= 0 || x0+w > f.width || y0+h > f.height {
		return Vec2{}, errors.Errorf("region (%d, %d) %dx%d outside %dx%d field", x0, y0, w, h, f.width, f.height)
	}

	v, err := f.t.Slice(tensor.S(y0, y0+h), tensor.S(x0, x0+w), nil)
	if err != nil {
		return Vec2{}, errors.Wrap(err, "failed to crop flow field")
	}
	crop, ok := v.Materialize().(*tensor.Dense)
	if !ok {
		return Vec2{}, errors.Errorf("unexpected flow crop type %T", v)
	}

	// Extent-1 axes are squeezed by Slice; every axis but the last is spatial.
	sum := crop
	if dims := crop.Dims(); dims > 1 {
		along := make([]int, dims-1)
		for i := range along {
			along[i] = i
		}
		if sum, err = crop.Sum(along...); err != nil {
			return Vec2{}, errors.Wrap(err, "failed to integrate flow field")
		}
	}

	dx, err := sum.At(0)
	if err != nil {
		return Vec2{}, errors.Wrap(err, "failed to read flow sum")
	}
	dy, err := sum.At(1)
	if err != nil {
		return Vec2{}, errors.Wrap(err, "failed to read flow sum")
	}
	return Vec2{float64(dx.(float32)), float64(dy.(float32))}, nil
}

// Mean returns the mean vector over the whole field.
func (f *Field) Mean() (Vec2, error) {
	sum, err := f.Integrate(0, 0, f.width, f.height)
	if err != nil {
		return Vec2{}, err
	}
	return sum.Div(float64(f.width * f.height)), nil
}
