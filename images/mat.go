package images

import (
	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// FrameFromMat converts an 8-bit OpenCV matrix into a grayscale frame.
//
// Single channel matrices are copied as-is, 3 and 4 channel matrices are treated as
// BGR / BGRA (the layout produced by gocv.VideoCapture and gocv.IMRead).
//
// Arguments:
//   - mat: The source matrix.
//
// Returns:
//   - *Frame: A new frame.
//   - error: An error if the matrix is empty or has an unsupported layout.
func FrameFromMat(mat gocv.Mat) (*Frame, error) {
	dst := &Frame{}
	if err := FrameFromMatInto(dst, mat); err != nil {
		return nil, err
	}
	return dst, nil
}

// FrameFromMatInto converts mat into dst, reusing dst's backing array when possible.
func FrameFromMatInto(dst *Frame, mat gocv.Mat) error {
	if mat.Empty() {
		return errors.New("cannot convert empty Mat to frame")
	}

	gray := mat
	switch mat.Type() {
	case gocv.MatTypeCV8UC1:
	case gocv.MatTypeCV8UC3, gocv.MatTypeCV8UC4:
		gray = gocv.NewMat()
		defer gray.Close()
		code := gocv.ColorBGRToGray
		if mat.Type() == gocv.MatTypeCV8UC4 {
			code = gocv.ColorBGRAToGray
		}
		gocv.CvtColor(mat, &gray, code)
	default:
		return errors.Errorf("unsupported Mat type %v", mat.Type())
	}

	data, err := gray.DataPtrUint8()
	if err != nil {
		return errors.Wrap(err, "failed to read Mat data")
	}
	rows, cols := gray.Rows(), gray.Cols()
	if len(data) < rows*cols {
		return errors.Errorf("Mat holds %d samples, expected %d", len(data), rows*cols)
	}

	dst.Reshape(cols, rows)
	copy(dst.Pix, data[:rows*cols])
	return nil
}

// ToMat copies the frame into a new single channel 8-bit matrix. The caller owns the
// returned Mat and must Close it.
func (f *Frame) ToMat() (gocv.Mat, error) {
	mat, err := gocv.NewMatFromBytes(f.Height, f.Width, gocv.MatTypeCV8UC1, f.Pix)
	if err != nil {
		return gocv.NewMat(), errors.Wrap(err, "failed to create Mat from frame")
	}
	// NewMatFromBytes shares the Go slice; clone so the Mat outlives the frame.
	clone := mat.Clone()
	mat.Close()
	return clone, nil
}
