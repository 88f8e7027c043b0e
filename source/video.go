package source

import (
	"context"
	"image"
	"io"

	"github.com/nvr-ai/go-motion/images"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gocv.io/x/gocv"
)

// Video yields grayscale frames decoded from a video file or capture device through
// OpenCV.
//
// Frames are resized so their longest side is at most Size. Decoding reuses native
// buffers; Close must be called to release them.
type Video struct {
	capture *gocv.VideoCapture
	mat     gocv.Mat
	resized gocv.Mat
	size    int
	logger  *zap.Logger
	frames  int
	pool    []*images.Frame
}

// OpenVideo opens a video file, stream URL or device id.
//
// Arguments:
//   - input: A path, URL or numeric device id as accepted by gocv.OpenVideoCapture.
//   - size: Longest side after resizing, 0 keeps the original size.
//   - logger: The logger, nil disables logging.
//
// Returns:
//   - *Video: The source. Always call Close() to release native memory.
//   - error: An error if the capture cannot be opened.
func OpenVideo(input string, size int, logger *zap.Logger) (*Video, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	capture, err := gocv.OpenVideoCapture(input)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open video %s", input)
	}
	if !capture.IsOpened() {
		capture.Close()
		return nil, errors.Errorf("video %s could not be opened", input)
	}
	return &Video{
		capture: capture,
		mat:     gocv.NewMat(),
		resized: gocv.NewMat(),
		size:    size,
		logger:  logger,
	}, nil
}

// Next decodes the next frame or returns io.EOF at the end of the stream.
func (v *Video) Next(ctx context.Context) (*images.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	// Read fails at the end of a file. Captures may deliver empty Mats while warming up.
	for {
		if ok := v.capture.Read(&v.mat); !ok {
			v.logger.Debug("video exhausted", zap.Int("frames", v.frames))
			return nil, io.EOF
		}
		if !v.mat.Empty() {
			break
		}
	}

	src := v.mat
	if dst, ok := fitSize(v.mat.Cols(), v.mat.Rows(), v.size); ok {
		gocv.Resize(v.mat, &v.resized, dst, 0, 0, gocv.InterpolationArea)
		src = v.resized
	}

	frame := v.buffer()
	if err := images.FrameFromMatInto(frame, src); err != nil {
		return nil, err
	}
	v.frames++
	return frame, nil
}

// Recycle makes a frame buffer available for the next decode.
func (v *Video) Recycle(frame *images.Frame) {
	if frame == nil || len(v.pool) >= maxPooled {
		return
	}
	v.pool = append(v.pool, frame)
}

// Close releases the capture and its buffers.
func (v *Video) Close() error {
	v.mat.Close()
	v.resized.Close()
	return v.capture.Close()
}

func (v *Video) buffer() *images.Frame {
	if n := len(v.pool); n > 0 {
		frame := v.pool[n-1]
		v.pool = v.pool[:n-1]
		return frame
	}
	return &images.Frame{}
}

// fitSize returns the dimensions scaling (w, h) so the longest side equals size,
// preserving the aspect ratio. ok is false when no resize is needed.
func fitSize(w, h, size int) (image.Point, bool) {
	if size <= 0 || (w <= size && h <= size) {
		return image.Point{}, false
	}
	if w >= h {
		return image.Point{X: size, Y: max(1, h*size/w)}, true
	}
	return image.Point{X: max(1, w*size/h), Y: size}, true
}
