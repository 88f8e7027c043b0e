package source

import (
	"context"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"sort"

	"github.com/nvr-ai/go-motion/images"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// maxPooled is the number of recycled buffers kept; a run holds at most two frames.
const maxPooled = 2

// Files yields frames decoded from a sequence of still images.
//
// Paths are processed in lexical order. Each image is optionally resized so its
// longest side is at most Size and converted to grayscale. When Release is called the
// file behind the last yielded frame is deleted.
type Files struct {
	paths  []string
	size   int
	logger *zap.Logger
	next   int
	last   string
	pool   []*images.Frame
}

// NewFiles creates an image sequence source.
//
// Arguments:
//   - paths: Image files; they are sorted, the slice is not modified.
//   - size: Longest side after resizing, 0 keeps the original size.
//   - logger: The logger, nil disables logging.
//
// Returns:
//   - *Files: The source.
//   - error: ErrNoFrames if paths is empty.
func NewFiles(paths []string, size int, logger *zap.Logger) (*Files, error) {
	if len(paths) == 0 {
		return nil, ErrNoFrames
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	sorted := append([]string(nil), paths...)
	sort.Strings(sorted)
	return &Files{paths: sorted, size: size, logger: logger}, nil
}

// Next decodes the next image or returns io.EOF.
func (f *Files) Next(ctx context.Context) (*images.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.next >= len(f.paths) {
		return nil, io.EOF
	}
	path := f.paths[f.next]
	f.next++

	img, err := decode(path)
	if err != nil {
		f.logger.Debug("failed to decode frame", zap.String("path", path), zap.Error(err))
		return nil, err
	}

	frame := f.buffer()
	images.FrameFromImageInto(frame, images.Fit(img, f.size))
	f.last = path
	return frame, nil
}

// Release deletes the file behind the frame yielded last.
func (f *Files) Release() error {
	if f.last == "" {
		return nil
	}
	path := f.last
	f.last = ""
	if err := os.Remove(path); err != nil {
		return errors.Wrapf(err, "failed to delete %s", path)
	}
	f.logger.Debug("deleted consumed frame", zap.String("path", path))
	return nil
}

// Recycle makes a frame buffer available for the next decode.
func (f *Files) Recycle(frame *images.Frame) {
	if frame == nil || len(f.pool) >= maxPooled {
		return
	}
	f.pool = append(f.pool, frame)
}

// Remaining returns the number of images not yet decoded.
func (f *Files) Remaining() int {
	return len(f.paths) - f.next
}

func (f *Files) buffer() *images.Frame {
	if n := len(f.pool); n > 0 {
		frame := f.pool[n-1]
		f.pool = f.pool[:n-1]
		return frame
	}
	return &images.Frame{}
}

func decode(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s", path)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to decode %s", path)
	}
	return img, nil
}
