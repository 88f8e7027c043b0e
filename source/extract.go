package source

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/nvr-ai/go-motion/images"
	"github.com/nvr-ai/go-motion/util"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// ExtractConfig configures still frame extraction from a video.
type ExtractConfig struct {
	// From is the start timestamp in seconds.
	From float64 `yaml:"from" json:"from"`
	// To is the end timestamp in seconds.
	To float64 `yaml:"to" json:"to"`
	// FPS is the rate at which frames are extracted.
	FPS int `yaml:"fps" json:"fps"`
	// Width and Height scale the extracted frames; zero keeps the video size.
	Width  int `yaml:"width" json:"width"`
	Height int `yaml:"height" json:"height"`
	// Ext is the image file extension, which also selects the encoder.
	Ext string `yaml:"ext" json:"ext"`
	// Dir is the output directory, the OS temp dir when empty.
	Dir string `yaml:"dir" json:"dir"`
}

// DefaultExtractConfig returns the first ten seconds at 15 fps as PNG.
func DefaultExtractConfig() ExtractConfig {
	return ExtractConfig{
		From: 0,
		To:   10,
		FPS:  15,
		Ext:  "png",
	}
}

// Validate checks the extraction parameters.
func (c ExtractConfig) Validate() error {
	switch {
	case c.From < 0:
		return errors.Errorf("from must be >= 0, got %v", c.From)
	case c.To <= c.From:
		return errors.Errorf("to (%v) must be greater than from (%v)", c.To, c.From)
	case c.FPS <= 0:
		return errors.Errorf("fps must be > 0, got %d", c.FPS)
	case c.Width < 0 || c.Height < 0:
		return errors.Errorf("invalid size %dx%d", c.Width, c.Height)
	case (c.Width == 0) != (c.Height == 0):
		return errors.New("width and height must be set together")
	case strings.TrimPrefix(c.Ext, ".") == "":
		return errors.New("ext must not be empty")
	}
	if _, ok := images.FormatFromPath("frame." + strings.TrimPrefix(c.Ext, ".")); !ok {
		return errors.Errorf("unsupported frame format %q", c.Ext)
	}
	return nil
}

// Extraction describes the frames written by Extract.
type Extraction struct {
	// Dir is the resolved output directory.
	Dir string `json:"dir"`
	// Name is the file name prefix of the sequence, the video name without extension.
	Name string `json:"name"`
	// Frames holds the absolute paths of the extracted images in frame order.
	Frames []string `json:"frames"`
}

// Extractor invokes ffmpeg to split a video into still images.
type Extractor struct {
	bin    string
	logger *zap.Logger
}

// NewExtractor creates an extractor running the given ffmpeg binary ("ffmpeg" when
// empty, resolved through PATH).
func NewExtractor(bin string, logger *zap.Logger) *Extractor {
	if bin == "" {
		bin = "ffmpeg"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{bin: bin, logger: logger}
}

// Extract writes frames of videoPath as <dir>/<name>-%04d.<ext>.
//
// Arguments:
//   - ctx: Cancels the ffmpeg process.
//   - videoPath: The input video.
//   - cfg: Extraction parameters.
//
// Returns:
//   - *Extraction: The output directory, sequence name and frame paths.
//   - error: An error if ffmpeg fails or writes no frames.
func (e *Extractor) Extract(ctx context.Context, videoPath string, cfg ExtractConfig) (*Extraction, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	path, err := filepath.Abs(videoPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to resolve video path")
	}
	dir := cfg.Dir
	if dir == "" {
		dir = os.TempDir()
	}
	if dir, err = filepath.Abs(dir); err != nil {
		return nil, errors.Wrap(err, "failed to resolve output directory")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "failed to create %s", dir)
	}

	ext := strings.TrimPrefix(cfg.Ext, ".")
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	args := extractArgs(path, filepath.Join(dir, fmt.Sprintf("%s-%%04d.%s", name, ext)), cfg)

	log := e.logger.With(zap.String("video", path), zap.String("dir", dir))
	log.Debug("executing ffmpeg", zap.Strings("args", args))

	cmd := exec.CommandContext(ctx, e.bin, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		log.Warn("ffmpeg failed", zap.Error(err), zap.ByteString("output", tail(output, 2048)))
		return nil, errors.Wrapf(err, "ffmpeg failed on %s", path)
	}

	frames, err := util.FramePaths(dir, name, ext, 1)
	if err != nil {
		return nil, err
	}
	if len(frames) == 0 {
		return nil, errors.Wrapf(ErrNoFrames, "ffmpeg wrote no frames for %s", path)
	}

	log.Info("frames extracted", zap.Int("count", len(frames)))
	return &Extraction{Dir: dir, Name: name, Frames: frames}, nil
}

func extractArgs(input, pattern string, cfg ExtractConfig) []string {
	args := []string{
		"-i", input,
		"-ss", formatTimestamp(cfg.From),
		"-to", formatTimestamp(cfg.To),
		"-r", strconv.Itoa(cfg.FPS),
	}
	if cfg.Width > 0 && cfg.Height > 0 {
		args = append(args, "-vf", fmt.Sprintf("scale=%d:%d", cfg.Width, cfg.Height))
	}
	return append(args, "-y", pattern)
}

// formatTimestamp renders seconds as HH:MM:SS.mmm.
func formatTimestamp(seconds float64) string {
	ms := int64(math.Round(seconds * 1000))
	h := ms / 3_600_000
	m := ms / 60_000 % 60
	s := ms / 1000 % 60
	return fmt.Sprintf("%02d:%02d:%02d.%03d", h, m, s, ms%1000)
}

func tail(b []byte, n int) []byte {
	if len(b) <= n {
		return b
	}
	return b[len(b)-n:]
}
