package images

import (
	"path/filepath"
	"strings"
)

// ImageFormat represents supported frame file formats.
type ImageFormat string

const (
	FormatJPEG ImageFormat = "jpeg"
	FormatWebP ImageFormat = "webp"
	FormatPNG  ImageFormat = "png"
	FormatBMP  ImageFormat = "bmp"
)

// FormatFromPath returns the format implied by the file extension, or false when
// the extension is not a supported frame format.
func FormatFromPath(path string) (ImageFormat, bool) {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")) {
	case "jpg", "jpeg":
		return FormatJPEG, true
	case "png":
		return FormatPNG, true
	case "webp":
		return FormatWebP, true
	case "bmp":
		return FormatBMP, true
	}
	return "", false
}
