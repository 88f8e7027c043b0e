package util

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// FrameFile is one still image of an extracted frame sequence.
type FrameFile struct {
	// Path is the path to the image file.
	Path string
	// Frame is the frame number parsed from the file name.
	Frame int
}

// framePattern matches "<id>-<4 digit frame>.<ext>".
func framePattern(id, ext string) (*regexp.Regexp, error) {
	if id == "" {
		return nil, errors.New("frame sequence id must not be empty")
	}
	ext = strings.TrimPrefix(ext, ".")
	if ext == "" {
		return nil, errors.New("frame file extension must not be empty")
	}
	return regexp.Compile("^" + regexp.QuoteMeta(id) + `-(\d{4})\.` + regexp.QuoteMeta(ext) + "$")
}

// LoadFrameFiles lists the frame files of sequence id in dir, ordered by frame number.
//
// Arguments:
// - dir: Directory containing the extracted frames.
// - id: Sequence name, usually the video or artwork id.
// - ext: File extension without or with the leading dot.
//
// Returns:
// - []FrameFile: Matching files, sorted by frame number.
// - error: Error if the directory cannot be read.
func LoadFrameFiles(dir, id, ext string) ([]FrameFile, error) {
	re, err := framePattern(id, ext)
	if err != nil {
		return nil, err
	}
	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read frame directory %s", dir)
	}

	var frames []FrameFile
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		m := re.FindStringSubmatch(file.Name())
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return nil, errors.Wrapf(err, "invalid frame number in %s", file.Name())
		}
		frames = append(frames, FrameFile{Path: filepath.Join(dir, file.Name()), Frame: n})
	}

	sort.Slice(frames, func(i, j int) bool {
		return frames[i].Frame < frames[j].Frame
	})

	return frames, nil
}

// FramePaths returns the paths of every skip-th frame of sequence id in dir, starting
// with the first. A skip below 1 is treated as 1.
func FramePaths(dir, id, ext string, skip int) ([]string, error) {
	frames, err := LoadFrameFiles(dir, id, ext)
	if err != nil {
		return nil, err
	}
	if skip < 1 {
		skip = 1
	}
	paths := make([]string, 0, (len(frames)+skip-1)/skip)
	for i := 0; i < len(frames); i += skip {
		paths = append(paths, frames[i].Path)
	}
	return paths, nil
}
