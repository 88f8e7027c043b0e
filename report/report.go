// Package report - Persistence and rendering of motion analysis reports.
package report

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/nvr-ai/go-motion/motion"
	"github.com/pkg/errors"
)

// FileName returns the report file name for an artwork id.
func FileName(id string) string {
	return id + "-motion.json"
}

// WriteJSON writes r to path atomically: the JSON is written to a temporary file in
// the same directory which is then renamed.
//
// Arguments:
//   - path: The destination file.
//   - r: The report.
//
// Returns:
//   - error: An error if the file cannot be written.
func WriteJSON(path string, r *motion.Report) error {
	if r == nil {
		return errors.New("nil report")
	}
	data, err := json.Marshal(r)
	if err != nil {
		return errors.Wrap(err, "failed to encode report")
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "failed to create %s", dir)
	}
	tmp, err := os.CreateTemp(dir, ".motion-*.json")
	if err != nil {
		return errors.Wrap(err, "failed to create temporary report")
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrap(err, "failed to write report")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "failed to write report")
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return errors.Wrapf(err, "failed to move report to %s", path)
	}
	return nil
}

// ReadJSON loads a report written by WriteJSON.
func ReadJSON(path string) (*motion.Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", path)
	}
	var r motion.Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, errors.Wrapf(err, "failed to decode %s", path)
	}
	return &r, nil
}
