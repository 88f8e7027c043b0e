package images

import (
	"crypto/md5"
	"encoding/binary"
	"fmt"
)

// ComputeFrameChecksum generates a deterministic checksum over a frame's dimensions
// and samples. Two frames with identical content always share a checksum.
//
// Arguments:
// - f: The frame to compute checksum for.
//
// Returns:
// - A hex-encoded MD5 checksum string.
func ComputeFrameChecksum(f *Frame) string {
	if f == nil || len(f.Pix) == 0 {
		return "empty"
	}

	var dims [16]byte
	binary.LittleEndian.PutUint64(dims[:8], uint64(f.Width))
	binary.LittleEndian.PutUint64(dims[8:], uint64(f.Height))

	hash := md5.New()
	hash.Write(dims[:])
	hash.Write(f.Pix)
	return fmt.Sprintf("%x", hash.Sum(nil))
}
