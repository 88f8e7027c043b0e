package util

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte{0}, 0o644))
	}
}

func TestLoadFrameFiles(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir,
		"art-0003.png", "art-0001.png", "art-0002.png",
		"art-0001.jpg",     // other extension
		"artwork-0001.png", // other id
		"art-01.png",       // not four digits
		"art-0004.png.tmp",
	)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "art-0005.png"), 0o755))

	frames, err := LoadFrameFiles(dir, "art", "png")
	require.NoError(t, err)
	require.Len(t, frames, 3)
	for i, f := range frames {
		assert.Equal(t, i+1, f.Frame)
	}
	assert.Equal(t, filepath.Join(dir, "art-0001.png"), frames[0].Path)
}

func TestLoadFrameFilesQuotesID(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "a.b-0001.png", "axb-0001.png")

	frames, err := LoadFrameFiles(dir, "a.b", ".png")
	require.NoError(t, err)
	require.Len(t, frames, 1)
	assert.Equal(t, filepath.Join(dir, "a.b-0001.png"), frames[0].Path)
}

func TestLoadFrameFilesErrors(t *testing.T) {
	_, err := LoadFrameFiles(t.TempDir(), "", "png")
	assert.Error(t, err)
	_, err = LoadFrameFiles(t.TempDir(), "art", "")
	assert.Error(t, err)
	_, err = LoadFrameFiles(filepath.Join(t.TempDir(), "missing"), "art", "png")
	assert.Error(t, err)
}

func TestFramePaths(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "v-0001.png", "v-0002.png", "v-0003.png", "v-0004.png", "v-0005.png")

	tests := []struct {
		name     string
		skip     int
		expected []string
	}{
		{name: "all", skip: 1, expected: []string{"v-0001.png", "v-0002.png", "v-0003.png", "v-0004.png", "v-0005.png"}},
		{name: "every second", skip: 2, expected: []string{"v-0001.png", "v-0003.png", "v-0005.png"}},
		{name: "larger than sequence", skip: 10, expected: []string{"v-0001.png"}},
		{name: "zero treated as one", skip: 0, expected: []string{"v-0001.png", "v-0002.png", "v-0003.png", "v-0004.png", "v-0005.png"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			paths, err := FramePaths(dir, "v", "png", tt.skip)
			require.NoError(t, err)
			expected := make([]string, len(tt.expected))
			for i, name := range tt.expected {
				expected[i] = filepath.Join(dir, name)
			}
			assert.Equal(t, expected, paths)
		})
	}
}

func TestFramePathsEmpty(t *testing.T) {
	paths, err := FramePaths(t.TempDir(), "v", "png", 1)
	require.NoError(t, err)
	assert.Empty(t, paths)
}
