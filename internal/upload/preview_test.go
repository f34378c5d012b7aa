package upload

import (
	"image"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTestPNG writes a small decodable PNG.
func writeTestPNG(t *testing.T, dir, name string, w, h int) string {
	t.Helper()

	path := filepath.Join(dir, name)

	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	require.NoError(t, png.Encode(f, image.NewRGBA(image.Rect(0, 0, w, h))))

	return path
}

func TestGeneratePreviews_CreatesThumbnails(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		writeTestPNG(t, dir, "a.png", 800, 600),
		writeTestPNG(t, dir, "b.png", 20, 20),
	}

	ps, err := GeneratePreviews(paths, slog.Default())
	require.NoError(t, err)
	defer ps.Close()

	require.Len(t, ps.Paths, 2)

	for _, p := range ps.Paths {
		info, statErr := os.Stat(p)
		require.NoError(t, statErr)
		assert.Positive(t, info.Size())
	}
}

func TestGeneratePreviews_SkipsUndecodableFiles(t *testing.T) {
	dir := t.TempDir()
	good := writeTestPNG(t, dir, "good.png", 100, 100)
	bad := writeTestFile(t, dir, "bad.jpg", []byte("not an image"))

	ps, err := GeneratePreviews([]string{bad, good}, slog.Default())
	require.NoError(t, err)
	defer ps.Close()

	require.Len(t, ps.Paths, 1)
	assert.Contains(t, ps.Paths[0], "good.png")
}

func TestPreviewSet_CloseRemovesDirectoryOnEveryPath(t *testing.T) {
	dir := t.TempDir()
	path := writeTestPNG(t, dir, "a.png", 64, 64)

	ps, err := GeneratePreviews([]string{path}, slog.Default())
	require.NoError(t, err)

	previewDir := ps.Dir
	ps.Close()

	_, statErr := os.Stat(previewDir)
	assert.True(t, os.IsNotExist(statErr))

	// Closing twice is harmless.
	ps.Close()

	// A nil set is also safe to close, matching deferred cleanup on
	// early-error paths.
	var nilSet *PreviewSet
	nilSet.Close()
}
