package upload

import (
	"fmt"
	"image"
	"image/jpeg"
	"log/slog"
	"os"
	"path/filepath"

	// Register decoders for the formats the sniffer recognizes.
	_ "image/gif"
	_ "image/png"

	"github.com/nfnt/resize"
)

// previewMaxDim is the bounding box for preview thumbnails, in pixels.
const previewMaxDim = 320

// previewQuality is the JPEG quality for preview thumbnails.
const previewQuality = 80

// PreviewSet is a temporary directory of thumbnails generated for a file
// selection. It must be released on every exit path — success, partial
// failure, or cancellation — via Close.
type PreviewSet struct {
	Dir   string
	Paths []string

	logger *slog.Logger
}

// GeneratePreviews renders a thumbnail for each selected file into a fresh
// temp directory. Files that cannot be decoded are skipped; preview
// generation is best-effort and never blocks an upload.
func GeneratePreviews(paths []string, logger *slog.Logger) (*PreviewSet, error) {
	if logger == nil {
		logger = slog.Default()
	}

	dir, err := os.MkdirTemp("", "prooflab-previews-*")
	if err != nil {
		return nil, fmt.Errorf("upload: creating preview directory: %w", err)
	}

	ps := &PreviewSet{Dir: dir, logger: logger}

	for _, p := range paths {
		thumbPath, err := writeThumbnail(p, dir)
		if err != nil {
			logger.Debug("skipping preview",
				slog.String("file", p),
				slog.String("error", err.Error()),
			)

			continue
		}

		ps.Paths = append(ps.Paths, thumbPath)
	}

	return ps, nil
}

// Close removes the preview directory and all thumbnails in it.
func (ps *PreviewSet) Close() {
	if ps == nil || ps.Dir == "" {
		return
	}

	if err := os.RemoveAll(ps.Dir); err != nil {
		ps.logger.Warn("failed to remove preview directory",
			slog.String("dir", ps.Dir),
			slog.String("error", err.Error()),
		)

		return
	}

	ps.Dir = ""
	ps.Paths = nil
}

// writeThumbnail decodes one image and writes a bounded JPEG thumbnail.
func writeThumbnail(src, dir string) (string, error) {
	f, err := os.Open(src)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", src, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return "", fmt.Errorf("decoding %s: %w", src, err)
	}

	thumb := resize.Thumbnail(previewMaxDim, previewMaxDim, img, resize.Lanczos3)

	base := filepath.Base(src)
	dst := filepath.Join(dir, base+".thumb.jpg")

	out, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("creating %s: %w", dst, err)
	}
	defer out.Close()

	if err := jpeg.Encode(out, thumb, &jpeg.Options{Quality: previewQuality}); err != nil {
		return "", fmt.Errorf("encoding %s: %w", dst, err)
	}

	return dst, nil
}
