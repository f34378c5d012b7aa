package upload

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// settleInterval is how often pending files are checked for quiescence.
const settleInterval = 500 * time.Millisecond

// defaultSettleDelay is how long a file must go without write events
// before it is considered fully written. Export tools write large JPEGs
// incrementally; uploading a half-written file would store a truncated
// photo behind a consumed grant.
const defaultSettleDelay = 2 * time.Second

// watchedExtensions limits ingestion to the image types the platform serves.
var watchedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
}

// Watcher ingests image files dropped into a directory, batching files
// that have settled and handing them to the orchestrator.
type Watcher struct {
	orch        *Orchestrator
	settleDelay time.Duration
	logger      *slog.Logger
}

// NewWatcher creates a Watcher. settleDelay <= 0 selects the default.
func NewWatcher(orch *Orchestrator, settleDelay time.Duration, logger *slog.Logger) *Watcher {
	if settleDelay <= 0 {
		settleDelay = defaultSettleDelay
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Watcher{
		orch:        orch,
		settleDelay: settleDelay,
		logger:      logger,
	}
}

// Watch blocks, uploading new image files from dir to the gallery until
// ctx is canceled. Each settled batch is reported through onResult.
func (w *Watcher) Watch(ctx context.Context, dir, galleryID string, onResult func(*Result)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("upload: creating filesystem watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("upload: watching %s: %w", dir, err)
	}

	w.logger.Info("watching for new photos",
		slog.String("dir", dir),
		slog.String("gallery_id", galleryID),
	)

	// pending maps path -> time of last write event.
	pending := make(map[string]time.Time)

	ticker := time.NewTicker(settleInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			w.handleEvent(event, pending)

		case watchErr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}

			w.logger.Warn("filesystem watcher error", slog.String("error", watchErr.Error()))

		case <-ticker.C:
			batch := settledPaths(pending, w.settleDelay)
			if len(batch) == 0 {
				continue
			}

			result, err := w.orch.UploadAll(ctx, galleryID, batch)
			if err != nil {
				w.logger.Warn("watch batch failed",
					slog.Int("files", len(batch)),
					slog.String("error", err.Error()),
				)

				continue
			}

			if onResult != nil {
				onResult(result)
			}
		}
	}
}

// handleEvent records write activity for image files; removes and renames
// drop the file from the pending set.
func (w *Watcher) handleEvent(event fsnotify.Event, pending map[string]time.Time) {
	ext := strings.ToLower(filepath.Ext(event.Name))
	if !watchedExtensions[ext] {
		return
	}

	switch {
	case event.Has(fsnotify.Create) || event.Has(fsnotify.Write):
		pending[event.Name] = time.Now()

		w.logger.Debug("file activity", slog.String("path", event.Name))

	case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
		delete(pending, event.Name)
	}
}

// settledPaths removes and returns the pending files whose last write is
// older than settleDelay.
func settledPaths(pending map[string]time.Time, settleDelay time.Duration) []string {
	var batch []string

	cutoff := time.Now().Add(-settleDelay)

	for path, last := range pending {
		if last.Before(cutoff) {
			batch = append(batch, path)
			delete(pending, path)
		}
	}

	return batch
}
