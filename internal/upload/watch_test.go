package upload

import (
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
)

func TestHandleEvent_TracksOnlyImageFiles(t *testing.T) {
	w := NewWatcher(nil, 0, nil)
	pending := make(map[string]time.Time)

	w.handleEvent(fsnotify.Event{Name: "/drop/a.jpg", Op: fsnotify.Create}, pending)
	w.handleEvent(fsnotify.Event{Name: "/drop/b.PNG", Op: fsnotify.Write}, pending)
	w.handleEvent(fsnotify.Event{Name: "/drop/notes.txt", Op: fsnotify.Create}, pending)
	w.handleEvent(fsnotify.Event{Name: "/drop/partial.jpg.tmp", Op: fsnotify.Write}, pending)

	assert.Contains(t, pending, "/drop/a.jpg")
	assert.Contains(t, pending, "/drop/b.PNG")
	assert.NotContains(t, pending, "/drop/notes.txt")
	assert.NotContains(t, pending, "/drop/partial.jpg.tmp")
}

func TestHandleEvent_RemoveDropsPendingFile(t *testing.T) {
	w := NewWatcher(nil, 0, nil)
	pending := map[string]time.Time{"/drop/a.jpg": time.Now()}

	w.handleEvent(fsnotify.Event{Name: "/drop/a.jpg", Op: fsnotify.Remove}, pending)

	assert.Empty(t, pending)
}

func TestSettledPaths_ReturnsOnlyQuiescentFiles(t *testing.T) {
	now := time.Now()
	pending := map[string]time.Time{
		"/drop/old.jpg":    now.Add(-5 * time.Second),
		"/drop/recent.jpg": now,
	}

	batch := settledPaths(pending, 2*time.Second)

	assert.Equal(t, []string{"/drop/old.jpg"}, batch)
	assert.NotContains(t, pending, "/drop/old.jpg")
	assert.Contains(t, pending, "/drop/recent.jpg")
}

func TestSettledPaths_EmptyWhenNothingSettled(t *testing.T) {
	pending := map[string]time.Time{"/drop/a.jpg": time.Now()}

	assert.Empty(t, settledPaths(pending, time.Minute))
	assert.Len(t, pending, 1)
}
