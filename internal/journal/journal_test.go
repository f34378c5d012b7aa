package journal

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prooflab/prooflab-go/internal/upload"
)

func newTestJournal(t *testing.T) *Journal {
	t.Helper()

	j, err := Open(context.Background(), filepath.Join(t.TempDir(), "journal.db"), slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })

	return j
}

func sampleResult() *upload.Result {
	return &upload.Result{
		BatchKey:  "batch-1",
		GalleryID: "g1",
		Outcomes: []upload.Outcome{
			{Path: "/photos/a.jpg", OriginalFilename: "a.jpg", PhotoID: "p1", State: upload.StateConfirmed},
			{Path: "/photos/b.jpg", OriginalFilename: "b.jpg", State: upload.StateFailed, Err: errors.New("storage rejected upload")},
			{Path: "/photos/c.jpg", OriginalFilename: "c.jpg", PhotoID: "p3", State: upload.StateUploaded, Err: errors.New("confirm timed out")},
		},
	}
}

func TestRecordResult_RoundTrip(t *testing.T) {
	j := newTestJournal(t)
	ctx := context.Background()

	require.NoError(t, j.RecordResult(ctx, sampleResult()))

	files, err := j.Files(ctx, "batch-1")
	require.NoError(t, err)
	require.Len(t, files, 3)

	assert.Equal(t, upload.StateConfirmed, files[0].State)
	assert.Equal(t, "p1", files[0].PhotoID)
	assert.Empty(t, files[0].ErrorMsg)

	assert.Equal(t, upload.StateFailed, files[1].State)
	assert.Empty(t, files[1].PhotoID)
	assert.Equal(t, "storage rejected upload", files[1].ErrorMsg)

	assert.Equal(t, upload.StateUploaded, files[2].State)
	assert.Equal(t, "confirm timed out", files[2].ErrorMsg)
}

func TestUnconfirmedPaths_SelectsRetryCandidates(t *testing.T) {
	j := newTestJournal(t)
	ctx := context.Background()

	require.NoError(t, j.RecordResult(ctx, sampleResult()))

	paths, err := j.UnconfirmedPaths(ctx, "batch-1")
	require.NoError(t, err)

	// Failed and uploaded-but-unconfirmed files retry; confirmed ones do not.
	assert.Equal(t, []string{"/photos/b.jpg", "/photos/c.jpg"}, paths)
}

func TestLatestBatch_ReturnsMostRecent(t *testing.T) {
	j := newTestJournal(t)
	ctx := context.Background()

	first := sampleResult()
	require.NoError(t, j.RecordResult(ctx, first))

	second := sampleResult()
	second.BatchKey = "batch-2"
	require.NoError(t, j.RecordResult(ctx, second))

	latest, err := j.LatestBatch(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, "batch-2", latest.BatchKey)
	assert.Equal(t, "g1", latest.GalleryID)
	assert.False(t, latest.CreatedAt.IsZero())
}

func TestLatestBatch_NoBatches(t *testing.T) {
	j := newTestJournal(t)

	_, err := j.LatestBatch(context.Background(), "unknown")
	assert.ErrorIs(t, err, ErrNoBatches)
}

func TestOpen_ReopenKeepsRecords(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "journal.db")

	j, err := Open(ctx, path, slog.Default())
	require.NoError(t, err)
	require.NoError(t, j.RecordResult(ctx, sampleResult()))
	require.NoError(t, j.Close())

	reopened, err := Open(ctx, path, slog.Default())
	require.NoError(t, err)
	defer reopened.Close()

	latest, err := reopened.LatestBatch(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, "batch-1", latest.BatchKey)
}
