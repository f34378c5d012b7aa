package upload

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prooflab/prooflab-go/internal/api"
)

// fakeBackend implements Backend in-process, recording calls.
type fakeBackend struct {
	mu         sync.Mutex
	grantCalls int
	batchKeys  []string
	confirmed  []string
	confirmErr map[string]error
	grantErr   error
}

func (f *fakeBackend) RequestUploadGrants(
	_ context.Context, _ string, reqs []api.UploadRequest, batchKey string,
) ([]api.UploadGrant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.grantCalls++
	f.batchKeys = append(f.batchKeys, batchKey)

	if f.grantErr != nil {
		return nil, f.grantErr
	}

	grants := make([]api.UploadGrant, len(reqs))
	for i, r := range reqs {
		grants[i] = api.UploadGrant{
			ID:               "photo-" + r.OriginalFilename,
			OriginalFilename: r.OriginalFilename,
			PresignedPostRequest: api.PresignedPost{
				Values: map[string]string{"key": "uploads/" + r.OriginalFilename},
			},
		}
	}

	return grants, nil
}

func (f *fakeBackend) ConfirmUpload(_ context.Context, photoID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.confirmErr[photoID]; err != nil {
		return err
	}

	f.confirmed = append(f.confirmed, photoID)

	return nil
}

// writeTestFile creates a file with the given leading bytes.
func writeTestFile(t *testing.T, dir, name string, content []byte) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, content, 0o600))

	return path
}

var jpegHeader = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F'}

// newStorageServer returns a storage endpoint that fails uploads whose
// multipart "key" field is in failKeys, and records received content types.
func newStorageServer(t *testing.T, failKeys map[string]bool) (*httptest.Server, *sync.Map, *atomic.Int32) {
	t.Helper()

	var contentTypes sync.Map

	var posts atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		posts.Add(1)

		// Object storage is a distinct trust domain: the photographer's
		// bearer credential must never reach it.
		assert.Empty(t, r.Header.Get("Authorization"))

		require.NoError(t, r.ParseMultipartForm(1<<20))

		key := r.FormValue("key")
		contentTypes.Store(key, r.FormValue("Content-Type"))

		if failKeys[key] {
			w.WriteHeader(http.StatusForbidden)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}))

	return srv, &contentTypes, &posts
}

// grantsTo rewrites a fake backend so grants point at the storage server.
type urlBackend struct {
	*fakeBackend
	storageURL string
}

func (u *urlBackend) RequestUploadGrants(
	ctx context.Context, galleryID string, reqs []api.UploadRequest, batchKey string,
) ([]api.UploadGrant, error) {
	grants, err := u.fakeBackend.RequestUploadGrants(ctx, galleryID, reqs, batchKey)
	if err != nil {
		return nil, err
	}

	for i := range grants {
		grants[i].PresignedPostRequest.URL = u.storageURL
	}

	return grants, nil
}

func TestUploadAll_AllConfirmed(t *testing.T) {
	storage, contentTypes, _ := newStorageServer(t, nil)
	defer storage.Close()

	dir := t.TempDir()
	paths := []string{
		writeTestFile(t, dir, "a.jpg", jpegHeader),
		writeTestFile(t, dir, "b.jpg", jpegHeader),
	}

	backend := &urlBackend{fakeBackend: &fakeBackend{}, storageURL: storage.URL}
	orch := NewOrchestrator(backend, nil, 2, slog.Default())

	result, err := orch.UploadAll(context.Background(), "g1", paths)
	require.NoError(t, err)
	require.Len(t, result.Outcomes, 2)

	for i, out := range result.Outcomes {
		assert.Equal(t, StateConfirmed, out.State, "file %d", i)
		assert.NoError(t, out.Err)
	}

	assert.Equal(t, 2, result.Confirmed())
	assert.Empty(t, result.Failed())
	assert.ElementsMatch(t, []string{"photo-a.jpg", "photo-b.jpg"}, backend.confirmed)

	// The sniffer, not the extension, decides the content type.
	ct, ok := contentTypes.Load("uploads/a.jpg")
	require.True(t, ok)
	assert.Equal(t, "image/jpeg", ct)
}

func TestUploadAll_SecondFileFailureDoesNotAbortBatch(t *testing.T) {
	storage, _, _ := newStorageServer(t, map[string]bool{"uploads/b.jpg": true})
	defer storage.Close()

	dir := t.TempDir()
	paths := []string{
		writeTestFile(t, dir, "a.jpg", jpegHeader),
		writeTestFile(t, dir, "b.jpg", jpegHeader),
		writeTestFile(t, dir, "c.jpg", jpegHeader),
	}

	backend := &urlBackend{fakeBackend: &fakeBackend{}, storageURL: storage.URL}
	// Single worker forces sequential processing: file 2's failure must
	// still not prevent file 3 from running to completion.
	orch := NewOrchestrator(backend, nil, 1, slog.Default())

	result, err := orch.UploadAll(context.Background(), "g1", paths)
	require.NoError(t, err)
	require.Len(t, result.Outcomes, 3)

	assert.Equal(t, StateConfirmed, result.Outcomes[0].State)
	assert.Equal(t, StateFailed, result.Outcomes[1].State)
	assert.Error(t, result.Outcomes[1].Err)
	assert.Equal(t, StateConfirmed, result.Outcomes[2].State)

	failed := result.Failed()
	require.Len(t, failed, 1)
	assert.Equal(t, "photo-b.jpg", failed[0].PhotoID)
}

func TestUploadAll_ConfirmFailureIsUploadedNotConfirmed(t *testing.T) {
	storage, _, _ := newStorageServer(t, nil)
	defer storage.Close()

	dir := t.TempDir()
	path := writeTestFile(t, dir, "a.jpg", jpegHeader)

	backend := &urlBackend{
		fakeBackend: &fakeBackend{confirmErr: map[string]error{"photo-a.jpg": assert.AnError}},
		storageURL:  storage.URL,
	}
	orch := NewOrchestrator(backend, nil, 1, slog.Default())

	result, err := orch.UploadAll(context.Background(), "g1", []string{path})
	require.NoError(t, err)
	require.Len(t, result.Outcomes, 1)

	out := result.Outcomes[0]
	assert.Equal(t, StateUploaded, out.State, "durably stored but unconfirmed")
	assert.Error(t, out.Err)
}

func TestUploadAll_MissingFileFailsBeforeUpload(t *testing.T) {
	storage, _, posts := newStorageServer(t, nil)
	defer storage.Close()

	dir := t.TempDir()
	paths := []string{
		filepath.Join(dir, "does-not-exist.jpg"),
		writeTestFile(t, dir, "b.jpg", jpegHeader),
	}

	backend := &urlBackend{fakeBackend: &fakeBackend{}, storageURL: storage.URL}
	orch := NewOrchestrator(backend, nil, 1, slog.Default())

	result, err := orch.UploadAll(context.Background(), "g1", paths)
	require.NoError(t, err)

	assert.Equal(t, StateFailed, result.Outcomes[0].State)
	assert.Equal(t, StateConfirmed, result.Outcomes[1].State)
	assert.Equal(t, int32(1), posts.Load(), "the missing file's grant is never POSTed")
}

func TestUploadAll_EmptySelectionIsValidationError(t *testing.T) {
	backend := &fakeBackend{}
	orch := NewOrchestrator(backend, nil, 1, slog.Default())

	_, err := orch.UploadAll(context.Background(), "g1", nil)
	assert.ErrorIs(t, err, api.ErrValidation)
	assert.Equal(t, 0, backend.grantCalls, "no network call on validation failure")
}

func TestUploadAll_CanceledContextAbandonsUnstartedFiles(t *testing.T) {
	storage, _, posts := newStorageServer(t, nil)
	defer storage.Close()

	dir := t.TempDir()
	paths := []string{
		writeTestFile(t, dir, "a.jpg", jpegHeader),
		writeTestFile(t, dir, "b.jpg", jpegHeader),
	}

	backend := &urlBackend{fakeBackend: &fakeBackend{}, storageURL: storage.URL}
	orch := NewOrchestrator(backend, nil, 1, slog.Default())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := orch.UploadAll(ctx, "g1", paths)
	require.NoError(t, err)

	for _, out := range result.Outcomes {
		assert.Equal(t, StateFailed, out.State)
		assert.ErrorIs(t, out.Err, context.Canceled)
	}

	assert.Equal(t, int32(0), posts.Load(), "abandoned grants are never POSTed")
}

func TestUploadAll_FreshBatchKeyPerBatch(t *testing.T) {
	storage, _, _ := newStorageServer(t, nil)
	defer storage.Close()

	dir := t.TempDir()
	path := writeTestFile(t, dir, "a.jpg", jpegHeader)

	backend := &urlBackend{fakeBackend: &fakeBackend{}, storageURL: storage.URL}
	orch := NewOrchestrator(backend, nil, 1, slog.Default())

	_, err := orch.UploadAll(context.Background(), "g1", []string{path})
	require.NoError(t, err)
	_, err = orch.UploadAll(context.Background(), "g1", []string{path})
	require.NoError(t, err)

	require.Len(t, backend.batchKeys, 2)
	assert.NotEmpty(t, backend.batchKeys[0])
	assert.NotEqual(t, backend.batchKeys[0], backend.batchKeys[1])
}
