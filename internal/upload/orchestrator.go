// Package upload turns a set of local files into confirmed remote photo
// records. For each batch it acquires one-time upload grants through the
// authenticated gateway, pushes bytes directly to object storage, and
// confirms each upload. Files are processed independently: one file's
// failure never aborts the rest of the batch.
package upload

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/unicode/norm"

	"github.com/prooflab/prooflab-go/internal/api"
	"github.com/prooflab/prooflab-go/internal/sniff"
)

// defaultWorkers bounds per-file parallelism within a batch.
const defaultWorkers = 4

// fallbackContentType is used when neither the signature registry nor the
// file extension identifies the content.
const fallbackContentType = "application/octet-stream"

// Backend is the slice of the gateway the orchestrator needs.
// Defined at the consumer per Go convention "accept interfaces, return structs".
type Backend interface {
	RequestUploadGrants(ctx context.Context, galleryID string, reqs []api.UploadRequest, batchKey string) ([]api.UploadGrant, error)
	ConfirmUpload(ctx context.Context, photoID string) error
}

// Orchestrator coordinates multi-file uploads for one backend.
type Orchestrator struct {
	backend Backend
	// storage talks to the presigned URLs' object store. It is a separate
	// trust domain: requests through it never carry the bearer credential.
	storage *http.Client
	workers int
	logger  *slog.Logger
}

// NewOrchestrator creates an Orchestrator. storage defaults to
// http.DefaultClient and workers to 4 when zero.
func NewOrchestrator(backend Backend, storage *http.Client, workers int, logger *slog.Logger) *Orchestrator {
	if storage == nil {
		storage = http.DefaultClient
	}

	if workers <= 0 {
		workers = defaultWorkers
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Orchestrator{
		backend: backend,
		storage: storage,
		workers: workers,
		logger:  logger,
	}
}

// UploadAll uploads the given local files to a gallery and returns the
// per-file outcomes, positionally aligned with paths. It returns an error
// only when the batch fails as a whole before any grant is consumed
// (validation, or the grant request itself); after that point every
// failure is reported through its file's Outcome instead.
//
// Grants are requested once per batch under an idempotency key and
// consumed in input order; a grant is never reused after its first
// storage POST attempt. Canceling ctx abandons not-yet-started files
// cleanly — their grants are left unconsumed — while files already
// confirmed stay confirmed.
func (o *Orchestrator) UploadAll(ctx context.Context, galleryID string, paths []string) (*Result, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: no files selected", api.ErrValidation)
	}

	reqs := make([]api.UploadRequest, len(paths))

	for i, p := range paths {
		// NFC-normalize so the stored filename is stable regardless of
		// which filesystem produced it (macOS decomposes to NFD).
		name := norm.NFC.String(filepath.Base(p))
		if name == "" || name == "." {
			return nil, fmt.Errorf("%w: empty filename for %q", api.ErrValidation, p)
		}

		reqs[i] = api.UploadRequest{OriginalFilename: name}
	}

	batchKey := uuid.NewString()

	o.logger.Info("requesting upload grants",
		slog.String("gallery_id", galleryID),
		slog.String("batch_key", batchKey),
		slog.Int("files", len(paths)),
	)

	grants, err := o.backend.RequestUploadGrants(ctx, galleryID, reqs, batchKey)
	if err != nil {
		return nil, fmt.Errorf("upload: requesting grants: %w", err)
	}

	result := &Result{
		BatchKey:  batchKey,
		GalleryID: galleryID,
		Outcomes:  make([]Outcome, len(paths)),
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers)

	for i := range paths {
		i := i
		g.Go(func() error {
			result.Outcomes[i] = o.processFile(ctx, paths[i], grants[i])
			// Per-file failures are outcomes, not group errors — returning
			// one would cancel the siblings and force a global abort.
			return nil
		})
	}

	_ = g.Wait() //nolint:errcheck // workers never return errors

	o.logger.Info("batch complete",
		slog.String("batch_key", batchKey),
		slog.Int("confirmed", result.Confirmed()),
		slog.Int("not_confirmed", len(result.Failed())),
	)

	return result, nil
}

// processFile drives one file through the upload state machine.
func (o *Orchestrator) processFile(ctx context.Context, path string, grant api.UploadGrant) Outcome {
	out := Outcome{
		Path:             path,
		OriginalFilename: grant.OriginalFilename,
		PhotoID:          grant.ID,
		State:            StatePending,
	}

	// A canceled batch abandons files whose grants were never POSTed;
	// the backend reaps the pending placeholders.
	if ctx.Err() != nil {
		out.State = StateFailed
		out.Err = fmt.Errorf("upload: %s: canceled before upload: %w", path, ctx.Err())

		return out
	}

	f, err := os.Open(path)
	if err != nil {
		out.State = StateFailed
		out.Err = fmt.Errorf("upload: opening %s: %w", path, err)

		return out
	}
	defer f.Close()

	contentType := sniff.Detect(f, extensionContentType(path))

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		out.State = StateFailed
		out.Err = fmt.Errorf("upload: rewinding %s: %w", path, err)

		return out
	}

	out.State = StateUploading

	if err := o.postToStorage(ctx, grant, contentType, f); err != nil {
		out.State = StateFailed
		out.Err = err

		o.logger.Warn("storage upload failed",
			slog.String("file", path),
			slog.String("photo_id", grant.ID),
			slog.String("error", err.Error()),
		)

		return out
	}

	out.State = StateUploaded

	if err := o.backend.ConfirmUpload(ctx, grant.ID); err != nil {
		// The bytes are durably stored but the record is still pending.
		// Surface it — a swallowed confirm failure would orphan the photo.
		out.Err = fmt.Errorf("upload: confirming %s: %w", grant.ID, err)

		o.logger.Warn("confirm failed after successful storage write",
			slog.String("file", path),
			slog.String("photo_id", grant.ID),
			slog.String("error", err.Error()),
		)

		return out
	}

	out.State = StateConfirmed

	o.logger.Debug("file confirmed",
		slog.String("file", path),
		slog.String("photo_id", grant.ID),
	)

	return out
}

// postToStorage sends the multipart form for one grant: all presigned
// values, then the detected Content-Type, then the file bytes. The request
// goes straight to object storage and must not carry the bearer credential.
func (o *Orchestrator) postToStorage(ctx context.Context, grant api.UploadGrant, contentType string, f io.Reader) error {
	var buf bytes.Buffer

	w := multipart.NewWriter(&buf)

	for key, value := range grant.PresignedPostRequest.Values {
		if err := w.WriteField(key, value); err != nil {
			return fmt.Errorf("upload: writing form field %s: %w", key, err)
		}
	}

	if err := w.WriteField("Content-Type", contentType); err != nil {
		return fmt.Errorf("upload: writing content type field: %w", err)
	}

	// The file part must come last: the storage provider ignores fields
	// after the file in a presigned POST.
	part, err := w.CreateFormFile("file", grant.OriginalFilename)
	if err != nil {
		return fmt.Errorf("upload: creating file part: %w", err)
	}

	if _, err := io.Copy(part, f); err != nil {
		return fmt.Errorf("upload: reading file bytes: %w", err)
	}

	if err := w.Close(); err != nil {
		return fmt.Errorf("upload: finalizing multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, grant.PresignedPostRequest.URL, &buf)
	if err != nil {
		return fmt.Errorf("upload: creating storage request: %w", err)
	}

	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := o.storage.Do(req)
	if err != nil {
		return fmt.Errorf("upload: storage request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(resp.Body) //nolint:errcheck // best-effort read for error message
		return fmt.Errorf("upload: storage rejected upload with status %d: %s", resp.StatusCode, string(body))
	}

	// Drain so the connection can be reused.
	if _, err := io.Copy(io.Discard, resp.Body); err != nil {
		return fmt.Errorf("upload: draining storage response: %w", err)
	}

	return nil
}

// extensionContentType derives the browser-style declared type from the
// file extension, as the fallback when signature sniffing is inconclusive.
func extensionContentType(path string) string {
	if ct := mime.TypeByExtension(filepath.Ext(path)); ct != "" {
		return ct
	}

	return fallbackContentType
}
