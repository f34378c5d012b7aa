package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// idempotencyHeader deduplicates grant-batch requests on the backend. A
// retried batch request (e.g. after a network failure with an unread
// response) must not mint a second set of placeholder photo records.
const idempotencyHeader = "Idempotency-Key"

// Photos lists a gallery's photos.
func (c *Client) Photos(ctx context.Context, galleryID string) ([]Photo, error) {
	var out []Photo
	path := "/api/v1/galleries/" + url.PathEscape(galleryID) + "/photos"

	if err := c.getJSON(ctx, path, &out); err != nil {
		return nil, err
	}

	return out, nil
}

// RequestUploadGrants submits one batch of upload requests and returns the
// grants positionally aligned with reqs. Each grant is single-use and tied
// to a placeholder photo record the backend creates in a pending state.
// batchKey is an idempotency key identifying the batch across retries.
func (c *Client) RequestUploadGrants(
	ctx context.Context, galleryID string, reqs []UploadRequest, batchKey string,
) ([]UploadGrant, error) {
	if len(reqs) == 0 {
		return nil, fmt.Errorf("%w: empty upload batch", ErrValidation)
	}

	for _, r := range reqs {
		if r.OriginalFilename == "" {
			return nil, fmt.Errorf("%w: empty filename in upload batch", ErrValidation)
		}
	}

	hdr := http.Header{}
	if batchKey != "" {
		hdr.Set(idempotencyHeader, batchKey)
	}

	var grants []UploadGrant
	path := "/api/v1/galleries/" + url.PathEscape(galleryID) + "/photos"

	if err := c.doJSON(ctx, http.MethodPost, path, reqs, &grants, hdr); err != nil {
		return nil, err
	}

	if len(grants) != len(reqs) {
		return nil, fmt.Errorf("api: grant count %d does not match batch size %d", len(grants), len(reqs))
	}

	return grants, nil
}

// ConfirmUpload marks a photo's storage upload as complete, moving the
// placeholder record out of its pending state.
func (c *Client) ConfirmUpload(ctx context.Context, photoID string) error {
	path := "/api/v1/photos/" + url.PathEscape(photoID) + "/confirm"

	return c.doJSON(ctx, http.MethodPut, path, nil, nil, nil)
}

// DeletePhoto removes a photo record and its stored object.
func (c *Client) DeletePhoto(ctx context.Context, photoID string) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/v1/photos/"+url.PathEscape(photoID), nil, nil, nil)
}
