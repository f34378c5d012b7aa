package api

import (
	"context"
	"net/http"
	"net/url"
	"time"
)

type sharingExpiryRequest struct {
	SharingExpiry time.Time `json:"sharingExpiry"`
}

// ShareGallery issues a share link for a gallery. Expiry validation
// happens in the sharing manager before this call is made.
func (c *Client) ShareGallery(ctx context.Context, galleryID string, expiry time.Time) (*ShareLink, error) {
	var out ShareLink
	path := "/api/v1/galleries/" + url.PathEscape(galleryID) + "/sharing/share"

	if err := c.doJSON(ctx, http.MethodPost, path, sharingExpiryRequest{SharingExpiry: expiry}, &out, nil); err != nil {
		return nil, err
	}

	return &out, nil
}

// RescheduleSharing moves an active share link's expiry. The backend
// preserves the existing access token; only the expiry changes.
func (c *Client) RescheduleSharing(ctx context.Context, galleryID string, expiry time.Time) (*ShareLink, error) {
	var out ShareLink
	path := "/api/v1/galleries/" + url.PathEscape(galleryID) + "/sharing/reschedule"

	if err := c.doJSON(ctx, http.MethodPut, path, sharingExpiryRequest{SharingExpiry: expiry}, &out, nil); err != nil {
		return nil, err
	}

	return &out, nil
}

// StopSharing disables a gallery's share link. The previous access token
// is rejected by the client access path immediately.
func (c *Client) StopSharing(ctx context.Context, galleryID string) (*Gallery, error) {
	var out Gallery
	path := "/api/v1/galleries/" + url.PathEscape(galleryID) + "/sharing/stop"

	if err := c.doJSON(ctx, http.MethodPut, path, nil, &out, nil); err != nil {
		return nil, err
	}

	return &out, nil
}
