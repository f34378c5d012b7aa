package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// Galleries lists the galleries in a collection.
func (c *Client) Galleries(ctx context.Context, collectionID string) ([]Gallery, error) {
	var out []Gallery
	path := "/api/v1/collections/" + url.PathEscape(collectionID) + "/galleries"

	if err := c.getJSON(ctx, path, &out); err != nil {
		return nil, err
	}

	return out, nil
}

// Gallery fetches a single gallery, including its sharing state.
func (c *Client) Gallery(ctx context.Context, galleryID string) (*Gallery, error) {
	var out Gallery
	if err := c.getJSON(ctx, "/api/v1/galleries/"+url.PathEscape(galleryID), &out); err != nil {
		return nil, err
	}

	return &out, nil
}

// CreateGallery creates a named gallery inside a collection.
func (c *Client) CreateGallery(ctx context.Context, collectionID, name string) (*Gallery, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: gallery name is required", ErrValidation)
	}

	var out Gallery
	path := "/api/v1/collections/" + url.PathEscape(collectionID) + "/galleries"

	if err := c.doJSON(ctx, http.MethodPost, path, namedRequest{Name: name}, &out, nil); err != nil {
		return nil, err
	}

	return &out, nil
}

// RenameGallery updates a gallery's name.
func (c *Client) RenameGallery(ctx context.Context, galleryID, name string) (*Gallery, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: gallery name is required", ErrValidation)
	}

	var out Gallery
	path := "/api/v1/galleries/" + url.PathEscape(galleryID)

	if err := c.doJSON(ctx, http.MethodPut, path, namedRequest{Name: name}, &out, nil); err != nil {
		return nil, err
	}

	return &out, nil
}

// DeleteGallery deletes a gallery and its photos.
func (c *Client) DeleteGallery(ctx context.Context, galleryID string) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/v1/galleries/"+url.PathEscape(galleryID), nil, nil, nil)
}
