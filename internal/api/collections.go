package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

type namedRequest struct {
	Name string `json:"name"`
}

// Collections lists the photographer's collections.
func (c *Client) Collections(ctx context.Context) ([]Collection, error) {
	var out []Collection
	if err := c.getJSON(ctx, "/api/v1/collections", &out); err != nil {
		return nil, err
	}

	return out, nil
}

// Collection fetches a single collection.
func (c *Client) Collection(ctx context.Context, collectionID string) (*Collection, error) {
	var out Collection
	if err := c.getJSON(ctx, "/api/v1/collections/"+url.PathEscape(collectionID), &out); err != nil {
		return nil, err
	}

	return &out, nil
}

// CreateCollection creates a named collection.
func (c *Client) CreateCollection(ctx context.Context, name string) (*Collection, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: collection name is required", ErrValidation)
	}

	var out Collection
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/collections", namedRequest{Name: name}, &out, nil); err != nil {
		return nil, err
	}

	return &out, nil
}

// RenameCollection updates a collection's name.
func (c *Client) RenameCollection(ctx context.Context, collectionID, name string) (*Collection, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: collection name is required", ErrValidation)
	}

	var out Collection
	path := "/api/v1/collections/" + url.PathEscape(collectionID)

	if err := c.doJSON(ctx, http.MethodPut, path, namedRequest{Name: name}, &out, nil); err != nil {
		return nil, err
	}

	return &out, nil
}

// DeleteCollection deletes a collection and its galleries.
func (c *Client) DeleteCollection(ctx context.Context, collectionID string) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/v1/collections/"+url.PathEscape(collectionID), nil, nil, nil)
}

// GalleryCount returns the number of galleries in a collection.
func (c *Client) GalleryCount(ctx context.Context, collectionID string) (int64, error) {
	var out int64
	path := "/api/v1/collections/" + url.PathEscape(collectionID) + "/galleryCount"

	if err := c.getJSON(ctx, path, &out); err != nil {
		return 0, err
	}

	return out, nil
}
