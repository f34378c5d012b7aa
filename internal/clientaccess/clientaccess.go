// Package clientaccess is the anonymous counterpart of the authenticated
// gateway: it reaches shared galleries with a share-link access token
// instead of a photographer session. It never refreshes anything — when
// the token is bad or the share has been stopped, the only answer is
// ErrAccessDenied.
package clientaccess

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/prooflab/prooflab-go/internal/api"
)

// ErrAccessDenied is returned whenever the share token does not grant
// access. The backend deliberately answers revoked, expired, unknown and
// plain-missing galleries the same way, so callers cannot distinguish "no
// such gallery" from "no longer shared" — and neither can this package.
var ErrAccessDenied = errors.New("clientaccess: access denied")

const clientBasePath = "/api/v1/client"

// Client accesses a shared gallery anonymously.
type Client struct {
	baseURL    string
	shareToken string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates an anonymous client for one share token.
func NewClient(baseURL, shareToken string, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL:    baseURL,
		shareToken: shareToken,
		httpClient: httpClient,
		logger:     logger,
	}
}

// Gallery fetches the shared gallery's metadata.
func (c *Client) Gallery(ctx context.Context, galleryID string) (*api.Gallery, error) {
	var gallery api.Gallery
	if err := c.getJSON(ctx, clientBasePath+"/galleries/"+url.PathEscape(galleryID), &gallery); err != nil {
		return nil, err
	}

	return &gallery, nil
}

// Photos lists the shared gallery's photos.
func (c *Client) Photos(ctx context.Context, galleryID string) ([]api.Photo, error) {
	var photos []api.Photo
	if err := c.getJSON(ctx, clientBasePath+"/galleries/"+url.PathEscape(galleryID)+"/photos", &photos); err != nil {
		return nil, err
	}

	return photos, nil
}

// OrderRequest is a client's print/download order for a set of photos.
type OrderRequest struct {
	ClientEmail string   `json:"clientEmail"`
	Comment     string   `json:"comment,omitempty"`
	PhotoIDs    []string `json:"photoIds"`
}

// SubmitOrder places an order against the shared gallery. Orders are
// created by POSTing to the gallery resource itself, not a sub-resource.
func (c *Client) SubmitOrder(ctx context.Context, galleryID string, order OrderRequest) (*api.Order, error) {
	if order.ClientEmail == "" {
		return nil, fmt.Errorf("%w: client email is required", api.ErrValidation)
	}

	if len(order.PhotoIDs) == 0 {
		return nil, fmt.Errorf("%w: an order needs at least one photo", api.ErrValidation)
	}

	body, err := json.Marshal(order)
	if err != nil {
		return nil, fmt.Errorf("clientaccess: encoding order: %w", err)
	}

	path := clientBasePath + "/galleries/" + url.PathEscape(galleryID)

	data, err := c.do(ctx, http.MethodPost, path, body)
	if err != nil {
		return nil, err
	}

	var placed api.Order
	if err := json.Unmarshal(data, &placed); err != nil {
		return nil, fmt.Errorf("clientaccess: decoding order response: %w", err)
	}

	return &placed, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	data, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("clientaccess: decoding response: %w", err)
	}

	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("clientaccess: creating request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.shareToken)

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("clientaccess: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("clientaccess: reading response: %w", err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return data, nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusNotFound:
		c.logger.Debug("share token rejected",
			slog.String("path", path),
			slog.Int("status", resp.StatusCode),
		)

		return nil, ErrAccessDenied
	default:
		return nil, &api.Error{Status: resp.StatusCode, Message: string(data)}
	}
}
