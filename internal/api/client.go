package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"golang.org/x/sync/singleflight"

	"github.com/prooflab/prooflab-go/internal/session"
)

const userAgent = "prooflab-go/0.1"

// refreshPath is the credential refresh endpoint. It lives outside the
// /api/v1 prefix and is called directly, never through Do — routing it
// through the gateway would recurse on a 401.
const refreshPath = "/auth/refresh-token"

// Client is the authenticated gateway to the prooflab backend. It attaches
// the session's bearer credential to every request, transparently refreshes
// an expired access token exactly once per request, and normalizes error
// responses.
//
// Token refresh is single-flight: when N requests fail with 401
// concurrently, only one refresh call is issued and the other N-1 wait for
// its outcome. Racing multiple refreshes would burn the one-time-use
// refresh token and sign everyone out.
type Client struct {
	baseURL    string
	httpClient *http.Client
	store      *session.Store
	logger     *slog.Logger

	refreshGroup singleflight.Group
}

// NewClient creates a gateway client. store must not be nil; it is the
// single source of credentials for all requests.
func NewClient(baseURL string, httpClient *http.Client, store *session.Store, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}

	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		store:      store,
		logger:     logger,
	}
}

// BaseURL returns the backend base URL the client was built with.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Do executes a request against the backend. The path is appended to the
// base URL. Bodies are byte slices, not readers, so the request can be
// replayed safely after a token refresh. For non-nil bodies, Content-Type
// is application/json. The caller closes the response body on success.
func (c *Client) Do(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	return c.do(ctx, method, path, body, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, hdr http.Header) (*http.Response, error) {
	sess := c.store.Current()

	resp, err := c.doOnce(ctx, method, path, body, hdr, sess.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("api: %s %s: %w", method, path, err)
	}

	if resp.StatusCode != http.StatusUnauthorized || sess.RefreshToken == "" {
		return c.finish(method, path, resp)
	}

	// 401 with a refresh token on hand: recover once, then replay.
	drainAndClose(resp.Body)

	token, refreshErr := c.refreshAccessToken(ctx, sess)
	if refreshErr != nil {
		return nil, refreshErr
	}

	c.logger.Debug("replaying request with refreshed token",
		slog.String("method", method),
		slog.String("path", path),
	)

	resp, err = c.doOnce(ctx, method, path, body, hdr, token)
	if err != nil {
		return nil, fmt.Errorf("api: %s %s (replay): %w", method, path, err)
	}

	// Already retried — a second 401 propagates as-is.
	return c.finish(method, path, resp)
}

// finish passes 2xx responses through and converts everything else into a
// normalized *Error.
func (c *Client) finish(method, path string, resp *http.Response) (*http.Response, error) {
	if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices {
		c.logger.Debug("request succeeded",
			slog.String("method", method),
			slog.String("path", path),
			slog.Int("status", resp.StatusCode),
		)

		return resp, nil
	}

	errBody, readErr := io.ReadAll(resp.Body)
	resp.Body.Close()

	if readErr != nil {
		errBody = nil
	}

	apiErr := &Error{
		Status:  resp.StatusCode,
		Message: "request failed",
		Err:     classifyStatus(resp.StatusCode),
	}

	// Backend errors are JSON objects; keep the decoded payload for
	// user-facing reporting, falling back to the raw text.
	var payload any
	if json.Unmarshal(errBody, &payload) == nil {
		apiErr.Data = payload
	} else if len(errBody) > 0 {
		apiErr.Message = string(errBody)
	}

	c.logger.Warn("request failed",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", resp.StatusCode),
	)

	return nil, apiErr
}

// doOnce executes a single HTTP request with the given access token.
func (c *Client) doOnce(
	ctx context.Context, method, path string, body []byte, hdr http.Header, accessToken string,
) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	for key, values := range hdr {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}

	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	req.Header.Set("User-Agent", userAgent)

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.httpClient.Do(req)
}

// refreshResponse is the JSON shape of the refresh endpoint.
type refreshResponse struct {
	IDToken      string `json:"id_token"`
	RefreshToken string `json:"refresh_token"`
}

// refreshAccessToken exchanges the session's refresh token for a new access
// token and persists the new pair. Concurrent callers holding the same
// credential generation coalesce into one refresh call via singleflight;
// keying by the refresh token means a new generation gets its own flight.
// On failure the store is cleared and ErrNotLoggedIn is returned.
func (c *Client) refreshAccessToken(ctx context.Context, stale session.Session) (string, error) {
	token, err, shared := c.refreshGroup.Do(stale.RefreshToken, func() (any, error) {
		// Another request may have already rotated the credentials while
		// this one was waiting on the 401 response. If so, reuse them
		// instead of spending the refresh token again.
		if cur := c.store.Current(); cur.AccessToken != "" && cur.AccessToken != stale.AccessToken {
			return cur.AccessToken, nil
		}

		return c.callRefreshEndpoint(ctx, stale)
	})
	if err != nil {
		c.logger.Warn("token refresh failed, clearing session",
			slog.String("error", err.Error()),
		)

		if clearErr := c.store.Clear(); clearErr != nil {
			c.logger.Warn("failed to clear session", slog.String("error", clearErr.Error()))
		}

		return "", fmt.Errorf("api: token refresh failed: %w: %w", ErrNotLoggedIn, err)
	}

	if shared {
		c.logger.Debug("token refresh coalesced with concurrent request")
	}

	return token.(string), nil
}

// callRefreshEndpoint performs the actual refresh round trip and persists
// the rotated pair atomically. Runs inside the singleflight group.
func (c *Client) callRefreshEndpoint(ctx context.Context, stale session.Session) (string, error) {
	c.logger.Info("access token expired, refreshing")

	body, err := json.Marshal(map[string]string{"refresh_token": stale.RefreshToken})
	if err != nil {
		return "", fmt.Errorf("encoding refresh request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+refreshPath, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating refresh request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("refresh request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errBody, _ := io.ReadAll(resp.Body) //nolint:errcheck // best-effort read for error message
		return "", fmt.Errorf("refresh rejected with status %d: %s", resp.StatusCode, string(errBody))
	}

	var rr refreshResponse
	if decErr := json.NewDecoder(resp.Body).Decode(&rr); decErr != nil {
		return "", fmt.Errorf("decoding refresh response: %w", decErr)
	}

	if rr.IDToken == "" {
		return "", fmt.Errorf("refresh response missing id_token")
	}

	next := session.Session{
		AccessToken:  rr.IDToken,
		RefreshToken: rr.RefreshToken,
	}

	// Some identity providers do not rotate the refresh token; keep the
	// old one rather than dropping automatic refresh on the floor.
	if next.RefreshToken == "" {
		next.RefreshToken = stale.RefreshToken
	}

	if saveErr := c.store.Save(next); saveErr != nil {
		return "", fmt.Errorf("persisting refreshed session: %w", saveErr)
	}

	c.logger.Info("token refresh successful")

	return next.AccessToken, nil
}

// getJSON performs a GET and decodes the JSON response into out.
func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	return c.doJSON(ctx, http.MethodGet, path, nil, out, nil)
}

// doJSON marshals in (when non-nil), executes the request, and decodes the
// response into out (when non-nil).
func (c *Client) doJSON(ctx context.Context, method, path string, in, out any, hdr http.Header) error {
	var body []byte

	if in != nil {
		var err error

		body, err = json.Marshal(in)
		if err != nil {
			return fmt.Errorf("api: encoding %s %s request: %w", method, path, err)
		}
	}

	resp, err := c.do(ctx, method, path, body, hdr)
	if err != nil {
		return err
	}
	defer drainAndClose(resp.Body)

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("api: decoding %s %s response: %w", method, path, err)
	}

	return nil
}

// drainAndClose discards any remaining body so the connection can be reused.
func drainAndClose(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, body) //nolint:errcheck // best-effort drain
	body.Close()
}
