package clientaccess

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prooflab/prooflab-go/internal/api"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewClient(srv.URL, "share-token", srv.Client(), slog.Default())
}

func TestGallery_SendsShareTokenBearer(t *testing.T) {
	var gotAuth, gotPath string

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path

		json.NewEncoder(w).Encode(api.Gallery{ID: "g1", Name: "Wedding"})
	})

	gallery, err := c.Gallery(context.Background(), "g1")
	require.NoError(t, err)
	assert.Equal(t, "Bearer share-token", gotAuth)
	assert.Equal(t, "/api/v1/client/galleries/g1", gotPath)
	assert.Equal(t, "Wedding", gallery.Name)
}

func TestPhotos_ListsSharedGallery(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/client/galleries/g1/photos", r.URL.Path)
		json.NewEncoder(w).Encode([]api.Photo{{ID: "p1"}, {ID: "p2"}})
	})

	photos, err := c.Photos(context.Background(), "g1")
	require.NoError(t, err)
	assert.Len(t, photos, 2)
}

func TestDo_UnauthorizedAndNotFoundAreIndistinguishable(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusNotFound} {
		c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(status)
		})

		_, err := c.Gallery(context.Background(), "g1")
		require.ErrorIs(t, err, ErrAccessDenied, "status %d", status)

		// The error carries no hint of which case produced it.
		assert.Equal(t, ErrAccessDenied.Error(), err.Error(), "status %d", status)
	}
}

func TestSubmitOrder_PostsToGalleryResource(t *testing.T) {
	var got OrderRequest

	// Register only the route the backend actually serves: order creation
	// is a POST to the gallery resource itself, with no sub-path. A client
	// hitting any other path gets the backend's plain 404.
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/client/galleries/g1", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
			return
		}

		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(api.Order{ID: "o1", Status: api.OrderStatusPending})
	})

	c := newTestClient(t, mux.ServeHTTP)

	order, err := c.SubmitOrder(context.Background(), "g1", OrderRequest{
		ClientEmail: "client@example.com",
		Comment:     "prints of the first two",
		PhotoIDs:    []string{"p1", "p2"},
	})
	require.NoError(t, err)
	assert.Equal(t, "o1", order.ID)
	assert.Equal(t, api.OrderStatusPending, order.Status)
	assert.Equal(t, "client@example.com", got.ClientEmail)
	assert.Equal(t, []string{"p1", "p2"}, got.PhotoIDs)
}

func TestSubmitOrder_ValidatesBeforeNetwork(t *testing.T) {
	calls := 0
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	})

	_, err := c.SubmitOrder(context.Background(), "g1", OrderRequest{PhotoIDs: []string{"p1"}})
	assert.ErrorIs(t, err, api.ErrValidation)

	_, err = c.SubmitOrder(context.Background(), "g1", OrderRequest{ClientEmail: "a@b.com"})
	assert.ErrorIs(t, err, api.ErrValidation)

	assert.Zero(t, calls)
}

func TestDo_ServerErrorIsTypedNotOpaque(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := c.Gallery(context.Background(), "g1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrAccessDenied)

	var apiErr *api.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
}
