package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"memoria-client/internal/auth"
	"memoria-client/internal/config"
	"memoria-client/internal/domain"
	"memoria-client/pkg/api"
	appErrors "memoria-client/pkg/errors"
)

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	cfg := config.Default()
	cfg.API.BaseURL = baseURL
	c, err := New(cfg, auth.NewStaticTokenProvider("test-token"), nil, nil)
	require.NoError(t, err)
	return c
}

func TestEnvelopeDecode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.Equal(t, "/api/nodes", r.URL.Path)
		api.Success(w, http.StatusOK, []api.NodeResponse{
			{ID: "n1", Title: "Paris Trip", Type: "event", CreatedAt: "2024-06-01T10:00:00Z"},
		})
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	nodes, err := c.ListNodes(context.Background(), api.NodeFilters{})
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.Equal(t, "n1", nodes[0].ID)
	assert.Equal(t, domain.NodeTypeEvent, nodes[0].Type)
	assert.Equal(t, 2024, nodes[0].CreatedAt.Year())
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		message string
		check   func(error) bool
	}{
		{"Unauthorized", http.StatusUnauthorized, "token has expired", appErrors.IsUnauthorized},
		{"Forbidden", http.StatusForbidden, "admin role required", appErrors.IsUnauthorized},
		{"NotFound", http.StatusNotFound, "node not found", appErrors.IsNotFound},
		{"Conflict", http.StatusConflict, "media is already linked to this node", appErrors.IsConflict},
		{"AlreadyLinkedWithoutConflictStatus", http.StatusBadRequest, "media is Already Linked to this node", appErrors.IsConflict},
		{"Validation", http.StatusBadRequest, "title is required", appErrors.IsValidation},
		{"ServerError", http.StatusInternalServerError, "boom", appErrors.IsInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				api.Error(w, tt.status, tt.message)
			}))
			defer srv.Close()

			c := newTestClient(t, srv.URL)
			err := c.DeleteNode(context.Background(), "n1")
			require.Error(t, err)
			assert.True(t, tt.check(err), "unexpected error type: %v", err)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestMissingTokenFailsFast(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&hits, 1)
		api.Success(w, http.StatusOK, nil)
	}))
	defer srv.Close()

	cfg := config.Default()
	cfg.API.BaseURL = srv.URL
	c, err := New(cfg, auth.NewStaticTokenProvider(""), nil, nil)
	require.NoError(t, err)

	_, err = c.ListMedia(context.Background(), api.MediaFilters{})
	require.Error(t, err)
	assert.True(t, appErrors.IsUnauthorized(err))
	assert.Zero(t, atomic.LoadInt32(&hits), "no request should reach the server without a token")
}

func TestTransportFailureIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))
	srv.Close()

	c := newTestClient(t, srv.URL)
	_, err := c.ListMedia(context.Background(), api.MediaFilters{})
	require.Error(t, err)
	assert.True(t, appErrors.IsUnavailable(err), "connection refused should map to unavailable: %v", err)
}

func TestBreakerOpensAfterRepeatedFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		api.Error(w, http.StatusInternalServerError, "boom")
	}))
	defer srv.Close()

	cfg := config.Default()
	cfg.API.BaseURL = srv.URL
	cfg.Breaker.MinRequests = 3
	cfg.Breaker.FailureThreshold = 0.5
	c, err := New(cfg, auth.NewStaticTokenProvider("test-token"), nil, nil)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		err := c.DeleteNode(context.Background(), "n1")
		require.Error(t, err)
		assert.True(t, appErrors.IsInternal(err))
	}

	// The breaker is open now; calls fail locally as unavailable.
	err = c.DeleteNode(context.Background(), "n1")
	require.Error(t, err)
	assert.True(t, appErrors.IsUnavailable(err), "open breaker should map to unavailable: %v", err)
}

func TestUploadMediaMultipart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "beach.jpg", header.Filename)
		assert.Equal(t, "image", r.FormValue("type"))

		var meta api.MediaMetadata
		require.NoError(t, json.Unmarshal([]byte(r.FormValue("metadata")), &meta))
		assert.Equal(t, 800, meta.Width)

		api.Success(w, http.StatusCreated, api.MediaResponse{
			ID:           "m1",
			Type:         "image",
			OriginalName: header.Filename,
			Metadata:     meta,
			CreatedAt:    "2024-06-01T10:00:00Z",
		})
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	item, err := c.UploadMedia(context.Background(), "beach.jpg", domain.MediaTypeImage,
		strings.NewReader("not really a jpeg"), api.MediaMetadata{Width: 800, Height: 600})
	require.NoError(t, err)
	assert.Equal(t, "m1", item.ID)
	assert.Equal(t, domain.MediaTypeImage, item.Type)
	assert.Equal(t, 800, item.Meta.Width)
}

func TestUploadMediaRejectsBadType(t *testing.T) {
	c := newTestClient(t, "http://127.0.0.1:0")
	_, err := c.UploadMedia(context.Background(), "x.bin", domain.MediaType("document"), strings.NewReader("x"), api.MediaMetadata{})
	require.Error(t, err)
	assert.True(t, appErrors.IsValidation(err))
}

func TestCreateLinkConflictSurfaced(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req api.CreateLinkRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		api.Error(w, http.StatusConflict, fmt.Sprintf("media %s is already linked to node %s", req.MediaID, req.NodeID))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	_, err := c.CreateLink(context.Background(), "m1", "n1", domain.RelationshipPrimary)
	require.Error(t, err)
	assert.True(t, appErrors.IsConflict(err))
}

func TestCreateLinkValidatedLocally(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	_, err := c.CreateLink(context.Background(), "m1", "n1", domain.Relationship("friend"))
	require.Error(t, err)
	assert.True(t, appErrors.IsValidation(err))
	assert.Zero(t, atomic.LoadInt32(&hits))
}
