package server_test

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	clientauth "memoria-client/internal/auth"
	"memoria-client/internal/availability"
	"memoria-client/internal/client"
	"memoria-client/internal/config"
	"memoria-client/internal/domain"
	"memoria-client/internal/linker"
	"memoria-client/internal/server"
	"memoria-client/pkg/api"
	"memoria-client/pkg/auth"
	appErrors "memoria-client/pkg/errors"
)

const testSecret = "integration-test-secret"

func startServer(t *testing.T) *httptest.Server {
	t.Helper()
	validator, err := auth.NewJWTValidator(testSecret, "memoria")
	require.NoError(t, err)
	router := server.NewRouter(server.NewStore(), validator, zap.NewNop(), nil)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func mintToken(t *testing.T, userID string, roles []string) string {
	t.Helper()
	gen, err := auth.NewJWTGenerator(testSecret, "memoria", time.Hour)
	require.NoError(t, err)
	token, err := gen.GenerateToken(userID, userID+"@example.com", roles)
	require.NoError(t, err)
	return token
}

func newClient(t *testing.T, baseURL, token string) *client.Client {
	t.Helper()
	cfg := config.Default()
	cfg.API.BaseURL = baseURL
	c, err := client.New(cfg, clientauth.NewStaticTokenProvider(token), nil, nil)
	require.NoError(t, err)
	return c
}

func TestRejectsMissingAndInvalidTokens(t *testing.T) {
	srv := startServer(t)
	ctx := context.Background()

	t.Run("MissingToken", func(t *testing.T) {
		c := newClient(t, srv.URL, "not-a-jwt")
		_, err := c.ListMedia(ctx, api.MediaFilters{})
		require.Error(t, err)
		assert.True(t, appErrors.IsUnauthorized(err))
	})

	t.Run("WrongSecret", func(t *testing.T) {
		gen, err := auth.NewJWTGenerator("another-secret", "memoria", time.Hour)
		require.NoError(t, err)
		token, err := gen.GenerateToken("u1", "u1@example.com", nil)
		require.NoError(t, err)

		c := newClient(t, srv.URL, token)
		_, err = c.ListMedia(ctx, api.MediaFilters{})
		require.Error(t, err)
		assert.True(t, appErrors.IsUnauthorized(err))
	})
}

func TestAdminRoutesRequireAdminRole(t *testing.T) {
	srv := startServer(t)
	ctx := context.Background()

	plain := newClient(t, srv.URL, mintToken(t, "u1", nil))
	_, err := plain.ListUsers(ctx)
	require.Error(t, err)
	assert.True(t, appErrors.IsUnauthorized(err))

	admin := newClient(t, srv.URL, mintToken(t, "root", []string{"admin"}))
	users, err := admin.ListUsers(ctx)
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestAdminCRUD(t *testing.T) {
	srv := startServer(t)
	ctx := context.Background()
	admin := newClient(t, srv.URL, mintToken(t, "root", []string{"admin"}))

	user, err := admin.CreateUser(ctx, api.User{Email: "member@example.com", Name: "Member"})
	require.NoError(t, err)
	require.NotEmpty(t, user.ID)

	pkg, err := admin.CreateLimitPackage(ctx, api.LimitPackage{Name: "basic", MaxMediaItems: 100, MaxNodes: 20})
	require.NoError(t, err)

	sub, err := admin.CreateSubscription(ctx, api.Subscription{UserID: user.ID, PackageID: pkg.ID})
	require.NoError(t, err)
	assert.Equal(t, "active", sub.Status)

	pkg.MaxNodes = 50
	updated, err := admin.UpdateLimitPackage(ctx, pkg.ID, *pkg)
	require.NoError(t, err)
	assert.Equal(t, 50, updated.MaxNodes)

	require.NoError(t, admin.DeleteSubscription(ctx, sub.ID))
	require.NoError(t, admin.DeleteLimitPackage(ctx, pkg.ID))
	require.NoError(t, admin.DeleteUser(ctx, user.ID))

	err = admin.DeleteUser(ctx, user.ID)
	require.Error(t, err)
	assert.True(t, appErrors.IsNotFound(err))
}

// TestEventLinkingLifecycle walks a full organize-an-event flow through
// the real client, resolver, and linker: create an event node, upload
// two photos, bulk link both, then free one up again.
func TestEventLinkingLifecycle(t *testing.T) {
	srv := startServer(t)
	ctx := context.Background()
	c := newClient(t, srv.URL, mintToken(t, "u1", nil))

	resolver := availability.New(c, availability.Options{}, zap.NewNop(), nil)
	svc := linker.NewService(c, resolver, zap.NewNop(), nil, nil)

	node, err := c.CreateNode(ctx, api.CreateNodeRequest{
		Title: "Paris Trip",
		Type:  "event",
		Metadata: api.NodeMetadata{
			Location: "Paris",
			Date:     "2024-06-01",
		},
	})
	require.NoError(t, err)

	m1, err := c.UploadMedia(ctx, "louvre.jpg", domain.MediaTypeImage,
		strings.NewReader("jpeg bytes"), api.MediaMetadata{Width: 800, Height: 600})
	require.NoError(t, err)
	m2, err := c.UploadMedia(ctx, "seine.jpg", domain.MediaTypeImage,
		strings.NewReader("jpeg bytes"), api.MediaMetadata{})
	require.NoError(t, err)

	// Before linking everything is available.
	view, err := resolver.Global(ctx)
	require.NoError(t, err)
	assert.Len(t, view.Media.Available, 2)
	assert.Empty(t, view.Media.Linked)
	assert.Len(t, view.Nodes.Available, 1)

	bulk, err := svc.BulkLink(ctx, []string{m1.ID, m2.ID}, []string{node.ID}, domain.RelationshipAssociated)
	require.NoError(t, err)
	assert.Len(t, bulk.Created, 2)
	assert.Empty(t, bulk.Failed)
	assert.False(t, bulk.Degraded)
	assert.Equal(t, 2, bulk.Counts.LinkedMedia)
	assert.Equal(t, 0, bulk.Counts.AvailableMedia)
	assert.Equal(t, 1, bulk.Counts.LinkedNodes)

	// Relinking the same pair is a soft success.
	res, err := svc.Link(ctx, m1.ID, node.ID, domain.RelationshipAssociated)
	require.NoError(t, err)
	assert.True(t, res.AlreadyLinked)
	assert.Nil(t, res.Link)

	anchored, err := resolver.ForNode(ctx, node.ID)
	require.NoError(t, err)
	assert.Len(t, anchored.NodeLinks, 2)
	assert.Empty(t, anchored.Media.Available)
	assert.Empty(t, anchored.FailedMedia)

	// Unlink one photo and it becomes available again.
	unlinked, err := svc.Unlink(ctx, m2.ID, node.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, unlinked.Counts.LinkedMedia)
	assert.Equal(t, 1, unlinked.Counts.AvailableMedia)

	summary, err := c.GetAnalytics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.TotalMedia)
	assert.Equal(t, 1, summary.TotalLinks)
	assert.Equal(t, 1, summary.LinkedMedia)
	assert.Equal(t, 1, summary.UnlinkedMedia)
}

func TestCascadeThroughClient(t *testing.T) {
	srv := startServer(t)
	ctx := context.Background()
	c := newClient(t, srv.URL, mintToken(t, "u1", nil))

	node, err := c.CreateNode(ctx, api.CreateNodeRequest{Title: "Trip", Type: "event"})
	require.NoError(t, err)
	media, err := c.UploadMedia(ctx, "a.jpg", domain.MediaTypeImage, strings.NewReader("x"), api.MediaMetadata{})
	require.NoError(t, err)
	_, err = c.CreateLink(ctx, media.ID, node.ID, domain.RelationshipPrimary)
	require.NoError(t, err)

	require.NoError(t, c.DeleteNode(ctx, node.ID))

	links, err := c.GetLinksForMedia(ctx, media.ID)
	require.NoError(t, err)
	assert.Empty(t, links)
}

func TestValidationRejectedServerSide(t *testing.T) {
	srv := startServer(t)
	ctx := context.Background()
	c := newClient(t, srv.URL, mintToken(t, "u1", nil))

	_, err := c.ListMedia(ctx, api.MediaFilters{Type: "document"})
	require.Error(t, err)
	assert.True(t, appErrors.IsValidation(err))

	node, err := c.CreateNode(ctx, api.CreateNodeRequest{Title: "Target", Type: "event"})
	require.NoError(t, err)
	require.NoError(t, c.DeleteNode(ctx, node.ID))

	err = c.DeleteNode(ctx, node.ID)
	require.Error(t, err)
	assert.True(t, appErrors.IsNotFound(err))
}
