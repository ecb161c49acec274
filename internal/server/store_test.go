package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"memoria-client/internal/domain"
	"memoria-client/pkg/api"
	appErrors "memoria-client/pkg/errors"
)

func TestLinkUniqueness(t *testing.T) {
	s := NewStore()
	media := s.CreateMedia("u1", domain.MediaTypeImage, "a.jpg", domain.MediaMeta{})
	node := s.CreateNode("u1", "Trip", "", domain.NodeTypeEvent, domain.NodeMeta{})

	_, err := s.CreateLink("u1", media.ID, node.ID, domain.RelationshipPrimary)
	require.NoError(t, err)

	_, err = s.CreateLink("u1", media.ID, node.ID, domain.RelationshipAssociated)
	require.Error(t, err)
	assert.True(t, appErrors.IsConflict(err))
	assert.Contains(t, err.Error(), "already linked")
}

func TestDeleteMediaCascadesLinks(t *testing.T) {
	s := NewStore()
	media := s.CreateMedia("u1", domain.MediaTypeImage, "a.jpg", domain.MediaMeta{})
	node := s.CreateNode("u1", "Trip", "", domain.NodeTypeEvent, domain.NodeMeta{})
	_, err := s.CreateLink("u1", media.ID, node.ID, domain.RelationshipPrimary)
	require.NoError(t, err)

	require.NoError(t, s.DeleteMedia("u1", media.ID))

	links, err := s.LinksForNode("u1", node.ID)
	require.NoError(t, err)
	assert.Empty(t, links)
}

func TestDeleteNodeCascadesLinksKeepsMedia(t *testing.T) {
	s := NewStore()
	media := s.CreateMedia("u1", domain.MediaTypeImage, "a.jpg", domain.MediaMeta{})
	node := s.CreateNode("u1", "Trip", "", domain.NodeTypeEvent, domain.NodeMeta{})
	_, err := s.CreateLink("u1", media.ID, node.ID, domain.RelationshipPrimary)
	require.NoError(t, err)

	require.NoError(t, s.DeleteNode("u1", node.ID))

	links, err := s.LinksForMedia("u1", media.ID)
	require.NoError(t, err)
	assert.Empty(t, links)

	items := s.ListMedia("u1", "", "")
	require.Len(t, items, 1)
}

func TestUsersAreIsolated(t *testing.T) {
	s := NewStore()
	s.CreateMedia("u1", domain.MediaTypeImage, "a.jpg", domain.MediaMeta{})
	s.CreateNode("u2", "Trip", "", domain.NodeTypeEvent, domain.NodeMeta{})

	assert.Empty(t, s.ListMedia("u2", "", ""))
	assert.Empty(t, s.ListNodes("u1", "", ""))
}

func TestListFilters(t *testing.T) {
	s := NewStore()
	s.CreateMedia("u1", domain.MediaTypeImage, "beach.jpg", domain.MediaMeta{})
	s.CreateMedia("u1", domain.MediaTypeVideo, "beach.mp4", domain.MediaMeta{})
	s.CreateMedia("u1", domain.MediaTypeImage, "city.jpg", domain.MediaMeta{})

	assert.Len(t, s.ListMedia("u1", "image", ""), 2)
	assert.Len(t, s.ListMedia("u1", "", "BEACH"), 2)
	assert.Len(t, s.ListMedia("u1", "video", "beach"), 1)
}

func TestAnalyticsAggregation(t *testing.T) {
	s := NewStore()
	m1 := s.CreateMedia("u1", domain.MediaTypeImage, "a.jpg", domain.MediaMeta{})
	s.CreateMedia("u1", domain.MediaTypeAudio, "b.mp3", domain.MediaMeta{})
	node := s.CreateNode("u1", "Trip", "", domain.NodeTypeEvent, domain.NodeMeta{})
	_, err := s.CreateLink("u1", m1.ID, node.ID, domain.RelationshipPrimary)
	require.NoError(t, err)

	summary := s.Analytics("u1")
	assert.Equal(t, 2, summary.TotalMedia)
	assert.Equal(t, 1, summary.TotalNodes)
	assert.Equal(t, 1, summary.TotalLinks)
	assert.Equal(t, 1, summary.LinkedMedia)
	assert.Equal(t, 1, summary.UnlinkedMedia)
	assert.Equal(t, 1, summary.MediaByType["image"])
	assert.Equal(t, 1, summary.MediaByType["audio"])
	assert.Equal(t, 1, summary.NodesByType["event"])
}

func TestSubscriptionRequiresPackage(t *testing.T) {
	s := NewStore()
	user := s.CreateUser(api.User{Email: "a@example.com"})

	_, err := s.CreateSubscription(api.Subscription{UserID: user.ID, PackageID: "missing"})
	require.Error(t, err)
	assert.True(t, appErrors.IsNotFound(err))

	pkg := s.CreateLimitPackage(api.LimitPackage{Name: "basic", MaxMediaItems: 100})
	sub, err := s.CreateSubscription(api.Subscription{UserID: user.ID, PackageID: pkg.ID})
	require.NoError(t, err)
	assert.Equal(t, "active", sub.Status)
}
