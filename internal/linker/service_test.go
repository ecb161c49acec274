package linker

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"memoria-client/internal/availability"
	"memoria-client/internal/domain"
	appErrors "memoria-client/pkg/errors"
)

// fakeBackend implements Mutator and GlobalResolver over an in-memory
// link set with the same uniqueness rule as the real backend.
type fakeBackend struct {
	media       []string
	nodes       []string
	links       map[Pair]domain.Link
	failCreate  map[Pair]error
	failRefresh bool
	nextID      int
}

func newFakeBackend(media, nodes []string) *fakeBackend {
	return &fakeBackend{
		media:      media,
		nodes:      nodes,
		links:      make(map[Pair]domain.Link),
		failCreate: make(map[Pair]error),
	}
}

func (b *fakeBackend) CreateLink(ctx context.Context, mediaID, nodeID string, rel domain.Relationship) (*domain.Link, error) {
	pair := Pair{MediaID: mediaID, NodeID: nodeID}
	if err := b.failCreate[pair]; err != nil {
		return nil, err
	}
	if _, exists := b.links[pair]; exists {
		return nil, appErrors.NewConflict("media is already linked to this node")
	}
	b.nextID++
	link := domain.Link{
		LinkID:       fmt.Sprintf("l%d", b.nextID),
		MediaID:      mediaID,
		NodeID:       nodeID,
		Relationship: rel,
	}
	b.links[pair] = link
	return &link, nil
}

func (b *fakeBackend) DeleteLink(ctx context.Context, mediaID, nodeID string) error {
	pair := Pair{MediaID: mediaID, NodeID: nodeID}
	if _, exists := b.links[pair]; !exists {
		return appErrors.NewNotFound("link not found")
	}
	delete(b.links, pair)
	return nil
}

func (b *fakeBackend) Global(ctx context.Context) (*availability.GlobalView, error) {
	if b.failRefresh {
		return nil, appErrors.NewUnavailable("backend unreachable", nil)
	}
	view := &availability.GlobalView{}
	for _, id := range b.media {
		item := domain.MediaItem{ID: id}
		if b.mediaLinked(id) {
			view.Media.Linked = append(view.Media.Linked, item)
		} else {
			view.Media.Available = append(view.Media.Available, item)
		}
	}
	for _, id := range b.nodes {
		node := domain.MemoryNode{ID: id}
		if b.nodeLinked(id) {
			view.Nodes.Linked = append(view.Nodes.Linked, node)
		} else {
			view.Nodes.Available = append(view.Nodes.Available, node)
		}
	}
	return view, nil
}

func (b *fakeBackend) mediaLinked(id string) bool {
	for pair := range b.links {
		if pair.MediaID == id {
			return true
		}
	}
	return false
}

func (b *fakeBackend) nodeLinked(id string) bool {
	for pair := range b.links {
		if pair.NodeID == id {
			return true
		}
	}
	return false
}

func TestLinkIdempotent(t *testing.T) {
	b := newFakeBackend([]string{"m1"}, []string{"n1"})
	svc := NewService(b, b, nil, nil, nil)
	ctx := context.Background()

	first, err := svc.Link(ctx, "m1", "n1", domain.RelationshipPrimary)
	require.NoError(t, err)
	assert.False(t, first.AlreadyLinked)
	require.NotNil(t, first.Link)
	assert.Equal(t, 1, first.Counts.LinkedMedia)

	// Second identical create must not raise a fatal error.
	second, err := svc.Link(ctx, "m1", "n1", domain.RelationshipPrimary)
	require.NoError(t, err)
	assert.True(t, second.AlreadyLinked)
	assert.Nil(t, second.Link)

	// Effective state is one link row.
	assert.Len(t, b.links, 1)
}

func TestLinkValidation(t *testing.T) {
	b := newFakeBackend(nil, nil)
	svc := NewService(b, b, nil, nil, nil)
	ctx := context.Background()

	_, err := svc.Link(ctx, "", "n1", domain.RelationshipPrimary)
	assert.True(t, appErrors.IsValidation(err))

	_, err = svc.Link(ctx, "m1", "n1", domain.Relationship("owner"))
	assert.True(t, appErrors.IsValidation(err))
}

func TestBulkLinkCrossProduct(t *testing.T) {
	b := newFakeBackend([]string{"m1", "m2"}, []string{"n1"})
	svc := NewService(b, b, nil, nil, nil)
	ctx := context.Background()

	result, err := svc.BulkLink(ctx, []string{"m1", "m2"}, []string{"n1"}, domain.RelationshipAssociated)
	require.NoError(t, err)

	assert.Len(t, result.Created, 2)
	assert.Empty(t, result.AlreadyLinked)
	assert.Empty(t, result.Failed)
	assert.Len(t, b.links, 2)
	assert.Equal(t, 2, result.Counts.LinkedMedia)
	assert.Equal(t, 0, result.Counts.AvailableMedia)
}

func TestBulkLinkPartialSuccess(t *testing.T) {
	b := newFakeBackend([]string{"m1", "m2", "m3"}, []string{"n1"})
	svc := NewService(b, b, nil, nil, nil)
	ctx := context.Background()

	// m1 is pre-linked; m3 fails outright.
	_, err := b.CreateLink(ctx, "m1", "n1", domain.RelationshipAssociated)
	require.NoError(t, err)
	b.failCreate[Pair{MediaID: "m3", NodeID: "n1"}] = appErrors.NewInternal("boom", nil)

	result, err := svc.BulkLink(ctx, []string{"m1", "m2", "m3"}, []string{"n1"}, domain.RelationshipAssociated)
	require.NoError(t, err)

	require.Len(t, result.Created, 1)
	assert.Equal(t, "m2", result.Created[0].MediaID)
	require.Len(t, result.AlreadyLinked, 1)
	assert.Equal(t, "m1", result.AlreadyLinked[0].MediaID)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, "m3", result.Failed[0].MediaID)
}

func TestUnlinkThenRecheck(t *testing.T) {
	b := newFakeBackend([]string{"m1"}, []string{"n1"})
	svc := NewService(b, b, nil, nil, nil)
	ctx := context.Background()

	_, err := svc.Link(ctx, "m1", "n1", domain.RelationshipReference)
	require.NoError(t, err)

	result, err := svc.Unlink(ctx, "m1", "n1")
	require.NoError(t, err)
	assert.False(t, result.Degraded)
	assert.Equal(t, 1, result.Counts.AvailableMedia)
	assert.Equal(t, 0, result.Counts.LinkedMedia)

	// The backend returns not-found for a second delete; the service
	// passes it through without special handling.
	_, err = svc.Unlink(ctx, "m1", "n1")
	require.Error(t, err)
	assert.True(t, appErrors.IsNotFound(err))
}

func TestDegradedCountsWhenRefreshFails(t *testing.T) {
	b := newFakeBackend([]string{"m1", "m2"}, []string{"n1"})
	svc := NewService(b, b, nil, nil, nil)
	ctx := context.Background()

	// Seed last known counts via a successful refresh.
	counts, err := svc.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, counts.AvailableMedia)

	b.failRefresh = true
	result, err := svc.Link(ctx, "m1", "n1", domain.RelationshipPrimary)
	require.NoError(t, err)
	assert.True(t, result.Degraded)
	assert.Equal(t, 1, result.Counts.LinkedMedia)
	assert.Equal(t, 1, result.Counts.AvailableMedia)
}

func TestNotifyCallback(t *testing.T) {
	b := newFakeBackend([]string{"m1"}, []string{"n1"})
	var gotCounts Counts
	var called int
	svc := NewService(b, b, nil, nil, func(c Counts, degraded bool) {
		gotCounts = c
		called++
	})
	ctx := context.Background()

	_, err := svc.Link(ctx, "m1", "n1", domain.RelationshipPrimary)
	require.NoError(t, err)
	assert.Equal(t, 1, called)
	assert.Equal(t, 1, gotCounts.LinkedMedia)
}
