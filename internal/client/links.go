package client

import (
	"context"
	"net/http"
	"net/url"

	"memoria-client/internal/domain"
	"memoria-client/internal/validation"
	"memoria-client/pkg/api"
	appErrors "memoria-client/pkg/errors"
)

// CreateLink links a media item to a node with the given relationship.
// A duplicate (media, node) pair comes back as a conflict error; callers
// that want idempotent semantics live in the linker package.
func (c *Client) CreateLink(ctx context.Context, mediaID, nodeID string, rel domain.Relationship) (*domain.Link, error) {
	req := api.CreateLinkRequest{
		MediaID:      mediaID,
		NodeID:       nodeID,
		Relationship: string(rel),
	}
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	var resp api.LinkResponse
	if err := c.do(ctx, "CreateLink", http.MethodPost, "/api/links", nil, req, &resp); err != nil {
		return nil, err
	}

	parsed, _ := domain.ParseRelationship(resp.Relationship)
	return &domain.Link{
		LinkID:       resp.LinkID,
		MediaID:      resp.MediaID,
		NodeID:       resp.NodeID,
		Relationship: parsed,
		CreatedAt:    parseTime(resp.CreatedAt),
	}, nil
}

// DeleteLink removes the link between a media item and a node. There is
// no existence pre-check; a not-found from the backend is returned
// as-is.
func (c *Client) DeleteLink(ctx context.Context, mediaID, nodeID string) error {
	if mediaID == "" || nodeID == "" {
		return appErrors.NewValidation("media id and node id cannot be empty")
	}

	query := url.Values{}
	query.Set("mediaId", mediaID)
	query.Set("nodeId", nodeID)
	return c.do(ctx, "DeleteLink", http.MethodDelete, "/api/links", query, nil, nil)
}
