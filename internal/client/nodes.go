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

// ListNodes returns the user's memory nodes, optionally narrowed by type
// or a search string over the title.
func (c *Client) ListNodes(ctx context.Context, filters api.NodeFilters) ([]domain.MemoryNode, error) {
	query := url.Values{}
	if filters.Type != "" {
		query.Set("type", filters.Type)
	}
	if filters.Search != "" {
		query.Set("search", filters.Search)
	}

	var resp []api.NodeResponse
	if err := c.do(ctx, "ListNodes", http.MethodGet, "/api/nodes", query, nil, &resp); err != nil {
		return nil, err
	}

	nodes := make([]domain.MemoryNode, 0, len(resp))
	for _, n := range resp {
		nodes = append(nodes, nodeFromWire(n))
	}
	return nodes, nil
}

// CreateNode creates a memory node. The request is validated locally
// before any network call.
func (c *Client) CreateNode(ctx context.Context, req api.CreateNodeRequest) (*domain.MemoryNode, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	var resp api.NodeResponse
	if err := c.do(ctx, "CreateNode", http.MethodPost, "/api/nodes", nil, req, &resp); err != nil {
		return nil, err
	}
	node := nodeFromWire(resp)
	return &node, nil
}

// UpdateNode edits a memory node's title, description, or metadata.
func (c *Client) UpdateNode(ctx context.Context, nodeID string, req api.UpdateNodeRequest) (*domain.MemoryNode, error) {
	if nodeID == "" {
		return nil, appErrors.NewValidation("node id cannot be empty")
	}
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	var resp api.NodeResponse
	path := "/api/nodes/" + url.PathEscape(nodeID)
	if err := c.do(ctx, "UpdateNode", http.MethodPut, path, nil, req, &resp); err != nil {
		return nil, err
	}
	node := nodeFromWire(resp)
	return &node, nil
}

// DeleteNode removes a memory node. The backend cascades the node's
// links and leaves media items intact.
func (c *Client) DeleteNode(ctx context.Context, nodeID string) error {
	if nodeID == "" {
		return appErrors.NewValidation("node id cannot be empty")
	}
	return c.do(ctx, "DeleteNode", http.MethodDelete, "/api/nodes/"+url.PathEscape(nodeID), nil, nil, nil)
}

// GetLinksForNode returns every link naming the node.
func (c *Client) GetLinksForNode(ctx context.Context, nodeID string) ([]domain.Link, error) {
	if nodeID == "" {
		return nil, appErrors.NewValidation("node id cannot be empty")
	}

	var resp []api.LinkResponse
	path := "/api/nodes/" + url.PathEscape(nodeID) + "/links"
	if err := c.do(ctx, "GetLinksForNode", http.MethodGet, path, nil, nil, &resp); err != nil {
		return nil, err
	}
	return linksFromWire(resp), nil
}

func nodeFromWire(n api.NodeResponse) domain.MemoryNode {
	nodeType, _ := domain.ParseNodeType(n.Type)
	return domain.MemoryNode{
		ID:          n.ID,
		Title:       n.Title,
		Description: n.Description,
		Type:        nodeType,
		Meta: domain.NodeMeta{
			Location:     n.Metadata.Location,
			Date:         n.Metadata.Date,
			Participants: n.Metadata.Participants,
			FullName:     n.Metadata.FullName,
			Birthday:     n.Metadata.Birthday,
			From:         n.Metadata.From,
			To:           n.Metadata.To,
			Extra:        n.Metadata.Extra,
		},
		CreatedAt: parseTime(n.CreatedAt),
		UpdatedAt: parseTime(n.UpdatedAt),
	}
}
