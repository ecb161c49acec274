package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"

	"memoria-client/internal/domain"
	"memoria-client/pkg/api"
	appErrors "memoria-client/pkg/errors"
)

// ListMedia returns the user's media items, optionally narrowed by type
// or a search string over the original file name.
func (c *Client) ListMedia(ctx context.Context, filters api.MediaFilters) ([]domain.MediaItem, error) {
	query := url.Values{}
	if filters.Type != "" {
		query.Set("type", filters.Type)
	}
	if filters.Search != "" {
		query.Set("search", filters.Search)
	}

	var resp []api.MediaResponse
	if err := c.do(ctx, "ListMedia", http.MethodGet, "/api/media", query, nil, &resp); err != nil {
		return nil, err
	}

	items := make([]domain.MediaItem, 0, len(resp))
	for _, m := range resp {
		items = append(items, mediaFromWire(m))
	}
	return items, nil
}

// UploadMedia uploads one file as multipart form data and returns the
// created media item. metadata may be the zero value.
func (c *Client) UploadMedia(ctx context.Context, name string, mediaType domain.MediaType, content io.Reader, metadata api.MediaMetadata) (*domain.MediaItem, error) {
	if name == "" {
		return nil, appErrors.NewValidation("file name cannot be empty")
	}
	if _, err := domain.ParseMediaType(string(mediaType)); err != nil {
		return nil, appErrors.NewValidation(err.Error())
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", name)
	if err != nil {
		return nil, appErrors.NewInternal("failed to build upload body", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return nil, appErrors.NewInternal("failed to read upload content", err)
	}
	if err := writer.WriteField("type", string(mediaType)); err != nil {
		return nil, appErrors.NewInternal("failed to build upload body", err)
	}
	meta, err := json.Marshal(metadata)
	if err != nil {
		return nil, appErrors.NewInternal("failed to encode metadata", err)
	}
	if err := writer.WriteField("metadata", string(meta)); err != nil {
		return nil, appErrors.NewInternal("failed to build upload body", err)
	}
	if err := writer.Close(); err != nil {
		return nil, appErrors.NewInternal("failed to finish upload body", err)
	}

	var resp api.MediaResponse
	if err := c.roundTrip(ctx, "UploadMedia", http.MethodPost, "/api/media", nil, &buf, writer.FormDataContentType(), &resp); err != nil {
		return nil, err
	}
	item := mediaFromWire(resp)
	return &item, nil
}

// DeleteMedia removes a media item. The backend cascades its links.
func (c *Client) DeleteMedia(ctx context.Context, mediaID string) error {
	if mediaID == "" {
		return appErrors.NewValidation("media id cannot be empty")
	}
	return c.do(ctx, "DeleteMedia", http.MethodDelete, "/api/media/"+url.PathEscape(mediaID), nil, nil, nil)
}

// GetLinksForMedia returns every link naming the media item.
func (c *Client) GetLinksForMedia(ctx context.Context, mediaID string) ([]domain.Link, error) {
	if mediaID == "" {
		return nil, appErrors.NewValidation("media id cannot be empty")
	}

	var resp []api.LinkResponse
	path := "/api/media/" + url.PathEscape(mediaID) + "/links"
	if err := c.do(ctx, "GetLinksForMedia", http.MethodGet, path, nil, nil, &resp); err != nil {
		return nil, err
	}
	return linksFromWire(resp), nil
}

func mediaFromWire(m api.MediaResponse) domain.MediaItem {
	mediaType, _ := domain.ParseMediaType(m.Type)
	item := domain.MediaItem{
		ID:           m.ID,
		Type:         mediaType,
		OriginalName: m.OriginalName,
		Meta: domain.MediaMeta{
			Width:         m.Metadata.Width,
			Height:        m.Metadata.Height,
			Duration:      time.Duration(m.Metadata.DurationMs) * time.Millisecond,
			CaptureDevice: m.Metadata.CaptureDevice,
			Tags:          m.Metadata.Tags,
			Extra:         m.Metadata.Extra,
		},
		CreatedAt: parseTime(m.CreatedAt),
	}
	if m.Metadata.GPS != nil {
		item.Meta.GPS = &domain.GPS{
			Latitude:  m.Metadata.GPS.Latitude,
			Longitude: m.Metadata.GPS.Longitude,
		}
	}
	return item
}

func linksFromWire(resp []api.LinkResponse) []domain.Link {
	links := make([]domain.Link, 0, len(resp))
	for _, l := range resp {
		rel, _ := domain.ParseRelationship(l.Relationship)
		links = append(links, domain.Link{
			LinkID:       l.LinkID,
			MediaID:      l.MediaID,
			NodeID:       l.NodeID,
			Relationship: rel,
			CreatedAt:    parseTime(l.CreatedAt),
		})
	}
	return links
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339, s)
	return t
}
