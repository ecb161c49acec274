package server

import (
	"time"

	"memoria-client/internal/domain"
	"memoria-client/pkg/api"
)

func wireMedia(item domain.MediaItem) api.MediaResponse {
	resp := api.MediaResponse{
		ID:           item.ID,
		Type:         string(item.Type),
		OriginalName: item.OriginalName,
		CreatedAt:    item.CreatedAt.Format(time.RFC3339),
		Metadata: api.MediaMetadata{
			Width:         item.Meta.Width,
			Height:        item.Meta.Height,
			DurationMs:    item.Meta.Duration.Milliseconds(),
			CaptureDevice: item.Meta.CaptureDevice,
			Tags:          item.Meta.Tags,
			Extra:         item.Meta.Extra,
		},
	}
	if item.Meta.GPS != nil {
		resp.Metadata.GPS = &api.GPSPoint{
			Latitude:  item.Meta.GPS.Latitude,
			Longitude: item.Meta.GPS.Longitude,
		}
	}
	return resp
}

func wireMediaList(items []domain.MediaItem) []api.MediaResponse {
	out := make([]api.MediaResponse, 0, len(items))
	for _, item := range items {
		out = append(out, wireMedia(item))
	}
	return out
}

func wireNode(node domain.MemoryNode) api.NodeResponse {
	return api.NodeResponse{
		ID:          node.ID,
		Title:       node.Title,
		Description: node.Description,
		Type:        string(node.Type),
		CreatedAt:   node.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   node.UpdatedAt.Format(time.RFC3339),
		Metadata: api.NodeMetadata{
			Location:     node.Meta.Location,
			Date:         node.Meta.Date,
			Participants: node.Meta.Participants,
			FullName:     node.Meta.FullName,
			Birthday:     node.Meta.Birthday,
			From:         node.Meta.From,
			To:           node.Meta.To,
			Extra:        node.Meta.Extra,
		},
	}
}

func wireNodeList(nodes []domain.MemoryNode) []api.NodeResponse {
	out := make([]api.NodeResponse, 0, len(nodes))
	for _, node := range nodes {
		out = append(out, wireNode(node))
	}
	return out
}

func wireLink(link domain.Link) api.LinkResponse {
	return api.LinkResponse{
		LinkID:       link.LinkID,
		MediaID:      link.MediaID,
		NodeID:       link.NodeID,
		Relationship: string(link.Relationship),
		CreatedAt:    link.CreatedAt.Format(time.RFC3339),
	}
}

func wireLinkList(links []domain.Link) []api.LinkResponse {
	out := make([]api.LinkResponse, 0, len(links))
	for _, link := range links {
		out = append(out, wireLink(link))
	}
	return out
}

func nodeMetaFromWire(m api.NodeMetadata) domain.NodeMeta {
	return domain.NodeMeta{
		Location:     m.Location,
		Date:         m.Date,
		Participants: m.Participants,
		FullName:     m.FullName,
		Birthday:     m.Birthday,
		From:         m.From,
		To:           m.To,
		Extra:        m.Extra,
	}
}

func mediaMetaFromWire(m api.MediaMetadata) domain.MediaMeta {
	meta := domain.MediaMeta{
		Width:         m.Width,
		Height:        m.Height,
		Duration:      time.Duration(m.DurationMs) * time.Millisecond,
		CaptureDevice: m.CaptureDevice,
		Tags:          m.Tags,
		Extra:         m.Extra,
	}
	if m.GPS != nil {
		meta.GPS = &domain.GPS{Latitude: m.GPS.Latitude, Longitude: m.GPS.Longitude}
	}
	return meta
}
