// Package domain contains the core data structures for the application,
// independent of the backend wire format or the view layer.
package domain

import (
	"fmt"
	"time"
)

// Relationship describes the nature of a link between a media item and a
// memory node. The enum is closed: the client never constructs values
// outside this set.
type Relationship string

const (
	RelationshipPrimary    Relationship = "primary"
	RelationshipAssociated Relationship = "associated"
	RelationshipReference  Relationship = "reference"
)

// ParseRelationship validates a raw relationship value.
func ParseRelationship(s string) (Relationship, error) {
	switch Relationship(s) {
	case RelationshipPrimary, RelationshipAssociated, RelationshipReference:
		return Relationship(s), nil
	}
	return "", fmt.Errorf("unknown relationship %q", s)
}

// MediaType identifies the kind of an uploaded media file.
type MediaType string

const (
	MediaTypeImage MediaType = "image"
	MediaTypeVideo MediaType = "video"
	MediaTypeAudio MediaType = "audio"
)

// ParseMediaType validates a raw media type value.
func ParseMediaType(s string) (MediaType, error) {
	switch MediaType(s) {
	case MediaTypeImage, MediaTypeVideo, MediaTypeAudio:
		return MediaType(s), nil
	}
	return "", fmt.Errorf("unknown media type %q", s)
}

// NodeType identifies the kind of a memory node.
type NodeType string

const (
	NodeTypeEvent    NodeType = "event"
	NodeTypePerson   NodeType = "person"
	NodeTypeTimeline NodeType = "timeline"
)

// ParseNodeType validates a raw node type value.
func ParseNodeType(s string) (NodeType, error) {
	switch NodeType(s) {
	case NodeTypeEvent, NodeTypePerson, NodeTypeTimeline:
		return NodeType(s), nil
	}
	return "", fmt.Errorf("unknown node type %q", s)
}

// GPS is an optional capture location on image metadata.
type GPS struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// MediaMeta is the typed metadata union for a media item. Exactly the
// fields matching the item's Type are meaningful; Extra holds genuinely
// unstructured values.
type MediaMeta struct {
	Width         int            `json:"width,omitempty"`
	Height        int            `json:"height,omitempty"`
	Duration      time.Duration  `json:"duration,omitempty"`
	CaptureDevice string         `json:"captureDevice,omitempty"`
	GPS           *GPS           `json:"gps,omitempty"`
	Tags          []string       `json:"tags,omitempty"`
	Extra         map[string]any `json:"extra,omitempty"`
}

// MediaItem represents a single uploaded image, video, or audio file.
// Immutable from the client's perspective except for delete.
type MediaItem struct {
	ID           string
	Type         MediaType
	OriginalName string
	Meta         MediaMeta
	CreatedAt    time.Time
}

// NodeMeta is the typed metadata union for a memory node. Event nodes use
// Location/Date/Participants, person nodes FullName/Birthday, timeline
// nodes From/To; Extra holds genuinely unstructured values.
type NodeMeta struct {
	Location     string         `json:"location,omitempty"`
	Date         string         `json:"date,omitempty"`
	Participants []string       `json:"participants,omitempty"`
	FullName     string         `json:"fullName,omitempty"`
	Birthday     string         `json:"birthday,omitempty"`
	From         string         `json:"from,omitempty"`
	To           string         `json:"to,omitempty"`
	Extra        map[string]any `json:"extra,omitempty"`
}

// MemoryNode represents a user-defined organizational entity that media
// can be attached to.
type MemoryNode struct {
	ID          string
	Title       string
	Description string
	Type        NodeType
	Meta        NodeMeta
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Link is the typed association between one media item and one memory
// node. The (MediaID, NodeID) pair is unique; duplicate creation is
// rejected by the backend as an "already linked" conflict.
type Link struct {
	LinkID       string
	MediaID      string
	NodeID       string
	Relationship Relationship
	CreatedAt    time.Time
}
