// Package api defines the contracts for API requests and responses.
// It decouples the wire format from the internal domain models.
package api

import "encoding/json"

// Envelope is the backend's uniform response shape. 2xx bodies carry
// Success=true and the payload in Data; failures carry Success=false and
// a human-readable Error or Message.
type Envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
	Message string          `json:"message,omitempty"`
}

// ErrorMessage returns the server's message for a failed envelope,
// preferring Error over Message.
func (e *Envelope) ErrorMessage() string {
	if e.Error != "" {
		return e.Error
	}
	return e.Message
}

// --- Media ---

// MediaResponse is the wire representation of a media item.
type MediaResponse struct {
	ID           string         `json:"id"`
	Type         string         `json:"type"`
	OriginalName string         `json:"originalName"`
	Metadata     MediaMetadata  `json:"metadata,omitempty"`
	CreatedAt    string         `json:"createdAt"`
}

// MediaMetadata carries the optional, type-dependent media fields.
type MediaMetadata struct {
	Width         int            `json:"width,omitempty"`
	Height        int            `json:"height,omitempty"`
	DurationMs    int64          `json:"durationMs,omitempty"`
	CaptureDevice string         `json:"captureDevice,omitempty"`
	GPS           *GPSPoint      `json:"gps,omitempty"`
	Tags          []string       `json:"tags,omitempty"`
	Extra         map[string]any `json:"extra,omitempty"`
}

// GPSPoint is a capture location.
type GPSPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// MediaFilters narrows a media listing.
type MediaFilters struct {
	Type   string `json:"type,omitempty"`
	Search string `json:"search,omitempty"`
}

// --- Nodes ---

// CreateNodeRequest is the expected body for a POST /nodes request.
type CreateNodeRequest struct {
	Title       string         `json:"title" validate:"required,max=200"`
	Description string         `json:"description,omitempty" validate:"max=2000"`
	Type        string         `json:"type" validate:"required,nodetype"`
	Metadata    NodeMetadata   `json:"metadata,omitempty"`
}

// UpdateNodeRequest is the expected body for a PUT /nodes/{nodeId} request.
type UpdateNodeRequest struct {
	Title       string       `json:"title,omitempty" validate:"omitempty,max=200"`
	Description string       `json:"description,omitempty" validate:"max=2000"`
	Metadata    *NodeMetadata `json:"metadata,omitempty"`
}

// NodeMetadata carries the optional, type-dependent node fields.
type NodeMetadata struct {
	Location     string         `json:"location,omitempty"`
	Date         string         `json:"date,omitempty"`
	Participants []string       `json:"participants,omitempty"`
	FullName     string         `json:"fullName,omitempty"`
	Birthday     string         `json:"birthday,omitempty"`
	From         string         `json:"from,omitempty"`
	To           string         `json:"to,omitempty"`
	Extra        map[string]any `json:"extra,omitempty"`
}

// NodeResponse is the wire representation of a memory node.
type NodeResponse struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Type        string       `json:"type"`
	Metadata    NodeMetadata `json:"metadata,omitempty"`
	CreatedAt   string       `json:"createdAt"`
	UpdatedAt   string       `json:"updatedAt,omitempty"`
}

// NodeFilters narrows a node listing.
type NodeFilters struct {
	Type   string `json:"type,omitempty"`
	Search string `json:"search,omitempty"`
}

// --- Links ---

// CreateLinkRequest is the expected body for a POST /links request.
type CreateLinkRequest struct {
	MediaID      string `json:"mediaId" validate:"required"`
	NodeID       string `json:"nodeId" validate:"required"`
	Relationship string `json:"relationship" validate:"required,relationship"`
}

// LinkResponse is the wire representation of a media/node link.
type LinkResponse struct {
	LinkID       string `json:"linkId"`
	MediaID      string `json:"mediaId"`
	NodeID       string `json:"nodeId"`
	Relationship string `json:"relationship"`
	CreatedAt    string `json:"createdAt"`
}

// --- Admin resources (typed pass-through, no client-side logic) ---

// User is an admin-managed account record.
type User struct {
	ID        string `json:"id"`
	Email     string `json:"email" validate:"required,email"`
	Name      string `json:"name,omitempty"`
	Role      string `json:"role,omitempty"`
	CreatedAt string `json:"createdAt,omitempty"`
}

// Subscription ties a user to a feature-limit package.
type Subscription struct {
	ID        string `json:"id"`
	UserID    string `json:"userId" validate:"required"`
	PackageID string `json:"packageId" validate:"required"`
	Status    string `json:"status,omitempty"`
	StartedAt string `json:"startedAt,omitempty"`
	ExpiresAt string `json:"expiresAt,omitempty"`
}

// LimitPackage describes a feature-limit package.
type LimitPackage struct {
	ID            string `json:"id"`
	Name          string `json:"name" validate:"required"`
	MaxMediaItems int    `json:"maxMediaItems"`
	MaxNodes      int    `json:"maxNodes"`
	MaxStorageMB  int    `json:"maxStorageMb"`
}

// AnalyticsSummary is the dashboard aggregate for one user.
type AnalyticsSummary struct {
	TotalMedia    int            `json:"totalMedia"`
	TotalNodes    int            `json:"totalNodes"`
	TotalLinks    int            `json:"totalLinks"`
	MediaByType   map[string]int `json:"mediaByType"`
	NodesByType   map[string]int `json:"nodesByType"`
	LinkedMedia   int            `json:"linkedMedia"`
	UnlinkedMedia int            `json:"unlinkedMedia"`
}

// ErrorResponse is a standardized error message for API responses.
type ErrorResponse struct {
	Error string `json:"error"`
}
