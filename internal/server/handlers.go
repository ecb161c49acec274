package server

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"memoria-client/internal/domain"
	"memoria-client/internal/validation"
	"memoria-client/pkg/api"
	appErrors "memoria-client/pkg/errors"
)

const maxUploadBytes = 32 << 20

// Handler serves the user-facing routes against the in-memory store.
type Handler struct {
	store  *Store
	logger *zap.Logger
}

// NewHandler creates the user-facing handler set.
func NewHandler(store *Store, logger *zap.Logger) *Handler {
	return &Handler{store: store, logger: logger}
}

// --- Media ---

// ListMedia handles GET /api/media.
func (h *Handler) ListMedia(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserID(r.Context())
	if !ok {
		api.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	q := r.URL.Query()
	if t := q.Get("type"); t != "" {
		if _, err := domain.ParseMediaType(t); err != nil {
			api.Error(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	items := h.store.ListMedia(userID, q.Get("type"), q.Get("search"))
	api.Success(w, http.StatusOK, wireMediaList(items))
}

// UploadMedia handles POST /api/media as multipart form data. The form
// carries the file itself plus "type" and an optional JSON "metadata"
// field.
func (h *Handler) UploadMedia(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserID(r.Context())
	if !ok {
		api.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid multipart body")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		api.Error(w, http.StatusBadRequest, "file part is required")
		return
	}
	defer file.Close()

	mediaType, err := domain.ParseMediaType(r.FormValue("type"))
	if err != nil {
		api.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	var metadata api.MediaMetadata
	if raw := r.FormValue("metadata"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &metadata); err != nil {
			api.Error(w, http.StatusBadRequest, "invalid metadata json")
			return
		}
	}

	// The dev server does not persist file contents; drain so clients
	// with streaming bodies still complete cleanly.
	if _, err := io.Copy(io.Discard, file); err != nil {
		api.Error(w, http.StatusBadRequest, "failed to read file content")
		return
	}

	item := h.store.CreateMedia(userID, mediaType, header.Filename, mediaMetaFromWire(metadata))
	h.logger.Info("media uploaded",
		zap.String("mediaId", item.ID),
		zap.String("type", string(item.Type)),
		zap.String("name", item.OriginalName))
	api.Success(w, http.StatusCreated, wireMedia(item))
}

// DeleteMedia handles DELETE /api/media/{mediaId}. Links naming the
// media item are cascaded.
func (h *Handler) DeleteMedia(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserID(r.Context())
	if !ok {
		api.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	if err := h.store.DeleteMedia(userID, chi.URLParam(r, "mediaId")); err != nil {
		writeError(w, err)
		return
	}
	api.Success(w, http.StatusOK, nil)
}

// MediaLinks handles GET /api/media/{mediaId}/links.
func (h *Handler) MediaLinks(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserID(r.Context())
	if !ok {
		api.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	links, err := h.store.LinksForMedia(userID, chi.URLParam(r, "mediaId"))
	if err != nil {
		writeError(w, err)
		return
	}
	api.Success(w, http.StatusOK, wireLinkList(links))
}

// --- Nodes ---

// ListNodes handles GET /api/nodes.
func (h *Handler) ListNodes(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserID(r.Context())
	if !ok {
		api.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	q := r.URL.Query()
	if t := q.Get("type"); t != "" {
		if _, err := domain.ParseNodeType(t); err != nil {
			api.Error(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	nodes := h.store.ListNodes(userID, q.Get("type"), q.Get("search"))
	api.Success(w, http.StatusOK, wireNodeList(nodes))
}

// CreateNode handles POST /api/nodes.
func (h *Handler) CreateNode(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserID(r.Context())
	if !ok {
		api.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req api.CreateNodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validation.Struct(req); err != nil {
		writeError(w, err)
		return
	}

	nodeType, _ := domain.ParseNodeType(req.Type)
	node := h.store.CreateNode(userID, req.Title, req.Description, nodeType, nodeMetaFromWire(req.Metadata))
	h.logger.Info("node created",
		zap.String("nodeId", node.ID),
		zap.String("type", string(node.Type)))
	api.Success(w, http.StatusCreated, wireNode(node))
}

// UpdateNode handles PUT /api/nodes/{nodeId}.
func (h *Handler) UpdateNode(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserID(r.Context())
	if !ok {
		api.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req api.UpdateNodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validation.Struct(req); err != nil {
		writeError(w, err)
		return
	}

	var meta *domain.NodeMeta
	if req.Metadata != nil {
		m := nodeMetaFromWire(*req.Metadata)
		meta = &m
	}
	node, err := h.store.UpdateNode(userID, chi.URLParam(r, "nodeId"), req.Title, req.Description, meta)
	if err != nil {
		writeError(w, err)
		return
	}
	api.Success(w, http.StatusOK, wireNode(node))
}

// DeleteNode handles DELETE /api/nodes/{nodeId}. Links naming the node
// are cascaded; media items survive.
func (h *Handler) DeleteNode(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserID(r.Context())
	if !ok {
		api.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	if err := h.store.DeleteNode(userID, chi.URLParam(r, "nodeId")); err != nil {
		writeError(w, err)
		return
	}
	api.Success(w, http.StatusOK, nil)
}

// NodeLinks handles GET /api/nodes/{nodeId}/links.
func (h *Handler) NodeLinks(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserID(r.Context())
	if !ok {
		api.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	links, err := h.store.LinksForNode(userID, chi.URLParam(r, "nodeId"))
	if err != nil {
		writeError(w, err)
		return
	}
	api.Success(w, http.StatusOK, wireLinkList(links))
}

// --- Links ---

// CreateLink handles POST /api/links. A duplicate (media, node) pair is
// rejected with a 409 and an "already linked" message.
func (h *Handler) CreateLink(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserID(r.Context())
	if !ok {
		api.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req api.CreateLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validation.Struct(req); err != nil {
		writeError(w, err)
		return
	}

	rel, _ := domain.ParseRelationship(req.Relationship)
	link, err := h.store.CreateLink(userID, req.MediaID, req.NodeID, rel)
	if err != nil {
		if appErrors.IsConflict(err) {
			h.logger.Info("duplicate link rejected",
				zap.String("mediaId", req.MediaID),
				zap.String("nodeId", req.NodeID))
		}
		writeError(w, err)
		return
	}
	h.logger.Info("link created",
		zap.String("linkId", link.LinkID),
		zap.String("mediaId", link.MediaID),
		zap.String("nodeId", link.NodeID))
	api.Success(w, http.StatusCreated, wireLink(link))
}

// DeleteLink handles DELETE /api/links?mediaId=...&nodeId=...
func (h *Handler) DeleteLink(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserID(r.Context())
	if !ok {
		api.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	mediaID := r.URL.Query().Get("mediaId")
	nodeID := r.URL.Query().Get("nodeId")
	if mediaID == "" || nodeID == "" {
		api.Error(w, http.StatusBadRequest, "mediaId and nodeId are required")
		return
	}

	if err := h.store.DeleteLink(userID, mediaID, nodeID); err != nil {
		writeError(w, err)
		return
	}
	api.Success(w, http.StatusOK, nil)
}

// --- Analytics ---

// AnalyticsSummary handles GET /api/analytics/summary.
func (h *Handler) AnalyticsSummary(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserID(r.Context())
	if !ok {
		api.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}
	api.Success(w, http.StatusOK, h.store.Analytics(userID))
}
