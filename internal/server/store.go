// Package server implements the local Memoria backend used for
// development and integration tests. It exposes the same REST surface
// and envelope as the production backend over an in-memory store.
package server

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"memoria-client/internal/domain"
	"memoria-client/pkg/api"
	appErrors "memoria-client/pkg/errors"
)

// Store is the in-memory backing state, keyed per user. Safe for
// concurrent use.
type Store struct {
	mu sync.RWMutex

	media map[string]map[string]domain.MediaItem
	nodes map[string]map[string]domain.MemoryNode
	links map[string]map[string]domain.Link

	users    map[string]api.User
	subs     map[string]api.Subscription
	packages map[string]api.LimitPackage
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		media:    make(map[string]map[string]domain.MediaItem),
		nodes:    make(map[string]map[string]domain.MemoryNode),
		links:    make(map[string]map[string]domain.Link),
		users:    make(map[string]api.User),
		subs:     make(map[string]api.Subscription),
		packages: make(map[string]api.LimitPackage),
	}
}

// --- Media ---

// CreateMedia stores a new media item for the user.
func (s *Store) CreateMedia(userID string, mediaType domain.MediaType, originalName string, meta domain.MediaMeta) domain.MediaItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	item := domain.MediaItem{
		ID:           uuid.New().String(),
		Type:         mediaType,
		OriginalName: originalName,
		Meta:         meta,
		CreatedAt:    time.Now().UTC(),
	}
	if s.media[userID] == nil {
		s.media[userID] = make(map[string]domain.MediaItem)
	}
	s.media[userID][item.ID] = item
	return item
}

// ListMedia returns the user's media, optionally filtered by type and a
// case-insensitive search over the original name.
func (s *Store) ListMedia(userID, mediaType, search string) []domain.MediaItem {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.MediaItem
	for _, item := range s.media[userID] {
		if mediaType != "" && string(item.Type) != mediaType {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(item.OriginalName), strings.ToLower(search)) {
			continue
		}
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// DeleteMedia removes a media item and cascades its links.
func (s *Store) DeleteMedia(userID, mediaID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.media[userID][mediaID]; !ok {
		return appErrors.NewNotFound("media not found")
	}
	delete(s.media[userID], mediaID)
	for id, link := range s.links[userID] {
		if link.MediaID == mediaID {
			delete(s.links[userID], id)
		}
	}
	return nil
}

// LinksForMedia returns every link naming the media item.
func (s *Store) LinksForMedia(userID, mediaID string) ([]domain.Link, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.media[userID][mediaID]; !ok {
		return nil, appErrors.NewNotFound("media not found")
	}
	var out []domain.Link
	for _, link := range s.links[userID] {
		if link.MediaID == mediaID {
			out = append(out, link)
		}
	}
	sortLinks(out)
	return out, nil
}

// --- Nodes ---

// CreateNode stores a new memory node for the user.
func (s *Store) CreateNode(userID, title, description string, nodeType domain.NodeType, meta domain.NodeMeta) domain.MemoryNode {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	node := domain.MemoryNode{
		ID:          uuid.New().String(),
		Title:       title,
		Description: description,
		Type:        nodeType,
		Meta:        meta,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if s.nodes[userID] == nil {
		s.nodes[userID] = make(map[string]domain.MemoryNode)
	}
	s.nodes[userID][node.ID] = node
	return node
}

// ListNodes returns the user's nodes, optionally filtered by type and a
// case-insensitive search over the title.
func (s *Store) ListNodes(userID, nodeType, search string) []domain.MemoryNode {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.MemoryNode
	for _, node := range s.nodes[userID] {
		if nodeType != "" && string(node.Type) != nodeType {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(node.Title), strings.ToLower(search)) {
			continue
		}
		out = append(out, node)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// UpdateNode edits a node's title, description, or metadata.
func (s *Store) UpdateNode(userID, nodeID, title, description string, meta *domain.NodeMeta) (domain.MemoryNode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	node, ok := s.nodes[userID][nodeID]
	if !ok {
		return domain.MemoryNode{}, appErrors.NewNotFound("node not found")
	}
	if title != "" {
		node.Title = title
	}
	if description != "" {
		node.Description = description
	}
	if meta != nil {
		node.Meta = *meta
	}
	node.UpdatedAt = time.Now().UTC()
	s.nodes[userID][nodeID] = node
	return node, nil
}

// DeleteNode removes a node and cascades its links. Media items are
// left intact.
func (s *Store) DeleteNode(userID, nodeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.nodes[userID][nodeID]; !ok {
		return appErrors.NewNotFound("node not found")
	}
	delete(s.nodes[userID], nodeID)
	for id, link := range s.links[userID] {
		if link.NodeID == nodeID {
			delete(s.links[userID], id)
		}
	}
	return nil
}

// LinksForNode returns every link naming the node.
func (s *Store) LinksForNode(userID, nodeID string) ([]domain.Link, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.nodes[userID][nodeID]; !ok {
		return nil, appErrors.NewNotFound("node not found")
	}
	var out []domain.Link
	for _, link := range s.links[userID] {
		if link.NodeID == nodeID {
			out = append(out, link)
		}
	}
	sortLinks(out)
	return out, nil
}

// --- Links ---

// CreateLink links a media item to a node. The (media, node) pair is
// unique; a duplicate yields a conflict.
func (s *Store) CreateLink(userID, mediaID, nodeID string, rel domain.Relationship) (domain.Link, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.media[userID][mediaID]; !ok {
		return domain.Link{}, appErrors.NewNotFound("media not found")
	}
	if _, ok := s.nodes[userID][nodeID]; !ok {
		return domain.Link{}, appErrors.NewNotFound("node not found")
	}
	for _, link := range s.links[userID] {
		if link.MediaID == mediaID && link.NodeID == nodeID {
			return domain.Link{}, appErrors.NewConflict("media is already linked to this node")
		}
	}

	link := domain.Link{
		LinkID:       uuid.New().String(),
		MediaID:      mediaID,
		NodeID:       nodeID,
		Relationship: rel,
		CreatedAt:    time.Now().UTC(),
	}
	if s.links[userID] == nil {
		s.links[userID] = make(map[string]domain.Link)
	}
	s.links[userID][link.LinkID] = link
	return link, nil
}

// DeleteLink removes the link between a media item and a node.
func (s *Store) DeleteLink(userID, mediaID, nodeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, link := range s.links[userID] {
		if link.MediaID == mediaID && link.NodeID == nodeID {
			delete(s.links[userID], id)
			return nil
		}
	}
	return appErrors.NewNotFound("link not found")
}

// --- Analytics ---

// Analytics aggregates the user's collections for the dashboard.
func (s *Store) Analytics(userID string) api.AnalyticsSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summary := api.AnalyticsSummary{
		MediaByType: make(map[string]int),
		NodesByType: make(map[string]int),
	}

	linkedMedia := make(map[string]bool)
	for _, link := range s.links[userID] {
		linkedMedia[link.MediaID] = true
	}

	for _, item := range s.media[userID] {
		summary.TotalMedia++
		summary.MediaByType[string(item.Type)]++
		if linkedMedia[item.ID] {
			summary.LinkedMedia++
		} else {
			summary.UnlinkedMedia++
		}
	}
	for _, node := range s.nodes[userID] {
		summary.TotalNodes++
		summary.NodesByType[string(node.Type)]++
	}
	summary.TotalLinks = len(s.links[userID])
	return summary
}

// --- Admin resources ---

// CreateUser stores a user record.
func (s *Store) CreateUser(user api.User) api.User {
	s.mu.Lock()
	defer s.mu.Unlock()

	user.ID = uuid.New().String()
	user.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	s.users[user.ID] = user
	return user
}

// ListUsers returns all user records.
func (s *Store) ListUsers() []api.User {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]api.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// UpdateUser edits a user record.
func (s *Store) UpdateUser(userID string, user api.User) (api.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.users[userID]
	if !ok {
		return api.User{}, appErrors.NewNotFound("user not found")
	}
	existing.Email = user.Email
	if user.Name != "" {
		existing.Name = user.Name
	}
	if user.Role != "" {
		existing.Role = user.Role
	}
	s.users[userID] = existing
	return existing, nil
}

// DeleteUser removes a user record.
func (s *Store) DeleteUser(userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[userID]; !ok {
		return appErrors.NewNotFound("user not found")
	}
	delete(s.users, userID)
	return nil
}

// CreateSubscription stores a subscription record.
func (s *Store) CreateSubscription(sub api.Subscription) (api.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.packages[sub.PackageID]; !ok {
		return api.Subscription{}, appErrors.NewNotFound("package not found")
	}
	sub.ID = uuid.New().String()
	sub.StartedAt = time.Now().UTC().Format(time.RFC3339)
	if sub.Status == "" {
		sub.Status = "active"
	}
	s.subs[sub.ID] = sub
	return sub, nil
}

// ListSubscriptions returns all subscription records.
func (s *Store) ListSubscriptions() []api.Subscription {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]api.Subscription, 0, len(s.subs))
	for _, sub := range s.subs {
		out = append(out, sub)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// DeleteSubscription removes a subscription record.
func (s *Store) DeleteSubscription(subID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.subs[subID]; !ok {
		return appErrors.NewNotFound("subscription not found")
	}
	delete(s.subs, subID)
	return nil
}

// CreateLimitPackage stores a feature-limit package.
func (s *Store) CreateLimitPackage(pkg api.LimitPackage) api.LimitPackage {
	s.mu.Lock()
	defer s.mu.Unlock()

	pkg.ID = uuid.New().String()
	s.packages[pkg.ID] = pkg
	return pkg
}

// ListLimitPackages returns all feature-limit packages.
func (s *Store) ListLimitPackages() []api.LimitPackage {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]api.LimitPackage, 0, len(s.packages))
	for _, pkg := range s.packages {
		out = append(out, pkg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// UpdateLimitPackage edits a feature-limit package.
func (s *Store) UpdateLimitPackage(pkgID string, pkg api.LimitPackage) (api.LimitPackage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.packages[pkgID]; !ok {
		return api.LimitPackage{}, appErrors.NewNotFound("package not found")
	}
	pkg.ID = pkgID
	s.packages[pkgID] = pkg
	return pkg, nil
}

// DeleteLimitPackage removes a feature-limit package.
func (s *Store) DeleteLimitPackage(pkgID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.packages[pkgID]; !ok {
		return appErrors.NewNotFound("package not found")
	}
	delete(s.packages, pkgID)
	return nil
}

func sortLinks(links []domain.Link) {
	sort.Slice(links, func(i, j int) bool { return links[i].LinkID < links[j].LinkID })
}
