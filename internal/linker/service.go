// Package linker provides the link mutation operations: idempotent
// create, bulk cross-product create with partial success, and delete.
// Every successful mutation refreshes counts from fresh server data; a
// local-arithmetic fallback is used only when the refresh itself fails,
// and is flagged as degraded.
package linker

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"memoria-client/internal/availability"
	"memoria-client/internal/domain"
	"memoria-client/internal/observability"
	appErrors "memoria-client/pkg/errors"
)

// Mutator is the slice of the REST client the service needs.
type Mutator interface {
	CreateLink(ctx context.Context, mediaID, nodeID string, rel domain.Relationship) (*domain.Link, error)
	DeleteLink(ctx context.Context, mediaID, nodeID string) error
}

// GlobalResolver re-resolves availability after mutations.
type GlobalResolver interface {
	Global(ctx context.Context) (*availability.GlobalView, error)
}

// Counts are the derived counters parent views display.
type Counts struct {
	TotalMedia     int
	LinkedMedia    int
	AvailableMedia int
	TotalNodes     int
	LinkedNodes    int
	AvailableNodes int
}

// LinkResult is the outcome of a single link creation.
type LinkResult struct {
	// Link is the created row; nil when the pair was already linked.
	Link *domain.Link
	// AlreadyLinked marks the duplicate-pair outcome, which is
	// informational, not a failure.
	AlreadyLinked bool
	Counts        Counts
	// Degraded marks counts derived by local arithmetic because the
	// post-mutation refresh failed.
	Degraded bool
}

// Pair identifies one (media, node) combination in a bulk operation.
type Pair struct {
	MediaID string
	NodeID  string
}

// PairError is a bulk pair that failed outright.
type PairError struct {
	Pair
	Err error
}

// BulkResult is the outcome of a bulk link: per-pair partial success.
type BulkResult struct {
	Created       []domain.Link
	AlreadyLinked []Pair
	Failed        []PairError
	Counts        Counts
	Degraded      bool
}

// Service defines the link mutation operations.
type Service interface {
	// Link creates one link; a duplicate pair is a soft success.
	Link(ctx context.Context, mediaID, nodeID string, rel domain.Relationship) (*LinkResult, error)

	// BulkLink creates the full mediaIDs × nodeIDs cross product with
	// one relationship; already-linked pairs never fail the batch.
	BulkLink(ctx context.Context, mediaIDs, nodeIDs []string, rel domain.Relationship) (*BulkResult, error)

	// Unlink deletes one link. No existence pre-check is made.
	Unlink(ctx context.Context, mediaID, nodeID string) (*LinkResult, error)

	// Refresh recomputes counts from fresh server data.
	Refresh(ctx context.Context) (Counts, error)
}

// service implements Service.
type service struct {
	mutator  Mutator
	resolver GlobalResolver
	logger   *zap.Logger
	metrics  *observability.Collector
	notify   func(Counts, bool)

	mu         sync.Mutex
	lastCounts Counts
}

// NewService creates a link service. notify, when non-nil, is invoked
// with the counts (and the degraded flag) after every mutation so parent
// views can recompute their display.
func NewService(mutator Mutator, resolver GlobalResolver, logger *zap.Logger, metrics *observability.Collector, notify func(Counts, bool)) Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &service{
		mutator:  mutator,
		resolver: resolver,
		logger:   logger.With(zap.String("component", "linker")),
		metrics:  metrics,
		notify:   notify,
	}
}

func (s *service) Link(ctx context.Context, mediaID, nodeID string, rel domain.Relationship) (*LinkResult, error) {
	if mediaID == "" || nodeID == "" {
		return nil, appErrors.NewValidation("media id and node id cannot be empty")
	}
	if _, err := domain.ParseRelationship(string(rel)); err != nil {
		return nil, appErrors.NewValidation(err.Error())
	}

	result := &LinkResult{}
	link, err := s.mutator.CreateLink(ctx, mediaID, nodeID, rel)
	switch {
	case err == nil:
		result.Link = link
		if s.metrics != nil {
			s.metrics.LinksCreated.Inc()
		}
	case appErrors.IsConflict(err):
		// Already linked: surface as information, proceed as if the
		// link exists.
		result.AlreadyLinked = true
		if s.metrics != nil {
			s.metrics.LinksAlreadyExist.Inc()
		}
		s.logger.Info("pair already linked",
			zap.String("mediaId", mediaID),
			zap.String("nodeId", nodeID),
		)
	default:
		return nil, appErrors.Wrap(err, "creating link")
	}

	result.Counts, result.Degraded = s.refreshAfterMutation(ctx, func(c *Counts) {
		if !result.AlreadyLinked {
			applyLinked(c)
		}
	})
	return result, nil
}

func (s *service) BulkLink(ctx context.Context, mediaIDs, nodeIDs []string, rel domain.Relationship) (*BulkResult, error) {
	if len(mediaIDs) == 0 || len(nodeIDs) == 0 {
		return nil, appErrors.NewValidation("bulk link requires at least one media id and one node id")
	}
	if _, err := domain.ParseRelationship(string(rel)); err != nil {
		return nil, appErrors.NewValidation(err.Error())
	}

	result := &BulkResult{}
	for _, mediaID := range mediaIDs {
		for _, nodeID := range nodeIDs {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			pair := Pair{MediaID: mediaID, NodeID: nodeID}

			link, err := s.mutator.CreateLink(ctx, mediaID, nodeID, rel)
			switch {
			case err == nil:
				result.Created = append(result.Created, *link)
				if s.metrics != nil {
					s.metrics.LinksCreated.Inc()
				}
			case appErrors.IsConflict(err):
				result.AlreadyLinked = append(result.AlreadyLinked, pair)
				if s.metrics != nil {
					s.metrics.LinksAlreadyExist.Inc()
				}
			default:
				result.Failed = append(result.Failed, PairError{Pair: pair, Err: err})
				s.logger.Warn("bulk pair failed",
					zap.String("mediaId", mediaID),
					zap.String("nodeId", nodeID),
					zap.Error(err),
				)
			}
		}
	}

	result.Counts, result.Degraded = s.refreshAfterMutation(ctx, func(c *Counts) {
		for range result.Created {
			applyLinked(c)
		}
	})
	return result, nil
}

func (s *service) Unlink(ctx context.Context, mediaID, nodeID string) (*LinkResult, error) {
	if mediaID == "" || nodeID == "" {
		return nil, appErrors.NewValidation("media id and node id cannot be empty")
	}

	if err := s.mutator.DeleteLink(ctx, mediaID, nodeID); err != nil {
		return nil, appErrors.Wrap(err, "deleting link")
	}
	if s.metrics != nil {
		s.metrics.LinksDeleted.Inc()
	}

	result := &LinkResult{}
	result.Counts, result.Degraded = s.refreshAfterMutation(ctx, func(c *Counts) {
		// Without fresh data we cannot tell whether the pair was the
		// item's last link; assume it was.
		if c.LinkedMedia > 0 {
			c.LinkedMedia--
			c.AvailableMedia++
		}
		if c.LinkedNodes > 0 {
			c.LinkedNodes--
			c.AvailableNodes++
		}
	})
	return result, nil
}

func (s *service) Refresh(ctx context.Context) (Counts, error) {
	view, err := s.resolver.Global(ctx)
	if err != nil {
		return Counts{}, err
	}
	counts := countsFromView(view)

	s.mu.Lock()
	s.lastCounts = counts
	s.mu.Unlock()
	return counts, nil
}

// refreshAfterMutation recomputes counts from the server; when that
// fails it falls back to adjusting the last known counts locally and
// marks the result degraded.
func (s *service) refreshAfterMutation(ctx context.Context, localAdjust func(*Counts)) (Counts, bool) {
	counts, err := s.Refresh(ctx)
	degraded := false
	if err != nil {
		s.logger.Warn("post-mutation refresh failed, using local counts", zap.Error(err))
		s.mu.Lock()
		localAdjust(&s.lastCounts)
		counts = s.lastCounts
		s.mu.Unlock()
		degraded = true
	}

	if s.notify != nil {
		s.notify(counts, degraded)
	}
	return counts, degraded
}

// applyLinked is the degraded local adjustment for one created link.
func applyLinked(c *Counts) {
	if c.AvailableMedia > 0 {
		c.AvailableMedia--
		c.LinkedMedia++
	}
	if c.AvailableNodes > 0 {
		c.AvailableNodes--
		c.LinkedNodes++
	}
}

func countsFromView(view *availability.GlobalView) Counts {
	return Counts{
		TotalMedia:     len(view.Media.Linked) + len(view.Media.Available),
		LinkedMedia:    len(view.Media.Linked),
		AvailableMedia: len(view.Media.Available),
		TotalNodes:     len(view.Nodes.Linked) + len(view.Nodes.Available),
		LinkedNodes:    len(view.Nodes.Linked),
		AvailableNodes: len(view.Nodes.Available),
	}
}
