// Package availability computes which media items and memory nodes are
// available for linking. Availability is defined purely by the absence
// of links: an item with zero links is available, an item with any link
// is not. The resolver fans per-item link lookups out over a bounded
// worker pool, joins, and partitions.
package availability

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"memoria-client/internal/domain"
	"memoria-client/internal/observability"
	"memoria-client/pkg/api"
)

// Fetcher is the slice of the REST client the resolver needs.
type Fetcher interface {
	ListMedia(ctx context.Context, filters api.MediaFilters) ([]domain.MediaItem, error)
	ListNodes(ctx context.Context, filters api.NodeFilters) ([]domain.MemoryNode, error)
	GetLinksForMedia(ctx context.Context, mediaID string) ([]domain.Link, error)
	GetLinksForNode(ctx context.Context, nodeID string) ([]domain.Link, error)
}

// Policy selects the availability semantics for anchored views.
type Policy string

const (
	// PolicyExclusive treats a media item linked to any node as
	// unavailable everywhere. This preserves the product's observed
	// one-active-node-per-media rule: the Link relation is structurally
	// many-to-many, but an item never appears available once it has a
	// link anywhere.
	PolicyExclusive Policy = "exclusive"

	// PolicyShared computes availability relative to the anchor only: an
	// item is available for a node unless it is linked to that node.
	PolicyShared Policy = "shared"
)

// Options bounds the fan-out. The per-item timeout and concurrency cap
// exist because a pass issues one call per candidate item.
type Options struct {
	Concurrency int
	ItemTimeout time.Duration
	Policy      Policy
}

func (o *Options) withDefaults() Options {
	out := *o
	if out.Concurrency <= 0 {
		out.Concurrency = 8
	}
	if out.ItemTimeout <= 0 {
		out.ItemTimeout = 5 * time.Second
	}
	if out.Policy == "" {
		out.Policy = PolicyExclusive
	}
	return out
}

// Resolver computes linked/available partitions. Construct with New.
type Resolver struct {
	fetcher Fetcher
	logger  *zap.Logger
	metrics *observability.Collector
	opts    Options
}

// New creates a resolver over the given fetcher.
func New(fetcher Fetcher, opts Options, logger *zap.Logger, metrics *observability.Collector) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		fetcher: fetcher,
		logger:  logger.With(zap.String("component", "availability")),
		metrics: metrics,
		opts:    opts.withDefaults(),
	}
}

// MediaPartition splits a media collection into linked and available
// sets. The two sets are disjoint and together cover the input.
type MediaPartition struct {
	Linked    []domain.MediaItem
	Available []domain.MediaItem
}

// NodePartition splits a node collection into linked and available sets.
type NodePartition struct {
	Linked    []domain.MemoryNode
	Available []domain.MemoryNode
}

// NodeAnchorView is the result of resolving availability for one node.
type NodeAnchorView struct {
	// NodeLinks are the anchor node's own links.
	NodeLinks []domain.Link
	// Media partitions the full media collection.
	Media MediaPartition
	// FailedMedia lists ids whose per-item check failed; they are
	// counted as available per the conservative failure policy, with the
	// backend's duplicate-link rejection as the backstop.
	FailedMedia []string
}

// MediaAnchorView is the result of resolving availability for one media
// item.
type MediaAnchorView struct {
	MediaLinks  []domain.Link
	Nodes       NodePartition
	FailedNodes []string
}

// GlobalView is the result of resolving availability with no anchor.
type GlobalView struct {
	Media       MediaPartition
	Nodes       NodePartition
	FailedMedia []string
	FailedNodes []string
}

// ForNode resolves availability anchored at a node: the node's own links
// plus a partition of all media.
func (r *Resolver) ForNode(ctx context.Context, nodeID string) (*NodeAnchorView, error) {
	r.countPass("node")

	nodeLinks, err := r.fetcher.GetLinksForNode(ctx, nodeID)
	if err != nil {
		return nil, err
	}

	media, err := r.fetcher.ListMedia(ctx, api.MediaFilters{})
	if err != nil {
		return nil, err
	}

	view := &NodeAnchorView{NodeLinks: nodeLinks}

	if r.opts.Policy == PolicyShared {
		// Relative to the anchor only: no fan-out needed, the anchor's
		// link set decides.
		linkedIDs := make(map[string]bool, len(nodeLinks))
		for _, l := range nodeLinks {
			linkedIDs[l.MediaID] = true
		}
		for _, m := range media {
			if linkedIDs[m.ID] {
				view.Media.Linked = append(view.Media.Linked, m)
			} else {
				view.Media.Available = append(view.Media.Available, m)
			}
		}
		return view, nil
	}

	counts, failed, err := r.fanOut(ctx, mediaIDs(media), r.fetcher.GetLinksForMedia)
	if err != nil {
		return nil, err
	}
	view.FailedMedia = failed
	for _, m := range media {
		if counts[m.ID] > 0 {
			view.Media.Linked = append(view.Media.Linked, m)
		} else {
			view.Media.Available = append(view.Media.Available, m)
		}
	}
	return view, nil
}

// ForMedia resolves availability anchored at a media item: the item's
// own links plus a partition of all nodes.
func (r *Resolver) ForMedia(ctx context.Context, mediaID string) (*MediaAnchorView, error) {
	r.countPass("media")

	mediaLinks, err := r.fetcher.GetLinksForMedia(ctx, mediaID)
	if err != nil {
		return nil, err
	}

	nodes, err := r.fetcher.ListNodes(ctx, api.NodeFilters{})
	if err != nil {
		return nil, err
	}

	view := &MediaAnchorView{MediaLinks: mediaLinks}

	if r.opts.Policy == PolicyShared {
		linkedIDs := make(map[string]bool, len(mediaLinks))
		for _, l := range mediaLinks {
			linkedIDs[l.NodeID] = true
		}
		for _, n := range nodes {
			if linkedIDs[n.ID] {
				view.Nodes.Linked = append(view.Nodes.Linked, n)
			} else {
				view.Nodes.Available = append(view.Nodes.Available, n)
			}
		}
		return view, nil
	}

	counts, failed, err := r.fanOut(ctx, nodeIDs(nodes), r.fetcher.GetLinksForNode)
	if err != nil {
		return nil, err
	}
	view.FailedNodes = failed
	for _, n := range nodes {
		if counts[n.ID] > 0 {
			view.Nodes.Linked = append(view.Nodes.Linked, n)
		} else {
			view.Nodes.Available = append(view.Nodes.Available, n)
		}
	}
	return view, nil
}

// Global resolves availability with no anchor: both collections
// partitioned by whether the item has at least one link.
func (r *Resolver) Global(ctx context.Context) (*GlobalView, error) {
	r.countPass("global")

	media, err := r.fetcher.ListMedia(ctx, api.MediaFilters{})
	if err != nil {
		return nil, err
	}
	nodes, err := r.fetcher.ListNodes(ctx, api.NodeFilters{})
	if err != nil {
		return nil, err
	}

	view := &GlobalView{}

	mediaCounts, failedMedia, err := r.fanOut(ctx, mediaIDs(media), r.fetcher.GetLinksForMedia)
	if err != nil {
		return nil, err
	}
	view.FailedMedia = failedMedia
	for _, m := range media {
		if mediaCounts[m.ID] > 0 {
			view.Media.Linked = append(view.Media.Linked, m)
		} else {
			view.Media.Available = append(view.Media.Available, m)
		}
	}

	nodeCounts, failedNodes, err := r.fanOut(ctx, nodeIDs(nodes), r.fetcher.GetLinksForNode)
	if err != nil {
		return nil, err
	}
	view.FailedNodes = failedNodes
	for _, n := range nodes {
		if nodeCounts[n.ID] > 0 {
			view.Nodes.Linked = append(view.Nodes.Linked, n)
		} else {
			view.Nodes.Available = append(view.Nodes.Available, n)
		}
	}

	return view, nil
}

// fanOut issues fetch per id over a bounded worker pool and joins before
// returning. A failed check is logged and recorded, and the id gets a
// zero count so the caller places it in the available set. Only context
// cancellation aborts the pass.
func (r *Resolver) fanOut(ctx context.Context, ids []string, fetch func(context.Context, string) ([]domain.Link, error)) (map[string]int, []string, error) {
	counts := make(map[string]int, len(ids))
	var failed []string

	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		sem = make(chan struct{}, r.opts.Concurrency)
	)

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			break
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(id string) {
			defer wg.Done()
			defer func() { <-sem }()

			itemCtx, cancel := context.WithTimeout(ctx, r.opts.ItemTimeout)
			defer cancel()

			if r.metrics != nil {
				r.metrics.ResolverChecks.Inc()
			}
			links, err := fetch(itemCtx, id)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				// Conservative: a failed check counts as available. The
				// duplicate-link rejection on create is the backstop for
				// the false positives this produces.
				counts[id] = 0
				failed = append(failed, id)
				if r.metrics != nil {
					r.metrics.ResolverCheckFailures.Inc()
				}
				r.logger.Warn("availability check failed, treating item as available",
					zap.String("id", id),
					zap.Error(err),
				)
				return
			}
			counts[id] = len(links)
		}(id)
	}

	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	return counts, failed, nil
}

func (r *Resolver) countPass(mode string) {
	if r.metrics != nil {
		r.metrics.ResolverPasses.WithLabelValues(mode).Inc()
	}
}

func mediaIDs(items []domain.MediaItem) []string {
	ids := make([]string, len(items))
	for i, m := range items {
		ids[i] = m.ID
	}
	return ids
}

func nodeIDs(nodes []domain.MemoryNode) []string {
	ids := make([]string, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID
	}
	return ids
}
