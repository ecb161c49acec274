package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"memoria-client/internal/availability"
	"memoria-client/internal/client"
	"memoria-client/internal/domain"
	"memoria-client/internal/linker"
	"memoria-client/pkg/api"
	appErrors "memoria-client/pkg/errors"
)

type app struct {
	client   *client.Client
	resolver *availability.Resolver
	linker   linker.Service
}

func (a *app) dispatch(ctx context.Context, command string, args []string) error {
	switch command {
	case "media":
		return a.media(ctx, args)
	case "nodes":
		return a.nodes(ctx, args)
	case "link":
		return a.link(ctx, args)
	case "bulk-link":
		return a.bulkLink(ctx, args)
	case "unlink":
		return a.unlink(ctx, args)
	case "available":
		return a.available(ctx, args)
	case "analytics":
		return a.analytics(ctx)
	case "admin":
		return a.admin(ctx, args)
	default:
		printHelp()
		return fmt.Errorf("unknown command %q", command)
	}
}

func (a *app) media(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: memoria media <list|upload|delete|links> [flags]")
	}
	switch args[0] {
	case "list":
		fs := flag.NewFlagSet("media list", flag.ExitOnError)
		mediaType := fs.String("type", "", "filter by media type (image, video, audio)")
		search := fs.String("search", "", "filter by original file name")
		fs.Parse(args[1:])

		items, err := a.client.ListMedia(ctx, api.MediaFilters{Type: *mediaType, Search: *search})
		if err != nil {
			return err
		}
		for _, item := range items {
			fmt.Printf("%s  %-5s  %s\n", item.ID, item.Type, item.OriginalName)
		}
		return nil

	case "upload":
		fs := flag.NewFlagSet("media upload", flag.ExitOnError)
		path := fs.String("file", "", "path of the file to upload")
		mediaType := fs.String("type", "", "media type (image, video, audio)")
		metaJSON := fs.String("metadata", "", "metadata as a JSON object")
		fs.Parse(args[1:])

		if *path == "" {
			return fmt.Errorf("-file is required")
		}
		var meta api.MediaMetadata
		if *metaJSON != "" {
			if err := json.Unmarshal([]byte(*metaJSON), &meta); err != nil {
				return fmt.Errorf("parsing -metadata: %w", err)
			}
		}
		f, err := os.Open(*path)
		if err != nil {
			return err
		}
		defer f.Close()

		item, err := a.client.UploadMedia(ctx, filepath.Base(*path), domain.MediaType(*mediaType), f, meta)
		if err != nil {
			return err
		}
		fmt.Printf("uploaded %s as %s\n", item.OriginalName, item.ID)
		return nil

	case "delete":
		fs := flag.NewFlagSet("media delete", flag.ExitOnError)
		id := fs.String("id", "", "media id")
		fs.Parse(args[1:])
		return a.client.DeleteMedia(ctx, *id)

	case "links":
		fs := flag.NewFlagSet("media links", flag.ExitOnError)
		id := fs.String("id", "", "media id")
		fs.Parse(args[1:])

		links, err := a.client.GetLinksForMedia(ctx, *id)
		if err != nil {
			return err
		}
		printLinks(links)
		return nil

	default:
		return fmt.Errorf("unknown media subcommand %q", args[0])
	}
}

func (a *app) nodes(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: memoria nodes <list|create|update|delete|links> [flags]")
	}
	switch args[0] {
	case "list":
		fs := flag.NewFlagSet("nodes list", flag.ExitOnError)
		nodeType := fs.String("type", "", "filter by node type (event, person, timeline)")
		search := fs.String("search", "", "filter by title")
		fs.Parse(args[1:])

		nodes, err := a.client.ListNodes(ctx, api.NodeFilters{Type: *nodeType, Search: *search})
		if err != nil {
			return err
		}
		for _, node := range nodes {
			fmt.Printf("%s  %-8s  %s\n", node.ID, node.Type, node.Title)
		}
		return nil

	case "create":
		fs := flag.NewFlagSet("nodes create", flag.ExitOnError)
		title := fs.String("title", "", "node title")
		description := fs.String("description", "", "node description")
		nodeType := fs.String("type", "", "node type (event, person, timeline)")
		metaJSON := fs.String("metadata", "", "metadata as a JSON object")
		fs.Parse(args[1:])

		req := api.CreateNodeRequest{Title: *title, Description: *description, Type: *nodeType}
		if *metaJSON != "" {
			if err := json.Unmarshal([]byte(*metaJSON), &req.Metadata); err != nil {
				return fmt.Errorf("parsing -metadata: %w", err)
			}
		}
		node, err := a.client.CreateNode(ctx, req)
		if err != nil {
			return err
		}
		fmt.Printf("created %s node %s\n", node.Type, node.ID)
		return nil

	case "update":
		fs := flag.NewFlagSet("nodes update", flag.ExitOnError)
		id := fs.String("id", "", "node id")
		title := fs.String("title", "", "new title")
		description := fs.String("description", "", "new description")
		metaJSON := fs.String("metadata", "", "replacement metadata as a JSON object")
		fs.Parse(args[1:])

		req := api.UpdateNodeRequest{Title: *title, Description: *description}
		if *metaJSON != "" {
			var meta api.NodeMetadata
			if err := json.Unmarshal([]byte(*metaJSON), &meta); err != nil {
				return fmt.Errorf("parsing -metadata: %w", err)
			}
			req.Metadata = &meta
		}
		node, err := a.client.UpdateNode(ctx, *id, req)
		if err != nil {
			return err
		}
		fmt.Printf("updated node %s\n", node.ID)
		return nil

	case "delete":
		fs := flag.NewFlagSet("nodes delete", flag.ExitOnError)
		id := fs.String("id", "", "node id")
		fs.Parse(args[1:])
		return a.client.DeleteNode(ctx, *id)

	case "links":
		fs := flag.NewFlagSet("nodes links", flag.ExitOnError)
		id := fs.String("id", "", "node id")
		fs.Parse(args[1:])

		links, err := a.client.GetLinksForNode(ctx, *id)
		if err != nil {
			return err
		}
		printLinks(links)
		return nil

	default:
		return fmt.Errorf("unknown nodes subcommand %q", args[0])
	}
}

func (a *app) link(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("link", flag.ExitOnError)
	mediaID := fs.String("media", "", "media id")
	nodeID := fs.String("node", "", "node id")
	rel := fs.String("rel", string(domain.RelationshipAssociated), "relationship (primary, associated, reference)")
	fs.Parse(args)

	res, err := a.linker.Link(ctx, *mediaID, *nodeID, domain.Relationship(*rel))
	if err != nil {
		return err
	}
	if res.AlreadyLinked {
		fmt.Println("already linked")
	} else {
		fmt.Printf("linked: %s\n", res.Link.LinkID)
	}
	printCounts(res.Counts, res.Degraded)
	return nil
}

func (a *app) bulkLink(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("bulk-link", flag.ExitOnError)
	mediaIDs := fs.String("media", "", "comma-separated media ids")
	nodeIDs := fs.String("nodes", "", "comma-separated node ids")
	rel := fs.String("rel", string(domain.RelationshipAssociated), "relationship (primary, associated, reference)")
	fs.Parse(args)

	res, err := a.linker.BulkLink(ctx, splitIDs(*mediaIDs), splitIDs(*nodeIDs), domain.Relationship(*rel))
	if err != nil {
		return err
	}
	fmt.Printf("created %d, already linked %d, failed %d\n",
		len(res.Created), len(res.AlreadyLinked), len(res.Failed))
	for _, f := range res.Failed {
		fmt.Printf("  failed %s -> %s: %v\n", f.MediaID, f.NodeID, f.Err)
	}
	printCounts(res.Counts, res.Degraded)
	return nil
}

func (a *app) unlink(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("unlink", flag.ExitOnError)
	mediaID := fs.String("media", "", "media id")
	nodeID := fs.String("node", "", "node id")
	fs.Parse(args)

	res, err := a.linker.Unlink(ctx, *mediaID, *nodeID)
	if err != nil {
		return err
	}
	fmt.Println("unlinked")
	printCounts(res.Counts, res.Degraded)
	return nil
}

func (a *app) available(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("available", flag.ExitOnError)
	nodeID := fs.String("node", "", "anchor node id")
	mediaID := fs.String("media", "", "anchor media id")
	fs.Parse(args)

	switch {
	case *nodeID != "" && *mediaID != "":
		return fmt.Errorf("-node and -media are mutually exclusive")

	case *nodeID != "":
		view, err := a.resolver.ForNode(ctx, *nodeID)
		if err != nil {
			return err
		}
		fmt.Printf("node has %d links\n", len(view.NodeLinks))
		fmt.Printf("media: %d available, %d linked\n", len(view.Media.Available), len(view.Media.Linked))
		for _, item := range view.Media.Available {
			fmt.Printf("  %s  %s\n", item.ID, item.OriginalName)
		}
		warnFailed(view.FailedMedia)
		return nil

	case *mediaID != "":
		view, err := a.resolver.ForMedia(ctx, *mediaID)
		if err != nil {
			return err
		}
		fmt.Printf("media has %d links\n", len(view.MediaLinks))
		fmt.Printf("nodes: %d available, %d linked\n", len(view.Nodes.Available), len(view.Nodes.Linked))
		for _, node := range view.Nodes.Available {
			fmt.Printf("  %s  %s\n", node.ID, node.Title)
		}
		warnFailed(view.FailedNodes)
		return nil

	default:
		view, err := a.resolver.Global(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("media: %d available, %d linked\n", len(view.Media.Available), len(view.Media.Linked))
		fmt.Printf("nodes: %d available, %d linked\n", len(view.Nodes.Available), len(view.Nodes.Linked))
		warnFailed(append(view.FailedMedia, view.FailedNodes...))
		return nil
	}
}

func (a *app) analytics(ctx context.Context) error {
	summary, err := a.client.GetAnalytics(ctx)
	if err != nil {
		return err
	}
	out, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func (a *app) admin(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: memoria admin <users|subscriptions|packages> <list|create|update|delete> [flags]")
	}
	err := a.adminResource(ctx, args[0], args[1], args[2:])
	if appErrors.IsUnauthorized(err) {
		// The server owns the role check; a plain notice is all the CLI adds.
		fmt.Fprintln(os.Stderr, "admin only: your account does not have the admin role")
		return nil
	}
	return err
}

func (a *app) adminResource(ctx context.Context, resource, action string, args []string) error {
	switch resource {
	case "users":
		return a.adminUsers(ctx, action, args)
	case "subscriptions":
		return a.adminSubscriptions(ctx, action, args)
	case "packages":
		return a.adminPackages(ctx, action, args)
	default:
		return fmt.Errorf("unknown admin resource %q", resource)
	}
}

func (a *app) adminUsers(ctx context.Context, action string, args []string) error {
	switch action {
	case "list":
		users, err := a.client.ListUsers(ctx)
		if err != nil {
			return err
		}
		for _, u := range users {
			fmt.Printf("%s  %-8s  %s\n", u.ID, u.Role, u.Email)
		}
		return nil

	case "create":
		fs := flag.NewFlagSet("admin users create", flag.ExitOnError)
		email := fs.String("email", "", "user email")
		name := fs.String("name", "", "display name")
		role := fs.String("role", "member", "role (member, admin)")
		fs.Parse(args)

		user, err := a.client.CreateUser(ctx, api.User{Email: *email, Name: *name, Role: *role})
		if err != nil {
			return err
		}
		fmt.Printf("created user %s\n", user.ID)
		return nil

	case "update":
		fs := flag.NewFlagSet("admin users update", flag.ExitOnError)
		id := fs.String("id", "", "user id")
		email := fs.String("email", "", "new email")
		name := fs.String("name", "", "new display name")
		role := fs.String("role", "", "new role")
		fs.Parse(args)

		user, err := a.client.UpdateUser(ctx, *id, api.User{Email: *email, Name: *name, Role: *role})
		if err != nil {
			return err
		}
		fmt.Printf("updated user %s\n", user.ID)
		return nil

	case "delete":
		fs := flag.NewFlagSet("admin users delete", flag.ExitOnError)
		id := fs.String("id", "", "user id")
		fs.Parse(args)
		return a.client.DeleteUser(ctx, *id)

	default:
		return fmt.Errorf("unknown admin users action %q", action)
	}
}

func (a *app) adminSubscriptions(ctx context.Context, action string, args []string) error {
	switch action {
	case "list":
		subs, err := a.client.ListSubscriptions(ctx)
		if err != nil {
			return err
		}
		for _, s := range subs {
			fmt.Printf("%s  user=%s  package=%s  %s\n", s.ID, s.UserID, s.PackageID, s.Status)
		}
		return nil

	case "create":
		fs := flag.NewFlagSet("admin subscriptions create", flag.ExitOnError)
		userID := fs.String("user", "", "user id")
		packageID := fs.String("package", "", "feature-limit package id")
		fs.Parse(args)

		sub, err := a.client.CreateSubscription(ctx, api.Subscription{UserID: *userID, PackageID: *packageID})
		if err != nil {
			return err
		}
		fmt.Printf("created subscription %s\n", sub.ID)
		return nil

	case "delete":
		fs := flag.NewFlagSet("admin subscriptions delete", flag.ExitOnError)
		id := fs.String("id", "", "subscription id")
		fs.Parse(args)
		return a.client.DeleteSubscription(ctx, *id)

	default:
		return fmt.Errorf("unknown admin subscriptions action %q", action)
	}
}

func (a *app) adminPackages(ctx context.Context, action string, args []string) error {
	switch action {
	case "list":
		pkgs, err := a.client.ListLimitPackages(ctx)
		if err != nil {
			return err
		}
		for _, p := range pkgs {
			fmt.Printf("%s  %-12s  media=%d nodes=%d storage=%dMB\n",
				p.ID, p.Name, p.MaxMediaItems, p.MaxNodes, p.MaxStorageMB)
		}
		return nil

	case "create", "update":
		fs := flag.NewFlagSet("admin packages "+action, flag.ExitOnError)
		id := fs.String("id", "", "package id (update only)")
		name := fs.String("name", "", "package name")
		maxMedia := fs.Int("max-media", 0, "maximum media items")
		maxNodes := fs.Int("max-nodes", 0, "maximum nodes")
		maxStorage := fs.Int("max-storage", 0, "maximum storage in MB")
		fs.Parse(args)

		pkg := api.LimitPackage{Name: *name, MaxMediaItems: *maxMedia, MaxNodes: *maxNodes, MaxStorageMB: *maxStorage}
		if action == "update" {
			updated, err := a.client.UpdateLimitPackage(ctx, *id, pkg)
			if err != nil {
				return err
			}
			fmt.Printf("updated package %s\n", updated.ID)
			return nil
		}
		created, err := a.client.CreateLimitPackage(ctx, pkg)
		if err != nil {
			return err
		}
		fmt.Printf("created package %s\n", created.ID)
		return nil

	case "delete":
		fs := flag.NewFlagSet("admin packages delete", flag.ExitOnError)
		id := fs.String("id", "", "package id")
		fs.Parse(args)
		return a.client.DeleteLimitPackage(ctx, *id)

	default:
		return fmt.Errorf("unknown admin packages action %q", action)
	}
}

func printLinks(links []domain.Link) {
	for _, link := range links {
		fmt.Printf("%s  media=%s  node=%s  %s\n", link.LinkID, link.MediaID, link.NodeID, link.Relationship)
	}
}

func printCounts(c linker.Counts, degraded bool) {
	fmt.Printf("counts: %d/%d media linked, %d/%d nodes linked",
		c.LinkedMedia, c.TotalMedia, c.LinkedNodes, c.TotalNodes)
	if degraded {
		fmt.Print(" (approximate)")
	}
	fmt.Println()
}

func warnFailed(ids []string) {
	if len(ids) > 0 {
		fmt.Fprintf(os.Stderr, "warning: %d availability checks failed; those items are shown as available\n", len(ids))
	}
}

func splitIDs(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
