// Command memoria is the CLI front door for the Memoria client: media
// and node management, link mutations, availability views, and the
// analytics summary.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"memoria-client/internal/auth"
	"memoria-client/internal/availability"
	"memoria-client/internal/client"
	"memoria-client/internal/config"
	"memoria-client/internal/linker"
	"memoria-client/internal/observability"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) < 1 {
		printHelp()
		return fmt.Errorf("no command specified")
	}
	if args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		printHelp()
		return nil
	}

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	defer logger.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if cfg.Tracing.Enabled {
		tp, err := observability.InitTracing("memoria-cli", string(cfg.Environment), cfg.Tracing.Endpoint)
		if err != nil {
			logger.Warn("tracing disabled", zap.Error(err))
		} else {
			defer tp.Shutdown(context.Background())
		}
	}

	tokens, err := newTokenProvider(ctx, cfg, logger)
	if err != nil {
		return err
	}

	metrics := observability.NewCollector("memoria_cli")
	c, err := client.New(cfg, tokens, logger, metrics)
	if err != nil {
		return err
	}

	resolver := availability.New(c, availability.Options{
		Concurrency: cfg.Resolver.Concurrency,
		ItemTimeout: cfg.Resolver.ItemTimeout,
		Policy:      availability.Policy(cfg.Resolver.Policy),
	}, logger, metrics)
	links := linker.NewService(c, resolver, logger, metrics, nil)

	app := &app{client: c, resolver: resolver, linker: links}
	return app.dispatch(ctx, args[0], args[1:])
}

// newTokenProvider picks the token source: an explicit static token wins,
// otherwise a Supabase sign-in when the project is configured.
func newTokenProvider(ctx context.Context, cfg config.Config, logger *zap.Logger) (auth.TokenProvider, error) {
	if cfg.Auth.StaticToken != "" {
		return auth.NewStaticTokenProvider(cfg.Auth.StaticToken), nil
	}
	if cfg.Auth.SupabaseURL != "" {
		provider, err := auth.NewSupabaseTokenProvider(cfg.Auth.SupabaseURL, cfg.Auth.SupabaseKey, logger)
		if err != nil {
			return nil, err
		}
		email := os.Getenv("MEMORIA_EMAIL")
		password := os.Getenv("MEMORIA_PASSWORD")
		if email == "" || password == "" {
			return nil, fmt.Errorf("MEMORIA_EMAIL and MEMORIA_PASSWORD are required for supabase sign-in")
		}
		if err := provider.SignIn(ctx, email, password); err != nil {
			return nil, err
		}
		return provider, nil
	}
	return nil, fmt.Errorf("no credentials configured: set MEMORIA_TOKEN or SUPABASE_URL")
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	if cfg.IsDevelopment() {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func printHelp() {
	fmt.Fprint(os.Stderr, `memoria - multimedia memory management client

USAGE:
    memoria <command> [flags]

COMMANDS:
    media      list, upload, delete media and show their links
    nodes      list, create, update, delete nodes and show their links
    link       link one media item to one node
    bulk-link  link every media id to every node id
    unlink     remove one media/node link
    available  availability views (global, or anchored at a node/media)
    analytics  per-user totals
    admin      manage users, subscriptions, and feature-limit packages

Run "memoria <command> -h" for command flags.
`)
}
