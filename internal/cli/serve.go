package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/noderelax/internal/server"
	"github.com/matzehuels/noderelax/pkg/cache"
	"github.com/matzehuels/noderelax/pkg/pipeline"
)

const defaultAddr = ":8080"

// serveFlags holds the command-line flags for the serve command.
type serveFlags struct {
	addr          string
	redisAddr     string
	redisPassword string
	redisDB       int
	scope         string
	noCache       bool
}

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	flags := serveFlags{addr: defaultAddr}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve arrange and render over HTTP",
		Long: `Serve exposes the solver and the renderer as a JSON API:

  POST   /v1/arrange       submit a document, answers 202 with a job id
  GET    /v1/arrange/{id}  poll progress and fetch the arranged document
  DELETE /v1/arrange/{id}  cancel a running job
  POST   /v1/render        render a document synchronously
  GET    /healthz          liveness
  GET    /metrics          Prometheus metrics

Results are cached on disk, or in Redis with --redis.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := c.options()
			if err != nil {
				return err
			}
			return c.runServe(cmd.Context(), opts, &flags)
		},
	}

	cmd.Flags().StringVar(&flags.addr, "addr", flags.addr, "listen address")
	cmd.Flags().StringVar(&flags.redisAddr, "redis", "", "Redis address (host:port) for a shared cache")
	cmd.Flags().StringVar(&flags.redisPassword, "redis-password", "", "Redis password")
	cmd.Flags().IntVar(&flags.redisDB, "redis-db", 0, "Redis database number")
	cmd.Flags().StringVar(&flags.scope, "cache-scope", "", "prefix cache keys, to share one Redis between deployments")
	cmd.Flags().BoolVar(&flags.noCache, "no-cache", false, "disable caching")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, opts pipeline.Options, flags *serveFlags) error {
	store, err := c.serveCache(ctx, flags)
	if err != nil {
		return err
	}
	keyer := cache.NewDefaultKeyer()
	if flags.scope != "" {
		keyer = cache.NewScopedKeyer(keyer, flags.scope+":")
	}
	runner := pipeline.NewRunner(cache.Instrument(store), keyer, c.Logger)
	defer runner.Close()

	metrics := server.NewMetrics()
	metrics.Install()

	srv := server.New(runner,
		server.WithDefaults(opts),
		server.WithMetrics(metrics),
		server.WithLogger(c.Logger),
	)
	printInfo("Listening on %s", StyleHighlight.Render(flags.addr))
	return srv.Serve(ctx, flags.addr)
}

func (c *CLI) serveCache(ctx context.Context, flags *serveFlags) (cache.Cache, error) {
	if flags.noCache || flags.redisAddr == "" {
		return newCache(flags.noCache)
	}
	rc := cache.NewRedisCache(flags.redisAddr, flags.redisPassword, flags.redisDB)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rc.Ping(pingCtx); err != nil {
		_ = rc.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", flags.redisAddr, err)
	}
	c.Logger.Info("using redis cache", "addr", flags.redisAddr, "db", flags.redisDB)
	return rc, nil
}
