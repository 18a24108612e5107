package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/boardpack/internal/server"
	"github.com/matzehuels/boardpack/pkg/cache"
	"github.com/matzehuels/boardpack/pkg/observability"
	"github.com/matzehuels/boardpack/pkg/pipeline"
)

// serveCommand creates the serve command running the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the pack and layout API over HTTP",
		Long: `Serve the pack and layout API over HTTP.

  GET  /healthz
  GET  /v1/version
  POST /v1/pack     flat pack request, same JSON as 'pack'
  POST /v1/layout   {"board": {...}, "formats": ["svg"]}

Solver and clustering defaults come from the config file. Set
[cache] backend = "redis" to share cached layouts between instances.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx).WithPrefix("http")
			if addr == "" {
				addr = c.cfg.Server.Addr
			}

			ch, err := c.newCache(ctx, noCache)
			if err != nil {
				return err
			}
			runner := pipeline.NewRunner(ch, cache.NewScopedKeyer(nil, "api:"), c.Logger)
			defer runner.Close()

			hooks := observability.NewLogHooks(logger)
			observability.SetHTTPHooks(hooks)
			observability.SetCacheHooks(hooks)

			opts := pipeline.FromConfig(c.cfg)
			opts.Logger = c.Logger
			return server.New(runner, opts, logger).ListenAndServe(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}
