package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/boardpack/pkg/buildinfo"
	"github.com/matzehuels/boardpack/pkg/cache"
	"github.com/matzehuels/boardpack/pkg/cluster"
	"github.com/matzehuels/boardpack/pkg/config"
	"github.com/matzehuels/boardpack/pkg/observability"
	"github.com/matzehuels/boardpack/pkg/pipeline"
	"github.com/matzehuels/boardpack/pkg/render"
)

// =============================================================================
// Constants
// =============================================================================

const appName = config.AppName

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	cfg        *config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level), cfg: config.Default()}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Boardpack places PCB components with wire-aware rectangle packing",
		Long: `Boardpack groups the components of a board around their major parts,
packs every group with a branch-and-bound solver that trades board size
against wire length, and then packs the groups onto the board.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := c.loadConfig(); err != nil {
				return err
			}
			observability.SetSolverHooks(observability.NewLogHooks(c.Logger))
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "config file (default: $XDG_CONFIG_HOME/boardpack/config.toml)")

	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.packCommand())
	root.AddCommand(c.graphCommand())
	root.AddCommand(c.compareCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

func (c *CLI) loadConfig() error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	c.cfg = cfg
	if cfg.Path != "" {
		c.Logger.Debug("loaded config", "path", cfg.Path)
	}
	return nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner backed by the configured cache.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	ch, err := c.newCache(ctx, noCache)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(ch, nil, c.Logger), nil
}

// newCache opens the [cache] backend. An unreachable redis falls back to no
// caching with a warning; a broken file cache directory is an error.
func (c *CLI) newCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	if noCache || c.cfg.Cache.Backend == config.BackendNone {
		return cache.NewNullCache(), nil
	}
	ttl, err := c.cfg.CacheTTL()
	if err != nil {
		return nil, err
	}

	switch c.cfg.Cache.Backend {
	case config.BackendRedis:
		rc, err := cache.NewRedisCache(ctx, cache.RedisConfig{Addr: c.cfg.Cache.RedisAddr})
		if err != nil {
			c.Logger.Warn("redis cache unavailable, continuing without cache", "addr", c.cfg.Cache.RedisAddr, "err", err)
			return cache.NewNullCache(), nil
		}
		return cache.MaxTTL(rc, ttl), nil
	default:
		fc, err := cache.NewFileCache(c.cfg.CacheDir())
		if err != nil {
			return nil, fmt.Errorf("open cache: %w", err)
		}
		return cache.MaxTTL(fc, ttl), nil
	}
}

// =============================================================================
// Options Helpers
// =============================================================================

// runFlags are the pipeline flags shared by layout and compare. Zero values
// leave the config file setting in place.
type runFlags struct {
	sizeWeight float64
	wireWeight float64
	timeLimit  float64
	maxNodes   int
	workers    int
	padding    float64
	orphans    string
	edge       []string
	noCache    bool
	refresh    bool
}

func (f *runFlags) register(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&f.sizeWeight, "size-weight", 0, "weight of the board half-perimeter (default from config)")
	cmd.Flags().Float64Var(&f.wireWeight, "wire-weight", 0, "weight of the total wire length (default from config)")
	cmd.Flags().Float64Var(&f.timeLimit, "time-limit", 0, "solver time limit per pack in seconds")
	cmd.Flags().IntVar(&f.maxNodes, "max-nodes", 0, "deterministic search node budget per pack (0 = unlimited)")
	cmd.Flags().IntVar(&f.workers, "workers", 0, "parallel cluster solves (default: GOMAXPROCS)")
	cmd.Flags().Float64Var(&f.padding, "padding", -1, "clearance added to every footprint")
	cmd.Flags().StringVar(&f.orphans, "orphans", "", "orphaned basic components: drop, singleton")
	cmd.Flags().StringSliceVar(&f.edge, "edge", nil, "reference patterns that must sit on the board edge (e.g. J*,SW*)")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&f.refresh, "refresh", false, "recompute even when cached")
}

// options layers the flags over the configuration file.
func (c *CLI) options(f *runFlags) pipeline.Options {
	opts := pipeline.FromConfig(c.cfg)
	opts.Logger = c.Logger
	opts.Refresh = f.refresh
	if f.sizeWeight > 0 {
		opts.Weights.Size = f.sizeWeight
	}
	if f.wireWeight > 0 {
		opts.Weights.Wire = f.wireWeight
	}
	if f.timeLimit > 0 {
		opts.TimeLimit = time.Duration(f.timeLimit * float64(time.Second))
	}
	if f.maxNodes > 0 {
		opts.MaxNodes = f.maxNodes
	}
	if f.workers > 0 {
		opts.Workers = f.workers
	}
	if f.padding >= 0 {
		opts.Padding = f.padding
	}
	if f.orphans != "" {
		opts.Orphans = cluster.OrphanPolicy(f.orphans)
	}
	if len(f.edge) > 0 {
		opts.EdgePatterns = f.edge
	}
	return opts
}

// renderFlags control artifact appearance.
type renderFlags struct {
	formats    string
	scale      float64
	noWires    bool
	noClusters bool
}

func (f *renderFlags) register(cmd *cobra.Command, defaultFormats string) {
	cmd.Flags().StringVarP(&f.formats, "format", "f", defaultFormats, "output format(s): svg, pdf, xlsx, json (comma-separated)")
	cmd.Flags().Float64Var(&f.scale, "scale", render.DefaultScale, "pixels per board unit (svg)")
	cmd.Flags().BoolVar(&f.noWires, "no-wires", false, "hide wires")
	cmd.Flags().BoolVar(&f.noClusters, "no-clusters", false, "hide cluster boxes")
}

func (f *renderFlags) apply(opts *pipeline.Options) error {
	opts.Formats = parseFormats(f.formats)
	opts.Render = render.Options{Scale: f.scale, HideWires: f.noWires, HideClusters: f.noClusters}
	return pipeline.ValidateFormats(opts.Formats)
}

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.ToLower(strings.TrimSpace(f)); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// stdinIsTerminal reports whether stdin is interactive.
func stdinIsTerminal() bool {
	fi, err := os.Stdin.Stat()
	return err == nil && fi.Mode()&os.ModeCharDevice != 0
}
