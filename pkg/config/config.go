// Package config loads the boardpack configuration file.
//
// The file is TOML and every section is optional:
//
//	[solver]
//	size_weight = 2.0
//	wire_weight = 4.0
//	time_limit_seconds = 8
//	max_nodes = 0
//
//	[cluster]
//	orphans = "drop"          # or "singleton"
//
//	[[classifier.rules]]
//	kind = "ferrite"
//	prefix = "FB"
//
//	[board]
//	padding = 0.5
//
//	[edge]
//	patterns = ["J*", "SW*"]
//
//	[compose]
//	workers = 4
//
//	[cache]
//	backend = "file"          # "file", "redis" or "none"
//	dir = "~/.cache/boardpack"
//	redis_addr = "localhost:6379"
//	ttl = "168h"
//
//	[server]
//	addr = ":8080"
//
// Without --config the file is looked up at $XDG_CONFIG_HOME/boardpack/config.toml
// (or ~/.config/boardpack/config.toml); a missing default file is not an error.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/boardpack/pkg/classify"
	"github.com/matzehuels/boardpack/pkg/cluster"
	"github.com/matzehuels/boardpack/pkg/errors"
	"github.com/matzehuels/boardpack/pkg/pack"
)

// AppName names the config and cache directories.
const AppName = "boardpack"

// Cache backends.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendNone  = "none"
)

// Defaults not owned by another package.
const (
	DefaultCacheTTL   = 7 * 24 * time.Hour
	DefaultServerAddr = ":8080"
	DefaultRedisAddr  = "localhost:6379"
)

// Config is the decoded configuration file.
type Config struct {
	Solver     Solver     `toml:"solver"`
	Cluster    Cluster    `toml:"cluster"`
	Classifier Classifier `toml:"classifier"`
	Board      Board      `toml:"board"`
	Edge       Edge       `toml:"edge"`
	Compose    Compose    `toml:"compose"`
	Cache      Cache      `toml:"cache"`
	Server     Server     `toml:"server"`

	// Path is the file the configuration was read from, empty for defaults.
	Path string `toml:"-"`
}

// Solver holds the placement objective and search budget.
type Solver struct {
	SizeWeight       float64 `toml:"size_weight"`
	WireWeight       float64 `toml:"wire_weight"`
	TimeLimitSeconds float64 `toml:"time_limit_seconds"`
	MaxNodes         int     `toml:"max_nodes"`
}

type Cluster struct {
	Orphans cluster.OrphanPolicy `toml:"orphans"`
}

// Classifier extends the built-in rule table. Extra rules are tried after
// the defaults.
type Classifier struct {
	Rules []classify.Rule `toml:"rules"`
}

type Board struct {
	// Padding is added to every footprint's width and height.
	Padding float64 `toml:"padding"`
}

type Edge struct {
	// Patterns are case-insensitive globs over references.
	Patterns []string `toml:"patterns"`
}

type Compose struct {
	Workers int `toml:"workers"`
}

type Cache struct {
	Backend   string `toml:"backend"`
	Dir       string `toml:"dir"`
	RedisAddr string `toml:"redis_addr"`
	TTL       string `toml:"ttl"`
}

type Server struct {
	Addr string `toml:"addr"`
}

// Default returns the built-in configuration.
func Default() *Config {
	w := pack.DefaultWeights()
	return &Config{
		Solver: Solver{
			SizeWeight:       w.Size,
			WireWeight:       w.Wire,
			TimeLimitSeconds: pack.DefaultTimeLimit.Seconds(),
		},
		Cluster: Cluster{Orphans: cluster.OrphanDrop},
		Cache: Cache{
			Backend:   BackendFile,
			RedisAddr: DefaultRedisAddr,
			TTL:       DefaultCacheTTL.String(),
		},
		Server: Server{Addr: DefaultServerAddr},
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/boardpack/config.toml, falling back
// to ~/.config when XDG_CONFIG_HOME is unset.
func DefaultPath() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, AppName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", AppName, "config.toml"), nil
}

// Load reads the configuration at path on top of the defaults. An empty
// path loads DefaultPath and tolerates its absence; an explicit path must
// exist.
func Load(path string) (*Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return cfg, nil
		}
		path = p
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) && !explicit {
			return cfg, nil
		}
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "config %s", path)
		}
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "decode %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, errors.New(errors.ErrCodeInvalidConfig, "%s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	cfg.Path = path
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes configuration text on top of the defaults.
func Parse(data string) (*Config, error) {
	cfg := Default()
	if _, err := toml.Decode(data, cfg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "decode config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if err := c.Weights().Validate(); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "[solver]")
	}
	if c.Solver.TimeLimitSeconds < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "[solver] time_limit_seconds must not be negative")
	}
	if c.Solver.MaxNodes < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "[solver] max_nodes must not be negative")
	}
	if !c.Cluster.Orphans.Valid() {
		return errors.New(errors.ErrCodeInvalidConfig, "[cluster] unknown orphan policy %q", c.Cluster.Orphans)
	}
	for i, r := range c.Classifier.Rules {
		if r.Kind == "" || (r.Prefix == "" && len(r.Contains) == 0) {
			return errors.New(errors.ErrCodeInvalidConfig, "[classifier] rule %d needs a kind and a prefix or contains list", i)
		}
	}
	if c.Board.Padding < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "[board] padding must not be negative")
	}
	if c.Compose.Workers < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "[compose] workers must not be negative")
	}
	switch c.Cache.Backend {
	case "", BackendFile, BackendRedis, BackendNone:
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "[cache] unknown backend %q", c.Cache.Backend)
	}
	if _, err := c.CacheTTL(); err != nil {
		return err
	}
	return nil
}

// Weights returns the solver objective weights.
func (c *Config) Weights() pack.Weights {
	return pack.Weights{Size: c.Solver.SizeWeight, Wire: c.Solver.WireWeight}
}

// TimeLimit returns the per-solve time limit.
func (c *Config) TimeLimit() time.Duration {
	return time.Duration(c.Solver.TimeLimitSeconds * float64(time.Second))
}

// PackOptions returns solver options built from the [solver] section.
func (c *Config) PackOptions() pack.Options {
	return pack.Options{
		Weights:   c.Weights(),
		TimeLimit: c.TimeLimit(),
		MaxNodes:  c.Solver.MaxNodes,
	}
}

// NewClassifier returns the default rule table extended by [classifier].
func (c *Config) NewClassifier() *classify.Classifier {
	return classify.New(c.Classifier.Rules...)
}

// CacheTTL parses [cache] ttl. An empty value uses DefaultCacheTTL.
func (c *Config) CacheTTL() (time.Duration, error) {
	if c.Cache.TTL == "" {
		return DefaultCacheTTL, nil
	}
	d, err := time.ParseDuration(c.Cache.TTL)
	if err != nil || d < 0 {
		return 0, errors.New(errors.ErrCodeInvalidConfig, "[cache] invalid ttl %q", c.Cache.TTL)
	}
	return d, nil
}

// CacheDir returns [cache] dir with a leading ~ expanded, or the XDG cache
// directory when unset.
func (c *Config) CacheDir() string {
	dir := c.Cache.Dir
	if strings.HasPrefix(dir, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, dir[2:])
		}
	}
	if dir != "" {
		return dir
	}
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".cache", AppName)
}
