package cache

import "time"

// Keyer builds cache keys from run inputs.
type Keyer interface {
	// LayoutKey identifies a composed layout of the board with content hash
	// boardHash.
	LayoutKey(boardHash string, opts LayoutKeyOpts) string

	// ArtifactKey identifies one rendered format of a layout.
	ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string

	// PackKey identifies a flat pack protocol response.
	PackKey(requestHash string, opts PackKeyOpts) string
}

// LayoutKeyOpts holds every option that changes a composed layout.
type LayoutKeyOpts struct {
	SizeWeight float64       `json:"size_weight"`
	WireWeight float64       `json:"wire_weight"`
	TimeLimit  time.Duration `json:"time_limit"`
	MaxNodes   int           `json:"max_nodes"`
	Orphans    string        `json:"orphans"`
	Padding    float64       `json:"padding"`
	Edge       []string      `json:"edge,omitempty"`
	// Rules is a hash of the classifier rule table.
	Rules string `json:"rules,omitempty"`
}

// ArtifactKeyOpts holds every option that changes a rendered artifact.
type ArtifactKeyOpts struct {
	Format   string  `json:"format"`
	Scale    float64 `json:"scale,omitempty"`
	Wires    bool    `json:"wires,omitempty"`
	Clusters bool    `json:"clusters,omitempty"`
}

// PackKeyOpts holds the server-side defaults applied to a pack request.
type PackKeyOpts struct {
	SizeWeight float64       `json:"size_weight"`
	WireWeight float64       `json:"wire_weight"`
	TimeLimit  time.Duration `json:"time_limit"`
	MaxNodes   int           `json:"max_nodes"`
}

// DefaultKeyer hashes options into fixed-length keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

func (DefaultKeyer) LayoutKey(boardHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", boardHash, opts)
}

func (DefaultKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", layoutHash, opts)
}

func (DefaultKeyer) PackKey(requestHash string, opts PackKeyOpts) string {
	return hashKey("pack", requestHash, opts)
}

var _ Keyer = DefaultKeyer{}
