// Package classify decides from a reference designator alone whether a
// component is a "basic" passive (resistor, capacitor, crystal, inductor,
// diode) or a "major" part that anchors a cluster.
//
// Matching is case-insensitive and ignores surrounding whitespace. Unknown
// references fail open: they are treated as major and flagged as ambiguous.
// The rules are purely lexical, so names like "LoRaModule1" classify as
// inductors.
package classify

import (
	"strings"
)

// Kind names the component family a rule recognises.
type Kind string

const (
	KindResistor  Kind = "resistor"
	KindCapacitor Kind = "capacitor"
	KindCrystal   Kind = "crystal"
	KindInductor  Kind = "inductor"
	KindDiode     Kind = "diode"
	// KindMajor is reported when no rule matched.
	KindMajor Kind = "major"
)

// Rule matches references that start with Prefix or contain any of
// Contains, both compared in upper case.
type Rule struct {
	Kind     Kind     `toml:"kind" json:"kind"`
	Prefix   string   `toml:"prefix" json:"prefix,omitempty"`
	Contains []string `toml:"contains" json:"contains,omitempty"`
}

func (r Rule) match(s string) bool {
	if r.Prefix != "" && strings.HasPrefix(s, strings.ToUpper(r.Prefix)) {
		return true
	}
	for _, sub := range r.Contains {
		if sub != "" && strings.Contains(s, strings.ToUpper(sub)) {
			return true
		}
	}
	return false
}

// DefaultRules is the fixed rule table, in priority order.
var DefaultRules = []Rule{
	{Kind: KindResistor, Prefix: "R"},
	{Kind: KindCapacitor, Prefix: "C"},
	{Kind: KindCrystal, Prefix: "Y", Contains: []string{"XTAL", "CRYSTAL"}},
	{Kind: KindInductor, Prefix: "L"},
	{Kind: KindDiode, Prefix: "D"},
}

// Result is the outcome of classifying one reference.
type Result struct {
	Basic bool `json:"basic"`
	Kind  Kind `json:"kind"`
	// Ambiguous is set when no rule matched or more than one kind did.
	Ambiguous bool `json:"ambiguous,omitempty"`
}

// Classifier applies an ordered rule table. The zero value has no rules and
// reports everything as major.
type Classifier struct {
	rules []Rule
}

// Default classifies with DefaultRules.
var Default = New()

// New returns a classifier with DefaultRules followed by extra.
func New(extra ...Rule) *Classifier {
	rules := make([]Rule, 0, len(DefaultRules)+len(extra))
	rules = append(rules, DefaultRules...)
	rules = append(rules, extra...)
	return &Classifier{rules: rules}
}

// Classify returns the first matching kind. Later matches of a different
// kind only mark the result ambiguous.
func (c *Classifier) Classify(id string) Result {
	s := strings.ToUpper(strings.TrimSpace(id))
	if s == "" {
		return Result{Kind: KindMajor}
	}

	res := Result{Kind: KindMajor, Ambiguous: true}
	matched := false
	for _, r := range c.rules {
		if !r.match(s) {
			continue
		}
		if !matched {
			res = Result{Basic: true, Kind: r.Kind}
			matched = true
			continue
		}
		if r.Kind != res.Kind {
			res.Ambiguous = true
		}
	}
	return res
}

// IsBasic reports whether id names a basic passive.
func (c *Classifier) IsBasic(id string) bool {
	return c.Classify(id).Basic
}

// Rules returns a copy of the rule table.
func (c *Classifier) Rules() []Rule {
	out := make([]Rule, len(c.rules))
	copy(out, c.rules)
	return out
}

// IsBasic classifies id with the default table.
func IsBasic(id string) bool { return Default.IsBasic(id) }

// Classify classifies id with the default table.
func Classify(id string) Result { return Default.Classify(id) }
