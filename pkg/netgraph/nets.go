package netgraph

// Net is a named electrical net and the references of the pads on it.
type Net struct {
	Name    string   `json:"name" toml:"name"`
	Members []string `json:"members" toml:"members"`
}

// FromNets turns nets into unique unordered pairs of distinct references.
// Every two members of a net form a pair; nets with fewer than two distinct
// members contribute nothing. Pairs keep first-seen order.
func FromNets(nets []Net) []Pair {
	var out []Pair
	seen := make(map[Pair]struct{})
	for _, n := range nets {
		refs := dedupe(n.Members)
		if len(refs) < 2 {
			continue
		}
		for i := 0; i < len(refs); i++ {
			for j := i + 1; j < len(refs); j++ {
				p := canonical(refs[i], refs[j])
				if _, ok := seen[p]; ok {
					continue
				}
				seen[p] = struct{}{}
				out = append(out, Pair{A: refs[i], B: refs[j]})
			}
		}
	}
	return out
}

func canonical(a, b string) Pair {
	if b < a {
		a, b = b, a
	}
	return Pair{A: a, B: b}
}

func dedupe(refs []string) []string {
	out := make([]string, 0, len(refs))
	seen := make(map[string]struct{}, len(refs))
	for _, r := range refs {
		if r == "" {
			continue
		}
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return out
}
