// Package navigation tracks the chain of tables visited by following
// foreign-key links. The chain is advisory history carried by the client; it
// is never used to build SQL or to make access decisions.
package navigation

import (
	"slices"
	"strings"
)

// Delimiter separates table names in an encoded chain.
const Delimiter = "|"

// Append returns chain with current pushed at the end, or chain unchanged
// when current is already in it.
func Append(chain []string, current string) []string {
	if slices.Contains(chain, current) {
		return chain
	}
	next := make([]string, len(chain), len(chain)+1)
	copy(next, chain)
	return append(next, current)
}

// TruncateAt returns chain[0:index], clamping index into range.
func TruncateAt(chain []string, index int) []string {
	index = max(0, min(index, len(chain)))
	return slices.Clone(chain[:index])
}

func Encode(chain []string) string {
	return strings.Join(chain, Delimiter)
}

func Decode(s string) []string {
	if s == "" {
		return []string{}
	}
	return strings.Split(s, Delimiter)
}

// Crumb is one entry of the rendered history trail. Breadcrumbs is the
// encoded chain to carry when navigating back to Table.
type Crumb struct {
	Table       string `json:"table"`
	Breadcrumbs string `json:"breadcrumbs"`
	Current     bool   `json:"current"`
}

// Trail renders chain followed by the current table. Clicking entry i
// returns to chain[i] with history chain[0:i].
func Trail(chain []string, current string) []Crumb {
	trail := make([]Crumb, 0, len(chain)+1)
	for i, table := range chain {
		trail = append(trail, Crumb{
			Table:       table,
			Breadcrumbs: Encode(TruncateAt(chain, i)),
		})
	}
	return append(trail, Crumb{Table: current, Breadcrumbs: Encode(chain), Current: true})
}
