// Package layout turns the foreign-key graph into a layered diagram.
package layout

import (
	"fmt"

	"tablescope/internal/models"
)

// Options are the sizing and spacing constants, in layout units.
type Options struct {
	NodeWidth    float64
	ColumnHeight float64
	HeaderHeight float64
	NodeSep      float64 // between neighbouring nodes of one rank
	EdgeSep      float64 // between a node and an edge passing through its rank
	RankSep      float64 // between ranks
	ComponentSep float64 // between disconnected components
	Passes       int     // ordering sweeps
}

func DefaultOptions() Options {
	return Options{
		NodeWidth:    400,
		ColumnHeight: 30,
		HeaderHeight: 90,
		NodeSep:      80,
		EdgeSep:      40,
		RankSep:      120,
		ComponentSep: 160,
		Passes:       8,
	}
}

// NodeHeight sizes a table node by its column count.
func (o Options) NodeHeight(columns int) float64 {
	return float64(columns)*o.ColumnHeight + o.HeaderHeight
}

// EdgeID identifies a foreign key as holding table, key column and referenced table.
func EdgeID(fk models.ForeignKey) string {
	return fmt.Sprintf("%s-%s-%s", fk.SourceTable, fk.SourceColumn, fk.ReferencedTable)
}

// BuildGraph creates one node per table, in table order, and one edge per
// foreign key pointing from the referenced table to the holding table.
// Foreign keys touching tables outside the list are dropped, as are
// repeated edge IDs.
func BuildGraph(tables []string, columns map[string][]models.Column, fks []models.ForeignKey, opts Options) ([]models.GraphNode, []models.GraphEdge) {
	nodes := make([]models.GraphNode, 0, len(tables))
	known := make(map[string]bool, len(tables))
	for _, table := range tables {
		if known[table] {
			continue
		}
		known[table] = true

		cols := columns[table]
		if cols == nil {
			cols = []models.Column{}
		}
		nodes = append(nodes, models.GraphNode{
			ID:      table,
			Columns: cols,
			Width:   opts.NodeWidth,
			Height:  opts.NodeHeight(len(cols)),
		})
	}

	edges := make([]models.GraphEdge, 0, len(fks))
	seen := make(map[string]bool, len(fks))
	for _, fk := range fks {
		if !known[fk.SourceTable] || !known[fk.ReferencedTable] {
			continue
		}
		id := EdgeID(fk)
		if seen[id] {
			continue
		}
		seen[id] = true

		edges = append(edges, models.GraphEdge{
			ID:     id,
			Source: fk.ReferencedTable,
			Target: fk.SourceTable,
			Label:  fk.SourceColumn,
		})
	}

	return nodes, edges
}
