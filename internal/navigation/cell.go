package navigation

import (
	"fmt"

	"tablescope/internal/models"
)

type CellKind string

const (
	PlainText     CellKind = "text"
	NavigableLink CellKind = "link"
)

// ClassifyCell decides whether a cell renders as a link to the referenced
// row. Null values, columns without a foreign key and references back to the
// current table stay plain text.
func ClassifyCell(value any, fk *models.ForeignKey, currentTable string) CellKind {
	if fk == nil || value == nil {
		return PlainText
	}
	if fk.ReferencedTable == currentTable {
		return PlainText
	}
	return NavigableLink
}

// CellLink is the navigation target of a foreign-key cell: the referenced
// table filtered on the referenced column, with the extended history.
type CellLink struct {
	Table       string `json:"table"`
	Column      string `json:"column"`
	Value       string `json:"value"`
	Breadcrumbs string `json:"breadcrumbs"`
}

// LinkFor returns the link for a cell, or nil when it renders as plain text.
func LinkFor(value any, fk *models.ForeignKey, currentTable string, chain []string) *CellLink {
	if ClassifyCell(value, fk, currentTable) != NavigableLink {
		return nil
	}
	return &CellLink{
		Table:       fk.ReferencedTable,
		Column:      fk.ReferencedColumn,
		Value:       fmt.Sprint(value),
		Breadcrumbs: Encode(Append(chain, currentTable)),
	}
}
