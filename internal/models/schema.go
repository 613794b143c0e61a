package models

type Column struct {
	Name     string `json:"name"`
	DataType string `json:"data_type"`
	Nullable bool   `json:"nullable"`
}

// ForeignKey is a single-column reference from SourceTable.SourceColumn to
// ReferencedTable.ReferencedColumn. ReferencedTable may equal SourceTable.
type ForeignKey struct {
	ConstraintName   string `json:"constraint_name"`
	SourceTable      string `json:"source_table"`
	SourceColumn     string `json:"source_column"`
	ReferencedTable  string `json:"referenced_table"`
	ReferencedColumn string `json:"referenced_column"`
}

type Table struct {
	Name    string   `json:"name"`
	Columns []Column `json:"columns"`
}

// TableSummary is a table name with the planner's live row estimate.
type TableSummary struct {
	Name          string `json:"name"`
	EstimatedRows int64  `json:"estimated_rows"`
}

type Relationship struct {
	FromTable string
	ToTable   string
	Column    string
	Type      string // "||--o{", "||--||", etc.
}

// ForeignKeyFor returns the first foreign key held by column, or nil.
func ForeignKeyFor(fks []ForeignKey, column string) *ForeignKey {
	for i := range fks {
		if fks[i].SourceColumn == column {
			return &fks[i]
		}
	}
	return nil
}
