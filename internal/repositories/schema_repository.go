package repositories

import (
	"context"
	"fmt"

	"tablescope/internal/apperrors"
	"tablescope/internal/database"
	"tablescope/internal/models"
)

type SchemaRepository struct {
	db database.Querier
}

func NewSchemaRepository(db database.Querier) *SchemaRepository {
	return &SchemaRepository{db: db}
}

// GetTables returns all base table names in the specified schema
func (r *SchemaRepository) GetTables(ctx context.Context, schema string) ([]string, error) {
	query := `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = $1
		AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`

	rows, err := r.db.Query(ctx, query, schema)
	if err != nil {
		return nil, metadataErr("query tables", err)
	}
	defer rows.Close()

	tables := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, metadataErr("scan table", err)
		}
		tables = append(tables, name)
	}

	if err := rows.Err(); err != nil {
		return nil, metadataErr("iterate tables", err)
	}

	return tables, nil
}

// GetColumns returns columns grouped by table in declaration order.
// An empty table name returns every table in the schema.
func (r *SchemaRepository) GetColumns(ctx context.Context, schema, table string) (map[string][]models.Column, error) {
	query := `
		SELECT table_name, column_name, data_type, is_nullable
		FROM information_schema.columns
		WHERE table_schema = $1
		AND ($2::text = '' OR table_name = $2)
		ORDER BY table_name, ordinal_position
	`

	rows, err := r.db.Query(ctx, query, schema, table)
	if err != nil {
		return nil, metadataErr("query columns", err)
	}
	defer rows.Close()

	columns := make(map[string][]models.Column)
	for rows.Next() {
		var tableName, nullable string
		var col models.Column
		if err := rows.Scan(&tableName, &col.Name, &col.DataType, &nullable); err != nil {
			return nil, metadataErr("scan column", err)
		}
		col.Nullable = nullable == "YES"
		columns[tableName] = append(columns[tableName], col)
	}

	if err := rows.Err(); err != nil {
		return nil, metadataErr("iterate columns", err)
	}

	return columns, nil
}

// GetForeignKeys returns foreign keys held by tables in the schema, or by a
// single table when table is non-empty.
//
// constraint_column_usage is joined on constraint name alone, so every ccu row
// sharing the name is paired with the key column. Constraint names are only
// unique per table, so equally named constraints on other tables (or other
// schemas) surface as extra rows. The graph and link code consume this shape
// as is. Rows are narrowed to FOREIGN KEY constraints through
// table_constraints, so unique and check constraints never appear as edges.
func (r *SchemaRepository) GetForeignKeys(ctx context.Context, schema, table string) ([]models.ForeignKey, error) {
	query := `
		SELECT
			kcu.constraint_name,
			kcu.table_name,
			kcu.column_name,
			ccu.table_name AS referenced_table,
			ccu.column_name AS referenced_column
		FROM information_schema.key_column_usage AS kcu
		JOIN information_schema.table_constraints AS tc
			ON tc.constraint_name = kcu.constraint_name
			AND tc.table_schema = kcu.table_schema
			AND tc.table_name = kcu.table_name
		JOIN information_schema.constraint_column_usage AS ccu
			ON ccu.constraint_name = kcu.constraint_name
		WHERE tc.constraint_type = 'FOREIGN KEY'
			AND kcu.table_schema = $1
			AND ($2::text = '' OR kcu.table_name = $2)
		ORDER BY kcu.table_name, kcu.constraint_name, kcu.ordinal_position
	`

	rows, err := r.db.Query(ctx, query, schema, table)
	if err != nil {
		return nil, metadataErr("query foreign keys", err)
	}
	defer rows.Close()

	fks := []models.ForeignKey{}
	for rows.Next() {
		var fk models.ForeignKey
		if err := rows.Scan(&fk.ConstraintName, &fk.SourceTable, &fk.SourceColumn, &fk.ReferencedTable, &fk.ReferencedColumn); err != nil {
			return nil, metadataErr("scan foreign key", err)
		}
		fks = append(fks, fk)
	}

	if err := rows.Err(); err != nil {
		return nil, metadataErr("iterate foreign keys", err)
	}

	return fks, nil
}

// GetTableStats returns every user table with its live row estimate.
func (r *SchemaRepository) GetTableStats(ctx context.Context, schema string) ([]models.TableSummary, error) {
	query := `
		SELECT relname, n_live_tup
		FROM pg_stat_user_tables
		WHERE schemaname = $1
		ORDER BY relname
	`

	rows, err := r.db.Query(ctx, query, schema)
	if err != nil {
		return nil, metadataErr("query table stats", err)
	}
	defer rows.Close()

	stats := []models.TableSummary{}
	for rows.Next() {
		var s models.TableSummary
		if err := rows.Scan(&s.Name, &s.EstimatedRows); err != nil {
			return nil, metadataErr("scan table stats", err)
		}
		stats = append(stats, s)
	}

	if err := rows.Err(); err != nil {
		return nil, metadataErr("iterate table stats", err)
	}

	return stats, nil
}

func metadataErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", apperrors.ErrMetadataUnavailable, op, err)
}
