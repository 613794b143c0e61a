//go:build integration

package repositories

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tablescope/internal/models"
	"tablescope/internal/testhelpers"
)

func TestSchemaRepository_Integration(t *testing.T) {
	db := testhelpers.GetTestDB(t)
	repo := NewSchemaRepository(db.Pool)
	ctx := context.Background()

	tables, err := repo.GetTables(ctx, "public")
	require.NoError(t, err)
	assert.Equal(t, []string{"employees", "orders", "settings", "users"}, tables)

	columns, err := repo.GetColumns(ctx, "public", "orders")
	require.NoError(t, err)
	require.Len(t, columns, 1)
	names := make([]string, 0, len(columns["orders"]))
	for _, c := range columns["orders"] {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"id", "user_id", "status", "total", "created_at"}, names)
	assert.True(t, columns["orders"][1].Nullable)
	assert.False(t, columns["orders"][2].Nullable)

	all, err := repo.GetColumns(ctx, "public", "")
	require.NoError(t, err)
	assert.Len(t, all, 4)

	fks, err := repo.GetForeignKeys(ctx, "public", "")
	require.NoError(t, err)
	assert.ElementsMatch(t, []models.ForeignKey{
		{ConstraintName: "employees_manager_id_fkey", SourceTable: "employees", SourceColumn: "manager_id", ReferencedTable: "employees", ReferencedColumn: "id"},
		{ConstraintName: "orders_user_id_fkey", SourceTable: "orders", SourceColumn: "user_id", ReferencedTable: "users", ReferencedColumn: "id"},
	}, fks)

	ordersFKs, err := repo.GetForeignKeys(ctx, "public", "orders")
	require.NoError(t, err)
	assert.Len(t, ordersFKs, 1)

	none, err := repo.GetForeignKeys(ctx, "public", "settings")
	require.NoError(t, err)
	assert.Empty(t, none)

	stats, err := repo.GetTableStats(ctx, "public")
	require.NoError(t, err)
	assert.Len(t, stats, 4)
}

func TestTableRepository_Integration(t *testing.T) {
	db := testhelpers.GetTestDB(t)
	repo := NewTableRepository(db.Pool)
	ctx := context.Background()

	rows, err := repo.FetchRows(ctx, &models.BuiltQuery{
		SQL:  `SELECT * FROM "orders" WHERE "status"::text ILIKE $1 LIMIT $2 OFFSET $3`,
		Args: []any{"%OPEN%", 10, 10},
	})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	for _, row := range rows {
		assert.Equal(t, "open", row["status"])
		assert.IsType(t, "", row["created_at"])
		assert.IsType(t, "", row["total"])
	}

	total, err := repo.Count(ctx, &models.BuiltQuery{
		SQL:  `SELECT COUNT(*) FROM "orders" WHERE "status"::text ILIKE $1`,
		Args: []any{"%open%"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(12), total)

	_, err = repo.FetchRows(ctx, &models.BuiltQuery{SQL: `SELECT * FROM "missing" LIMIT $1 OFFSET $2`, Args: []any{10, 0}})
	assert.Error(t, err)

	require.NoError(t, repo.Analyze(ctx))
}
