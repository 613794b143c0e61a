package repositories

import (
	"context"
	"errors"
	"net/netip"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tablescope/internal/apperrors"
	"tablescope/internal/models"
	"tablescope/internal/testhelpers"
)

func TestNormalizeValue(t *testing.T) {
	id := uuid.MustParse("7d444840-9dc0-11d1-b245-5ffdce74fad2")
	at := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)

	var amount pgtype.Numeric
	require.NoError(t, amount.Scan("12.50"))

	assert.Nil(t, normalizeValue(nil))
	assert.Equal(t, `\x726177`, normalizeValue([]byte("raw")))
	assert.Equal(t, `\xdeadbeef`, normalizeValue([]byte{0xde, 0xad, 0xbe, 0xef}))
	assert.Equal(t, "2024-03-01T12:30:00Z", normalizeValue(at))
	assert.Equal(t, id.String(), normalizeValue([16]byte(id)))
	assert.Equal(t, "10.0.0.0/8", normalizeValue(netip.MustParsePrefix("10.0.0.0/8")))
	assert.Equal(t, "12.50", normalizeValue(amount))
	assert.Equal(t, int64(42), normalizeValue(int64(42)))
	assert.Equal(t, true, normalizeValue(true))
}

func TestTableRepository_FetchRows(t *testing.T) {
	q := testhelpers.NewFakeQuerier().
		On("SELECT", []string{"id", "name"}, []any{int64(1), "Ada"}, []any{int64(2), nil})
	repo := NewTableRepository(q)

	rows, err := repo.FetchRows(context.Background(), &models.BuiltQuery{
		SQL:  `SELECT * FROM "users" LIMIT $1 OFFSET $2`,
		Args: []any{10, 0},
	})

	require.NoError(t, err)
	assert.Equal(t, []map[string]any{
		{"id": int64(1), "name": "Ada"},
		{"id": int64(2), "name": nil},
	}, rows)
	assert.Equal(t, []any{10, 0}, q.Calls()[0].Args)
}

func TestTableRepository_FetchRowsEmpty(t *testing.T) {
	q := testhelpers.NewFakeQuerier().On("SELECT", []string{"id"})

	rows, err := NewTableRepository(q).FetchRows(context.Background(), &models.BuiltQuery{SQL: `SELECT * FROM "users"`})

	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestTableRepository_Errors(t *testing.T) {
	down := errors.New("connection reset by peer")
	q := testhelpers.NewFakeQuerier().Fail("SELECT", down).Fail("ANALYZE", down)
	repo := NewTableRepository(q)
	ctx := context.Background()

	_, err := repo.FetchRows(ctx, &models.BuiltQuery{SQL: `SELECT * FROM "users"`})
	assert.ErrorIs(t, err, apperrors.ErrQueryExecutionFailed)
	assert.ErrorIs(t, err, down)

	_, err = repo.Count(ctx, &models.BuiltQuery{SQL: `SELECT COUNT(*) FROM "users"`})
	assert.ErrorIs(t, err, apperrors.ErrQueryExecutionFailed)

	err = repo.Analyze(ctx)
	assert.ErrorIs(t, err, apperrors.ErrQueryExecutionFailed)
}

func TestSchemaRepository_ErrorsWrapMetadataUnavailable(t *testing.T) {
	q := testhelpers.NewFakeQuerier().Fail("FROM", errors.New("permission denied"))
	repo := NewSchemaRepository(q)
	ctx := context.Background()

	_, err := repo.GetTables(ctx, "public")
	assert.ErrorIs(t, err, apperrors.ErrMetadataUnavailable)
	_, err = repo.GetColumns(ctx, "public", "")
	assert.ErrorIs(t, err, apperrors.ErrMetadataUnavailable)
	_, err = repo.GetForeignKeys(ctx, "public", "")
	assert.ErrorIs(t, err, apperrors.ErrMetadataUnavailable)
	_, err = repo.GetTableStats(ctx, "public")
	assert.ErrorIs(t, err, apperrors.ErrMetadataUnavailable)
}
