package repositories

import (
	"context"
	"database/sql/driver"
	"encoding/hex"
	"fmt"
	"net/netip"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"tablescope/internal/apperrors"
	"tablescope/internal/database"
	"tablescope/internal/models"
)

type TableRepository struct {
	db database.Querier
}

func NewTableRepository(db database.Querier) *TableRepository {
	return &TableRepository{
		db: db,
	}
}

// FetchRows runs a built row query and returns each row as column -> value.
func (r *TableRepository) FetchRows(ctx context.Context, q *models.BuiltQuery) ([]map[string]any, error) {
	rows, err := r.db.Query(ctx, q.SQL, q.Args...)
	if err != nil {
		return nil, executionErr("query rows", err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	result := []map[string]any{}
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, executionErr("read row", err)
		}

		rowMap := make(map[string]any, len(fields))
		for i, fd := range fields {
			rowMap[fd.Name] = normalizeValue(values[i])
		}
		result = append(result, rowMap)
	}

	if err := rows.Err(); err != nil {
		return nil, executionErr("iterate rows", err)
	}

	return result, nil
}

// Count runs a built count query.
func (r *TableRepository) Count(ctx context.Context, q *models.BuiltQuery) (int64, error) {
	var total int64
	if err := r.db.QueryRow(ctx, q.SQL, q.Args...).Scan(&total); err != nil {
		return 0, executionErr("count rows", err)
	}
	return total, nil
}

// Analyze refreshes planner statistics for the whole database.
func (r *TableRepository) Analyze(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, "ANALYZE"); err != nil {
		return executionErr("analyze", err)
	}
	return nil
}

// normalizeValue converts driver values into JSON-friendly scalars.
func normalizeValue(val any) any {
	switch v := val.(type) {
	case nil:
		return nil
	case []byte:
		// bytea in its Postgres text form
		return `\x` + hex.EncodeToString(v)
	case time.Time:
		return v.Format(time.RFC3339)
	case [16]byte:
		return uuid.UUID(v).String()
	case netip.Prefix:
		return v.String()
	case pgtype.Numeric:
		// decimal text keeps full precision
		b, err := v.MarshalJSON()
		if err != nil {
			return fmt.Sprint(v)
		}
		if text := strings.Trim(string(b), `"`); text != "null" {
			return text
		}
		return nil
	case driver.Valuer:
		// pgtype.Interval and friends render through their text form
		dv, err := v.Value()
		if err != nil {
			return fmt.Sprint(v)
		}
		return normalizeValue(dv)
	default:
		return v
	}
}

func executionErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", apperrors.ErrQueryExecutionFailed, op, err)
}
