package services

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"tablescope/internal/apperrors"
	"tablescope/internal/database"
	"tablescope/internal/models"
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// ValidateIdentifier admits name for interpolation into SQL text.
func ValidateIdentifier(name string) error {
	if !identifierPattern.MatchString(name) {
		return fmt.Errorf("%w: %q", apperrors.ErrInvalidIdentifier, name)
	}
	return nil
}

// ValidateQuerySpec checks the table name and pagination, in that order, and
// returns the row offset. Pages whose offset does not fit in an int are
// rejected.
func ValidateQuerySpec(spec models.QuerySpec) (int, error) {
	if err := ValidateIdentifier(spec.Table); err != nil {
		return 0, fmt.Errorf("table: %w", err)
	}
	if spec.PageSize <= 0 {
		return 0, fmt.Errorf("%w: page size %d", apperrors.ErrInvalidPagination, spec.PageSize)
	}
	if spec.Page < 1 {
		return 0, fmt.Errorf("%w: page %d", apperrors.ErrInvalidPagination, spec.Page)
	}
	if spec.Page-1 > math.MaxInt/spec.PageSize {
		return 0, fmt.Errorf("%w: page %d of size %d is out of range", apperrors.ErrInvalidPagination, spec.Page, spec.PageSize)
	}
	return spec.Offset(), nil
}

// BuildRowQuery returns a SELECT for one page of spec.Table. Filter columns
// are taken from knownColumns only; filters naming other columns are ignored.
func BuildRowQuery(spec models.QuerySpec, knownColumns []models.Column) (*models.BuiltQuery, error) {
	offset, err := ValidateQuerySpec(spec)
	if err != nil {
		return nil, err
	}

	where, args, err := buildWhereClause(spec.Filters, knownColumns)
	if err != nil {
		return nil, err
	}

	n := len(args)
	query := fmt.Sprintf("SELECT * FROM %s%s LIMIT $%d OFFSET $%d",
		database.QuoteIdentifier(spec.Table), where, n+1, n+2)
	args = append(args, spec.PageSize, offset)

	return &models.BuiltQuery{SQL: query, Args: args}, nil
}

// BuildCountQuery returns a COUNT(*) sharing BuildRowQuery's WHERE clause and
// filter parameters.
func BuildCountQuery(spec models.QuerySpec, knownColumns []models.Column) (*models.BuiltQuery, error) {
	if _, err := ValidateQuerySpec(spec); err != nil {
		return nil, err
	}

	where, args, err := buildWhereClause(spec.Filters, knownColumns)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT COUNT(*) FROM %s%s", database.QuoteIdentifier(spec.Table), where)
	return &models.BuiltQuery{SQL: query, Args: args}, nil
}

// buildWhereClause emits one ILIKE predicate per known column with a
// non-empty filter, in column declaration order.
func buildWhereClause(filters []models.Filter, knownColumns []models.Column) (string, []any, error) {
	values := make(map[string]string, len(filters))
	for _, f := range filters {
		if f.Value == "" {
			continue
		}
		if _, seen := values[f.Column]; !seen {
			values[f.Column] = f.Value
		}
	}
	if len(values) == 0 {
		return "", []any{}, nil
	}

	var conditions []string
	args := []any{}
	for _, col := range knownColumns {
		value, ok := values[col.Name]
		if !ok {
			continue
		}
		if err := ValidateIdentifier(col.Name); err != nil {
			return "", nil, fmt.Errorf("column: %w", err)
		}
		args = append(args, "%"+value+"%")
		conditions = append(conditions, fmt.Sprintf("%s::text ILIKE $%d", database.QuoteIdentifier(col.Name), len(args)))
	}

	if len(conditions) == 0 {
		return "", args, nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args, nil
}

// ResetPage returns spec at page 1, used whenever the filter set changes.
func ResetPage(spec models.QuerySpec) models.QuerySpec {
	spec.Page = 1
	return spec
}
