package models

// Filter is a case-insensitive substring match on one column.
type Filter struct {
	Column string `json:"column"`
	Value  string `json:"value"`
}

// QuerySpec describes one page of a filtered table scan.
type QuerySpec struct {
	Table    string   `json:"table"`
	Filters  []Filter `json:"filters,omitempty"`
	Page     int      `json:"page"`
	PageSize int      `json:"page_size"`
}

// Offset is the row offset of the page. It is negative for page < 1.
func (s QuerySpec) Offset() int {
	return (s.Page - 1) * s.PageSize
}

// BuiltQuery is SQL text plus its positional parameters.
type BuiltQuery struct {
	SQL  string `json:"sql"`
	Args []any  `json:"args"`
}

type Pagination struct {
	CurrentPage int   `json:"current_page"`
	PageSize    int   `json:"page_size"`
	TotalPages  int   `json:"total_pages"`
	TotalRows   int64 `json:"total_rows"`
	RangeStart  int64 `json:"range_start"`
	RangeEnd    int64 `json:"range_end"`
	HasPrevious bool  `json:"has_previous"`
	HasNext     bool  `json:"has_next"`
}

type PageResult struct {
	Rows       []map[string]any `json:"rows"`
	Pagination Pagination       `json:"pagination"`
}

// NewPagination derives page counts and the displayed row range. The current
// page is not clamped: it may exceed TotalPages after filters change, in
// which case the range is empty.
func NewPagination(page, pageSize int, totalRows int64) Pagination {
	p := Pagination{
		CurrentPage: page,
		PageSize:    pageSize,
		TotalRows:   totalRows,
	}
	if pageSize <= 0 {
		return p
	}

	size := int64(pageSize)
	p.TotalPages = int((totalRows + size - 1) / size)

	// only pages holding rows get a range
	if page >= 1 && page <= p.TotalPages {
		p.RangeStart = int64(page-1)*size + 1
		p.RangeEnd = min(int64(page)*size, totalRows)
	}

	p.HasPrevious = page > 1
	p.HasNext = page < p.TotalPages
	return p
}
