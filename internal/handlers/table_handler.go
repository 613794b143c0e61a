package handlers

import (
	"cmp"
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"

	"tablescope/internal/models"
	"tablescope/internal/navigation"
	"tablescope/internal/responses"
	"tablescope/internal/services"
)

type TableHandler struct {
	tableService    *services.TableService
	schemaService   *services.SchemaService
	defaultPageSize int
}

func NewTableHandler(tableService *services.TableService, schemaService *services.SchemaService, defaultPageSize int) *TableHandler {
	return &TableHandler{
		tableService:    tableService,
		schemaService:   schemaService,
		defaultPageSize: defaultPageSize,
	}
}

// browseQuery holds the reserved query parameters. Every other parameter is
// a column filter, so columns named page, pageSize or breadcrumbs cannot be
// filtered over HTTP.
type browseQuery struct {
	Page        int    `form:"page,default=1"`
	PageSize    *int   `form:"pageSize"`
	Breadcrumbs string `form:"breadcrumbs" binding:"max=2048"`
}

var reservedParams = []string{"page", "pageSize", "breadcrumbs"}

// ListTables handles GET /api/v1/tables
func (h *TableHandler) ListTables(c *gin.Context) {
	tables, ok := h.schemaService.ListTableSummaries(c.Request.Context())

	responses.Success(c, http.StatusOK, gin.H{
		"schema":   h.schemaService.Schema(),
		"tables":   tables,
		"degraded": !ok,
	}, "Tables fetched successfully")
}

// BrowseTable handles GET /api/v1/tables/:table
func (h *TableHandler) BrowseTable(c *gin.Context) {
	var q browseQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Invalid query parameters")
		return
	}

	pageSize := h.defaultPageSize
	if q.PageSize != nil {
		pageSize = *q.PageSize
	}

	page, err := h.tableService.Browse(c.Request.Context(), services.BrowseRequest{
		Table:       c.Param("table"),
		Filters:     filtersFromQuery(c),
		Page:        q.Page,
		PageSize:    pageSize,
		Breadcrumbs: navigation.Decode(q.Breadcrumbs),
	})
	if err != nil {
		responses.Fail(c, responses.StatusFor(err), err, "Failed to fetch table rows")
		return
	}

	responses.Success(c, http.StatusOK, page, "Rows fetched successfully")
}

// Analyze handles POST /api/v1/analyze
func (h *TableHandler) Analyze(c *gin.Context) {
	if err := h.tableService.Analyze(c.Request.Context()); err != nil {
		responses.Fail(c, responses.StatusFor(err), err, "Failed to analyze database")
		return
	}
	responses.Success(c, http.StatusOK, nil, "Statistics refreshed")
}

// filtersFromQuery turns non-reserved query parameters into filters, sorted
// by column name. Only the first value of a repeated parameter is used.
func filtersFromQuery(c *gin.Context) []models.Filter {
	params := c.Request.URL.Query()

	filters := make([]models.Filter, 0, len(params))
	for column, values := range params {
		if slices.Contains(reservedParams, column) || len(values) == 0 {
			continue
		}
		filters = append(filters, models.Filter{Column: column, Value: values[0]})
	}
	slices.SortFunc(filters, func(a, b models.Filter) int {
		return cmp.Compare(a.Column, b.Column)
	})
	return filters
}
