package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"tablescope/internal/apperrors"
	"tablescope/internal/logging"
	"tablescope/internal/models"
	"tablescope/internal/navigation"
	"tablescope/internal/repositories"
)

type TableService struct {
	schemaService *SchemaService
	tableRepo     *repositories.TableRepository
	timeout       time.Duration
	maxPageSize   int
	logger        *zap.Logger
}

func NewTableService(
	schemaService *SchemaService,
	tableRepo *repositories.TableRepository,
	timeout time.Duration,
	maxPageSize int,
	logger *zap.Logger,
) *TableService {
	return &TableService{
		schemaService: schemaService,
		tableRepo:     tableRepo,
		timeout:       timeout,
		maxPageSize:   maxPageSize,
		logger:        logging.OrNop(logger).Named("table"),
	}
}

type BrowseRequest struct {
	Table       string
	Filters     []models.Filter
	Page        int
	PageSize    int
	Breadcrumbs []string
}

// TablePage is one page of a table with everything needed to render it.
// Links is parallel to Rows and holds only the cells that navigate.
type TablePage struct {
	Table       string                           `json:"table"`
	Columns     []models.Column                  `json:"columns"`
	ForeignKeys []models.ForeignKey              `json:"foreign_keys"`
	Filters     []models.Filter                  `json:"filters"`
	Rows        []map[string]any                 `json:"rows"`
	Links       []map[string]navigation.CellLink `json:"links"`
	Pagination  models.Pagination                `json:"pagination"`
	Breadcrumbs string                           `json:"breadcrumbs"`
	Trail       []navigation.Crumb               `json:"trail"`
	Degraded    bool                             `json:"degraded"`
}

// Browse returns one filtered page of req.Table. Invalid names and
// pagination are rejected before any query runs. Missing foreign keys degrade
// the page; missing columns fail it when filters are set.
func (s *TableService) Browse(ctx context.Context, req BrowseRequest) (*TablePage, error) {
	spec := models.QuerySpec{
		Table:    req.Table,
		Filters:  req.Filters,
		Page:     req.Page,
		PageSize: req.PageSize,
	}
	if _, err := ValidateQuerySpec(spec); err != nil {
		return nil, err
	}
	if s.maxPageSize > 0 && spec.PageSize > s.maxPageSize {
		return nil, fmt.Errorf("%w: page size %d exceeds %d", apperrors.ErrInvalidPagination, spec.PageSize, s.maxPageSize)
	}

	var (
		columns       map[string][]models.Column
		fks           []models.ForeignKey
		okCols, okFKs bool
	)
	meta, mctx := errgroup.WithContext(ctx)
	meta.Go(func() error {
		columns, okCols = s.schemaService.ListColumns(mctx, spec.Table)
		return nil
	})
	meta.Go(func() error {
		fks, okFKs = s.schemaService.ListForeignKeys(mctx, spec.Table)
		return nil
	})
	_ = meta.Wait()

	// without columns every filter would be dropped and the page would
	// silently show unfiltered rows
	if !okCols && hasFilterValues(spec.Filters) {
		return nil, fmt.Errorf("%w: columns of %q needed to apply filters", apperrors.ErrMetadataUnavailable, spec.Table)
	}

	known := columns[spec.Table]
	if known == nil {
		known = []models.Column{}
	}

	rowQuery, err := BuildRowQuery(spec, known)
	if err != nil {
		return nil, err
	}
	countQuery, err := BuildCountQuery(spec, known)
	if err != nil {
		return nil, err
	}

	qctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	var (
		rows  []map[string]any
		total int64
	)
	g, gctx := errgroup.WithContext(qctx)
	g.Go(func() error {
		var err error
		rows, err = s.tableRepo.FetchRows(gctx, rowQuery)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.tableRepo.Count(gctx, countQuery)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("Failed to browse table",
			zap.String("table", spec.Table),
			zap.Int("page", spec.Page),
			zap.Error(err),
		)
		return nil, err
	}

	chain := req.Breadcrumbs
	if chain == nil {
		chain = []string{}
	}

	return &TablePage{
		Table:       spec.Table,
		Columns:     known,
		ForeignKeys: fks,
		Filters:     activeFilters(spec.Filters, known),
		Rows:        rows,
		Links:       cellLinks(rows, known, fks, spec.Table, chain),
		Pagination:  models.NewPagination(spec.Page, spec.PageSize, total),
		Breadcrumbs: navigation.Encode(chain),
		Trail:       navigation.Trail(chain, spec.Table),
		Degraded:    !okCols || !okFKs,
	}, nil
}

// Analyze refreshes planner statistics so estimated row counts are current.
func (s *TableService) Analyze(ctx context.Context) error {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	if err := s.tableRepo.Analyze(ctx); err != nil {
		s.logger.Error("ANALYZE failed", zap.Error(err))
		return err
	}
	s.logger.Info("ANALYZE completed", zap.Duration("duration", time.Since(start)))
	return nil
}

// activeFilters returns the filters the queries actually applied, in
// column order.
func activeFilters(filters []models.Filter, known []models.Column) []models.Filter {
	active := []models.Filter{}
	for _, col := range known {
		for _, f := range filters {
			if f.Column == col.Name && f.Value != "" {
				active = append(active, f)
				break
			}
		}
	}
	return active
}

func hasFilterValues(filters []models.Filter) bool {
	for _, f := range filters {
		if f.Value != "" {
			return true
		}
	}
	return false
}

func cellLinks(rows []map[string]any, columns []models.Column, fks []models.ForeignKey, table string, chain []string) []map[string]navigation.CellLink {
	links := make([]map[string]navigation.CellLink, len(rows))
	for i, row := range rows {
		links[i] = map[string]navigation.CellLink{}
		for _, col := range columns {
			link := navigation.LinkFor(row[col.Name], models.ForeignKeyFor(fks, col.Name), table, chain)
			if link != nil {
				links[i][col.Name] = *link
			}
		}
	}
	return links
}
