package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"tablescope/internal/layout"
	"tablescope/internal/logging"
	"tablescope/internal/models"
	"tablescope/internal/repositories"
)

// SchemaService answers catalog questions about one schema. Catalog failures
// never surface as errors: each call returns an empty collection and ok=false,
// and logs the cause.
type SchemaService struct {
	schemaRepo *repositories.SchemaRepository
	schema     string
	timeout    time.Duration
	layoutOpts layout.Options
	logger     *zap.Logger
}

// NewSchemaService creates a new SchemaService
func NewSchemaService(schemaRepo *repositories.SchemaRepository, schema string, timeout time.Duration, logger *zap.Logger) *SchemaService {
	if schema == "" {
		schema = "public"
	}
	return &SchemaService{
		schemaRepo: schemaRepo,
		schema:     schema,
		timeout:    timeout,
		layoutOpts: layout.DefaultOptions(),
		logger:     logging.OrNop(logger).Named("schema"),
	}
}

func (s *SchemaService) Schema() string {
	return s.schema
}

// ListTables returns the base tables of the schema in name order.
func (s *SchemaService) ListTables(ctx context.Context) ([]string, bool) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	tables, err := s.schemaRepo.GetTables(ctx, s.schema)
	if err != nil {
		s.degraded("list tables", "", err)
		return []string{}, false
	}
	return tables, true
}

// ListColumns returns columns grouped by table. An empty table lists the
// whole schema.
func (s *SchemaService) ListColumns(ctx context.Context, table string) (map[string][]models.Column, bool) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	columns, err := s.schemaRepo.GetColumns(ctx, s.schema, table)
	if err != nil {
		s.degraded("list columns", table, err)
		return map[string][]models.Column{}, false
	}
	return columns, true
}

// ListForeignKeys returns the foreign keys held by table, or by every table
// of the schema when table is empty.
func (s *SchemaService) ListForeignKeys(ctx context.Context, table string) ([]models.ForeignKey, bool) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	fks, err := s.schemaRepo.GetForeignKeys(ctx, s.schema, table)
	if err != nil {
		s.degraded("list foreign keys", table, err)
		return []models.ForeignKey{}, false
	}
	return fks, true
}

// ListTableSummaries returns each table with its estimated live row count.
func (s *SchemaService) ListTableSummaries(ctx context.Context) ([]models.TableSummary, bool) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	stats, err := s.schemaRepo.GetTableStats(ctx, s.schema)
	if err != nil {
		s.degraded("list table stats", "", err)
		return []models.TableSummary{}, false
	}
	return stats, true
}

type schemaSnapshot struct {
	tables  []string
	columns map[string][]models.Column
	fks     []models.ForeignKey
	ok      bool
}

// snapshot reads tables, columns and foreign keys of the whole schema
// concurrently.
func (s *SchemaService) snapshot(ctx context.Context) schemaSnapshot {
	var (
		snap                    schemaSnapshot
		okTables, okCols, okFKs bool
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		snap.tables, okTables = s.ListTables(gctx)
		return nil
	})
	g.Go(func() error {
		snap.columns, okCols = s.ListColumns(gctx, "")
		return nil
	})
	g.Go(func() error {
		snap.fks, okFKs = s.ListForeignKeys(gctx, "")
		return nil
	})
	_ = g.Wait()

	snap.ok = okTables && okCols && okFKs
	return snap
}

// Diagram builds the relationship graph of the schema and lays it out.
func (s *SchemaService) Diagram(ctx context.Context) (*models.Diagram, bool) {
	snap := s.snapshot(ctx)

	nodes, edges := layout.BuildGraph(snap.tables, snap.columns, snap.fks, s.layoutOpts)
	if len(nodes) > 0 {
		nodes = layout.Layout(nodes, edges, s.layoutOpts)
	}

	s.logger.Debug("Schema diagram built",
		zap.Int("nodes", len(nodes)),
		zap.Int("edges", len(edges)),
		zap.Bool("ok", snap.ok),
	)
	return &models.Diagram{Nodes: nodes, Edges: edges}, snap.ok
}

// Mermaid renders the schema as a Mermaid ER diagram.
func (s *SchemaService) Mermaid(ctx context.Context) (string, bool) {
	snap := s.snapshot(ctx)

	tables := make([]models.Table, 0, len(snap.tables))
	for _, name := range snap.tables {
		tables = append(tables, models.Table{Name: name, Columns: snap.columns[name]})
	}
	return generateMermaid(tables, buildRelationships(snap.fks)), snap.ok
}

func (s *SchemaService) degraded(op, table string, err error) {
	s.logger.Warn("Metadata unavailable, returning empty result",
		zap.String("op", op),
		zap.String("schema", s.schema),
		zap.String("table", table),
		zap.Error(err),
	)
}

func buildRelationships(fks []models.ForeignKey) []models.Relationship {
	relationships := make([]models.Relationship, 0, len(fks))
	for _, fk := range fks {
		relationships = append(relationships, models.Relationship{
			FromTable: fk.ReferencedTable,
			ToTable:   fk.SourceTable,
			Column:    fk.SourceColumn,
			Type:      "||--o{",
		})
	}
	return relationships
}

func generateMermaid(tables []models.Table, relationships []models.Relationship) string {
	var sb strings.Builder

	sb.WriteString("erDiagram\n")

	if len(relationships) > 0 {
		seen := make(map[string]bool)
		for _, rel := range relationships {
			key := fmt.Sprintf("%s:%s:%s", rel.FromTable, rel.ToTable, rel.Column)
			if seen[key] {
				continue
			}
			seen[key] = true

			sb.WriteString(fmt.Sprintf("    %s %s %s : %q\n",
				strings.ToUpper(rel.FromTable),
				rel.Type,
				strings.ToUpper(rel.ToTable),
				rel.Column))
		}
		sb.WriteString("\n")
	}

	fkColumns := make(map[string]bool)
	for _, rel := range relationships {
		fkColumns[rel.ToTable+"."+rel.Column] = true
	}

	for _, table := range tables {
		sb.WriteString(fmt.Sprintf("    %s {\n", strings.ToUpper(table.Name)))

		for _, col := range table.Columns {
			annotation := ""
			if fkColumns[table.Name+"."+col.Name] {
				annotation = " FK"
			}
			sb.WriteString(fmt.Sprintf("        %s %s%s\n",
				simplifyDataType(col.DataType),
				col.Name,
				annotation))
		}

		sb.WriteString("    }\n\n")
	}

	return sb.String()
}

// simplifyDataType shortens catalog type names to single Mermaid tokens.
func simplifyDataType(dataType string) string {
	dt := strings.ToLower(dataType)

	switch {
	case dt == "integer":
		return "int"
	case strings.HasPrefix(dt, "character varying"):
		return "varchar"
	case strings.HasPrefix(dt, "character"):
		return "char"
	case strings.HasPrefix(dt, "timestamp without time zone"):
		return "timestamp"
	case strings.HasPrefix(dt, "timestamp with time zone"):
		return "timestamptz"
	case strings.HasPrefix(dt, "time without time zone"):
		return "time"
	case strings.HasPrefix(dt, "time with time zone"):
		return "timetz"
	case dt == "double precision":
		return "double"
	case strings.HasPrefix(dt, "array"):
		return "array"
	default:
		return strings.ReplaceAll(dt, " ", "_")
	}
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
