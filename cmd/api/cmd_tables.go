package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"tablescope/internal/models"
	"tablescope/internal/navigation"
	"tablescope/internal/services"
)

func tablesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "List tables with estimated row counts",
		Args:  cobra.NoArgs,
		RunE:  cmdTables,
	}
}

func cmdTables(cmd *cobra.Command, args []string) error {
	a, err := setup(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()

	tables, ok := a.svc.Schema.ListTableSummaries(cmd.Context())
	if !ok {
		return fmt.Errorf("could not read the catalog of schema %q", a.svc.Schema.Schema())
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TABLE\tEST. ROWS")
	for _, t := range tables {
		fmt.Fprintf(tw, "%s\t%d\n", t.Name, t.EstimatedRows)
	}
	return tw.Flush()
}

func browseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "browse <table>",
		Short: "Print one page of a table as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  cmdBrowse,
	}
	cmd.Flags().Int("page", 1, "page number, starting at 1")
	cmd.Flags().Int("page-size", 0, "rows per page (default from config)")
	cmd.Flags().StringToString("filter", nil, "column=substring filters, case-insensitive")
	cmd.Flags().String("breadcrumbs", "", "navigation history, tables separated by "+navigation.Delimiter)
	return cmd
}

func cmdBrowse(cmd *cobra.Command, args []string) error {
	page, _ := cmd.Flags().GetInt("page")
	pageSize, _ := cmd.Flags().GetInt("page-size")
	filterFlags, _ := cmd.Flags().GetStringToString("filter")
	breadcrumbs, _ := cmd.Flags().GetString("breadcrumbs")

	a, err := setup(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()

	if pageSize == 0 {
		pageSize = a.cfg.Browse.DefaultPageSize
	}

	filters := make([]models.Filter, 0, len(filterFlags))
	for column, value := range filterFlags {
		filters = append(filters, models.Filter{Column: strings.TrimSpace(column), Value: value})
	}

	result, err := a.svc.Table.Browse(cmd.Context(), services.BrowseRequest{
		Table:       args[0],
		Filters:     filters,
		Page:        page,
		PageSize:    pageSize,
		Breadcrumbs: navigation.Decode(breadcrumbs),
	})
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), result)
}
