package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func schemaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the relationship diagram as positioned JSON or Mermaid",
		Args:  cobra.NoArgs,
		RunE:  cmdSchema,
	}
	cmd.Flags().String("format", "json", "output format: json or mermaid")
	return cmd
}

func cmdSchema(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	if format != "json" && format != "mermaid" {
		return fmt.Errorf("unknown format %q (want json or mermaid)", format)
	}

	a, err := setup(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()

	if format == "mermaid" {
		out, ok := a.svc.Schema.Mermaid(cmd.Context())
		if !ok {
			a.logger.Warn("Schema metadata incomplete", zap.String("schema", a.svc.Schema.Schema()))
		}
		_, err := fmt.Fprint(cmd.OutOrStdout(), out)
		return err
	}

	diagram, ok := a.svc.Schema.Diagram(cmd.Context())
	if !ok {
		a.logger.Warn("Schema metadata incomplete", zap.String("schema", a.svc.Schema.Schema()))
	}
	return printJSON(cmd.OutOrStdout(), diagram)
}

func analyzeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "analyze",
		Short: "Run ANALYZE to refresh row estimates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			if err := a.svc.Table.Analyze(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ANALYZE completed")
			return nil
		},
	}
}
