package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"lakeagent/internal/domain"
)

func newRelationshipsCmd(client *Client) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "relationships",
		Aliases: []string{"rels"},
		Short:   "Inspect and register join relationships",
	}

	cmd.AddCommand(newRelationshipsListCmd(client))
	cmd.AddCommand(newRelationshipsAddCmd(client))

	return cmd
}

func newRelationshipsListCmd(client *Client) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all registered relationships",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var resp listEnvelope[domain.Relationship]
			if err := client.JSON("GET", "/relationships", nil, nil, &resp); err != nil {
				return err
			}
			if getOutputFormat(cmd) == "json" {
				return printJSON(os.Stdout, resp)
			}

			rows := make([][]string, 0, len(resp.Data))
			for _, rel := range resp.Data {
				enforced := "no"
				if rel.Enforced {
					enforced = "yes"
				}
				rows = append(rows, []string{
					rel.Source.String(), rel.Target.String(), string(rel.Cardinality), enforced,
				})
			}
			printTable(os.Stdout, []string{"SOURCE", "TARGET", "CARDINALITY", "ENFORCED"}, rows)
			_, _ = fmt.Fprintf(os.Stdout, "\n%d relationship(s)\n", resp.Total)
			return nil
		},
	}
}

func newRelationshipsAddCmd(client *Client) *cobra.Command {
	var (
		source      string
		target      string
		cardinality string
		enforced    bool
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register a relationship between two columns",
		Long:  "Register a directed edge between a source and target column, each given as table.column with a qualified table name.",
		Example: `  lakeagent relationships add --source silver.orders.customer_id --target silver.customers.customer_id
  lakeagent relationships add --source silver.orders.product_id --target silver.products.product_id --cardinality MANY_TO_ONE`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			srcTable, srcColumn, err := splitColumnRef(source)
			if err != nil {
				return fmt.Errorf("--source: %w", err)
			}
			tgtTable, tgtColumn, err := splitColumnRef(target)
			if err != nil {
				return fmt.Errorf("--target: %w", err)
			}

			body := map[string]interface{}{
				"source_table":  srcTable,
				"source_column": srcColumn,
				"target_table":  tgtTable,
				"target_column": tgtColumn,
			}
			if cardinality != "" {
				body["cardinality"] = cardinality
			}
			if enforced {
				body["enforced"] = true
			}

			var rel domain.Relationship
			if err := client.JSON("POST", "/relationships", nil, body, &rel); err != nil {
				return err
			}
			if getOutputFormat(cmd) == "json" {
				return printJSON(os.Stdout, rel)
			}
			_, _ = fmt.Fprintf(os.Stdout, "Added %s -> %s (%s)\n", rel.Source, rel.Target, rel.Cardinality)
			return nil
		},
	}

	cmd.Flags().StringVar(&source, "source", "", "Source column as table.column (required)")
	cmd.Flags().StringVar(&target, "target", "", "Target column as table.column (required)")
	cmd.Flags().StringVar(&cardinality, "cardinality", "", "Cardinality: ONE_TO_ONE, ONE_TO_MANY, MANY_TO_ONE, MANY_TO_MANY")
	cmd.Flags().BoolVar(&enforced, "enforced", false, "Mark the edge as backed by a real constraint")
	_ = cmd.MarkFlagRequired("source")
	_ = cmd.MarkFlagRequired("target")

	return cmd
}

// splitColumnRef splits "schema.table.column" or "catalog.schema.table.column"
// into the table reference and the trailing column name.
func splitColumnRef(ref string) (table, column string, err error) {
	idx := -1
	for i := len(ref) - 1; i >= 0; i-- {
		if ref[i] == '.' {
			idx = i
			break
		}
	}
	if idx <= 0 || idx == len(ref)-1 {
		return "", "", fmt.Errorf("reference %q must be table.column", ref)
	}
	return ref[:idx], ref[idx+1:], nil
}
