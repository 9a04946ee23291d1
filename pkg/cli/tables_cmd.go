package cli

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"lakeagent/internal/domain"
)

func newTablesCmd(client *Client) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tables",
		Short: "Inspect and register catalog tables",
	}

	cmd.AddCommand(newTablesListCmd(client, "list"))
	cmd.AddCommand(newTablesGetCmd(client, "get <table>"))
	cmd.AddCommand(newTablesRegisterCmd(client))

	return cmd
}

func newTablesListCmd(client *Client, use string) *cobra.Command {
	var (
		filter  string
		layer   string
		dataDom string
		tags    []string
	)

	cmd := &cobra.Command{
		Use:   use,
		Short: "List registered tables",
		Example: `  lakeagent tables list
  lakeagent tables list --layer gold --tag finance
  lakeagent tables list -q orders --output json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			q := url.Values{}
			if filter != "" {
				q.Set("q", filter)
			}
			if layer != "" {
				q.Set("layer", layer)
			}
			if dataDom != "" {
				q.Set("domain", dataDom)
			}
			for _, tag := range tags {
				q.Add("tag", tag)
			}

			var resp listEnvelope[domain.Table]
			if err := client.JSON("GET", "/tables", q, nil, &resp); err != nil {
				return err
			}
			if getOutputFormat(cmd) == "json" {
				return printJSON(os.Stdout, resp)
			}

			rows := make([][]string, 0, len(resp.Data))
			for _, t := range resp.Data {
				rows = append(rows, []string{
					t.Name.String(),
					string(t.Layer),
					string(t.Type),
					dash(t.Domain),
					strconv.FormatInt(t.RowCount, 10),
					dash(strings.Join(t.Tags, ",")),
				})
			}
			printTable(os.Stdout, []string{"NAME", "LAYER", "TYPE", "DOMAIN", "ROWS", "TAGS"}, rows)
			_, _ = fmt.Fprintf(os.Stdout, "\n%d table(s)\n", resp.Total)
			return nil
		},
	}

	cmd.Flags().StringVarP(&filter, "filter", "q", "", "Substring filter on name, description, domain, or tags")
	cmd.Flags().StringVar(&layer, "layer", "", "Filter by layer: bronze, silver, gold")
	cmd.Flags().StringVar(&dataDom, "domain", "", "Filter by business domain")
	cmd.Flags().StringArrayVar(&tags, "tag", nil, "Filter by tag (repeatable, AND-combined)")

	return cmd
}

func newTablesGetCmd(client *Client, use string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: "Show one table with its columns and relationships",
		Example: `  lakeagent tables get silver.orders
  lakeagent tables get lakehouse.gold.revenue_by_region --output json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var detail struct {
				Table         domain.Table          `json:"table"`
				Columns       []domain.Column       `json:"columns"`
				Relationships []domain.Relationship `json:"relationships"`
			}
			path := "/tables/" + url.PathEscape(args[0])
			if err := client.JSON("GET", path, nil, nil, &detail); err != nil {
				return err
			}
			if getOutputFormat(cmd) == "json" {
				return printJSON(os.Stdout, detail)
			}

			printDetail(os.Stdout, [][2]string{
				{"Name", detail.Table.Name.String()},
				{"Layer", string(detail.Table.Layer)},
				{"Type", string(detail.Table.Type)},
				{"Domain", dash(detail.Table.Domain)},
				{"Description", dash(detail.Table.Description)},
				{"Primary keys", dash(strings.Join(detail.Table.PrimaryKeys, ", "))},
				{"Rows", strconv.FormatInt(detail.Table.RowCount, 10)},
				{"Tags", dash(strings.Join(detail.Table.Tags, ", "))},
			})

			_, _ = fmt.Fprintf(os.Stdout, "\nColumns (%d):\n", len(detail.Columns))
			colRows := make([][]string, 0, len(detail.Columns))
			for _, c := range detail.Columns {
				nullable := "NO"
				if c.Nullable {
					nullable = "YES"
				}
				colRows = append(colRows, []string{
					c.Name, c.DataType, string(c.Role), nullable, dash(c.FKTarget),
				})
			}
			printTable(os.Stdout, []string{"COLUMN", "TYPE", "ROLE", "NULLABLE", "FK TARGET"}, colRows)

			if len(detail.Relationships) > 0 {
				_, _ = fmt.Fprintf(os.Stdout, "\nRelationships (%d):\n", len(detail.Relationships))
				relRows := make([][]string, 0, len(detail.Relationships))
				for _, rel := range detail.Relationships {
					relRows = append(relRows, []string{
						rel.Source.String(), rel.Target.String(), string(rel.Cardinality),
					})
				}
				printTable(os.Stdout, []string{"SOURCE", "TARGET", "CARDINALITY"}, relRows)
			}
			return nil
		},
	}
}

func newTablesRegisterCmd(client *Client) *cobra.Command {
	var (
		layer       string
		tableType   string
		dataDom     string
		description string
		primaryKeys []string
		rowCount    int64
		tags        []string
	)

	cmd := &cobra.Command{
		Use:   "register <table>",
		Short: "Register a table in the catalog",
		Long:  "Register a table by qualified name (schema.table or catalog.schema.table). Re-registering an existing name overwrites its attributes.",
		Example: `  lakeagent tables register silver.orders --domain sales --pk order_id
  lakeagent tables register gold.revenue_by_region --type view --tag finance`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body := map[string]interface{}{
				"name": args[0],
			}
			if layer != "" {
				body["layer"] = layer
			}
			if tableType != "" {
				body["type"] = tableType
			}
			if dataDom != "" {
				body["domain"] = dataDom
			}
			if description != "" {
				body["description"] = description
			}
			if len(primaryKeys) > 0 {
				body["primary_keys"] = primaryKeys
			}
			if rowCount > 0 {
				body["row_count"] = rowCount
			}
			if len(tags) > 0 {
				body["tags"] = tags
			}

			var table domain.Table
			if err := client.JSON("POST", "/tables", nil, body, &table); err != nil {
				return err
			}
			if getOutputFormat(cmd) == "json" {
				return printJSON(os.Stdout, table)
			}
			_, _ = fmt.Fprintf(os.Stdout, "Registered %s (layer=%s, type=%s)\n", table.Name, table.Layer, table.Type)
			return nil
		},
	}

	cmd.Flags().StringVar(&layer, "layer", "", "Layer: bronze, silver, gold (inferred from the schema name when omitted)")
	cmd.Flags().StringVar(&tableType, "type", "", "Table type: table, view, materialized_view")
	cmd.Flags().StringVar(&dataDom, "domain", "", "Business domain")
	cmd.Flags().StringVar(&description, "description", "", "Human description")
	cmd.Flags().StringArrayVar(&primaryKeys, "pk", nil, "Primary key column (repeatable)")
	cmd.Flags().Int64Var(&rowCount, "row-count", 0, "Approximate row count")
	cmd.Flags().StringArrayVar(&tags, "tag", nil, "Tag (repeatable)")

	return cmd
}
