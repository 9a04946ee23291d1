package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"lakeagent/internal/catalog"
)

func newCatalogCmd(client *Client) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Sync and enrich the metadata catalog",
	}

	cmd.AddCommand(newCatalogSyncCmd(client))
	cmd.AddCommand(newCatalogDetectCmd(client))
	cmd.AddCommand(newCatalogStatsCmd(client))
	cmd.AddCommand(newTablesListCmd(client, "tables"))
	cmd.AddCommand(newTablesGetCmd(client, "show <table>"))

	return cmd
}

func newCatalogSyncCmd(client *Client) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Pull table and column metadata from the warehouse",
		Long:  "Walk the bronze, silver, and gold schemas in the configured warehouse and merge their tables and columns into the catalog.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var result catalog.SyncResult
			if err := client.JSON("POST", "/catalog/sync", nil, nil, &result); err != nil {
				return err
			}
			if getOutputFormat(cmd) == "json" {
				return printJSON(os.Stdout, result)
			}

			_, _ = fmt.Fprintf(os.Stdout, "Synced %d table(s), %d column(s) from schemas %s in %s\n",
				result.Tables, result.Columns, strings.Join(result.Schemas, ", "), result.Duration)
			for _, skipped := range result.Skipped {
				_, _ = fmt.Fprintf(os.Stdout, "  skipped: %s\n", skipped)
			}
			return nil
		},
	}
}

func newCatalogDetectCmd(client *Client) *cobra.Command {
	return &cobra.Command{
		Use:   "detect",
		Short: "Auto-detect join relationships from column naming",
		Long:  "Scan registered columns for shared join-key names (_id, _code, _key suffixes), register the synthesized relationships, and report any ambiguous targets.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var resp listEnvelope[catalog.Detection]
			if err := client.JSON("POST", "/catalog/detect", nil, nil, &resp); err != nil {
				return err
			}
			if getOutputFormat(cmd) == "json" {
				return printJSON(os.Stdout, resp)
			}

			rows := make([][]string, 0, len(resp.Data))
			for _, d := range resp.Data {
				rows = append(rows, []string{
					d.Relationship.Source.String(),
					d.Relationship.Target.String(),
					string(d.Relationship.Cardinality),
					dash(strings.Join(d.AltTargets, ", ")),
				})
			}
			printTable(os.Stdout, []string{"SOURCE", "TARGET", "CARDINALITY", "ALT TARGETS"}, rows)
			_, _ = fmt.Fprintf(os.Stdout, "\n%d relationship(s) detected\n", resp.Total)
			return nil
		},
	}
}

func newCatalogStatsCmd(client *Client) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show catalog registry sizes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var health struct {
				Status  string        `json:"status"`
				Catalog catalog.Stats `json:"catalog"`
			}
			if err := client.JSON("GET", "/health", nil, nil, &health); err != nil {
				return err
			}
			if getOutputFormat(cmd) == "json" {
				return printJSON(os.Stdout, health)
			}

			printDetail(os.Stdout, [][2]string{
				{"Status", health.Status},
				{"Tables", strconv.Itoa(health.Catalog.Tables)},
				{"Columns", strconv.Itoa(health.Catalog.Columns)},
				{"Relationships", strconv.Itoa(health.Catalog.Relationships)},
				{"Terms", strconv.Itoa(health.Catalog.Terms)},
			})
			return nil
		},
	}
}
