package cli

import (
	"fmt"
	"net/url"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"lakeagent/internal/domain"
)

func newGraphCmd(client *Client) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Traverse the relationship graph",
	}

	cmd.AddCommand(newGraphJoinPathCmd(client))
	cmd.AddCommand(newGraphRelatedCmd(client))

	return cmd
}

func newGraphJoinPathCmd(client *Client) *cobra.Command {
	var maxHops int

	cmd := &cobra.Command{
		Use:   "join-path <from> <to>",
		Short: "Find the shortest join path between two tables",
		Example: `  lakeagent graph join-path silver.orders silver.products
  lakeagent graph join-path gold.revenue bronze.raw_orders --max-hops 5 --output json`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{}
			q.Set("from", args[0])
			q.Set("to", args[1])
			q.Set("max_hops", strconv.Itoa(maxHops))

			var result struct {
				Reachable bool             `json:"reachable"`
				From      string           `json:"from"`
				To        string           `json:"to"`
				MaxHops   int              `json:"max_hops"`
				Path      *domain.JoinPath `json:"path"`
			}
			if err := client.JSON("GET", "/join-path", q, nil, &result); err != nil {
				return err
			}
			if getOutputFormat(cmd) == "json" {
				return printJSON(os.Stdout, result)
			}

			if !result.Reachable {
				_, _ = fmt.Fprintf(os.Stdout, "No join path from %s to %s within %d hop(s)\n",
					result.From, result.To, result.MaxHops)
				return nil
			}
			if result.Path == nil || len(result.Path.Steps) == 0 {
				_, _ = fmt.Fprintf(os.Stdout, "%s and %s are the same table\n", result.From, result.To)
				return nil
			}

			_, _ = fmt.Fprintf(os.Stdout, "Join path (%d hop(s)):\n", result.Path.HopCount())
			for i, step := range result.Path.Steps {
				_, _ = fmt.Fprintf(os.Stdout, "  %d. %s -> %s ON %s\n",
					i+1, step.From, step.To, step.Rel.JoinClause())
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&maxHops, "max-hops", 3, "Maximum relationship traversals")

	return cmd
}

func newGraphRelatedCmd(client *Client) *cobra.Command {
	var maxHops int

	cmd := &cobra.Command{
		Use:   "related <table>",
		Short: "List tables reachable from one table, nearest first",
		Example: `  lakeagent graph related silver.orders
  lakeagent graph related silver.customers --max-hops 2`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{}
			q.Set("from", args[0])
			q.Set("max_hops", strconv.Itoa(maxHops))

			var resp listEnvelope[domain.RelatedTable]
			if err := client.JSON("GET", "/related-tables", q, nil, &resp); err != nil {
				return err
			}
			if getOutputFormat(cmd) == "json" {
				return printJSON(os.Stdout, resp)
			}

			rows := make([][]string, 0, len(resp.Data))
			for _, rt := range resp.Data {
				via := "-"
				if len(rt.Path.Steps) > 0 {
					via = rt.Path.Steps[0].Rel.JoinClause()
				}
				rows = append(rows, []string{rt.Table, strconv.Itoa(rt.Hops), via})
			}
			printTable(os.Stdout, []string{"TABLE", "HOPS", "FIRST JOIN"}, rows)
			_, _ = fmt.Fprintf(os.Stdout, "\n%d related table(s)\n", resp.Total)
			return nil
		},
	}

	cmd.Flags().IntVar(&maxHops, "max-hops", 3, "Maximum relationship traversals")

	return cmd
}
