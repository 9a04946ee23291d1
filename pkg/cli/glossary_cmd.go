package cli

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"lakeagent/internal/domain"
)

func newGlossaryCmd(client *Client) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "glossary",
		Short: "Manage the business glossary",
	}

	cmd.AddCommand(newGlossaryListCmd(client))
	cmd.AddCommand(newGlossaryAddCmd(client))
	cmd.AddCommand(newGlossaryResolveCmd(client))

	return cmd
}

func newGlossaryListCmd(client *Client) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all business terms",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var resp listEnvelope[domain.BusinessTerm]
			if err := client.JSON("GET", "/glossary", nil, nil, &resp); err != nil {
				return err
			}
			if getOutputFormat(cmd) == "json" {
				return printJSON(os.Stdout, resp)
			}

			rows := make([][]string, 0, len(resp.Data))
			for _, t := range resp.Data {
				rows = append(rows, []string{
					t.Term,
					string(t.Kind),
					dash(strings.Join(t.Aliases, ", ")),
					dash(t.Expression),
				})
			}
			printTable(os.Stdout, []string{"TERM", "KIND", "ALIASES", "EXPRESSION"}, rows)
			_, _ = fmt.Fprintf(os.Stdout, "\n%d term(s)\n", resp.Total)
			return nil
		},
	}
}

func newGlossaryAddCmd(client *Client) *cobra.Command {
	var (
		aliases    []string
		kind       string
		expression string
		tables     []string
		columns    []string
		definition string
	)

	cmd := &cobra.Command{
		Use:   "add <term>",
		Short: "Register a business term",
		Long:  "Register a term mapping a business phrase to a data expression. Adding an existing term replaces its definition.",
		Example: `  lakeagent glossary add revenue --kind metric --expression "SUM(total_amount)" --table silver.orders
  lakeagent glossary add "active customer" --alias "active user" --kind filter --expression "status = 'active'"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body := map[string]interface{}{
				"term": args[0],
			}
			if len(aliases) > 0 {
				body["aliases"] = aliases
			}
			if kind != "" {
				body["kind"] = kind
			}
			if expression != "" {
				body["expression"] = expression
			}
			if len(tables) > 0 {
				body["tables"] = tables
			}
			if len(columns) > 0 {
				body["columns"] = columns
			}
			if definition != "" {
				body["definition"] = definition
			}

			var term domain.BusinessTerm
			if err := client.JSON("POST", "/glossary", nil, body, &term); err != nil {
				return err
			}
			if getOutputFormat(cmd) == "json" {
				return printJSON(os.Stdout, term)
			}
			_, _ = fmt.Fprintf(os.Stdout, "Added term %q (%s)\n", term.Term, term.Kind)
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&aliases, "alias", nil, "Alias phrase (repeatable)")
	cmd.Flags().StringVar(&kind, "kind", "", "Term kind: metric, dimension, filter, entity, time_period")
	cmd.Flags().StringVar(&expression, "expression", "", "Data expression the term maps to")
	cmd.Flags().StringArrayVar(&tables, "table", nil, "Source table (repeatable)")
	cmd.Flags().StringArrayVar(&columns, "column", nil, "Source column (repeatable)")
	cmd.Flags().StringVar(&definition, "definition", "", "Human definition")

	return cmd
}

func newGlossaryResolveCmd(client *Client) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <text>",
		Short: "Resolve free text to the first matching term",
		Example: `  lakeagent glossary resolve "show turnover by territory"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{}
			q.Set("q", args[0])

			var term domain.BusinessTerm
			if err := client.JSON("GET", "/glossary/resolve", q, nil, &term); err != nil {
				return err
			}
			if getOutputFormat(cmd) == "json" {
				return printJSON(os.Stdout, term)
			}

			printDetail(os.Stdout, [][2]string{
				{"Term", term.Term},
				{"Kind", string(term.Kind)},
				{"Aliases", dash(strings.Join(term.Aliases, ", "))},
				{"Expression", dash(term.Expression)},
				{"Tables", dash(strings.Join(term.Tables, ", "))},
				{"Definition", dash(term.Definition)},
			})
			return nil
		},
	}
}
