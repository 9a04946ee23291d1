package cli

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"lakeagent/internal/domain"
)

func newPlanCmd(client *Client) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Plan transformation requests",
	}

	cmd.AddCommand(newPlanCreateCmd(client))
	cmd.AddCommand(newPlanGetCmd(client))

	return cmd
}

func newPlanCreateCmd(client *Client) *cobra.Command {
	return &cobra.Command{
		Use:   "create <request>",
		Short: "Plan a natural-language transformation request",
		Long:  "Turn a natural-language request into a structured query plan: primary table, supporting tables with join paths, matched glossary terms, and a proposed target. When a SQL generator is configured the draft statement rides along.",
		Example: `  lakeagent plan create "monthly revenue by region from orders"
  lakeagent plan create "deduplicate customers into silver" --output json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var plan domain.QueryPlan
			body := map[string]string{"request": args[0]}
			if err := client.JSON("POST", "/plans", nil, body, &plan); err != nil {
				return err
			}
			if getOutputFormat(cmd) == "json" {
				return printJSON(os.Stdout, plan)
			}

			printPlan(os.Stdout, &plan)
			return nil
		},
	}
}

func newPlanGetCmd(client *Client) *cobra.Command {
	return &cobra.Command{
		Use:   "get <plan-id>",
		Short: "Show the recorded lifecycle of one planning attempt",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var run domain.PlanRun
			path := "/plans/" + url.PathEscape(args[0])
			if err := client.JSON("GET", path, nil, nil, &run); err != nil {
				return err
			}
			if getOutputFormat(cmd) == "json" {
				return printJSON(os.Stdout, run)
			}

			pairs := [][2]string{
				{"ID", run.ID},
				{"Request", run.Request},
				{"Status", string(run.Status)},
				{"Created", run.CreatedAt.Format("2006-01-02 15:04:05")},
			}
			if run.Error != "" {
				pairs = append(pairs, [2]string{"Error", run.Error})
			}
			printDetail(os.Stdout, pairs)
			if run.SQLText != "" {
				_, _ = fmt.Fprintf(os.Stdout, "\nSQL:\n%s\n", run.SQLText)
			}
			return nil
		},
	}
}

func printPlan(w *os.File, plan *domain.QueryPlan) {
	printDetail(w, [][2]string{
		{"Plan", plan.ID},
		{"Request", plan.Request},
		{"Source layer", string(plan.SourceLayer)},
		{"Target layer", string(plan.TargetLayer)},
		{"Target table", plan.TargetTable},
		{"Primary", plan.Primary.Table.Name.String()},
	})

	if len(plan.Supporting) > 0 {
		_, _ = fmt.Fprintf(w, "\nSupporting tables:\n")
		for _, s := range plan.Supporting {
			join := "no join path"
			if s.JoinPath != nil {
				clauses := make([]string, 0, len(s.JoinPath.Steps))
				for _, step := range s.JoinPath.Steps {
					clauses = append(clauses, step.Rel.JoinClause())
				}
				join = strings.Join(clauses, " AND ")
			}
			_, _ = fmt.Fprintf(w, "  %s (%s)\n", s.Table.Name, join)
		}
	}

	if len(plan.Terms) > 0 {
		_, _ = fmt.Fprintf(w, "\nGlossary terms:\n")
		for _, t := range plan.Terms {
			_, _ = fmt.Fprintf(w, "  %s = %s\n", t.Term, t.Expression)
		}
	}

	if plan.GeneratedSQL != "" {
		_, _ = fmt.Fprintf(w, "\nGenerated SQL:\n%s\n", plan.GeneratedSQL)
	}
}
