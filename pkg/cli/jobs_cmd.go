package cli

import (
	"fmt"
	"net/url"
	"os"

	"github.com/spf13/cobra"

	"lakeagent/internal/domain"
)

func newJobsCmd(client *Client) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Manage scheduled transform jobs",
	}

	cmd.AddCommand(newJobsListCmd(client))
	cmd.AddCommand(newJobsAddCmd(client))
	cmd.AddCommand(newJobsRemoveCmd(client))

	return cmd
}

func newJobsListCmd(client *Client) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List scheduled jobs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var resp listEnvelope[domain.Job]
			if err := client.JSON("GET", "/jobs", nil, nil, &resp); err != nil {
				return err
			}
			if getOutputFormat(cmd) == "json" {
				return printJSON(os.Stdout, resp)
			}

			rows := make([][]string, 0, len(resp.Data))
			for _, j := range resp.Data {
				enabled := "no"
				if j.Enabled {
					enabled = "yes"
				}
				lastRun := "-"
				if j.LastRunAt != nil {
					lastRun = j.LastRunAt.Format("2006-01-02 15:04")
				}
				rows = append(rows, []string{
					j.ID, j.Name, j.Cron, enabled, dash(j.LastStatus), lastRun,
				})
			}
			printTable(os.Stdout, []string{"ID", "NAME", "CRON", "ENABLED", "LAST STATUS", "LAST RUN"}, rows)
			_, _ = fmt.Fprintf(os.Stdout, "\n%d job(s)\n", resp.Total)
			return nil
		},
	}
}

func newJobsAddCmd(client *Client) *cobra.Command {
	var (
		cronExpr string
		request  string
		sqlText  string
		disabled bool
	)

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Schedule a recurring transform job",
		Long:  "Register a cron-scheduled job carrying either a SQL statement to run or a natural-language request for the agent to plan on each run.",
		Example: `  lakeagent jobs add nightly-revenue --cron "0 2 * * *" --sql "INSERT INTO gold.revenue ..."
  lakeagent jobs add weekly-dedupe --cron "0 3 * * 1" --request "deduplicate customers into silver"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body := map[string]interface{}{
				"name": args[0],
				"cron": cronExpr,
			}
			if request != "" {
				body["request"] = request
			}
			if sqlText != "" {
				body["sql_text"] = sqlText
			}
			if disabled {
				enabled := false
				body["enabled"] = &enabled
			}

			var job domain.Job
			if err := client.JSON("POST", "/jobs", nil, body, &job); err != nil {
				return err
			}
			if getOutputFormat(cmd) == "json" {
				return printJSON(os.Stdout, job)
			}
			_, _ = fmt.Fprintf(os.Stdout, "Created job %s (%s, cron %q)\n", job.ID, job.Name, job.Cron)
			return nil
		},
	}

	cmd.Flags().StringVar(&cronExpr, "cron", "", "Cron expression (required)")
	cmd.Flags().StringVar(&request, "request", "", "Natural-language request to plan on each run")
	cmd.Flags().StringVar(&sqlText, "sql", "", "SQL statement to run")
	cmd.Flags().BoolVar(&disabled, "disabled", false, "Create the job without scheduling it")
	_ = cmd.MarkFlagRequired("cron")

	return cmd
}

func newJobsRemoveCmd(client *Client) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <job-id>",
		Aliases: []string{"remove", "delete"},
		Short:   "Delete a scheduled job",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/jobs/" + url.PathEscape(args[0])
			if err := client.JSON("DELETE", path, nil, nil, nil); err != nil {
				return err
			}
			if getOutputFormat(cmd) == "json" {
				return printJSON(os.Stdout, map[string]string{"status": "deleted", "id": args[0]})
			}
			_, _ = fmt.Fprintf(os.Stdout, "Deleted job %s\n", args[0])
			return nil
		},
	}
}
