package llm

import (
	"fmt"
	"strings"

	"lakeagent/internal/domain"
)

const sqlSystemPrompt = `You are a data engineer writing SQL for a medallion-architecture warehouse (bronze = raw landing, silver = cleaned, gold = aggregated marts).
Reply with exactly one SQL statement and nothing else. No prose, no explanation.
Use only the tables and columns listed in the request. Qualify every table with its schema.`

const rankSystemPrompt = `You rank warehouse tables by relevance to a user request.
Reply with a JSON array of table names drawn from the candidate list, most relevant first, and nothing else.
Omit tables that are irrelevant to the request. Use the names exactly as given.`

const scheduleSystemPrompt = `You convert natural-language recurrence descriptions into standard 5-field cron expressions (minute hour day-of-month month day-of-week).
Reply with a JSON object {"cron": "...", "summary": "..."} and nothing else.
The summary restates the schedule in plain English.`

func buildSQLPrompt(plan *domain.QueryPlan) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Request: %s\n\n", plan.Request)
	fmt.Fprintf(&b, "Write one SQL statement of the form CREATE OR REPLACE TABLE %s AS SELECT ...\n\n", plan.TargetTable)

	fmt.Fprintf(&b, "Primary table: %s\n", plan.Primary.Table.Name)
	writeTableDetail(&b, plan.Primary.Table, plan.Primary.Columns)

	for _, sup := range plan.Supporting {
		b.WriteString("\n")
		if sup.JoinPath != nil {
			fmt.Fprintf(&b, "Joined table: %s\n", sup.Table.Name)
			for _, step := range sup.JoinPath.Steps {
				fmt.Fprintf(&b, "  join: %s\n", step.Rel.JoinClause())
			}
		} else {
			fmt.Fprintf(&b, "Context table (no known join to the primary): %s\n", sup.Table.Name)
		}
		writeTableDetail(&b, sup.Table, sup.Columns)
	}

	if len(plan.Terms) > 0 {
		b.WriteString("\nBusiness terms used in the request:\n")
		for _, term := range plan.Terms {
			fmt.Fprintf(&b, "  - %s (%s)", term.Term, term.Kind)
			if term.Expression != "" {
				fmt.Fprintf(&b, ": %s", term.Expression)
			}
			if term.Definition != "" {
				fmt.Fprintf(&b, " - %s", term.Definition)
			}
			b.WriteString("\n")
		}
	}

	return b.String()
}

func writeTableDetail(b *strings.Builder, table domain.Table, cols []domain.Column) {
	fmt.Fprintf(b, "  layer=%s type=%s rows=%d", table.Layer, table.Type, table.RowCount)
	if table.Description != "" {
		fmt.Fprintf(b, " - %s", table.Description)
	}
	b.WriteString("\n")
	for _, col := range cols {
		fmt.Fprintf(b, "  - %s %s", col.Name, col.DataType)
		if col.Role != "" {
			fmt.Fprintf(b, " [%s]", col.Role)
		}
		if col.Comment != "" {
			fmt.Fprintf(b, " -- %s", col.Comment)
		}
		b.WriteString("\n")
	}
}

func buildRankPrompt(request string, candidates []domain.Table) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Request: %s\n\nCandidate tables:\n", request)
	for _, table := range candidates {
		fmt.Fprintf(&b, "  - %s (layer=%s type=%s domain=%s rows=%d)",
			table.Name, table.Layer, table.Type, table.Domain, table.RowCount)
		if table.Description != "" {
			fmt.Fprintf(&b, " %s", table.Description)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func buildSchedulePrompt(text string) string {
	return "Schedule description: " + text
}
