package llm

import (
	"context"
	"encoding/json"
	"strings"

	"lakeagent/internal/domain"
)

// GenerateSQL turns a query plan into a single SQL statement. The model is
// given the plan's tables, columns, join paths, and business-term
// expressions; everything else is up to it.
func (c *Client) GenerateSQL(ctx context.Context, plan *domain.QueryPlan) (string, error) {
	out, err := c.complete(ctx, sqlSystemPrompt, buildSQLPrompt(plan))
	if err != nil {
		return "", err
	}
	sqlText := strings.TrimSpace(stripFences(out))
	if sqlText == "" {
		return "", domain.ErrValidation("model returned no SQL")
	}
	return sqlText, nil
}

// RankTables asks the model to order candidate tables by relevance to the
// request. The reply must be a JSON array of table names; anything else is
// a validation error so callers can fall back to their own heuristics.
func (c *Client) RankTables(ctx context.Context, request string, candidates []domain.Table) ([]string, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	out, err := c.complete(ctx, rankSystemPrompt, buildRankPrompt(request, candidates))
	if err != nil {
		return nil, err
	}

	var names []string
	if err := json.Unmarshal([]byte(extractJSON(out)), &names); err != nil {
		return nil, domain.ErrValidation("table ranking is not a JSON array: %v", err)
	}
	return names, nil
}

// ParseSchedule turns a natural-language recurrence ("every morning at 6")
// into a cron expression plus a human-readable summary.
func (c *Client) ParseSchedule(ctx context.Context, text string) (*domain.ScheduleSpec, error) {
	out, err := c.complete(ctx, scheduleSystemPrompt, buildSchedulePrompt(text))
	if err != nil {
		return nil, err
	}

	var spec domain.ScheduleSpec
	if err := json.Unmarshal([]byte(extractJSON(out)), &spec); err != nil {
		return nil, domain.ErrValidation("schedule reply is not valid JSON: %v", err)
	}
	if strings.TrimSpace(spec.Cron) == "" {
		return nil, domain.ErrValidation("schedule reply has no cron expression")
	}
	return &spec, nil
}

// stripFences removes a surrounding markdown code fence, language tag
// included, and leaves everything else alone.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.Index(s, "\n"); i >= 0 {
		s = s[i+1:]
	}
	if i := strings.LastIndex(s, "```"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

// extractJSON pulls the first JSON value out of a reply that may wrap it in
// prose or a code fence.
func extractJSON(s string) string {
	s = stripFences(s)
	start := strings.IndexAny(s, "[{")
	if start < 0 {
		return s
	}
	closer := byte(']')
	if s[start] == '{' {
		closer = '}'
	}
	end := strings.LastIndexByte(s, closer)
	if end <= start {
		return s
	}
	return s[start : end+1]
}
