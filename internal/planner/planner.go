// Package planner turns a natural-language transform request into a
// structured query plan: target and source layers, a primary table,
// supporting tables with join paths, and resolved business terms. SQL text
// generation is deliberately not done here; the plan is handed to a
// text-generation collaborator.
package planner

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"lakeagent/internal/catalog"
	"lakeagent/internal/domain"
)

const defaultMaxHops = 3

// Layer classification runs over fixed keyword buckets in bucket order:
// aggregation/report vocabulary targets gold, cleaning/normalization
// vocabulary targets silver, and anything else defaults to silver.
var goldKeywords = []string{"aggregate", "summary", "summarize", "report", "metric", "kpi", "dashboard", "rollup"}

var silverKeywords = []string{"clean", "cleanse", "normalize", "normalise", "dedupe", "deduplicate", "standardize", "standardise", "transform"}

// Planner plans transform requests against the catalog. The ranker is
// optional; without one (or when it fails) candidate selection falls back to
// tables mentioned by name in the request, then to the whole source layer.
type Planner struct {
	store   *catalog.Store
	ranker  domain.TableRanker
	logger  *slog.Logger
	maxHops int
}

// New builds a Planner. ranker may be nil.
func New(store *catalog.Store, ranker domain.TableRanker, logger *slog.Logger) *Planner {
	return &Planner{
		store:   store,
		ranker:  ranker,
		logger:  logger,
		maxHops: defaultMaxHops,
	}
}

// Plan executes the planning pipeline for one request. It returns a
// *domain.NoRelevantTablesError when no registered table survives discovery;
// every other condition (no terms, unreachable supporting tables) degrades
// the plan instead of failing it.
func (p *Planner) Plan(ctx context.Context, request string) (*domain.QueryPlan, error) {
	request = strings.TrimSpace(request)
	if request == "" {
		return nil, domain.ErrValidation("request text is required")
	}

	terms := p.store.ExtractTerms(request)

	target := classifyTargetLayer(request)
	source, _ := target.Beneath()

	candidates := p.store.FindTables(domain.TableFilter{Layer: source})
	if len(candidates) == 0 {
		return nil, domain.ErrNoRelevantTables(source, request)
	}

	chosen := p.chooseTables(ctx, request, candidates)
	if len(chosen) == 0 {
		return nil, domain.ErrNoRelevantTables(source, request)
	}

	primaryIdx := selectPrimary(chosen)
	primary := chosen[primaryIdx]

	plan := &domain.QueryPlan{
		ID:          uuid.NewString(),
		Request:     request,
		TargetLayer: target,
		SourceLayer: source,
		Primary: domain.PlanTable{
			Table:   primary,
			Columns: p.store.GetColumns(primary.Name.String()),
		},
		Terms:       terms,
		TargetTable: proposeTargetTable(target, primary),
		CreatedAt:   time.Now().UTC(),
	}

	for i, t := range chosen {
		if i == primaryIdx {
			continue
		}
		supporting := domain.SupportingTable{
			Table:   t,
			Columns: p.store.GetColumns(t.Name.String()),
		}
		path, err := p.store.FindJoinPath(primary.Name.String(), t.Name.String(), p.maxHops)
		var unreach *domain.UnreachableError
		switch {
		case err == nil:
			supporting.JoinPath = &path
		case errors.As(err, &unreach):
			// Kept without a join path: the generator may still use the
			// table as standalone context.
			p.logger.Debug("supporting table unreachable from primary",
				"primary", primary.Name.String(), "table", t.Name.String(), "max_hops", p.maxHops)
		default:
			return nil, err
		}
		plan.Supporting = append(plan.Supporting, supporting)
	}

	return plan, nil
}

// chooseTables narrows the candidate list. Ranker output is untrusted: names
// are resolved against the catalog and unknown ones dropped with a warning. A
// ranker transport failure falls back to the mention heuristic rather than
// failing the plan.
func (p *Planner) chooseTables(ctx context.Context, request string, candidates []domain.Table) []domain.Table {
	if p.ranker != nil {
		names, err := p.ranker.RankTables(ctx, request, candidates)
		if err != nil {
			p.logger.Warn("table ranking failed, falling back to mention heuristic", "error", err)
		} else {
			return p.resolveRanked(names, candidates)
		}
	}

	lower := strings.ToLower(request)
	var mentioned []domain.Table
	for _, t := range candidates {
		if strings.Contains(lower, strings.ToLower(t.Name.Table)) {
			mentioned = append(mentioned, t)
		}
	}
	if len(mentioned) > 0 {
		return mentioned
	}
	return candidates
}

// resolveRanked maps ranker-returned names back to candidate Table records.
// Bare, schema-qualified, and fully qualified spellings all resolve.
func (p *Planner) resolveRanked(names []string, candidates []domain.Table) []domain.Table {
	byName := make(map[string]int, len(candidates)*3)
	for i, t := range candidates {
		byName[strings.ToLower(t.Name.Table)] = i
		byName[strings.ToLower(t.Name.Qualified())] = i
		byName[strings.ToLower(t.Name.String())] = i
	}

	seen := make(map[int]bool)
	var out []domain.Table
	for _, name := range names {
		i, ok := byName[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			p.logger.Warn("dropping unknown table from ranking", "table", name)
			continue
		}
		if seen[i] {
			continue
		}
		seen[i] = true
		out = append(out, candidates[i])
	}
	return out
}

// selectPrimary picks the primary table index: a lone fact table wins,
// otherwise the largest row count with ties broken by catalog iteration
// order.
func selectPrimary(tables []domain.Table) int {
	factIdx := -1
	factCount := 0
	for i, t := range tables {
		if t.Type == domain.TableTypeFact {
			factCount++
			if factIdx == -1 {
				factIdx = i
			}
		}
	}
	if factCount == 1 {
		return factIdx
	}

	best := 0
	for i, t := range tables {
		if t.RowCount > tables[best].RowCount {
			best = i
		}
	}
	return best
}

func classifyTargetLayer(request string) domain.Layer {
	lower := strings.ToLower(request)
	for _, kw := range goldKeywords {
		if strings.Contains(lower, kw) {
			return domain.LayerGold
		}
	}
	for _, kw := range silverKeywords {
		if strings.Contains(lower, kw) {
			return domain.LayerSilver
		}
	}
	return domain.LayerSilver
}

// proposeTargetTable derives a deterministic output table name: silver
// targets strip the raw-landing prefix, gold targets get a _summary suffix.
func proposeTargetTable(target domain.Layer, primary domain.Table) string {
	bare := strings.ToLower(primary.Name.Table)
	for _, prefix := range []string{"raw_", "src_", "stg_", "staging_"} {
		if strings.HasPrefix(bare, prefix) {
			bare = strings.TrimPrefix(bare, prefix)
			break
		}
	}
	if target == domain.LayerGold && !strings.HasSuffix(bare, "_summary") {
		bare += "_summary"
	}
	return string(target) + "." + bare
}
