package catalog

import (
	"context"
	"strings"

	"lakeagent/internal/domain"
)

// Detection is one synthesized relationship plus the dimension tables that
// also claimed the column but lost the first-found tie-break. A non-empty
// AltTargets tells the caller the match was ambiguous; the pick itself is
// deterministic, so ambiguity is reported, never raised.
type Detection struct {
	Relationship domain.Relationship `json:"relationship"`
	AltTargets   []string            `json:"alt_targets,omitempty"`
}

type claimant struct {
	table  string // rendered table name
	column string
	isDim  bool
}

// DetectRelationships scans the registered columns for join-key names shared
// across tables and synthesizes candidate edges. It does not mutate the
// store.
//
// A column claims join-key status when its role is primary key or its name
// ends in _id, _code, or _key. For every column name claimed by more than one
// table, the claimants are split into dimension tables (bare table name
// contains "dim") and the rest. Only when both sides are non-empty does
// detection produce edges: one MANY_TO_ONE from each non-dimension table to
// the FIRST dimension claimant in catalog order, unenforced and unvalidated.
// Names claimed only by dimension tables, or only by non-dimension tables,
// produce nothing; those cases are left to manual registration.
func (s *Store) DetectRelationships() []Detection {
	s.mu.RLock()

	var order []string
	claims := make(map[string][]claimant)
	for _, t := range s.tables {
		key := t.Name.String()
		isDim := strings.Contains(strings.ToLower(t.Name.Table), "dim")
		for _, c := range s.columns[key] {
			if !claimsJoinKey(c) {
				continue
			}
			nameKey := strings.ToLower(c.Name)
			if _, seen := claims[nameKey]; !seen {
				order = append(order, nameKey)
			}
			claims[nameKey] = append(claims[nameKey], claimant{table: key, column: c.Name, isDim: isDim})
		}
	}
	s.mu.RUnlock()

	var out []Detection
	for _, nameKey := range order {
		claimants := claims[nameKey]
		if len(claimants) < 2 {
			continue
		}

		var dims, others []claimant
		for _, c := range claimants {
			if c.isDim {
				dims = append(dims, c)
			} else {
				others = append(others, c)
			}
		}
		if len(dims) == 0 || len(others) == 0 {
			continue
		}

		target := dims[0]
		var alts []string
		for _, d := range dims[1:] {
			alts = append(alts, d.table)
		}

		for _, src := range others {
			out = append(out, Detection{
				Relationship: domain.Relationship{
					Source:      domain.ColumnRef{Table: src.table, Column: src.column},
					Target:      domain.ColumnRef{Table: target.table, Column: target.column},
					Cardinality: domain.CardinalityManyToOne,
					Enforced:    false,
					Validated:   false,
				},
				AltTargets: alts,
			})
		}
	}
	return out
}

// AutoDetect runs detection and registers every synthesized edge. Re-running
// it is idempotent: an edge with the same endpoints overwrites itself.
func (s *Store) AutoDetect(ctx context.Context) ([]Detection, error) {
	detections := s.DetectRelationships()
	for _, d := range detections {
		if err := s.AddRelationship(ctx, d.Relationship); err != nil {
			return nil, err
		}
	}
	return detections, nil
}

func claimsJoinKey(c domain.Column) bool {
	if c.Role == domain.RolePrimaryKey {
		return true
	}
	lower := strings.ToLower(c.Name)
	return strings.HasSuffix(lower, "_id") || strings.HasSuffix(lower, "_code") || strings.HasSuffix(lower, "_key")
}
