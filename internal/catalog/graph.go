package catalog

import (
	"lakeagent/internal/domain"
)

// graphEdge is one traversable direction of a registered relationship.
type graphEdge struct {
	to  string
	rel domain.Relationship
}

// adjacency builds the undirected traversal structure: every relationship
// contributes an edge in both directions, appended in registration order so
// BFS discovery, and therefore path selection among equal-length paths, is
// reproducible.
func (s *Store) adjacency() map[string][]graphEdge {
	s.mu.RLock()
	defer s.mu.RUnlock()

	adj := make(map[string][]graphEdge)
	for _, rel := range s.rels {
		adj[rel.Source.Table] = append(adj[rel.Source.Table], graphEdge{to: rel.Target.Table, rel: rel})
		adj[rel.Target.Table] = append(adj[rel.Target.Table], graphEdge{to: rel.Source.Table, rel: rel})
	}
	return adj
}

// FindJoinPath returns a shortest join path from one table to another within
// maxHops relationship traversals. When several shortest paths exist the
// first-discovered one wins. from == to yields a zero-hop path without
// traversal. No path within the bound returns an UnreachableError, a normal
// planning outcome the caller branches on, never a panic.
func (s *Store) FindJoinPath(from, to string, maxHops int) (domain.JoinPath, error) {
	if from == to {
		return domain.JoinPath{From: from, To: to}, nil
	}
	if maxHops <= 0 {
		return domain.JoinPath{}, domain.ErrUnreachable(from, to, maxHops)
	}

	adj := s.adjacency()

	dist := map[string]int{from: 0}
	parent := map[string]domain.JoinStep{}
	queue := []string{from}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if dist[cur] == maxHops {
			continue
		}
		for _, next := range adj[cur] {
			if _, seen := dist[next.to]; seen {
				continue
			}
			dist[next.to] = dist[cur] + 1
			parent[next.to] = domain.JoinStep{From: cur, To: next.to, Rel: next.rel}
			if next.to == to {
				return reconstructPath(from, to, parent), nil
			}
			queue = append(queue, next.to)
		}
	}

	return domain.JoinPath{}, domain.ErrUnreachable(from, to, maxHops)
}

// RelatedTables returns every table reachable from the origin within maxHops,
// in discovery order, each paired with its hop distance and the path used to
// reach it. A node reached once is never revisited via a longer path.
func (s *Store) RelatedTables(from string, maxHops int) []domain.RelatedTable {
	if maxHops <= 0 {
		return nil
	}

	adj := s.adjacency()

	dist := map[string]int{from: 0}
	parent := map[string]domain.JoinStep{}
	queue := []string{from}
	var out []domain.RelatedTable

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if dist[cur] == maxHops {
			continue
		}
		for _, next := range adj[cur] {
			if _, seen := dist[next.to]; seen {
				continue
			}
			dist[next.to] = dist[cur] + 1
			parent[next.to] = domain.JoinStep{From: cur, To: next.to, Rel: next.rel}
			out = append(out, domain.RelatedTable{
				Table: next.to,
				Hops:  dist[next.to],
				Path:  reconstructPath(from, next.to, parent),
			})
			queue = append(queue, next.to)
		}
	}

	return out
}

// reconstructPath walks parent links back from the destination and reverses
// the steps into origin-first order.
func reconstructPath(from, to string, parent map[string]domain.JoinStep) domain.JoinPath {
	var steps []domain.JoinStep
	cur := to
	for cur != from {
		step := parent[cur]
		steps = append(steps, step)
		cur = step.From
	}
	for i, j := 0, len(steps)-1; i < j; i, j = i+1, j-1 {
		steps[i], steps[j] = steps[j], steps[i]
	}
	return domain.JoinPath{From: from, To: to, Steps: steps}
}
