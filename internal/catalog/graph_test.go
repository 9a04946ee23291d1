package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lakeagent/internal/domain"
)

func addRel(t *testing.T, s *Store, srcTable, srcCol, tgtTable, tgtCol string) {
	t.Helper()
	require.NoError(t, s.AddRelationship(context.Background(), domain.Relationship{
		Source: domain.ColumnRef{Table: srcTable, Column: srcCol},
		Target: domain.ColumnRef{Table: tgtTable, Column: tgtCol},
	}))
}

// orders -- dim_customers -- dim_regions
func chainStore(t *testing.T) *Store {
	t.Helper()
	s := NewStore(nil)
	addRel(t, s, "orders", "customer_id", "dim_customers", "customer_id")
	addRel(t, s, "dim_customers", "region_id", "dim_regions", "region_id")
	return s
}

func TestFindJoinPath_ZeroHopSelf(t *testing.T) {
	s := NewStore(nil)

	// No registration, no edges, maxHops zero: identity still resolves.
	path, err := s.FindJoinPath("anything", "anything", 0)
	require.NoError(t, err)
	assert.Equal(t, "anything", path.From)
	assert.Equal(t, "anything", path.To)
	assert.Equal(t, 0, path.HopCount())
}

func TestFindJoinPath_ChainAndSymmetry(t *testing.T) {
	s := chainStore(t)

	forward, err := s.FindJoinPath("orders", "dim_regions", 3)
	require.NoError(t, err)
	require.Equal(t, 2, forward.HopCount())
	assert.Equal(t, "orders", forward.Steps[0].From)
	assert.Equal(t, "dim_customers", forward.Steps[0].To)
	assert.Equal(t, "dim_customers", forward.Steps[1].From)
	assert.Equal(t, "dim_regions", forward.Steps[1].To)
	assert.Equal(t, "orders.customer_id = dim_customers.customer_id", forward.Steps[0].Rel.JoinClause())

	backward, err := s.FindJoinPath("dim_regions", "orders", 3)
	require.NoError(t, err)
	assert.Equal(t, forward.HopCount(), backward.HopCount())
	assert.Equal(t, "dim_regions", backward.Steps[0].From)
	assert.Equal(t, "dim_customers", backward.Steps[0].To)
}

func TestFindJoinPath_MaxHopsBound(t *testing.T) {
	s := chainStore(t)

	_, err := s.FindJoinPath("orders", "dim_regions", 1)
	var unreach *domain.UnreachableError
	require.ErrorAs(t, err, &unreach)
	assert.Equal(t, "orders", unreach.From)
	assert.Equal(t, "dim_regions", unreach.To)
	assert.Equal(t, 1, unreach.MaxHops)

	// Widening the bound can only make more pairs reachable, never fewer.
	for _, hops := range []int{2, 3, 10} {
		path, err := s.FindJoinPath("orders", "dim_regions", hops)
		require.NoError(t, err, "maxHops=%d", hops)
		assert.Equal(t, 2, path.HopCount())
	}
}

func TestFindJoinPath_DisconnectedIsUnreachable(t *testing.T) {
	s := chainStore(t)
	addRel(t, s, "islands", "x_id", "dim_islands", "x_id")

	_, err := s.FindJoinPath("orders", "islands", 10)
	var unreach *domain.UnreachableError
	require.ErrorAs(t, err, &unreach)

	_, err = s.FindJoinPath("orders", "never_registered", 10)
	require.ErrorAs(t, err, &unreach)
}

func TestFindJoinPath_FirstDiscoveredWinsTies(t *testing.T) {
	s := NewStore(nil)
	addRel(t, s, "a", "b_id", "b", "b_id")
	addRel(t, s, "b", "d_id", "d", "d_id")
	addRel(t, s, "a", "c_id", "c", "c_id")
	addRel(t, s, "c", "d_id", "d", "d_id")

	path, err := s.FindJoinPath("a", "d", 5)
	require.NoError(t, err)
	require.Equal(t, 2, path.HopCount())
	assert.Equal(t, "b", path.Steps[0].To)
}

func TestRelatedTables_Neighborhood(t *testing.T) {
	s := chainStore(t)

	fromMiddle := s.RelatedTables("dim_customers", 1)
	require.Len(t, fromMiddle, 2)
	assert.Equal(t, "orders", fromMiddle[0].Table)
	assert.Equal(t, 1, fromMiddle[0].Hops)
	assert.Equal(t, "dim_regions", fromMiddle[1].Table)
	assert.Equal(t, 1, fromMiddle[1].Hops)

	fromEnd := s.RelatedTables("orders", 2)
	require.Len(t, fromEnd, 2)
	assert.Equal(t, "dim_customers", fromEnd[0].Table)
	assert.Equal(t, 1, fromEnd[0].Hops)
	assert.Equal(t, "dim_regions", fromEnd[1].Table)
	assert.Equal(t, 2, fromEnd[1].Hops)
	require.Equal(t, 2, fromEnd[1].Path.HopCount())
	assert.Equal(t, "orders", fromEnd[1].Path.From)
	assert.Equal(t, "dim_regions", fromEnd[1].Path.To)
}

func TestRelatedTables_HopCapAndUnknownOrigin(t *testing.T) {
	s := chainStore(t)

	capped := s.RelatedTables("orders", 1)
	require.Len(t, capped, 1)
	assert.Equal(t, "dim_customers", capped[0].Table)

	assert.Empty(t, s.RelatedTables("never_registered", 3))
	assert.Empty(t, s.RelatedTables("orders", 0))
}
