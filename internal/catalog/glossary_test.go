package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lakeagent/internal/domain"
)

func seedGlossary(t *testing.T) *Store {
	t.Helper()
	s := NewStore(nil)
	require.NoError(t, s.AddTerm(context.Background(), domain.BusinessTerm{
		Term:       "revenue",
		Kind:       domain.TermKindMetric,
		Expression: "SUM(orders.amount)",
		Tables:     []string{"silver.orders"},
	}))
	require.NoError(t, s.AddTerm(context.Background(), domain.BusinessTerm{
		Term:    "average order value",
		Aliases: []string{"aov"},
		Kind:    domain.TermKindMetric,
	}))
	require.NoError(t, s.AddTerm(context.Background(), domain.BusinessTerm{
		Term: "active customer",
		Kind: domain.TermKindEntity,
	}))
	return s
}

func TestAddTerm_Validation(t *testing.T) {
	s := NewStore(nil)
	err := s.AddTerm(context.Background(), domain.BusinessTerm{Term: "  "})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestAddTerm_UpsertKeepsSlot(t *testing.T) {
	s := seedGlossary(t)
	require.NoError(t, s.AddTerm(context.Background(), domain.BusinessTerm{
		Term:       "Revenue",
		Expression: "SUM(orders.net_amount)",
	}))

	terms := s.Terms()
	require.Len(t, terms, 3)
	assert.Equal(t, "Revenue", terms[0].Term)
	assert.Equal(t, "SUM(orders.net_amount)", terms[0].Expression)
}

func TestGetTerm_CaseInsensitive(t *testing.T) {
	s := seedGlossary(t)
	term, err := s.GetTerm("REVENUE")
	require.NoError(t, err)
	assert.Equal(t, "revenue", term.Term)

	_, err = s.GetTerm("margin")
	var nferr *domain.NotFoundError
	require.ErrorAs(t, err, &nferr)
}

func TestResolveTerm_FirstMatchWins(t *testing.T) {
	s := seedGlossary(t)

	term, err := s.ResolveTerm("show Revenue for active customers")
	require.NoError(t, err)
	assert.Equal(t, "revenue", term.Term)

	term, err = s.ResolveTerm("what is our AOV this month")
	require.NoError(t, err)
	assert.Equal(t, "average order value", term.Term)
}

func TestResolveTerm_DirectionIsTermInsideText(t *testing.T) {
	s := seedGlossary(t)

	// "rev" occurs inside "revenue", not the other way round, so it is
	// not a match.
	_, err := s.ResolveTerm("rev")
	var nferr *domain.NotFoundError
	require.ErrorAs(t, err, &nferr)
}

func TestExtractTerms_AllMatchesInOrder(t *testing.T) {
	s := seedGlossary(t)

	got := s.ExtractTerms("revenue and AOV for each active customer")
	require.Len(t, got, 3)
	assert.Equal(t, "revenue", got[0].Term)
	assert.Equal(t, "average order value", got[1].Term)
	assert.Equal(t, "active customer", got[2].Term)

	assert.Empty(t, s.ExtractTerms("nothing matches here"))
}
