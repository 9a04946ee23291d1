package catalog

import (
	"context"
	"strings"

	"lakeagent/internal/domain"
)

// AddTerm registers a business term. Re-adding a term with the same name
// (case-insensitive) replaces the earlier definition in place, keeping its
// position in the glossary.
func (s *Store) AddTerm(ctx context.Context, term domain.BusinessTerm) error {
	if strings.TrimSpace(term.Term) == "" {
		return domain.ErrValidation("term is required")
	}

	s.mu.Lock()
	key := strings.ToLower(term.Term)
	if idx, ok := s.termIdx[key]; ok {
		s.terms[idx] = term
	} else {
		s.termIdx[key] = len(s.terms)
		s.terms = append(s.terms, term)
	}
	s.mu.Unlock()

	return s.save(ctx)
}

// Terms returns the glossary in registration order.
func (s *Store) Terms() []domain.BusinessTerm {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.BusinessTerm, len(s.terms))
	copy(out, s.terms)
	return out
}

// GetTerm looks a term up by its exact name, case-insensitive.
func (s *Store) GetTerm(name string) (domain.BusinessTerm, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if idx, ok := s.termIdx[strings.ToLower(name)]; ok {
		return s.terms[idx], nil
	}
	return domain.BusinessTerm{}, domain.ErrNotFound("term %q not registered", name)
}

// ResolveTerm finds the first registered term whose name or alias occurs in
// the given text. Ties go to the earlier registration.
func (s *Store) ResolveTerm(text string) (domain.BusinessTerm, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, term := range s.terms {
		if term.Matches(text) {
			return term, nil
		}
	}
	return domain.BusinessTerm{}, domain.ErrNotFound("no business term matches %q", text)
}

// ExtractTerms returns every registered term that occurs in the given text,
// in registration order. An empty result is an empty slice, not an error.
func (s *Store) ExtractTerms(text string) []domain.BusinessTerm {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.BusinessTerm
	for _, term := range s.terms {
		if term.Matches(text) {
			out = append(out, term)
		}
	}
	return out
}
