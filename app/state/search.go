package state

import (
	"context"
	"strings"
	"sync"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/pkg/logger"
)

// Searcher runs a catalog search.
type Searcher interface {
	Search(ctx context.Context, term string) ([]models.Product, error)
}

// SearchSnapshot is the current search state.
type SearchSnapshot struct {
	Term        string           `json:"term"`
	Results     []models.Product `json:"results"`
	Searching   bool             `json:"searching"`
	HasSearched bool             `json:"has_searched"`
}

// Search holds the latest search. Overlapping searches are not serialized:
// whichever finishes last owns the state.
type Search struct {
	repo Searcher

	mu          sync.RWMutex
	term        string
	results     []models.Product
	searching   bool
	hasSearched bool
}

func NewSearch(repo Searcher) *Search {
	return &Search{repo: repo, results: []models.Product{}}
}

// Perform searches for term and returns this call's results. A blank term
// clears the state. A failed search yields no results but still counts as
// searched.
func (s *Search) Perform(ctx context.Context, term string) []models.Product {
	trimmed := strings.TrimSpace(term)
	if trimmed == "" {
		s.Clear()
		return []models.Product{}
	}

	s.mu.Lock()
	s.term, s.searching = trimmed, true
	s.mu.Unlock()

	results, err := s.repo.Search(ctx, trimmed)
	if err != nil {
		logger.WithCtx(ctx).Warn("search failed", "term", trimmed, "error", err)
		results = []models.Product{}
	}
	if results == nil {
		results = []models.Product{}
	}

	s.mu.Lock()
	s.results, s.hasSearched, s.searching = results, true, false
	s.mu.Unlock()
	return results
}

func (s *Search) SetTerm(term string) {
	s.mu.Lock()
	s.term = term
	s.mu.Unlock()
}

// Clear resets term and results and forgets that a search happened.
func (s *Search) Clear() {
	s.mu.Lock()
	s.term, s.results, s.hasSearched = "", []models.Product{}, false
	s.mu.Unlock()
}

func (s *Search) Snapshot() SearchSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return SearchSnapshot{
		Term:        s.term,
		Results:     clone(s.results),
		Searching:   s.searching,
		HasSearched: s.hasSearched,
	}
}
